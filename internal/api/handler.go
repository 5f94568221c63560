package api

import (
	"context"
	"errors"
	"time"

	"github.com/terraincognita07/dialytics/internal/models"
	"github.com/terraincognita07/dialytics/internal/services"
	"go.uber.org/zap"
)

const (
	defaultAuthTokenTTL   = 12 * time.Hour
	defaultRequestTimeout = 30 * time.Second
	defaultSeriesRange    = 30
)

// PatientLister is implemented by sources that can enumerate patients.
type PatientLister interface {
	ListPatients(ctx context.Context) ([]models.Patient, error)
}

type Options struct {
	SecretKey          string
	TokenTTL           time.Duration
	RequestTimeout     time.Duration
	SeriesDefaultRange int
	Patients           PatientLister
	Logger             *zap.Logger
	Now                func() time.Time
}

type Handler struct {
	analytics      *services.AnalyticsService
	auth           *services.AuthService
	patients       PatientLister
	secretKey      []byte
	tokenTTL       time.Duration
	requestTimeout time.Duration
	seriesRange    int
	loginLimiter   *attemptLimiter
	logger         *zap.Logger
	now            func() time.Time
}

func NewHandler(analytics *services.AnalyticsService, auth *services.AuthService, options Options) (*Handler, error) {
	if analytics == nil {
		return nil, errors.New("analytics service is required")
	}
	if auth == nil {
		return nil, errors.New("auth service is required")
	}
	if options.SecretKey == "" {
		return nil, errors.New("secret key is required")
	}
	if options.TokenTTL <= 0 {
		options.TokenTTL = defaultAuthTokenTTL
	}
	if options.RequestTimeout <= 0 {
		options.RequestTimeout = defaultRequestTimeout
	}
	if options.SeriesDefaultRange <= 0 {
		options.SeriesDefaultRange = defaultSeriesRange
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	return &Handler{
		analytics:      analytics,
		auth:           auth,
		patients:       options.Patients,
		secretKey:      []byte(options.SecretKey),
		tokenTTL:       options.TokenTTL,
		requestTimeout: options.RequestTimeout,
		seriesRange:    options.SeriesDefaultRange,
		loginLimiter:   newAttemptLimiter(),
		logger:         options.Logger,
		now:            options.Now,
	}, nil
}
