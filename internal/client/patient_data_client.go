package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/terraincognita07/dialytics/internal/services"
	"go.uber.org/zap"
)

const patientDataPath = "/patients/{patientID}/dialysis"

type Options struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	Retries  int
	Location *time.Location
}

// PatientDataClient loads patient records from the upstream data service.
type PatientDataClient struct {
	httpClient *resty.Client
	location   *time.Location
	logger     *zap.Logger
}

func NewPatientDataClient(options Options, logger *zap.Logger) *PatientDataClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.Location == nil {
		options.Location = time.UTC
	}
	if options.Timeout <= 0 {
		options.Timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(options.BaseURL).
		SetTimeout(options.Timeout).
		SetRetryCount(options.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(response *resty.Response, err error) bool {
			if err != nil {
				return response == nil || response.Request == nil || response.Request.Context().Err() == nil
			}
			return response.StatusCode() >= http.StatusInternalServerError || response.StatusCode() == http.StatusTooManyRequests
		})
	if options.Token != "" {
		httpClient.SetAuthToken(options.Token)
	}

	return &PatientDataClient{
		httpClient: httpClient,
		location:   options.Location,
		logger:     logger,
	}
}

func (c *PatientDataClient) LoadPatientData(ctx context.Context, patientID string) (services.PatientData, error) {
	var payload services.RawPatientPayload
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("patientID", patientID).
		SetResult(&payload).
		ForceContentType("application/json").
		Get(patientDataPath)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return services.PatientData{}, ctxErr
		}
		c.logger.Error("patient data request failed",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		return services.PatientData{}, fmt.Errorf("%w: %v", services.ErrPatientDataUnavailable, err)
	}

	switch status := response.StatusCode(); {
	case status == http.StatusNotFound:
		return services.PatientData{}, services.ErrPatientNotFound
	case status != http.StatusOK:
		c.logger.Error("patient data service returned an error",
			zap.String("patient_id", patientID),
			zap.Int("status_code", status),
		)
		return services.PatientData{}, fmt.Errorf("%w: upstream status %d", services.ErrPatientDataUnavailable, status)
	}

	data, report := services.NormalizePatientPayload(payload, c.location)
	if data.Patient.ID == "" {
		data.Patient.ID = patientID
		for index := range data.Treatments {
			data.Treatments[index].PatientID = patientID
		}
	}
	if len(report.Issues) > 0 {
		c.logger.Warn("patient data normalised with issues",
			zap.String("patient_id", patientID),
			zap.Int("undated_treatments", report.UndatedTreatments),
			zap.Int("dropped_ktv", report.DroppedKtV),
			zap.Strings("issues", report.Issues),
		)
	}

	c.logger.Debug("patient data loaded",
		zap.String("patient_id", patientID),
		zap.Int("treatment_count", len(data.Treatments)),
		zap.Int("ktv_count", len(data.KtV)),
	)
	return data, nil
}
