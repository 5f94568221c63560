package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DataSourceLocal  = "local"
	DataSourceRemote = "remote"

	minSecretKeyLength = 32
	maxSeriesRange     = 3650
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	TimeZone           string        `mapstructure:"TZ"`
	DBPath             string        `mapstructure:"DB_PATH"`
	SecretKey          string        `mapstructure:"SECRET_KEY"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogFormat          string        `mapstructure:"LOG_FORMAT"`
	DataSource         string        `mapstructure:"DATA_SOURCE"`
	RemoteBaseURL      string        `mapstructure:"REMOTE_BASE_URL"`
	RemoteToken        string        `mapstructure:"REMOTE_TOKEN"`
	RemoteTimeout      time.Duration `mapstructure:"REMOTE_TIMEOUT"`
	RemoteRetries      int           `mapstructure:"REMOTE_RETRIES"`
	SeriesDefaultRange int           `mapstructure:"SERIES_DEFAULT_RANGE"`
	AuthTokenTTL       time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
}

var keys = []string{
	"PORT",
	"ENV",
	"TZ",
	"DB_PATH",
	"SECRET_KEY",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"DATA_SOURCE",
	"REMOTE_BASE_URL",
	"REMOTE_TOKEN",
	"REMOTE_TIMEOUT",
	"REMOTE_RETRIES",
	"SERIES_DEFAULT_RANGE",
	"AUTH_TOKEN_TTL",
}

// Load reads configuration from the environment. A .env file in the working
// directory is used when present.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("TZ", "UTC")
	v.SetDefault("DB_PATH", "data/dialytics.db")
	v.SetDefault("SECRET_KEY", "change_me_in_production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DATA_SOURCE", DataSourceLocal)
	v.SetDefault("REMOTE_TIMEOUT", "15s")
	v.SetDefault("REMOTE_RETRIES", 2)
	v.SetDefault("SERIES_DEFAULT_RANGE", 30)
	v.SetDefault("AUTH_TOKEN_TTL", "12h")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DataSource = strings.ToLower(strings.TrimSpace(cfg.DataSource))
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves TZ; day keys are computed in this zone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.TimeZone)
	if name == "" {
		return time.UTC, nil
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TZ %q: %w", name, err)
	}
	return location, nil
}

func (c *Config) Validate() error {
	switch c.DataSource {
	case DataSourceLocal:
	case DataSourceRemote:
		if strings.TrimSpace(c.RemoteBaseURL) == "" {
			return fmt.Errorf("REMOTE_BASE_URL is required when DATA_SOURCE is %q", DataSourceRemote)
		}
	default:
		return fmt.Errorf("DATA_SOURCE must be %q or %q, got %q", DataSourceLocal, DataSourceRemote, c.DataSource)
	}

	if c.RemoteRetries < 0 {
		return fmt.Errorf("REMOTE_RETRIES must not be negative, got %d", c.RemoteRetries)
	}
	if c.SeriesDefaultRange <= 0 || c.SeriesDefaultRange > maxSeriesRange {
		return fmt.Errorf("SERIES_DEFAULT_RANGE must be between 1 and %d, got %d", maxSeriesRange, c.SeriesDefaultRange)
	}
	if c.AuthTokenTTL <= 0 {
		return fmt.Errorf("AUTH_TOKEN_TTL must be positive, got %s", c.AuthTokenTTL)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.IsProduction() {
		secret := strings.TrimSpace(c.SecretKey)
		if _, insecure := insecureSecretKeys[secret]; insecure {
			return fmt.Errorf("SECRET_KEY must be changed in production")
		}
		if len(secret) < minSecretKeyLength {
			return fmt.Errorf("SECRET_KEY must be at least %d bytes in production", minSecretKeyLength)
		}
	} else if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("SECRET_KEY must not be empty")
	}

	return nil
}
