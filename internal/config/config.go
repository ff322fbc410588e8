// Package config loads the service and command line configuration. Values come from built in
// defaults, then an optional YAML file, then SALESFC_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	forecaster "github.com/aouyang1/go-salesforecaster"
	"github.com/aouyang1/go-salesforecaster/ingest"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load
const EnvPrefix = "SALESFC"

var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Forecast ForecastConfig `yaml:"forecast" envconfig:"FORECAST"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string          `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains the forecast endpoint rate limit
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
}

// ForecastConfig contains the pipeline options exposed to operators
type ForecastConfig struct {
	Horizon         int    `yaml:"horizon" envconfig:"HORIZON" validate:"gte=1"`
	SeasonalPeriod  int    `yaml:"seasonal_period" envconfig:"SEASONAL_PERIOD" validate:"omitempty,gte=2"`
	MinObservations int    `yaml:"min_observations" envconfig:"MIN_OBSERVATIONS" validate:"gte=1"`
	TimeField       string `yaml:"time_field" envconfig:"TIME_FIELD" validate:"required"`
	ValueField      string `yaml:"value_field" envconfig:"VALUE_FIELD" validate:"required,nefield=TimeField"`
	Parallelization int    `yaml:"parallelization" envconfig:"PARALLELIZATION" validate:"gte=0"`
}

// Default returns the configuration used when neither a file nor the environment sets a value
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  10 << 20,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     10,
				Burst:   20,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Forecast: ForecastConfig{
			Horizon:         forecaster.DefaultHorizon,
			MinObservations: ingest.DefaultMinObservations,
			TimeField:       ingest.DefaultTimeField,
			ValueField:      ingest.DefaultValueField,
		},
	}
}

// Load builds the configuration from the defaults, the YAML file at path when non-empty, and the
// environment, in increasing precedence
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config file, %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config file %s, %w", path, err)
		}
	}

	// unset variables leave the current value in place
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("unable to load config from env, %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field constraint
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w, %w", ErrInvalidConfig, err)
	}
	return nil
}

// ForecasterOptions converts the forecast section into pipeline options
func (c *Config) ForecasterOptions() *forecaster.Options {
	opt := forecaster.NewDefaultOptions()
	opt.Horizon = c.Forecast.Horizon
	opt.SeasonalPeriod = c.Forecast.SeasonalPeriod
	opt.IngestOptions.MinObservations = c.Forecast.MinObservations
	opt.IngestOptions.TimeField = c.Forecast.TimeField
	opt.IngestOptions.ValueField = c.Forecast.ValueField
	opt.HoltWintersOptions.Parallelization = c.Forecast.Parallelization
	return opt
}

// NewLogger builds a slog logger writing to w with the configured level and format
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	hopt := &slog.HandlerOptions{Level: level}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(w, hopt))
	}
	return slog.New(slog.NewJSONHandler(w, hopt))
}
