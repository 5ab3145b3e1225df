package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	domainOSC "gosc/domain/osc"
	"gosc/internal"
	"gosc/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Correction CorrectionConfig `validate:"required"`
	Data       DataConfig
	Logging    LoggingConfig
}

// CorrectionConfig holds the default correction parameters (OSC_*)
type CorrectionConfig struct {
	Components    int     `envconfig:"COMPONENTS" default:"2" validate:"gte=0"`
	Tolerance     float64 `envconfig:"TOLERANCE" default:"1e-6" validate:"gt=0"`
	MaxIter       int     `envconfig:"MAX_ITER" default:"50" validate:"gte=1"`
	Variant       string  `envconfig:"VARIANT" default:"wold" validate:"required"`
	PLSComponents int     `envconfig:"PLS_COMPONENTS" default:"0" validate:"gte=0"`
}

// DataConfig holds the spectra source settings (DATA_*)
type DataConfig struct {
	File           string `envconfig:"FILE"`
	Sheet          string `envconfig:"SHEET" default:"Sheet1"`
	ResponseColumn string `envconfig:"RESPONSE_COLUMN" default:"response" validate:"required"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=error warn warning info debug trace"`
}

// Load reads a .env file when present, then the environment, and validates
// the result
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to load .env file")
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only
func FromEnv() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process("OSC", &cfg.Correction); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to load correction configuration")
	}
	if err := envconfig.Process("DATA", &cfg.Data); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to load data configuration")
	}
	if err := envconfig.Process("", &cfg.Logging); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to load logging configuration")
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if _, err := domainOSC.ParseVariant(cfg.Correction.Variant); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	return nil
}

// Params maps the correction settings to engine parameters
func (c *Config) Params() (domainOSC.Params, error) {
	variant, err := domainOSC.ParseVariant(c.Correction.Variant)
	if err != nil {
		return domainOSC.Params{}, errors.ConfigInvalid(err.Error())
	}
	return domainOSC.Params{
		Components:    c.Correction.Components,
		Tolerance:     c.Correction.Tolerance,
		MaxIter:       c.Correction.MaxIter,
		Variant:       variant,
		PLSComponents: c.Correction.PLSComponents,
	}, nil
}

// Logger builds a logger at the configured level
func (c *Config) Logger() *internal.Logger {
	return internal.NewLogger(internal.ParseLogLevel(c.Logging.Level))
}
