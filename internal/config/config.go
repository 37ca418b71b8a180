// Package config loads fleetsim settings from an optional YAML file, an
// optional .env file and FLEETSIM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/logging"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/observability"
)

// EnvPrefix prefixes every environment override, e.g. FLEETSIM_FORECAST_REPLICATES.
const EnvPrefix = "FLEETSIM"

// ErrInvalid indicates a configuration that failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root configuration.
type Config struct {
	Logging   LoggingConfig               `mapstructure:"logging"`
	Metrics   MetricsConfig               `mapstructure:"metrics"`
	Tracing   observability.TracingConfig `mapstructure:"tracing"`
	Forecast  ForecastConfig              `mapstructure:"forecast"`
	Query     QueryConfig                 `mapstructure:"query"`
	Archive   ArchiveConfig               `mapstructure:"archive"`
	Scenarios ScenariosConfig             `mapstructure:"scenarios"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level     string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format    string `mapstructure:"format" validate:"oneof=json text"`
	AddSource bool   `mapstructure:"add_source"`
}

// MetricsConfig controls the Prometheus /metrics listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address" validate:"required_if=Enabled true"`
}

// ForecastConfig holds Monte Carlo defaults.
type ForecastConfig struct {
	Replicates int     `mapstructure:"replicates" validate:"min=1,max=100000"`
	Jitter     float64 `mapstructure:"jitter" validate:"gte=0,lte=1"`
	Seed       uint64  `mapstructure:"seed"`
	// Workers of 0 means GOMAXPROCS.
	Workers int `mapstructure:"workers" validate:"min=0"`
}

// QueryConfig configures the gRPC query server.
type QueryConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

// ArchiveConfig points at the SQLite scenario archive. An empty path disables it.
type ArchiveConfig struct {
	Path string `mapstructure:"path"`
}

// ScenariosConfig locates optional scenario parameter overrides.
type ScenariosConfig struct {
	OverridesFile string `mapstructure:"overrides_file"`
}

// LoggerConfig converts the logging section into a logging.Config.
func (c Config) LoggerConfig() logging.Config {
	return logging.Config{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.AddSource,
	}
}

// Load reads configuration with priority env > file > defaults. An empty path
// searches ./fleetsim.yaml and ./configs/fleetsim.yaml; a missing file is not
// an error, a malformed one is.
func Load(path string) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fleetsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9464")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "fleetsim")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("forecast.replicates", 200)
	v.SetDefault("forecast.jitter", 0.18)
	v.SetDefault("forecast.seed", 1)
	v.SetDefault("forecast.workers", 0)

	v.SetDefault("query.address", "localhost:50061")

	v.SetDefault("archive.path", "")
	v.SetDefault("scenarios.overrides_file", "")
}

// Validate checks struct tags and formats the failures into one error.
func Validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, e := range verrs {
		messages = append(messages, fmt.Sprintf("%s failed %s (value: '%v')", e.Namespace(), e.Tag(), e.Value()))
	}
	return fmt.Errorf("%w:\n  %s", ErrInvalid, strings.Join(messages, "\n  "))
}
