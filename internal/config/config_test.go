package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleetsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 200, cfg.Forecast.Replicates)
	assert.InDelta(t, 0.18, cfg.Forecast.Jitter, 1e-12)
	assert.Equal(t, "localhost:50061", cfg.Query.Address)
	assert.Equal(t, "fleetsim", cfg.Tracing.ServiceName)
	require.NoError(t, Validate(cfg))
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
forecast:
  replicates: 500
  jitter: 0.1
  workers: 4
archive:
  path: /tmp/fleetsim.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.LoggerConfig().Format)
	assert.Equal(t, 500, cfg.Forecast.Replicates)
	assert.Equal(t, 4, cfg.Forecast.Workers)
	assert.Equal(t, "/tmp/fleetsim.db", cfg.Archive.Path)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:50061", cfg.Query.Address)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "forecast:\n  replicates: 500\n")
	t.Setenv("FLEETSIM_FORECAST_REPLICATES", "64")
	t.Setenv("FLEETSIM_QUERY_ADDRESS", "0.0.0.0:7000")
	t.Setenv("FLEETSIM_TRACING_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Forecast.Replicates)
	assert.Equal(t, "0.0.0.0:7000", cfg.Query.Address)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: verbose
forecast:
  jitter: 1.5
`)
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "Config.Logging.Level")
	assert.Contains(t, err.Error(), "Config.Forecast.Jitter")
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "logging: [unterminated\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
