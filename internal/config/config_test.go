package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
app:
  name: formcast
  environment: development
  log_level: debug
documents:
  source: files
  dir: testdata/forms
  pattern: "*.txt"
  timeout_seconds: 15
predictor:
  url: http://localhost:8100
  request_timeout_seconds: 5
  cache_ttl_seconds: 120
  cache_max_size: 500
analysis:
  workers: 2
  hybrid_margin_percent: 18
  hybrid_ml_confidence: 70
  volatile_venues:
    - Richmond
metrics:
  enabled: true
  port: 9090
  path: /metrics
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfigFile(t, validYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "formcast", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 2, cfg.Analysis.Workers)
	assert.Equal(t, []string{"Richmond"}, cfg.Analysis.VolatileVenues)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_PREDICTOR_KEY", "secret-key-123")

	path := writeConfigFile(t, `
app:
  name: formcast
  environment: development
  log_level: info
documents:
  source: files
  dir: data
  timeout_seconds: 10
predictor:
  url: http://localhost:8100
  api_key: ${TEST_PREDICTOR_KEY}
  request_timeout_seconds: 5
  cache_ttl_seconds: 60
  cache_max_size: 100
analysis:
  workers: 1
metrics:
  port: 9090
  path: /metrics
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-key-123", cfg.Predictor.APIKey)
}

func TestLoadWithDefaultsNoFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 18.0, cfg.Analysis.HybridMarginPercent)
	assert.Equal(t, 70.0, cfg.Analysis.HybridMLConfidence)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	path := writeConfigFile(t, validYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.NoError(t, Validate(cfg))
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	path := writeConfigFile(t, validYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.App.Environment = "qa"
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment")
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	path := writeConfigFile(t, validYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.App.LogLevel = "verbose"
	assert.Error(t, Validate(cfg))
}

func TestValidateRemoteSourceRequiresURL(t *testing.T) {
	path := writeConfigFile(t, validYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Documents.Source = "remote"
	cfg.Documents.RemoteURL = ""
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote_url")
}

func TestValidateBoxBiasRequiresDatabase(t *testing.T) {
	path := writeConfigFile(t, validYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Analysis.BoxBiasLookupEnabled = true
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}

func TestValidateProductionRequiresPredictorKey(t *testing.T) {
	path := writeConfigFile(t, validYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.App.Environment = "production"
	cfg.Predictor.APIKey = ""
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "formcast",
			User:     "app",
			Password: "pw",
			SSLMode:  "disable",
		},
	}
	assert.Equal(t, "postgres://app:pw@localhost:5432/formcast?sslmode=disable", cfg.GetDatabaseDSN())
	assert.True(t, cfg.DatabaseEnabled())
}

func TestParseSecretDataOverlay(t *testing.T) {
	cfg := &Config{}
	overlaySecretsOnConfig(cfg, &SecretsOverlay{
		DatabasePassword: "db-secret",
		PredictorAPIKey:  "ml-secret",
	})

	assert.Equal(t, "db-secret", cfg.Database.Password)
	assert.Equal(t, "ml-secret", cfg.Predictor.APIKey)
	assert.Empty(t, cfg.Documents.APIKey)
}
