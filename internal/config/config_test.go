package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so host settings do not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "PORT", "CORS_ORIGINS", "AUTH_JWKS_URL", "LOG_DIR", "LOG_MAX_FILES",
		"STORAGE_BACKEND", "STORAGE_KEY", "REDIS_URL", "DATABASE_URL", "TABLE_PREFIX", "SQLITE_PATH",
		"RECOGNITION_PROVIDER", "ANTHROPIC_API_KEY", "RECOGNITION_MODEL", "RECOGNITION_MAX_TOKENS",
		"RECOGNITION_RPS", "RECOGNITION_BURST", "BATCH_POLICY", "MAX_UPLOAD_BYTES",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_USE_SSL", "DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, "mediscript_prescriptions", cfg.StorageKey)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, ProviderLorem, cfg.RecognitionProvider, "no API key falls back to lorem")
	assert.Equal(t, "fail_fast", cfg.BatchPolicy)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.MaxUploadBytes)
	assert.Equal(t, 1, cfg.RecognitionBurst)
	assert.True(t, cfg.Debug)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/mediscript")
	t.Setenv("RECOGNITION_RPS", "0.5")
	t.Setenv("RECOGNITION_BURST", "not-a-number")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load()
	assert.Equal(t, ProviderAnthropic, cfg.RecognitionProvider)
	assert.Equal(t, "prod_", cfg.TablePrefix)
	assert.Equal(t, 0.5, cfg.RecognitionRPS)
	assert.Equal(t, 1, cfg.RecognitionBurst, "unparseable numbers keep the default")
	assert.True(t, cfg.MinioUseSSL)
	assert.False(t, cfg.Debug)
	assert.NoError(t, cfg.Validate())
}

func TestTablePrefixOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "test")
	assert.Equal(t, "test_", Load().TablePrefix)

	t.Setenv("TABLE_PREFIX", "ci_")
	assert.Equal(t, "ci_", Load().TablePrefix)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown backend", func(c *Config) { c.StorageBackend = "mongo" }, "StorageBackend"},
		{"postgres without url", func(c *Config) { c.StorageBackend = StoragePostgres; c.DatabaseURL = "" }, "DatabaseURL"},
		{"anthropic without key", func(c *Config) { c.RecognitionProvider = ProviderAnthropic }, "AnthropicAPIKey"},
		{"bad policy", func(c *Config) { c.BatchPolicy = "retry" }, "BatchPolicy"},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }, "MaxUploadBytes"},
		{"zero burst", func(c *Config) { c.RecognitionBurst = 0 }, "RecognitionBurst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		env       string
		wantDebug bool
	}{
		{"dev", true},
		{"prod", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			logger, closeLog, err := NewLogger(&Config{Environment: tt.env}, &buf)
			require.NoError(t, err)
			defer closeLog()

			logger.Debug("debug line")
			logger.Info("info line", "record_id", "r1")

			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), "debug line"))

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			var entry map[string]any
			require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
			assert.Equal(t, "info line", entry["msg"])
			assert.Equal(t, "r1", entry["record_id"])
		})
	}
}

func TestNewLoggerWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger, closeLog, err := NewLogger(&Config{Environment: "prod", LogDir: dir, LogMaxFiles: 5}, &buf)
	require.NoError(t, err)

	logger.Info("to both")
	require.NoError(t, closeLog())

	files, err := filepath.Glob(filepath.Join(dir, "mediscript-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, buf.String(), "to both")
}

func TestSetupLogFileRemovesOldest(t *testing.T) {
	dir := t.TempDir()
	old := []string{
		"mediscript-2024-01-01T00-00-00.000.log",
		"mediscript-2024-01-02T00-00-00.000.log",
		"mediscript-2024-01-03T00-00-00.000.log",
	}
	for _, name := range old {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	f, err := SetupLogFile(dir, 2)
	require.NoError(t, err)
	defer f.Close()

	files, err := filepath.Glob(filepath.Join(dir, "mediscript-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, old[2]), files[0])
	assert.Equal(t, f.Name(), files[1])
}
