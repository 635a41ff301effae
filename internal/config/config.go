package config

import (
	"fmt"
	"os"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	AuthJWKSURL string // Empty disables JWT verification (dev identity header instead)
	LogDir      string
	LogMaxFiles int

	// Storage
	StorageBackend string
	StorageKey     string
	RedisURL       string
	DatabaseURL    string
	TablePrefix    string
	SQLitePath     string

	// Recognition
	RecognitionProvider  string
	AnthropicAPIKey      string
	RecognitionModel     string
	RecognitionMaxTokens int
	RecognitionRPS       float64
	RecognitionBurst     int

	// Batch ingestion
	BatchPolicy    string
	MaxUploadBytes int64

	// Source archive (S3-compatible); disabled when MinioEndpoint is empty
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Debug flags
	Debug bool
}

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Recognition providers
const (
	ProviderAnthropic = "anthropic"
	ProviderLorem     = "lorem"
)

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		AuthJWKSURL: getEnv("AUTH_JWKS_URL", ""),
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 10),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageMemory),
		StorageKey:     getEnv("STORAGE_KEY", "mediscript_prescriptions"),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		TablePrefix:    getTablePrefix(env),
		SQLitePath:     getEnv("SQLITE_PATH", "data/mediscript.db"),

		RecognitionProvider:  getEnv("RECOGNITION_PROVIDER", getDefaultProvider()),
		AnthropicAPIKey:      getEnv("ANTHROPIC_API_KEY", ""),
		RecognitionModel:     getEnv("RECOGNITION_MODEL", "claude-haiku-4-5-20251001"),
		RecognitionMaxTokens: getEnvInt("RECOGNITION_MAX_TOKENS", 4096),
		RecognitionRPS:       getEnvFloat("RECOGNITION_RPS", 0),
		RecognitionBurst:     getEnvInt("RECOGNITION_BURST", 1),

		BatchPolicy:    getEnv("BATCH_POLICY", "fail_fast"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "mediscript-sources"),
		MinioUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",

		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// Validate checks the enumerated settings and the settings each choice requires.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.StorageBackend, validation.Required, validation.In(StorageMemory, StorageRedis, StoragePostgres, StorageSQLite)),
		validation.Field(&c.StorageKey, validation.Required),
		validation.Field(&c.RecognitionProvider, validation.Required, validation.In(ProviderAnthropic, ProviderLorem)),
		validation.Field(&c.BatchPolicy, validation.Required, validation.In("fail_fast", "best_effort")),
		validation.Field(&c.DatabaseURL, validation.When(c.StorageBackend == StoragePostgres, validation.Required)),
		validation.Field(&c.RedisURL, validation.When(c.StorageBackend == StorageRedis, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.StorageBackend == StorageSQLite, validation.Required)),
		validation.Field(&c.AnthropicAPIKey, validation.When(c.RecognitionProvider == ProviderAnthropic, validation.Required)),
		validation.Field(&c.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.RecognitionBurst, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getDefaultProvider falls back to the offline provider when no API key is set.
func getDefaultProvider() string {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return ProviderAnthropic
	}
	return ProviderLorem
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
