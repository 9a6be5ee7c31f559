package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	CORSAllowedOrigins []string
	RateLimitRPS       int
	RateLimitBurst     int

	// Models
	ModelDir         string
	EctopicModelPath string
	MolarModelPath   string

	ClinicalValidation bool

	// Prediction cache: none, memory or redis
	PredictionCache     string
	PredictionCacheSize int
	PredictionCacheTTL  time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers  []string
	AlertsEnabled bool
	AlertTopic    string

	// Intake archive
	IntakeArchiveEnabled bool
	PostgresHost         string
	PostgresPort         string
	PostgresUser         string
	PostgresPassword     string
	PostgresDB           string
	PostgresSSLMode      string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	modelDir := getEnv("MODEL_DIR", "models")

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),

		CORSAllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitRPS:       getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 100),

		ModelDir:         modelDir,
		EctopicModelPath: getEnv("ECTOPIC_MODEL_PATH", filepath.Join(modelDir, "ectopic_pregnancy_model.json")),
		MolarModelPath:   getEnv("MOLAR_MODEL_PATH", filepath.Join(modelDir, "molar_pregnancy_model.json")),

		ClinicalValidation: getBoolEnv("CLINICAL_VALIDATION_ENABLED", true),

		PredictionCache:     strings.ToLower(getEnv("PREDICTION_CACHE", "none")),
		PredictionCacheSize: getIntEnv("PREDICTION_CACHE_SIZE", 4096),
		PredictionCacheTTL:  getDuration("PREDICTION_CACHE_TTL", 10*time.Minute),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:  getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		AlertsEnabled: getBoolEnv("ALERTS_ENABLED", false),
		AlertTopic:    getEnv("ALERT_TOPIC", "risk.alerts"),

		IntakeArchiveEnabled: getBoolEnv("INTAKE_ARCHIVE_ENABLED", false),
		PostgresHost:         getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:         getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:         getEnv("POSTGRES_USER", "pregnancy"),
		PostgresPassword:     getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:           getEnv("POSTGRES_DB", "pregnancy_system"),
		PostgresSSLMode:      getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getStringSliceEnv splits a comma separated value, dropping empty entries.
func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
