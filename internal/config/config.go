// Package config reads the service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
)

type Config struct {
	Port     int
	AppEnv   string
	LogLevel string

	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string
	GeminiCallTimeout time.Duration
	DayConcurrency    int

	StoreBackend     string
	AWSRegion        string
	DietPlansTable   string
	UsersTable       string
	PhotoBucket      string
	DatabaseURL      string
	HistoryCacheSize int

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret    string
	RateLimitRPS float64
	CORSOrigins  []string
}

// Load reads environment variables into Config, applying defaults for local dev.
func Load() Config {
	return Config{
		Port:     getIntEnv("PORT", 5001),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiCallTimeout: getDurationEnv("GEMINI_CALL_TIMEOUT", 60*time.Second),
		DayConcurrency:    getIntEnv("DAY_CONCURRENCY", 7),

		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", StoreDynamoDB)),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		DietPlansTable:   getEnv("DIET_PLANS_TABLE", "DietPlans"),
		UsersTable:       getEnv("USERS_TABLE", "Users"),
		PhotoBucket:      getEnv("PHOTO_BUCKET", "fitai-profile-photos"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		HistoryCacheSize: getIntEnv("HISTORY_CACHE_SIZE", 256),

		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "diet-plan.generated"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		RateLimitRPS: getFloatEnv("RATE_LIMIT_RPS", 2),
		CORSOrigins:  splitAndTrim(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "local"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
