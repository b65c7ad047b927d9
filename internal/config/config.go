package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL         string
	ServerPort          string
	BaseURL             string
	FrontendURL         string
	RedisURL            string
	RabbitMQURL         string
	RabbitMQPrefetch    int
	OIDCIssuer          string
	OIDCClientID        string
	OIDCClientSecret    string
	OIDCRedirectURI     string
	OIDCJWKSURL         string
	OIDCAudience        string
	OpenAIKey           string
	AIModel             string
	AIBaseURL           string
	DashboardWindowDays int
	SnapshotTTLSeconds  int
	EnableHSTS          bool
	ServerDebugMode     bool
	WorkerDebugMode     bool
	OTELEnabled         bool
	OTELEndpoint        string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		BaseURL:             getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:3000"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:    getEnvInt("RABBITMQ_PREFETCH", 1),
		OIDCIssuer:          getEnv("OIDC_ISSUER", ""),
		OIDCClientID:        getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:    getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURI:     getEnv("OIDC_REDIRECT_URI", ""),
		OIDCJWKSURL:         getEnv("OIDC_JWKS_URL", ""),
		OIDCAudience:        getEnv("OIDC_AUDIENCE", ""),
		OpenAIKey:           getEnv("OPENAI_API_KEY", ""),
		AIModel:             getEnv("AI_MODEL", ""),
		AIBaseURL:           getEnv("AI_BASE_URL", ""),
		DashboardWindowDays: getEnvInt("DASHBOARD_WINDOW_DAYS", 30),
		SnapshotTTLSeconds:  getEnvInt("SNAPSHOT_TTL_SECONDS", 300),
		EnableHSTS:          getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode:     getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode:     getEnvBool("WORKER_DEBUG_MODE", false),
		OTELEnabled:         getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// OIDC settings stand or fall together
	if cfg.OIDCIssuer != "" && cfg.OIDCJWKSURL == "" {
		return nil, fmt.Errorf("OIDC_JWKS_URL is required when OIDC_ISSUER is set")
	}

	if cfg.DashboardWindowDays < 1 {
		cfg.DashboardWindowDays = 30
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
