package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Generation endpoint (LM Studio style, OpenAI compatible)
	LLMURL     string
	LLMModel   string
	LLMTimeout time.Duration

	// Pushover reminder delivery (optional)
	PushoverToken string
}

// LoadConfig creates a new Config instance from environment variables,
// falling back to Docker secrets for sensitive values.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort: envOr("SERVER_PORT", "8080"),
		ServerHost: envOr("SERVER_HOST", "0.0.0.0"),

		DBHost:     envOr("DB_HOST", "localhost"),
		DBPort:     envOr("DB_PORT", "5432"),
		DBUser:     envOrSecret("DB_USER", "db_user"),
		DBPassword: envOrSecret("DB_PASSWORD", "db_password"),
		DBName:     envOr("DB_NAME", "medinfo"),
		DBSSLMode:  envOr("DB_SSL_MODE", "disable"),

		RedisHost:     envOr("REDIS_HOST", "localhost"),
		RedisPort:     envOr("REDIS_PORT", "6379"),
		RedisPassword: envOrSecret("REDIS_PASSWORD", "redis_password"),
		RedisURL:      os.Getenv("REDIS_URL"),

		JWTSecret: envOrSecret("JWT_SECRET", "jwt_secret"),

		LLMURL:     envOr("LLM_URL", "http://localhost:1234/v1/chat/completions"),
		LLMModel:   envOr("LLM_MODEL", "local-model"),
		LLMTimeout: 3 * time.Minute,

		PushoverToken: envOrSecret("PUSHOVER_TOKEN", "pushover_token"),
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB value %q: %w", dbStr, err)
		}
		cfg.RedisDB = db
	}

	if timeoutStr := os.Getenv("LLM_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid LLM_TIMEOUT value %q: %w", timeoutStr, err)
		}
		cfg.LLMTimeout = timeout
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envOr returns the value of the environment variable or the fallback.
func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// envOrSecret returns the environment variable value, falling back to the
// Docker secret of the given name.
func envOrSecret(key, secret string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return readSecret(secret)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
