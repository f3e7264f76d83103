package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that every value the server cannot run without is set.
// Production additionally requires real credentials; development and test get
// by with defaults so local runs stay frictionless.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.ServerPort == "" {
		errors = append(errors, "server port is required")
	}
	if cfg.DBHost == "" || cfg.DBPort == "" || cfg.DBName == "" {
		errors = append(errors, "database host, port and name are required")
	}
	if cfg.LLMURL == "" {
		errors = append(errors, "generation endpoint URL is required")
	}

	if IsProduction() {
		if cfg.JWTSecret == "" {
			errors = append(errors, "jwt_secret secret is required in production")
		}
		if cfg.DBUser == "" || cfg.DBPassword == "" {
			errors = append(errors, "db_user and db_password secrets are required in production")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
