package config

import (
	"fmt"
	"os"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL          string
	JWTSecret            string
	Port                 string
	FrontendURL          string
	ResendAPIKey         string
	FromEmail            string
	LogLevel             string
	EnableConsolidation  bool
	ConsolidationJobSpec string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		ResendAPIKey:         os.Getenv("RESEND_API_KEY"),
		FromEmail:            getEnvOrDefault("FROM_EMAIL", "noreply@famconomy.com"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		EnableConsolidation:  os.Getenv("ENABLE_CONSOLIDATION_JOB") == "true",
		ConsolidationJobSpec: getEnvOrDefault("CONSOLIDATION_JOB_SPEC", "@hourly"),
	}

	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.JWTSecret = os.Getenv("JWT_SECRET"); cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
