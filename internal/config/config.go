package config

import (
	"fmt"
	"os"
	"strconv"

	"taxsim/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Model    ModelConfig
	Paths    PathConfig
}

// DatabaseConfig holds the population-store connection settings
type DatabaseConfig struct {
	URL     string
	Host    string
	Port    int
	User    string
	Name    string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// ModelConfig holds simulation defaults
type ModelConfig struct {
	StartYear      int
	NumYears       int
	SyntheticUnits int
}

// PathConfig holds file system paths
type PathConfig struct {
	ExportDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			Host:    getEnvOrDefault("DB_HOST", ""),
			Port:    getEnvIntOrDefault("DB_PORT", 5432),
			User:    getEnvOrDefault("DB_USER", ""),
			Name:    getEnvOrDefault("DB_NAME", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Model: ModelConfig{
			StartYear:      getEnvIntOrDefault("MODEL_START_YEAR", 2021),
			NumYears:       getEnvIntOrDefault("MODEL_NUM_YEARS", 10),
			SyntheticUnits: getEnvIntOrDefault("MODEL_SYNTHETIC_UNITS", 10000),
		},
		Paths: PathConfig{
			ExportDir: getEnvOrDefault("EXPORT_DIR", "exports"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Model.StartYear < 2000 {
		return errors.ConfigInvalid("MODEL_START_YEAR is implausibly early")
	}
	if config.Model.NumYears < 1 {
		return errors.ConfigInvalid("MODEL_NUM_YEARS must be at least 1")
	}
	if config.Model.SyntheticUnits < 1 {
		return errors.ConfigInvalid("MODEL_SYNTHETIC_UNITS must be at least 1")
	}
	return nil
}

// DSN assembles a connection string from the discrete settings when
// DATABASE_URL is not set. Empty when no host is configured either.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
