package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Store drivers selectable via STORE_DRIVER
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	NodeEnv     string
	Port        string
	JWTSecret   string
	FrontendURL string
	StoreDriver string
	Database    DatabaseConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	driver := getEnv("STORE_DRIVER", StorePostgres)
	if driver != StorePostgres && driver != StoreMemory {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (expected %q or %q)", driver, StorePostgres, StoreMemory)
	}

	return &Config{
		NodeEnv:     getEnv("NODE_ENV", "development"),
		Port:        getEnv("PORT", "5000"),
		JWTSecret:   jwtSecret,
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		StoreDriver: driver,
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "campusgate"),
		},
	}, nil
}

// IsProduction reports whether the service runs in production mode.
// Error details are withheld from HTTP responses in production.
func (c *Config) IsProduction() bool {
	return c.NodeEnv == "production"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
