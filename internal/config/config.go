package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultPackages is the set of tracked packages when PACKAGES is not set.
var DefaultPackages = []string{
	"purl2src",
	"binarysniffer",
	"osslili",
	"purl2notices",
	"upmex",
	"src2purl",
	"vulnq",
	"ospac",
	"mcp-semclone",
}

// Config holds the application configuration
type Config struct {
	// Upstream API
	BaseURL string

	// Tracked packages
	Packages []string

	// Snapshot output
	OutputFile string

	// Run history storage
	StorageType string // "sqlite", "postgres" or "none"
	SQLitePath  string
	PostgresURL string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		BaseURL:     getEnv("PYPISTATS_BASE_URL", "https://pypistats.org/api/packages"),
		Packages:    splitList(getEnv("PACKAGES", "")),
		OutputFile:  getEnv("OUTPUT_FILE", "docs/data/stats.json"),
		StorageType: getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:  getEnv("SQLITE_PATH", "./stats-history.db"),
		PostgresURL: getEnv("POSTGRES_URL", ""),
		APIPort:     getEnv("API_PORT", "8080"),
		APIHost:     getEnv("API_HOST", "localhost"),
		APIEndpoint: getEnv("API_ENDPOINT", "http://localhost:8080"),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList parses a comma-separated package list, falling back to
// DefaultPackages when empty.
func splitList(value string) []string {
	if value == "" {
		return append([]string(nil), DefaultPackages...)
	}
	var packages []string
	for _, part := range strings.Split(value, ",") {
		if name := strings.TrimSpace(part); name != "" {
			packages = append(packages, name)
		}
	}
	if len(packages) == 0 {
		return append([]string(nil), DefaultPackages...)
	}
	return packages
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return &ConfigError{Field: "PYPISTATS_BASE_URL", Message: "base URL is required"}
	}
	if len(c.Packages) == 0 {
		return &ConfigError{Field: "PACKAGES", Message: "at least one package is required"}
	}
	if c.OutputFile == "" {
		return &ConfigError{Field: "OUTPUT_FILE", Message: "output file path is required"}
	}
	switch c.StorageType {
	case "sqlite", "postgres", "none":
	default:
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite', 'postgres' or 'none'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
