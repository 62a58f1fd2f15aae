// Package config provides configuration management for the draft ledger.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Store     StoreConfig
	Server    ServerConfig
	Match     MatchConfig
	Draft     DraftConfig
	Export    ExportConfig
	Extractor ExtractorConfig
	Debug     bool
}

// StoreConfig selects and locates the tabular store backend.
type StoreConfig struct {
	Backend string // sqlite, bolt or memory
	Path    string
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr string
}

// MatchConfig represents match engine configuration.
type MatchConfig struct {
	FuzzyThreshold float64
}

// DraftConfig represents draft lifecycle policy.
type DraftConfig struct {
	AllowReopen bool
}

// ExportConfig locates the plain-text journal output.
type ExportConfig struct {
	Dir string
}

// ExtractorConfig represents the external extraction service.
type ExtractorConfig struct {
	URL    string
	APIKey string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	threshold, err := parseFloatEnv("MATCH_FUZZY_THRESHOLD", 0.6)
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH_FUZZY_THRESHOLD: %w", err)
	}

	config := &Config{
		Store: StoreConfig{
			Backend: getEnvOrDefault("LEDGER_STORE_BACKEND", "sqlite"),
			Path:    getEnvOrDefault("LEDGER_STORE_PATH", "./data/ledger.db"),
		},
		Server: ServerConfig{
			Addr: getEnvOrDefault("LEDGER_LISTEN_ADDR", ":8080"),
		},
		Match: MatchConfig{
			FuzzyThreshold: threshold,
		},
		Draft: DraftConfig{
			AllowReopen: os.Getenv("DRAFT_ALLOW_REOPEN") == "true",
		},
		Export: ExportConfig{
			Dir: getEnvOrDefault("LEDGER_EXPORT_DIR", "./ledger"),
		},
		Extractor: ExtractorConfig{
			URL:    os.Getenv("EXTRACTOR_URL"),
			APIKey: os.Getenv("EXTRACTOR_API_KEY"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, config.Validate()
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "sqlite", "bolt", "memory":
	default:
		return fmt.Errorf("unknown store backend %q (expected sqlite, bolt or memory)", c.Store.Backend)
	}
	if c.Store.Backend != "memory" && c.Store.Path == "" {
		return fmt.Errorf("LEDGER_STORE_PATH is required for the %s backend", c.Store.Backend)
	}
	if c.Match.FuzzyThreshold < 0 || c.Match.FuzzyThreshold > 1 {
		return fmt.Errorf("MATCH_FUZZY_THRESHOLD must be between 0 and 1, got %g", c.Match.FuzzyThreshold)
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseFloatEnv parses a float environment variable with a default.
func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(value, 64)
}
