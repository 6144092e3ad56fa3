// Package config provides configuration management functionality.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration for the ledger CLI.
// The ledger library itself takes plain parameters; configuration only
// concerns the command-line entry point.
type Config struct {
	LedgerPath    string // Path to the ledger file ("" opens a temporary ledger)
	CreateLedger  bool   // Create the ledger file if it does not exist
	LogLevel      string
	PrettyLogging bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is honoured when present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if it doesn't)
	_ = godotenv.Load()

	cfg := &Config{
		LedgerPath:    getEnv("LEDGER_PATH", ""),
		CreateLedger:  getEnvBool("LEDGER_CREATE", true),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PrettyLogging: getEnvBool("LOG_PRETTY", true),
	}

	if cfg.LedgerPath != "" {
		absPath, err := filepath.Abs(cfg.LedgerPath)
		if err == nil {
			cfg.LedgerPath = absPath
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
