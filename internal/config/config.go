// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for databases (always absolute)
	SnapshotDir     string // Local directory holding manifest.json and snapshot files
	SnapshotBaseURL string // When set, snapshots are fetched over HTTP instead of from SnapshotDir
	SnapshotPrefix  string // Filename prefix snapshots must carry to be indexed
	StaticDir       string // Map UI assets served in dev mode
	RefreshSchedule string // Cron schedule for manifest refresh
	LogLevel        string
	Port            int
	DevMode         bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("PRICEMAP_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path so database files land in a
	// predictable place regardless of working directory.
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory to absolute path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "8090"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		SnapshotDir:     getEnv("PRICEMAP_SNAPSHOT_DIR", "./snapshots"),
		SnapshotBaseURL: getEnv("PRICEMAP_SNAPSHOT_BASE_URL", ""),
		SnapshotPrefix:  getEnv("PRICEMAP_SNAPSHOT_PREFIX", "RRMudflapsPrices"),
		StaticDir:       getEnv("PRICEMAP_STATIC_DIR", "./web"),
		RefreshSchedule: getEnv("PRICEMAP_REFRESH_SCHEDULE", "@every 5m"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            port,
		DevMode:         getEnv("DEV_MODE", "false") == "true",
	}

	return cfg, nil
}

// NotesDBPath returns the path of the per-station notes database.
func (c *Config) NotesDBPath() string {
	return filepath.Join(c.DataDir, "notes.db")
}

// getEnv retrieves an environment variable value, returning a fallback if the
// variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
