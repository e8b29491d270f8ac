package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all service settings, populated from environment variables.
// Run-specific inputs (log path, field selection, metrics address) are CLI
// flags, not config.
type Config struct {
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

var (
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"json": true, "text": true}
)

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "text"),
	}

	if !validLevels[cfg.LogLevel] {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	if !validFormats[cfg.LogFormat] {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	timeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	cfg.ShutdownTimeout = timeout

	return cfg, nil
}

func parseShutdownTimeout() (time.Duration, error) {
	raw := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q", raw)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
