// Package config loads client settings from the environment and an optional .env file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration. CLI flags override these values.
type Config struct {
	APIURL       string
	Profile      string
	ConfigDir    string
	SessionDSN   string // when set, sessions live in Postgres instead of a local file
	LogLevel     string
	Timeout      time.Duration
	PollInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIURL:       getEnv("NB_API_URL", "http://127.0.0.1:8000/api/"),
		Profile:      getEnv("NB_PROFILE", "default"),
		ConfigDir:    getEnv("NB_CONFIG_DIR", DefaultDir()),
		SessionDSN:   getEnv("NB_SESSION_DSN", ""),
		LogLevel:     getEnv("NB_LOG_LEVEL", "warn"),
		Timeout:      getEnvDuration("NB_TIMEOUT", 30*time.Second),
		PollInterval: getEnvDuration("NB_POLL_INTERVAL", 30*time.Second),
	}
}

// SessionDir is the per-profile directory of the file session store.
func (c *Config) SessionDir() string { return filepath.Join(c.ConfigDir, c.Profile) }

// DefaultDir follows XDG: $XDG_CONFIG_HOME/newsboard or ~/.config/newsboard.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "newsboard")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "newsboard")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
