// Package config loads application configuration in three layers:
// built-in defaults, an optional TOML file, then environment variables.
// Later layers win.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	CORS      CORSConfig      `toml:"cors"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" toml:"port"`
	Host string `envconfig:"HOST" toml:"host"`
}

// StorageConfig holds the vault root and quota.
type StorageConfig struct {
	Root       string `envconfig:"STORAGE_ROOT" toml:"root"`
	QuotaBytes uint64 `envconfig:"STORAGE_QUOTA_BYTES" toml:"quota_bytes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled"`
}

// CORSConfig holds allowed origins for the browser UI.
type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ORIGINS" toml:"allow_origins"`
}

// Load starts from Default, overlays the TOML file named by path (or
// the CONFIG_FILE env var when path is empty), then applies environment
// overrides. envconfig only touches fields whose variable is set, so
// file values survive unless explicitly overridden.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or falls back to defaults.
func LoadOrDefault() *Config {
	cfg, err := Load("")
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Root:       "/var/lib/fileshelf",
			QuotaBytes: 100 << 20,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
	}
}
