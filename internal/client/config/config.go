// Package config handles configuration for the demo CLI: defaults, then
// environment variables, then command-line flags, in that order of
// precedence.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings for the demo CLI.
//
// UseMock selects the in-process auth provider instead of the HTTP backend.
// SessionDBPath is the sqlite file that persists the session between runs;
// an empty value keeps the session in memory only.
type Config struct {
	UseMock       bool          `env:"AUTHKIT_USE_MOCK"`
	ServerURL     string        `env:"AUTHKIT_SERVER_URL"`
	SessionDBPath string        `env:"AUTHKIT_SESSION_DB"`
	SecretKey     string        `env:"AUTHKIT_SECRET_KEY"`
	SessionTTL    time.Duration `env:"AUTHKIT_SESSION_TTL"`
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.UseMock = false
	c.ServerURL = "http://127.0.0.1:8080"
	c.SessionDBPath = "authkit.db"
	c.SecretKey = "dev-secret-key"
	c.SessionTTL = 24 * time.Hour
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment and command-line flags. Later sources take precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	parseFlags(cfg)
	return cfg, nil
}
