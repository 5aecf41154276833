// Package config loads process settings from the environment.
//
// Command-line flags override these values; see internal/cli.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-provided defaults.
type Config struct {
	// DB is the SQLite database path.
	DB string `env:"BAZAAR_DB" envDefault:"bazaar.db"`

	// Principal is the caller used when --as is not given.
	Principal string `env:"BAZAAR_PRINCIPAL"`

	// Listen is the HTTP listen address for serve.
	Listen string `env:"BAZAAR_LISTEN" envDefault:"127.0.0.1:8080"`

	// RateLimit is the sustained per-caller request rate, in requests per
	// second. Zero disables throttling.
	RateLimit float64 `env:"BAZAAR_RATE_LIMIT" envDefault:"20"`

	// RateBurst is the per-caller burst size.
	RateBurst int `env:"BAZAAR_RATE_BURST" envDefault:"40"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFrom reads Config from the given variables only.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.DB == "" {
		return errors.New("BAZAAR_DB must not be empty")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("BAZAAR_RATE_LIMIT must not be negative, got %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("BAZAAR_RATE_BURST must be at least 1, got %d", c.RateBurst)
	}
	return nil
}
