// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every environment-driven setting.
//
// AdminUser, AdminPass and TurnstileSecret are intentionally optional at
// startup: a missing value fails the requests that need it with a
// configuration error while the rest of the service keeps serving.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	AdminUser string `env:"ADMIN_USER"`
	AdminPass string `env:"ADMIN_PASS"`

	TurnstileSecret  string        `env:"TURNSTILE_SECRET_KEY"`
	TurnstileTimeout time.Duration `env:"TURNSTILE_TIMEOUT" envDefault:"5s"`
}

// Load parses configuration from the current process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TurnstileTimeout <= 0 {
		return Config{}, fmt.Errorf("TURNSTILE_TIMEOUT must be positive")
	}
	return cfg, nil
}
