// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full service configuration. Every field has an environment
// variable; only the reasoning API key is optional, which puts the service
// into deterministic fallback-only mode.
type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"interview_sessions.db"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	ReasoningTimeoutSeconds int     `env:"REASONING_TIMEOUT_SECONDS" envDefault:"20"`
	Temperature             float64 `env:"REASONING_TEMPERATURE" envDefault:"0.2"`
	Variant                 string  `env:"AGENT_VARIANT" envDefault:"classic"`

	StoreWorkers int `env:"STORE_WORKERS" envDefault:"4"`

	JWT JWTConfig
}

// Load reads .env (when present) and then the environment. It fails on
// malformed values, not on absent optional ones.
func Load() (*Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be in 1..65535, got %d", c.Port)
	}
	if c.ReasoningTimeoutSeconds < 1 {
		return fmt.Errorf("REASONING_TIMEOUT_SECONDS must be at least 1, got %d", c.ReasoningTimeoutSeconds)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("REASONING_TEMPERATURE must be in 0..2, got %g", c.Temperature)
	}
	if c.StoreWorkers < 1 {
		return fmt.Errorf("STORE_WORKERS must be at least 1, got %d", c.StoreWorkers)
	}
	return nil
}
