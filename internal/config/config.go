// Package config loads server settings from SPLITENGINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mmynk/splitengine/pkg/logging"
)

// Config holds the server settings.
type Config struct {
	Port            int           `env:"SPLITENGINE_PORT" envDefault:"8080"`
	DBPath          string        `env:"SPLITENGINE_DB_PATH" envDefault:"./data/splitengine.db"`
	JWTSecret       string        `env:"SPLITENGINE_JWT_SECRET,required,notEmpty"`
	JWTTTL          time.Duration `env:"SPLITENGINE_JWT_TTL" envDefault:"24h"`
	LogLevel        string        `env:"SPLITENGINE_LOG_LEVEL" envDefault:"info"`
	DefaultCurrency string        `env:"SPLITENGINE_DEFAULT_CURRENCY" envDefault:"USD"`

	// RateLimitRPS is the per-caller refill rate; 0 disables rate limiting.
	RateLimitRPS   float64       `env:"SPLITENGINE_RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int           `env:"SPLITENGINE_RATE_LIMIT_BURST" envDefault:"20"`
	IdempotencyTTL time.Duration `env:"SPLITENGINE_IDEMPOTENCY_TTL" envDefault:"24h"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid SPLITENGINE_PORT %d", c.Port)
	}
	if c.DBPath == "" {
		return errors.New("SPLITENGINE_DB_PATH must not be empty")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("invalid SPLITENGINE_JWT_TTL %s", c.JWTTTL)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("invalid SPLITENGINE_DEFAULT_CURRENCY %q", c.DefaultCurrency)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("invalid SPLITENGINE_RATE_LIMIT_RPS %g", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("invalid SPLITENGINE_RATE_LIMIT_BURST %d", c.RateLimitBurst)
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("invalid SPLITENGINE_IDEMPOTENCY_TTL %s", c.IdempotencyTTL)
	}
	return nil
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
