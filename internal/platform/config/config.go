package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config captures everything the server binary needs from the environment.
// A .env file in the working directory is honored for development; real
// environment variables always win.
type Config struct {
	Addr        string `env:"DESKVAULT_ADDR" envDefault:":8080"`
	DatabaseDSN string `env:"DATABASE_DSN"`
	RedisURL    string `env:"REDIS_URL"`

	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	PrivacyTokenTTL    time.Duration `env:"PRIVACY_TOKEN_TTL" envDefault:"180s"`
	ReconcileInterval  time.Duration `env:"RECONCILE_INTERVAL" envDefault:"10s"`
	ReconcileBatchSize int           `env:"RECONCILE_BATCH_SIZE" envDefault:"10"`

	Redis RedisConfig
}

// RedisConfig tunes the shared Redis client.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ReconcileBatchSize <= 0 {
		return nil, fmt.Errorf("reconcile batch size must be positive, got %d", cfg.ReconcileBatchSize)
	}
	if cfg.PrivacyTokenTTL <= 0 {
		return nil, fmt.Errorf("privacy token TTL must be positive, got %s", cfg.PrivacyTokenTTL)
	}
	return cfg, nil
}
