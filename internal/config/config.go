// internal/config/config.go

// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration. A .env file is loaded by the
// binary before parsing, so local development needs no exported variables.
type Config struct {
	Addr        string        `env:"ADDR" envDefault:":8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	GraceWindow time.Duration `env:"LOBBY_GRACE_WINDOW" envDefault:"5s"`

	// DatabaseURL enables the Postgres rating provider when set.
	DatabaseURL string `env:"DATABASE_URL"`

	// RedisAddr enables the Redis restart coordinator when set.
	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Auth key files; when empty an ephemeral key pair is generated.
	JWTPrivateKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPublicKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config from env: %w", err)
	}
	return cfg, nil
}
