package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig maps ATTENDO_* environment overrides. Unset variables stay nil.
type EnvConfig struct {
	Backend       *string        `env:"ATTENDO_BACKEND"`
	DBPath        *string        `env:"ATTENDO_DB_PATH"`
	SessionTTL    *time.Duration `env:"ATTENDO_SESSION_TTL"`
	RedisAddr     *string        `env:"ATTENDO_REDIS_ADDR"`
	RedisPassword *string        `env:"ATTENDO_REDIS_PASSWORD"`
	RedisDB       *int           `env:"ATTENDO_REDIS_DB"`
	RedisPrefix   *string        `env:"ATTENDO_REDIS_PREFIX"`
	LogLevel      *string        `env:"ATTENDO_LOG_LEVEL"`
	LogFormat     *string        `env:"ATTENDO_LOG_FORMAT"`
}

// ParseEnv loads environment overrides.
func ParseEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
