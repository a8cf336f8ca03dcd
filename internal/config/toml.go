// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Storage StorageConfig `toml:"storage"`
	Redis   RedisConfig   `toml:"redis"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig maps persistence settings.
type StorageConfig struct {
	Backend    *string `toml:"backend"`
	DBPath     *string `toml:"db-path"`
	SessionTTL *string `toml:"session-ttl"`
}

// RedisConfig maps the Redis backend connection.
type RedisConfig struct {
	Addr     *string `toml:"addr"`
	Password *string `toml:"password"`
	DB       *int    `toml:"db"`
	Prefix   *string `toml:"prefix"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// DefaultTemplate returns the commented config written by `attendo config`.
func DefaultTemplate() string {
	d := Defaults()
	return fmt.Sprintf(`# attendo configuration
# Uncomment a value to enable it. Environment variables (ATTENDO_*) and CLI
# flags override config values.

[storage]
# backend = %q          # sqlite, redis or memory
# db-path = %q
# session-ttl = %q        # how long attendance counters live after the last change

[redis]
# addr = %q
# password = ""
# db = %d
# prefix = %q

[log]
# level = %q              # debug, info, warn, error
# format = %q             # text or json
`,
		d.Backend,
		d.DBPath,
		d.SessionTTL.String(),
		d.Redis.Addr,
		d.Redis.DB,
		d.Redis.Prefix,
		d.LogLevel,
		d.LogFormat,
	)
}
