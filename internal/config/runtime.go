package config

import (
	"fmt"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

const defaultSessionTTL = 12 * time.Hour

// Redis holds the resolved Redis connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Runtime is the resolved configuration: defaults, then file, then environment.
type Runtime struct {
	Backend    string
	DBPath     string
	SessionTTL time.Duration
	Redis      Redis
	LogLevel   string
	LogFormat  string
}

// Defaults returns the built-in configuration.
func Defaults() Runtime {
	return Runtime{
		Backend:    BackendSQLite,
		DBPath:     DefaultDBPath(),
		SessionTTL: defaultSessionTTL,
		Redis: Redis{
			Addr:   "localhost:6379",
			Prefix: appName,
		},
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// Load resolves the runtime configuration from the TOML file at path and the environment.
func Load(path string) (Runtime, error) {
	rt := Defaults()
	fileCfg, err := LoadConfig(path)
	if err != nil {
		return Runtime{}, err
	}
	if err := rt.ApplyFile(fileCfg); err != nil {
		return Runtime{}, err
	}
	envCfg, err := ParseEnv()
	if err != nil {
		return Runtime{}, err
	}
	rt.ApplyEnv(envCfg)
	return rt, nil
}

// ApplyFile overlays values set in the config file.
func (r *Runtime) ApplyFile(cfg FileConfig) error {
	setString(&r.Backend, cfg.Storage.Backend)
	setString(&r.DBPath, cfg.Storage.DBPath)
	if cfg.Storage.SessionTTL != nil {
		ttl, err := time.ParseDuration(*cfg.Storage.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid storage.session-ttl: %w", err)
		}
		r.SessionTTL = ttl
	}
	setString(&r.Redis.Addr, cfg.Redis.Addr)
	setString(&r.Redis.Password, cfg.Redis.Password)
	if cfg.Redis.DB != nil {
		r.Redis.DB = *cfg.Redis.DB
	}
	setString(&r.Redis.Prefix, cfg.Redis.Prefix)
	setString(&r.LogLevel, cfg.Log.Level)
	setString(&r.LogFormat, cfg.Log.Format)
	return nil
}

// ApplyEnv overlays environment overrides.
func (r *Runtime) ApplyEnv(cfg EnvConfig) {
	setString(&r.Backend, cfg.Backend)
	setString(&r.DBPath, cfg.DBPath)
	if cfg.SessionTTL != nil {
		r.SessionTTL = *cfg.SessionTTL
	}
	setString(&r.Redis.Addr, cfg.RedisAddr)
	setString(&r.Redis.Password, cfg.RedisPassword)
	if cfg.RedisDB != nil {
		r.Redis.DB = *cfg.RedisDB
	}
	setString(&r.Redis.Prefix, cfg.RedisPrefix)
	setString(&r.LogLevel, cfg.LogLevel)
	setString(&r.LogFormat, cfg.LogFormat)
}

// Validate checks the resolved configuration.
func (r Runtime) Validate() error {
	switch r.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (expected sqlite, redis or memory)", r.Backend)
	}
	if r.SessionTTL <= 0 {
		return fmt.Errorf("session-ttl must be > 0")
	}
	if r.Backend == BackendSQLite && strings.TrimSpace(r.DBPath) == "" {
		return fmt.Errorf("db-path must not be empty")
	}
	if r.Backend == BackendRedis && strings.TrimSpace(r.Redis.Addr) == "" {
		return fmt.Errorf("redis addr must not be empty")
	}
	switch strings.ToLower(r.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", r.LogLevel)
	}
	switch r.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (expected text or json)", r.LogFormat)
	}
	return nil
}

func setString(target, value *string) {
	if value == nil {
		return
	}
	*target = strings.TrimSpace(*value)
}
