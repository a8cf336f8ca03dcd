// Package redisstore keeps settings and session counters in Redis. Settings
// keys never expire; the counters key expires SessionTTL after its last write.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/verte-zerg/attendo/internal/model"
)

// ErrConnection is returned when Redis cannot be reached on construction.
var ErrConnection = errors.New("redisstore: connection failed")

// Config holds Redis connection configuration.
type Config struct {
	Addr        string
	Password    string
	DB          int
	Prefix      string
	SessionTTL  time.Duration
	DialTimeout time.Duration
}

// DefaultConfig returns a local default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        "localhost:6379",
		Prefix:      "attendo",
		SessionTTL:  12 * time.Hour,
		DialTimeout: 5 * time.Second,
	}
}

// Gateway implements attendance.Gateway on Redis.
type Gateway struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type settingsRecord struct {
	RequiredPercentage *float64 `json:"required_percentage"`
	ClassesPerDay      int      `json:"classes_per_day"`
	DaysPerWeek        int      `json:"days_per_week"`
}

type countersRecord struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Present   *float64  `json:"present"`
	Total     *float64  `json:"total"`
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Gateway, error) {
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be > 0")
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return NewWithClient(client, cfg.Prefix, cfg.SessionTTL), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *Gateway {
	return &Gateway{client: client, prefix: prefix, ttl: ttl}
}

// Close closes the Redis connection.
func (g *Gateway) Close() error {
	return g.client.Close()
}

func (g *Gateway) settingsKey() string {
	return g.prefix + ":settings"
}

func (g *Gateway) countersKey() string {
	return g.prefix + ":counters"
}

// LoadSettings implements attendance.Gateway.
func (g *Gateway) LoadSettings(ctx context.Context) (model.Settings, bool, error) {
	var rec settingsRecord
	ok, err := g.getJSON(ctx, g.settingsKey(), &rec)
	if err != nil || !ok {
		return model.Settings{}, false, err
	}
	if rec.RequiredPercentage == nil {
		return model.Settings{}, false, fmt.Errorf("stored required percentage is missing")
	}
	return model.Settings{
		RequiredPercentage: *rec.RequiredPercentage,
		ClassesPerDay:      rec.ClassesPerDay,
		DaysPerWeek:        rec.DaysPerWeek,
	}, true, nil
}

// SaveSettings implements attendance.Gateway.
func (g *Gateway) SaveSettings(ctx context.Context, s model.Settings) error {
	rec := settingsRecord{
		RequiredPercentage: &s.RequiredPercentage,
		ClassesPerDay:      s.ClassesPerDay,
		DaysPerWeek:        s.DaysPerWeek,
	}
	return g.setJSON(ctx, g.settingsKey(), rec, 0)
}

// LoadCounters implements attendance.Gateway.
func (g *Gateway) LoadCounters(ctx context.Context) (model.Counters, bool, error) {
	var rec countersRecord
	ok, err := g.getJSON(ctx, g.countersKey(), &rec)
	if err != nil || !ok {
		return model.Counters{}, false, err
	}
	if rec.Present == nil || rec.Total == nil {
		return model.Counters{}, false, fmt.Errorf("stored counters are incomplete")
	}
	return model.Counters{Present: *rec.Present, Total: *rec.Total}, true, nil
}

// SaveCounters implements attendance.Gateway. The session id survives as
// long as the key has not expired.
func (g *Gateway) SaveCounters(ctx context.Context, c model.Counters) error {
	var prev countersRecord
	ok, err := g.getJSON(ctx, g.countersKey(), &prev)
	if err != nil {
		ok = false
	}
	now := time.Now().UTC()
	rec := countersRecord{
		SessionID: uuid.NewString(),
		StartedAt: now,
		UpdatedAt: now,
		Present:   &c.Present,
		Total:     &c.Total,
	}
	if ok && prev.SessionID != "" {
		rec.SessionID = prev.SessionID
		rec.StartedAt = prev.StartedAt
	}
	return g.setJSON(ctx, g.countersKey(), rec, g.ttl)
}

// ClearCounters implements attendance.Gateway.
func (g *Gateway) ClearCounters(ctx context.Context) error {
	if err := g.client.Del(ctx, g.countersKey()).Err(); err != nil {
		return fmt.Errorf("failed to clear counters: %w", err)
	}
	return nil
}

// Session describes the live counters session, if any.
func (g *Gateway) Session(ctx context.Context) (model.SessionInfo, bool, error) {
	var rec countersRecord
	ok, err := g.getJSON(ctx, g.countersKey(), &rec)
	if err != nil || !ok {
		return model.SessionInfo{}, false, err
	}
	ttl, err := g.client.TTL(ctx, g.countersKey()).Result()
	if err != nil {
		return model.SessionInfo{}, false, fmt.Errorf("failed to read session ttl: %w", err)
	}
	info := model.SessionInfo{
		ID:        rec.SessionID,
		StartedAt: rec.StartedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if ttl > 0 {
		info.ExpiresAt = time.Now().Add(ttl)
	}
	return info, true, nil
}

func (g *Gateway) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := g.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (g *Gateway) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := g.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}
