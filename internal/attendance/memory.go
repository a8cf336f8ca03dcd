package attendance

import (
	"context"
	"sync"

	"github.com/verte-zerg/attendo/internal/model"
)

// MemoryGateway keeps state in process memory. Nothing survives a restart.
type MemoryGateway struct {
	mu       sync.Mutex
	settings *model.Settings
	counters *model.Counters
}

// NewMemoryGateway returns an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{}
}

// LoadSettings implements Gateway.
func (g *MemoryGateway) LoadSettings(_ context.Context) (model.Settings, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.settings == nil {
		return model.Settings{}, false, nil
	}
	return *g.settings, true, nil
}

// SaveSettings implements Gateway.
func (g *MemoryGateway) SaveSettings(_ context.Context, s model.Settings) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.settings = &s
	return nil
}

// LoadCounters implements Gateway.
func (g *MemoryGateway) LoadCounters(_ context.Context) (model.Counters, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.counters == nil {
		return model.Counters{}, false, nil
	}
	return *g.counters, true, nil
}

// SaveCounters implements Gateway.
func (g *MemoryGateway) SaveCounters(_ context.Context, c model.Counters) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters = &c
	return nil
}

// ClearCounters implements Gateway.
func (g *MemoryGateway) ClearCounters(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters = nil
	return nil
}
