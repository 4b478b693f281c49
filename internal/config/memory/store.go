// Package memory provides an in-memory config.Store implementation.
// Intended for testing and for standalone CLI runs. Configuration is not
// persisted across restarts.
package memory

import (
	"context"
	"sync"

	"github.com/JoeHowarth/piql/internal/config"
)

// Store is an in-memory config.Store implementation.
type Store struct {
	mu  sync.RWMutex
	cfg *config.Config
}

var _ config.Store = (*Store)(nil)

// NewStore creates a new in-memory Store, optionally seeded with an initial
// configuration.
func NewStore(initial *config.Config) *Store {
	return &Store{cfg: copyConfig(initial)}
}

// Load returns the stored configuration, or nil if Save has never been
// called and no initial configuration was given.
func (s *Store) Load(ctx context.Context) (*config.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyConfig(s.cfg), nil
}

// Save replaces the stored configuration.
func (s *Store) Save(ctx context.Context, cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = copyConfig(cfg)
	return nil
}

func copyConfig(cfg *config.Config) *config.Config {
	if cfg == nil {
		return nil
	}
	out := &config.Config{
		DefaultTickColumn:   cfg.DefaultTickColumn,
		DefaultPartitionKey: cfg.DefaultPartitionKey,
	}
	if len(cfg.BaseTables) > 0 {
		out.BaseTables = make([]config.BaseTableConfig, len(cfg.BaseTables))
		copy(out.BaseTables, cfg.BaseTables)
	}
	if len(cfg.MaterializedViews) > 0 {
		out.MaterializedViews = make([]config.MaterializedViewConfig, len(cfg.MaterializedViews))
		copy(out.MaterializedViews, cfg.MaterializedViews)
	}
	return out
}
