// Package config provides configuration persistence for a query engine.
//
// Store persists and reloads the desired set of registered base tables and
// materialized views across restarts. This is control-plane state, not the
// data-plane rows flowing through those tables.
//
// Store does not:
//   - Evaluate queries
//   - Append tick data
//   - Watch for live changes (load-on-start only)
package config

import "context"

// Store persists and loads engine configuration.
type Store interface {
	// Load reads the configuration. Returns nil if none exists.
	Load(ctx context.Context) (*Config, error)

	// Save persists the configuration.
	Save(ctx context.Context, cfg *Config) error
}

// Config describes the desired shape of a query engine: which base tables
// it should have registered and which materialized views it should
// maintain, plus engine-wide defaults. It is declarative.
type Config struct {
	DefaultTickColumn   string
	DefaultPartitionKey string

	BaseTables        []BaseTableConfig
	MaterializedViews []MaterializedViewConfig
}

// BaseTableConfig describes a base table to register at startup.
type BaseTableConfig struct {
	Name         string
	TickColumn   string
	PartitionKey string
}

// MaterializedViewConfig describes a named, declaration-ordered query to
// maintain as a catalog entry, recomputed on every tick.
type MaterializedViewConfig struct {
	Name  string
	Query string
}
