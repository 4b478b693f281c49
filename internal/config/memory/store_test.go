package memory

import (
	"context"
	"testing"

	"github.com/JoeHowarth/piql/internal/config"
)

func TestStoreLoadEmpty(t *testing.T) {
	s := NewStore(nil)
	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != nil {
		t.Fatalf("expected nil config, got %#v", cfg)
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	s := NewStore(nil)
	cfg := &config.Config{
		DefaultTickColumn:   "tick",
		DefaultPartitionKey: "entity_id",
		BaseTables: []config.BaseTableConfig{
			{Name: "events", TickColumn: "tick", PartitionKey: "entity_id"},
		},
		MaterializedViews: []config.MaterializedViewConfig{
			{Name: "totals", Query: `events.group_by("entity_id").agg(pl.col("gold").sum().alias("total"))`},
		},
	}
	if err := s.Save(context.Background(), cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DefaultTickColumn != "tick" || got.DefaultPartitionKey != "entity_id" {
		t.Fatalf("unexpected defaults: %#v", got)
	}
	if len(got.BaseTables) != 1 || got.BaseTables[0].Name != "events" {
		t.Fatalf("unexpected base tables: %#v", got.BaseTables)
	}
	if len(got.MaterializedViews) != 1 || got.MaterializedViews[0].Name != "totals" {
		t.Fatalf("unexpected views: %#v", got.MaterializedViews)
	}

	// Mutating the returned config must not affect the store's copy.
	got.BaseTables[0].Name = "mutated"
	again, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if again.BaseTables[0].Name != "events" {
		t.Fatalf("store was mutated through returned copy: %#v", again.BaseTables[0])
	}
}
