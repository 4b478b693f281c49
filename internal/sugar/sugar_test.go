package sugar

import (
	"testing"

	"github.com/JoeHowarth/piql/internal/lang"
)

func TestDeltaNoArgs(t *testing.T) {
	r := NewRegistry()
	e, err := lang.Parse(`$gold.delta.alias("chg")`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	core := lang.Transform(e, r, lang.SugarContext{PartitionKey: "entity_id"})
	call, ok := core.(*lang.CoreCall)
	if !ok {
		t.Fatalf("expected alias call, got %#v", core)
	}
	attr, ok := call.Callee.(*lang.CoreAttr)
	if !ok || attr.Name != "alias" {
		t.Fatalf("expected .alias, got %#v", call.Callee)
	}
	// The aliased expression should be col.diff().over("entity_id").
	overCall, ok := attr.Base.(*lang.CoreCall)
	if !ok {
		t.Fatalf("expected over() call as alias target, got %#v", attr.Base)
	}
	overAttr, ok := overCall.Callee.(*lang.CoreAttr)
	if !ok || overAttr.Name != "over" {
		t.Fatalf("expected .over, got %#v", overCall.Callee)
	}
}

func TestPctRequiresOneArg(t *testing.T) {
	r := NewRegistry()
	e, err := lang.Parse(`$gold.pct()`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	core := lang.Transform(e, r, lang.SugarContext{})
	if _, ok := core.(*lang.CoreInvalid); !ok {
		t.Fatalf("expected CoreInvalid for pct() with no args, got %#v", core)
	}
}

func TestUnregisteredColMethodFallsThrough(t *testing.T) {
	r := NewRegistry()
	e, err := lang.Parse(`$gold.nonexistent(1)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	core := lang.Transform(e, r, lang.SugarContext{})
	call, ok := core.(*lang.CoreCall)
	if !ok {
		t.Fatalf("expected plain call, got %#v", core)
	}
	attr, ok := call.Callee.(*lang.CoreAttr)
	if !ok || attr.Name != "nonexistent" {
		t.Fatalf("expected fallthrough .nonexistent call, got %#v", call.Callee)
	}
}
