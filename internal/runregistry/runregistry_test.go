package runregistry

import (
	"testing"

	"github.com/JoeHowarth/piql/internal/eval"
	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/queryengine"
)

func mustDF(t *testing.T, cols ...*frame.Series) *frame.DataFrame {
	t.Helper()
	df, err := frame.NewDataFrame(cols)
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}
	return df
}

func collect(t *testing.T, engine *queryengine.Engine, src string) *frame.DataFrame {
	t.Helper()
	cq, err := eval.Compile(engine.Context(), src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	v, err := cq.Eval(engine.Context())
	if err != nil {
		t.Fatalf("Eval(%q): %v", src, err)
	}
	if v.Kind != eval.VTable {
		t.Fatalf("expected a table value for %q, got kind %d", src, v.Kind)
	}
	df, err := v.Table.Plan.Collect()
	if err != nil {
		t.Fatalf("Collect(%q): %v", src, err)
	}
	return df
}

func newEngine(t *testing.T) *queryengine.Engine {
	t.Helper()
	e, err := queryengine.New(nil, nil)
	if err != nil {
		t.Fatalf("queryengine.New: %v", err)
	}
	return e
}

func TestAddRunRejectsReservedName(t *testing.T) {
	r := NewRegistry(newEngine(t), "")
	err := r.AddRun("_all", map[string]*frame.DataFrame{})
	if err == nil {
		t.Fatal("expected an error for run name \"_all\"")
	}
}

func TestAddRunPublishesThreeViews(t *testing.T) {
	engine := newEngine(t)
	r := NewRegistry(engine, "")

	run1 := mustDF(t, frame.NewSeries("v", []frame.Value{frame.Int(1), frame.Int(2)}))
	if err := r.AddRun("r1", map[string]*frame.DataFrame{"events": run1}); err != nil {
		t.Fatalf("AddRun(r1): %v", err)
	}

	bare := collect(t, engine, "events")
	if bare.NumRows() != 2 {
		t.Fatalf("expected bare events to have 2 rows, got %d", bare.NumRows())
	}
	qualified := collect(t, engine, `r1::events`)
	if qualified.NumRows() != 2 {
		t.Fatalf("expected r1::events to have 2 rows, got %d", qualified.NumRows())
	}
	all := collect(t, engine, `_all::events`)
	if all.NumRows() != 2 {
		t.Fatalf("expected _all::events to have 2 rows, got %d", all.NumRows())
	}
	label, err := all.MustColumn("_run")
	if err != nil {
		t.Fatalf("MustColumn(_run): %v", err)
	}
	if label.Values[0].S != "r1" {
		t.Fatalf("expected label r1, got %#v", label.Values[0])
	}
}

func TestAddRunReplacesBareAndAllAccumulates(t *testing.T) {
	engine := newEngine(t)
	r := NewRegistry(engine, "")

	run1 := mustDF(t, frame.NewSeries("v", []frame.Value{frame.Int(1)}))
	run2 := mustDF(t, frame.NewSeries("v", []frame.Value{frame.Int(2), frame.Int(3)}))
	if err := r.AddRun("r1", map[string]*frame.DataFrame{"events": run1}); err != nil {
		t.Fatalf("AddRun(r1): %v", err)
	}
	if err := r.AddRun("r2", map[string]*frame.DataFrame{"events": run2}); err != nil {
		t.Fatalf("AddRun(r2): %v", err)
	}

	bare := collect(t, engine, "events")
	if bare.NumRows() != 2 {
		t.Fatalf("expected bare events to reflect the latest run (2 rows), got %d", bare.NumRows())
	}
	all := collect(t, engine, `_all::events`)
	if all.NumRows() != 3 {
		t.Fatalf("expected _all::events to have 3 rows across both runs, got %d", all.NumRows())
	}
}

func TestRemoveRunRebuildsFromRemaining(t *testing.T) {
	engine := newEngine(t)
	r := NewRegistry(engine, "")

	run1 := mustDF(t, frame.NewSeries("v", []frame.Value{frame.Int(1)}))
	run2 := mustDF(t, frame.NewSeries("v", []frame.Value{frame.Int(2), frame.Int(3)}))
	if err := r.AddRun("r1", map[string]*frame.DataFrame{"events": run1}); err != nil {
		t.Fatalf("AddRun(r1): %v", err)
	}
	if err := r.AddRun("r2", map[string]*frame.DataFrame{"events": run2}); err != nil {
		t.Fatalf("AddRun(r2): %v", err)
	}
	r.RemoveRun("r2")

	bare := collect(t, engine, "events")
	if bare.NumRows() != 1 {
		t.Fatalf("expected bare events to fall back to r1 (1 row), got %d", bare.NumRows())
	}
	all := collect(t, engine, `_all::events`)
	if all.NumRows() != 1 {
		t.Fatalf("expected _all::events to drop r2's rows, got %d", all.NumRows())
	}
	cq, err := eval.Compile(engine.Context(), `r2::events`)
	if err != nil {
		t.Fatalf("Compile(r2::events): %v", err)
	}
	if _, err := cq.Eval(engine.Context()); err == nil {
		t.Fatal("expected r2::events to no longer resolve after RemoveRun")
	}
}

func TestAddRunLabelColumnConflict(t *testing.T) {
	engine := newEngine(t)
	r := NewRegistry(engine, "")

	withLabel := mustDF(t,
		frame.NewSeries("v", []frame.Value{frame.Int(1)}),
		frame.NewSeries("_run", []frame.Value{frame.Str("preexisting")}),
	)
	err := r.AddRun("r1", map[string]*frame.DataFrame{"events": withLabel})
	if err == nil {
		t.Fatal("expected ErrLabelColumnConflict")
	}

	err = r.AddRun("r1", map[string]*frame.DataFrame{"events": withLabel}, WithDropExistingLabel())
	if err != nil {
		t.Fatalf("AddRun with WithDropExistingLabel: %v", err)
	}
}
