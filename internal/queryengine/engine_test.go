package queryengine

import (
	"context"
	"testing"

	"github.com/JoeHowarth/piql/internal/eval"
	"github.com/JoeHowarth/piql/internal/frame"
)

func mustDF(t *testing.T, cols ...*frame.Series) *frame.DataFrame {
	t.Helper()
	df, err := frame.NewDataFrame(cols)
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}
	return df
}

func collectValue(t *testing.T, v eval.Value) *frame.DataFrame {
	t.Helper()
	if v.Kind != eval.VTable {
		t.Fatalf("expected a table value, got kind %d", v.Kind)
	}
	df, err := v.Table.Plan.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return df
}

func TestAppendTickRollsNowAndAll(t *testing.T) {
	e, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.RegisterBase("events", eval.TimeSeriesConfig{}, false)

	tick1 := mustDF(t, frame.NewSeries("v", []frame.Value{frame.Int(1), frame.Int(2)}))
	if err := e.AppendTick("events", tick1); err != nil {
		t.Fatalf("AppendTick: %v", err)
	}

	if err := e.Subscribe("all", `events.all()`); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	results, err := e.OnTick(context.Background(), 1)
	if err != nil {
		t.Fatalf("OnTick: %v", err)
	}
	out := collectValue(t, results["all"])
	if out.NumRows() != 2 {
		t.Fatalf("expected 2 rows after first tick, got %d", out.NumRows())
	}

	tick2 := mustDF(t, frame.NewSeries("v", []frame.Value{frame.Int(3)}))
	if err := e.AppendTick("events", tick2); err != nil {
		t.Fatalf("AppendTick: %v", err)
	}
	results, err = e.OnTick(context.Background(), 2)
	if err != nil {
		t.Fatalf("OnTick: %v", err)
	}
	out = collectValue(t, results["all"])
	if out.NumRows() != 3 {
		t.Fatalf("expected 3 rows after second tick, got %d", out.NumRows())
	}
}

func TestMaterializedViewsRecomputeInDeclarationOrder(t *testing.T) {
	e, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	df := mustDF(t,
		frame.NewSeries("team", []frame.Value{frame.Str("a"), frame.Str("a"), frame.Str("b")}),
		frame.NewSeries("gold", []frame.Value{frame.Int(10), frame.Int(20), frame.Int(5)}),
	)
	if err := e.AddBaseDF("entities", df); err != nil {
		t.Fatalf("AddBaseDF: %v", err)
	}

	if err := e.Materialize("totals", `entities.group_by("team").agg(pl.col("gold").sum().alias("total"))`); err != nil {
		t.Fatalf("Materialize(totals): %v", err)
	}
	// "leaders" depends on "totals" having already been recomputed this tick.
	if err := e.Materialize("leaders", `totals.filter(pl.col("total") > 15)`); err != nil {
		t.Fatalf("Materialize(leaders): %v", err)
	}

	results, err := e.OnTick(context.Background(), 1)
	if err != nil {
		t.Fatalf("OnTick: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no subscriptions, got %#v", results)
	}

	cq, err := eval.Compile(e.ctx, `leaders`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	v, err := cq.Eval(e.ctx)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	out := collectValue(t, v)
	if out.NumRows() != 1 {
		t.Fatalf("expected 1 leader row, got %d", out.NumRows())
	}
}

func TestSubscriptionFailureAbortsTick(t *testing.T) {
	e, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Subscribe("bad", `nope.filter(pl.col("x") > 0)`); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	_, err = e.OnTick(context.Background(), 1)
	if err == nil {
		t.Fatal("expected OnTick to fail for an unresolvable subscription")
	}
}

func TestReMaterializeKeepsDeclarationOrder(t *testing.T) {
	e, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	df := mustDF(t, frame.NewSeries("v", []frame.Value{frame.Int(1)}))
	if err := e.AddBaseDF("t", df); err != nil {
		t.Fatalf("AddBaseDF: %v", err)
	}
	if err := e.Materialize("a", `t.select(pl.col("v"))`); err != nil {
		t.Fatalf("Materialize(a): %v", err)
	}
	if err := e.Materialize("b", `t.select(pl.col("v"))`); err != nil {
		t.Fatalf("Materialize(b): %v", err)
	}
	if err := e.Materialize("a", `t.select(pl.col("v"))`); err != nil {
		t.Fatalf("re-Materialize(a): %v", err)
	}
	if len(e.views) != 2 {
		t.Fatalf("expected 2 views after re-materializing an existing name, got %d", len(e.views))
	}
	if e.views[0].name != "a" || e.views[1].name != "b" {
		t.Fatalf("expected declaration order [a b] preserved, got %v", []string{e.views[0].name, e.views[1].name})
	}
}
