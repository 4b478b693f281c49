package eval

import (
	"strings"
	"testing"

	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/sugar"
)

func mustDF(t *testing.T, cols ...*frame.Series) *frame.DataFrame {
	t.Helper()
	series := make([]*frame.Series, len(cols))
	copy(series, cols)
	df, err := frame.NewDataFrame(series)
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}
	return df
}

func newTestContext(t *testing.T) *EvalContext {
	t.Helper()
	return NewEvalContext(sugar.NewRegistry())
}

func run(t *testing.T, ctx *EvalContext, src string) Value {
	t.Helper()
	cq, err := Compile(ctx, src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	v, err := cq.Eval(ctx)
	if err != nil {
		t.Fatalf("Eval(%q): %v", src, err)
	}
	return v
}

func collectTable(t *testing.T, v Value) *frame.DataFrame {
	t.Helper()
	if v.Kind != VTable {
		t.Fatalf("expected a Table value, got kind %d", v.Kind)
	}
	df, err := v.Table.Plan.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return df
}

func TestFilterAndSelect(t *testing.T) {
	ctx := newTestContext(t)
	df := mustDF(t,
		frame.NewSeries("entity_id", []frame.Value{frame.Int(1), frame.Int(2), frame.Int(3)}),
		frame.NewSeries("gold", []frame.Value{frame.Int(50), frame.Int(150), frame.Int(250)}),
	)
	if err := ctx.AddBaseDF("entities", df); err != nil {
		t.Fatalf("AddBaseDF: %v", err)
	}

	v := run(t, ctx, `entities.filter(pl.col("gold") > 100).select(pl.col("entity_id"))`)
	out := collectTable(t, v)
	if out.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.NumRows())
	}
	col, err := out.MustColumn("entity_id")
	if err != nil {
		t.Fatalf("MustColumn: %v", err)
	}
	if col.Values[0].I != 2 || col.Values[1].I != 3 {
		t.Fatalf("unexpected rows: %#v", col.Values)
	}
}

func TestUnknownIdentSurfacesAtEval(t *testing.T) {
	ctx := newTestContext(t)
	cq, err := Compile(ctx, `nope.filter(pl.col("x") > 0)`)
	if err != nil {
		t.Fatalf("Compile should succeed (errors surface at Eval): %v", err)
	}
	_, err = cq.Eval(ctx)
	rerr, ok := err.(*RuntimeError)
	if !ok || rerr.Kind != KindUnknownIdent {
		t.Fatalf("expected UnknownIdent RuntimeError, got %v", err)
	}
}

func TestGroupByAggAndAlias(t *testing.T) {
	ctx := newTestContext(t)
	df := mustDF(t,
		frame.NewSeries("team", []frame.Value{frame.Str("a"), frame.Str("a"), frame.Str("b")}),
		frame.NewSeries("gold", []frame.Value{frame.Int(10), frame.Int(20), frame.Int(5)}),
	)
	if err := ctx.AddBaseDF("entities", df); err != nil {
		t.Fatalf("AddBaseDF: %v", err)
	}
	v := run(t, ctx, `entities.group_by("team").agg(pl.col("gold").sum().alias("total"))`)
	out := collectTable(t, v)
	total, err := out.MustColumn("total")
	if err != nil {
		t.Fatalf("MustColumn: %v", err)
	}
	if total.Len() != 2 {
		t.Fatalf("expected 2 groups, got %d", total.Len())
	}
}

func TestConditionalChainEvaluates(t *testing.T) {
	ctx := newTestContext(t)
	df := mustDF(t,
		frame.NewSeries("gold", []frame.Value{frame.Int(50), frame.Int(250)}),
	)
	if err := ctx.AddBaseDF("entities", df); err != nil {
		t.Fatalf("AddBaseDF: %v", err)
	}
	v := run(t, ctx,
		`entities.with_columns(pl.when(pl.col("gold") > 200).then(pl.lit("rich")).otherwise(pl.lit("poor")).alias("tier"))`)
	out := collectTable(t, v)
	tier, err := out.MustColumn("tier")
	if err != nil {
		t.Fatalf("MustColumn: %v", err)
	}
	if tier.Values[0].S != "poor" || tier.Values[1].S != "rich" {
		t.Fatalf("unexpected tiers: %#v", tier.Values)
	}
}

func TestSugarDeltaOverPartition(t *testing.T) {
	ctx := newTestContext(t)
	ctx.SetDefaultPartitionKey("entity_id")
	df := mustDF(t,
		frame.NewSeries("entity_id", []frame.Value{frame.Int(1), frame.Int(1), frame.Int(2)}),
		frame.NewSeries("gold", []frame.Value{frame.Int(10), frame.Int(15), frame.Int(100)}),
	)
	if err := ctx.AddBaseDF("entities", df); err != nil {
		t.Fatalf("AddBaseDF: %v", err)
	}
	v := run(t, ctx, `entities.with_columns($gold.delta.alias("chg"))`)
	out := collectTable(t, v)
	chg, err := out.MustColumn("chg")
	if err != nil {
		t.Fatalf("MustColumn: %v", err)
	}
	if !chg.Values[0].IsNull() {
		t.Fatalf("expected first row of partition to be null, got %#v", chg.Values[0])
	}
	if chg.Values[1].I != 5 {
		t.Fatalf("expected delta 5, got %#v", chg.Values[1])
	}
	if !chg.Values[2].IsNull() {
		t.Fatalf("expected second partition's first row null, got %#v", chg.Values[2])
	}
}

func TestScopeMethodsRequireTickConfig(t *testing.T) {
	ctx := newTestContext(t)
	df := mustDF(t, frame.NewSeries("tick", []frame.Value{frame.Int(1)}))
	if err := ctx.AddBaseDF("events", df); err != nil {
		t.Fatalf("AddBaseDF: %v", err)
	}
	cq, err := Compile(ctx, `events.since(2)`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, err = cq.Eval(ctx)
	rerr, ok := err.(*RuntimeError)
	if !ok || rerr.Kind != KindMissingTickConfig {
		t.Fatalf("expected MissingTickConfig, got %v", err)
	}
}

func TestScopeAtOnTimeSeries(t *testing.T) {
	ctx := newTestContext(t)
	df := mustDF(t,
		frame.NewSeries("tick", []frame.Value{frame.Int(1), frame.Int(2)}),
		frame.NewSeries("gold", []frame.Value{frame.Int(10), frame.Int(20)}),
	)
	if err := ctx.AddTimeSeriesDF("events", df, "tick", "entity_id"); err != nil {
		t.Fatalf("AddTimeSeriesDF: %v", err)
	}
	ctx.SetTick(2)
	v := run(t, ctx, `events.at(1)`)
	out := collectTable(t, v)
	if out.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", out.NumRows())
	}
}

func TestScopeAtRefusesAmbiguousJoinLineage(t *testing.T) {
	ctx := newTestContext(t)
	left := mustDF(t,
		frame.NewSeries("id", []frame.Value{frame.Int(1), frame.Int(2)}),
		frame.NewSeries("tick", []frame.Value{frame.Int(1), frame.Int(1)}),
		frame.NewSeries("val_l", []frame.Value{frame.Int(10), frame.Int(20)}),
	)
	right := mustDF(t,
		frame.NewSeries("id", []frame.Value{frame.Int(1), frame.Int(2)}),
		frame.NewSeries("tick", []frame.Value{frame.Int(1), frame.Int(1)}),
		frame.NewSeries("val_r", []frame.Value{frame.Int(100), frame.Int(200)}),
	)
	if err := ctx.AddTimeSeriesDF("left", left, "tick", "id"); err != nil {
		t.Fatalf("AddTimeSeriesDF: %v", err)
	}
	if err := ctx.AddTimeSeriesDF("right", right, "tick", "id"); err != nil {
		t.Fatalf("AddTimeSeriesDF: %v", err)
	}
	cq, err := Compile(ctx, `left.join(right, on="id", how="inner").at(1)`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, err = cq.Eval(ctx)
	rerr, ok := err.(*RuntimeError)
	if !ok || rerr.Kind != KindAmbiguousScope {
		t.Fatalf("expected AmbiguousScope error, got %v", err)
	}
	if !strings.Contains(rerr.Error(), "ambiguous") {
		t.Fatalf("expected error message to contain %q, got %q", "ambiguous", rerr.Error())
	}
}

func TestJoinProducesAmbiguousLineage(t *testing.T) {
	ctx := newTestContext(t)
	left := mustDF(t,
		frame.NewSeries("id", []frame.Value{frame.Int(1), frame.Int(2)}),
		frame.NewSeries("gold", []frame.Value{frame.Int(10), frame.Int(20)}),
	)
	right := mustDF(t,
		frame.NewSeries("id", []frame.Value{frame.Int(1), frame.Int(2)}),
		frame.NewSeries("name", []frame.Value{frame.Str("a"), frame.Str("b")}),
	)
	if err := ctx.AddBaseDF("left", left); err != nil {
		t.Fatalf("AddBaseDF: %v", err)
	}
	if err := ctx.AddBaseDF("right", right); err != nil {
		t.Fatalf("AddBaseDF: %v", err)
	}
	v := run(t, ctx, `left.join(right, on="id", how="inner")`)
	if v.Table.Lineage.Kind != LinAmbiguous {
		t.Fatalf("expected Ambiguous lineage, got %#v", v.Table.Lineage)
	}
	out := collectTable(t, v)
	if out.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.NumRows())
	}
}

func TestUnknownMethodOnExpr(t *testing.T) {
	ctx := newTestContext(t)
	cq, err := Compile(ctx, `pl.col("x").bogus()`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, err = cq.Eval(ctx)
	rerr, ok := err.(*RuntimeError)
	if !ok || rerr.Kind != KindUnknownMethod {
		t.Fatalf("expected UnknownMethod, got %v", err)
	}
}
