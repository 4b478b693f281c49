package frame

import "testing"

func mustFrame(t *testing.T, cols []*Series) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(cols)
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}
	return df
}

func TestFilterSelectWithColumns(t *testing.T) {
	df := mustFrame(t, []*Series{
		NewSeries("name", []Value{Str("alice"), Str("bob"), Str("charlie")}),
		NewSeries("gold", []Value{Int(100), Int(250), Int(50)}),
	})

	out, err := FromDataFrame(df).Filter(BinOp(">", Col("gold"), Lit(Int(100)))).Collect()
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if out.NumRows() != 1 {
		t.Fatalf("expected 1 row, got %d", out.NumRows())
	}
	name, _ := out.Column("name")
	if name.Values[0].S != "bob" {
		t.Fatalf("expected bob, got %v", name.Values[0])
	}
}

func TestWithColumnsChain(t *testing.T) {
	df := mustFrame(t, []*Series{
		NewSeries("gold", []Value{Int(100), Int(200)}),
	})
	out, err := FromDataFrame(df).WithColumns([]Expr{
		Alias(BinOp("*", Col("gold"), Lit(Int(2))), "doubled"),
	}).Collect()
	if err != nil {
		t.Fatalf("with_columns: %v", err)
	}
	col, ok := out.Column("doubled")
	if !ok {
		t.Fatalf("missing doubled column")
	}
	if col.Values[0].I != 200 || col.Values[1].I != 400 {
		t.Fatalf("unexpected values: %v", col.Values)
	}
}

func TestGroupByAgg(t *testing.T) {
	df := mustFrame(t, []*Series{
		NewSeries("type", []Value{Str("merchant"), Str("producer"), Str("merchant")}),
		NewSeries("gold", []Value{Int(100), Int(250), Int(50)}),
	})
	out, err := FromDataFrame(df).GroupBy([]string{"type"}).Agg([]Expr{
		Alias(Agg(Col("gold"), AggSum), "total_gold"),
	}).Collect()
	if err != nil {
		t.Fatalf("group_by/agg: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("expected 2 groups, got %d", out.NumRows())
	}
	typeCol, _ := out.Column("type")
	totalCol, _ := out.Column("total_gold")
	totals := map[string]int64{}
	for i := range typeCol.Values {
		totals[typeCol.Values[i].S] = totalCol.Values[i].I
	}
	if totals["merchant"] != 150 || totals["producer"] != 250 {
		t.Fatalf("unexpected totals: %v", totals)
	}
}

func TestOverPartitionedDiff(t *testing.T) {
	df := mustFrame(t, []*Series{
		NewSeries("entity_id", []Value{Int(1), Int(1), Int(1), Int(2), Int(2)}),
		NewSeries("gold", []Value{Int(100), Int(150), Int(120), Int(200), Int(250)}),
	})
	out, err := FromDataFrame(df).WithColumns([]Expr{
		Alias(Over(Diff(Col("gold")), []string{"entity_id"}), "chg"),
	}).Collect()
	if err != nil {
		t.Fatalf("over/diff: %v", err)
	}
	chg, _ := out.Column("chg")
	want := []Value{Null, Int(50), Int(-30), Null, Int(50)}
	for i, w := range want {
		if !chg.Values[i].Equal(w) {
			t.Fatalf("row %d: got %v, want %v", i, chg.Values[i], w)
		}
	}
}

func TestJoinInnerLeft(t *testing.T) {
	left := mustFrame(t, []*Series{
		NewSeries("id", []Value{Int(1), Int(2)}),
		NewSeries("val_l", []Value{Str("a"), Str("b")}),
	})
	right := mustFrame(t, []*Series{
		NewSeries("id", []Value{Int(2), Int(3)}),
		NewSeries("val_r", []Value{Str("x"), Str("y")}),
	})

	inner, err := FromDataFrame(left).Join(FromDataFrame(right), []string{"id"}, []string{"id"}, JoinInner).Collect()
	if err != nil {
		t.Fatalf("inner join: %v", err)
	}
	if inner.NumRows() != 1 {
		t.Fatalf("expected 1 row for inner join, got %d", inner.NumRows())
	}

	leftJoin, err := FromDataFrame(left).Join(FromDataFrame(right), []string{"id"}, []string{"id"}, JoinLeft).Collect()
	if err != nil {
		t.Fatalf("left join: %v", err)
	}
	if leftJoin.NumRows() != 2 {
		t.Fatalf("expected 2 rows for left join, got %d", leftJoin.NumRows())
	}
}

func TestSortDescending(t *testing.T) {
	df := mustFrame(t, []*Series{
		NewSeries("gold", []Value{Int(50), Int(250), Int(100)}),
	})
	out, err := FromDataFrame(df).Sort([]string{"gold"}, true).Collect()
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	gold, _ := out.Column("gold")
	want := []int64{250, 100, 50}
	for i, w := range want {
		if gold.Values[i].I != w {
			t.Fatalf("row %d: got %d, want %d", i, gold.Values[i].I, w)
		}
	}
}

func TestConcatPreservesOrder(t *testing.T) {
	a := mustFrame(t, []*Series{NewSeries("tick", []Value{Int(1)}), NewSeries("val", []Value{Int(10)})})
	b := mustFrame(t, []*Series{NewSeries("tick", []Value{Int(2)}), NewSeries("val", []Value{Int(20)})})
	out, err := a.Concat(b)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	tick, _ := out.Column("tick")
	if tick.Values[0].I != 1 || tick.Values[1].I != 2 {
		t.Fatalf("concat did not preserve order: %v", tick.Values)
	}
}
