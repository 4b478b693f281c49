package lang

import "testing"

func mustParse(t *testing.T, src string) Expr {
	t.Helper()
	e, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return e
}

func TestOperatorPrecedence(t *testing.T) {
	e := mustParse(t, "a * b + c")
	bin, ok := e.(*BinExpr)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected top-level '+', got %#v", e)
	}
	l, ok := bin.L.(*BinExpr)
	if !ok || l.Op != "*" {
		t.Fatalf("expected left child '*', got %#v", bin.L)
	}

	e2 := mustParse(t, "a & b | c")
	bin2, ok := e2.(*BinExpr)
	if !ok || bin2.Op != "|" {
		t.Fatalf("expected top-level '|', got %#v", e2)
	}
	l2, ok := bin2.L.(*BinExpr)
	if !ok || l2.Op != "&" {
		t.Fatalf("expected left child '&', got %#v", bin2.L)
	}
}

func TestUnaryNegOnLiteral(t *testing.T) {
	e := mustParse(t, "-3")
	u, ok := e.(*UnaryExpr)
	if !ok || u.Op != "neg" {
		t.Fatalf("expected unary neg, got %#v", e)
	}
	lit, ok := u.X.(*LitExpr)
	if !ok || lit.Value.Kind != LitInt || lit.Value.Int != 3 {
		t.Fatalf("expected literal int 3, got %#v", u.X)
	}
}

func TestNamespacedIdentifier(t *testing.T) {
	e := mustParse(t, `run1::data.filter($x>0)`)
	call, ok := e.(*CallExpr)
	if !ok {
		t.Fatalf("expected call, got %#v", e)
	}
	attr, ok := call.Callee.(*AttrExpr)
	if !ok || attr.Name != "filter" {
		t.Fatalf("expected .filter call, got %#v", call.Callee)
	}
	id, ok := attr.Base.(*IdentExpr)
	if !ok || id.Name != "run1::data" {
		t.Fatalf("expected single identifier run1::data, got %#v", attr.Base)
	}
}

func TestPrettyRoundTrip(t *testing.T) {
	cases := []string{
		`a * b + c`,
		`a & b | c`,
		`-3`,
		`entities.filter(pl.col("gold") > 100)`,
		`$gold.delta.alias("chg")`,
		`pl.when(pl.col("gold") > 200).then(pl.lit("rich")).otherwise(pl.lit("poor"))`,
	}
	for _, src := range cases {
		e1 := mustParse(t, src)
		pretty := Pretty(e1)
		e2, err := Parse(pretty)
		if err != nil {
			t.Fatalf("re-parse of pretty(%q)=%q failed: %v", src, pretty, err)
		}
		if Pretty(e2) != pretty {
			t.Fatalf("round trip mismatch: %q != %q", Pretty(e2), pretty)
		}
	}
}

func TestParseErrorLineColumn(t *testing.T) {
	_, err := Parse("a +\n+ )")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Line != 2 {
		t.Fatalf("expected error on line 2, got %d", pe.Line)
	}
}

func TestTrailingInputError(t *testing.T) {
	_, err := Parse("a + b )")
	if err == nil {
		t.Fatalf("expected trailing input error")
	}
}

// fakeRegistry implements Registry for transform tests.
type fakeRegistry struct {
	directives map[string]DirectiveHandler
	colMethods map[string]ColMethodHandler
}

func (r *fakeRegistry) Directive(name string) (DirectiveHandler, bool) {
	h, ok := r.directives[name]
	return h, ok
}

func (r *fakeRegistry) ColMethod(name string) (ColMethodHandler, bool) {
	h, ok := r.colMethods[name]
	return h, ok
}

func emptyRegistry() *fakeRegistry {
	return &fakeRegistry{directives: map[string]DirectiveHandler{}, colMethods: map[string]ColMethodHandler{}}
}

func TestTransformColShorthand(t *testing.T) {
	e := mustParse(t, `$gold`)
	core := Transform(e, emptyRegistry(), SugarContext{})
	call, ok := core.(*CoreCall)
	if !ok {
		t.Fatalf("expected synthetic call, got %#v", core)
	}
	attr, ok := call.Callee.(*CoreAttr)
	if !ok || attr.Name != "col" {
		t.Fatalf("expected pl.col call, got %#v", call.Callee)
	}
}

func TestTransformUnknownDirective(t *testing.T) {
	e := mustParse(t, `@bogus(1)`)
	core := Transform(e, emptyRegistry(), SugarContext{})
	inv, ok := core.(*CoreInvalid)
	if !ok {
		t.Fatalf("expected CoreInvalid, got %#v", core)
	}
	if inv.Message != "Unknown directive: @bogus" {
		t.Fatalf("unexpected message: %s", inv.Message)
	}
}

func TestTransformConditionalChain(t *testing.T) {
	src := `pl.when(pl.col("gold") > 200).then(pl.lit("rich")).when(pl.col("gold") > 75).then(pl.lit("comfortable")).otherwise(pl.lit("poor"))`
	e := mustParse(t, src)
	core := Transform(e, emptyRegistry(), SugarContext{})
	cond, ok := core.(*CoreCond)
	if !ok {
		t.Fatalf("expected CoreCond, got %#v", core)
	}
	if len(cond.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(cond.Branches))
	}
}

func TestTransformBrokenConditionalChain(t *testing.T) {
	// otherwise() with no argument, following a genuine pl.when/.then chain.
	e, err := Parse(`pl.when(pl.col("gold") > 200).then(pl.lit("rich")).otherwise()`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	core := Transform(e, emptyRegistry(), SugarContext{})
	inv, ok := core.(*CoreInvalid)
	if !ok {
		t.Fatalf("expected CoreInvalid, got %#v", core)
	}
	if inv.Message != "otherwise() requires an argument" {
		t.Fatalf("unexpected message: %s", inv.Message)
	}
}

func TestRootTableName(t *testing.T) {
	e := mustParse(t, `entities.filter($gold > 100).head(5)`)
	name, ok := RootTableName(e)
	if !ok || name != "entities" {
		t.Fatalf("expected root table entities, got %q ok=%v", name, ok)
	}

	e2 := mustParse(t, `pl.col("x")`)
	_, ok2 := RootTableName(e2)
	if ok2 {
		t.Fatalf("expected no root table for pure pl expression")
	}
}
