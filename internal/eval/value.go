// Package eval lowers PiQL's core tree onto the columnar backend
// (internal/frame), tracking table lineage and dispatching the table,
// grouped, and expression method sets described by the evaluator
// specification.
package eval

import "github.com/JoeHowarth/piql/internal/frame"

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	VTable ValueKind = iota
	VGrouped
	VExpr
	VScalar
	VPlNamespace
)

// LineageKind tags the variant held by a Lineage.
type LineageKind int

const (
	LinUnknown LineageKind = iota
	LinTable
	LinDerivedFrom
	LinAmbiguous
)

// Lineage identifies the base table (if any) a Table value was derived
// from. Attribute/method operations demote Table to DerivedFrom; joins
// produce Ambiguous; scope methods consult Name to find tick-column config.
type Lineage struct {
	Kind LineageKind
	Name string
}

func demote(l Lineage) Lineage {
	if l.Kind == LinTable {
		return Lineage{Kind: LinDerivedFrom, Name: l.Name}
	}
	return l
}

// TableValue is the evaluator's Table variant: a lazy plan plus its
// lineage.
type TableValue struct {
	Plan    *frame.LazyFrame
	Lineage Lineage
}

// GroupedValue is the post group_by(), pre agg() variant.
type GroupedValue struct {
	Group   *frame.LazyGroupBy
	Lineage Lineage
}

// Value is the evaluator's result type: exactly one of Table, Grouped,
// Expr, Scalar is meaningful, selected by Kind. Namespace is non-empty only
// for an Expr value produced by referencing .str/.dt/.list, consumed by the
// immediately following method call.
type Value struct {
	Kind      ValueKind
	Table     *TableValue
	Grouped   *GroupedValue
	Expr      frame.Expr
	Scalar    frame.Value
	Namespace string
}

func tableValue(tv *TableValue) Value    { return Value{Kind: VTable, Table: tv} }
func groupedValue(gv *GroupedValue) Value { return Value{Kind: VGrouped, Grouped: gv} }
func exprValue(e frame.Expr) Value       { return Value{Kind: VExpr, Expr: e} }
func scalarValue(v frame.Value) Value    { return Value{Kind: VScalar, Scalar: v} }

var plNamespaceValue = Value{Kind: VPlNamespace}
