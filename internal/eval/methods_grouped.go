package eval

import (
	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/lang"
)

// evalGroupedMethod dispatches a method call on a Grouped value. agg is the
// only valid method; anything else is an UnknownMethod error, since Grouped only
// exists transiently between group_by() and agg().
func (ev *evaluator) evalGroupedMethod(g *GroupedValue, method string, args []lang.CoreArg) (Value, error) {
	if method != "agg" {
		return Value{}, unknownMethodErr("Grouped", method)
	}
	if len(args) == 0 {
		return Value{}, argErr("agg", "requires at least one reducing expression")
	}
	exprs := make([]frame.Expr, len(args))
	for i, a := range args {
		v, err := ev.eval(a.Value)
		if err != nil {
			return Value{}, err
		}
		if v.Kind != VExpr {
			return Value{}, argErr("agg", "argument %d is not a reducing expression", i)
		}
		exprs[i] = v.Expr
	}
	plan := g.Group.Agg(exprs)
	return tableValue(&TableValue{Plan: plan, Lineage: g.Lineage}), nil
}
