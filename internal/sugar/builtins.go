package sugar

import (
	"fmt"

	"github.com/JoeHowarth/piql/internal/lang"
)

// defaultPartitionKey is the legacy fallback used when neither the context
// nor the caller has configured a partition key (§4.3, §9 open question).
const defaultPartitionKey = "entity_id"

func partitionKey(ctx lang.SugarContext) string {
	if ctx.PartitionKey != "" {
		return ctx.PartitionKey
	}
	return defaultPartitionKey
}

func registerBuiltins(r *Registry) {
	r.RegisterColMethod("delta", deltaHandler)
	r.RegisterColMethod("pct", pctHandler)
}

func attrCall(base lang.CoreExpr, name string, args ...lang.CoreExpr) lang.CoreExpr {
	coreArgs := make([]lang.CoreArg, len(args))
	for i, a := range args {
		coreArgs[i] = lang.CoreArg{Value: a}
	}
	return &lang.CoreCall{Callee: &lang.CoreAttr{Base: base, Name: name}, Args: coreArgs}
}

func partitionLit(ctx lang.SugarContext) lang.CoreExpr {
	return &lang.CoreLit{Value: lang.StringLiteral(partitionKey(ctx))}
}

// deltaHandler implements $col.delta (no args) -> col.diff().over(partition)
// and $col.delta(n) -> col - col.shift(n).over(partition).
func deltaHandler(col lang.CoreExpr, args []lang.CoreArg, ctx lang.SugarContext) (lang.CoreExpr, error) {
	switch len(args) {
	case 0:
		return attrCall(attrCall(col, "diff"), "over", partitionLit(ctx)), nil
	case 1:
		shifted := attrCall(attrCall(col, "shift", args[0].Value), "over", partitionLit(ctx))
		return &lang.CoreBin{Op: "-", L: col, R: shifted}, nil
	default:
		return nil, fmt.Errorf("delta() takes at most one argument")
	}
}

// pctHandler implements $col.pct(n) ->
// (col - col.shift(n).over(partition)) / col.shift(n).over(partition).
func pctHandler(col lang.CoreExpr, args []lang.CoreArg, ctx lang.SugarContext) (lang.CoreExpr, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("pct() requires exactly one argument")
	}
	shifted := attrCall(attrCall(col, "shift", args[0].Value), "over", partitionLit(ctx))
	numerator := &lang.CoreBin{Op: "-", L: col, R: shifted}
	return &lang.CoreBin{Op: "/", L: numerator, R: shifted}, nil
}
