package eval

import (
	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/lang"
)

// bareBaseTableName reports whether node is a bare identifier naming a
// registered base table, and if so returns that name. Scope methods use
// this to decide whether to operate on the table's full history ("all") or
// its current plan.
func bareBaseTableName(node lang.CoreExpr, ctx *EvalContext) (string, bool) {
	id, ok := node.(*lang.CoreIdent)
	if !ok {
		return "", false
	}
	if _, ok := ctx.lookupBaseTable(id.Name); !ok {
		return "", false
	}
	return id.Name, true
}

// scopeBasePlan returns the plan a scope method should filter: the base
// table's full history when invoked directly on a bare base-table
// identifier, otherwise the table value's current plan.
func (ev *evaluator) scopeBasePlan(tv *TableValue, baseNode lang.CoreExpr) *frame.LazyFrame {
	if name, ok := bareBaseTableName(baseNode, ev.ctx); ok {
		if st, ok := ev.ctx.lookupBaseTable(name); ok {
			return st.all
		}
	}
	return tv.Plan
}

// resolveTickColumn finds the tick column governing lineage's table,
// falling back to the context-wide default.
func resolveTickColumn(lineage Lineage, ctx *EvalContext) (string, error) {
	switch lineage.Kind {
	case LinAmbiguous:
		return "", newErr(KindAmbiguousScope, "", "scope method requires unambiguous table lineage (result of a join)")
	case LinTable, LinDerivedFrom:
		if cfg, ok := ctx.tableConfig(lineage.Name); ok {
			return cfg.TickColumn, nil
		}
	}
	ctx.mu.RLock()
	def := ctx.defaultTickColumn
	ctx.mu.RUnlock()
	if def == "" {
		return "", newErr(KindMissingTickConfig, "", "no tick column configured for this table and no default is set")
	}
	return def, nil
}

func (ev *evaluator) evalScopeAll(tv *TableValue, baseNode lang.CoreExpr) (Value, error) {
	plan := ev.scopeBasePlan(tv, baseNode)
	return ev.nextTable(tv, plan), nil
}

func (ev *evaluator) evalScopeWindow(tv *TableValue, baseNode lang.CoreExpr, args []lang.CoreArg) (Value, error) {
	pos := positionalArgs(args)
	if len(pos) != 2 {
		return Value{}, argErr("window", "requires exactly two arguments: lo, hi")
	}
	lo, err := ev.intArg(pos[0].Value, "window")
	if err != nil {
		return Value{}, err
	}
	hi, err := ev.intArg(pos[1].Value, "window")
	if err != nil {
		return Value{}, err
	}
	tickCol, err := resolveTickColumn(tv.Lineage, ev.ctx)
	if err != nil {
		return Value{}, err
	}
	tick := ev.ctx.Tick()
	pred := frame.IsBetween(frame.Col(tickCol), frame.Lit(frame.Int(tick+int64(lo))), frame.Lit(frame.Int(tick+int64(hi))))
	plan := ev.scopeBasePlan(tv, baseNode).Filter(pred)
	return ev.nextTable(tv, plan), nil
}

func (ev *evaluator) evalScopeSince(tv *TableValue, baseNode lang.CoreExpr, args []lang.CoreArg) (Value, error) {
	pos := positionalArgs(args)
	if len(pos) != 1 {
		return Value{}, argErr("since", "requires exactly one argument")
	}
	n, err := ev.intArg(pos[0].Value, "since")
	if err != nil {
		return Value{}, err
	}
	tickCol, err := resolveTickColumn(tv.Lineage, ev.ctx)
	if err != nil {
		return Value{}, err
	}
	pred := frame.BinOp(">=", frame.Col(tickCol), frame.Lit(frame.Int(int64(n))))
	plan := ev.scopeBasePlan(tv, baseNode).Filter(pred)
	return ev.nextTable(tv, plan), nil
}

func (ev *evaluator) evalScopeAt(tv *TableValue, baseNode lang.CoreExpr, args []lang.CoreArg) (Value, error) {
	pos := positionalArgs(args)
	if len(pos) != 1 {
		return Value{}, argErr("at", "requires exactly one argument")
	}
	n, err := ev.intArg(pos[0].Value, "at")
	if err != nil {
		return Value{}, err
	}
	tickCol, err := resolveTickColumn(tv.Lineage, ev.ctx)
	if err != nil {
		return Value{}, err
	}
	pred := frame.BinOp("==", frame.Col(tickCol), frame.Lit(frame.Int(int64(n))))
	plan := ev.scopeBasePlan(tv, baseNode).Filter(pred)
	return ev.nextTable(tv, plan), nil
}
