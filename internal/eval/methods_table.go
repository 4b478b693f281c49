package eval

import (
	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/lang"
)

// evalTableMethod dispatches a method call on a Table value. baseNode is the
// raw core node the call's receiver was parsed from; scope methods (all,
// window, since, at) consult it to tell a bare base-table identifier
// (`events.at(2)`, operating on the table's full history) from a derived
// chain (`events.filter(...).at(2)`, operating on the current plan).
func (ev *evaluator) evalTableMethod(tv *TableValue, baseNode lang.CoreExpr, method string, args []lang.CoreArg) (Value, error) {
	switch method {
	case "filter":
		if len(args) != 1 {
			return Value{}, argErr("filter", "requires exactly one predicate")
		}
		pred, err := ev.exprArg(args[0].Value, "filter")
		if err != nil {
			return Value{}, err
		}
		return ev.nextTable(tv, tv.Plan.Filter(pred)), nil

	case "select":
		exprs, err := ev.exprListArg(args, "select")
		if err != nil {
			return Value{}, err
		}
		return ev.nextTable(tv, tv.Plan.Select(exprs)), nil

	case "with_columns":
		exprs, err := ev.exprListArg(args, "with_columns")
		if err != nil {
			return Value{}, err
		}
		return ev.nextTable(tv, tv.Plan.WithColumns(exprs)), nil

	case "head":
		n, err := ev.intOrDefault(args, "n", 10, "head")
		if err != nil {
			return Value{}, err
		}
		return ev.nextTable(tv, tv.Plan.Limit(n)), nil

	case "tail":
		n, err := ev.intOrDefault(args, "n", 10, "tail")
		if err != nil {
			return Value{}, err
		}
		return ev.nextTable(tv, tv.Plan.TailN(n)), nil

	case "sort":
		pos := positionalArgs(args)
		if len(pos) == 0 {
			return Value{}, argErr("sort", "requires a column or list of columns")
		}
		cols, err := ev.resolveColumnNames(pos[:1], "sort")
		if err != nil {
			return Value{}, err
		}
		descending, err := ev.boolArgOr(args, "descending", false, "sort")
		if err != nil {
			return Value{}, err
		}
		return ev.nextTable(tv, tv.Plan.Sort(cols, descending)), nil

	case "drop":
		cols, err := ev.resolveColumnNames(args, "drop")
		if err != nil {
			return Value{}, err
		}
		return ev.nextTable(tv, tv.Plan.Drop(cols)), nil

	case "explode":
		cols, err := ev.resolveColumnNames(args, "explode")
		if err != nil {
			return Value{}, err
		}
		return ev.nextTable(tv, tv.Plan.Explode(cols)), nil

	case "drop_nulls":
		return ev.nextTable(tv, tv.Plan.DropNulls()), nil

	case "reverse":
		return ev.nextTable(tv, tv.Plan.ReverseRows()), nil

	case "unique":
		var cols []string
		if len(args) > 0 {
			var err error
			cols, err = ev.resolveColumnNames(args, "unique")
			if err != nil {
				return Value{}, err
			}
		}
		return ev.nextTable(tv, tv.Plan.UniqueRows(cols)), nil

	case "count":
		return ev.nextTable(tv, tv.Plan.CountNonNull()), nil

	case "height":
		return ev.nextTable(tv, tv.Plan.HeightTable()), nil

	case "describe":
		return ev.nextTable(tv, tv.Plan.Describe()), nil

	case "top":
		if len(args) != 2 {
			return Value{}, argErr("top", "requires exactly two arguments: n, column")
		}
		n, err := ev.intArg(args[0].Value, "top")
		if err != nil {
			return Value{}, err
		}
		col, err := ev.columnName(args[1].Value, "top")
		if err != nil {
			return Value{}, err
		}
		return ev.nextTable(tv, tv.Plan.Top(n, col)), nil

	case "group_by":
		cols, err := ev.resolveColumnNames(args, "group_by")
		if err != nil {
			return Value{}, err
		}
		return groupedValue(&GroupedValue{Group: tv.Plan.GroupBy(cols), Lineage: demote(tv.Lineage)}), nil

	case "rename":
		return ev.evalRename(tv, args)

	case "join":
		return ev.evalJoin(tv, args)

	case "all":
		return ev.evalScopeAll(tv, baseNode)
	case "window":
		return ev.evalScopeWindow(tv, baseNode, args)
	case "since":
		return ev.evalScopeSince(tv, baseNode, args)
	case "at":
		return ev.evalScopeAt(tv, baseNode, args)

	default:
		return Value{}, unknownMethodErr("Table", method)
	}
}

func (ev *evaluator) nextTable(tv *TableValue, plan *frame.LazyFrame) Value {
	return tableValue(&TableValue{Plan: plan, Lineage: demote(tv.Lineage)})
}

func (ev *evaluator) exprListArg(args []lang.CoreArg, operator string) ([]frame.Expr, error) {
	if len(args) == 0 {
		return nil, argErr(operator, "requires at least one expression")
	}
	exprs := make([]frame.Expr, len(args))
	for i, a := range args {
		x, err := ev.exprArg(a.Value, operator)
		if err != nil {
			return nil, err
		}
		exprs[i] = x
	}
	return exprs, nil
}

func (ev *evaluator) intOrDefault(args []lang.CoreArg, kw string, def int, operator string) (int, error) {
	if v, ok := findKwarg(args, kw); ok {
		return ev.intArg(v, operator)
	}
	if pos := positionalArgs(args); len(pos) > 0 {
		return ev.intArg(pos[0].Value, operator)
	}
	return def, nil
}

func (ev *evaluator) boolArgOr(args []lang.CoreArg, kw string, def bool, operator string) (bool, error) {
	if v, ok := findKwarg(args, kw); ok {
		return ev.boolArg(v, operator, def)
	}
	pos := positionalArgs(args)
	if len(pos) > 1 {
		return ev.boolArg(pos[1].Value, operator, def)
	}
	return def, nil
}

func (ev *evaluator) evalRename(tv *TableValue, args []lang.CoreArg) (Value, error) {
	kwargs := make([]lang.CoreArg, 0, len(args))
	for _, a := range args {
		if a.Name != "" {
			kwargs = append(kwargs, a)
		}
	}
	var oldNames, newNames []string
	if len(kwargs) > 0 {
		for _, a := range kwargs {
			n, err := ev.stringArg(a.Value, "rename")
			if err != nil {
				return Value{}, err
			}
			oldNames = append(oldNames, a.Name)
			newNames = append(newNames, n)
		}
	} else {
		pos := positionalArgs(args)
		if len(pos) != 2 {
			return Value{}, argErr("rename", "requires old=new keyword pairs, or exactly two positional arguments")
		}
		oldName, err := ev.columnName(pos[0].Value, "rename")
		if err != nil {
			return Value{}, err
		}
		newName, err := ev.stringArg(pos[1].Value, "rename")
		if err != nil {
			return Value{}, err
		}
		oldNames, newNames = []string{oldName}, []string{newName}
	}
	return ev.nextTable(tv, tv.Plan.Rename(oldNames, newNames)), nil
}

func (ev *evaluator) evalJoin(tv *TableValue, args []lang.CoreArg) (Value, error) {
	pos := positionalArgs(args)
	if len(pos) != 1 {
		return Value{}, argErr("join", "requires exactly one positional argument: the other table")
	}
	otherVal, err := ev.eval(pos[0].Value)
	if err != nil {
		return Value{}, err
	}
	if otherVal.Kind != VTable {
		return Value{}, argErr("join", "the join target must be a table")
	}

	var leftOn, rightOn []string
	if onArg, ok := findKwarg(args, "on"); ok {
		names, err := ev.resolveColumnNames([]lang.CoreArg{{Value: onArg}}, "join")
		if err != nil {
			return Value{}, err
		}
		leftOn, rightOn = names, names
	} else {
		leftArg, leftOK := findKwarg(args, "left_on")
		rightArg, rightOK := findKwarg(args, "right_on")
		if !leftOK || !rightOK {
			return Value{}, argErr("join", "requires either on=, or both left_on= and right_on=")
		}
		leftOn, err = ev.resolveColumnNames([]lang.CoreArg{{Value: leftArg}}, "join")
		if err != nil {
			return Value{}, err
		}
		rightOn, err = ev.resolveColumnNames([]lang.CoreArg{{Value: rightArg}}, "join")
		if err != nil {
			return Value{}, err
		}
	}

	how := frame.JoinInner
	if howArg, ok := findKwarg(args, "how"); ok {
		s, err := ev.stringArg(howArg, "join")
		if err != nil {
			return Value{}, err
		}
		how = frame.JoinHow(s)
	}

	plan := tv.Plan.Join(otherVal.Table.Plan, leftOn, rightOn, how)
	return tableValue(&TableValue{Plan: plan, Lineage: Lineage{Kind: LinAmbiguous}}), nil
}
