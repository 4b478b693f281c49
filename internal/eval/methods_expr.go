package eval

import (
	"fmt"

	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/lang"
)

// evalExprMethod dispatches a method call on an Expr value.
func (ev *evaluator) evalExprMethod(x frame.Expr, method string, args []lang.CoreArg) (Value, error) {
	switch method {
	case "alias":
		arg := firstPositional(args)
		if arg == nil {
			return Value{}, argErr("alias", "requires exactly one argument")
		}
		name, err := ev.stringArg(arg, "alias")
		if err != nil {
			return Value{}, err
		}
		return exprValue(frame.Alias(x, name)), nil
	case "over":
		cols, err := ev.resolveColumnNames(args, "over")
		if err != nil {
			return Value{}, err
		}
		return exprValue(frame.Over(x, cols)), nil
	case "is_between":
		if len(args) != 2 {
			return Value{}, argErr("is_between", "requires exactly two arguments")
		}
		lo, err := ev.exprArg(args[0].Value, "is_between")
		if err != nil {
			return Value{}, err
		}
		hi, err := ev.exprArg(args[1].Value, "is_between")
		if err != nil {
			return Value{}, err
		}
		return exprValue(frame.IsBetween(x, lo, hi)), nil
	case "diff":
		return exprValue(frame.Diff(x)), nil
	case "shift":
		if len(args) != 1 {
			return Value{}, argErr("shift", "requires exactly one argument")
		}
		n, err := ev.intArg(args[0].Value, "shift")
		if err != nil {
			return Value{}, err
		}
		return exprValue(frame.Shift(x, n)), nil
	case "sum":
		return exprValue(frame.Agg(x, frame.AggSum)), nil
	case "mean":
		return exprValue(frame.Agg(x, frame.AggMean)), nil
	case "min":
		return exprValue(frame.Agg(x, frame.AggMin)), nil
	case "max":
		return exprValue(frame.Agg(x, frame.AggMax)), nil
	case "count":
		return exprValue(frame.Agg(x, frame.AggCount)), nil
	case "first":
		return exprValue(frame.Agg(x, frame.AggFirst)), nil
	case "last":
		return exprValue(frame.Agg(x, frame.AggLast)), nil
	case "n_unique":
		return exprValue(frame.Agg(x, frame.AggNUnique)), nil
	case "cum_sum":
		return exprValue(frame.Agg(x, frame.AggCumSum)), nil
	case "cum_max":
		return exprValue(frame.Agg(x, frame.AggCumMax)), nil
	case "cum_min":
		return exprValue(frame.Agg(x, frame.AggCumMin)), nil
	case "rank":
		return exprValue(frame.Agg(x, frame.AggRank)), nil
	case "len":
		return exprValue(frame.Len()), nil
	case "cast":
		if len(args) != 1 {
			return Value{}, argErr("cast", "requires exactly one argument")
		}
		name, err := ev.stringArg(args[0].Value, "cast")
		if err != nil {
			return Value{}, err
		}
		k, err := parseDtype(name)
		if err != nil {
			return Value{}, argErr("cast", "%s", err)
		}
		return exprValue(frame.Cast(x, k)), nil
	case "fill_null":
		if len(args) != 1 {
			return Value{}, argErr("fill_null", "requires exactly one argument")
		}
		val, err := ev.exprArg(args[0].Value, "fill_null")
		if err != nil {
			return Value{}, err
		}
		return exprValue(frame.FillNull(x, val)), nil
	case "is_null":
		return exprValue(frame.IsNullOf(x)), nil
	case "is_not_null":
		return exprValue(frame.IsNotNullOf(x)), nil
	case "unique":
		return exprValue(frame.Unique(x)), nil
	case "abs":
		return exprValue(frame.Abs(x)), nil
	case "round":
		decimals := 0
		if len(args) > 0 {
			n, err := ev.intArg(args[0].Value, "round")
			if err != nil {
				return Value{}, err
			}
			decimals = n
		}
		return exprValue(frame.Round(x, decimals)), nil
	case "clip":
		if len(args) != 2 {
			return Value{}, argErr("clip", "requires exactly two arguments")
		}
		lo, err := ev.exprArg(args[0].Value, "clip")
		if err != nil {
			return Value{}, err
		}
		hi, err := ev.exprArg(args[1].Value, "clip")
		if err != nil {
			return Value{}, err
		}
		return exprValue(frame.Clip(x, lo, hi)), nil
	case "reverse":
		return exprValue(frame.Reverse(x)), nil
	default:
		return Value{}, unknownMethodErr("Expr", method)
	}
}

func (ev *evaluator) exprArg(e lang.CoreExpr, operator string) (frame.Expr, error) {
	v, err := ev.eval(e)
	if err != nil {
		return nil, err
	}
	return exprOf(v, operator)
}

func firstPositional(args []lang.CoreArg) lang.CoreExpr {
	pos := positionalArgs(args)
	if len(pos) == 0 {
		return nil
	}
	return pos[0].Value
}

func parseDtype(name string) (frame.Kind, error) {
	switch name {
	case "int", "i64":
		return frame.KindInt64, nil
	case "float", "f64":
		return frame.KindFloat64, nil
	case "str", "string":
		return frame.KindString, nil
	case "bool":
		return frame.KindBool, nil
	default:
		return 0, fmt.Errorf("unknown dtype %q", name)
	}
}

// evalStrMethod dispatches a call in the str.* namespace.
func (ev *evaluator) evalStrMethod(x frame.Expr, method string, args []lang.CoreArg) (Value, error) {
	switch method {
	case "starts_with", "ends_with", "contains":
		if len(args) != 1 {
			return Value{}, argErr("str."+method, "requires exactly one argument")
		}
		a, err := ev.exprArg(args[0].Value, "str."+method)
		if err != nil {
			return Value{}, err
		}
		return exprValue(frame.StrMethod(x, method, a)), nil
	case "to_lowercase", "to_uppercase", "len_chars":
		return exprValue(frame.StrMethod(x, method)), nil
	case "replace":
		if len(args) != 2 {
			return Value{}, argErr("str.replace", "requires exactly two arguments")
		}
		from, err := ev.exprArg(args[0].Value, "str.replace")
		if err != nil {
			return Value{}, err
		}
		to, err := ev.exprArg(args[1].Value, "str.replace")
		if err != nil {
			return Value{}, err
		}
		return exprValue(frame.StrMethod(x, method, from, to)), nil
	case "slice":
		if len(args) != 2 {
			return Value{}, argErr("str.slice", "requires exactly two arguments")
		}
		start, err := ev.exprArg(args[0].Value, "str.slice")
		if err != nil {
			return Value{}, err
		}
		length, err := ev.exprArg(args[1].Value, "str.slice")
		if err != nil {
			return Value{}, err
		}
		return exprValue(frame.StrMethod(x, method, start, length)), nil
	default:
		return Value{}, unknownMethodErr("str", method)
	}
}

// evalDtMethod dispatches a call in the dt.* namespace.
func (ev *evaluator) evalDtMethod(x frame.Expr, method string) (Value, error) {
	switch method {
	case "year", "month", "day", "hour", "minute", "second":
		return exprValue(frame.DtMethod(x, method)), nil
	default:
		return Value{}, unknownMethodErr("dt", method)
	}
}
