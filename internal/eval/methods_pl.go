package eval

import (
	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/lang"
)

// evalPlMethod dispatches calls on the pl namespace: col(names...),
// lit(value), len().
func (ev *evaluator) evalPlMethod(method string, args []lang.CoreArg) (Value, error) {
	switch method {
	case "col":
		if len(args) == 0 {
			return Value{}, argErr("pl.col", "requires at least one column name")
		}
		if len(args) == 1 {
			name, err := ev.stringArg(args[0].Value, "pl.col")
			if err != nil {
				return Value{}, err
			}
			return exprValue(frame.Col(name)), nil
		}
		names := make([]string, len(args))
		for i, a := range args {
			n, err := ev.stringArg(a.Value, "pl.col")
			if err != nil {
				return Value{}, err
			}
			names[i] = n
		}
		return exprValue(frame.Cols(names...)), nil
	case "lit":
		if len(args) != 1 {
			return Value{}, argErr("pl.lit", "requires exactly one value")
		}
		v, err := ev.eval(args[0].Value)
		if err != nil {
			return Value{}, err
		}
		x, err := exprOf(v, "pl.lit")
		if err != nil {
			return Value{}, err
		}
		return exprValue(x), nil
	case "len":
		return exprValue(frame.Len()), nil
	default:
		return Value{}, unknownMethodErr("pl", method)
	}
}
