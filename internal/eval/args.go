package eval

import (
	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/lang"
)

func positionalArgs(args []lang.CoreArg) []lang.CoreArg {
	var out []lang.CoreArg
	for _, a := range args {
		if a.Name == "" {
			out = append(out, a)
		}
	}
	return out
}

func findKwarg(args []lang.CoreArg, name string) (lang.CoreExpr, bool) {
	for _, a := range args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

func (ev *evaluator) columnName(e lang.CoreExpr, operator string) (string, error) {
	v, err := ev.eval(e)
	if err != nil {
		return "", err
	}
	switch v.Kind {
	case VScalar:
		if v.Scalar.Kind != frame.KindString {
			return "", argErr(operator, "expected a column name string")
		}
		return v.Scalar.S, nil
	case VExpr:
		if ce, ok := v.Expr.(*frame.ColExpr); ok {
			return ce.Name, nil
		}
		return "", argErr(operator, "expected a single column name, got a compound expression")
	default:
		return "", argErr(operator, "expected a column name")
	}
}

// resolveColumnNames accepts either a single list argument (`[a, b]`) or a
// variadic run of positional column-name arguments (`a, b`), matching the
// surface grammar's two equivalent spellings for "a set of columns".
func (ev *evaluator) resolveColumnNames(args []lang.CoreArg, operator string) ([]string, error) {
	if len(args) == 1 {
		if list, ok := args[0].Value.(*lang.CoreList); ok {
			names := make([]string, 0, len(list.Items))
			for _, item := range list.Items {
				n, err := ev.columnName(item, operator)
				if err != nil {
					return nil, err
				}
				names = append(names, n)
			}
			return names, nil
		}
	}
	names := make([]string, 0, len(args))
	for _, a := range args {
		n, err := ev.columnName(a.Value, operator)
		if err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, nil
}

func (ev *evaluator) intArg(e lang.CoreExpr, operator string) (int, error) {
	v, err := ev.eval(e)
	if err != nil {
		return 0, err
	}
	if v.Kind != VScalar {
		return 0, argErr(operator, "expected an integer argument")
	}
	switch v.Scalar.Kind {
	case frame.KindInt64:
		return int(v.Scalar.I), nil
	case frame.KindFloat64:
		return int(v.Scalar.F), nil
	default:
		return 0, argErr(operator, "expected an integer argument, got %s", v.Scalar.Kind)
	}
}

func (ev *evaluator) stringArg(e lang.CoreExpr, operator string) (string, error) {
	v, err := ev.eval(e)
	if err != nil {
		return "", err
	}
	if v.Kind != VScalar || v.Scalar.Kind != frame.KindString {
		return "", argErr(operator, "expected a string argument")
	}
	return v.Scalar.S, nil
}

func (ev *evaluator) boolArg(e lang.CoreExpr, operator string, def bool) (bool, error) {
	if e == nil {
		return def, nil
	}
	v, err := ev.eval(e)
	if err != nil {
		return false, err
	}
	if v.Kind != VScalar {
		return false, argErr(operator, "expected a boolean argument")
	}
	return v.Scalar.AsBool(), nil
}
