package eval

import (
	"fmt"
	"strings"

	"github.com/JoeHowarth/piql/internal/frame"
	"github.com/JoeHowarth/piql/internal/lang"
)

// Eval lowers a core expression onto ctx's catalog, producing a Value.
// Compile should be called once per query text; Eval may then be called
// many times (e.g. once per tick) against the same compiled Core tree
// without re-expanding sugar.
func Eval(core lang.CoreExpr, ctx *EvalContext) (Value, error) {
	e := &evaluator{ctx: ctx}
	return e.eval(core)
}

type evaluator struct {
	ctx *EvalContext
}

func (ev *evaluator) eval(n lang.CoreExpr) (Value, error) {
	switch node := n.(type) {
	case *lang.CoreIdent:
		return ev.resolveIdent(node.Name)
	case *lang.CoreLit:
		return scalarValue(literalToFrameValue(node.Value)), nil
	case *lang.CoreList:
		return Value{}, typeErr("list", "a list literal is only valid as a method argument")
	case *lang.CoreAttr:
		return ev.evalAttr(node)
	case *lang.CoreCall:
		return ev.evalCall(node)
	case *lang.CoreBin:
		return ev.evalBin(node)
	case *lang.CoreUnary:
		return ev.evalUnary(node)
	case *lang.CoreCond:
		return ev.evalCond(node)
	case *lang.CoreInvalid:
		kind := KindInvalid
		if strings.HasPrefix(node.Message, "Unknown directive:") {
			kind = KindUnknownDirective
		}
		return Value{}, newErr(kind, "", "%s", node.Message)
	default:
		return Value{}, fmt.Errorf("eval: unhandled core node %T", n)
	}
}

func (ev *evaluator) resolveIdent(name string) (Value, error) {
	if name == "pl" {
		return plNamespaceValue, nil
	}
	if st, ok := ev.ctx.lookupBaseTable(name); ok {
		return tableValue(&TableValue{Plan: st.now, Lineage: Lineage{Kind: LinTable, Name: name}}), nil
	}
	if entry, ok := ev.ctx.lookupCatalog(name); ok {
		return tableValue(&TableValue{Plan: entry.snapshot, Lineage: Lineage{Kind: LinTable, Name: name}}), nil
	}
	return Value{}, newErr(KindUnknownIdent, "", "unknown identifier %q", name)
}

func (ev *evaluator) evalAttr(n *lang.CoreAttr) (Value, error) {
	base, err := ev.eval(n.Base)
	if err != nil {
		return Value{}, err
	}
	if base.Kind == VExpr && (n.Name == "str" || n.Name == "dt" || n.Name == "list") {
		return Value{Kind: VExpr, Expr: base.Expr, Namespace: n.Name}, nil
	}
	if base.Kind == VTable {
		return Value{}, typeErr("."+n.Name, "attribute access on a table requires a following method call")
	}
	return Value{}, typeErr("."+n.Name, "cannot access attribute %q on this value", n.Name)
}

func (ev *evaluator) evalCall(n *lang.CoreCall) (Value, error) {
	attr, ok := n.Callee.(*lang.CoreAttr)
	if !ok {
		return Value{}, typeErr("call", "call target must be a method access")
	}
	base, err := ev.eval(attr.Base)
	if err != nil {
		return Value{}, err
	}
	if base.Namespace == "str" {
		return ev.evalStrMethod(base.Expr, attr.Name, n.Args)
	}
	if base.Namespace == "dt" {
		return ev.evalDtMethod(base.Expr, attr.Name)
	}
	switch base.Kind {
	case VPlNamespace:
		return ev.evalPlMethod(attr.Name, n.Args)
	case VTable:
		return ev.evalTableMethod(base.Table, attr.Base, attr.Name, n.Args)
	case VGrouped:
		return ev.evalGroupedMethod(base.Grouped, attr.Name, n.Args)
	case VExpr:
		return ev.evalExprMethod(base.Expr, attr.Name, n.Args)
	default:
		return Value{}, unknownMethodErr("scalar", attr.Name)
	}
}

func (ev *evaluator) evalBin(n *lang.CoreBin) (Value, error) {
	l, err := ev.eval(n.L)
	if err != nil {
		return Value{}, err
	}
	r, err := ev.eval(n.R)
	if err != nil {
		return Value{}, err
	}
	if l.Kind == VScalar && r.Kind == VScalar {
		v, err := scalarBinOp(n.Op, l.Scalar, r.Scalar)
		if err != nil {
			return Value{}, typeErr(n.Op, "%s", err)
		}
		return scalarValue(v), nil
	}
	lx, err := exprOf(l, n.Op)
	if err != nil {
		return Value{}, err
	}
	rx, err := exprOf(r, n.Op)
	if err != nil {
		return Value{}, err
	}
	return exprValue(frame.BinOp(n.Op, lx, rx)), nil
}

func (ev *evaluator) evalUnary(n *lang.CoreUnary) (Value, error) {
	x, err := ev.eval(n.X)
	if err != nil {
		return Value{}, err
	}
	if x.Kind == VScalar {
		v, err := scalarUnaryOp(n.Op, x.Scalar)
		if err != nil {
			return Value{}, typeErr(n.Op, "%s", err)
		}
		return scalarValue(v), nil
	}
	xx, err := exprOf(x, n.Op)
	if err != nil {
		return Value{}, err
	}
	return exprValue(frame.UnaryOp(n.Op, xx)), nil
}

func (ev *evaluator) evalCond(n *lang.CoreCond) (Value, error) {
	branches := make([]frame.CondBranch, len(n.Branches))
	for i, b := range n.Branches {
		condVal, err := ev.eval(b.Cond)
		if err != nil {
			return Value{}, err
		}
		condExpr, err := exprOf(condVal, "when")
		if err != nil {
			return Value{}, err
		}
		thenVal, err := ev.eval(b.Value)
		if err != nil {
			return Value{}, err
		}
		thenExpr, err := exprOf(thenVal, "then")
		if err != nil {
			return Value{}, err
		}
		branches[i] = frame.CondBranch{Cond: condExpr, Then: thenExpr}
	}
	elseVal, err := ev.eval(n.Otherwise)
	if err != nil {
		return Value{}, err
	}
	elseExpr, err := exprOf(elseVal, "otherwise")
	if err != nil {
		return Value{}, err
	}
	return exprValue(frame.WhenThen(branches, elseExpr)), nil
}

// exprOf coerces v into a frame.Expr usable inside a larger expression tree,
// lifting a bare scalar to a literal. Table/Grouped/PlNamespace values
// cannot appear inside an expression.
func exprOf(v Value, operator string) (frame.Expr, error) {
	switch v.Kind {
	case VExpr:
		return v.Expr, nil
	case VScalar:
		return frame.Lit(v.Scalar), nil
	default:
		return nil, typeErr(operator, "expected a column expression or scalar, got %s", kindName(v.Kind))
	}
}

func kindName(k ValueKind) string {
	switch k {
	case VTable:
		return "Table"
	case VGrouped:
		return "Grouped"
	case VExpr:
		return "Expr"
	case VScalar:
		return "Scalar"
	case VPlNamespace:
		return "pl"
	default:
		return "unknown"
	}
}

func literalToFrameValue(l lang.Literal) frame.Value {
	switch l.Kind {
	case lang.LitNull:
		return frame.Null
	case lang.LitString:
		return frame.Str(l.Str)
	case lang.LitInt:
		return frame.Int(l.Int)
	case lang.LitFloat:
		return frame.Float(l.Float)
	case lang.LitBool:
		return frame.Bool(l.Bool)
	default:
		return frame.Null
	}
}

func scalarBinOp(op string, l, r frame.Value) (frame.Value, error) {
	switch op {
	case "+", "-", "*", "/", "%":
		return frame.Arith(op, l, r)
	case "==":
		return frame.Bool(l.Equal(r)), nil
	case "!=":
		return frame.Bool(!l.Equal(r)), nil
	case "<", "<=", ">", ">=":
		if l.IsNull() || r.IsNull() {
			return frame.Null, nil
		}
		cmp, err := l.Compare(r)
		if err != nil {
			return frame.Value{}, err
		}
		switch op {
		case "<":
			return frame.Bool(cmp < 0), nil
		case "<=":
			return frame.Bool(cmp <= 0), nil
		case ">":
			return frame.Bool(cmp > 0), nil
		default:
			return frame.Bool(cmp >= 0), nil
		}
	case "&":
		return frame.Bool(l.AsBool() && r.AsBool()), nil
	case "|":
		return frame.Bool(l.AsBool() || r.AsBool()), nil
	default:
		return frame.Value{}, fmt.Errorf("unknown binary operator %q", op)
	}
}

func scalarUnaryOp(op string, x frame.Value) (frame.Value, error) {
	switch op {
	case "neg":
		if x.IsNull() {
			return frame.Null, nil
		}
		f, ok := x.AsFloat()
		if !ok {
			return frame.Value{}, fmt.Errorf("unary neg requires a numeric operand, got %s", x.Kind)
		}
		if x.Kind == frame.KindInt64 {
			return frame.Int(-x.I), nil
		}
		return frame.Float(-f), nil
	case "not":
		return frame.Bool(!x.AsBool()), nil
	default:
		return frame.Value{}, fmt.Errorf("unknown unary operator %q", op)
	}
}
