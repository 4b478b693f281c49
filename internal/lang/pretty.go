package lang

import (
	"fmt"
	"strconv"
	"strings"
)

// precedence levels, lowest to highest, mirroring the parser's grammar.
const (
	precOr = iota + 1
	precAnd
	precCmp
	precAdd
	precMul
	precUnary
	precPostfix
)

func binPrec(op string) int {
	switch op {
	case "|":
		return precOr
	case "&":
		return precAnd
	case "==", "!=", "<", "<=", ">", ">=":
		return precCmp
	case "+", "-":
		return precAdd
	case "*", "/", "%":
		return precMul
	default:
		return precPostfix
	}
}

func precOf(e Expr) int {
	switch n := e.(type) {
	case *BinExpr:
		return binPrec(n.Op)
	case *UnaryExpr:
		return precUnary
	default:
		return precPostfix
	}
}

// Pretty renders e to canonical single-line source text.
func Pretty(e Expr) string {
	return prettyExpr(e, 0)
}

func prettyExpr(e Expr, minPrec int) string {
	var s string
	switch n := e.(type) {
	case *IdentExpr:
		s = n.Name
	case *LitExpr:
		s = prettyLiteral(n.Value)
	case *ListExpr:
		items := make([]string, len(n.Items))
		for i, it := range n.Items {
			items[i] = prettyExpr(it, 0)
		}
		s = "[" + strings.Join(items, ", ") + "]"
	case *ColShorthandExpr:
		s = "$" + n.Name
	case *DirectiveExpr:
		s = "@" + n.Name
		if n.Args != nil {
			s += "(" + prettyArgs(n.Args) + ")"
		}
	case *AttrExpr:
		s = prettyExpr(n.Base, precPostfix) + "." + n.Name
	case *CallExpr:
		s = prettyExpr(n.Callee, precPostfix) + "(" + prettyArgs(n.Args) + ")"
	case *UnaryExpr:
		op := "-"
		if n.Op == "not" {
			op = "~"
		}
		s = op + prettyExpr(n.X, precUnary)
		if precUnary < minPrec {
			return "(" + s + ")"
		}
		return s
	case *BinExpr:
		p := binPrec(n.Op)
		l := prettyExpr(n.L, p)
		r := prettyExpr(n.R, p+1)
		s = l + " " + n.Op + " " + r
		if p < minPrec {
			return "(" + s + ")"
		}
		return s
	default:
		s = fmt.Sprintf("<unknown %T>", e)
	}
	if precOf(e) < minPrec {
		return "(" + s + ")"
	}
	return s
}

func prettyArgs(args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Name != "" {
			parts[i] = a.Name + "=" + prettyExpr(a.Value, 0)
		} else {
			parts[i] = prettyExpr(a.Value, 0)
		}
	}
	return strings.Join(parts, ", ")
}

func prettyLiteral(l Literal) string {
	switch l.Kind {
	case LitNull:
		return "None"
	case LitBool:
		if l.Bool {
			return "True"
		}
		return "False"
	case LitInt:
		return strconv.FormatInt(l.Int, 10)
	case LitFloat:
		s := strconv.FormatFloat(l.Float, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case LitString:
		return "\"" + escapeString(l.Str) + "\""
	default:
		return "None"
	}
}

func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PrettyWidth renders e width-aware: if the canonical single-line form
// exceeds width, the trailing method-chain spine is broken one call (or
// bare attribute access) per line, indented two spaces beyond the chain
// root.
func PrettyWidth(e Expr, width int) string {
	line := Pretty(e)
	if len(line) <= width {
		return line
	}
	root, segs := chainSegments(e)
	if len(segs) < 2 {
		return line
	}
	var b strings.Builder
	b.WriteString(prettyExpr(root, precPostfix))
	for _, seg := range segs {
		b.WriteString("\n  ")
		b.WriteString(seg)
	}
	return b.String()
}

// chainSegments walks e's postfix spine outside-in, returning the
// non-postfix root and the ordered list of ".name" / "(args)" segments
// applied to it. A CallExpr whose callee is an AttrExpr renders as one
// ".method(args)" segment.
func chainSegments(e Expr) (Expr, []string) {
	var rev []string
	cur := e
	for {
		switch n := cur.(type) {
		case *CallExpr:
			if attr, ok := n.Callee.(*AttrExpr); ok {
				rev = append(rev, "."+attr.Name+"("+prettyArgs(n.Args)+")")
				cur = attr.Base
				continue
			}
			rev = append(rev, "("+prettyArgs(n.Args)+")")
			cur = n.Callee
		case *AttrExpr:
			rev = append(rev, "."+n.Name)
			cur = n.Base
		default:
			segs := make([]string, len(rev))
			for i, s := range rev {
				segs[len(rev)-1-i] = s
			}
			return cur, segs
		}
	}
}
