package lang

import "fmt"

// SugarContext is the pure-function context handed to sugar handlers: the
// current tick and the partition key the root-table inference resolved
// (see RootTableName).
type SugarContext struct {
	Tick         int64
	PartitionKey string
}

// DirectiveHandler expands an `@name(args)` directive into a core node.
type DirectiveHandler func(args []CoreArg, ctx SugarContext) (CoreExpr, error)

// ColMethodHandler expands a `$col.name(args)` column-method shorthand
// (col is the already-synthesized `pl.col("name")` core node).
type ColMethodHandler func(col CoreExpr, args []CoreArg, ctx SugarContext) (CoreExpr, error)

// Registry is the interface Transform consults for sugar expansion; it is
// implemented concretely by internal/sugar, kept here as an interface to
// avoid lang depending on sugar.
type Registry interface {
	Directive(name string) (DirectiveHandler, bool)
	ColMethod(name string) (ColMethodHandler, bool)
}

// RootTableName scans e's method-chain spine for the leftmost non-"pl"
// identifier, per §4.2's root-table inference. Returns ok=false if the
// spine's root is "pl" itself or not an identifier at all.
func RootTableName(e Expr) (string, bool) {
	cur := e
	for {
		switch n := cur.(type) {
		case *CallExpr:
			cur = n.Callee
		case *AttrExpr:
			cur = n.Base
		default:
			if id, ok := cur.(*IdentExpr); ok && id.Name != "pl" {
				return id.Name, true
			}
			return "", false
		}
	}
}

// Transform desugars a surface tree into a core tree. It never returns an
// error: unresolved sugar and malformed conditional chains become
// CoreInvalid nodes, surfaced only if the evaluator actually reaches them.
func Transform(e Expr, reg Registry, ctx SugarContext) CoreExpr {
	switch n := e.(type) {
	case *IdentExpr:
		return &CoreIdent{Name: n.Name}
	case *LitExpr:
		return &CoreLit{Value: n.Value}
	case *ListExpr:
		items := make([]CoreExpr, len(n.Items))
		for i, it := range n.Items {
			items[i] = Transform(it, reg, ctx)
		}
		return &CoreList{Items: items}
	case *ColShorthandExpr:
		return syntheticColCall(n.Name)
	case *UnaryExpr:
		return &CoreUnary{Op: n.Op, X: Transform(n.X, reg, ctx)}
	case *BinExpr:
		return &CoreBin{Op: n.Op, L: Transform(n.L, reg, ctx), R: Transform(n.R, reg, ctx)}
	case *DirectiveExpr:
		handler, ok := reg.Directive(n.Name)
		if !ok {
			return &CoreInvalid{Message: fmt.Sprintf("Unknown directive: @%s", n.Name)}
		}
		result, err := handler(transformArgs(n.Args, reg, ctx), ctx)
		if err != nil {
			return &CoreInvalid{Message: err.Error()}
		}
		return result
	case *AttrExpr:
		if cs, ok := n.Base.(*ColShorthandExpr); ok {
			if handler, ok2 := reg.ColMethod(n.Name); ok2 {
				result, err := handler(syntheticColCall(cs.Name), nil, ctx)
				if err != nil {
					return &CoreInvalid{Message: err.Error()}
				}
				return result
			}
			return &CoreAttr{Base: syntheticColCall(cs.Name), Name: n.Name}
		}
		return &CoreAttr{Base: Transform(n.Base, reg, ctx), Name: n.Name}
	case *CallExpr:
		return transformCall(n, reg, ctx)
	default:
		return &CoreInvalid{Message: fmt.Sprintf("unsupported surface node %T", e)}
	}
}

func transformArgs(args []Arg, reg Registry, ctx SugarContext) []CoreArg {
	out := make([]CoreArg, len(args))
	for i, a := range args {
		out[i] = CoreArg{Name: a.Name, Value: Transform(a.Value, reg, ctx)}
	}
	return out
}

func syntheticColCall(name string) CoreExpr {
	return &CoreCall{
		Callee: &CoreAttr{Base: &CoreIdent{Name: "pl"}, Name: "col"},
		Args:   []CoreArg{{Value: &CoreLit{Value: StringLiteral(name)}}},
	}
}

func transformCall(n *CallExpr, reg Registry, ctx SugarContext) CoreExpr {
	if attr, ok := n.Callee.(*AttrExpr); ok {
		if attr.Name == "otherwise" {
			if branches, isChain, ferr := recognizeConditionalBase(attr.Base); isChain {
				if ferr != nil {
					return &CoreInvalid{Message: ferr.Error()}
				}
				if len(n.Args) != 1 {
					return &CoreInvalid{Message: "otherwise() requires an argument"}
				}
				coreBranches := make([]CoreCondBranch, len(branches))
				for i, b := range branches {
					coreBranches[i] = CoreCondBranch{
						Cond:  Transform(b.Cond, reg, ctx),
						Value: Transform(b.Then, reg, ctx),
					}
				}
				return &CoreCond{Branches: coreBranches, Otherwise: Transform(n.Args[0].Value, reg, ctx)}
			}
		}
		if cs, ok := attr.Base.(*ColShorthandExpr); ok {
			if handler, ok2 := reg.ColMethod(attr.Name); ok2 {
				result, err := handler(syntheticColCall(cs.Name), transformArgs(n.Args, reg, ctx), ctx)
				if err != nil {
					return &CoreInvalid{Message: err.Error()}
				}
				return result
			}
			return &CoreCall{
				Callee: &CoreAttr{Base: syntheticColCall(cs.Name), Name: attr.Name},
				Args:   transformArgs(n.Args, reg, ctx),
			}
		}
	}
	return &CoreCall{Callee: Transform(n.Callee, reg, ctx), Args: transformArgs(n.Args, reg, ctx)}
}

type condBranchSurface struct {
	Cond, Then Expr
}

// recognizeConditionalBase walks back from the expression preceding
// `.otherwise(...)` through alternating `.then(v)`/`.when(c)` calls until
// the receiver is the bare identifier `pl`. isChain is true only once the
// walk actually bottoms out at `pl`; err reports a malformed when/then
// arity encountered along a walk that did bottom out there.
func recognizeConditionalBase(base Expr) (branches []condBranchSurface, isChain bool, err error) {
	type rawBranch struct {
		thenOK, whenOK   bool
		cond, then       Expr
	}
	var rev []rawBranch
	cur := base
	for {
		thenCall, ok := cur.(*CallExpr)
		if !ok {
			return nil, false, nil
		}
		thenAttr, ok := thenCall.Callee.(*AttrExpr)
		if !ok || thenAttr.Name != "then" {
			return nil, false, nil
		}
		whenCall, ok := thenAttr.Base.(*CallExpr)
		if !ok {
			return nil, false, nil
		}
		whenAttr, ok := whenCall.Callee.(*AttrExpr)
		if !ok || whenAttr.Name != "when" {
			return nil, false, nil
		}
		rb := rawBranch{thenOK: len(thenCall.Args) == 1, whenOK: len(whenCall.Args) == 1}
		if rb.thenOK {
			rb.then = thenCall.Args[0].Value
		}
		if rb.whenOK {
			rb.cond = whenCall.Args[0].Value
		}
		rev = append(rev, rb)

		next := whenAttr.Base
		if id, ok := next.(*IdentExpr); ok && id.Name == "pl" {
			for _, rb := range rev {
				if !rb.thenOK {
					return nil, true, fmt.Errorf("then() requires an argument")
				}
				if !rb.whenOK {
					return nil, true, fmt.Errorf("when() requires an argument")
				}
			}
			branches = make([]condBranchSurface, len(rev))
			for i, rb := range rev {
				branches[len(rev)-1-i] = condBranchSurface{Cond: rb.cond, Then: rb.then}
			}
			return branches, true, nil
		}
		cur = next
	}
}
