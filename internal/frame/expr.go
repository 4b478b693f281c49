package frame

// Expr is a columnar expression: a node in the small AST the evaluator
// (internal/eval) builds while lowering PiQL method chains onto this
// backend. Expr trees are evaluated by Eval (elementwise, producing a
// Series) or, inside a group_by().agg(...) context, by EvalAgg (reducing a
// single group's frame to one scalar).
type Expr interface {
	exprNode()
	// OutputName is the column name this expression produces absent an
	// explicit .alias(...).
	OutputName() string
}

type ColExpr struct{ Name string }

func Col(name string) *ColExpr { return &ColExpr{Name: name} }

func (*ColExpr) exprNode()          {}
func (e *ColExpr) OutputName() string { return e.Name }

// ColsExpr is a multi-column selector. Only Select expands it into all of
// its columns; everywhere else Eval resolves it to its first name alone.
type ColsExpr struct{ Names []string }

func Cols(names ...string) *ColsExpr { return &ColsExpr{Names: names} }

func (*ColsExpr) exprNode()          {}
func (e *ColsExpr) OutputName() string {
	if len(e.Names) > 0 {
		return e.Names[0]
	}
	return ""
}

type LitExpr struct{ Value Value }

func Lit(v Value) *LitExpr { return &LitExpr{Value: v} }

func (*LitExpr) exprNode()            {}
func (e *LitExpr) OutputName() string { return "literal" }

type LenExpr struct{}

func Len() *LenExpr { return &LenExpr{} }

func (*LenExpr) exprNode()          {}
func (*LenExpr) OutputName() string { return "len" }

type BinOpExpr struct {
	Op   string // + - * / % == != < <= > >= & |
	L, R Expr
}

func BinOp(op string, l, r Expr) *BinOpExpr { return &BinOpExpr{Op: op, L: l, R: r} }

func (*BinOpExpr) exprNode()            {}
func (e *BinOpExpr) OutputName() string { return e.L.OutputName() }

type UnaryOpExpr struct {
	Op string // neg, not
	X  Expr
}

func UnaryOp(op string, x Expr) *UnaryOpExpr { return &UnaryOpExpr{Op: op, X: x} }

func (*UnaryOpExpr) exprNode()            {}
func (e *UnaryOpExpr) OutputName() string { return e.X.OutputName() }

type AliasExpr struct {
	X    Expr
	Name string
}

func Alias(x Expr, name string) *AliasExpr { return &AliasExpr{X: x, Name: name} }

func (*AliasExpr) exprNode()            {}
func (e *AliasExpr) OutputName() string { return e.Name }

type OverExpr struct {
	X         Expr
	Partition []string
}

func Over(x Expr, partition []string) *OverExpr { return &OverExpr{X: x, Partition: partition} }

func (*OverExpr) exprNode()            {}
func (e *OverExpr) OutputName() string { return e.X.OutputName() }

type IsBetweenExpr struct{ X, Lo, Hi Expr }

func IsBetween(x, lo, hi Expr) *IsBetweenExpr { return &IsBetweenExpr{X: x, Lo: lo, Hi: hi} }

func (*IsBetweenExpr) exprNode()            {}
func (e *IsBetweenExpr) OutputName() string { return e.X.OutputName() }

type DiffExpr struct{ X Expr }

func Diff(x Expr) *DiffExpr { return &DiffExpr{X: x} }

func (*DiffExpr) exprNode()            {}
func (e *DiffExpr) OutputName() string { return e.X.OutputName() }

type ShiftExpr struct {
	X Expr
	N int
}

func Shift(x Expr, n int) *ShiftExpr { return &ShiftExpr{X: x, N: n} }

func (*ShiftExpr) exprNode()            {}
func (e *ShiftExpr) OutputName() string { return e.X.OutputName() }

// AggFn enumerates the reducing/ranking functions available both as plain
// expression methods (broadcast across the frame) and inside agg(...).
type AggFn string

const (
	AggSum     AggFn = "sum"
	AggMean    AggFn = "mean"
	AggMin     AggFn = "min"
	AggMax     AggFn = "max"
	AggCount   AggFn = "count"
	AggFirst   AggFn = "first"
	AggLast    AggFn = "last"
	AggNUnique AggFn = "n_unique"
	AggCumSum  AggFn = "cum_sum"
	AggCumMax  AggFn = "cum_max"
	AggCumMin  AggFn = "cum_min"
	AggRank    AggFn = "rank"
)

// elementwiseAggFns are ranking/cumulative functions evaluated row-by-row;
// the rest reduce a column to a single scalar.
var elementwiseAggFns = map[AggFn]bool{
	AggCumSum: true, AggCumMax: true, AggCumMin: true, AggRank: true,
}

type AggExpr struct {
	X  Expr
	Fn AggFn
}

func Agg(x Expr, fn AggFn) *AggExpr { return &AggExpr{X: x, Fn: fn} }

func (*AggExpr) exprNode() {}
func (e *AggExpr) OutputName() string {
	return e.X.OutputName()
}

type CastExpr struct {
	X     Expr
	Dtype Kind
}

func Cast(x Expr, k Kind) *CastExpr { return &CastExpr{X: x, Dtype: k} }

func (*CastExpr) exprNode()            {}
func (e *CastExpr) OutputName() string { return e.X.OutputName() }

type FillNullExpr struct{ X, Val Expr }

func FillNull(x, val Expr) *FillNullExpr { return &FillNullExpr{X: x, Val: val} }

func (*FillNullExpr) exprNode()            {}
func (e *FillNullExpr) OutputName() string { return e.X.OutputName() }

type IsNullExpr struct{ X Expr }

func IsNullOf(x Expr) *IsNullExpr { return &IsNullExpr{X: x} }

func (*IsNullExpr) exprNode()            {}
func (e *IsNullExpr) OutputName() string { return e.X.OutputName() }

type IsNotNullExpr struct{ X Expr }

func IsNotNullOf(x Expr) *IsNotNullExpr { return &IsNotNullExpr{X: x} }

func (*IsNotNullExpr) exprNode()            {}
func (e *IsNotNullExpr) OutputName() string { return e.X.OutputName() }

type UniqueExpr struct{ X Expr }

func Unique(x Expr) *UniqueExpr { return &UniqueExpr{X: x} }

func (*UniqueExpr) exprNode()            {}
func (e *UniqueExpr) OutputName() string { return e.X.OutputName() }

type AbsExpr struct{ X Expr }

func Abs(x Expr) *AbsExpr { return &AbsExpr{X: x} }

func (*AbsExpr) exprNode()            {}
func (e *AbsExpr) OutputName() string { return e.X.OutputName() }

type RoundExpr struct {
	X        Expr
	Decimals int
}

func Round(x Expr, decimals int) *RoundExpr { return &RoundExpr{X: x, Decimals: decimals} }

func (*RoundExpr) exprNode()            {}
func (e *RoundExpr) OutputName() string { return e.X.OutputName() }

type ClipExpr struct{ X, Lo, Hi Expr }

func Clip(x, lo, hi Expr) *ClipExpr { return &ClipExpr{X: x, Lo: lo, Hi: hi} }

func (*ClipExpr) exprNode()            {}
func (e *ClipExpr) OutputName() string { return e.X.OutputName() }

type ReverseExpr struct{ X Expr }

func Reverse(x Expr) *ReverseExpr { return &ReverseExpr{X: x} }

func (*ReverseExpr) exprNode()            {}
func (e *ReverseExpr) OutputName() string { return e.X.OutputName() }

// StrMethodExpr covers the str.* namespace: starts_with, ends_with,
// to_lowercase, to_uppercase, len_chars, contains, replace, slice.
type StrMethodExpr struct {
	X      Expr
	Method string
	Args   []Expr
}

func StrMethod(x Expr, method string, args ...Expr) *StrMethodExpr {
	return &StrMethodExpr{X: x, Method: method, Args: args}
}

func (*StrMethodExpr) exprNode()            {}
func (e *StrMethodExpr) OutputName() string { return e.X.OutputName() }

// DtMethodExpr covers the dt.* namespace: year, month, day, hour, minute,
// second. Operates on unix-epoch-seconds-encoded int64/float64 columns.
type DtMethodExpr struct {
	X      Expr
	Method string
}

func DtMethod(x Expr, method string) *DtMethodExpr { return &DtMethodExpr{X: x, Method: method} }

func (*DtMethodExpr) exprNode()            {}
func (e *DtMethodExpr) OutputName() string { return e.X.OutputName() }

type CondBranch struct{ Cond, Then Expr }

type WhenThenExpr struct {
	Branches  []CondBranch
	Otherwise Expr
}

func WhenThen(branches []CondBranch, otherwise Expr) *WhenThenExpr {
	return &WhenThenExpr{Branches: branches, Otherwise: otherwise}
}

func (*WhenThenExpr) exprNode()            {}
func (e *WhenThenExpr) OutputName() string { return "literal" }
