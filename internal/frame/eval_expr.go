package frame

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Eval evaluates e elementwise against df, returning a Series of length
// df.NumRows(), except unique(), which returns only the distinct values
// in first-seen order. Reducing aggregate functions (sum, mean, ...) broadcast
// their single scalar result across every row; see EvalAgg for their use
// inside group_by().agg(...).
func Eval(e Expr, df *DataFrame) (*Series, error) {
	switch n := e.(type) {
	case *ColExpr:
		s, err := df.MustColumn(n.Name)
		if err != nil {
			return nil, err
		}
		return s, nil
	case *ColsExpr:
		if len(n.Names) == 0 {
			return nil, fmt.Errorf("cols() requires at least one name")
		}
		return Eval(Col(n.Names[0]), df)
	case *LitExpr:
		vals := make([]Value, df.NumRows())
		for i := range vals {
			vals[i] = n.Value
		}
		return &Series{Name: "literal", Values: vals}, nil
	case *LenExpr:
		vals := make([]Value, df.NumRows())
		for i := range vals {
			vals[i] = Int(int64(df.NumRows()))
		}
		return &Series{Name: "len", Values: vals}, nil
	case *BinOpExpr:
		return evalBinOp(n, df)
	case *UnaryOpExpr:
		return evalUnaryOp(n, df)
	case *AliasExpr:
		s, err := Eval(n.X, df)
		if err != nil {
			return nil, err
		}
		return s.Rename(n.Name), nil
	case *OverExpr:
		return evalOver(n, df)
	case *IsBetweenExpr:
		return evalIsBetween(n, df)
	case *DiffExpr:
		return evalDiff(n, df)
	case *ShiftExpr:
		return evalShift(n, df)
	case *AggExpr:
		return evalAggExprBroadcast(n, df)
	case *CastExpr:
		return evalCast(n, df)
	case *FillNullExpr:
		return evalFillNull(n, df)
	case *IsNullExpr:
		s, err := Eval(n.X, df)
		if err != nil {
			return nil, err
		}
		out := make([]Value, s.Len())
		for i, v := range s.Values {
			out[i] = Bool(v.IsNull())
		}
		return &Series{Name: n.OutputName(), Values: out}, nil
	case *IsNotNullExpr:
		s, err := Eval(n.X, df)
		if err != nil {
			return nil, err
		}
		out := make([]Value, s.Len())
		for i, v := range s.Values {
			out[i] = Bool(!v.IsNull())
		}
		return &Series{Name: n.OutputName(), Values: out}, nil
	case *UniqueExpr:
		s, err := Eval(n.X, df)
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		var out []Value
		for _, v := range s.Values {
			key := v.Kind.String() + ":" + v.AsString()
			if !seen[key] {
				seen[key] = true
				out = append(out, v)
			}
		}
		return &Series{Name: n.OutputName(), Values: out}, nil
	case *AbsExpr:
		s, err := Eval(n.X, df)
		if err != nil {
			return nil, err
		}
		out := make([]Value, s.Len())
		for i, v := range s.Values {
			if v.IsNull() {
				out[i] = Null
				continue
			}
			f, ok := v.AsFloat()
			if !ok {
				return nil, fmt.Errorf("abs() requires numeric column, got %s", v.Kind)
			}
			if v.Kind == KindInt64 {
				out[i] = Int(int64(math.Abs(f)))
			} else {
				out[i] = Float(math.Abs(f))
			}
		}
		return &Series{Name: n.OutputName(), Values: out}, nil
	case *RoundExpr:
		s, err := Eval(n.X, df)
		if err != nil {
			return nil, err
		}
		mul := math.Pow(10, float64(n.Decimals))
		out := make([]Value, s.Len())
		for i, v := range s.Values {
			if v.IsNull() {
				out[i] = Null
				continue
			}
			f, ok := v.AsFloat()
			if !ok {
				return nil, fmt.Errorf("round() requires numeric column, got %s", v.Kind)
			}
			out[i] = Float(math.Round(f*mul) / mul)
		}
		return &Series{Name: n.OutputName(), Values: out}, nil
	case *ClipExpr:
		return evalClip(n, df)
	case *ReverseExpr:
		s, err := Eval(n.X, df)
		if err != nil {
			return nil, err
		}
		out := make([]Value, s.Len())
		for i, v := range s.Values {
			out[len(out)-1-i] = v
		}
		return &Series{Name: n.OutputName(), Values: out}, nil
	case *StrMethodExpr:
		return evalStrMethod(n, df)
	case *DtMethodExpr:
		return evalDtMethod(n, df)
	case *WhenThenExpr:
		return evalWhenThen(n, df)
	default:
		return nil, fmt.Errorf("unsupported expression node %T", e)
	}
}

func evalBinOp(n *BinOpExpr, df *DataFrame) (*Series, error) {
	l, err := Eval(n.L, df)
	if err != nil {
		return nil, err
	}
	r, err := Eval(n.R, df)
	if err != nil {
		return nil, err
	}
	if l.Len() != r.Len() {
		return nil, fmt.Errorf("binary op %q: operand length mismatch (%d vs %d)", n.Op, l.Len(), r.Len())
	}
	out := make([]Value, l.Len())
	for i := range out {
		lv, rv := l.Values[i], r.Values[i]
		switch n.Op {
		case "+", "-", "*", "/", "%":
			v, err := arith(n.Op, lv, rv)
			if err != nil {
				return nil, err
			}
			out[i] = v
		case "==":
			out[i] = Bool(lv.Equal(rv))
		case "!=":
			out[i] = Bool(!lv.Equal(rv))
		case "<", "<=", ">", ">=":
			if lv.IsNull() || rv.IsNull() {
				out[i] = Null
				continue
			}
			cmp, err := lv.Compare(rv)
			if err != nil {
				return nil, err
			}
			switch n.Op {
			case "<":
				out[i] = Bool(cmp < 0)
			case "<=":
				out[i] = Bool(cmp <= 0)
			case ">":
				out[i] = Bool(cmp > 0)
			case ">=":
				out[i] = Bool(cmp >= 0)
			}
		case "&":
			out[i] = Bool(lv.AsBool() && rv.AsBool())
		case "|":
			out[i] = Bool(lv.AsBool() || rv.AsBool())
		default:
			return nil, fmt.Errorf("unknown binary operator %q", n.Op)
		}
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

func evalUnaryOp(n *UnaryOpExpr, df *DataFrame) (*Series, error) {
	s, err := Eval(n.X, df)
	if err != nil {
		return nil, err
	}
	out := make([]Value, s.Len())
	for i, v := range s.Values {
		if v.IsNull() {
			out[i] = Null
			continue
		}
		switch n.Op {
		case "neg":
			f, ok := v.AsFloat()
			if !ok {
				return nil, fmt.Errorf("unary neg requires numeric operand, got %s", v.Kind)
			}
			if v.Kind == KindInt64 {
				out[i] = Int(-v.I)
			} else {
				out[i] = Float(-f)
			}
		case "not":
			out[i] = Bool(!v.AsBool())
		default:
			return nil, fmt.Errorf("unknown unary operator %q", n.Op)
		}
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

// groupIndices partitions row indices [0,n) by the tuple of values in cols.
// Returns groups in first-seen order.
func groupIndices(df *DataFrame, cols []string) ([][]int, error) {
	colSeries := make([]*Series, len(cols))
	for i, c := range cols {
		s, err := df.MustColumn(c)
		if err != nil {
			return nil, err
		}
		colSeries[i] = s
	}
	order := []string{}
	groups := map[string][]int{}
	for row := 0; row < df.NumRows(); row++ {
		var key strings.Builder
		for _, s := range colSeries {
			key.WriteString(s.Values[row].Kind.String())
			key.WriteByte(':')
			key.WriteString(s.Values[row].AsString())
			key.WriteByte('\x1f')
		}
		k := key.String()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], row)
	}
	out := make([][]int, len(order))
	for i, k := range order {
		out[i] = groups[k]
	}
	return out, nil
}

func evalOver(n *OverExpr, df *DataFrame) (*Series, error) {
	groups, err := groupIndices(df, n.Partition)
	if err != nil {
		return nil, err
	}
	out := make([]Value, df.NumRows())
	for _, idx := range groups {
		sub := df.SelectRows(idx)
		s, err := Eval(n.X, sub)
		if err != nil {
			return nil, err
		}
		if s.Len() != len(idx) {
			return nil, fmt.Errorf("over(): inner expression changed row count")
		}
		for i, row := range idx {
			out[row] = s.Values[i]
		}
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

func evalIsBetween(n *IsBetweenExpr, df *DataFrame) (*Series, error) {
	x, err := Eval(n.X, df)
	if err != nil {
		return nil, err
	}
	lo, err := Eval(n.Lo, df)
	if err != nil {
		return nil, err
	}
	hi, err := Eval(n.Hi, df)
	if err != nil {
		return nil, err
	}
	out := make([]Value, x.Len())
	for i, v := range x.Values {
		if v.IsNull() || lo.Values[i].IsNull() || hi.Values[i].IsNull() {
			out[i] = Null
			continue
		}
		cl, err := v.Compare(lo.Values[i])
		if err != nil {
			return nil, err
		}
		ch, err := v.Compare(hi.Values[i])
		if err != nil {
			return nil, err
		}
		out[i] = Bool(cl >= 0 && ch <= 0)
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

func evalDiff(n *DiffExpr, df *DataFrame) (*Series, error) {
	s, err := Eval(n.X, df)
	if err != nil {
		return nil, err
	}
	out := make([]Value, s.Len())
	for i := range out {
		if i == 0 {
			out[i] = Null
			continue
		}
		cur, prev := s.Values[i], s.Values[i-1]
		if cur.IsNull() || prev.IsNull() {
			out[i] = Null
			continue
		}
		v, err := arith("-", cur, prev)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

func evalShift(n *ShiftExpr, df *DataFrame) (*Series, error) {
	s, err := Eval(n.X, df)
	if err != nil {
		return nil, err
	}
	out := make([]Value, s.Len())
	for i := range out {
		src := i - n.N
		if src < 0 || src >= len(s.Values) {
			out[i] = Null
			continue
		}
		out[i] = s.Values[src]
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

// EvalAgg reduces e over a single group's frame to one scalar, for use
// inside group_by().agg(...).
func EvalAgg(e Expr, df *DataFrame) (Value, string, error) {
	ae, ok := e.(*AggExpr)
	if !ok {
		if al, ok := e.(*AliasExpr); ok {
			v, _, err := EvalAgg(al.X, df)
			return v, al.Name, err
		}
		return Value{}, "", fmt.Errorf("agg() expects a reducing expression, got %T", e)
	}
	v, err := reduce(ae.Fn, ae.X, df)
	return v, ae.OutputName(), err
}

func reduce(fn AggFn, x Expr, df *DataFrame) (Value, error) {
	s, err := Eval(x, df)
	if err != nil {
		return Value{}, err
	}
	switch fn {
	case AggCount:
		return Int(int64(s.NonNullCount())), nil
	case AggFirst:
		if s.Len() == 0 {
			return Null, nil
		}
		return s.Values[0], nil
	case AggLast:
		if s.Len() == 0 {
			return Null, nil
		}
		return s.Values[s.Len()-1], nil
	case AggNUnique:
		seen := map[string]bool{}
		for _, v := range s.Values {
			if v.IsNull() {
				continue
			}
			seen[v.Kind.String()+":"+v.AsString()] = true
		}
		return Int(int64(len(seen))), nil
	case AggSum, AggMean, AggMin, AggMax:
		return reduceNumeric(fn, s)
	default:
		return Value{}, fmt.Errorf("%q is not a reducing function (use it directly, not inside agg())", fn)
	}
}

func reduceNumeric(fn AggFn, s *Series) (Value, error) {
	var sum float64
	var n int
	var min, max float64
	first := true
	allInt := true
	for _, v := range s.Values {
		if v.IsNull() {
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			return Value{}, fmt.Errorf("%s() requires a numeric column, got %s", fn, v.Kind)
		}
		if v.Kind != KindInt64 {
			allInt = false
		}
		sum += f
		n++
		if first || f < min {
			min = f
		}
		if first || f > max {
			max = f
		}
		first = false
	}
	if n == 0 {
		return Null, nil
	}
	switch fn {
	case AggSum:
		if allInt {
			return Int(int64(sum)), nil
		}
		return Float(sum), nil
	case AggMean:
		return Float(sum / float64(n)), nil
	case AggMin:
		if allInt {
			return Int(int64(min)), nil
		}
		return Float(min), nil
	case AggMax:
		if allInt {
			return Int(int64(max)), nil
		}
		return Float(max), nil
	}
	return Value{}, fmt.Errorf("unreachable reduceNumeric fn %q", fn)
}

// evalAggExprBroadcast handles an AggExpr used outside of agg(), broadcasting
// the reduced scalar (or computing the elementwise variant for cum_*/rank).
func evalAggExprBroadcast(n *AggExpr, df *DataFrame) (*Series, error) {
	if elementwiseAggFns[n.Fn] {
		return evalElementwiseAgg(n, df)
	}
	v, err := reduce(n.Fn, n.X, df)
	if err != nil {
		return nil, err
	}
	out := make([]Value, df.NumRows())
	for i := range out {
		out[i] = v
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

func evalElementwiseAgg(n *AggExpr, df *DataFrame) (*Series, error) {
	s, err := Eval(n.X, df)
	if err != nil {
		return nil, err
	}
	out := make([]Value, s.Len())
	switch n.Fn {
	case AggCumSum, AggCumMax, AggCumMin:
		var acc float64
		haveAcc := false
		for i, v := range s.Values {
			if v.IsNull() {
				out[i] = Null
				continue
			}
			f, ok := v.AsFloat()
			if !ok {
				return nil, fmt.Errorf("%s() requires a numeric column, got %s", n.Fn, v.Kind)
			}
			switch {
			case !haveAcc:
				acc = f
			case n.Fn == AggCumSum:
				acc += f
			case n.Fn == AggCumMax:
				if f > acc {
					acc = f
				}
			case n.Fn == AggCumMin:
				if f < acc {
					acc = f
				}
			}
			haveAcc = true
			if v.Kind == KindInt64 {
				out[i] = Int(int64(acc))
			} else {
				out[i] = Float(acc)
			}
		}
	case AggRank:
		type idxVal struct {
			idx int
			v   Value
		}
		pairs := make([]idxVal, s.Len())
		for i, v := range s.Values {
			pairs[i] = idxVal{i, v}
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			if pairs[i].v.IsNull() {
				return false
			}
			if pairs[j].v.IsNull() {
				return true
			}
			cmp, _ := pairs[i].v.Compare(pairs[j].v)
			return cmp < 0
		})
		rank := 1
		for _, p := range pairs {
			if p.v.IsNull() {
				out[p.idx] = Null
				continue
			}
			out[p.idx] = Int(int64(rank))
			rank++
		}
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

func evalCast(n *CastExpr, df *DataFrame) (*Series, error) {
	s, err := Eval(n.X, df)
	if err != nil {
		return nil, err
	}
	out := make([]Value, s.Len())
	for i, v := range s.Values {
		cv, err := castTo(v, n.Dtype)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

func evalFillNull(n *FillNullExpr, df *DataFrame) (*Series, error) {
	s, err := Eval(n.X, df)
	if err != nil {
		return nil, err
	}
	fill, err := Eval(n.Val, df)
	if err != nil {
		return nil, err
	}
	out := make([]Value, s.Len())
	for i, v := range s.Values {
		if v.IsNull() {
			out[i] = fill.Values[i]
		} else {
			out[i] = v
		}
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

func evalClip(n *ClipExpr, df *DataFrame) (*Series, error) {
	x, err := Eval(n.X, df)
	if err != nil {
		return nil, err
	}
	lo, err := Eval(n.Lo, df)
	if err != nil {
		return nil, err
	}
	hi, err := Eval(n.Hi, df)
	if err != nil {
		return nil, err
	}
	out := make([]Value, x.Len())
	for i, v := range x.Values {
		if v.IsNull() {
			out[i] = Null
			continue
		}
		cl, err := v.Compare(lo.Values[i])
		if err != nil {
			return nil, err
		}
		if cl < 0 {
			out[i] = lo.Values[i]
			continue
		}
		ch, err := v.Compare(hi.Values[i])
		if err != nil {
			return nil, err
		}
		if ch > 0 {
			out[i] = hi.Values[i]
			continue
		}
		out[i] = v
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

func evalStrMethod(n *StrMethodExpr, df *DataFrame) (*Series, error) {
	s, err := Eval(n.X, df)
	if err != nil {
		return nil, err
	}
	argSeries := make([]*Series, len(n.Args))
	for i, a := range n.Args {
		argSeries[i], err = Eval(a, df)
		if err != nil {
			return nil, err
		}
	}
	out := make([]Value, s.Len())
	for i, v := range s.Values {
		if v.IsNull() {
			out[i] = Null
			continue
		}
		str := v.AsString()
		switch n.Method {
		case "starts_with":
			out[i] = Bool(strings.HasPrefix(str, argSeries[0].Values[i].AsString()))
		case "ends_with":
			out[i] = Bool(strings.HasSuffix(str, argSeries[0].Values[i].AsString()))
		case "to_lowercase":
			out[i] = Str(strings.ToLower(str))
		case "to_uppercase":
			out[i] = Str(strings.ToUpper(str))
		case "len_chars":
			out[i] = Int(int64(len([]rune(str))))
		case "contains":
			out[i] = Bool(strings.Contains(str, argSeries[0].Values[i].AsString()))
		case "replace":
			out[i] = Str(strings.ReplaceAll(str, argSeries[0].Values[i].AsString(), argSeries[1].Values[i].AsString()))
		case "slice":
			runes := []rune(str)
			offset := int(argSeries[0].Values[i].I)
			length := len(runes) - offset
			if len(argSeries) > 1 {
				length = int(argSeries[1].Values[i].I)
			}
			if offset < 0 {
				offset = 0
			}
			if offset > len(runes) {
				offset = len(runes)
			}
			end := offset + length
			if end > len(runes) {
				end = len(runes)
			}
			if end < offset {
				end = offset
			}
			out[i] = Str(string(runes[offset:end]))
		default:
			return nil, fmt.Errorf("unknown str method %q", n.Method)
		}
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

func evalDtMethod(n *DtMethodExpr, df *DataFrame) (*Series, error) {
	s, err := Eval(n.X, df)
	if err != nil {
		return nil, err
	}
	out := make([]Value, s.Len())
	for i, v := range s.Values {
		if v.IsNull() {
			out[i] = Null
			continue
		}
		epoch, ok := v.AsFloat()
		if !ok {
			return nil, fmt.Errorf("dt.%s() requires a numeric (unix epoch seconds) column, got %s", n.Method, v.Kind)
		}
		t := epochToTime(int64(epoch))
		switch n.Method {
		case "year":
			out[i] = Int(int64(t.Year()))
		case "month":
			out[i] = Int(int64(t.Month()))
		case "day":
			out[i] = Int(int64(t.Day()))
		case "hour":
			out[i] = Int(int64(t.Hour()))
		case "minute":
			out[i] = Int(int64(t.Minute()))
		case "second":
			out[i] = Int(int64(t.Second()))
		default:
			return nil, fmt.Errorf("unknown dt method %q", n.Method)
		}
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}

func evalWhenThen(n *WhenThenExpr, df *DataFrame) (*Series, error) {
	condSeries := make([]*Series, len(n.Branches))
	thenSeries := make([]*Series, len(n.Branches))
	for i, b := range n.Branches {
		cs, err := Eval(b.Cond, df)
		if err != nil {
			return nil, err
		}
		ts, err := Eval(b.Then, df)
		if err != nil {
			return nil, err
		}
		condSeries[i] = cs
		thenSeries[i] = ts
	}
	elseSeries, err := Eval(n.Otherwise, df)
	if err != nil {
		return nil, err
	}
	out := make([]Value, df.NumRows())
	for row := 0; row < df.NumRows(); row++ {
		out[row] = elseSeries.Values[row]
		for i := range n.Branches {
			if condSeries[i].Values[row].AsBool() {
				out[row] = thenSeries[i].Values[row]
				break
			}
		}
	}
	return &Series{Name: n.OutputName(), Values: out}, nil
}
