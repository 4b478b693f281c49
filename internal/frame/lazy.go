package frame

import (
	"fmt"
	"sort"
	"strings"
)

// LazyFrame is an unevaluated chain of operations rooted at a source
// DataFrame. Operations are only applied when Collect is called, matching
// §6's "lazy-plan handle" contract, with one exception: LazyGroupBy.Agg
// collects its input as soon as it is called (see resetSource). Each method returns a new LazyFrame
// sharing the unmodified prefix of ops — the structure is persistent, not
// mutated in place.
type LazyFrame struct {
	source *DataFrame
	ops    []func(*DataFrame) (*DataFrame, error)
}

// FromDataFrame wraps an already-materialized frame as the root of a lazy
// plan.
func FromDataFrame(df *DataFrame) *LazyFrame {
	return &LazyFrame{source: df}
}

func (lf *LazyFrame) push(op func(*DataFrame) (*DataFrame, error)) *LazyFrame {
	next := make([]func(*DataFrame) (*DataFrame, error), len(lf.ops)+1)
	copy(next, lf.ops)
	next[len(lf.ops)] = op
	return &LazyFrame{source: lf.source, ops: next}
}

// Collect materializes the plan into a DataFrame.
func (lf *LazyFrame) Collect() (*DataFrame, error) {
	df := lf.source
	for _, op := range lf.ops {
		var err error
		df, err = op(df)
		if err != nil {
			return nil, err
		}
	}
	return df, nil
}

// Filter keeps rows where pred evaluates truthy.
func (lf *LazyFrame) Filter(pred Expr) *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		s, err := Eval(pred, df)
		if err != nil {
			return nil, err
		}
		var idx []int
		for i, v := range s.Values {
			if v.AsBool() {
				idx = append(idx, i)
			}
		}
		return df.SelectRows(idx), nil
	})
}

// Select projects the frame down to the given expressions, evaluated
// against the incoming frame (not against each other).
func (lf *LazyFrame) Select(exprs []Expr) *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		var cols []*Series
		for _, e := range exprs {
			if ce, ok := e.(*ColsExpr); ok {
				for _, name := range ce.Names {
					s, err := df.MustColumn(name)
					if err != nil {
						return nil, err
					}
					cols = append(cols, s)
				}
				continue
			}
			s, err := Eval(e, df)
			if err != nil {
				return nil, err
			}
			cols = append(cols, s)
		}
		return NewDataFrame(cols)
	})
}

// WithColumns evaluates each expression against the incoming frame and
// adds/replaces the named column, expressions evaluated in order so later
// ones may reference earlier additions.
func (lf *LazyFrame) WithColumns(exprs []Expr) *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		cur := df
		for _, e := range exprs {
			s, err := Eval(e, cur)
			if err != nil {
				return nil, err
			}
			cur, err = cur.WithColumn(s)
			if err != nil {
				return nil, err
			}
		}
		return cur, nil
	})
}

// Limit keeps the first n rows.
func (lf *LazyFrame) Limit(n int) *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) { return df.Head(n), nil })
}

// TailN keeps the last n rows.
func (lf *LazyFrame) TailN(n int) *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) { return df.Tail(n), nil })
}

// Sort orders rows by the named columns.
func (lf *LazyFrame) Sort(cols []string, descending bool) *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		series := make([]*Series, len(cols))
		for i, c := range cols {
			s, err := df.MustColumn(c)
			if err != nil {
				return nil, err
			}
			series[i] = s
		}
		idx := make([]int, df.NumRows())
		for i := range idx {
			idx[i] = i
		}
		var sortErr error
		sort.SliceStable(idx, func(a, b int) bool {
			for _, s := range series {
				cmp, err := s.Values[idx[a]].Compare(s.Values[idx[b]])
				if err != nil {
					sortErr = err
					return false
				}
				if cmp != 0 {
					if descending {
						return cmp > 0
					}
					return cmp < 0
				}
			}
			return false
		})
		if sortErr != nil {
			return nil, sortErr
		}
		return df.SelectRows(idx), nil
	})
}

// Drop removes the named columns.
func (lf *LazyFrame) Drop(cols []string) *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) { return df.DropColumns(cols), nil })
}

// Explode splits delimited-string cells in the first named column into
// additional rows, replicating every other column's value across the
// resulting rows. Any further names in cols are ignored. PiQL's scalar literal model has no list dtype, so
// "list-like" data is represented as comma-separated strings; this is the
// one place that representation becomes observable.
func (lf *LazyFrame) Explode(cols []string) *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		if len(cols) == 0 {
			return df, nil
		}
		target, err := df.MustColumn(cols[0])
		if err != nil {
			return nil, err
		}
		var rowIdx []int
		var pieces []string
		for row, v := range target.Values {
			if v.IsNull() {
				rowIdx = append(rowIdx, row)
				pieces = append(pieces, "")
				continue
			}
			parts := strings.Split(v.AsString(), ",")
			for _, p := range parts {
				rowIdx = append(rowIdx, row)
				pieces = append(pieces, strings.TrimSpace(p))
			}
		}
		expanded := df.SelectRows(rowIdx)
		newCol := make([]Value, len(pieces))
		for i, p := range pieces {
			newCol[i] = Str(p)
		}
		return expanded.WithColumn(&Series{Name: cols[0], Values: newCol})
	})
}

// DropNulls removes rows containing any null value in any column.
func (lf *LazyFrame) DropNulls() *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		var idx []int
		for row := 0; row < df.NumRows(); row++ {
			keep := true
			for _, c := range df.Columns() {
				if c.Values[row].IsNull() {
					keep = false
					break
				}
			}
			if keep {
				idx = append(idx, row)
			}
		}
		return df.SelectRows(idx), nil
	})
}

// ReverseRows reverses row order.
func (lf *LazyFrame) ReverseRows() *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		idx := make([]int, df.NumRows())
		for i := range idx {
			idx[i] = df.NumRows() - 1 - i
		}
		return df.SelectRows(idx), nil
	})
}

// UniqueRows keeps the first row for each distinct value of subset (or of
// all columns if subset is empty).
func (lf *LazyFrame) UniqueRows(subset []string) *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		cols := subset
		if len(cols) == 0 {
			cols = df.ColumnNames()
		}
		series := make([]*Series, len(cols))
		for i, c := range cols {
			s, err := df.MustColumn(c)
			if err != nil {
				return nil, err
			}
			series[i] = s
		}
		seen := map[string]bool{}
		var idx []int
		for row := 0; row < df.NumRows(); row++ {
			var key strings.Builder
			for _, s := range series {
				key.WriteString(s.Values[row].Kind.String())
				key.WriteByte(':')
				key.WriteString(s.Values[row].AsString())
				key.WriteByte('\x1f')
			}
			k := key.String()
			if !seen[k] {
				seen[k] = true
				idx = append(idx, row)
			}
		}
		return df.SelectRows(idx), nil
	})
}

// Rename renames columns per the old->new mapping.
func (lf *LazyFrame) Rename(oldNames, newNames []string) *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		cur := df
		for i, old := range oldNames {
			var err error
			cur, err = cur.RenameColumn(old, newNames[i])
			if err != nil {
				return nil, err
			}
		}
		return cur, nil
	})
}

// LazyGroupBy is the intermediate result of GroupBy, awaiting Agg.
type LazyGroupBy struct {
	parent *LazyFrame
	cols   []string
}

// GroupBy partitions the frame by the given column names.
func (lf *LazyFrame) GroupBy(cols []string) *LazyGroupBy {
	return &LazyGroupBy{parent: lf, cols: cols}
}

// Agg reduces each group to one row using the given reducing expressions
// plus the group-by columns.
func (g *LazyGroupBy) Agg(exprs []Expr) *LazyFrame {
	return g.parent.push(func(df *DataFrame) (*DataFrame, error) {
		groups, err := groupIndices(df, g.cols)
		if err != nil {
			return nil, err
		}
		groupCols := make([]*Series, len(g.cols))
		for i, c := range g.cols {
			groupCols[i] = &Series{Name: c}
		}
		aggCols := make([]*Series, len(exprs))
		for i, e := range exprs {
			name, err := outputNameOf(e)
			if err != nil {
				return nil, err
			}
			aggCols[i] = &Series{Name: name}
		}
		for _, idx := range groups {
			sub := df.SelectRows(idx)
			for i, c := range g.cols {
				cs, err := sub.MustColumn(c)
				if err != nil {
					return nil, err
				}
				groupCols[i].Values = append(groupCols[i].Values, cs.Values[0])
			}
			for i, e := range exprs {
				v, _, err := EvalAgg(e, sub)
				if err != nil {
					return nil, err
				}
				aggCols[i].Values = append(aggCols[i].Values, v)
			}
		}
		all := append(append([]*Series{}, groupCols...), aggCols...)
		return NewDataFrame(all)
	}).resetSource()
}

// resetSource collapses the accumulated ops into a freshly-collected
// source, since group_by/agg materializes eagerly as an implementation
// simplification: the aggregate result becomes the new lazy source so
// further chaining (e.g. .sort() after .agg()) still works.
func (lf *LazyFrame) resetSource() *LazyFrame {
	df, err := lf.Collect()
	if err != nil {
		return &LazyFrame{ops: []func(*DataFrame) (*DataFrame, error){
			func(*DataFrame) (*DataFrame, error) { return nil, err },
		}}
	}
	return FromDataFrame(df)
}

func outputNameOf(e Expr) (string, error) {
	if _, ok := e.(*AggExpr); ok {
		return e.OutputName(), nil
	}
	if al, ok := e.(*AliasExpr); ok {
		return al.Name, nil
	}
	return "", fmt.Errorf("agg() arguments must be reducing expressions (optionally aliased), got %T", e)
}
