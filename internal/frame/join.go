package frame

import "fmt"

// JoinHow enumerates the join strategies required by §6.
type JoinHow string

const (
	JoinInner JoinHow = "inner"
	JoinLeft  JoinHow = "left"
	JoinRight JoinHow = "right"
	JoinOuter JoinHow = "outer"
	JoinFull  JoinHow = "full"
	JoinCross JoinHow = "cross"
)

// Join combines lf with other on the given column pairs (leftOn[i] matches
// rightOn[i]). Right-side join-key columns are dropped from the result when
// their names collide with a left-side join key; other colliding column
// names are suffixed "_right".
func (lf *LazyFrame) Join(other *LazyFrame, leftOn, rightOn []string, how JoinHow) *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		rdf, err := other.Collect()
		if err != nil {
			return nil, err
		}
		if how == JoinCross {
			return crossJoin(df, rdf)
		}
		if len(leftOn) != len(rightOn) || len(leftOn) == 0 {
			return nil, fmt.Errorf("join: leftOn/rightOn must be non-empty and equal length")
		}
		return hashJoin(df, rdf, leftOn, rightOn, how)
	})
}

func crossJoin(l, r *DataFrame) (*DataFrame, error) {
	var leftIdx, rightIdx []int
	for i := 0; i < l.NumRows(); i++ {
		for j := 0; j < r.NumRows(); j++ {
			leftIdx = append(leftIdx, i)
			rightIdx = append(rightIdx, j)
		}
	}
	return assembleJoinResult(l, r, leftIdx, rightIdx, nil)
}

func hashJoin(l, r *DataFrame, leftOn, rightOn []string, how JoinHow) (*DataFrame, error) {
	leftKeys := make([]*Series, len(leftOn))
	for i, c := range leftOn {
		s, err := l.MustColumn(c)
		if err != nil {
			return nil, err
		}
		leftKeys[i] = s
	}
	rightKeys := make([]*Series, len(rightOn))
	for i, c := range rightOn {
		s, err := r.MustColumn(c)
		if err != nil {
			return nil, err
		}
		rightKeys[i] = s
	}

	rowKey := func(keys []*Series, row int) string {
		k := ""
		for _, s := range keys {
			k += s.Values[row].Kind.String() + ":" + s.Values[row].AsString() + "\x1f"
		}
		return k
	}

	rightBuckets := map[string][]int{}
	for j := 0; j < r.NumRows(); j++ {
		k := rowKey(rightKeys, j)
		rightBuckets[k] = append(rightBuckets[k], j)
	}

	var leftIdx, rightIdx []int
	matchedRight := map[int]bool{}
	for i := 0; i < l.NumRows(); i++ {
		k := rowKey(leftKeys, i)
		matches := rightBuckets[k]
		if len(matches) == 0 {
			if how == JoinLeft || how == JoinOuter || how == JoinFull {
				leftIdx = append(leftIdx, i)
				rightIdx = append(rightIdx, -1)
			}
			continue
		}
		for _, j := range matches {
			leftIdx = append(leftIdx, i)
			rightIdx = append(rightIdx, j)
			matchedRight[j] = true
		}
	}
	if how == JoinRight || how == JoinOuter || how == JoinFull {
		for j := 0; j < r.NumRows(); j++ {
			if !matchedRight[j] {
				leftIdx = append(leftIdx, -1)
				rightIdx = append(rightIdx, j)
			}
		}
	}
	dropRightCols := map[string]bool{}
	for i, rc := range rightOn {
		if rc == leftOn[i] {
			dropRightCols[rc] = true
		}
	}
	return assembleJoinResult(l, r, leftIdx, rightIdx, dropRightCols)
}

// assembleJoinResult builds the joined frame from parallel left/right row
// index arrays, where -1 means "no matching row, fill nulls".
func assembleJoinResult(l, r *DataFrame, leftIdx, rightIdx []int, dropRightCols map[string]bool) (*DataFrame, error) {
	n := len(leftIdx)
	var cols []*Series
	leftNames := map[string]bool{}
	for _, c := range l.Columns() {
		leftNames[c.Name] = true
		vals := make([]Value, n)
		for i, li := range leftIdx {
			if li < 0 {
				vals[i] = Null
			} else {
				vals[i] = c.Values[li]
			}
		}
		cols = append(cols, &Series{Name: c.Name, Values: vals})
	}
	for _, c := range r.Columns() {
		if dropRightCols[c.Name] {
			continue
		}
		name := c.Name
		if leftNames[name] {
			name = name + "_right"
		}
		vals := make([]Value, n)
		for i, ri := range rightIdx {
			if ri < 0 {
				vals[i] = Null
			} else {
				vals[i] = c.Values[ri]
			}
		}
		cols = append(cols, &Series{Name: name, Values: vals})
	}
	return NewDataFrame(cols)
}
