package frame

import "fmt"

// DataFrame is a materialized table: a set of equal-length named columns in
// declaration order.
type DataFrame struct {
	cols  []*Series
	index map[string]int
	rows  int
}

// NewDataFrame builds a DataFrame from columns, validating equal length and
// unique names.
func NewDataFrame(cols []*Series) (*DataFrame, error) {
	df := &DataFrame{cols: cols, index: make(map[string]int, len(cols))}
	rows := -1
	for i, c := range cols {
		if rows == -1 {
			rows = c.Len()
		} else if c.Len() != rows {
			return nil, fmt.Errorf("column %q has length %d, expected %d", c.Name, c.Len(), rows)
		}
		if _, dup := df.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		df.index[c.Name] = i
	}
	if rows == -1 {
		rows = 0
	}
	df.rows = rows
	return df, nil
}

// EmptyDataFrame returns a zero-column, zero-row frame.
func EmptyDataFrame() *DataFrame {
	df, _ := NewDataFrame(nil)
	return df
}

// NumRows returns the row count.
func (df *DataFrame) NumRows() int { return df.rows }

// NumCols returns the column count.
func (df *DataFrame) NumCols() int { return len(df.cols) }

// ColumnNames returns column names in declaration order.
func (df *DataFrame) ColumnNames() []string {
	names := make([]string, len(df.cols))
	for i, c := range df.cols {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (df *DataFrame) Column(name string) (*Series, bool) {
	i, ok := df.index[name]
	if !ok {
		return nil, false
	}
	return df.cols[i], true
}

// MustColumn looks up a column by name, returning an error instead of ok.
func (df *DataFrame) MustColumn(name string) (*Series, error) {
	s, ok := df.Column(name)
	if !ok {
		return nil, fmt.Errorf("no column named %q", name)
	}
	return s, nil
}

// Columns returns all columns in declaration order.
func (df *DataFrame) Columns() []*Series { return df.cols }

// WithColumn returns a new frame with the given series appended, or
// replacing an existing column of the same name in place.
func (df *DataFrame) WithColumn(s *Series) (*DataFrame, error) {
	if df.rows != 0 && s.Len() != df.rows {
		return nil, fmt.Errorf("column %q has length %d, frame has %d rows", s.Name, s.Len(), df.rows)
	}
	if i, ok := df.index[s.Name]; ok {
		next := make([]*Series, len(df.cols))
		copy(next, df.cols)
		next[i] = s
		return NewDataFrame(next)
	}
	next := make([]*Series, len(df.cols), len(df.cols)+1)
	copy(next, df.cols)
	next = append(next, s)
	return NewDataFrame(next)
}

// DropColumns returns a new frame without the named columns. Missing names
// are ignored.
func (df *DataFrame) DropColumns(names []string) *DataFrame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var next []*Series
	for _, c := range df.cols {
		if !drop[c.Name] {
			next = append(next, c)
		}
	}
	out, _ := NewDataFrame(next)
	return out
}

// SelectColumns returns a new frame containing only the named columns, in
// the order requested.
func (df *DataFrame) SelectColumns(names []string) (*DataFrame, error) {
	next := make([]*Series, 0, len(names))
	for _, n := range names {
		s, err := df.MustColumn(n)
		if err != nil {
			return nil, err
		}
		next = append(next, s)
	}
	return NewDataFrame(next)
}

// RenameColumn renames old to new in place (returns a new frame).
func (df *DataFrame) RenameColumn(oldName, newName string) (*DataFrame, error) {
	i, ok := df.index[oldName]
	if !ok {
		return nil, fmt.Errorf("no column named %q", oldName)
	}
	if oldName == newName {
		return df, nil
	}
	if _, dup := df.index[newName]; dup {
		return nil, fmt.Errorf("rename target column %q already exists", newName)
	}
	next := make([]*Series, len(df.cols))
	copy(next, df.cols)
	next[i] = df.cols[i].Rename(newName)
	return NewDataFrame(next)
}

// SelectRows returns a new frame containing only the given row indices, in
// order (indices may repeat or be out of original order).
func (df *DataFrame) SelectRows(idx []int) *DataFrame {
	next := make([]*Series, len(df.cols))
	for i, c := range df.cols {
		next[i] = c.take(idx)
	}
	out, _ := NewDataFrame(next)
	return out
}

// Concat appends other's rows after df's, requiring identical column names
// (order-insensitive) and reconciling column order to df's.
func (df *DataFrame) Concat(other *DataFrame) (*DataFrame, error) {
	if len(df.cols) == 0 {
		return other, nil
	}
	if len(other.cols) == 0 {
		return df, nil
	}
	if len(df.cols) != len(other.cols) {
		return nil, fmt.Errorf("concat: column count mismatch (%d vs %d)", len(df.cols), len(other.cols))
	}
	next := make([]*Series, len(df.cols))
	for i, c := range df.cols {
		oc, ok := other.Column(c.Name)
		if !ok {
			return nil, fmt.Errorf("concat: column %q missing from right frame", c.Name)
		}
		next[i] = c.concat(oc)
	}
	return NewDataFrame(next)
}

// Head returns the first n rows (n<0 means all).
func (df *DataFrame) Head(n int) *DataFrame {
	if n < 0 || n > df.rows {
		n = df.rows
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return df.SelectRows(idx)
}

// Tail returns the last n rows.
func (df *DataFrame) Tail(n int) *DataFrame {
	if n < 0 || n > df.rows {
		n = df.rows
	}
	start := df.rows - n
	idx := make([]int, n)
	for i := range idx {
		idx[i] = start + i
	}
	return df.SelectRows(idx)
}

// Clone deep-copies the frame.
func (df *DataFrame) Clone() *DataFrame {
	next := make([]*Series, len(df.cols))
	for i, c := range df.cols {
		next[i] = c.Clone()
	}
	out, _ := NewDataFrame(next)
	return out
}
