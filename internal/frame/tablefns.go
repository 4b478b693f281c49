package frame

import (
	"fmt"
	"math"
)

// CountNonNull replaces the frame with a single row holding each column's
// non-null count.
func (lf *LazyFrame) CountNonNull() *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		cols := make([]*Series, len(df.Columns()))
		for i, c := range df.Columns() {
			cols[i] = &Series{Name: c.Name, Values: []Value{Int(int64(c.NonNullCount()))}}
		}
		return NewDataFrame(cols)
	})
}

// HeightTable replaces the frame with a single "height" column holding the
// row count.
func (lf *LazyFrame) HeightTable() *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) {
		return NewDataFrame([]*Series{{Name: "height", Values: []Value{Int(int64(df.NumRows()))}}})
	})
}

// Top keeps the n rows with the largest values in col.
func (lf *LazyFrame) Top(n int, col string) *LazyFrame {
	return lf.Sort([]string{col}, true).Limit(n)
}

// Describe replaces the frame with summary statistics (count, null_count,
// mean, std, min, max) over its numeric columns.
func (lf *LazyFrame) Describe() *LazyFrame {
	return lf.push(func(df *DataFrame) (*DataFrame, error) { return describeFrame(df) })
}

func describeFrame(df *DataFrame) (*DataFrame, error) {
	statistic := &Series{Name: "statistic", Values: []Value{
		Str("count"), Str("null_count"), Str("mean"), Str("std"), Str("min"), Str("max"),
	}}
	cols := []*Series{statistic}
	for _, c := range df.Columns() {
		if !isNumericColumn(c) {
			continue
		}
		var count, nullCount int
		var sum float64
		min, max := math.Inf(1), math.Inf(-1)
		var nums []float64
		for _, v := range c.Values {
			if v.IsNull() {
				nullCount++
				continue
			}
			f, ok := v.AsFloat()
			if !ok {
				continue
			}
			count++
			sum += f
			nums = append(nums, f)
			if f < min {
				min = f
			}
			if f > max {
				max = f
			}
		}
		mean := 0.0
		if count > 0 {
			mean = sum / float64(count)
		}
		var variance float64
		for _, f := range nums {
			d := f - mean
			variance += d * d
		}
		std := 0.0
		if count > 1 {
			std = math.Sqrt(variance / float64(count-1))
		}
		if count == 0 {
			min, max = 0, 0
		}
		cols = append(cols, &Series{Name: c.Name, Values: []Value{
			Float(float64(count)), Float(float64(nullCount)), Float(mean), Float(std), Float(min), Float(max),
		}})
	}
	if len(cols) == 1 {
		return nil, fmt.Errorf("describe() requires at least one numeric column")
	}
	return NewDataFrame(cols)
}

func isNumericColumn(s *Series) bool {
	for _, v := range s.Values {
		if v.IsNull() {
			continue
		}
		return v.Kind == KindInt64 || v.Kind == KindFloat64
	}
	return false
}
