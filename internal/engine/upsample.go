package engine

import (
	"slices"
)

// Upsample fills gaps in a time series. For each group of the by columns the
// rows are sorted by timeColumn, a range is generated from the first
// timestamp (shifted by offset) to the last one stepping by every, and the
// group's rows are left-joined onto it. Missing rows get nulls except for the
// group keys. With stable the groups keep first-appearance order and run
// sequentially; otherwise they run on the worker pool and come out ordered
// by key.
func (df *DataFrame) Upsample(by []string, timeColumn string, every, offset Duration, stable bool) (*DataFrame, error) {
	tcol, err := df.ColumnByName(timeColumn)
	if err != nil {
		return nil, err
	}
	if tcol.dtype.Kind != KindDatetime {
		return nil, errorf(ErrInvalidOperation, "upsample: time column %q must be of a datetime type, got %s", timeColumn, tcol.dtype)
	}
	if tcol.NullCount() > 0 {
		return nil, errorf(ErrInvalidOperation, "upsample: time column %q contains nulls", timeColumn)
	}
	if every.IsZero() || every.Negative {
		return nil, errorf(ErrInvalidOperation, "upsample: `every` must be positive, got %s", every)
	}
	keys := make([]*Series, len(by))
	for i, name := range by {
		if keys[i], err = df.ColumnByName(name); err != nil {
			return nil, err
		}
	}

	parts := [][]int{allRows(df.Height())}
	if len(keys) > 0 {
		parts = groups(keys, df.Height())
		if !stable {
			// deterministic key order for the parallel path
			firsts := make([]int, len(parts))
			for g, rows := range parts {
				firsts[g] = rows[0]
			}
			order := ArgSort(takeAll(keys, firsts), SortMultipleOptions{MaintainOrder: true})
			sorted := make([][]int, len(parts))
			for i, g := range order {
				sorted[i] = parts[g]
			}
			parts = sorted
		}
	}

	unit := tcol.dtype.Unit
	ts, _ := tcol.i64s()
	results := make([]*DataFrame, len(parts))
	upsampleGroup := func(g int) error {
		rows := slices.Clone(parts[g])
		slices.SortStableFunc(rows, func(a, b int) int { return cmpOrdered(ts[a], ts[b]) })
		out, err := df.upsampleGroup(rows, ts, unit, timeColumn, by, every, offset)
		results[g] = out
		return err
	}
	limit := 0
	if stable {
		limit = 1
	}
	if err := parallelFor(len(parts), limit, upsampleGroup); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return df.Slice(0, 0), nil
	}
	return vstack(results)
}

func (df *DataFrame) upsampleGroup(rows []int, ts []int64, unit TimeUnit, timeColumn string, by []string, every, offset Duration) (*DataFrame, error) {
	if len(rows) == 0 {
		return df.Slice(0, 0), nil
	}
	first, last := ts[rows[0]], ts[rows[len(rows)-1]]
	byTime := make(map[int64][]int, len(rows))
	for _, r := range rows {
		byTime[ts[r]] = append(byTime[ts[r]], r)
	}

	var take []int
	var stamps []int64
	for t := offset.addTo(first, unit); t <= last; {
		if matches, ok := byTime[t]; ok {
			take = append(take, matches...)
			for range matches {
				stamps = append(stamps, t)
			}
		} else {
			take = append(take, -1)
			stamps = append(stamps, t)
		}
		next := every.addTo(t, unit)
		if next <= t {
			return nil, errorf(ErrInvalidOperation, "upsample: `every` %s does not advance the time range", every)
		}
		t = next
	}

	out, err := df.Take(take)
	if err != nil {
		return nil, err
	}
	timeIdx := out.columnIndex(timeColumn)
	out.columns[timeIdx] = NewDatetime(timeColumn, unit, stamps, nil)
	for _, name := range by {
		i := out.columnIndex(name)
		idx := make([]int, len(take))
		for j := range idx {
			idx[j] = rows[0]
		}
		src, _ := df.ColumnByName(name)
		out.columns[i] = src.Take(idx)
	}
	return out, nil
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func takeAll(cols []*Series, idx []int) []*Series {
	out := make([]*Series, len(cols))
	for i, c := range cols {
		out[i] = c.Take(idx)
	}
	return out
}

// vstack appends frames with identical schemas.
func vstack(frames []*DataFrame) (*DataFrame, error) {
	out := frames[0].Clone()
	for _, f := range frames[1:] {
		if f.Width() != out.Width() {
			return nil, errorf(ErrShapeMismatch, "cannot vstack frames of width %d and %d", out.Width(), f.Width())
		}
		for i, c := range out.columns {
			next, err := c.Append(f.columns[i])
			if err != nil {
				return nil, err
			}
			out.columns[i] = next
		}
	}
	return out, nil
}
