package engine

import (
	"math"
	"slices"
)

// rolling evaluates a sliding-window reduction of s. Index durations (or no
// By column) use fixed windows of that many slots; temporal durations need a
// Datetime By column.
func (c *evalContext) rolling(s *Series, e *RollingExpr) (*Series, error) {
	opts := e.Options
	if !s.dtype.IsNumeric() && s.dtype.Kind != KindBoolean {
		return nil, errorf(ErrInvalidOperation, "`rolling_%s` operation not supported for dtype `%s`", e.Op, s.dtype)
	}
	vals, valid := s.f64s()
	n := len(vals)

	var windows func(i int) (int, int) // half-open [lo, hi)
	if opts.By == "" || opts.WindowSize.ParsedInt {
		size := int(opts.WindowSize.Slots())
		if opts.WindowSize.Months != 0 || opts.WindowSize.Days != 0 || opts.WindowSize.Weeks != 0 {
			return nil, errorf(ErrInvalidOperation, "a temporal window_size %s needs a `by` column", opts.WindowSize)
		}
		if size <= 0 {
			return nil, errorf(ErrInvalidOperation, "window size should be strictly positive, got %d", size)
		}
		if len(opts.Weights) > 0 && len(opts.Weights) != size {
			return nil, errorf(ErrInvalidOperation, "the length of weights (%d) must equal the window size (%d)", len(opts.Weights), size)
		}
		windows = func(i int) (int, int) {
			hi := i + 1
			if opts.Center {
				hi += size / 2
			}
			return hi - size, hi
		}
	} else {
		if len(opts.Weights) > 0 {
			return nil, errorf(ErrInvalidOperation, "weights are not supported for temporal rolling windows")
		}
		by, err := c.df.ColumnByName(opts.By)
		if err != nil {
			return nil, err
		}
		if by.dtype.Kind != KindDatetime {
			return nil, errorf(ErrInvalidOperation, "`by` column %q must be of a datetime type, got %s", opts.By, by.dtype)
		}
		if by.Len() != n {
			return nil, errorf(ErrShapeMismatch, "`by` column has length %d, expected %d", by.Len(), n)
		}
		ts, _ := by.i64s()
		if !slices.IsSorted(ts) {
			return nil, errorf(ErrInvalidOperation, "`by` column %q must be sorted ascending", opts.By)
		}
		unit := by.dtype.Unit
		windows = func(i int) (int, int) {
			start := opts.WindowSize.negated().addTo(ts[i], unit)
			lo := i
			for lo > 0 && inWindow(ts[lo-1], start, ts[i], opts.Closed) {
				lo--
			}
			for lo <= i && !inWindow(ts[lo], start, ts[i], opts.Closed) {
				lo++
			}
			hi := i + 1
			if opts.Closed == ClosedLeft || opts.Closed == ClosedNone {
				for hi > lo && !inWindow(ts[hi-1], start, ts[i], opts.Closed) {
					hi--
				}
			}
			return lo, hi
		}
	}

	minPeriods := opts.MinPeriods
	if minPeriods <= 0 {
		minPeriods = 1
	}
	out := make([]float64, n)
	outValid := make([]bool, n)
	buf := make([]float64, 0, 16)
	wbuf := make([]float64, 0, 16)
	for i := 0; i < n; i++ {
		lo, hi := windows(i)
		buf, wbuf = buf[:0], wbuf[:0]
		for j := max(lo, 0); j < min(hi, n); j++ {
			if !valid[j] {
				continue
			}
			w := 1.0
			if len(opts.Weights) > 0 {
				w = opts.Weights[j-lo]
			}
			buf = append(buf, vals[j])
			wbuf = append(wbuf, w)
		}
		if len(buf) < minPeriods || len(buf) == 0 {
			continue
		}
		out[i], outValid[i] = reduceWindow(e.Op, e.Quantile, buf, wbuf, len(opts.Weights) > 0)
	}

	if e.Op == RollingSum || e.Op == RollingMin || e.Op == RollingMax {
		if s.dtype.IsInteger() && len(opts.Weights) == 0 {
			ints := make([]int64, n)
			for i, v := range out {
				ints[i] = int64(v)
			}
			return newInt(s.name, s.dtype, ints, outValid), nil
		}
		if s.dtype.Kind == KindFloat32 {
			return newFloat(s.name, Float32, out, outValid), nil
		}
	}
	return newFloat(s.name, floatResultType(s.dtype), out, outValid), nil
}

func (d Duration) negated() Duration {
	d.Negative = !d.Negative
	return d
}

// inWindow reports whether t lies in the window (start, end] per closed.
func inWindow(t, start, end int64, closed ClosedWindow) bool {
	switch closed {
	case ClosedLeft:
		return t >= start && t < end
	case ClosedBoth:
		return t >= start && t <= end
	case ClosedNone:
		return t > start && t < end
	}
	return t > start && t <= end
}

func reduceWindow(op RollingOp, q float64, vals, weights []float64, weighted bool) (float64, bool) {
	switch op {
	case RollingSum:
		sum := 0.0
		for i, v := range vals {
			sum += v * weights[i]
		}
		return sum, true
	case RollingMean:
		sum, wsum := 0.0, 0.0
		for i, v := range vals {
			sum += v * weights[i]
			wsum += weights[i]
		}
		if !weighted {
			return sum / float64(len(vals)), true
		}
		return sum / wsum, true
	}
	if weighted {
		for i := range vals {
			vals[i] *= weights[i]
		}
	}
	switch op {
	case RollingMin:
		m := math.Inf(1)
		for _, v := range vals {
			m = math.Min(m, v)
		}
		return m, true
	case RollingMax:
		m := math.Inf(-1)
		for _, v := range vals {
			m = math.Max(m, v)
		}
		return m, true
	case RollingMedian:
		return quantileLinear(vals, 0.5)
	case RollingQuantile:
		slices.SortFunc(vals, cmpFloat)
		idx := int(math.Round(q * float64(len(vals)-1)))
		return vals[idx], true
	case RollingVar:
		return variance(vals, 1)
	case RollingStd:
		v, ok := variance(vals, 1)
		return math.Sqrt(v), ok
	}
	return 0, false
}
