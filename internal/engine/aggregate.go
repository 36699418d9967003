package engine

import (
	"math"
	"slices"
)

// aggregate reduces s to a single-row series named after s.
func aggregate(s *Series, e *AggExpr, rows []int) (*Series, error) {
	switch e.Kind {
	case AggMin, AggMax:
		return minMax(s, e.Kind == AggMax, e.PropagateNaNs)
	case AggMedian:
		return quantileAgg(s, 0.5)
	case AggNUnique:
		return NewUInt64(s.name, []uint64{uint64(countUnique(s))}, nil), nil
	case AggFirst:
		if s.Len() == 0 {
			return mustFromValues(s.name, s.dtype, []AnyValue{NullValue(s.dtype)}), nil
		}
		return s.Slice(0, 1), nil
	case AggLast:
		if s.Len() == 0 {
			return mustFromValues(s.name, s.dtype, []AnyValue{NullValue(s.dtype)}), nil
		}
		return s.Slice(-1, 1), nil
	case AggMean:
		return meanAgg(s)
	case AggImplode:
		return FromValues(s.name, List(s.dtype), []AnyValue{ListValue(s.Rechunk())})
	case AggCount:
		n := s.Len()
		if !e.IncludeNulls {
			n -= s.NullCount()
		}
		return NewUInt64(s.name, []uint64{uint64(n)}, nil), nil
	case AggSum:
		return sumAgg(s)
	case AggGroups:
		if rows == nil {
			rows = make([]int, s.Len())
			for i := range rows {
				rows[i] = i
			}
		}
		idx := make([]uint64, len(rows))
		for i, r := range rows {
			idx[i] = uint64(r)
		}
		return FromValues(s.name, List(UInt64), []AnyValue{ListValue(NewUInt64("", idx, nil))})
	case AggStd, AggVar:
		return varianceAgg(s, int(e.Ddof), e.Kind == AggStd)
	}
	return nil, errorf(ErrInvalidOperation, "aggregation %s is not supported", e.Kind)
}

func minMax(s *Series, isMax, propagateNaNs bool) (*Series, error) {
	if s.dtype.Kind == KindList {
		return nil, errorf(ErrInvalidOperation, "`min`/`max` operation not supported for dtype `%s`", s.dtype)
	}
	var best AnyValue
	found, sawNaN := false, false
	for _, v := range s.Values() {
		if v.IsNull() {
			continue
		}
		if s.dtype.IsFloat() && math.IsNaN(v.Float) {
			sawNaN = true
			continue
		}
		if !found {
			best, found = v, true
			continue
		}
		c := compareValues(v, best)
		if (isMax && c > 0) || (!isMax && c < 0) {
			best = v
		}
	}
	if sawNaN && (propagateNaNs || !found) {
		return newFloat(s.name, s.dtype, []float64{math.NaN()}, nil), nil
	}
	if !found {
		best = NullValue(s.dtype)
	}
	return FromValues(s.name, s.dtype, []AnyValue{best})
}

func countUnique(s *Series) int {
	seen := make(map[string]struct{}, s.Len())
	var buf []byte
	for _, v := range s.Values() {
		buf = appendKey(buf[:0], v)
		seen[string(buf)] = struct{}{}
	}
	return len(seen)
}

// floatResultType is the dtype of mean, median, std and var.
func floatResultType(dt DataType) DataType {
	if dt.Kind == KindFloat32 {
		return Float32
	}
	return Float64
}

func validFloats(s *Series) []float64 {
	vals, valid := s.f64s()
	out := vals[:0:0]
	for i, v := range vals {
		if valid[i] {
			out = append(out, v)
		}
	}
	return out
}

func requireNumeric(s *Series, op string) error {
	if s.dtype.IsNumeric() || s.dtype.Kind == KindBoolean || s.dtype.Kind == KindNull || s.dtype.Kind == KindDatetime {
		return nil
	}
	return errorf(ErrInvalidOperation, "`%s` operation not supported for dtype `%s`", op, s.dtype)
}

func meanAgg(s *Series) (*Series, error) {
	if err := requireNumeric(s, "mean"); err != nil {
		return nil, err
	}
	vals := validFloats(s)
	if len(vals) == 0 {
		return newFloat(s.name, floatResultType(s.dtype), []float64{0}, []bool{false}), nil
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return newFloat(s.name, floatResultType(s.dtype), []float64{sum / float64(len(vals))}, nil), nil
}

func quantileAgg(s *Series, q float64) (*Series, error) {
	if err := requireNumeric(s, "median"); err != nil {
		return nil, err
	}
	vals := validFloats(s)
	v, ok := quantileLinear(vals, q)
	return newFloat(s.name, floatResultType(s.dtype), []float64{v}, []bool{ok}), nil
}

// quantileLinear sorts vals in place and interpolates linearly.
func quantileLinear(vals []float64, q float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	slices.SortFunc(vals, cmpFloat)
	pos := q * float64(len(vals)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return vals[lo], true
	}
	return vals[lo] + (vals[hi]-vals[lo])*(pos-float64(lo)), true
}

func sumAgg(s *Series) (*Series, error) {
	switch s.dtype.Kind {
	case KindInt64:
		v, valid := s.i64s()
		var total int64
		for i, x := range v {
			if valid[i] {
				total += x
			}
		}
		return NewInt64(s.name, []int64{total}, nil), nil
	case KindUInt64, KindBoolean:
		v, valid := s.u64s()
		var total uint64
		for i, x := range v {
			if valid[i] {
				total += x
			}
		}
		return NewUInt64(s.name, []uint64{total}, nil), nil
	case KindFloat32, KindFloat64:
		total, _ := s.Sum()
		return newFloat(s.name, s.dtype, []float64{total}, nil), nil
	case KindNull:
		return NewInt64(s.name, []int64{0}, nil), nil
	}
	return nil, errorf(ErrInvalidOperation, "`sum` operation not supported for dtype `%s`", s.dtype)
}

func variance(vals []float64, ddof int) (float64, bool) {
	n := len(vals)
	if n-ddof <= 0 {
		return 0, false
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(n)
	ss := 0.0
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	return ss / float64(n-ddof), true
}

func varianceAgg(s *Series, ddof int, std bool) (*Series, error) {
	if err := requireNumeric(s, "var"); err != nil {
		return nil, err
	}
	v, ok := variance(validFloats(s), ddof)
	if std {
		v = math.Sqrt(v)
	}
	return newFloat(s.name, floatResultType(s.dtype), []float64{v}, []bool{ok}), nil
}
