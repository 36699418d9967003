package engine

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/compute"
)

// Cast converts s to dt. A strict cast fails when a non-null value cannot be
// represented; a lenient cast turns such values into nulls.
func (s *Series) Cast(dt DataType, strict bool) (*Series, error) {
	if s.dtype.Equal(dt) {
		return s.Clone(), nil
	}
	if s.dtype.Kind == KindNull {
		return FromValues(s.name, dt, make([]AnyValue, s.length))
	}
	if s.dtype.Kind == KindList || dt.Kind == KindList || dt.Kind == KindNull {
		return s.castValues(dt, strict)
	}

	if lossyNumeric(s.dtype, dt) {
		return s.castValues(dt, strict)
	}

	opts := compute.SafeCastOptions(dt.ToArrow())
	if s.dtype.Kind != KindString {
		// numeric conversions truncate like the engine's `as` casts
		opts = compute.UnsafeCastOptions(dt.ToArrow())
	}
	chunks := make([]arrow.Array, 0, len(s.chunks))
	for _, c := range s.chunks {
		out, err := compute.CastArray(context.Background(), c, opts)
		if err != nil {
			for _, done := range chunks {
				done.Release()
			}
			return s.castValues(dt, strict)
		}
		chunks = append(chunks, out)
	}
	return newSeries(s.name, dt, chunks), nil
}

// lossyNumeric reports whether converting from to to can meet values with no
// representation (NaN, infinities, overflow, sign), which need a per-value check.
func lossyNumeric(from, to DataType) bool {
	switch {
	case from.IsFloat():
		return to.IsInteger() || to.Kind == KindDatetime
	case from.Kind == KindInt64:
		return to.Kind == KindUInt64
	case from.Kind == KindUInt64:
		return to.Kind == KindInt64 || to.Kind == KindDatetime
	}
	return false
}

// floatFitsInt64 is false for NaN, infinities and values outside int64.
func floatFitsInt64(f float64) bool {
	return !math.IsNaN(f) && f >= math.MinInt64 && f < math.MaxInt64
}

func (s *Series) castValues(dt DataType, strict bool) (*Series, error) {
	vals := s.Values()
	for i, v := range vals {
		if v.IsNull() {
			vals[i] = NullValue(dt)
			continue
		}
		cv, ok := castValue(v, dt)
		if !ok {
			if strict {
				return nil, errorf(ErrInvalidOperation, "conversion from `%s` to `%s` failed in column '%s' for value %s", s.dtype, dt, s.name, v)
			}
			cv = NullValue(dt)
		}
		vals[i] = cv
	}
	return FromValues(s.name, dt, vals)
}

// castValue converts one scalar; ok is false when v has no representation in dt.
func castValue(v AnyValue, dt DataType) (AnyValue, bool) {
	if v.IsNull() {
		return NullValue(dt), true
	}
	if v.Type.Equal(dt) {
		return v, true
	}
	switch dt.Kind {
	case KindNull:
		return NullValue(dt), true
	case KindBoolean:
		if v.Type.Kind == KindString {
			b, err := strconv.ParseBool(strings.ToLower(v.Str))
			return BoolValue(b), err == nil
		}
		f, ok := v.AsFloat()
		return BoolValue(f != 0), ok
	case KindInt64:
		if v.Type.Kind == KindString {
			i, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
			return IntValue(i), err == nil
		}
		if v.Type.IsFloat() && !floatFitsInt64(v.Float) {
			return AnyValue{}, false
		}
		if v.Type.Kind == KindUInt64 && v.Uint > math.MaxInt64 {
			return AnyValue{}, false
		}
		i, ok := v.AsInt()
		return IntValue(i), ok
	case KindUInt64:
		if v.Type.Kind == KindString {
			u, err := strconv.ParseUint(strings.TrimSpace(v.Str), 10, 64)
			return UintValue(u), err == nil
		}
		if v.Type.Kind == KindUInt64 {
			return v, true
		}
		if v.Type.IsFloat() {
			if math.IsNaN(v.Float) || v.Float <= -1 || v.Float >= math.MaxUint64 {
				return AnyValue{}, false
			}
			return UintValue(uint64(v.Float)), true
		}
		i, ok := v.AsInt()
		return UintValue(uint64(i)), ok && i >= 0
	case KindFloat32, KindFloat64:
		var f float64
		var ok bool
		if v.Type.Kind == KindString {
			var err error
			f, err = strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
			ok = err == nil
		} else {
			f, ok = v.AsFloat()
		}
		if dt.Kind == KindFloat32 {
			return Float32Value(float32(f)), ok
		}
		return FloatValue(f), ok
	case KindString:
		if v.Type.Kind == KindString {
			return v, true
		}
		s := v.String()
		return StringValue(s), true
	case KindDatetime:
		switch v.Type.Kind {
		case KindDatetime:
			return DatetimeValue(convertUnit(v.Int, v.Type.Unit, dt.Unit), dt.Unit), true
		case KindString:
			t, ok := parseDatetime(v.Str, dt.Unit)
			return DatetimeValue(t, dt.Unit), ok
		}
		if v.Type.IsFloat() && !floatFitsInt64(v.Float) {
			return AnyValue{}, false
		}
		if v.Type.Kind == KindUInt64 && v.Uint > math.MaxInt64 {
			return AnyValue{}, false
		}
		i, ok := v.AsInt()
		return DatetimeValue(i, dt.Unit), ok
	case KindList:
		if v.Type.Kind != KindList {
			inner, ok := castValue(v, *dt.Inner)
			if !ok {
				return AnyValue{}, false
			}
			s, err := FromValues("", *dt.Inner, []AnyValue{inner})
			return AnyValue{Type: dt, List: s}, err == nil
		}
		s, err := v.List.Cast(*dt.Inner, true)
		if err != nil {
			return AnyValue{}, false
		}
		return AnyValue{Type: dt, List: s}, true
	}
	return AnyValue{}, false
}

func convertUnit(v int64, from, to TimeUnit) int64 {
	f, t := from.perSecond(), to.perSecond()
	if f == t {
		return v
	}
	if f > t {
		return floorDiv(v, f/t)
	}
	return v * (t / f)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
