package engine

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Typed constructors. valid may be nil when every slot is set.

func NewInt64(name string, v []int64, valid []bool) *Series {
	b := array.NewInt64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(v, valid)
	return newSeries(name, Int64, []arrow.Array{b.NewArray()})
}

func NewUInt64(name string, v []uint64, valid []bool) *Series {
	b := array.NewUint64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(v, valid)
	return newSeries(name, UInt64, []arrow.Array{b.NewArray()})
}

func NewFloat32(name string, v []float32, valid []bool) *Series {
	b := array.NewFloat32Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(v, valid)
	return newSeries(name, Float32, []arrow.Array{b.NewArray()})
}

func NewFloat64(name string, v []float64, valid []bool) *Series {
	b := array.NewFloat64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(v, valid)
	return newSeries(name, Float64, []arrow.Array{b.NewArray()})
}

func NewBool(name string, v []bool, valid []bool) *Series {
	b := array.NewBooleanBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(v, valid)
	return newSeries(name, Boolean, []arrow.Array{b.NewArray()})
}

func NewString(name string, v []string, valid []bool) *Series {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues(v, valid)
	return newSeries(name, String, []arrow.Array{b.NewArray()})
}

func NewDatetime(name string, unit TimeUnit, v []int64, valid []bool) *Series {
	dt := Datetime(unit)
	b := array.NewTimestampBuilder(memory.DefaultAllocator, dt.ToArrow().(*arrow.TimestampType))
	defer b.Release()
	ts := make([]arrow.Timestamp, len(v))
	for i, x := range v {
		ts[i] = arrow.Timestamp(x)
	}
	b.AppendValues(ts, valid)
	return newSeries(name, dt, []arrow.Array{b.NewArray()})
}

func NewNull(name string, n int) *Series {
	return newSeries(name, Null, []arrow.Array{array.NewNull(n)})
}

// newFloat builds a float column of dtype dt (Float32 or Float64).
func newFloat(name string, dt DataType, v []float64, valid []bool) *Series {
	if dt.Kind == KindFloat32 {
		f := make([]float32, len(v))
		for i, x := range v {
			f[i] = float32(x)
		}
		return NewFloat32(name, f, valid)
	}
	return NewFloat64(name, v, valid)
}

// newInt builds an integer-backed column of dtype dt.
func newInt(name string, dt DataType, v []int64, valid []bool) *Series {
	switch dt.Kind {
	case KindDatetime:
		return NewDatetime(name, dt.Unit, v, valid)
	case KindUInt64:
		u := make([]uint64, len(v))
		for i, x := range v {
			u[i] = uint64(x)
		}
		return NewUInt64(name, u, valid)
	}
	return NewInt64(name, v, valid)
}

// FromValues builds a column of dtype dt from scalars, casting each one.
func FromValues(name string, dt DataType, vals []AnyValue) (*Series, error) {
	b := array.NewBuilder(memory.DefaultAllocator, dt.ToArrow())
	defer b.Release()
	b.Reserve(len(vals))
	for _, v := range vals {
		cv, ok := castValue(v, dt)
		if !ok {
			return nil, errorf(ErrSchemaMismatch, "cannot build %s column %q from value %s of type %s", dt, name, v, v.Type)
		}
		appendValue(b, cv)
	}
	return newSeries(name, dt, []arrow.Array{b.NewArray()}), nil
}

func mustFromValues(name string, dt DataType, vals []AnyValue) *Series {
	s, err := FromValues(name, dt, vals)
	if err != nil {
		panic(err)
	}
	return s
}

// inferType returns the common dtype of vals.
func inferType(vals []AnyValue) (DataType, bool) {
	dt := Null
	for _, v := range vals {
		if v.Type.Kind == KindNull {
			continue
		}
		st, ok := supertype(dt, v.Type)
		if !ok {
			return DataType{}, false
		}
		dt = st
	}
	return dt, true
}

func appendValue(b array.Builder, v AnyValue) {
	if v.IsNull() {
		b.AppendNull()
		return
	}
	switch b := b.(type) {
	case *array.BooleanBuilder:
		b.Append(v.Bool)
	case *array.Int64Builder:
		b.Append(v.Int)
	case *array.Uint64Builder:
		b.Append(v.Uint)
	case *array.Float32Builder:
		b.Append(float32(v.Float))
	case *array.Float64Builder:
		b.Append(v.Float)
	case *array.StringBuilder:
		b.Append(v.Str)
	case *array.TimestampBuilder:
		b.Append(arrow.Timestamp(v.Int))
	case *array.ListBuilder:
		b.Append(true)
		vb := b.ValueBuilder()
		for i := 0; i < v.List.Len(); i++ {
			appendValue(vb, v.List.value(i))
		}
	default:
		b.AppendNull()
	}
}

// Typed extractors. They copy; valid is never nil.

func (s *Series) validity() []bool {
	valid := make([]bool, 0, s.length)
	for _, c := range s.chunks {
		for i := 0; i < c.Len(); i++ {
			valid = append(valid, c.IsValid(i))
		}
	}
	return valid
}

func (s *Series) f64s() ([]float64, []bool) {
	out := make([]float64, 0, s.length)
	for _, c := range s.chunks {
		switch a := c.(type) {
		case *array.Float64:
			out = append(out, a.Float64Values()...)
		case *array.Float32:
			for _, v := range a.Float32Values() {
				out = append(out, float64(v))
			}
		case *array.Int64:
			for _, v := range a.Int64Values() {
				out = append(out, float64(v))
			}
		case *array.Uint64:
			for _, v := range a.Uint64Values() {
				out = append(out, float64(v))
			}
		case *array.Timestamp:
			for _, v := range a.TimestampValues() {
				out = append(out, float64(v))
			}
		case *array.Boolean:
			for i := 0; i < a.Len(); i++ {
				if a.Value(i) {
					out = append(out, 1)
				} else {
					out = append(out, 0)
				}
			}
		default:
			for i := 0; i < c.Len(); i++ {
				out = append(out, math.NaN())
			}
		}
	}
	return out, s.validity()
}

func (s *Series) i64s() ([]int64, []bool) {
	out := make([]int64, 0, s.length)
	for _, c := range s.chunks {
		switch a := c.(type) {
		case *array.Int64:
			out = append(out, a.Int64Values()...)
		case *array.Uint64:
			for _, v := range a.Uint64Values() {
				out = append(out, int64(v))
			}
		case *array.Timestamp:
			for _, v := range a.TimestampValues() {
				out = append(out, int64(v))
			}
		case *array.Float64:
			for _, v := range a.Float64Values() {
				out = append(out, int64(v))
			}
		case *array.Float32:
			for _, v := range a.Float32Values() {
				out = append(out, int64(v))
			}
		case *array.Boolean:
			for i := 0; i < a.Len(); i++ {
				if a.Value(i) {
					out = append(out, 1)
				} else {
					out = append(out, 0)
				}
			}
		default:
			out = append(out, make([]int64, c.Len())...)
		}
	}
	return out, s.validity()
}

func (s *Series) u64s() ([]uint64, []bool) {
	out := make([]uint64, 0, s.length)
	for _, c := range s.chunks {
		if a, ok := c.(*array.Uint64); ok {
			out = append(out, a.Uint64Values()...)
			continue
		}
		for i := 0; i < c.Len(); i++ {
			v, _ := valueAt(c, i, s.dtype).AsInt()
			out = append(out, uint64(v))
		}
	}
	return out, s.validity()
}

func (s *Series) bools() ([]bool, []bool) {
	out := make([]bool, 0, s.length)
	for _, c := range s.chunks {
		a, ok := c.(*array.Boolean)
		for i := 0; i < c.Len(); i++ {
			out = append(out, ok && a.Value(i))
		}
	}
	return out, s.validity()
}

func (s *Series) strs() ([]string, []bool) {
	out := make([]string, 0, s.length)
	for _, c := range s.chunks {
		a, ok := c.(*array.String)
		for i := 0; i < c.Len(); i++ {
			if ok {
				out = append(out, a.Value(i))
			} else {
				out = append(out, valueAt(c, i, s.dtype).String())
			}
		}
	}
	return out, s.validity()
}

func allValid(valid []bool) bool {
	for _, v := range valid {
		if !v {
			return false
		}
	}
	return true
}
