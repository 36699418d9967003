package engine

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// IsSorted is the sortedness hint carried by a Series.
type IsSorted uint8

const (
	SortedNot IsSorted = iota
	SortedAscending
	SortedDescending
)

// Series is a named, chunked column. Chunks are immutable arrow arrays
// and may be shared between Series.
type Series struct {
	name   string
	dtype  DataType
	chunks []arrow.Array
	length int
	sorted IsSorted
}

// NewSeries wraps one arrow array, normalising its type. The array is retained.
func NewSeries(name string, arr arrow.Array) (*Series, error) {
	return NewSeriesFromChunks(name, []arrow.Array{arr})
}

// NewSeriesFromChunks wraps arrow chunks of one type. The chunks are retained.
func NewSeriesFromChunks(name string, chunks []arrow.Array) (*Series, error) {
	if len(chunks) == 0 {
		return nil, errorf(ErrNoData, "series %q needs at least one chunk", name)
	}
	dt, ok := FromArrow(chunks[0].DataType())
	if !ok {
		var err error
		if dt, ok = normalizedType(chunks[0].DataType()); !ok {
			return nil, errorf(ErrInvalidOperation, "arrow type %s of column %q is not supported", chunks[0].DataType(), name)
		}
		normalised := make([]arrow.Array, len(chunks))
		for i, c := range chunks {
			if normalised[i], err = compute.CastArray(context.Background(), c, compute.UnsafeCastOptions(dt.ToArrow())); err != nil {
				return nil, wrapErr(ErrCompute, err, "normalise column %q", name)
			}
		}
		return newSeries(name, dt, normalised), nil
	}
	for _, c := range chunks[1:] {
		if !arrow.TypeEqual(c.DataType(), chunks[0].DataType()) {
			return nil, errorf(ErrSchemaMismatch, "chunks of column %q have types %s and %s", name, chunks[0].DataType(), c.DataType())
		}
	}
	for _, c := range chunks {
		c.Retain()
	}
	return newSeries(name, dt, chunks), nil
}

// newSeries takes ownership of chunks.
func newSeries(name string, dt DataType, chunks []arrow.Array) *Series {
	s := &Series{name: name, dtype: dt, chunks: chunks}
	for _, c := range chunks {
		s.length += c.Len()
	}
	return s
}

func (s *Series) Name() string          { return s.name }
func (s *Series) DType() DataType       { return s.dtype }
func (s *Series) Len() int              { return s.length }
func (s *Series) Chunks() []arrow.Array { return s.chunks }
func (s *Series) NumChunks() int        { return len(s.chunks) }
func (s *Series) Sorted() IsSorted      { return s.sorted }

func (s *Series) NullCount() int {
	n := 0
	for _, c := range s.chunks {
		n += c.NullN()
	}
	return n
}

// Clone returns a Series sharing s's chunks.
func (s *Series) Clone() *Series {
	for _, c := range s.chunks {
		c.Retain()
	}
	out := newSeries(s.name, s.dtype, append([]arrow.Array(nil), s.chunks...))
	out.sorted = s.sorted
	return out
}

// Rename returns a shallow clone named name.
func (s *Series) Rename(name string) *Series {
	out := s.Clone()
	out.name = name
	return out
}

// WithSorted returns a shallow clone with the sortedness flag set.
func (s *Series) WithSorted(flag IsSorted) *Series {
	out := s.Clone()
	out.sorted = flag
	return out
}

// Release drops s's references to its chunks.
func (s *Series) Release() {
	for _, c := range s.chunks {
		c.Release()
	}
	s.chunks = nil
	s.length = 0
}

// Get returns the value at i.
func (s *Series) Get(i int) (AnyValue, error) {
	if i < 0 || i >= s.length {
		return AnyValue{}, errorf(ErrOutOfBounds, "index %d is out of bounds for series of length %d", i, s.length)
	}
	return s.value(i), nil
}

func (s *Series) value(i int) AnyValue {
	for _, c := range s.chunks {
		if i < c.Len() {
			return valueAt(c, i, s.dtype)
		}
		i -= c.Len()
	}
	return NullValue(s.dtype)
}

// Values materialises every value of s.
func (s *Series) Values() []AnyValue {
	out := make([]AnyValue, 0, s.length)
	for _, c := range s.chunks {
		for i := 0; i < c.Len(); i++ {
			out = append(out, valueAt(c, i, s.dtype))
		}
	}
	return out
}

// Array returns s as one contiguous array. The result is owned by the caller
// only when s has more than one chunk; callers never release it.
func (s *Series) Array() arrow.Array {
	switch len(s.chunks) {
	case 0:
		return emptyArray(s.dtype)
	case 1:
		return s.chunks[0]
	}
	arr, err := array.Concatenate(s.chunks, memory.DefaultAllocator)
	if err != nil {
		panic(fmt.Errorf("concatenate chunks of %q: %w", s.name, err))
	}
	return arr
}

// Rechunk returns s with a single chunk.
func (s *Series) Rechunk() *Series {
	if len(s.chunks) == 1 {
		return s.Clone()
	}
	out := newSeries(s.name, s.dtype, []arrow.Array{s.Array()})
	out.sorted = s.sorted
	return out
}

// Slice follows polars semantics: negative offsets count from the end and
// the window is clamped to the series.
func (s *Series) Slice(offset int64, length int) *Series {
	start, end := sliceBounds(offset, length, s.length)
	var chunks []arrow.Array
	pos := 0
	for _, c := range s.chunks {
		cs, ce := pos, pos+c.Len()
		pos = ce
		lo, hi := max(start, cs), min(end, ce)
		if lo >= hi {
			continue
		}
		chunks = append(chunks, array.NewSlice(c, int64(lo-cs), int64(hi-cs)))
	}
	if len(chunks) == 0 {
		chunks = []arrow.Array{emptyArray(s.dtype)}
	}
	out := newSeries(s.name, s.dtype, chunks)
	out.sorted = s.sorted
	return out
}

func sliceBounds(offset int64, length, n int) (int, int) {
	if offset < 0 {
		offset += int64(n)
		if offset < 0 {
			offset = 0
		}
	}
	start := int(min(offset, int64(n)))
	end := start + length
	if length < 0 || end > n {
		end = n
	}
	return start, end
}

// Take gathers rows by index; a negative index yields null.
func (s *Series) Take(idx []int) *Series {
	if s.dtype.Kind == KindNull {
		return newSeries(s.name, s.dtype, []arrow.Array{array.NewNull(len(idx))})
	}
	b := array.NewInt64Builder(memory.DefaultAllocator)
	defer b.Release()
	b.Reserve(len(idx))
	for _, i := range idx {
		if i < 0 {
			b.AppendNull()
			continue
		}
		b.Append(int64(i))
	}
	indices := b.NewArray()
	defer indices.Release()
	out, err := compute.TakeArray(context.Background(), s.Array(), indices)
	if err != nil {
		return s.takeValues(idx)
	}
	return newSeries(s.name, s.dtype, []arrow.Array{out})
}

func (s *Series) takeValues(idx []int) *Series {
	vals := make([]AnyValue, len(idx))
	for j, i := range idx {
		if i < 0 {
			vals[j] = NullValue(s.dtype)
			continue
		}
		vals[j] = s.value(i)
	}
	return mustFromValues(s.name, s.dtype, vals)
}

// Filter keeps rows where mask is true. Null mask slots drop the row.
func (s *Series) Filter(mask *Series) (*Series, error) {
	if mask.dtype.Kind != KindBoolean {
		return nil, errorf(ErrInvalidOperation, "filter predicate must be of type bool, got %s", mask.dtype)
	}
	if mask.length != s.length {
		return nil, errorf(ErrShapeMismatch, "filter's length %d differs from that of the series %d", mask.length, s.length)
	}
	if s.dtype.Kind == KindNull {
		bits, valid := mask.bools()
		n := 0
		for i := range bits {
			if bits[i] && valid[i] {
				n++
			}
		}
		return newSeries(s.name, s.dtype, []arrow.Array{array.NewNull(n)}), nil
	}
	out, err := compute.FilterArray(context.Background(), s.Array(), mask.Array(), *compute.DefaultFilterOptions())
	if err != nil {
		return nil, wrapErr(ErrCompute, err, "filter column %q", s.name)
	}
	return newSeries(s.name, s.dtype, []arrow.Array{out}), nil
}

// Append concatenates other after s; dtypes must match.
func (s *Series) Append(other *Series) (*Series, error) {
	if !s.dtype.Equal(other.dtype) {
		return nil, errorf(ErrSchemaMismatch, "cannot append series of type %s to %s", other.dtype, s.dtype)
	}
	chunks := make([]arrow.Array, 0, len(s.chunks)+len(other.chunks))
	for _, c := range append(append([]arrow.Array(nil), s.chunks...), other.chunks...) {
		c.Retain()
		chunks = append(chunks, c)
	}
	return newSeries(s.name, s.dtype, chunks), nil
}

// Equal reports null-aware equality of values and dtype.
func (s *Series) Equal(other *Series) bool {
	if s.length != other.length || !s.dtype.Equal(other.dtype) || s.NullCount() != other.NullCount() {
		return false
	}
	if s.length == 0 {
		return true
	}
	return array.Equal(s.Array(), other.Array())
}

// Sum returns the sum of the non-null values, ignoring non-numeric columns.
func (s *Series) Sum() (float64, bool) {
	if !s.dtype.IsNumeric() && s.dtype.Kind != KindBoolean {
		return 0, false
	}
	vals, valid := s.f64s()
	total := 0.0
	for i, v := range vals {
		if valid[i] {
			total += v
		}
	}
	return total, true
}

func (s *Series) String() string {
	return fmt.Sprintf("shape: (%d,)\nSeries: '%s' [%s]\n%s", s.length, s.name, s.dtype, formatSeriesValues(s))
}

func formatSeriesValues(s *Series) string {
	out := "[\n"
	for i := 0; i < s.length; i++ {
		if s.length > 10 && i == 5 {
			out += "\t…\n"
			i = s.length - 5
		}
		out += "\t" + s.value(i).String() + "\n"
	}
	return out + "]"
}

func emptyArray(dt DataType) arrow.Array {
	b := array.NewBuilder(memory.DefaultAllocator, dt.ToArrow())
	defer b.Release()
	return b.NewArray()
}

// valueAt reads slot i of arr.
func valueAt(arr arrow.Array, i int, dt DataType) AnyValue {
	if arr.IsNull(i) {
		return NullValue(dt)
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return BoolValue(a.Value(i))
	case *array.Int64:
		return IntValue(a.Value(i))
	case *array.Uint64:
		return UintValue(a.Value(i))
	case *array.Float32:
		return Float32Value(a.Value(i))
	case *array.Float64:
		return FloatValue(a.Value(i))
	case *array.String:
		return StringValue(a.Value(i))
	case *array.Timestamp:
		return DatetimeValue(int64(a.Value(i)), dt.Unit)
	case *array.List:
		start, end := a.ValueOffsets(i)
		inner := array.NewSlice(a.ListValues(), start, end)
		return AnyValue{Type: dt, List: newSeries("", *dt.Inner, []arrow.Array{inner})}
	}
	return NullValue(dt)
}
