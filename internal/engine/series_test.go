package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

func int64Values(t *testing.T, s *Series) []int64 {
	t.Helper()
	out := make([]int64, s.Len())
	for i := range out {
		v, err := s.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if v.IsNull() {
			t.Fatalf("unexpected null at %d", i)
		}
		out[i], _ = v.AsInt()
	}
	return out
}

func equalInts(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewSeriesNormalisesArrowTypes(t *testing.T) {
	mem := memory.DefaultAllocator
	b := array.NewInt32Builder(mem)
	b.AppendValues([]int32{1, 2, 3}, nil)
	arr := b.NewArray()
	b.Release()

	s, err := NewSeries("a", arr)
	arr.Release()
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	if !s.DType().Equal(Int64) {
		t.Fatalf("expected i64, got %s", s.DType())
	}
	if got := int64Values(t, s); !equalInts(got, []int64{1, 2, 3}) {
		t.Fatalf("unexpected values %v", got)
	}

	b2 := array.NewFloat64Builder(mem)
	b2.Append(1)
	f := b2.NewArray()
	b2.Release()
	defer f.Release()
	if _, err := NewSeriesFromChunks("mixed", []arrow.Array{s.Chunks()[0], f}); err == nil {
		t.Fatal("expected an error for chunks of different types")
	}
	s.Release()
}

func TestSeriesSlice(t *testing.T) {
	s := NewInt64("a", []int64{0, 1, 2, 3, 4}, nil)
	chunked, err := s.Slice(0, 2).Append(s.Slice(2, 3))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		offset int64
		length int
		want   []int64
	}{
		{"head", 0, 2, []int64{0, 1}},
		{"middle", 1, 3, []int64{1, 2, 3}},
		{"negative offset", -2, 5, []int64{3, 4}},
		{"clamped", 3, 100, []int64{3, 4}},
		{"past end", 10, 2, []int64{}},
		{"offset before start", -10, 2, []int64{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, src := range []*Series{s, chunked} {
				got := int64Values(t, src.Slice(tt.offset, tt.length))
				if !equalInts(got, tt.want) {
					t.Fatalf("Slice(%d, %d) over %d chunks = %v, want %v", tt.offset, tt.length, src.NumChunks(), got, tt.want)
				}
			}
		})
	}
}

func TestSeriesRechunkKeepsValues(t *testing.T) {
	a := NewInt64("a", []int64{1, 2}, nil)
	b := NewInt64("a", []int64{3}, []bool{false})
	s, err := a.Append(b)
	if err != nil {
		t.Fatal(err)
	}
	if s.NumChunks() != 2 {
		t.Fatalf("expected 2 chunks, got %d", s.NumChunks())
	}
	r := s.Rechunk()
	if r.NumChunks() != 1 || r.Len() != 3 || r.NullCount() != 1 {
		t.Fatalf("unexpected rechunk result: chunks=%d len=%d nulls=%d", r.NumChunks(), r.Len(), r.NullCount())
	}
	if !r.Equal(s) {
		t.Fatal("rechunked series differs from the original")
	}
}

func TestSeriesGetOutOfBounds(t *testing.T) {
	s := NewInt64("a", []int64{1}, nil)
	_, err := s.Get(1)
	var e *Error
	if !errors.As(err, &e) || e.Kind != ErrOutOfBounds {
		t.Fatalf("expected out of bounds error, got %v", err)
	}
}

func TestSeriesCast(t *testing.T) {
	t.Run("IntToFloat", func(t *testing.T) {
		s := NewInt64("a", []int64{1, 2}, []bool{true, false})
		out, err := s.Cast(Float64, true)
		if err != nil {
			t.Fatal(err)
		}
		v, _ := out.Get(0)
		if f, _ := v.AsFloat(); f != 1 || out.NullCount() != 1 {
			t.Fatalf("unexpected cast result %s", out)
		}
	})

	t.Run("StrictStringFailure", func(t *testing.T) {
		s := NewString("a", []string{"1", "abc"}, nil)
		_, err := s.Cast(Int64, true)
		if err == nil {
			t.Fatal("expected strict cast to fail")
		}
		t.Logf("strict cast error: %v", err)
	})

	t.Run("LenientStringFailure", func(t *testing.T) {
		s := NewString("a", []string{"1", "abc"}, nil)
		out, err := s.Cast(Int64, false)
		if err != nil {
			t.Fatal(err)
		}
		if out.NullCount() != 1 {
			t.Fatalf("expected 1 null, got %d", out.NullCount())
		}
	})

	t.Run("FloatToIntStrict", func(t *testing.T) {
		for _, f := range []float64{math.NaN(), 1e30, math.Inf(-1)} {
			s := NewFloat64("f", []float64{1.5, f}, nil)
			if _, err := s.Cast(Int64, true); err == nil {
				t.Errorf("expected strict cast of %v to fail", f)
			}
		}
	})

	t.Run("FloatToIntLenient", func(t *testing.T) {
		s := NewFloat64("f", []float64{1.5, math.NaN(), 1e30, -2.7}, nil)
		out, err := s.Cast(Int64, false)
		if err != nil {
			t.Fatal(err)
		}
		if out.NullCount() != 2 {
			t.Fatalf("expected 2 nulls, got %s", out)
		}
		for i, want := range map[int]int64{0: 1, 3: -2} {
			if v, _ := out.Get(i); v.IsNull() || v.Int != want {
				t.Errorf("value %d = %v, want %d", i, v, want)
			}
		}
	})

	t.Run("IntSignChange", func(t *testing.T) {
		s := NewInt64("a", []int64{-1, 2}, nil)
		out, err := s.Cast(UInt64, false)
		if err != nil {
			t.Fatal(err)
		}
		if out.NullCount() != 1 {
			t.Fatalf("expected the negative value to become null, got %s", out)
		}
		if _, err := s.Cast(UInt64, true); err == nil {
			t.Fatal("expected strict cast of -1 to UInt64 to fail")
		}
	})

	t.Run("DatetimeUnits", func(t *testing.T) {
		s := NewDatetime("t", Milliseconds, []int64{1500}, nil)
		out, err := s.Cast(Datetime(Microseconds), true)
		if err != nil {
			t.Fatal(err)
		}
		v, _ := out.Get(0)
		if v.Int != 1_500_000 {
			t.Fatalf("expected 1500000us, got %d", v.Int)
		}
	})
}

func TestSeriesMultiply(t *testing.T) {
	s := NewInt64("a", []int64{1, 2, 3}, nil)
	out, err := s.Multiply(IntValue(2))
	if err != nil {
		t.Fatal(err)
	}
	if got := int64Values(t, out); !equalInts(got, []int64{2, 4, 6}) {
		t.Fatalf("unexpected product %v", got)
	}

	_, err = s.Multiply(BoolValue(true))
	var e *Error
	if !errors.As(err, &e) || e.Kind != ErrInvalidOperation {
		t.Fatalf("expected invalid operation for a boolean factor, got %v", err)
	}
	if got := int64Values(t, s); !equalInts(got, []int64{1, 2, 3}) {
		t.Fatalf("source changed: %v", got)
	}

	t.Run("FactorTakesColumnType", func(t *testing.T) {
		out, err := s.Multiply(Float32Value(0.5))
		if err != nil {
			t.Fatal(err)
		}
		if !out.DType().Equal(Int64) {
			t.Fatalf("dtype = %s, want i64", out.DType())
		}
		// 0.5 truncates to 0 before multiplying
		if got := int64Values(t, out); !equalInts(got, []int64{0, 0, 0}) {
			t.Fatalf("unexpected product %v", got)
		}

		f := NewFloat32("f", []float32{1.5, 2}, nil)
		out, err = f.Multiply(DatetimeValue(2, Microseconds))
		if err != nil {
			t.Fatal(err)
		}
		if !out.DType().Equal(Float32) {
			t.Fatalf("dtype = %s, want f32", out.DType())
		}
		if v, _ := out.Get(0); v.Float != 3 {
			t.Fatalf("unexpected product %v", v)
		}
	})

	t.Run("UnrepresentableFactor", func(t *testing.T) {
		if _, err := s.Multiply(FloatValue(math.NaN())); err == nil {
			t.Fatal("expected NaN factor on an integer column to fail")
		}
	})
}

func TestSeriesSum(t *testing.T) {
	s := NewFloat64("a", []float64{1.5, 2, math.NaN()}, []bool{true, true, false})
	sum, ok := s.Sum()
	if !ok || sum != 3.5 {
		t.Fatalf("expected 3.5, got %v (%t)", sum, ok)
	}
	if _, ok := NewString("s", []string{"x"}, nil).Sum(); ok {
		t.Fatal("string series should have no sum")
	}
}

func TestSeriesSortMaintainsOrder(t *testing.T) {
	keys := NewInt64("k", []int64{2, 1, 2, 1}, nil)
	idx := ArgSort([]*Series{keys}, SortMultipleOptions{MaintainOrder: true})
	want := []int{1, 3, 0, 2}
	for i := range want {
		if idx[i] != want[i] {
			t.Fatalf("ArgSort = %v, want %v", idx, want)
		}
	}

	s := NewInt64("a", []int64{3, 1, 2}, []bool{true, true, false})
	sorted := s.Sort(SortOptions{Descending: true, NullsLast: true})
	if sorted.Sorted() != SortedDescending {
		t.Fatalf("expected descending flag, got %d", sorted.Sorted())
	}
	last, _ := sorted.Get(2)
	first, _ := sorted.Get(0)
	if !last.IsNull() || first.Int != 3 {
		t.Fatalf("unexpected order: %s", sorted)
	}
}
