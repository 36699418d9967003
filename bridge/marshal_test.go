package bridge

import (
	"testing"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/isesword/framebridge/internal/engine"
	"github.com/isesword/framebridge/plan"
)

func TestBufferRoundTrip(t *testing.T) {
	for _, copyData := range []bool{true, false} {
		b := newTestBridge(t)
		cols := []plan.NamedBuffer{
			{Name: "i", Data: plan.Int64Buffer{1, -2, 3}},
			{Name: "f32", Data: plan.Float32Buffer{1.5, 2.5, -3}},
			{Name: "f64", Data: plan.Float64Buffer{0.1, 0.2, 0.3}},
			{Name: "b", Data: plan.BoolBuffer{1, 0, 7}},
		}
		df, err := b.DataFrameFromBuffers(cols, copyData)
		if err != nil {
			t.Fatalf("copy=%v: %v", copyData, err)
		}
		out, err := b.DataFrameBuffers(df)
		if err != nil {
			t.Fatalf("copy=%v: %v", copyData, err)
		}
		again, err := b.DataFrameFromBuffers(out, true)
		if err != nil {
			t.Fatal(err)
		}
		eq, err := b.DataFrameEqual(df, again)
		if err != nil || !eq {
			t.Fatalf("copy=%v: round trip not equal (err=%v)", copyData, err)
		}
		if got := out[3].Data.(plan.BoolBuffer); got[2] != 1 {
			t.Errorf("non-zero byte should read back as true, got %v", got)
		}
	}
}

func TestZeroCopyAliasesHostMemory(t *testing.T) {
	b := newTestBridge(t)
	host := plan.Int64Buffer{10, 20, 30}
	s, err := b.SeriesFromBuffer("v", host, false)
	if err != nil {
		t.Fatal(err)
	}
	buf, err := b.SeriesBuffer(s)
	if err != nil {
		t.Fatal(err)
	}
	view := buf.(plan.Int64Buffer)
	if unsafe.SliceData(view) != unsafe.SliceData(host) {
		t.Error("single-chunk extraction of a zero-copy column should alias the host slice")
	}

	copied, err := b.SeriesFromBuffer("c", host, true)
	if err != nil {
		t.Fatal(err)
	}
	buf, _ = b.SeriesBuffer(copied)
	if unsafe.SliceData(buf.(plan.Int64Buffer)) == unsafe.SliceData(host) {
		t.Error("copy mode must not alias the host slice")
	}
}

func TestScalarRoundTrip(t *testing.T) {
	values := []plan.AnyValue{
		plan.Int64Value(-7),
		plan.Float32Value(1.5),
		plan.Float64Value(2.25),
		plan.BoolValue(true),
		plan.DatetimeValue{Value: 1_700_000_000_000, Unit: plan.Milliseconds},
		plan.DatetimeValue{Value: 42, Unit: plan.Nanoseconds},
	}
	for _, v := range values {
		ev, err := toEngineValue(v)
		if err != nil {
			t.Fatalf("%#v: %v", v, err)
		}
		back, err := toHostValue(ev)
		if err != nil {
			t.Fatalf("%#v: %v", v, err)
		}
		if back != v {
			t.Errorf("round trip of %#v gave %#v", v, back)
		}
	}
}

func TestScalarExtraction(t *testing.T) {
	if v, err := toHostValue(engine.NullValue(engine.Int64)); v != nil || err != nil {
		t.Errorf("null should extract as nil, got %v, %v", v, err)
	}
	_, err := toHostValue(engine.StringValue("x"))
	if CodeOf(err) != ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if err.Error() != "AnyValue for dtype String not implemented" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestExtractionRules(t *testing.T) {
	b := newTestBridge(t)

	t.Run("numeric with nulls is rejected", func(t *testing.T) {
		h := b.wrap(KindSeries, engine.NewInt64("n", []int64{1, 0, 3}, []bool{true, false, true}))
		if _, err := b.SeriesBuffer(h); CodeOf(err) != ErrInvalidArgument {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("several chunks are copied", func(t *testing.T) {
		first := engine.NewFloat64("x", []float64{1, 2}, nil)
		second := engine.NewFloat64("x", []float64{3}, nil)
		joined, err := first.Append(second)
		if err != nil {
			t.Fatal(err)
		}
		h := b.wrap(KindSeries, joined)
		buf, err := b.SeriesBuffer(h)
		if err != nil {
			t.Fatal(err)
		}
		got := buf.(plan.Float64Buffer)
		if len(got) != 3 || got[2] != 3 {
			t.Errorf("got %v", got)
		}
	})

	t.Run("datetime extracts as int64", func(t *testing.T) {
		h := b.wrap(KindSeries, engine.NewDatetime("t", engine.Microseconds, []int64{5, 6}, nil))
		buf, err := b.SeriesBuffer(h)
		if err != nil {
			t.Fatal(err)
		}
		if got := buf.(plan.Int64Buffer); !equalInt64s(got, []int64{5, 6}) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("string is unsupported", func(t *testing.T) {
		h := b.wrap(KindSeries, engine.NewString("s", []string{"a"}, nil))
		if _, err := b.SeriesBuffer(h); CodeOf(err) != ErrUnsupported {
			t.Fatalf("expected ErrUnsupported, got %v", err)
		}
	})

	t.Run("boolean with nulls does not fail", func(t *testing.T) {
		// 空值位置的字节不做保证，这里只检查长度和非空位置
		h := b.wrap(KindSeries, engine.NewBool("b", []bool{true, false, true}, []bool{true, false, true}))
		buf, err := b.SeriesBuffer(h)
		if err != nil {
			t.Fatalf("boolean extraction must not fail on nulls: %v", err)
		}
		got := buf.(plan.BoolBuffer)
		if len(got) != 3 || got[0] != 1 || got[2] != 1 {
			t.Errorf("got %v", got)
		}
		t.Logf("null slot extracted as %d", got[1])
	})
}

func TestBufferArrayAllocations(t *testing.T) {
	bufs := []plan.Buffer{
		plan.Int64Buffer{1, 2, 3},
		plan.Float32Buffer{1, 2},
		plan.Float64Buffer{0.5},
		plan.BoolBuffer{1, 0, 1, 1},
	}
	for _, buf := range bufs {
		mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
		arr, err := bufferArray(buf, true, mem)
		if err != nil {
			t.Fatalf("%T: %v", buf, err)
		}
		if arr.Len() != buf.Len() {
			t.Errorf("%T: len = %d, want %d", buf, arr.Len(), buf.Len())
		}
		arr.Release()
		mem.AssertSize(t, 0)
	}

	// 零拷贝不经过分配器
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	arr, err := bufferArray(plan.Int64Buffer{4, 5, 6}, false, mem)
	if err != nil {
		t.Fatal(err)
	}
	defer arr.Release()
	mem.AssertSize(t, 0)
}
