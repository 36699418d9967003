package bridge

import (
	"errors"
	"testing"

	"github.com/isesword/framebridge/plan"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	h := r.Allocate(KindSeries, "first")
	if h == 0 {
		t.Fatal("handle 0 must never be issued")
	}
	v, err := r.Shared(h, KindSeries)
	if err != nil || v != "first" {
		t.Fatalf("Shared = %v, %v", v, err)
	}

	t.Run("wrong kind", func(t *testing.T) {
		_, err := r.Shared(h, KindDataFrame)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("zero and unknown handles", func(t *testing.T) {
		for _, bad := range []plan.Handle{0, makeHandle(99, 1)} {
			if _, err := r.Shared(bad, KindSeries); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("%s: expected ErrInvalidArgument, got %v", bad, err)
			}
		}
	})

	t.Run("exclusive replaces in place", func(t *testing.T) {
		e, err := r.Exclusive(h, KindSeries)
		if err != nil {
			t.Fatal(err)
		}
		e.Value = "second"
		v, _ := r.Shared(h, KindSeries)
		if v != "second" {
			t.Fatalf("value after replace = %v", v)
		}
	})

	t.Run("release and reuse", func(t *testing.T) {
		if r.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", r.Len())
		}
		if !r.Release(h) {
			t.Fatal("first release should succeed")
		}
		if r.Release(h) {
			t.Fatal("double release should be a no-op")
		}
		if _, err := r.Shared(h, KindSeries); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("use after release: expected ErrInvalidArgument, got %v", err)
		}

		h2 := r.Allocate(KindDataFrame, "third")
		if uint32(h2) != uint32(h) {
			t.Errorf("slot %d was not reused (got %d)", uint32(h), uint32(h2))
		}
		if h2 == h {
			t.Fatal("reused slot must carry a new generation")
		}
		if _, err := r.Shared(h, KindDataFrame); err == nil {
			t.Fatal("stale handle resolved to the new object")
		}
		if r.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", r.Len())
		}
	})
}

func TestCloneAndRelease(t *testing.T) {
	b := newTestBridge(t)
	df := mustFrame(t, b, plan.NamedBuffer{Name: "a", Data: plan.Int64Buffer{1, 2, 3}})

	dup, err := b.Clone(df)
	if err != nil {
		t.Fatalf("Failed to clone: %v", err)
	}
	if dup == df {
		t.Fatal("clone must get its own handle")
	}
	if !b.Release(df) {
		t.Fatal("release failed")
	}
	if got := int64Column(t, b, dup, "a"); !equalInt64s(got, []int64{1, 2, 3}) {
		t.Errorf("clone lost its data after the original was released: %v", got)
	}
	if _, err := b.DataFrameHeight(df); CodeOf(err) != ErrInvalidArgument {
		t.Errorf("released handle: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := b.SeriesLength(dup); CodeOf(err) != ErrInvalidArgument {
		t.Errorf("DataFrame handle used as Series: expected ErrInvalidArgument, got %v", err)
	}
	b.Release(dup)
	if b.LiveHandles() != 0 {
		t.Errorf("LiveHandles() = %d, want 0", b.LiveHandles())
	}
}
