package engine

import (
	"strings"
	"testing"
)

func TestUpsample(t *testing.T) {
	hour := int64(3600 * 1000)
	df, err := NewDataFrame([]*Series{
		NewString("key", []string{"b", "a", "b", "a"}, nil),
		NewDatetime("ts", Milliseconds, []int64{2 * hour, 0, 0, 3 * hour}, nil),
		NewInt64("v", []int64{20, 1, 10, 4}, nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	every, _ := ParseDuration("1h")

	t.Run("Stable", func(t *testing.T) {
		out, err := df.Upsample([]string{"key"}, "ts", every, Duration{}, true)
		if err != nil {
			t.Fatal(err)
		}
		if out.Height() != 7 {
			t.Fatalf("expected 7 rows, got %d:\n%s", out.Height(), out)
		}
		keys, _ := out.ColumnByName("key")
		names, valid := keys.strs()
		if !allValid(valid) {
			t.Fatal("group keys must be filled")
		}
		if got := strings.Join(names, ""); got != "bbbaaaa" {
			t.Fatalf("stable upsample should keep first-appearance order, got %s", got)
		}
		v, _ := out.ColumnByName("v")
		if v.NullCount() != 3 {
			t.Fatalf("expected 3 gap rows, got %d", v.NullCount())
		}
		first, _ := v.Get(0)
		if first.Int != 10 {
			t.Fatalf("rows should be sorted by time within a group, got %s", first)
		}
	})

	t.Run("Unstable", func(t *testing.T) {
		out, err := df.Upsample([]string{"key"}, "ts", every, Duration{}, false)
		if err != nil {
			t.Fatal(err)
		}
		keys, _ := out.ColumnByName("key")
		names, _ := keys.strs()
		if got := strings.Join(names, ""); got != "aaaabbb" {
			t.Fatalf("unstable upsample orders groups by key, got %s", got)
		}
	})

	t.Run("Offset", func(t *testing.T) {
		offset, _ := ParseDuration("30m")
		out, err := df.Upsample(nil, "ts", every, offset, true)
		if err != nil {
			t.Fatal(err)
		}
		ts, _ := out.ColumnByName("ts")
		first, _ := ts.Get(0)
		if first.Int != hour/2 {
			t.Fatalf("range should start at first+offset, got %s", first)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		if _, err := df.Upsample(nil, "v", every, Duration{}, true); err == nil {
			t.Fatal("a non-temporal time column should be rejected")
		}
		if _, err := df.Upsample(nil, "ts", Duration{}, Duration{}, true); err == nil {
			t.Fatal("a zero `every` should be rejected")
		}
		if _, err := df.Upsample([]string{"nope"}, "ts", every, Duration{}, true); err == nil {
			t.Fatal("an unknown group column should be rejected")
		}
	})
}
