package engine

import (
	"errors"
	"strings"
	"testing"
)

func sampleFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame([]*Series{
		NewString("name", []string{"Alice", "Bob", "Carol", "Dave"}, nil),
		NewInt64("age", []int64{30, 25, 30, 40}, []bool{true, true, true, false}),
		NewFloat64("score", []float64{1.5, 2.5, 3.5, 4.5}, nil),
	})
	if err != nil {
		t.Fatalf("NewDataFrame: %v", err)
	}
	return df
}

func TestNewDataFrameValidation(t *testing.T) {
	_, err := NewDataFrame([]*Series{
		NewInt64("a", []int64{1, 2}, nil),
		NewInt64("b", []int64{1}, nil),
	})
	var e *Error
	if !errors.As(err, &e) || e.Kind != ErrShapeMismatch {
		t.Fatalf("expected shape mismatch, got %v", err)
	}

	_, err = NewDataFrame([]*Series{
		NewInt64("a", []int64{1}, nil),
		NewInt64("a", []int64{2}, nil),
	})
	if !errors.As(err, &e) || e.Kind != ErrDuplicate {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestDataFrameColumns(t *testing.T) {
	df := sampleFrame(t)

	if h, w := df.Shape(); h != 4 || w != 3 {
		t.Fatalf("unexpected shape (%d, %d)", h, w)
	}
	if _, err := df.ColumnByName("missing"); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected a not found error naming the column, got %v", err)
	}

	dropped := df.Drop([]string{"score", "nope"})
	if got := strings.Join(dropped.ColumnNames(), ","); got != "name,age" {
		t.Fatalf("Drop kept %s", got)
	}

	if err := df.Rename("score", "age"); err == nil {
		t.Fatal("renaming onto an existing column should fail")
	}
	if err := df.Rename("score", "points"); err != nil {
		t.Fatal(err)
	}
	if _, err := df.ColumnByName("points"); err != nil {
		t.Fatal("rename did not take effect")
	}

	_, err := df.WithColumn(NewInt64("short", []int64{1}, nil))
	if err == nil {
		t.Fatal("WithColumn should reject a column of the wrong height")
	}
	replaced, err := df.WithColumn(NewInt64("age", []int64{1, 2, 3, 4}, nil))
	if err != nil {
		t.Fatal(err)
	}
	if replaced.Width() != 3 {
		t.Fatalf("replacing a column changed the width to %d", replaced.Width())
	}
	age, _ := df.ColumnByName("age")
	if age.NullCount() != 1 {
		t.Fatal("WithColumn modified its receiver")
	}
}

func TestDataFrameSort(t *testing.T) {
	df := sampleFrame(t)

	tests := []struct {
		name string
		by   []string
		opts SortMultipleOptions
		want string
	}{
		{"nulls first", []string{"age"}, SortMultipleOptions{MaintainOrder: true}, "Dave,Bob,Alice,Carol"},
		{"nulls last", []string{"age"}, SortMultipleOptions{NullsLast: true, MaintainOrder: true}, "Bob,Alice,Carol,Dave"},
		{"descending keeps nulls first", []string{"age"}, SortMultipleOptions{Descending: []bool{true}, MaintainOrder: true}, "Dave,Alice,Carol,Bob"},
		{"two keys", []string{"age", "score"}, SortMultipleOptions{Descending: []bool{false, true}, NullsLast: true}, "Bob,Carol,Alice,Dave"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := df.Sort(tt.by, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			names, _ := out.ColumnByName("name")
			vals, _ := names.strs()
			if got := strings.Join(vals, ","); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := df.Sort(nil, SortMultipleOptions{}); err == nil {
		t.Fatal("sorting by no keys should fail")
	}
	if _, err := df.Sort([]string{"age", "score"}, SortMultipleOptions{Descending: []bool{true, false, true}}); err == nil {
		t.Fatal("mismatched descending flags should fail")
	}
}

func TestDataFrameSortIntegers(t *testing.T) {
	df, _ := NewDataFrame([]*Series{NewInt64("a", []int64{3, 1, 2}, nil)})
	out, err := df.Sort([]string{"a"}, SortMultipleOptions{})
	if err != nil {
		t.Fatal(err)
	}
	a, _ := out.ColumnByName("a")
	if got := int64Values(t, a); !equalInts(got, []int64{1, 2, 3}) {
		t.Fatalf("got %v", got)
	}
	if a.Sorted() != SortedAscending {
		t.Fatal("sorted flag not set")
	}
}

func TestDataFrameFilterAndEquality(t *testing.T) {
	df, _ := NewDataFrame([]*Series{NewInt64("a", []int64{1, 2, 3, 10, 20}, nil)})
	col, _ := df.ColumnByName("a")
	mask, err := BinaryOp(col, NewInt64("", []int64{5}, nil), OpGt)
	if err != nil {
		t.Fatal(err)
	}
	out, err := df.Filter(mask)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := NewDataFrame([]*Series{NewInt64("a", []int64{10, 20}, nil)})
	if !out.EqualsMissing(want) {
		t.Fatalf("unexpected filter result:\n%s", out)
	}

	withNull, _ := NewDataFrame([]*Series{NewInt64("a", []int64{1, 0}, []bool{true, false})})
	same, _ := NewDataFrame([]*Series{NewInt64("a", []int64{1, 99}, []bool{true, false})})
	if !withNull.EqualsMissing(same) {
		t.Fatal("null slots should compare equal regardless of their backing value")
	}
	renamed, _ := NewDataFrame([]*Series{NewInt64("b", []int64{1, 0}, []bool{true, false})})
	if withNull.EqualsMissing(renamed) {
		t.Fatal("frames with different column names should differ")
	}
}

func TestDataFrameString(t *testing.T) {
	df := sampleFrame(t)
	s := df.String()
	for _, want := range []string{"shape: (4, 3)", "name", "i64", "Alice", "null", "2.5"} {
		if !strings.Contains(s, want) {
			t.Fatalf("rendering misses %q:\n%s", want, s)
		}
	}

	long := NewInt64("x", make([]int64, 20), nil)
	big, _ := NewDataFrame([]*Series{long})
	if !strings.Contains(big.String(), "…") {
		t.Fatal("long frames should be elided")
	}
}

func TestDataFrameRecordBatchRoundTrip(t *testing.T) {
	df := sampleFrame(t)
	rec := df.ToRecordBatch()
	defer rec.Release()
	back, err := FromRecordBatches(rec.Schema(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if back.Height() != 0 || back.Width() != 3 {
		t.Fatalf("empty batch list should give an empty frame, got %v", back.ColumnNames())
	}

	tbl := df.ToTable()
	defer tbl.Release()
	fromTable, err := FromTable(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if !fromTable.EqualsMissing(df) {
		t.Fatalf("table round trip changed the frame:\n%s", fromTable)
	}
}
