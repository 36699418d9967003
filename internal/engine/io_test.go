package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = `# exported 2024-01-01
name,age,city
Alice,30,NYC
Bob,25,
Carol,35,LA
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, "people.csv", sampleCSV)

	t.Run("Header", func(t *testing.T) {
		df, err := ReadCSV(path, CSVOptions{SkipRows: 1, HasHeader: true})
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.Join(df.ColumnNames(), ","); got != "name,age,city" {
			t.Fatalf("unexpected columns %s", got)
		}
		age, _ := df.ColumnByName("age")
		if !age.DType().Equal(Int64) {
			t.Fatalf("age should be inferred as i64, got %s", age.DType())
		}
		city, _ := df.ColumnByName("city")
		if city.NullCount() != 1 {
			t.Fatalf("empty field should read as null, got %d nulls", city.NullCount())
		}
	})

	t.Run("ColumnsAndSchema", func(t *testing.T) {
		df, err := ReadCSV(path, CSVOptions{
			SkipRows:  1,
			HasHeader: true,
			Columns:   []string{"age", "name"},
			Schema:    []Field{{Name: "age", Type: Float64}},
			NThreads:  1,
		})
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.Join(df.ColumnNames(), ","); got != "age,name" {
			t.Fatalf("unexpected columns %s", got)
		}
		age, _ := df.ColumnByName("age")
		if !age.DType().Equal(Float64) {
			t.Fatalf("schema override ignored: %s", age.DType())
		}
	})

	t.Run("NoHeader", func(t *testing.T) {
		df, err := ReadCSV(path, CSVOptions{SkipRows: 2})
		if err != nil {
			t.Fatal(err)
		}
		if df.Height() != 3 {
			t.Fatalf("expected 3 rows, got %d", df.Height())
		}
		if got := strings.Join(df.ColumnNames(), ","); got != "column_1,column_2,column_3" {
			t.Fatalf("unexpected generated names %s", got)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"), CSVOptions{}); err == nil {
			t.Fatal("expected an error for a missing file")
		}
	})
}

func TestParquetRoundTrip(t *testing.T) {
	df, err := NewDataFrame([]*Series{
		NewInt64("id", []int64{1, 2, 3}, []bool{true, false, true}),
		NewFloat64("score", []float64{0.5, 1.5, 2.5}, nil),
		NewString("tag", []string{"x", "y", "z"}, nil),
		NewBool("ok", []bool{true, false, true}, nil),
		NewDatetime("at", Microseconds, []int64{0, 1_000_000, 2_000_000}, nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "frame.parquet")

	n, err := WriteParquet(df, path)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if n <= 0 || n != info.Size() {
		t.Fatalf("reported %d bytes, file has %d", n, info.Size())
	}

	for _, parallel := range []bool{false, true} {
		back, err := ReadParquet(path, true, parallel, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !back.EqualsMissing(df) {
			t.Fatalf("parquet round trip (parallel=%t) changed the frame:\n%s", parallel, back)
		}
		for _, c := range back.Columns() {
			if c.NumChunks() != 1 {
				t.Fatalf("column %q has %d chunks after rechunk", c.Name(), c.NumChunks())
			}
		}
	}
}
