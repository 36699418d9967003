package polars

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/isesword/framebridge/bridge"
	"github.com/isesword/framebridge/plan"
)

const sampleCSV = `name,age,salary
Alice,30,5000.5
Bob,22,4200.0
Carol,41,7300.25
Dave,25,3900.0
Eve,35,6100.0
Frank,28,4500.0
Grace,19,2800.0
`

func newTestBridge(t *testing.T) *bridge.Bridge {
	t.Helper()
	return bridge.New(&bridge.Config{Threads: 2})
}

// writeSample 把示例 CSV 写到临时目录
func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("Failed to write sample: %v", err)
	}
	return path
}

func TestScanCSV(t *testing.T) {
	brg := newTestBridge(t)
	path := writeSample(t)
	opts := plan.ReadCSV{HasHeader: true}

	// 测试 1: 基本的 CSV 扫描
	t.Run("BasicCSVScan", func(t *testing.T) {
		result, err := ScanCSV(brg, path, opts).CollectRows()
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if len(result) != 7 {
			t.Fatalf("expected 7 rows, got %d", len(result))
		}
		if result[0]["name"] != "Alice" {
			t.Fatalf("unexpected first row name: %#v", result[0]["name"])
		}
		if result[2]["salary"] != 7300.25 {
			t.Fatalf("unexpected salary: %#v", result[2]["salary"])
		}
	})

	// 测试 2: CSV 扫描 + Limit
	t.Run("CSVScanWithLimit", func(t *testing.T) {
		result, err := ScanCSV(brg, path, opts).Limit(5).CollectRows()
		if err != nil {
			t.Fatalf("Collect with limit failed: %v", err)
		}
		if len(result) != 5 {
			t.Fatalf("expected 5 rows, got %d", len(result))
		}
	})

	// 测试 3: CSV 扫描 + Filter + Select
	t.Run("CSVScanWithFilterSelect", func(t *testing.T) {
		result, err := ScanCSV(brg, path, opts).
			Filter(Col("age").Gt(Lit(25))).
			Select(Col("name"), Col("age")).
			Limit(3).
			CollectRows()
		if err != nil {
			t.Fatalf("Collect with filter+select failed: %v", err)
		}
		if len(result) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(result))
		}
		want := []string{"Alice", "Carol", "Eve"}
		for i, row := range result {
			ageVal, ok := row["age"].(int64)
			if !ok {
				t.Fatalf("row %d: age is not int64: %#v", i, row["age"])
			}
			if ageVal <= 25 {
				t.Fatalf("row %d: expected age > 25, got %d", i, ageVal)
			}
			if row["name"] != want[i] {
				t.Fatalf("row %d: name = %v, want %s", i, row["name"], want[i])
			}
			if _, ok := row["salary"]; ok {
				t.Fatalf("row %d: salary should not be selected", i)
			}
		}
	})

	// 测试 4: 文件不存在时错误在 Collect 返回
	t.Run("NonExistentFile", func(t *testing.T) {
		lf := ScanCSV(brg, filepath.Join(t.TempDir(), "nonexistent.csv"), opts).Select(Col("name"))
		if _, err := lf.Collect(); err == nil {
			t.Fatal("expected error for non-existent file")
		} else {
			t.Logf("✅ Correctly got error: %v", err)
		}
	})

	// 测试 5: DataFrame 直接链式调用
	t.Run("DataFrameChaining", func(t *testing.T) {
		df, err := ReadCSV(brg, path, opts)
		if err != nil {
			t.Fatalf("ReadCSV failed: %v", err)
		}
		defer df.Free()

		out, err := df.Filter(Col("salary").Ge(Lit(5000.0))).
			WithColumns(Col("salary").Mul(Lit(2.0)).Alias("double")).
			Collect()
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		defer out.Free()

		double, err := out.Column("double")
		if err != nil || double == nil {
			t.Fatalf("double column: %v", err)
		}
		got, err := double.Float64s()
		if err != nil {
			t.Fatal(err)
		}
		want := []float64{10001, 14600.5, 12200}
		if len(got) != len(want) {
			t.Fatalf("double = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("double = %v, want %v", got, want)
			}
		}
	})

	// 测试 6: Schema 覆盖推断类型
	t.Run("SchemaOverride", func(t *testing.T) {
		df, err := ReadCSV(brg, path, plan.ReadCSV{
			HasHeader: true,
			Columns:   []string{"age"},
			Schema:    []plan.Field{{Name: "age", DataType: Float64}},
		})
		if err != nil {
			t.Fatalf("ReadCSV failed: %v", err)
		}
		age, _ := df.Column("age")
		dt, err := age.DType()
		if err != nil || dt != Float64 {
			t.Fatalf("age dtype = %v, %v", dt, err)
		}
	})
}

func TestScanParquet(t *testing.T) {
	brg := newTestBridge(t)
	df, err := ReadCSV(brg, writeSample(t), plan.ReadCSV{HasHeader: true})
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), "sample.parquet")
	n, err := df.WriteParquet(out)
	if err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}
	if n <= 0 {
		t.Fatalf("expected bytes written, got %d", n)
	}

	back, err := ScanParquet(brg, out).Collect()
	if err != nil {
		t.Fatalf("ScanParquet failed: %v", err)
	}
	eq, err := df.Equal(back)
	if err != nil || !eq {
		t.Fatalf("parquet round trip differs: eq=%v err=%v\n%s\n%s", eq, err, df, back)
	}

	t.Run("MissingFile", func(t *testing.T) {
		_, err := ReadParquet(brg, filepath.Join(t.TempDir(), "missing.parquet"))
		if bridge.CodeOf(err) != bridge.ErrExecution {
			t.Fatalf("expected execution error, got %v", err)
		}
	})
}

func TestArrowZeroCopy(t *testing.T) {
	if !zeroCopySupported() {
		t.Skip("zero-copy requires cgo")
	}
	brg := newTestBridge(t)

	inSchema, inArray, err := buildArrowInput()
	if err != nil {
		t.Fatalf("Failed to build arrow input: %v", err)
	}
	df, err := ImportArrow(brg, inSchema, inArray)
	if err != nil {
		t.Fatalf("ImportArrow failed: %v", err)
	}
	defer df.Free()

	rows, err := df.Rows()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0]["shop"] != "north" || rows[2]["units"] != int64(45) {
		t.Fatalf("unexpected rows: %v", rows)
	}

	outSchema, outArray, err := df.ExportArrow()
	if err != nil {
		t.Fatalf("ExportArrow failed: %v", err)
	}
	rec, err := importArrowRecordBatch(outSchema, outArray)
	if err != nil {
		t.Fatalf("Failed to import exported batch: %v", err)
	}
	defer rec.Release()

	if rec.NumRows() != 3 || rec.NumCols() != 2 {
		t.Fatalf("exported shape = %dx%d", rec.NumRows(), rec.NumCols())
	}
	units, ok := rec.Column(1).(*array.Int64)
	if !ok {
		t.Fatalf("units exported as %T", rec.Column(1))
	}
	if units.Value(0) != 34 || units.Value(1) != 21 || units.Value(2) != 45 {
		t.Fatalf("units = %v", units)
	}
}

func TestDataFrameFromMap(t *testing.T) {
	brg := newTestBridge(t)

	t.Run("BasicTypes", func(t *testing.T) {
		df, err := NewDataFrameFromMap(brg, map[string]interface{}{
			"id":    []int64{1, 2, 3},
			"name":  []string{"a", "b", "c"},
			"score": []float64{1.5, 2.5, 3.5},
			"ok":    []bool{true, false, true},
		})
		if err != nil {
			t.Fatalf("NewDataFrameFromMap failed: %v", err)
		}
		defer df.Free()

		h, w, err := df.Shape()
		if err != nil || h != 3 || w != 4 {
			t.Fatalf("shape = %dx%d, %v", h, w, err)
		}
		cols, _ := df.Columns()
		if strings.Join(cols, ",") != "id,name,ok,score" {
			t.Fatalf("columns = %v", cols)
		}
		v, err := df.Get("score", 1)
		if err != nil || v != 2.5 {
			t.Fatalf("score[1] = %v, %v", v, err)
		}
	})

	t.Run("NullValues", func(t *testing.T) {
		x := int64(7)
		df, err := NewDataFrameFromMap(brg, map[string]interface{}{
			"v": []interface{}{1, nil, 3},
			"p": []*int64{&x, nil, &x},
		})
		if err != nil {
			t.Fatalf("NewDataFrameFromMap failed: %v", err)
		}
		defer df.Free()

		v, _ := df.Column("v")
		if n, err := v.NullCount(); err != nil || n != 1 {
			t.Fatalf("null count = %d, %v", n, err)
		}
		if got, err := df.Get("v", 1); err != nil || got != nil {
			t.Fatalf("v[1] = %v, %v", got, err)
		}
		if got, err := df.Get("p", 2); err != nil || got != int64(7) {
			t.Fatalf("p[2] = %v, %v", got, err)
		}
	})

	t.Run("ChainedOperations", func(t *testing.T) {
		df, err := NewDataFrameFromMap(brg, map[string]interface{}{
			"id":  []int{1, 2, 3},
			"age": []int{20, 30, 40},
		})
		if err != nil {
			t.Fatal(err)
		}
		rows, err := df.Filter(Col("age").Gt(Lit(25))).Select(Col("id")).CollectRows()
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if len(rows) != 2 || rows[0]["id"] != int64(2) {
			t.Fatalf("rows = %v", rows)
		}
	})

	t.Run("TypeInference", func(t *testing.T) {
		df, err := NewDataFrameFromMap(brg, map[string]interface{}{
			"mixed": []interface{}{1, 2.5, nil},
		})
		if err != nil {
			t.Fatal(err)
		}
		s, _ := df.Column("mixed")
		if dt, err := s.DType(); err != nil || dt != Float64 {
			t.Fatalf("dtype = %v, %v", dt, err)
		}

		if _, err := NewDataFrameFromMap(brg, map[string]interface{}{"bad": []interface{}{1, "a"}}); err == nil {
			t.Error("expected mixed types to fail")
		}
		if _, err := NewDataFrameFromMap(brg, map[string]interface{}{"a": []int{1}, "b": []int{1, 2}}); err == nil {
			t.Error("expected length mismatch to fail")
		}
		if _, err := NewDataFrameFromMap(brg, map[string]interface{}{"a": 1}); err == nil {
			t.Error("expected non-slice to fail")
		}
	})

	t.Run("PrintDataFrame", func(t *testing.T) {
		df, err := NewDataFrameFromMap(brg, map[string]interface{}{"city": []string{"Paris", "Oslo"}})
		if err != nil {
			t.Fatal(err)
		}
		if s := df.String(); !strings.Contains(s, "city") || !strings.Contains(s, "Oslo") {
			t.Fatalf("unexpected rendering:\n%s", s)
		}
		if err := df.Print(); err != nil {
			t.Fatal(err)
		}
	})
}
