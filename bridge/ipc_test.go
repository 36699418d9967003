package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/isesword/framebridge/plan"
)

func TestIPCRoundTrip(t *testing.T) {
	b := newTestBridge(t)
	df := salesFrame(t, b)

	data, err := b.DataFrameToIPC(df)
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}
	back, err := b.DataFrameFromIPC(data)
	if err != nil {
		t.Fatalf("Failed to import: %v", err)
	}
	eq, err := b.DataFrameEqual(df, back)
	if err != nil || !eq {
		t.Fatalf("ipc round trip not equal (err=%v)", err)
	}

	if _, err := b.DataFrameFromIPC([]byte("not arrow")); CodeOf(err) != ErrArrowImport {
		t.Errorf("expected ErrArrowImport, got %v", err)
	}
}

func TestFileIO(t *testing.T) {
	b := newTestBridge(t)
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "in.csv")
	content := "# exported\nid,score\n1,0.5\n2,1.5\n3,2.5\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	df, err := b.ReadCSV(csvPath, plan.ReadCSV{
		SkipRows:  1,
		HasHeader: true,
		Schema:    []plan.Field{{Name: "score", DataType: plan.Float32}},
	})
	if err != nil {
		t.Fatalf("Failed to read csv: %v", err)
	}
	if got := int64Column(t, b, df, "id"); !equalInt64s(got, []int64{1, 2, 3}) {
		t.Errorf("id = %v", got)
	}
	score, _, _ := b.DataFrameColumnByName(df, "score")
	if dt, _ := b.SeriesDType(score); dt != plan.Float32 {
		t.Errorf("score dtype = %s", dt)
	}

	pqPath := filepath.Join(dir, "out.parquet")
	n, err := b.WriteParquet(df, pqPath)
	if err != nil {
		t.Fatalf("Failed to write parquet: %v", err)
	}
	if n <= 0 {
		t.Errorf("wrote %d bytes", n)
	}

	back, err := b.ReadParquet(pqPath, true, true)
	if err != nil {
		t.Fatalf("Failed to read parquet: %v", err)
	}
	eq, err := b.DataFrameEqual(df, back)
	if err != nil || !eq {
		t.Fatalf("parquet round trip not equal (err=%v)", err)
	}

	if _, err := b.ReadCSV(filepath.Join(dir, "missing.csv"), plan.ReadCSV{}); CodeOf(err) != ErrExecution {
		t.Errorf("missing file: %v", err)
	}
}
