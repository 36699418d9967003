//go:build !cgo
// +build !cgo

package polars

import (
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/isesword/framebridge/bridge"
	"github.com/isesword/framebridge/plan"
)

func zeroCopySupported() bool {
	return false
}

func buildArrowInput() (*bridge.ArrowSchema, *bridge.ArrowArray, error) {
	return nil, nil, fmt.Errorf("zero-copy requires cgo")
}

func importArrowRecordBatch(
	_ *bridge.ArrowSchema,
	_ *bridge.ArrowArray,
) (arrow.RecordBatch, error) {
	return nil, fmt.Errorf("zero-copy requires cgo")
}

// 没有 cgo 时导出导入都报 ErrUnsupported，IPC 仍然可用
func TestArrowWithoutCgo(t *testing.T) {
	brg := newTestBridge(t)
	df, err := NewDataFrame(brg, plan.NamedBuffer{Name: "units", Data: plan.Int64Buffer{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := df.ExportArrow(); bridge.CodeOf(err) != bridge.ErrUnsupported {
		t.Errorf("ExportArrow: expected ErrUnsupported, got %v", err)
	}
	if _, err := ImportArrow(brg, &bridge.ArrowSchema{}, &bridge.ArrowArray{}); bridge.CodeOf(err) != bridge.ErrUnsupported {
		t.Errorf("ImportArrow: expected ErrUnsupported, got %v", err)
	}

	data, err := df.ToIPC()
	if err != nil {
		t.Fatal(err)
	}
	back, err := FromIPC(brg, data)
	if err != nil {
		t.Fatal(err)
	}
	if eq, err := df.Equal(back); err != nil || !eq {
		t.Errorf("ipc round trip differs: %v", err)
	}
}
