package polars

import (
	"fmt"
	"runtime"

	"github.com/isesword/framebridge/bridge"
)

// ExportArrow 通过 Arrow C Data Interface 导出（需要 cgo）。
// 调用方消费完毕后用 bridge.ReleaseArrowSchema/ReleaseArrowArray 释放
func (df *DataFrame) ExportArrow() (*bridge.ArrowSchema, *bridge.ArrowArray, error) {
	if err := df.valid(); err != nil {
		return nil, nil, err
	}
	defer runtime.KeepAlive(df)
	return df.brg.ExportDataFrame(df.handle)
}

// ImportArrow 导入 C Data Interface 记录批次，所有权转移给引擎
func ImportArrow(brg *bridge.Bridge, schema *bridge.ArrowSchema, arr *bridge.ArrowArray) (*DataFrame, error) {
	h, err := brg.ImportDataFrame(schema, arr)
	if err != nil {
		return nil, fmt.Errorf("failed to import arrow data: %w", err)
	}
	return newDataFrame(h, brg), nil
}
