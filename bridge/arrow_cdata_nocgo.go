//go:build !cgo
// +build !cgo

package bridge

import "github.com/isesword/framebridge/plan"

// ArrowSchema represents Arrow schema in C (cgo disabled placeholder).
type ArrowSchema struct{}

// ArrowArray represents Arrow array data in C (cgo disabled placeholder).
type ArrowArray struct{}

// ReleaseArrowSchema is a no-op when cgo is disabled.
func ReleaseArrowSchema(_ *ArrowSchema) {}

// ReleaseArrowArray is a no-op when cgo is disabled.
func ReleaseArrowArray(_ *ArrowArray) {}

// ExportDataFrame requires cgo.
func (b *Bridge) ExportDataFrame(_ plan.Handle) (*ArrowSchema, *ArrowArray, error) {
	return nil, nil, errorMsg(ErrUnsupported, "ExportDataFrame requires cgo (set CGO_ENABLED=1)")
}

// ImportDataFrame requires cgo.
func (b *Bridge) ImportDataFrame(_ *ArrowSchema, _ *ArrowArray) (plan.Handle, error) {
	return 0, errorMsg(ErrUnsupported, "ImportDataFrame requires cgo (set CGO_ENABLED=1)")
}
