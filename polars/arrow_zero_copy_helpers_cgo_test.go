//go:build cgo
// +build cgo

package polars

import (
	"fmt"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/cdata"
	"github.com/apache/arrow-go/v18/arrow/memory/mallocator"

	"github.com/isesword/framebridge/bridge"
)

func zeroCopySupported() bool {
	return true
}

// buildArrowInput 构造 shop/units 两列并导出为 C 结构
func buildArrowInput() (*bridge.ArrowSchema, *bridge.ArrowArray, error) {
	alloc := mallocator.NewMallocator()
	shopBuilder := array.NewStringBuilder(alloc)
	unitsBuilder := array.NewInt64Builder(alloc)
	defer shopBuilder.Release()
	defer unitsBuilder.Release()

	shops := []string{"north", "south", "east"}
	units := []int64{34, 21, 45}
	for i := range shops {
		shopBuilder.Append(shops[i])
		unitsBuilder.Append(units[i])
	}

	shopArr := shopBuilder.NewArray()
	unitsArr := unitsBuilder.NewArray()
	defer shopArr.Release()
	defer unitsArr.Release()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "shop", Type: arrow.BinaryTypes.String},
		{Name: "units", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	rb := array.NewRecordBatch(schema, []arrow.Array{shopArr, unitsArr}, int64(len(shops)))
	defer rb.Release()

	cSchema := &bridge.ArrowSchema{}
	cArray := &bridge.ArrowArray{}
	cdata.ExportArrowRecordBatch(rb,
		(*cdata.CArrowArray)(unsafe.Pointer(cArray)),
		(*cdata.CArrowSchema)(unsafe.Pointer(cSchema)),
	)
	return cSchema, cArray, nil
}

func importArrowRecordBatch(
	schema *bridge.ArrowSchema,
	arr *bridge.ArrowArray,
) (arrow.RecordBatch, error) {
	if schema == nil || arr == nil {
		return nil, fmt.Errorf("nil schema/array")
	}
	return cdata.ImportCRecordBatch(
		(*cdata.CArrowArray)(unsafe.Pointer(arr)),
		(*cdata.CArrowSchema)(unsafe.Pointer(schema)),
	)
}
