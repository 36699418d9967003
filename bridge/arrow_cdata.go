//go:build cgo
// +build cgo

package bridge

// Arrow C Data Interface structures
// https://arrow.apache.org/docs/format/CDataInterface.html

/*
#include <stdint.h>

// ArrowSchema describes the type and metadata of an Arrow array
struct ArrowSchema {
    const char* format;
    const char* name;
    const char* metadata;
    int64_t flags;
    int64_t n_children;
    struct ArrowSchema** children;
    struct ArrowSchema* dictionary;
    void (*release)(struct ArrowSchema*);
    void* private_data;
};

// ArrowArray contains the data buffers and child arrays
struct ArrowArray {
    int64_t length;
    int64_t null_count;
    int64_t offset;
    int64_t n_buffers;
    int64_t n_children;
    const void** buffers;
    struct ArrowArray** children;
    struct ArrowArray* dictionary;
    void (*release)(struct ArrowArray*);
    void* private_data;
};

// Helper functions to call release callbacks
void bridge_call_arrow_schema_release(struct ArrowSchema* schema) {
    if (schema->release) {
        schema->release(schema);
    }
}

void bridge_call_arrow_array_release(struct ArrowArray* array) {
    if (array->release) {
        array->release(array);
    }
}
*/
import "C"

import (
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/cdata"

	"github.com/isesword/framebridge/internal/engine"
	"github.com/isesword/framebridge/plan"
)

// ArrowSchema represents Arrow schema in C
type ArrowSchema C.struct_ArrowSchema

// ArrowArray represents Arrow array data in C
type ArrowArray C.struct_ArrowArray

// ReleaseArrowSchema calls the release callback if set
func ReleaseArrowSchema(schema *ArrowSchema) {
	cSchema := (*C.struct_ArrowSchema)(unsafe.Pointer(schema))
	if cSchema.release != nil {
		C.bridge_call_arrow_schema_release(cSchema)
	}
}

// ReleaseArrowArray calls the release callback if set
func ReleaseArrowArray(array *ArrowArray) {
	cArray := (*C.struct_ArrowArray)(unsafe.Pointer(array))
	if cArray.release != nil {
		C.bridge_call_arrow_array_release(cArray)
	}
}

// ExportDataFrame 通过 Arrow C Data Interface 导出 DataFrame（零拷贝）。
// 调用方负责在消费完成后调用 ReleaseArrowSchema/ReleaseArrowArray。
func (b *Bridge) ExportDataFrame(h plan.Handle) (*ArrowSchema, *ArrowArray, error) {
	defer b.enter("df_export_arrow", "handle", h)()
	df, err := b.dataFrame(h)
	if err != nil {
		return nil, nil, err
	}

	rb := df.ToRecordBatch()
	defer rb.Release()

	outSchema := &ArrowSchema{}
	outArray := &ArrowArray{}
	cdata.ExportArrowRecordBatch(rb,
		(*cdata.CArrowArray)(unsafe.Pointer(outArray)),
		(*cdata.CArrowSchema)(unsafe.Pointer(outSchema)),
	)
	return outSchema, outArray, nil
}

// ImportDataFrame 导入 C Data Interface 的记录批次。
// schema/array 的所有权转移给 Bridge，调用方不要再释放它们。
func (b *Bridge) ImportDataFrame(schema *ArrowSchema, arr *ArrowArray) (plan.Handle, error) {
	defer b.enter("df_import_arrow")()
	if schema == nil || arr == nil {
		return 0, errorMsg(ErrInvalidArgument, "nil schema/array")
	}

	rb, err := cdata.ImportCRecordBatch(
		(*cdata.CArrowArray)(unsafe.Pointer(arr)),
		(*cdata.CArrowSchema)(unsafe.Pointer(schema)),
	)
	if err != nil {
		return 0, &ContextError{Code: ErrArrowImport, Desc: "cannot import record batch", Err: err}
	}
	defer rb.Release()

	df, err := engine.FromRecordBatches(rb.Schema(), []arrow.RecordBatch{rb})
	if err != nil {
		return 0, errorWithDesc(err, "cannot import record batch")
	}
	return b.wrap(KindDataFrame, df), nil
}
