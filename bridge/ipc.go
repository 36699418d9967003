package bridge

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/isesword/framebridge/internal/engine"
	"github.com/isesword/framebridge/plan"
)

// DataFrameToIPC 将 DataFrame 导出为 Arrow IPC 流
func (b *Bridge) DataFrameToIPC(h plan.Handle) ([]byte, error) {
	defer b.enter("df_to_ipc", "handle", h)()
	df, err := b.dataFrame(h)
	if err != nil {
		return nil, err
	}

	rb := df.ToRecordBatch()
	defer rb.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(rb.Schema()), ipc.WithAllocator(b.mem))
	if err := w.Write(rb); err != nil {
		w.Close()
		return nil, &ContextError{Code: ErrArrowExport, Desc: "cannot write ipc stream", Err: err}
	}
	if err := w.Close(); err != nil {
		return nil, &ContextError{Code: ErrArrowExport, Desc: "cannot write ipc stream", Err: err}
	}
	return buf.Bytes(), nil
}

// DataFrameFromIPC 由 Arrow IPC 流构造 DataFrame，每个批次成为一个块
func (b *Bridge) DataFrameFromIPC(data []byte) (plan.Handle, error) {
	defer b.enter("df_from_ipc", "bytes", len(data))()

	r, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(b.mem))
	if err != nil {
		return 0, &ContextError{Code: ErrArrowImport, Desc: "cannot read ipc stream", Err: err}
	}
	defer r.Release()

	var batches []arrow.RecordBatch
	defer func() {
		for _, rb := range batches {
			rb.Release()
		}
	}()
	for r.Next() {
		rb := r.RecordBatch()
		rb.Retain()
		batches = append(batches, rb)
	}
	if err := r.Err(); err != nil {
		return 0, &ContextError{Code: ErrArrowImport, Desc: "cannot read ipc stream", Err: err}
	}

	df, err := engine.FromRecordBatches(r.Schema(), batches)
	if err != nil {
		return 0, errorWithDesc(err, "cannot read ipc stream")
	}
	return b.wrap(KindDataFrame, df), nil
}
