package engine

import (
	"context"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

const parquetRowGroupRows = 512 * 1024

// ReadParquet loads a parquet file. parallel decodes columns concurrently;
// rechunk concatenates each column into a single chunk.
func ReadParquet(path string, rechunk, parallel bool, mem memory.Allocator) (*DataFrame, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(ErrIO, err, "open %s", path)
	}
	defer f.Close()

	tbl, err := pqarrow.ReadTable(context.Background(), f,
		parquet.NewReaderProperties(mem),
		pqarrow.ArrowReadProperties{Parallel: parallel, BatchSize: csvChunkRows},
		mem)
	if err != nil {
		return nil, wrapErr(ErrIO, err, "read parquet %s", path)
	}
	defer tbl.Release()

	df, err := FromTable(tbl)
	if err != nil {
		return nil, err
	}
	if rechunk {
		return df.Rechunk(), nil
	}
	return df, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteParquet writes df with snappy compression and returns the number of
// bytes written.
func WriteParquet(df *DataFrame, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, wrapErr(ErrIO, err, "create %s", path)
	}
	tbl := df.ToTable()
	defer tbl.Release()

	cw := &countingWriter{w: f}
	err = pqarrow.WriteTable(tbl, cw, parquetRowGroupRows,
		parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy)),
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return 0, wrapErr(ErrIO, err, "write parquet %s", path)
	}
	return cw.n, nil
}
