package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Field names a column and its type.
type Field struct {
	Name string
	Type DataType
}

// CSVOptions configures ReadCSV. The zero value reads a headerless file
// with every column and inferred types.
type CSVOptions struct {
	SkipRows  int
	HasHeader bool
	// Columns restricts the result to these columns, in this order.
	Columns []string
	// Schema overrides the inferred type of the named columns.
	Schema   []Field
	NThreads int
	Mem      memory.Allocator
}

const csvChunkRows = 1 << 16

// ReadCSV reads a comma separated file. Without a header the columns are
// named column_1, column_2, ...
func ReadCSV(path string, opts CSVOptions) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapErr(ErrIO, err, "open %s", path)
	}
	defer f.Close()
	return readCSV(f, opts)
}

func readCSV(r io.Reader, opts CSVOptions) (*DataFrame, error) {
	mem := opts.Mem
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	br := bufio.NewReader(r)
	for i := 0; i < opts.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errorf(ErrNoData, "skip_rows %d is past the end of the file", opts.SkipRows)
			}
			return nil, wrapErr(ErrIO, err, "skip rows")
		}
	}

	rdr := csv.NewInferringReader(br,
		csv.WithAllocator(mem),
		csv.WithHeader(opts.HasHeader),
		csv.WithChunk(csvChunkRows),
		csv.WithNullReader(true, ""),
	)
	defer rdr.Release()

	var batches []arrow.RecordBatch
	for rdr.Next() {
		rec := rdr.RecordBatch()
		rec.Retain()
		batches = append(batches, rec)
	}
	defer func() {
		for _, b := range batches {
			b.Release()
		}
	}()
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, wrapErr(ErrCompute, err, "parse csv")
	}
	schema := rdr.Schema()
	if schema == nil {
		return nil, errorf(ErrNoData, "empty CSV")
	}

	cols := make([]*Series, schema.NumFields())
	err := parallelFor(len(cols), opts.NThreads, func(i int) error {
		name := schema.Field(i).Name
		if !opts.HasHeader {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if len(batches) == 0 {
			cols[i] = NewNull(name, 0)
			return nil
		}
		chunks := make([]arrow.Array, len(batches))
		for b, rec := range batches {
			chunks[b] = rec.Column(i)
		}
		s, err := NewSeriesFromChunks(name, chunks)
		cols[i] = s
		return err
	})
	if err != nil {
		return nil, err
	}
	df, err := NewDataFrame(cols)
	if err != nil {
		return nil, err
	}

	for _, field := range opts.Schema {
		i := df.columnIndex(field.Name)
		if i < 0 {
			continue
		}
		if df.columns[i].dtype.Equal(field.Type) {
			continue
		}
		cast, err := df.columns[i].Cast(field.Type, true)
		if err != nil {
			return nil, err
		}
		df.columns[i] = cast
	}
	if len(opts.Columns) > 0 {
		return df.Select(opts.Columns)
	}
	return df, nil
}
