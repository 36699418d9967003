package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// DataFrame is an ordered set of equally long, uniquely named columns.
type DataFrame struct {
	columns []*Series
}

// NewDataFrame takes ownership of cols.
func NewDataFrame(cols []*Series) (*DataFrame, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if c.Len() != cols[0].Len() {
			return nil, errorf(ErrShapeMismatch, "could not create a new DataFrame: series %q has length %d while series %q has length %d",
				c.Name(), c.Len(), cols[0].Name(), cols[0].Len())
		}
		if _, ok := seen[c.Name()]; ok {
			return nil, errorf(ErrDuplicate, "column with name '%s' has more than one occurrence", c.Name())
		}
		seen[c.Name()] = struct{}{}
	}
	return &DataFrame{columns: cols}, nil
}

func (df *DataFrame) Height() int {
	if len(df.columns) == 0 {
		return 0
	}
	return df.columns[0].Len()
}

func (df *DataFrame) Width() int            { return len(df.columns) }
func (df *DataFrame) Shape() (int, int)     { return df.Height(), df.Width() }
func (df *DataFrame) Columns() []*Series    { return df.columns }

func (df *DataFrame) ColumnNames() []string {
	names := make([]string, len(df.columns))
	for i, c := range df.columns {
		names[i] = c.Name()
	}
	return names
}

// Column returns the column at i, or false when i is out of range.
func (df *DataFrame) Column(i int) (*Series, bool) {
	if i < 0 || i >= len(df.columns) {
		return nil, false
	}
	return df.columns[i], true
}

func (df *DataFrame) columnIndex(name string) int {
	for i, c := range df.columns {
		if c.Name() == name {
			return i
		}
	}
	return -1
}

// ColumnByName returns the named column or an ErrColumnNotFound error.
func (df *DataFrame) ColumnByName(name string) (*Series, error) {
	i := df.columnIndex(name)
	if i < 0 {
		return nil, errorf(ErrColumnNotFound, "%s", name)
	}
	return df.columns[i], nil
}

// Clone returns a frame sharing df's column buffers.
func (df *DataFrame) Clone() *DataFrame {
	cols := make([]*Series, len(df.columns))
	for i, c := range df.columns {
		cols[i] = c.Clone()
	}
	return &DataFrame{columns: cols}
}

func (df *DataFrame) Release() {
	for _, c := range df.columns {
		c.Release()
	}
	df.columns = nil
}

func (df *DataFrame) Select(names []string) (*DataFrame, error) {
	cols := make([]*Series, 0, len(names))
	for _, name := range names {
		c, err := df.ColumnByName(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c.Clone())
	}
	return NewDataFrame(cols)
}

// Drop removes the named columns; names that are absent are ignored.
func (df *DataFrame) Drop(names []string) *DataFrame {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	cols := make([]*Series, 0, len(df.columns))
	for _, c := range df.columns {
		if _, ok := drop[c.Name()]; !ok {
			cols = append(cols, c.Clone())
		}
	}
	return &DataFrame{columns: cols}
}

// Rename renames a column in place.
func (df *DataFrame) Rename(old, name string) error {
	i := df.columnIndex(old)
	if i < 0 {
		return errorf(ErrColumnNotFound, "%s", old)
	}
	if j := df.columnIndex(name); j >= 0 && j != i {
		return errorf(ErrDuplicate, "column with name '%s' already exists", name)
	}
	renamed := df.columns[i].Rename(name)
	df.columns[i].Release()
	df.columns[i] = renamed
	return nil
}

// WithColumn replaces the column of the same name or appends s.
func (df *DataFrame) WithColumn(s *Series) (*DataFrame, error) {
	if df.Width() > 0 && s.Len() != df.Height() {
		return nil, errorf(ErrShapeMismatch, "unable to add a column of length %d to a DataFrame of height %d", s.Len(), df.Height())
	}
	out := df.Clone()
	if i := out.columnIndex(s.Name()); i >= 0 {
		out.columns[i].Release()
		out.columns[i] = s.Clone()
		return out, nil
	}
	out.columns = append(out.columns, s.Clone())
	return out, nil
}

// Sort orders rows by the named columns.
func (df *DataFrame) Sort(by []string, opts SortMultipleOptions) (*DataFrame, error) {
	if len(by) == 0 {
		return nil, errorf(ErrInvalidOperation, "the provided number of sort keys is zero")
	}
	if len(opts.Descending) > 1 && len(opts.Descending) != len(by) {
		return nil, errorf(ErrInvalidOperation, "the length of `descending` (%d) does not match the number of sort keys (%d)", len(opts.Descending), len(by))
	}
	keys := make([]*Series, len(by))
	for i, name := range by {
		k, err := df.ColumnByName(name)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	out, err := df.Take(ArgSort(keys, opts))
	if err != nil {
		return nil, err
	}
	if len(by) == 1 {
		i := out.columnIndex(by[0])
		out.columns[i].sorted = SortedAscending
		if opts.descending(0) {
			out.columns[i].sorted = SortedDescending
		}
	}
	return out, nil
}

// Take gathers rows by index in parallel over columns.
func (df *DataFrame) Take(idx []int) (*DataFrame, error) {
	cols := make([]*Series, len(df.columns))
	err := parallelFor(len(cols), 0, func(i int) error {
		cols[i] = df.columns[i].Take(idx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &DataFrame{columns: cols}, nil
}

func (df *DataFrame) Slice(offset int64, length int) *DataFrame {
	cols := make([]*Series, len(df.columns))
	for i, c := range df.columns {
		cols[i] = c.Slice(offset, length)
	}
	return &DataFrame{columns: cols}
}

// Head returns the first n rows.
func (df *DataFrame) Head(n int) *DataFrame { return df.Slice(0, n) }

// Filter keeps rows where mask is true.
func (df *DataFrame) Filter(mask *Series) (*DataFrame, error) {
	if mask.Len() != df.Height() {
		return nil, errorf(ErrShapeMismatch, "filter's length: %d differs from that of the DataFrame: %d", mask.Len(), df.Height())
	}
	cols := make([]*Series, len(df.columns))
	err := parallelFor(len(cols), 0, func(i int) error {
		c, err := df.columns[i].Filter(mask)
		cols[i] = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return &DataFrame{columns: cols}, nil
}

// Rechunk returns df with every column in a single chunk.
func (df *DataFrame) Rechunk() *DataFrame {
	cols := make([]*Series, len(df.columns))
	_ = parallelFor(len(cols), 0, func(i int) error {
		cols[i] = df.columns[i].Rechunk()
		return nil
	})
	return &DataFrame{columns: cols}
}

// Row returns the values of row i.
func (df *DataFrame) Row(i int) ([]AnyValue, error) {
	if i < 0 || i >= df.Height() {
		return nil, errorf(ErrOutOfBounds, "row index %d is out of bounds for DataFrame of height %d", i, df.Height())
	}
	row := make([]AnyValue, len(df.columns))
	for j, c := range df.columns {
		row[j] = c.value(i)
	}
	return row, nil
}

// EqualsMissing compares shape, names, dtypes and values; null equals null.
func (df *DataFrame) EqualsMissing(other *DataFrame) bool {
	if df.Width() != other.Width() || df.Height() != other.Height() {
		return false
	}
	equal := make([]bool, df.Width())
	_ = parallelFor(df.Width(), 0, func(i int) error {
		l, r := df.columns[i], other.columns[i]
		equal[i] = l.Name() == r.Name() && l.Equal(r)
		return nil
	})
	for _, eq := range equal {
		if !eq {
			return false
		}
	}
	return true
}

// Schema returns the arrow schema of df.
func (df *DataFrame) Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(df.columns))
	for i, c := range df.columns {
		fields[i] = arrow.Field{Name: c.Name(), Type: c.DType().ToArrow(), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// ToRecordBatch returns df as one record batch; the caller releases it.
func (df *DataFrame) ToRecordBatch() arrow.RecordBatch {
	arrs := make([]arrow.Array, len(df.columns))
	for i, c := range df.columns {
		arrs[i] = c.Array()
	}
	return array.NewRecordBatch(df.Schema(), arrs, int64(df.Height()))
}

// ToTable returns df as an arrow table keeping its chunk layout.
func (df *DataFrame) ToTable() arrow.Table {
	cols := make([]arrow.Column, len(df.columns))
	schema := df.Schema()
	for i, c := range df.columns {
		chunked := arrow.NewChunked(c.DType().ToArrow(), c.Chunks())
		cols[i] = *arrow.NewColumn(schema.Field(i), chunked)
		chunked.Release()
	}
	return array.NewTable(schema, cols, int64(df.Height()))
}

// FromRecordBatches builds a frame from batches sharing one schema.
func FromRecordBatches(schema *arrow.Schema, batches []arrow.RecordBatch) (*DataFrame, error) {
	cols := make([]*Series, schema.NumFields())
	err := parallelFor(len(cols), 0, func(i int) error {
		chunks := make([]arrow.Array, 0, len(batches))
		for _, b := range batches {
			chunks = append(chunks, b.Column(i))
		}
		if len(chunks) == 0 {
			dt, ok := FromArrow(schema.Field(i).Type)
			if !ok {
				dt, _ = normalizedType(schema.Field(i).Type)
			}
			cols[i] = newSeries(schema.Field(i).Name, dt, []arrow.Array{emptyArray(dt)})
			return nil
		}
		s, err := NewSeriesFromChunks(schema.Field(i).Name, chunks)
		cols[i] = s
		return err
	})
	if err != nil {
		return nil, err
	}
	return NewDataFrame(cols)
}

// FromTable builds a frame from an arrow table.
func FromTable(tbl arrow.Table) (*DataFrame, error) {
	cols := make([]*Series, tbl.NumCols())
	for i := range cols {
		col := tbl.Column(i)
		chunks := col.Data().Chunks()
		if len(chunks) == 0 {
			dt, ok := FromArrow(col.DataType())
			if !ok {
				dt, _ = normalizedType(col.DataType())
			}
			cols[i] = newSeries(col.Name(), dt, []arrow.Array{emptyArray(dt)})
			continue
		}
		s, err := NewSeriesFromChunks(col.Name(), chunks)
		if err != nil {
			return nil, err
		}
		cols[i] = s
	}
	return NewDataFrame(cols)
}

const displayRows = 10

// String renders df as a box table.
func (df *DataFrame) String() string {
	h, w := df.Shape()
	rows := make([]int, 0, displayRows+1)
	if h > displayRows {
		for i := 0; i < displayRows/2; i++ {
			rows = append(rows, i)
		}
		rows = append(rows, -1)
		for i := h - displayRows/2; i < h; i++ {
			rows = append(rows, i)
		}
	} else {
		for i := 0; i < h; i++ {
			rows = append(rows, i)
		}
	}

	cells := make([][]string, w)
	widths := make([]int, w)
	for j, c := range df.columns {
		cells[j] = make([]string, len(rows)+2)
		cells[j][0], cells[j][1] = c.Name(), c.DType().String()
		for k, r := range rows {
			if r < 0 {
				cells[j][k+2] = "…"
				continue
			}
			v := c.value(r)
			if v.Type.Kind == KindString && !v.IsNull() {
				cells[j][k+2] = v.Str
			} else {
				cells[j][k+2] = v.String()
			}
		}
		for _, s := range cells[j] {
			widths[j] = max(widths[j], utf8.RuneCountInString(s), 3)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "shape: (%d, %d)\n", h, w)
	border := func(left, fill, sep, right string) {
		sb.WriteString(left)
		for j := range widths {
			if j > 0 {
				sb.WriteString(sep)
			}
			sb.WriteString(strings.Repeat(fill, widths[j]+2))
		}
		sb.WriteString(right + "\n")
	}
	line := func(k int) {
		sb.WriteString("│")
		for j := range widths {
			if j > 0 {
				sb.WriteString("┆")
			}
			s := cells[j][k]
			sb.WriteString(" " + s + strings.Repeat(" ", widths[j]-utf8.RuneCountInString(s)) + " ")
		}
		sb.WriteString("│\n")
	}
	border("┌", "─", "┬", "┐")
	line(0)
	sb.WriteString("│")
	for j := range widths {
		if j > 0 {
			sb.WriteString("┆")
		}
		sb.WriteString(" --- " + strings.Repeat(" ", widths[j]-3))
	}
	sb.WriteString("│\n")
	line(1)
	border("╞", "═", "╪", "╡")
	for k := range rows {
		line(k + 2)
	}
	border("└", "─", "┴", "┘")
	return strings.TrimSuffix(sb.String(), "\n")
}
