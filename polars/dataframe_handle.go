package polars

import (
	"fmt"
	"runtime"

	"github.com/isesword/framebridge/bridge"
	"github.com/isesword/framebridge/plan"
)

// DataFrame represents an eager DataFrame held by the native engine.
type DataFrame struct {
	handle plan.Handle
	brg    *bridge.Bridge
}

func newDataFrame(handle plan.Handle, brg *bridge.Bridge) *DataFrame {
	df := &DataFrame{handle: handle, brg: brg}
	runtime.SetFinalizer(df, func(d *DataFrame) {
		if d != nil && d.handle != 0 && d.brg != nil {
			d.brg.Release(d.handle)
		}
	})
	return df
}

// Free releases the native DataFrame handle.
func (df *DataFrame) Free() {
	if df == nil || df.handle == 0 || df.brg == nil {
		return
	}
	df.brg.Release(df.handle)
	df.handle = 0
	runtime.SetFinalizer(df, nil)
}

func (df *DataFrame) valid() error {
	if df == nil || df.handle == 0 || df.brg == nil {
		return fmt.Errorf("dataframe is nil")
	}
	return nil
}

// wrapFrame 包装 bridge 返回的句柄
func (df *DataFrame) wrapFrame(h plan.Handle, err error) (*DataFrame, error) {
	if err != nil {
		return nil, err
	}
	return newDataFrame(h, df.brg), nil
}

// Handle returns the underlying registry handle.
func (df *DataFrame) Handle() plan.Handle { return df.handle }

// Rows exports the DataFrame to Arrow IPC and parses it into rows.
func (df *DataFrame) Rows() ([]map[string]interface{}, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	ipcBytes, err := df.brg.DataFrameToIPC(df.handle)
	if err != nil {
		return nil, fmt.Errorf("failed to export dataframe: %w", err)
	}
	return parseArrowIPC(ipcBytes)
}

// ToIPC serializes the DataFrame as an Arrow IPC stream.
func (df *DataFrame) ToIPC() ([]byte, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	return df.brg.DataFrameToIPC(df.handle)
}

// Print outputs the DataFrame as a table on stdout.
func (df *DataFrame) Print() error {
	if err := df.valid(); err != nil {
		return err
	}
	defer runtime.KeepAlive(df)
	return df.brg.DataFramePrint(df.handle)
}

func (df *DataFrame) String() string {
	if df.valid() != nil {
		return "<nil dataframe>"
	}
	defer runtime.KeepAlive(df)
	s, err := df.brg.DataFrameString(df.handle)
	if err != nil {
		return fmt.Sprintf("<dataframe: %v>", err)
	}
	return s
}

// Height returns the number of rows.
func (df *DataFrame) Height() (int, error) {
	if err := df.valid(); err != nil {
		return 0, err
	}
	defer runtime.KeepAlive(df)
	return df.brg.DataFrameHeight(df.handle)
}

// Width returns the number of columns.
func (df *DataFrame) Width() (int, error) {
	if err := df.valid(); err != nil {
		return 0, err
	}
	defer runtime.KeepAlive(df)
	return df.brg.DataFrameWidth(df.handle)
}

// Shape returns (rows, columns).
func (df *DataFrame) Shape() (int, int, error) {
	if err := df.valid(); err != nil {
		return 0, 0, err
	}
	defer runtime.KeepAlive(df)
	return df.brg.DataFrameShape(df.handle)
}

// Columns returns the column names in order.
func (df *DataFrame) Columns() ([]string, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	return df.brg.DataFrameColumnNames(df.handle)
}

// Column returns a copy of the named column, or nil when it does not exist.
func (df *DataFrame) Column(name string) (*Series, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	h, ok, err := df.brg.DataFrameColumnByName(df.handle, name)
	if err != nil || !ok {
		return nil, err
	}
	return newSeries(h, df.brg), nil
}

// ColumnAt returns a copy of the column at idx, or nil when out of range.
func (df *DataFrame) ColumnAt(idx int) (*Series, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	h, ok, err := df.brg.DataFrameColumn(df.handle, idx)
	if err != nil || !ok {
		return nil, err
	}
	return newSeries(h, df.brg), nil
}

// Get returns a single cell; null cells are nil.
func (df *DataFrame) Get(column string, row int) (interface{}, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	v, err := df.brg.DataFrameGetByName(df.handle, column, row)
	if err != nil {
		return nil, err
	}
	return fromAnyValue(v), nil
}

// Row returns one row in column order.
func (df *DataFrame) Row(row int) ([]interface{}, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	vals, err := df.brg.DataFrameGetRow(df.handle, row)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = fromAnyValue(v)
	}
	return out, nil
}

// SelectColumns keeps the named columns in the given order.
func (df *DataFrame) SelectColumns(names ...string) (*DataFrame, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	return df.wrapFrame(df.brg.DataFrameSelect(df.handle, names))
}

// DropColumns removes the named columns.
func (df *DataFrame) DropColumns(names ...string) (*DataFrame, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	return df.wrapFrame(df.brg.DataFrameDrop(df.handle, names))
}

// Rename renames a column in place.
func (df *DataFrame) Rename(old, name string) error {
	if err := df.valid(); err != nil {
		return err
	}
	defer runtime.KeepAlive(df)
	return df.brg.DataFrameRenameInPlace(df.handle, old, name)
}

// WithColumn adds s, replacing any column with the same name.
func (df *DataFrame) WithColumn(s *Series) (*DataFrame, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	if err := s.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(s)
	return df.wrapFrame(df.brg.DataFrameWithColumn(df.handle, s.handle))
}

// Sort returns a sorted copy.
// 示例: df.Sort([]string{"shop"}, plan.SortMultipleOptions{MaintainOrder: true})
func (df *DataFrame) Sort(by []string, opts plan.SortMultipleOptions) (*DataFrame, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	return df.wrapFrame(df.brg.DataFrameSort(df.handle, by, opts))
}

// SortInPlace sorts the DataFrame itself.
func (df *DataFrame) SortInPlace(by []string, opts plan.SortMultipleOptions) error {
	if err := df.valid(); err != nil {
		return err
	}
	defer runtime.KeepAlive(df)
	return df.brg.DataFrameSortInPlace(df.handle, by, opts)
}

// Slice returns rows [offset, offset+length); a negative length runs to the end.
func (df *DataFrame) Slice(offset int64, length int) (*DataFrame, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	return df.wrapFrame(df.brg.DataFrameSlice(df.handle, offset, length))
}

// Head returns the first n rows.
func (df *DataFrame) Head(n int) (*DataFrame, error) {
	return df.Slice(0, n)
}

// Where keeps rows whose column compares true against value.
// 示例: df.Where("units", plan.Gt, 5)
func (df *DataFrame) Where(column string, cmp plan.Comparison, value interface{}) (*DataFrame, error) {
	return df.WhereAll(Cond(column, cmp, value))
}

// Condition 一个列过滤条件，由 Cond 构造
type Condition struct {
	column string
	cmp    plan.Comparison
	value  interface{}
}

// Cond 构造列过滤条件
func Cond(column string, cmp plan.Comparison, value interface{}) Condition {
	return Condition{column: column, cmp: cmp, value: value}
}

// WhereAll keeps rows matching every condition.
func (df *DataFrame) WhereAll(conds ...Condition) (*DataFrame, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	filters := make([]plan.ColumnFilter, len(conds))
	for i, c := range conds {
		v, err := toAnyValue(c.value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.column, err)
		}
		filters[i] = plan.ColumnFilter{Column: c.column, Cmp: c.cmp, Value: v}
	}
	return df.wrapFrame(df.brg.DataFrameFilterMulti(df.handle, filters))
}

// Upsample fills in missing time points per group; stable keeps groups in
// first-seen order.
func (df *DataFrame) Upsample(by []string, timeColumn string, every, offset plan.Duration, stable bool) (*DataFrame, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	if stable {
		return df.wrapFrame(df.brg.DataFrameUpsampleStable(df.handle, by, timeColumn, every, offset))
	}
	return df.wrapFrame(df.brg.DataFrameUpsample(df.handle, by, timeColumn, every, offset))
}

// Equal reports whether both frames hold the same data, nulls comparing equal.
func (df *DataFrame) Equal(other *DataFrame) (bool, error) {
	if err := df.valid(); err != nil {
		return false, err
	}
	defer runtime.KeepAlive(df)
	if err := other.valid(); err != nil {
		return false, err
	}
	defer runtime.KeepAlive(other)
	return df.brg.DataFrameEqual(df.handle, other.handle)
}

// Rechunk merges every column into a single chunk.
func (df *DataFrame) Rechunk() (*DataFrame, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	return df.wrapFrame(df.brg.DataFrameRechunk(df.handle))
}

// Clone returns an independent copy.
func (df *DataFrame) Clone() (*DataFrame, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	return df.wrapFrame(df.brg.Clone(df.handle))
}

// Buffers exports every column as a bulk buffer.
func (df *DataFrame) Buffers() ([]plan.NamedBuffer, error) {
	if err := df.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(df)
	return df.brg.DataFrameBuffers(df.handle)
}

// WriteParquet writes the DataFrame to path and returns the bytes written.
func (df *DataFrame) WriteParquet(path string) (int64, error) {
	if err := df.valid(); err != nil {
		return 0, err
	}
	defer runtime.KeepAlive(df)
	return df.brg.WriteParquet(df.handle, path)
}

// Lazy converts the DataFrame into a LazyFrame for further operations.
func (df *DataFrame) Lazy() *LazyFrame {
	if err := df.valid(); err != nil {
		return &LazyFrame{err: err}
	}
	defer runtime.KeepAlive(df)
	h, err := df.brg.LazyFrame(df.handle)
	if err != nil {
		return &LazyFrame{brg: df.brg, err: err}
	}
	return newLazyFrame(h, df.brg)
}

// Filter applies a filter operation and returns a LazyFrame for further chaining.
func (df *DataFrame) Filter(predicate Expr) *LazyFrame {
	return df.Lazy().Filter(predicate)
}

// Select selects columns and returns a LazyFrame for further chaining.
func (df *DataFrame) Select(exprs ...Expr) *LazyFrame {
	return df.Lazy().Select(exprs...)
}

// WithColumns adds or modifies columns and returns a LazyFrame for further chaining.
func (df *DataFrame) WithColumns(exprs ...Expr) *LazyFrame {
	return df.Lazy().WithColumns(exprs...)
}

// Limit limits the number of rows and returns a LazyFrame for further chaining.
func (df *DataFrame) Limit(n uint64) *LazyFrame {
	return df.Lazy().Limit(n)
}
