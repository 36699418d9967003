package bridge

import (
	"fmt"
	"os"

	"github.com/isesword/framebridge/internal/engine"
	"github.com/isesword/framebridge/plan"
)

// DataFrameFromBuffers 由批量缓冲构造 DataFrame。copyData 为 false 时数值列零拷贝引用宿主内存。
func (b *Bridge) DataFrameFromBuffers(cols []plan.NamedBuffer, copyData bool) (plan.Handle, error) {
	defer b.enter("df_from_buffers", "columns", len(cols), "copy", copyData)()

	series := make([]*engine.Series, len(cols))
	for i, c := range cols {
		s, err := bufferSeries(c.Name, c.Data, copyData, b.mem)
		if err != nil {
			return 0, err
		}
		series[i] = s
	}
	df, err := engine.NewDataFrame(series)
	if err != nil {
		return 0, errorWithDesc(err, "cannot create dataframe")
	}
	return b.wrap(KindDataFrame, df), nil
}

// ReadCSV 读取 CSV 文件
func (b *Bridge) ReadCSV(path string, opts plan.ReadCSV) (plan.Handle, error) {
	defer b.enter("read_csv", "path", path)()

	schema := make([]engine.Field, len(opts.Schema))
	for i, f := range opts.Schema {
		dt, err := toEngineType(f.DataType)
		if err != nil {
			return 0, err
		}
		schema[i] = engine.Field{Name: f.Name, Type: dt}
	}
	copts := engine.CSVOptions{
		SkipRows:  opts.SkipRows,
		HasHeader: opts.HasHeader,
		Columns:   append([]string(nil), opts.Columns...),
		Schema:    schema,
		NThreads:  opts.NThreads,
		Mem:       b.mem,
	}
	df, err := blocking(b, "read_csv", func() (*engine.DataFrame, error) {
		return engine.ReadCSV(path, copts)
	})
	if err != nil {
		return 0, errorWithDesc(err, "cannot read csv")
	}
	return b.wrap(KindDataFrame, df), nil
}

// ReadParquet 读取 parquet 文件
func (b *Bridge) ReadParquet(path string, rechunk, parallel bool) (plan.Handle, error) {
	defer b.enter("read_parquet", "path", path)()

	df, err := blocking(b, "read_parquet", func() (*engine.DataFrame, error) {
		return engine.ReadParquet(path, rechunk, parallel, b.mem)
	})
	if err != nil {
		return 0, errorWithDesc(err, "cannot read parquet")
	}
	return b.wrap(KindDataFrame, df), nil
}

// WriteParquet 写出 parquet 文件，返回写入的字节数
func (b *Bridge) WriteParquet(h plan.Handle, path string) (int64, error) {
	defer b.enter("write_parquet", "handle", h, "path", path)()

	df, err := b.dataFrame(h)
	if err != nil {
		return 0, err
	}
	n, err := blocking(b, "write_parquet", func() (int64, error) {
		return engine.WriteParquet(df, path)
	})
	if err != nil {
		return 0, errorWithDesc(err, "cannot write parquet")
	}
	return n, nil
}

func (b *Bridge) DataFrameHeight(h plan.Handle) (int, error) {
	defer b.enter("df_height", "handle", h)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, err
	}
	return df.Height(), nil
}

func (b *Bridge) DataFrameWidth(h plan.Handle) (int, error) {
	defer b.enter("df_width", "handle", h)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, err
	}
	return df.Width(), nil
}

// DataFrameShape 返回 (行数, 列数)
func (b *Bridge) DataFrameShape(h plan.Handle) (int, int, error) {
	defer b.enter("df_shape", "handle", h)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, 0, err
	}
	rows, cols := df.Shape()
	return rows, cols, nil
}

func (b *Bridge) DataFrameColumnNames(h plan.Handle) ([]string, error) {
	defer b.enter("df_columns", "handle", h)()
	df, err := b.dataFrame(h)
	if err != nil {
		return nil, err
	}
	return df.ColumnNames(), nil
}

// DataFrameGet 按列序号和行号取值；空值返回 nil
func (b *Bridge) DataFrameGet(h plan.Handle, col, row int) (plan.AnyValue, error) {
	defer b.enter("df_get", "handle", h)()
	df, err := b.dataFrame(h)
	if err != nil {
		return nil, err
	}
	s, ok := df.Column(col)
	if !ok {
		return nil, errorMsg(ErrInvalidArgument, "column index %d is out of bounds for width %d", col, df.Width())
	}
	return getValue(s, row)
}

// DataFrameGetByName 按列名和行号取值；空值返回 nil
func (b *Bridge) DataFrameGetByName(h plan.Handle, name string, row int) (plan.AnyValue, error) {
	defer b.enter("df_get_by_name", "handle", h, "column", name)()
	df, err := b.dataFrame(h)
	if err != nil {
		return nil, err
	}
	s, err := df.ColumnByName(name)
	if err != nil {
		return nil, errorWithDesc(err, "cannot get column")
	}
	return getValue(s, row)
}

func getValue(s *engine.Series, row int) (plan.AnyValue, error) {
	v, err := s.Get(row)
	if err != nil {
		return nil, errorWithDesc(err, "cannot get value")
	}
	return toHostValue(v)
}

// DataFrameGetRow 取一整行
func (b *Bridge) DataFrameGetRow(h plan.Handle, row int) ([]plan.AnyValue, error) {
	defer b.enter("df_get_row", "handle", h, "row", row)()
	df, err := b.dataFrame(h)
	if err != nil {
		return nil, err
	}
	vals, err := df.Row(row)
	if err != nil {
		return nil, errorWithDesc(err, "cannot get row")
	}
	out := make([]plan.AnyValue, len(vals))
	for i, v := range vals {
		if out[i], err = toHostValue(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DataFrameColumn 按序号取列；越界时返回 false
func (b *Bridge) DataFrameColumn(h plan.Handle, idx int) (plan.Handle, bool, error) {
	defer b.enter("df_column", "handle", h, "index", idx)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, false, err
	}
	s, ok := df.Column(idx)
	if !ok {
		return 0, false, nil
	}
	return b.wrap(KindSeries, s.Clone()), true, nil
}

// DataFrameColumnByName 按列名取列；不存在时返回 false
func (b *Bridge) DataFrameColumnByName(h plan.Handle, name string) (plan.Handle, bool, error) {
	defer b.enter("df_column_by_name", "handle", h, "column", name)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, false, err
	}
	s, err := df.ColumnByName(name)
	if err != nil {
		return 0, false, nil
	}
	return b.wrap(KindSeries, s.Clone()), true, nil
}

// DataFrameString 表格形式的文本
func (b *Bridge) DataFrameString(h plan.Handle) (string, error) {
	defer b.enter("df_string", "handle", h)()
	df, err := b.dataFrame(h)
	if err != nil {
		return "", err
	}
	return df.String(), nil
}

// DataFramePrint 打印到标准输出
func (b *Bridge) DataFramePrint(h plan.Handle) error {
	defer b.enter("df_print", "handle", h)()
	df, err := b.dataFrame(h)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, df.String())
	return err
}

func (b *Bridge) DataFrameSelect(h plan.Handle, names []string) (plan.Handle, error) {
	defer b.enter("df_select", "handle", h, "columns", names)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, err
	}
	out, err := df.Select(names)
	if err != nil {
		return 0, errorWithDesc(err, "cannot select columns")
	}
	return b.wrap(KindDataFrame, out), nil
}

// DataFrameDrop 删除列，不存在的列名忽略
func (b *Bridge) DataFrameDrop(h plan.Handle, names []string) (plan.Handle, error) {
	defer b.enter("df_drop", "handle", h, "columns", names)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, err
	}
	return b.wrap(KindDataFrame, df.Drop(names)), nil
}

// DataFrameRenameInPlace 原地重命名列
func (b *Bridge) DataFrameRenameInPlace(h plan.Handle, old, name string) error {
	defer b.enter("df_rename", "handle", h, "old", old, "new", name)()
	e, err := b.handles.Exclusive(h, KindDataFrame)
	if err != nil {
		return err
	}
	if err := e.Value.(*engine.DataFrame).Rename(old, name); err != nil {
		return errorWithDesc(err, "cannot rename column")
	}
	return nil
}

// DataFrameWithColumn 按列名替换或追加一列，长度必须与行数一致
func (b *Bridge) DataFrameWithColumn(h, series plan.Handle) (plan.Handle, error) {
	defer b.enter("df_with_column", "handle", h, "series", series)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, err
	}
	s, err := b.series(series)
	if err != nil {
		return 0, err
	}
	out, err := df.WithColumn(s)
	if err != nil {
		return 0, errorWithDesc(err, "cannot add column")
	}
	return b.wrap(KindDataFrame, out), nil
}

func (b *Bridge) DataFrameSort(h plan.Handle, by []string, opts plan.SortMultipleOptions) (plan.Handle, error) {
	defer b.enter("df_sort", "handle", h, "by", by)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, err
	}
	eopts := toEngineSortMultiple(opts)
	out, err := blocking(b, "df_sort", func() (*engine.DataFrame, error) {
		return df.Sort(by, eopts)
	})
	if err != nil {
		return 0, errorWithDesc(err, "cannot sort")
	}
	return b.wrap(KindDataFrame, out), nil
}

// DataFrameSortInPlace 排序后替换句柄指向的对象
func (b *Bridge) DataFrameSortInPlace(h plan.Handle, by []string, opts plan.SortMultipleOptions) error {
	defer b.enter("df_sort_in_place", "handle", h, "by", by)()
	e, err := b.handles.Exclusive(h, KindDataFrame)
	if err != nil {
		return err
	}
	df := e.Value.(*engine.DataFrame)
	eopts := toEngineSortMultiple(opts)
	out, err := blocking(b, "df_sort_in_place", func() (*engine.DataFrame, error) {
		return df.Sort(by, eopts)
	})
	if err != nil {
		return errorWithDesc(err, "cannot sort")
	}
	e.Value = out
	return nil
}

// DataFrameSlice 切片：负偏移从末尾计，越界部分截断，负长度取到末尾
func (b *Bridge) DataFrameSlice(h plan.Handle, offset int64, length int) (plan.Handle, error) {
	defer b.enter("df_slice", "handle", h, "offset", offset, "length", length)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, err
	}
	return b.wrap(KindDataFrame, df.Slice(offset, length)), nil
}

// DataFrameFilter 按单个 (列, 比较, 标量) 条件过滤
func (b *Bridge) DataFrameFilter(h plan.Handle, column string, cmp plan.Comparison, value plan.AnyValue) (plan.Handle, error) {
	return b.DataFrameFilterMulti(h, []plan.ColumnFilter{{Column: column, Cmp: cmp, Value: value}})
}

type columnPredicate struct {
	column string
	op     engine.Operator
	value  engine.AnyValue
}

// DataFrameFilterMulti 依次应用多个条件，结果为各条件同时成立的行
func (b *Bridge) DataFrameFilterMulti(h plan.Handle, filters []plan.ColumnFilter) (plan.Handle, error) {
	defer b.enter("df_filter", "handle", h, "predicates", len(filters))()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, err
	}
	preds := make([]columnPredicate, len(filters))
	for i, f := range filters {
		op, err := toEngineComparison(f.Cmp)
		if err != nil {
			return 0, err
		}
		v, err := toEngineValue(f.Value)
		if err != nil {
			return 0, err
		}
		preds[i] = columnPredicate{column: f.Column, op: op, value: v}
	}
	out, err := blocking(b, "df_filter", func() (*engine.DataFrame, error) {
		cur := df
		for _, p := range preds {
			next, err := filterColumn(cur, p)
			if err != nil {
				return nil, err
			}
			cur = next
		}
		if cur == df {
			return df.Clone(), nil
		}
		return cur, nil
	})
	if err != nil {
		return 0, errorWithDesc(err, "cannot filter")
	}
	return b.wrap(KindDataFrame, out), nil
}

func filterColumn(df *engine.DataFrame, p columnPredicate) (*engine.DataFrame, error) {
	col, err := df.ColumnByName(p.column)
	if err != nil {
		return nil, err
	}
	rhs, err := engine.FromValues(p.column, p.value.Type, []engine.AnyValue{p.value})
	if err != nil {
		return nil, err
	}
	mask, err := engine.BinaryOp(col, rhs, p.op)
	if err != nil {
		return nil, err
	}
	return df.Filter(mask)
}

// DataFrameUpsample 按时间列补齐缺失的时间点；分组并行执行，输出按分组键排序
func (b *Bridge) DataFrameUpsample(h plan.Handle, by []string, timeColumn string, every, offset plan.Duration) (plan.Handle, error) {
	return b.upsample(h, by, timeColumn, every, offset, false)
}

// DataFrameUpsampleStable 同 DataFrameUpsample，但保持分组首次出现的顺序
func (b *Bridge) DataFrameUpsampleStable(h plan.Handle, by []string, timeColumn string, every, offset plan.Duration) (plan.Handle, error) {
	return b.upsample(h, by, timeColumn, every, offset, true)
}

func (b *Bridge) upsample(h plan.Handle, by []string, timeColumn string, every, offset plan.Duration, stable bool) (plan.Handle, error) {
	defer b.enter("df_upsample", "handle", h, "time_column", timeColumn, "stable", stable)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, err
	}
	ev, err := toEngineDuration(every)
	if err != nil {
		return 0, err
	}
	off, err := toEngineDuration(offset)
	if err != nil {
		return 0, err
	}
	out, err := blocking(b, "df_upsample", func() (*engine.DataFrame, error) {
		return df.Upsample(by, timeColumn, ev, off, stable)
	})
	if err != nil {
		return 0, errorWithDesc(err, "cannot upsample")
	}
	return b.wrap(KindDataFrame, out), nil
}

// DataFrameEqual 比较两个 DataFrame，空值与空值相等
func (b *Bridge) DataFrameEqual(h, other plan.Handle) (bool, error) {
	defer b.enter("df_equal", "left", h, "right", other)()
	l, err := b.dataFrame(h)
	if err != nil {
		return false, err
	}
	r, err := b.dataFrame(other)
	if err != nil {
		return false, err
	}
	return blocking(b, "df_equal", func() (bool, error) {
		return l.EqualsMissing(r), nil
	})
}

// DataFrameRechunk 每列合并为单个块
func (b *Bridge) DataFrameRechunk(h plan.Handle) (plan.Handle, error) {
	defer b.enter("df_rechunk", "handle", h)()
	df, err := b.dataFrame(h)
	if err != nil {
		return 0, err
	}
	out, err := blocking(b, "df_rechunk", func() (*engine.DataFrame, error) {
		return df.Rechunk(), nil
	})
	if err != nil {
		return 0, errorWithDesc(err, "cannot rechunk")
	}
	return b.wrap(KindDataFrame, out), nil
}

// DataFrameBuffers 导出所有列为批量缓冲
func (b *Bridge) DataFrameBuffers(h plan.Handle) ([]plan.NamedBuffer, error) {
	defer b.enter("df_buffers", "handle", h)()
	df, err := b.dataFrame(h)
	if err != nil {
		return nil, err
	}
	out := make([]plan.NamedBuffer, df.Width())
	for i, s := range df.Columns() {
		buf, err := seriesBuffer(s)
		if err != nil {
			return nil, err
		}
		out[i] = plan.NamedBuffer{Name: s.Name(), Data: buf}
	}
	return out, nil
}
