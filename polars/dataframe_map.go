package polars

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/isesword/framebridge/bridge"
	"github.com/isesword/framebridge/plan"
)

// NewDataFrame 由批量缓冲创建 DataFrame（复制数据）
func NewDataFrame(brg *bridge.Bridge, cols ...plan.NamedBuffer) (*DataFrame, error) {
	h, err := brg.DataFrameFromBuffers(cols, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create DataFrame: %w", err)
	}
	return newDataFrame(h, brg), nil
}

// NewDataFrameZeroCopy 零拷贝创建 DataFrame，DataFrame 释放之前不得修改缓冲
func NewDataFrameZeroCopy(brg *bridge.Bridge, cols ...plan.NamedBuffer) (*DataFrame, error) {
	h, err := brg.DataFrameFromBuffers(cols, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create DataFrame: %w", err)
	}
	return newDataFrame(h, brg), nil
}

// NewDataFrameFromMap 从 map 创建 DataFrame（类似 py-polars 的 DataFrame(dict) 方式）
//
// 实现思路：
//
//  1. Go 侧按列推断类型，用 Arrow builder 构造一个 RecordBatch
//
//  2. 序列化为 Arrow IPC 流交给引擎，数据驻留在引擎端，Go 只持有句柄
//
//  3. 列按名称排序（map 无序）
//
//     data 格式: map[string]interface{}{
//     "col1": []int64{1, 2, 3},
//     "col2": []string{"a", "b", "c"},
//     "col3": []interface{}{1, nil, 3},  // 支持 nil
//     }
func NewDataFrameFromMap(brg *bridge.Bridge, data map[string]interface{}) (*DataFrame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data is empty")
	}

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	mem := memory.NewGoAllocator()
	fields := make([]arrow.Field, len(names))
	arrays := make([]arrow.Array, len(names))
	defer func() {
		for _, a := range arrays {
			if a != nil {
				a.Release()
			}
		}
	}()

	rows := -1
	for i, name := range names {
		values, err := convertColumnValues(data[name])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		if rows >= 0 && len(values) != rows {
			return nil, fmt.Errorf("column %s: length %d does not match %d", name, len(values), rows)
		}
		rows = len(values)

		arr, err := buildColumn(mem, values)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		arrays[i] = arr
		fields[i] = arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
	}

	schema := arrow.NewSchema(fields, nil)
	rb := array.NewRecordBatch(schema, arrays, int64(rows))
	defer rb.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := w.Write(rb); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to encode columns: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode columns: %w", err)
	}

	return FromIPC(brg, buf.Bytes())
}

// FromIPC 由 Arrow IPC 流创建 DataFrame
func FromIPC(brg *bridge.Bridge, data []byte) (*DataFrame, error) {
	h, err := brg.DataFrameFromIPC(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create DataFrame: %w", err)
	}
	return newDataFrame(h, brg), nil
}

// convertColumnValues 转换列数据为 []interface{}
func convertColumnValues(colValues interface{}) ([]interface{}, error) {
	// 如果已经是 []interface{}，直接返回
	if slice, ok := colValues.([]interface{}); ok {
		return slice, nil
	}

	v := reflect.ValueOf(colValues)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("column data must be a slice, got %T", colValues)
	}

	result := make([]interface{}, v.Len())
	for i := range result {
		val := v.Index(i)

		// 处理指针类型（nil 值）
		if val.Kind() == reflect.Ptr {
			if val.IsNil() {
				result[i] = nil
			} else {
				result[i] = val.Elem().Interface()
			}
		} else {
			result[i] = val.Interface()
		}
	}

	return result, nil
}

// inferType 按非空值推断列类型；整数与浮点混合时取 Float64
func inferType(values []interface{}) (arrow.DataType, error) {
	var dt arrow.DataType = arrow.Null
	for _, v := range values {
		var cur arrow.DataType
		switch v.(type) {
		case nil:
			continue
		case int, int8, int16, int32, int64:
			cur = arrow.PrimitiveTypes.Int64
		case float32:
			cur = arrow.PrimitiveTypes.Float32
		case float64:
			cur = arrow.PrimitiveTypes.Float64
		case bool:
			cur = arrow.FixedWidthTypes.Boolean
		case string:
			cur = arrow.BinaryTypes.String
		case time.Time:
			cur = &arrow.TimestampType{Unit: arrow.Microsecond}
		default:
			return nil, fmt.Errorf("unsupported value type %T", v)
		}
		switch {
		case dt.ID() == arrow.NULL || arrow.TypeEqual(dt, cur):
			dt = cur
		case isNumeric(dt) && isNumeric(cur):
			dt = arrow.PrimitiveTypes.Float64
		default:
			return nil, fmt.Errorf("mixed value types %s and %s", dt, cur)
		}
	}
	return dt, nil
}

func isNumeric(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT64, arrow.FLOAT32, arrow.FLOAT64:
		return true
	}
	return false
}

// buildColumn 用 Arrow builder 构造一列
func buildColumn(mem memory.Allocator, values []interface{}) (arrow.Array, error) {
	dt, err := inferType(values)
	if err != nil {
		return nil, err
	}
	b := array.NewBuilder(mem, dt)
	defer b.Release()

	for _, v := range values {
		if v == nil {
			b.AppendNull()
			continue
		}
		switch bb := b.(type) {
		case *array.Int64Builder:
			bb.Append(reflect.ValueOf(v).Int())
		case *array.Float32Builder:
			bb.Append(v.(float32))
		case *array.Float64Builder:
			if f, ok := v.(float64); ok {
				bb.Append(f)
			} else if f, ok := v.(float32); ok {
				bb.Append(float64(f))
			} else {
				bb.Append(float64(reflect.ValueOf(v).Int()))
			}
		case *array.BooleanBuilder:
			bb.Append(v.(bool))
		case *array.StringBuilder:
			bb.Append(v.(string))
		case *array.TimestampBuilder:
			bb.Append(arrow.Timestamp(v.(time.Time).UnixMicro()))
		}
	}
	return b.NewArray(), nil
}

// ReadCSV 读取 CSV 文件
// 示例: ReadCSV(brg, "sales.csv", plan.ReadCSV{HasHeader: true})
func ReadCSV(brg *bridge.Bridge, path string, opts plan.ReadCSV) (*DataFrame, error) {
	h, err := brg.ReadCSV(path, opts)
	if err != nil {
		return nil, err
	}
	return newDataFrame(h, brg), nil
}

// ReadParquet 读取 parquet 文件
func ReadParquet(brg *bridge.Bridge, path string) (*DataFrame, error) {
	h, err := brg.ReadParquet(path, true, true)
	if err != nil {
		return nil, err
	}
	return newDataFrame(h, brg), nil
}

// ScanCSV 读取 CSV 并转为 LazyFrame；读取失败时错误在 Collect 时返回
func ScanCSV(brg *bridge.Bridge, path string, opts plan.ReadCSV) *LazyFrame {
	df, err := ReadCSV(brg, path, opts)
	if err != nil {
		return &LazyFrame{brg: brg, err: err}
	}
	defer df.Free()
	return df.Lazy()
}

// ScanParquet 读取 parquet 并转为 LazyFrame
func ScanParquet(brg *bridge.Bridge, path string) *LazyFrame {
	df, err := ReadParquet(brg, path)
	if err != nil {
		return &LazyFrame{brg: brg, err: err}
	}
	defer df.Free()
	return df.Lazy()
}
