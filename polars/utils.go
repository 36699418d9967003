package polars

import (
	"bytes"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/isesword/framebridge/plan"
)

// parseArrowIPC 解析 Arrow IPC 流为行（每行一个 map）
func parseArrowIPC(data []byte) ([]map[string]interface{}, error) {
	r, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open ipc stream: %w", err)
	}
	defer r.Release()

	var result []map[string]interface{}
	for r.Next() {
		rb := r.RecordBatch()
		schema := rb.Schema()
		for i := 0; i < int(rb.NumRows()); i++ {
			row := make(map[string]interface{}, schema.NumFields())
			for j, f := range schema.Fields() {
				row[f.Name] = cellValue(rb.Column(j), i)
			}
			result = append(result, row)
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ipc stream: %w", err)
	}
	return result, nil
}

// cellValue 取单元格的 Go 值；空值为 nil
func cellValue(arr arrow.Array, i int) interface{} {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Uint64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Boolean:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit)
	default:
		return arr.ValueStr(i)
	}
}

// toAnyValue 把 Go 标量转为引擎标量
func toAnyValue(v interface{}) (plan.AnyValue, error) {
	switch x := v.(type) {
	case plan.AnyValue:
		return x, nil
	case int:
		return plan.Int64Value(x), nil
	case int32:
		return plan.Int64Value(x), nil
	case int64:
		return plan.Int64Value(x), nil
	case float32:
		return plan.Float32Value(x), nil
	case float64:
		return plan.Float64Value(x), nil
	case bool:
		return plan.BoolValue(x), nil
	case time.Time:
		return plan.DatetimeValue{Value: x.UnixMicro(), Unit: plan.Microseconds}, nil
	}
	return nil, fmt.Errorf("unsupported scalar type %T", v)
}

// fromAnyValue 引擎标量转为 Go 值；时间戳转为 UTC 的 time.Time
func fromAnyValue(v plan.AnyValue) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case plan.Int64Value:
		return int64(x)
	case plan.Float32Value:
		return float64(x)
	case plan.Float64Value:
		return float64(x)
	case plan.BoolValue:
		return bool(x)
	case plan.DatetimeValue:
		switch x.Unit {
		case plan.Nanoseconds:
			return time.Unix(0, x.Value).UTC()
		case plan.Milliseconds:
			return time.UnixMilli(x.Value).UTC()
		default:
			return time.UnixMicro(x.Value).UTC()
		}
	}
	return v
}
