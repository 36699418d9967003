package bridge

import (
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/isesword/framebridge/internal/engine"
	"github.com/isesword/framebridge/plan"
)

// toHostValue 引擎标量转宿主标量；空值返回 nil
func toHostValue(v engine.AnyValue) (plan.AnyValue, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch v.Type.Kind {
	case engine.KindInt64:
		return plan.Int64Value(v.Int), nil
	case engine.KindFloat32:
		return plan.Float32Value(v.Float), nil
	case engine.KindFloat64:
		return plan.Float64Value(v.Float), nil
	case engine.KindBoolean:
		return plan.BoolValue(v.Bool), nil
	case engine.KindDatetime:
		return plan.DatetimeValue{Value: v.Int, Unit: fromEngineUnit(v.Type.Unit)}, nil
	}
	return nil, errorMsg(ErrUnsupported, "AnyValue for dtype %s not implemented", v.Type)
}

// toEngineValue 宿主标量转引擎标量
func toEngineValue(v plan.AnyValue) (engine.AnyValue, error) {
	switch v := v.(type) {
	case plan.Int64Value:
		return engine.IntValue(int64(v)), nil
	case plan.Float32Value:
		return engine.Float32Value(float32(v)), nil
	case plan.Float64Value:
		return engine.FloatValue(float64(v)), nil
	case plan.BoolValue:
		return engine.BoolValue(bool(v)), nil
	case plan.DatetimeValue:
		u, err := toEngineUnit(v.Unit)
		if err != nil {
			return engine.AnyValue{}, err
		}
		return engine.DatetimeValue(v.Value, u), nil
	case nil:
		return engine.AnyValue{}, errorMsg(ErrInvalidArgument, "missing scalar value")
	}
	return engine.AnyValue{}, errorMsg(ErrInvalidArgument, "unknown scalar %T", v)
}

// literalOf 宿主标量注入为字面量表达式
func literalOf(v plan.AnyValue) (engine.Expr, error) {
	ev, err := toEngineValue(v)
	if err != nil {
		return nil, err
	}
	return engine.Lit(ev), nil
}

type fixedWidth interface {
	int64 | float32 | float64
}

// hostBytes 把宿主切片视为字节，检查长度和对齐
func hostBytes[T fixedWidth](v []T) ([]byte, error) {
	if len(v) == 0 {
		return nil, nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	p := unsafe.Pointer(unsafe.SliceData(v))
	if uintptr(p)%uintptr(size) != 0 {
		return nil, errorMsg(ErrInvalidArgument, "buffer is not aligned to %d bytes", size)
	}
	raw := unsafe.Slice((*byte)(p), len(v)*size)
	if len(raw) != len(v)*size {
		return nil, errorMsg(ErrInvalidArgument, "buffer size mismatch")
	}
	return raw, nil
}

// aliasArray 构造值缓冲直接引用宿主内存的数组
func aliasArray[T fixedWidth](dt arrow.DataType, v []T) (arrow.Array, error) {
	raw, err := hostBytes(v)
	if err != nil {
		return nil, err
	}
	data := array.NewData(dt, len(v), []*memory.Buffer{nil, memory.NewBufferBytes(raw)}, nil, 0, 0)
	defer data.Release()
	return array.MakeFromData(data), nil
}

func packBools(v []uint8, mem memory.Allocator) arrow.Array {
	bld := array.NewBooleanBuilder(mem)
	defer bld.Release()
	bld.Reserve(len(v))
	for _, x := range v {
		bld.UnsafeAppend(x != 0)
	}
	return bld.NewArray()
}

// bufferArray 批量缓冲转 Arrow 数组。copyData 为 false 时数值缓冲零拷贝，
// 此后宿主在句柄存活期间不得修改该切片。布尔缓冲总是按位打包。
func bufferArray(buf plan.Buffer, copyData bool, mem memory.Allocator) (arrow.Array, error) {
	switch v := buf.(type) {
	case plan.BoolBuffer:
		return packBools(v, mem), nil
	case plan.Int64Buffer:
		if !copyData {
			return aliasArray(arrow.PrimitiveTypes.Int64, []int64(v))
		}
		bld := array.NewInt64Builder(mem)
		defer bld.Release()
		bld.AppendValues(v, nil)
		return bld.NewArray(), nil
	case plan.Float32Buffer:
		if !copyData {
			return aliasArray(arrow.PrimitiveTypes.Float32, []float32(v))
		}
		bld := array.NewFloat32Builder(mem)
		defer bld.Release()
		bld.AppendValues(v, nil)
		return bld.NewArray(), nil
	case plan.Float64Buffer:
		if !copyData {
			return aliasArray(arrow.PrimitiveTypes.Float64, []float64(v))
		}
		bld := array.NewFloat64Builder(mem)
		defer bld.Release()
		bld.AppendValues(v, nil)
		return bld.NewArray(), nil
	case nil:
		return nil, errorMsg(ErrInvalidArgument, "missing buffer")
	}
	return nil, errorMsg(ErrInvalidArgument, "unknown buffer %T", buf)
}

func bufferSeries(name string, buf plan.Buffer, copyData bool, mem memory.Allocator) (*engine.Series, error) {
	arr, err := bufferArray(buf, copyData, mem)
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	s, err := engine.NewSeries(name, arr)
	if err != nil {
		return nil, errorWithDesc(err, "cannot build series")
	}
	return s, nil
}

// chunkValues 单个数组的值视图（考虑 offset）
func chunkValues[T fixedWidth](arr arrow.Array) []T {
	bufs := arr.Data().Buffers()
	if arr.Len() == 0 || len(bufs) < 2 || bufs[1] == nil {
		return []T{}
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	raw := bufs[1].Bytes()
	all := unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), len(raw)/size)
	return all[arr.Data().Offset() : arr.Data().Offset()+arr.Len()]
}

// fixedValues 无空值时导出数值：单块直接返回视图，多块拷贝拼接
func fixedValues[T fixedWidth](s *engine.Series) ([]T, error) {
	if n := s.NullCount(); n > 0 {
		return nil, errorMsg(ErrInvalidArgument, "series %q contains %d null values", s.Name(), n)
	}
	chunks := s.Chunks()
	if len(chunks) == 1 {
		return chunkValues[T](chunks[0]), nil
	}
	out := make([]T, 0, s.Len())
	for _, c := range chunks {
		out = append(out, chunkValues[T](c)...)
	}
	return out, nil
}

// seriesBuffer 列导出为批量缓冲。
// 布尔列总是拷贝，每个元素一个字节；空值位置的字节不做保证，也不报错。
func seriesBuffer(s *engine.Series) (plan.Buffer, error) {
	switch s.DType().Kind {
	case engine.KindInt64, engine.KindDatetime:
		v, err := fixedValues[int64](s)
		if err != nil {
			return nil, err
		}
		return plan.Int64Buffer(v), nil
	case engine.KindFloat32:
		v, err := fixedValues[float32](s)
		if err != nil {
			return nil, err
		}
		return plan.Float32Buffer(v), nil
	case engine.KindFloat64:
		v, err := fixedValues[float64](s)
		if err != nil {
			return nil, err
		}
		return plan.Float64Buffer(v), nil
	case engine.KindBoolean:
		out := make(plan.BoolBuffer, 0, s.Len())
		for _, c := range s.Chunks() {
			arr := c.(*array.Boolean)
			for i := 0; i < arr.Len(); i++ {
				if arr.Value(i) {
					out = append(out, 1)
				} else {
					out = append(out, 0)
				}
			}
		}
		return out, nil
	}
	return nil, errorMsg(ErrUnsupported, "cannot extract a buffer from series %q of dtype %s", s.Name(), s.DType())
}
