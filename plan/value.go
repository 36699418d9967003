package plan

import "fmt"

// Handle 原生对象的不透明引用。低 32 位是槽位，高 32 位是代数；0 永远无效。
type Handle uint64

func (h Handle) String() string {
	return fmt.Sprintf("handle(%d@%d)", uint32(h), uint32(h>>32))
}

// AnyValue 标量值（封闭和类型），只覆盖宿主能表示的五种类型
type AnyValue interface {
	isAnyValue()
	DataType() DataType
}

type Int64Value int64

// Float32Value 宿主侧总是以 64 位表示
type Float32Value float64

type Float64Value float64

type BoolValue bool

type DatetimeValue struct {
	Value int64
	Unit  TimeUnit
}

func (Int64Value) isAnyValue()    {}
func (Float32Value) isAnyValue()  {}
func (Float64Value) isAnyValue()  {}
func (BoolValue) isAnyValue()     {}
func (DatetimeValue) isAnyValue() {}

func (Int64Value) DataType() DataType      { return Int64 }
func (Float32Value) DataType() DataType    { return Float32 }
func (Float64Value) DataType() DataType    { return Float64 }
func (BoolValue) DataType() DataType       { return Boolean }
func (v DatetimeValue) DataType() DataType { return Datetime(v.Unit) }
