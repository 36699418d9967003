// Package plan 是宿主侧的表达式语言镜像：封闭的标签树、标量/批量值和各类选项记录。
// 节点只描述计算，不持有任何原生对象；由 bridge.Translator 翻译为引擎节点。
package plan

import "fmt"

// TimeUnit 时间单位
type TimeUnit uint8

const (
	Nanoseconds TimeUnit = iota
	Microseconds
	Milliseconds
)

func (u TimeUnit) String() string {
	switch u {
	case Nanoseconds:
		return "ns"
	case Microseconds:
		return "μs"
	case Milliseconds:
		return "ms"
	}
	return fmt.Sprintf("TimeUnit(%d)", uint8(u))
}

// TypeKind 宿主可表达的数据类型种类
type TypeKind uint8

const (
	TypeInt64 TypeKind = iota
	TypeFloat32
	TypeFloat64
	TypeBoolean
	TypeDatetime
)

// DataType 数据类型标签；Unit 仅对 Datetime 有意义
type DataType struct {
	Kind TypeKind
	Unit TimeUnit
}

var (
	Int64   = DataType{Kind: TypeInt64}
	Float32 = DataType{Kind: TypeFloat32}
	Float64 = DataType{Kind: TypeFloat64}
	Boolean = DataType{Kind: TypeBoolean}
)

// Datetime 返回指定单位的时间戳类型
func Datetime(unit TimeUnit) DataType {
	return DataType{Kind: TypeDatetime, Unit: unit}
}

func (d DataType) String() string {
	switch d.Kind {
	case TypeInt64:
		return "Int64"
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeBoolean:
		return "Boolean"
	case TypeDatetime:
		return fmt.Sprintf("Datetime(%s)", d.Unit)
	}
	return fmt.Sprintf("DataType(%d)", uint8(d.Kind))
}
