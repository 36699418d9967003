package engine

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Kind is the physical family of a DataType.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInt64
	KindUInt64
	KindFloat32
	KindFloat64
	KindString
	KindDatetime
	KindList
)

// TimeUnit is the resolution of a Datetime column.
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
	default:
		return "ms"
	}
}

// perSecond returns how many ticks of u fit in one second.
func (u TimeUnit) perSecond() int64 {
	switch u {
	case Nanoseconds:
		return 1_000_000_000
	case Microseconds:
		return 1_000_000
	default:
		return 1_000
	}
}

func (u TimeUnit) arrow() arrow.TimeUnit {
	switch u {
	case Nanoseconds:
		return arrow.Nanosecond
	case Microseconds:
		return arrow.Microsecond
	default:
		return arrow.Millisecond
	}
}

// DataType describes the logical type of a Series.
type DataType struct {
	Kind  Kind
	Unit  TimeUnit  // Datetime only
	Inner *DataType // List only
}

var (
	Null    = DataType{Kind: KindNull}
	Boolean = DataType{Kind: KindBoolean}
	Int64   = DataType{Kind: KindInt64}
	UInt64  = DataType{Kind: KindUInt64}
	Float32 = DataType{Kind: KindFloat32}
	Float64 = DataType{Kind: KindFloat64}
	String  = DataType{Kind: KindString}
)

func Datetime(unit TimeUnit) DataType {
	return DataType{Kind: KindDatetime, Unit: unit}
}

func List(inner DataType) DataType {
	return DataType{Kind: KindList, Inner: &inner}
}

func (d DataType) Equal(o DataType) bool {
	if d.Kind != o.Kind {
		return false
	}
	switch d.Kind {
	case KindDatetime:
		return d.Unit == o.Unit
	case KindList:
		return d.Inner.Equal(*o.Inner)
	}
	return true
}

func (d DataType) String() string {
	switch d.Kind {
	case KindNull:
		return "null"
	case KindBoolean:
		return "bool"
	case KindInt64:
		return "i64"
	case KindUInt64:
		return "u64"
	case KindFloat32:
		return "f32"
	case KindFloat64:
		return "f64"
	case KindString:
		return "str"
	case KindDatetime:
		return fmt.Sprintf("datetime[%s]", d.Unit)
	case KindList:
		return fmt.Sprintf("list[%s]", d.Inner)
	}
	return "unknown"
}

func (d DataType) IsInteger() bool { return d.Kind == KindInt64 || d.Kind == KindUInt64 }
func (d DataType) IsFloat() bool { return d.Kind == KindFloat32 || d.Kind == KindFloat64 }
func (d DataType) IsNumeric() bool { return d.IsInteger() || d.IsFloat() }

// ToArrow returns the arrow type used to store d.
func (d DataType) ToArrow() arrow.DataType {
	switch d.Kind {
	case KindNull:
		return arrow.Null
	case KindBoolean:
		return arrow.FixedWidthTypes.Boolean
	case KindInt64:
		return arrow.PrimitiveTypes.Int64
	case KindUInt64:
		return arrow.PrimitiveTypes.Uint64
	case KindFloat32:
		return arrow.PrimitiveTypes.Float32
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64
	case KindString:
		return arrow.BinaryTypes.String
	case KindDatetime:
		return &arrow.TimestampType{Unit: d.Unit.arrow()}
	case KindList:
		return arrow.ListOf(d.Inner.ToArrow())
	}
	return arrow.Null
}

// FromArrow maps an arrow type that the engine stores natively.
// Types that need a cast first (narrow ints, dates, large strings) report false.
func FromArrow(dt arrow.DataType) (DataType, bool) {
	switch dt.ID() {
	case arrow.NULL:
		return Null, true
	case arrow.BOOL:
		return Boolean, true
	case arrow.INT64:
		return Int64, true
	case arrow.UINT64:
		return UInt64, true
	case arrow.FLOAT32:
		return Float32, true
	case arrow.FLOAT64:
		return Float64, true
	case arrow.STRING:
		return String, true
	case arrow.TIMESTAMP:
		switch dt.(*arrow.TimestampType).Unit {
		case arrow.Nanosecond:
			return Datetime(Nanoseconds), true
		case arrow.Microsecond:
			return Datetime(Microseconds), true
		case arrow.Millisecond:
			return Datetime(Milliseconds), true
		}
	case arrow.LIST:
		inner, ok := FromArrow(dt.(*arrow.ListType).Elem())
		if ok {
			return List(inner), true
		}
	}
	return DataType{}, false
}

// normalizedType picks the storage type for an arrow type FromArrow rejects.
func normalizedType(dt arrow.DataType) (DataType, bool) {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32:
		return Int64, true
	case arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return UInt64, true
	case arrow.FLOAT16:
		return Float32, true
	case arrow.LARGE_STRING:
		return String, true
	case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return Datetime(Milliseconds), true
	}
	return DataType{}, false
}

// supertype returns the type both operands are cast to before a binary kernel.
func supertype(a, b DataType) (DataType, bool) {
	switch {
	case a.Equal(b):
		return a, true
	case a.Kind == KindNull:
		return b, true
	case b.Kind == KindNull:
		return a, true
	case a.Kind == KindString || b.Kind == KindString:
		return String, true
	case a.Kind == KindList || b.Kind == KindList:
		return DataType{}, false
	case a.Kind == KindDatetime && b.Kind == KindDatetime:
		if a.Unit < b.Unit {
			return a, true
		}
		return b, true
	case a.Kind == KindDatetime:
		return a, b.IsInteger()
	case b.Kind == KindDatetime:
		return b, a.IsInteger()
	case a.Kind == KindFloat32 && b.Kind == KindFloat32:
		return Float32, true
	case a.IsFloat() || b.IsFloat():
		return Float64, true
	case a.Kind == KindUInt64 && b.Kind == KindUInt64:
		return UInt64, true
	}
	return Int64, true
}
