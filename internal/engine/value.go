package engine

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// AnyValue is a single scalar of any engine type. A null value still
// carries the dtype of the column it came from.
type AnyValue struct {
	Type  DataType
	Null  bool
	Int   int64   // Int64, Datetime
	Uint  uint64  // UInt64
	Float float64 // Float32, Float64
	Bool  bool
	Str   string
	List  *Series
}

func NullValue(dt DataType) AnyValue { return AnyValue{Type: dt, Null: true} }

func IntValue(v int64) AnyValue { return AnyValue{Type: Int64, Int: v} }
func UintValue(v uint64) AnyValue { return AnyValue{Type: UInt64, Uint: v} }
func Float32Value(v float32) AnyValue { return AnyValue{Type: Float32, Float: float64(v)} }
func FloatValue(v float64) AnyValue { return AnyValue{Type: Float64, Float: v} }
func BoolValue(v bool) AnyValue { return AnyValue{Type: Boolean, Bool: v} }
func StringValue(v string) AnyValue { return AnyValue{Type: String, Str: v} }
func ListValue(s *Series) AnyValue { return AnyValue{Type: List(s.DType()), List: s} }

func DatetimeValue(v int64, unit TimeUnit) AnyValue {
	return AnyValue{Type: Datetime(unit), Int: v}
}

func (v AnyValue) IsNull() bool { return v.Null || v.Type.Kind == KindNull }

// AsFloat widens numeric and boolean values.
func (v AnyValue) AsFloat() (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	switch v.Type.Kind {
	case KindInt64, KindDatetime:
		return float64(v.Int), true
	case KindUInt64:
		return float64(v.Uint), true
	case KindFloat32, KindFloat64:
		return v.Float, true
	case KindBoolean:
		if v.Bool {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// AsInt narrows numeric and boolean values to int64, truncating floats.
func (v AnyValue) AsInt() (int64, bool) {
	if v.IsNull() {
		return 0, false
	}
	switch v.Type.Kind {
	case KindInt64, KindDatetime:
		return v.Int, true
	case KindUInt64:
		return int64(v.Uint), true
	case KindFloat32, KindFloat64:
		if math.IsNaN(v.Float) {
			return 0, false
		}
		return int64(v.Float), true
	case KindBoolean:
		if v.Bool {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (v AnyValue) String() string {
	if v.IsNull() {
		return "null"
	}
	switch v.Type.Kind {
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindInt64:
		return strconv.FormatInt(v.Int, 10)
	case KindUInt64:
		return strconv.FormatUint(v.Uint, 10)
	case KindFloat32:
		return formatFloat(v.Float, 32)
	case KindFloat64:
		return formatFloat(v.Float, 64)
	case KindString:
		return strconv.Quote(v.Str)
	case KindDatetime:
		return formatDatetime(v.Int, v.Type.Unit)
	case KindList:
		var sb strings.Builder
		sb.WriteByte('[')
		for i := 0; i < v.List.Len(); i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(v.List.value(i).String())
		}
		sb.WriteByte(']')
		return sb.String()
	}
	return "?"
}

func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func formatDatetime(v int64, unit TimeUnit) string {
	per := unit.perSecond()
	sec, frac := v/per, v%per
	if frac < 0 {
		sec--
		frac += per
	}
	t := time.Unix(sec, frac*(1_000_000_000/per)).UTC()
	if frac == 0 {
		return t.Format("2006-01-02 15:04:05")
	}
	return t.Format("2006-01-02 15:04:05.999999999")
}

// compareValues orders two non-null values of compatible types.
func compareValues(a, b AnyValue) int {
	switch {
	case a.Type.Kind == KindString && b.Type.Kind == KindString:
		return strings.Compare(a.Str, b.Str)
	case a.Type.Kind == KindUInt64 && b.Type.Kind == KindUInt64:
		return cmpOrdered(a.Uint, b.Uint)
	case (a.Type.Kind == KindInt64 || a.Type.Kind == KindDatetime || a.Type.Kind == KindBoolean) &&
		(b.Type.Kind == KindInt64 || b.Type.Kind == KindDatetime || b.Type.Kind == KindBoolean):
		ai, _ := a.AsInt()
		bi, _ := b.AsInt()
		return cmpOrdered(ai, bi)
	}
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if !aok || !bok {
		return strings.Compare(a.String(), b.String())
	}
	return cmpFloat(af, bf)
}

func cmpOrdered[T int64 | uint64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// cmpFloat orders NaN above every other value.
func cmpFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// appendKey encodes v into a byte key usable for hashing group tuples.
func appendKey(buf []byte, v AnyValue) []byte {
	if v.IsNull() {
		return append(buf, 0)
	}
	buf = append(buf, byte(v.Type.Kind)+1)
	switch v.Type.Kind {
	case KindBoolean:
		if v.Bool {
			return append(buf, 1)
		}
		return append(buf, 0)
	case KindInt64, KindDatetime:
		return strconv.AppendInt(append(buf, ':'), v.Int, 10)
	case KindUInt64:
		return strconv.AppendUint(append(buf, ':'), v.Uint, 10)
	case KindFloat32, KindFloat64:
		return strconv.AppendUint(append(buf, ':'), math.Float64bits(v.Float), 16)
	case KindString:
		buf = strconv.AppendInt(append(buf, ':'), int64(len(v.Str)), 10)
		return append(append(buf, ':'), v.Str...)
	case KindList:
		buf = strconv.AppendInt(append(buf, ':'), int64(v.List.Len()), 10)
		for i := 0; i < v.List.Len(); i++ {
			buf = appendKey(buf, v.List.value(i))
		}
	}
	return buf
}
