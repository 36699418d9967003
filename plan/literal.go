package plan

// LiteralValue 字面量取值（封闭和类型）
type LiteralValue interface {
	isLiteral()
}

type NullLit struct{}
type BoolLit bool
type StringLit string
type UInt64Lit uint64
type Int64Lit int64

// Float32Lit 宿主侧以 64 位存放，翻译时收窄为 32 位
type Float32Lit float64
type Float64Lit float64

// RangeLit 整数区间 [Low, High)
type RangeLit struct {
	Low      int64
	High     int64
	DataType DataType
}

// SeriesLit 引用一个已注册的列句柄
type SeriesLit struct {
	Series Handle
}

func (NullLit) isLiteral()    {}
func (BoolLit) isLiteral()    {}
func (StringLit) isLiteral()  {}
func (UInt64Lit) isLiteral()  {}
func (Int64Lit) isLiteral()   {}
func (Float32Lit) isLiteral() {}
func (Float64Lit) isLiteral() {}
func (RangeLit) isLiteral()   {}
func (SeriesLit) isLiteral()  {}
