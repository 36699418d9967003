package plan

// FunctionExpr 函数标签（封闭和类型）。
// FillNull 和 Shift 的第二个参数（填充值、位移量）作为 Function.Input 的第二项传入。
type FunctionExpr interface {
	isFunction()
}

type Abs struct{}
type NullCount struct{}
type FillNull struct{}
type DropNans struct{}
type Shift struct{}

type CumCount struct{ Reverse bool }
type CumSum struct{ Reverse bool }
type CumProd struct{ Reverse bool }
type CumMin struct{ Reverse bool }
type CumMax struct{ Reverse bool }

type Reverse struct{}

// BooleanFn 布尔函数族
type BooleanFn struct {
	Func BooleanFunction
}

type Coalesce struct{}
type ShrinkType struct{}

type Entropy struct {
	Base      float64
	Normalize bool
}

type Log struct{ Base float64 }
type Log1p struct{}
type Exp struct{}

type Unique struct{ MaintainOrder bool }

type Round struct{ Decimals uint32 }
type Floor struct{}
type Ceil struct{}
type UpperBound struct{}
type LowerBound struct{}

// ConcatExpr 纵向拼接所有输入
type ConcatExpr struct{ Rechunk bool }

type ToPhysical struct{}

type SetSortedFlag struct{ Sorted IsSorted }

func (Abs) isFunction()           {}
func (NullCount) isFunction()     {}
func (FillNull) isFunction()      {}
func (DropNans) isFunction()      {}
func (Shift) isFunction()         {}
func (CumCount) isFunction()      {}
func (CumSum) isFunction()        {}
func (CumProd) isFunction()       {}
func (CumMin) isFunction()        {}
func (CumMax) isFunction()        {}
func (Reverse) isFunction()       {}
func (BooleanFn) isFunction()     {}
func (Coalesce) isFunction()      {}
func (ShrinkType) isFunction()    {}
func (Entropy) isFunction()       {}
func (Log) isFunction()           {}
func (Log1p) isFunction()         {}
func (Exp) isFunction()           {}
func (Unique) isFunction()        {}
func (Round) isFunction()         {}
func (Floor) isFunction()         {}
func (Ceil) isFunction()          {}
func (UpperBound) isFunction()    {}
func (LowerBound) isFunction()    {}
func (ConcatExpr) isFunction()    {}
func (ToPhysical) isFunction()    {}
func (SetSortedFlag) isFunction() {}

// BooleanFunction 布尔函数
type BooleanFunction interface {
	isBoolean()
}

// All 全部为真；IgnoreNulls 为 false 时按三值逻辑处理空值
type All struct{ IgnoreNulls bool }

// Any 存在为真
type Any struct{ IgnoreNulls bool }

type Not struct{}
type IsNull struct{}
type IsNotNull struct{}
type IsFinite struct{}
type IsInfinite struct{}
type IsNan struct{}
type IsNotNan struct{}
type AllHorizontal struct{}
type AnyHorizontal struct{}

func (All) isBoolean()           {}
func (Any) isBoolean()           {}
func (Not) isBoolean()           {}
func (IsNull) isBoolean()        {}
func (IsNotNull) isBoolean()     {}
func (IsFinite) isBoolean()      {}
func (IsInfinite) isBoolean()    {}
func (IsNan) isBoolean()         {}
func (IsNotNan) isBoolean()      {}
func (AllHorizontal) isBoolean() {}
func (AnyHorizontal) isBoolean() {}

// ApplyOptions 函数在分组上下文中的执行方式
type ApplyOptions uint8

const (
	GroupWise ApplyOptions = iota
	ApplyList
	ElementWise
)

// FunctionOptions 函数调用选项
type FunctionOptions struct {
	CollectGroups    ApplyOptions
	CastToSupertypes bool
}
