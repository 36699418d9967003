package polars

import (
	"fmt"

	"github.com/isesword/framebridge/plan"
)

// DataType 数据类型
type DataType = plan.DataType

// 数据类型常量
var (
	Int64   = plan.Int64
	Float64 = plan.Float64
	Float32 = plan.Float32
	Boolean = plan.Boolean
)

// Datetime 指定单位的时间戳类型
func Datetime(unit plan.TimeUnit) DataType {
	return plan.Datetime(unit)
}

// Expr 表达式构建器
type Expr struct {
	inner plan.Expr
}

// Col 创建列引用表达式
func Col(name string) Expr {
	return Expr{inner: &plan.Column{Name: name}}
}

// Cols 创建多列引用表达式（表达式展开）
func Cols(names ...string) Expr {
	return Expr{inner: &plan.Columns{Names: append([]string(nil), names...)}}
}

// DtypeCols 按数据类型选择列
func DtypeCols(types ...DataType) Expr {
	return Expr{inner: &plan.DtypeColumn{Types: append([]DataType(nil), types...)}}
}

// All 选择所有列（表达式展开）
func All() Expr {
	return Expr{inner: &plan.Wildcard{}}
}

// Nth 第 n 列，负数从末尾计
func Nth(n int64) Expr {
	return Expr{inner: &plan.Nth{Index: n}}
}

// Len 行数
func Len() Expr {
	return Expr{inner: &plan.Len{}}
}

// Lit 创建字面量表达式。
// *Series 只记录句柄，表达式执行完之前调用方需保持该 Series 存活
func Lit(value interface{}) Expr {
	var lit plan.LiteralValue

	switch v := value.(type) {
	case int:
		lit = plan.Int64Lit(v)
	case int32:
		lit = plan.Int64Lit(v)
	case int64:
		lit = plan.Int64Lit(v)
	case uint:
		lit = plan.UInt64Lit(v)
	case uint32:
		lit = plan.UInt64Lit(v)
	case uint64:
		lit = plan.UInt64Lit(v)
	case float32:
		lit = plan.Float32Lit(v)
	case float64:
		lit = plan.Float64Lit(v)
	case bool:
		lit = plan.BoolLit(v)
	case string:
		lit = plan.StringLit(v)
	case *Series:
		lit = plan.SeriesLit{Series: v.handle}
	case nil:
		lit = plan.NullLit{}
	default:
		// 其他类型按字符串处理
		lit = plan.StringLit(fmt.Sprint(v))
	}

	return Expr{inner: &plan.Literal{Value: lit}}
}

// Range 整数区间 [low, high)
func Range(low, high int64, dataType DataType) Expr {
	return Expr{inner: &plan.Literal{Value: plan.RangeLit{Low: low, High: high, DataType: dataType}}}
}

// MinHorizontal 逐行取最小值
func MinHorizontal(exprs ...Expr) Expr {
	return horizontal(plan.HorizontalMin, exprs)
}

// MaxHorizontal 逐行取最大值
func MaxHorizontal(exprs ...Expr) Expr {
	return horizontal(plan.HorizontalMax, exprs)
}

// SumHorizontal 逐行求和
func SumHorizontal(exprs ...Expr) Expr {
	return horizontal(plan.HorizontalSum, exprs)
}

func horizontal(op plan.HorizontalOp, exprs []Expr) Expr {
	return Expr{inner: &plan.Horizontal{Input: toPlan(exprs), Op: op}}
}

// Coalesce 取第一个非空值
func Coalesce(exprs ...Expr) Expr {
	return Expr{inner: &plan.Function{
		Input:    toPlan(exprs),
		Function: plan.Coalesce{},
		Options:  plan.FunctionOptions{CollectGroups: plan.ElementWise, CastToSupertypes: true},
	}}
}

// Concat 纵向拼接
func Concat(rechunk bool, exprs ...Expr) Expr {
	return Expr{inner: &plan.Function{
		Input:    toPlan(exprs),
		Function: plan.ConcatExpr{Rechunk: rechunk},
		Options:  plan.FunctionOptions{CollectGroups: plan.GroupWise, CastToSupertypes: true},
	}}
}

// WhenBuilder when(...) 之后等待 then
type WhenBuilder struct {
	predicate plan.Expr
}

// ThenBuilder then(...) 之后等待 otherwise
type ThenBuilder struct {
	predicate plan.Expr
	truthy    plan.Expr
}

// When 条件表达式
// 示例: When(Col("a").Gt(Lit(1))).Then(Lit("big")).Otherwise(Lit("small"))
func When(predicate Expr) WhenBuilder {
	return WhenBuilder{predicate: predicate.inner}
}

func (w WhenBuilder) Then(e Expr) ThenBuilder {
	return ThenBuilder{predicate: w.predicate, truthy: e.inner}
}

func (t ThenBuilder) Otherwise(e Expr) Expr {
	return Expr{inner: &plan.Ternary{Predicate: t.predicate, Truthy: t.truthy, Falsy: e.inner}}
}

// 二元操作符辅助函数
func (e Expr) binaryOp(op plan.Operator, other Expr) Expr {
	return Expr{inner: &plan.BinaryExpr{Left: e.inner, Op: op, Right: other.inner}}
}

// Eq 等于
func (e Expr) Eq(other Expr) Expr {
	return e.binaryOp(plan.OpEq, other)
}

// EqMissing 等于，空值与空值视为相等
func (e Expr) EqMissing(other Expr) Expr {
	return e.binaryOp(plan.OpEqValidity, other)
}

// Ne 不等于
func (e Expr) Ne(other Expr) Expr {
	return e.binaryOp(plan.OpNotEq, other)
}

// NeMissing 不等于，空值参与比较
func (e Expr) NeMissing(other Expr) Expr {
	return e.binaryOp(plan.OpNotEqValidity, other)
}

// Lt 小于
func (e Expr) Lt(other Expr) Expr {
	return e.binaryOp(plan.OpLt, other)
}

// Le 小于等于
func (e Expr) Le(other Expr) Expr {
	return e.binaryOp(plan.OpLtEq, other)
}

// Gt 大于
func (e Expr) Gt(other Expr) Expr {
	return e.binaryOp(plan.OpGt, other)
}

// Ge 大于等于
func (e Expr) Ge(other Expr) Expr {
	return e.binaryOp(plan.OpGtEq, other)
}

// Add 加法
func (e Expr) Add(other Expr) Expr {
	return e.binaryOp(plan.OpPlus, other)
}

// Sub 减法
func (e Expr) Sub(other Expr) Expr {
	return e.binaryOp(plan.OpMinus, other)
}

// Mul 乘法
func (e Expr) Mul(other Expr) Expr {
	return e.binaryOp(plan.OpMultiply, other)
}

// Div 除法（整数相除仍为整数）
func (e Expr) Div(other Expr) Expr {
	return e.binaryOp(plan.OpDivide, other)
}

// TrueDiv 除法，结果总是浮点
func (e Expr) TrueDiv(other Expr) Expr {
	return e.binaryOp(plan.OpTrueDivide, other)
}

// FloorDiv 向下取整除法 (//)
func (e Expr) FloorDiv(other Expr) Expr {
	return e.binaryOp(plan.OpFloorDivide, other)
}

// Mod 取模运算 (%)
func (e Expr) Mod(other Expr) Expr {
	return e.binaryOp(plan.OpModulus, other)
}

// And 逻辑与
func (e Expr) And(other Expr) Expr {
	return e.binaryOp(plan.OpAnd, other)
}

// Or 逻辑或
func (e Expr) Or(other Expr) Expr {
	return e.binaryOp(plan.OpOr, other)
}

// Xor 异或运算 (^)
func (e Expr) Xor(other Expr) Expr {
	return e.binaryOp(plan.OpXor, other)
}

// Alias 设置别名
func (e Expr) Alias(name string) Expr {
	return Expr{inner: &plan.Alias{Expr: e.inner, Name: name}}
}

// KeepName 保留根列名
func (e Expr) KeepName() Expr {
	return Expr{inner: &plan.KeepName{Expr: e.inner}}
}

// Cast 类型转换
// 示例: Col("age").Cast(Float64, true)
func (e Expr) Cast(dataType DataType, strict bool) Expr {
	return Expr{inner: &plan.Cast{Expr: e.inner, DataType: dataType, Strict: strict}}
}

// StrictCast 严格模式类型转换（转换失败报错）
func (e Expr) StrictCast(dataType DataType) Expr {
	return e.Cast(dataType, true)
}

// Sort 排序
func (e Expr) Sort(opts plan.SortOptions) Expr {
	return Expr{inner: &plan.Sort{Expr: e.inner, Options: opts}}
}

// SortBy 按其他表达式排序
func (e Expr) SortBy(by []Expr, opts plan.SortMultipleOptions) Expr {
	return Expr{inner: &plan.SortBy{Expr: e.inner, By: toPlan(by), SortOptions: opts}}
}

// Gather 按下标取值
func (e Expr) Gather(idx Expr) Expr {
	return Expr{inner: &plan.Gather{Expr: e.inner, Idx: idx.inner}}
}

// Get 取单个下标，结果是标量
func (e Expr) Get(idx Expr) Expr {
	return Expr{inner: &plan.Gather{Expr: e.inner, Idx: idx.inner, ReturnsScalar: true}}
}

// Slice 切片
func (e Expr) Slice(offset, length int64) Expr {
	return Expr{inner: &plan.Slice{Input: e.inner, Offset: Lit(offset).inner, Length: Lit(length).inner}}
}

// Head 前 n 行
func (e Expr) Head(n int64) Expr {
	return e.Slice(0, n)
}

// Explode 展开列表
func (e Expr) Explode() Expr {
	return Expr{inner: &plan.Explode{Expr: e.inner}}
}

// Filter 表达式级过滤
func (e Expr) Filter(predicate Expr) Expr {
	return Expr{inner: &plan.Filter{Input: e.inner, By: predicate.inner}}
}

// ForwardFill 前向填充，limit 可选
func (e Expr) ForwardFill(limit ...uint32) Expr {
	var limitPtr *uint32
	if len(limit) > 0 {
		l := limit[0]
		limitPtr = &l
	}
	return Expr{inner: &plan.ForwardFill{Expr: e.inner, Limit: limitPtr}}
}

// Over 窗口函数，结果按组映射回行
// 示例: Col("units").Sum().Over(Col("shop"))
func (e Expr) Over(partitionBy ...Expr) Expr {
	return e.OverWith(plan.GroupsToRows, partitionBy...)
}

// OverWith 指定映射方式的窗口函数
func (e Expr) OverWith(mapping plan.WindowMapping, partitionBy ...Expr) Expr {
	return Expr{inner: &plan.Window{Function: e.inner, PartitionBy: toPlan(partitionBy), Options: mapping}}
}

// toPlan 取出底层节点
func toPlan(exprs []Expr) []plan.Expr {
	out := make([]plan.Expr, len(exprs))
	for i, e := range exprs {
		out[i] = e.inner
	}
	return out
}

// Plan 返回底层的表达式树
func (e Expr) Plan() plan.Expr {
	return e.inner
}
