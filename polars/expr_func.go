package polars

import (
	"github.com/isesword/framebridge/plan"
)

func (e Expr) agg(a plan.AggExpr) Expr {
	return Expr{inner: &plan.Agg{Agg: a}}
}

// Sum 求和
func (e Expr) Sum() Expr { return e.agg(&plan.Sum{Input: e.inner}) }

// Min 最小值
func (e Expr) Min() Expr { return e.agg(&plan.Min{Input: e.inner}) }

// Max 最大值
func (e Expr) Max() Expr { return e.agg(&plan.Max{Input: e.inner}) }

// NanMin 最小值，NaN 会传播
func (e Expr) NanMin() Expr { return e.agg(&plan.Min{Input: e.inner, PropagateNaNs: true}) }

// NanMax 最大值，NaN 会传播
func (e Expr) NanMax() Expr { return e.agg(&plan.Max{Input: e.inner, PropagateNaNs: true}) }

func (e Expr) Mean() Expr    { return e.agg(&plan.Mean{Input: e.inner}) }
func (e Expr) Median() Expr  { return e.agg(&plan.Median{Input: e.inner}) }
func (e Expr) NUnique() Expr { return e.agg(&plan.NUnique{Input: e.inner}) }
func (e Expr) First() Expr   { return e.agg(&plan.First{Input: e.inner}) }
func (e Expr) Last() Expr    { return e.agg(&plan.Last{Input: e.inner}) }
func (e Expr) Implode() Expr { return e.agg(&plan.Implode{Input: e.inner}) }

// Count 非空值个数
func (e Expr) Count() Expr { return e.agg(&plan.Count{Input: e.inner}) }

// Len 包括空值在内的个数
func (e Expr) Len() Expr { return e.agg(&plan.Count{Input: e.inner, IncludeNulls: true}) }

// AggGroups 每组的原始行号
func (e Expr) AggGroups() Expr { return e.agg(&plan.AggGroups{Input: e.inner}) }

// Std 标准差
func (e Expr) Std(ddof uint8) Expr { return e.agg(&plan.Std{Input: e.inner, Ddof: ddof}) }

// Var 方差
func (e Expr) Var(ddof uint8) Expr { return e.agg(&plan.Var{Input: e.inner, Ddof: ddof}) }

var elementWise = plan.FunctionOptions{CollectGroups: plan.ElementWise}

// function 单输入函数；extra 是附加参数（填充值、位移量）
func (e Expr) function(fn plan.FunctionExpr, opts plan.FunctionOptions, extra ...Expr) Expr {
	input := append([]plan.Expr{e.inner}, toPlan(extra)...)
	return Expr{inner: &plan.Function{Input: input, Function: fn, Options: opts}}
}

func (e Expr) boolean(fn plan.BooleanFunction) Expr {
	return e.function(plan.BooleanFn{Func: fn}, elementWise)
}

// Not 逻辑取反 (~)
func (e Expr) Not() Expr { return e.boolean(plan.Not{}) }

// IsNull 检查是否为空
func (e Expr) IsNull() Expr { return e.boolean(plan.IsNull{}) }

// IsNotNull 检查是否非空
func (e Expr) IsNotNull() Expr { return e.boolean(plan.IsNotNull{}) }

func (e Expr) IsNan() Expr      { return e.boolean(plan.IsNan{}) }
func (e Expr) IsNotNan() Expr   { return e.boolean(plan.IsNotNan{}) }
func (e Expr) IsFinite() Expr   { return e.boolean(plan.IsFinite{}) }
func (e Expr) IsInfinite() Expr { return e.boolean(plan.IsInfinite{}) }

// AllTrue 是否全部为真
func (e Expr) AllTrue(ignoreNulls bool) Expr {
	return e.function(plan.BooleanFn{Func: plan.All{IgnoreNulls: ignoreNulls}}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

// AnyTrue 是否存在真值
func (e Expr) AnyTrue(ignoreNulls bool) Expr {
	return e.function(plan.BooleanFn{Func: plan.Any{IgnoreNulls: ignoreNulls}}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

// AllHorizontal 逐行判断是否全部为真
func AllHorizontal(exprs ...Expr) Expr {
	return Expr{inner: &plan.Function{Input: toPlan(exprs), Function: plan.BooleanFn{Func: plan.AllHorizontal{}}, Options: elementWise}}
}

// AnyHorizontal 逐行判断是否存在真值
func AnyHorizontal(exprs ...Expr) Expr {
	return Expr{inner: &plan.Function{Input: toPlan(exprs), Function: plan.BooleanFn{Func: plan.AnyHorizontal{}}, Options: elementWise}}
}

// Abs 绝对值
func (e Expr) Abs() Expr { return e.function(plan.Abs{}, elementWise) }

// NullCount 空值个数
func (e Expr) NullCount() Expr {
	return e.function(plan.NullCount{}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

// FillNull 用 value 填充空值
// 示例: Col("price").FillNull(Lit(0.0))
func (e Expr) FillNull(value Expr) Expr {
	return e.function(plan.FillNull{}, plan.FunctionOptions{CollectGroups: plan.ElementWise, CastToSupertypes: true}, value)
}

// DropNans 删除 NaN
func (e Expr) DropNans() Expr {
	return e.function(plan.DropNans{}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

// Shift 位移 n 行，空出的位置为空值
func (e Expr) Shift(n Expr) Expr {
	return e.function(plan.Shift{}, plan.FunctionOptions{CollectGroups: plan.GroupWise}, n)
}

// 累积运算
func (e Expr) CumCount(reverse bool) Expr {
	return e.function(plan.CumCount{Reverse: reverse}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

func (e Expr) CumSum(reverse bool) Expr {
	return e.function(plan.CumSum{Reverse: reverse}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

func (e Expr) CumProd(reverse bool) Expr {
	return e.function(plan.CumProd{Reverse: reverse}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

func (e Expr) CumMin(reverse bool) Expr {
	return e.function(plan.CumMin{Reverse: reverse}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

func (e Expr) CumMax(reverse bool) Expr {
	return e.function(plan.CumMax{Reverse: reverse}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

// Reverse 反转顺序
func (e Expr) Reverse() Expr {
	return e.function(plan.Reverse{}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

// ShrinkDtype 收窄为能容纳所有值的最小类型
func (e Expr) ShrinkDtype() Expr { return e.function(plan.ShrinkType{}, elementWise) }

// Entropy 熵
func (e Expr) Entropy(base float64, normalize bool) Expr {
	return e.function(plan.Entropy{Base: base, Normalize: normalize}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

func (e Expr) Log(base float64) Expr { return e.function(plan.Log{Base: base}, elementWise) }
func (e Expr) Log1p() Expr           { return e.function(plan.Log1p{}, elementWise) }
func (e Expr) Exp() Expr             { return e.function(plan.Exp{}, elementWise) }

// Unique 去重
func (e Expr) Unique(maintainOrder bool) Expr {
	return e.function(plan.Unique{MaintainOrder: maintainOrder}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

// Round 四舍五入到 decimals 位小数
func (e Expr) Round(decimals uint32) Expr { return e.function(plan.Round{Decimals: decimals}, elementWise) }
func (e Expr) Floor() Expr                { return e.function(plan.Floor{}, elementWise) }
func (e Expr) Ceil() Expr                 { return e.function(plan.Ceil{}, elementWise) }

// UpperBound 类型上界
func (e Expr) UpperBound() Expr {
	return e.function(plan.UpperBound{}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

// LowerBound 类型下界
func (e Expr) LowerBound() Expr {
	return e.function(plan.LowerBound{}, plan.FunctionOptions{CollectGroups: plan.GroupWise})
}

// ToPhysical 转为物理类型（时间戳变为 Int64）
func (e Expr) ToPhysical() Expr { return e.function(plan.ToPhysical{}, elementWise) }

// SetSorted 标记已排序，不检查数据
func (e Expr) SetSorted(flag plan.IsSorted) Expr {
	return e.function(plan.SetSortedFlag{Sorted: flag}, elementWise)
}

// rolling 滑动窗口
func (e Expr) rolling(kind plan.RollingKind, quantile float64, opts plan.RollingOptions) Expr {
	return Expr{inner: &plan.Rolling{
		Expr:    e.inner,
		Op:      plan.RollingFunction{Kind: kind, Quantile: quantile},
		Options: opts,
	}}
}

// RollingMin 滑动最小值
// 示例: Col("v").RollingMin(plan.RollingOptions{WindowSize: plan.DurationSlots(3), MinPeriods: 1})
func (e Expr) RollingMin(opts plan.RollingOptions) Expr {
	return e.rolling(plan.RollingMin, 0, opts)
}

func (e Expr) RollingMax(opts plan.RollingOptions) Expr {
	return e.rolling(plan.RollingMax, 0, opts)
}

func (e Expr) RollingMean(opts plan.RollingOptions) Expr {
	return e.rolling(plan.RollingMean, 0, opts)
}

func (e Expr) RollingSum(opts plan.RollingOptions) Expr {
	return e.rolling(plan.RollingSum, 0, opts)
}

func (e Expr) RollingMedian(opts plan.RollingOptions) Expr {
	return e.rolling(plan.RollingMedian, 0, opts)
}

// RollingQuantile 滑动分位数，quantile 取 [0, 1]
func (e Expr) RollingQuantile(quantile float64, opts plan.RollingOptions) Expr {
	return e.rolling(plan.RollingQuantile, quantile, opts)
}

func (e Expr) RollingVar(opts plan.RollingOptions) Expr {
	return e.rolling(plan.RollingVar, 0, opts)
}

func (e Expr) RollingStd(opts plan.RollingOptions) Expr {
	return e.rolling(plan.RollingStd, 0, opts)
}
