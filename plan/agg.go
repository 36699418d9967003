package plan

// AggExpr 聚合函数（封闭和类型）
type AggExpr interface {
	isAgg()
}

type Min struct {
	Input         Expr
	PropagateNaNs bool
}

type Max struct {
	Input         Expr
	PropagateNaNs bool
}

type Median struct{ Input Expr }

type NUnique struct{ Input Expr }

type First struct{ Input Expr }

type Last struct{ Input Expr }

type Mean struct{ Input Expr }

// Implode 把整列收集为一个列表值
type Implode struct{ Input Expr }

// Count 计数；IncludeNulls 为 false 时不计空值
type Count struct {
	Input        Expr
	IncludeNulls bool
}

type Sum struct{ Input Expr }

// AggGroups 每组的原始行号
type AggGroups struct{ Input Expr }

type Std struct {
	Input Expr
	Ddof  uint8
}

type Var struct {
	Input Expr
	Ddof  uint8
}

func (*Min) isAgg()       {}
func (*Max) isAgg()       {}
func (*Median) isAgg()    {}
func (*NUnique) isAgg()   {}
func (*First) isAgg()     {}
func (*Last) isAgg()      {}
func (*Mean) isAgg()      {}
func (*Implode) isAgg()   {}
func (*Count) isAgg()     {}
func (*Sum) isAgg()       {}
func (*AggGroups) isAgg() {}
func (*Std) isAgg()       {}
func (*Var) isAgg()       {}
