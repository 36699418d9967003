package plan

// Expr 表达式节点（封闭和类型）。
// 所有节点都以指针形式使用：翻译器按节点身份做缓存，同一个子树被多个父节点引用时只翻译一次。
type Expr interface {
	isExpr()
}

// Alias 重命名输出列
type Alias struct {
	Expr Expr
	Name string
}

// Column 按名称引用列
type Column struct {
	Name string
}

// Columns 多列引用，按列展开
type Columns struct {
	Names []string
}

// DtypeColumn 按数据类型选择列
type DtypeColumn struct {
	Types []DataType
}

// Literal 字面量
type Literal struct {
	Value LiteralValue
}

// BinaryExpr 二元运算
type BinaryExpr struct {
	Left  Expr
	Op    Operator
	Right Expr
}

// Cast 类型转换；Strict 时无法表示的值报错，否则置空
type Cast struct {
	Expr     Expr
	DataType DataType
	Strict   bool
}

// Sort 对单列排序
type Sort struct {
	Expr    Expr
	Options SortOptions
}

// Gather 按下标取值
type Gather struct {
	Expr          Expr
	Idx           Expr
	ReturnsScalar bool
}

// SortBy 按其他表达式排序
type SortBy struct {
	Expr        Expr
	By          []Expr
	SortOptions SortMultipleOptions
}

// Agg 聚合
type Agg struct {
	Agg AggExpr
}

// Ternary when/then/otherwise
type Ternary struct {
	Predicate Expr
	Truthy    Expr
	Falsy     Expr
}

// Function 函数调用
type Function struct {
	Input    []Expr
	Function FunctionExpr
	Options  FunctionOptions
}

// Explode 展开列表
type Explode struct {
	Expr Expr
}

// Filter 表达式级过滤
type Filter struct {
	Input Expr
	By    Expr
}

// Window 窗口函数（over）
type Window struct {
	Function    Expr
	PartitionBy []Expr
	Options     WindowMapping
}

// Wildcard 所有列
type Wildcard struct{}

// Slice 切片；Offset 和 Length 须为整数标量表达式
type Slice struct {
	Input  Expr
	Offset Expr
	Length Expr
}

// KeepName 保留根列名
type KeepName struct {
	Expr Expr
}

// Len 行数
type Len struct{}

// Nth 第 n 列，负数从末尾计
type Nth struct {
	Index int64
}

// Rolling 滑动窗口运算
type Rolling struct {
	Expr    Expr
	Op      RollingFunction
	Options RollingOptions
}

// Horizontal 跨表达式的逐行聚合；Input 不能为空
type Horizontal struct {
	Input []Expr
	Op    HorizontalOp
}

// ForwardFill 前向填充；Limit 为 nil 表示不限
type ForwardFill struct {
	Expr  Expr
	Limit *uint32
}

func (*Alias) isExpr()       {}
func (*Column) isExpr()      {}
func (*Columns) isExpr()     {}
func (*DtypeColumn) isExpr() {}
func (*Literal) isExpr()     {}
func (*BinaryExpr) isExpr()  {}
func (*Cast) isExpr()        {}
func (*Sort) isExpr()        {}
func (*Gather) isExpr()      {}
func (*SortBy) isExpr()      {}
func (*Agg) isExpr()         {}
func (*Ternary) isExpr()     {}
func (*Function) isExpr()    {}
func (*Explode) isExpr()     {}
func (*Filter) isExpr()      {}
func (*Window) isExpr()      {}
func (*Wildcard) isExpr()    {}
func (*Slice) isExpr()       {}
func (*KeepName) isExpr()    {}
func (*Len) isExpr()         {}
func (*Nth) isExpr()         {}
func (*Rolling) isExpr()     {}
func (*Horizontal) isExpr()  {}
func (*ForwardFill) isExpr() {}

// Operator 二元运算符
type Operator uint8

const (
	OpEq Operator = iota
	OpEqValidity
	OpNotEq
	OpNotEqValidity
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpPlus
	OpMinus
	OpMultiply
	OpDivide
	OpTrueDivide
	OpFloorDivide
	OpModulus
	OpAnd
	OpOr
	OpXor
)

// WindowMapping 窗口结果映射回行的方式
type WindowMapping uint8

const (
	GroupsToRows WindowMapping = iota
	WindowExplode
	WindowJoin
)

// HorizontalOp 逐行聚合运算
type HorizontalOp uint8

const (
	HorizontalMin HorizontalOp = iota
	HorizontalMax
	HorizontalSum
)
