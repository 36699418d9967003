package engine

import (
	"fmt"
	"strings"
)

// Expr is a native expression node. Nodes are immutable and may be shared
// by several parents.
type Expr interface {
	String() string

	// inputs returns the direct children in evaluation order.
	inputs() []Expr
	// withInputs returns a copy of the node with its children replaced.
	withInputs(in []Expr) Expr
}

// ColumnExpr selects a column by name.
type ColumnExpr struct{ Name string }

func Col(name string) *ColumnExpr { return &ColumnExpr{Name: name} }

func (e *ColumnExpr) String() string          { return fmt.Sprintf("col(%q)", e.Name) }
func (e *ColumnExpr) inputs() []Expr          { return nil }
func (e *ColumnExpr) withInputs(_ []Expr) Expr { return e }

// ColumnsExpr selects several columns; it expands into one expression per name.
type ColumnsExpr struct{ Names []string }

func (e *ColumnsExpr) String() string          { return fmt.Sprintf("cols(%q)", e.Names) }
func (e *ColumnsExpr) inputs() []Expr          { return nil }
func (e *ColumnsExpr) withInputs(_ []Expr) Expr { return e }

// DtypeColumnExpr selects every column whose dtype is listed.
type DtypeColumnExpr struct{ Types []DataType }

func (e *DtypeColumnExpr) String() string {
	names := make([]string, len(e.Types))
	for i, t := range e.Types {
		names[i] = t.String()
	}
	return "dtype_columns([" + strings.Join(names, ", ") + "])"
}
func (e *DtypeColumnExpr) inputs() []Expr          { return nil }
func (e *DtypeColumnExpr) withInputs(_ []Expr) Expr { return e }

// WildcardExpr selects every column.
type WildcardExpr struct{}

func (e *WildcardExpr) String() string          { return "*" }
func (e *WildcardExpr) inputs() []Expr          { return nil }
func (e *WildcardExpr) withInputs(_ []Expr) Expr { return e }

// NthExpr selects the column at Index; negative indices count from the end.
type NthExpr struct{ Index int64 }

func (e *NthExpr) String() string          { return fmt.Sprintf("nth(%d)", e.Index) }
func (e *NthExpr) inputs() []Expr          { return nil }
func (e *NthExpr) withInputs(_ []Expr) Expr { return e }

// LenExpr is the height of the frame.
type LenExpr struct{}

func (e *LenExpr) String() string          { return "len()" }
func (e *LenExpr) inputs() []Expr          { return nil }
func (e *LenExpr) withInputs(_ []Expr) Expr { return e }

// Range is an integer range literal [Low, High).
type Range struct {
	Low, High int64
	DType     DataType
}

// LiteralExpr is a scalar, range or series literal. Exactly one is set.
type LiteralExpr struct {
	Scalar *AnyValue
	Range  *Range
	Series *Series
}

func Lit(v AnyValue) *LiteralExpr { return &LiteralExpr{Scalar: &v} }

func (e *LiteralExpr) String() string {
	switch {
	case e.Range != nil:
		return fmt.Sprintf("range(%d, %d)", e.Range.Low, e.Range.High)
	case e.Series != nil:
		return fmt.Sprintf("Series[%s]", e.Series.Name())
	case e.Scalar.IsNull():
		return "null"
	}
	return fmt.Sprintf("dyn %s: %s", e.Scalar.Type, e.Scalar)
}
func (e *LiteralExpr) inputs() []Expr          { return nil }
func (e *LiteralExpr) withInputs(_ []Expr) Expr { return e }

// AliasExpr renames the output of Input.
type AliasExpr struct {
	Input Expr
	Name  string
}

func (e *AliasExpr) String() string { return fmt.Sprintf("%s.alias(%q)", e.Input, e.Name) }
func (e *AliasExpr) inputs() []Expr { return []Expr{e.Input} }
func (e *AliasExpr) withInputs(in []Expr) Expr {
	return &AliasExpr{Input: in[0], Name: e.Name}
}

// KeepNameExpr names the output after the root column of Input.
type KeepNameExpr struct{ Input Expr }

func (e *KeepNameExpr) String() string { return fmt.Sprintf("%s.name.keep()", e.Input) }
func (e *KeepNameExpr) inputs() []Expr { return []Expr{e.Input} }
func (e *KeepNameExpr) withInputs(in []Expr) Expr {
	return &KeepNameExpr{Input: in[0]}
}

// BinaryExpr applies Op to Left and Right.
type BinaryExpr struct {
	Left  Expr
	Op    Operator
	Right Expr
}

func (e *BinaryExpr) String() string { return fmt.Sprintf("[(%s) %s (%s)]", e.Left, e.Op, e.Right) }
func (e *BinaryExpr) inputs() []Expr { return []Expr{e.Left, e.Right} }
func (e *BinaryExpr) withInputs(in []Expr) Expr {
	return &BinaryExpr{Left: in[0], Op: e.Op, Right: in[1]}
}

// CastExpr converts Input to DataType.
type CastExpr struct {
	Input    Expr
	DataType DataType
	Strict   bool
}

func (e *CastExpr) String() string {
	if e.Strict {
		return fmt.Sprintf("%s.strict_cast(%s)", e.Input, e.DataType)
	}
	return fmt.Sprintf("%s.cast(%s)", e.Input, e.DataType)
}
func (e *CastExpr) inputs() []Expr { return []Expr{e.Input} }
func (e *CastExpr) withInputs(in []Expr) Expr {
	return &CastExpr{Input: in[0], DataType: e.DataType, Strict: e.Strict}
}

// SortExpr sorts the values of Input.
type SortExpr struct {
	Input   Expr
	Options SortOptions
}

func (e *SortExpr) String() string { return fmt.Sprintf("%s.sort(desc=%t)", e.Input, e.Options.Descending) }
func (e *SortExpr) inputs() []Expr { return []Expr{e.Input} }
func (e *SortExpr) withInputs(in []Expr) Expr {
	return &SortExpr{Input: in[0], Options: e.Options}
}

// GatherExpr takes the values of Input at the positions in Index.
type GatherExpr struct {
	Input         Expr
	Index         Expr
	ReturnsScalar bool
}

func (e *GatherExpr) String() string { return fmt.Sprintf("%s.gather(%s)", e.Input, e.Index) }
func (e *GatherExpr) inputs() []Expr { return []Expr{e.Input, e.Index} }
func (e *GatherExpr) withInputs(in []Expr) Expr {
	return &GatherExpr{Input: in[0], Index: in[1], ReturnsScalar: e.ReturnsScalar}
}

// SortByExpr sorts Input by the values of By.
type SortByExpr struct {
	Input   Expr
	By      []Expr
	Options SortMultipleOptions
}

func (e *SortByExpr) String() string { return fmt.Sprintf("%s.sort_by(%s)", e.Input, joinExprs(e.By)) }
func (e *SortByExpr) inputs() []Expr { return append([]Expr{e.Input}, e.By...) }
func (e *SortByExpr) withInputs(in []Expr) Expr {
	return &SortByExpr{Input: in[0], By: in[1:], Options: e.Options}
}

// AggKind names an aggregation.
type AggKind uint8

const (
	AggMin AggKind = iota
	AggMax
	AggMedian
	AggNUnique
	AggFirst
	AggLast
	AggMean
	AggImplode
	AggCount
	AggSum
	AggGroups
	AggStd
	AggVar
)

var aggNames = [...]string{
	AggMin: "min", AggMax: "max", AggMedian: "median", AggNUnique: "n_unique",
	AggFirst: "first", AggLast: "last", AggMean: "mean", AggImplode: "implode",
	AggCount: "count", AggSum: "sum", AggGroups: "agg_groups", AggStd: "std", AggVar: "var",
}

func (k AggKind) String() string { return aggNames[k] }

// AggExpr reduces Input to one value per group.
type AggExpr struct {
	Kind          AggKind
	Input         Expr
	PropagateNaNs bool  // Min, Max
	IncludeNulls  bool  // Count
	Ddof          uint8 // Std, Var
}

func (e *AggExpr) String() string { return fmt.Sprintf("%s.%s()", e.Input, e.Kind) }
func (e *AggExpr) inputs() []Expr { return []Expr{e.Input} }
func (e *AggExpr) withInputs(in []Expr) Expr {
	out := *e
	out.Input = in[0]
	return &out
}

// TernaryExpr is when(Predicate).then(Truthy).otherwise(Falsy).
type TernaryExpr struct {
	Predicate, Truthy, Falsy Expr
}

func (e *TernaryExpr) String() string {
	return fmt.Sprintf(".when(%s).then(%s).otherwise(%s)", e.Predicate, e.Truthy, e.Falsy)
}
func (e *TernaryExpr) inputs() []Expr { return []Expr{e.Predicate, e.Truthy, e.Falsy} }
func (e *TernaryExpr) withInputs(in []Expr) Expr {
	return &TernaryExpr{Predicate: in[0], Truthy: in[1], Falsy: in[2]}
}

// ExplodeExpr flattens a list column.
type ExplodeExpr struct{ Input Expr }

func (e *ExplodeExpr) String() string { return fmt.Sprintf("%s.explode()", e.Input) }
func (e *ExplodeExpr) inputs() []Expr { return []Expr{e.Input} }
func (e *ExplodeExpr) withInputs(in []Expr) Expr {
	return &ExplodeExpr{Input: in[0]}
}

// FilterExpr keeps the values of Input where By is true.
type FilterExpr struct{ Input, By Expr }

func (e *FilterExpr) String() string { return fmt.Sprintf("%s.filter(%s)", e.Input, e.By) }
func (e *FilterExpr) inputs() []Expr { return []Expr{e.Input, e.By} }
func (e *FilterExpr) withInputs(in []Expr) Expr {
	return &FilterExpr{Input: in[0], By: in[1]}
}

// SliceExpr slices Input; Offset and Length evaluate to integer scalars.
type SliceExpr struct{ Input, Offset, Length Expr }

func (e *SliceExpr) String() string {
	return fmt.Sprintf("%s.slice(offset=%s, length=%s)", e.Input, e.Offset, e.Length)
}
func (e *SliceExpr) inputs() []Expr { return []Expr{e.Input, e.Offset, e.Length} }
func (e *SliceExpr) withInputs(in []Expr) Expr {
	return &SliceExpr{Input: in[0], Offset: in[1], Length: in[2]}
}

// WindowMapping controls how per-group window results map back to rows.
type WindowMapping uint8

const (
	GroupsToRows WindowMapping = iota
	WindowExplode
	WindowJoin
)

// WindowExpr evaluates Function per partition.
type WindowExpr struct {
	Function    Expr
	PartitionBy []Expr
	Mapping     WindowMapping
}

func (e *WindowExpr) String() string {
	return fmt.Sprintf("%s.over(%s)", e.Function, joinExprs(e.PartitionBy))
}
func (e *WindowExpr) inputs() []Expr { return append([]Expr{e.Function}, e.PartitionBy...) }
func (e *WindowExpr) withInputs(in []Expr) Expr {
	return &WindowExpr{Function: in[0], PartitionBy: in[1:], Mapping: e.Mapping}
}

// RollingOp names a rolling-window reduction.
type RollingOp uint8

const (
	RollingMin RollingOp = iota
	RollingMax
	RollingMean
	RollingSum
	RollingMedian
	RollingQuantile
	RollingVar
	RollingStd
)

var rollingNames = [...]string{"min", "max", "mean", "sum", "median", "quantile", "var", "std"}

func (o RollingOp) String() string { return rollingNames[o] }

// ClosedWindow picks which interval ends belong to a temporal window.
type ClosedWindow uint8

const (
	ClosedLeft ClosedWindow = iota
	ClosedRight
	ClosedBoth
	ClosedNone
)

// RollingOptions parameterises a RollingExpr.
type RollingOptions struct {
	WindowSize Duration
	MinPeriods int
	Weights    []float64
	Center     bool
	By         string
	Closed     ClosedWindow
}

// RollingExpr applies Op over a sliding window of Input.
type RollingExpr struct {
	Input    Expr
	Op       RollingOp
	Quantile float64
	Options  RollingOptions
}

func (e *RollingExpr) String() string {
	return fmt.Sprintf("%s.rolling_%s(%s)", e.Input, e.Op, e.Options.WindowSize)
}
func (e *RollingExpr) inputs() []Expr { return []Expr{e.Input} }
func (e *RollingExpr) withInputs(in []Expr) Expr {
	out := *e
	out.Input = in[0]
	return &out
}

// HorizontalOp names a row-wise reduction across expressions.
type HorizontalOp uint8

const (
	HorizontalMin HorizontalOp = iota
	HorizontalMax
	HorizontalSum
)

var horizontalNames = [...]string{"min_horizontal", "max_horizontal", "sum_horizontal"}

// HorizontalExpr reduces Inputs row-wise.
type HorizontalExpr struct {
	Inputs []Expr
	Op     HorizontalOp
}

// NewHorizontal fails when exprs is empty: the output height is unknown.
func NewHorizontal(op HorizontalOp, exprs []Expr) (*HorizontalExpr, error) {
	if len(exprs) == 0 {
		return nil, errorf(ErrInvalidOperation, "cannot return empty fold because the number of output rows is unknown")
	}
	return &HorizontalExpr{Inputs: exprs, Op: op}, nil
}

func (e *HorizontalExpr) String() string {
	return fmt.Sprintf("%s([%s])", horizontalNames[e.Op], joinExprs(e.Inputs))
}
func (e *HorizontalExpr) inputs() []Expr { return e.Inputs }
func (e *HorizontalExpr) withInputs(in []Expr) Expr {
	return &HorizontalExpr{Inputs: in, Op: e.Op}
}

// ForwardFillExpr fills nulls with the last seen value, at most Limit in a row.
type ForwardFillExpr struct {
	Input Expr
	Limit *uint32
}

func (e *ForwardFillExpr) String() string { return fmt.Sprintf("%s.forward_fill()", e.Input) }
func (e *ForwardFillExpr) inputs() []Expr { return []Expr{e.Input} }
func (e *ForwardFillExpr) withInputs(in []Expr) Expr {
	return &ForwardFillExpr{Input: in[0], Limit: e.Limit}
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// isMultiOutput reports whether e expands into several columns.
func isMultiOutput(e Expr) bool {
	switch e.(type) {
	case *ColumnsExpr, *DtypeColumnExpr, *WildcardExpr:
		return true
	}
	return false
}

// rootColumn returns the name of the leftmost column leaf of e.
func rootColumn(e Expr) (string, bool) {
	if c, ok := e.(*ColumnExpr); ok {
		return c.Name, true
	}
	for _, in := range e.inputs() {
		if name, ok := rootColumn(in); ok {
			return name, true
		}
	}
	return "", false
}
