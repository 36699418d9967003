package plan

import "strconv"

// SortOptions 单列排序选项
type SortOptions struct {
	Descending    bool
	NullsLast     bool
	Multithreaded bool
	MaintainOrder bool
}

// SortMultipleOptions 多列排序选项；Descending 只有一项时应用到所有列
type SortMultipleOptions struct {
	Descending    []bool
	NullsLast     bool
	Multithreaded bool
	MaintainOrder bool
}

// IsSorted 排序标记
type IsSorted uint8

const (
	SortedAscending IsSorted = iota
	SortedDescending
	SortedNot
)

// Duration 时长：整数槽位，或 "1h30m"、"1mo" 这类字符串
type Duration struct {
	Slots int64
	Spec  string
}

// DurationSlots 以行数计的时长
func DurationSlots(n int64) Duration { return Duration{Slots: n} }

// DurationOf 字符串时长
func DurationOf(spec string) Duration { return Duration{Spec: spec} }

func (d Duration) String() string {
	if d.Spec != "" {
		return d.Spec
	}
	return strconv.FormatInt(d.Slots, 10) + "i"
}

// ClosedWindow 窗口端点的开闭
type ClosedWindow uint8

const (
	ClosedLeft ClosedWindow = iota
	ClosedRight
	ClosedBoth
	ClosedNone
)

// RollingFunction 滑动窗口运算
type RollingFunction struct {
	Kind RollingKind
	// Quantile 仅对 RollingQuantile 有效
	Quantile float64
}

type RollingKind uint8

const (
	RollingMin RollingKind = iota
	RollingMax
	RollingMean
	RollingSum
	RollingMedian
	RollingQuantile
	RollingVar
	RollingStd
)

// RollingOptions 滑动窗口选项。By 为空时按行数开窗；ClosedWindow 为 nil 时取右闭
type RollingOptions struct {
	WindowSize   Duration
	MinPeriods   int
	Weights      []float64
	Center       bool
	By           string
	ClosedWindow *ClosedWindow
}

// Comparison 过滤用比较运算
type Comparison uint8

const (
	Eq Comparison = iota
	NotEq
	Lt
	LtEq
	Gt
	GtEq
)

// ColumnFilter 单个 (列, 比较, 标量) 过滤条件
type ColumnFilter struct {
	Column string
	Cmp    Comparison
	Value  AnyValue
}

// Field 列名与类型
type Field struct {
	Name     string
	DataType DataType
}

// ReadCSV 读取 CSV 的参数。Columns、Schema 为空表示不限制
type ReadCSV struct {
	SkipRows  int
	HasHeader bool
	Columns   []string
	Schema    []Field
	NThreads  int
}
