package polars

import (
	"fmt"
	"runtime"

	"github.com/isesword/framebridge/bridge"
	"github.com/isesword/framebridge/plan"
)

// Series 原生引擎持有的单列
type Series struct {
	handle plan.Handle
	brg    *bridge.Bridge
}

func newSeries(handle plan.Handle, brg *bridge.Bridge) *Series {
	s := &Series{handle: handle, brg: brg}
	runtime.SetFinalizer(s, func(x *Series) {
		if x != nil && x.handle != 0 && x.brg != nil {
			x.brg.Release(x.handle)
		}
	})
	return s
}

// NewSeries 从 Go 切片创建列（复制数据）。
// 支持 []int64、[]int、[]float64、[]float32、[]bool 以及 plan.Buffer
func NewSeries(brg *bridge.Bridge, name string, values interface{}) (*Series, error) {
	buf, err := toBuffer(values)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", name, err)
	}
	h, err := brg.SeriesFromBuffer(name, buf, true)
	if err != nil {
		return nil, err
	}
	return newSeries(h, brg), nil
}

// NewSeriesZeroCopy 零拷贝创建列：原生列直接引用 buf，
// 在 Series 释放之前不得修改 buf
func NewSeriesZeroCopy(brg *bridge.Bridge, name string, buf plan.Buffer) (*Series, error) {
	h, err := brg.SeriesFromBuffer(name, buf, false)
	if err != nil {
		return nil, err
	}
	return newSeries(h, brg), nil
}

// Free 释放句柄
func (s *Series) Free() {
	if s == nil || s.handle == 0 || s.brg == nil {
		return
	}
	s.brg.Release(s.handle)
	s.handle = 0
	runtime.SetFinalizer(s, nil)
}

func (s *Series) valid() error {
	if s == nil || s.handle == 0 || s.brg == nil {
		return fmt.Errorf("series is nil")
	}
	return nil
}

func (s *Series) wrap(h plan.Handle, err error) (*Series, error) {
	if err != nil {
		return nil, err
	}
	return newSeries(h, s.brg), nil
}

// Len 元素个数
func (s *Series) Len() (int, error) {
	if err := s.valid(); err != nil {
		return 0, err
	}
	defer runtime.KeepAlive(s)
	return s.brg.SeriesLength(s.handle)
}

// Name 列名
func (s *Series) Name() (string, error) {
	if err := s.valid(); err != nil {
		return "", err
	}
	defer runtime.KeepAlive(s)
	return s.brg.SeriesName(s.handle)
}

// DType 数据类型
func (s *Series) DType() (DataType, error) {
	if err := s.valid(); err != nil {
		return DataType{}, err
	}
	defer runtime.KeepAlive(s)
	return s.brg.SeriesDType(s.handle)
}

// Get 取第 i 个元素；空值为 nil
func (s *Series) Get(i int) (interface{}, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(s)
	v, err := s.brg.SeriesGet(s.handle, i)
	if err != nil {
		return nil, err
	}
	return fromAnyValue(v), nil
}

// Sum 求和；空列为 0
func (s *Series) Sum() (float64, error) {
	if err := s.valid(); err != nil {
		return 0, err
	}
	defer runtime.KeepAlive(s)
	return s.brg.SeriesSum(s.handle)
}

// NullCount 空值个数
func (s *Series) NullCount() (int, error) {
	if err := s.valid(); err != nil {
		return 0, err
	}
	defer runtime.KeepAlive(s)
	return s.brg.SeriesNullCount(s.handle)
}

// Cast 严格类型转换
func (s *Series) Cast(dt DataType) (*Series, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(s)
	return s.wrap(s.brg.SeriesCast(s.handle, dt))
}

// Slice 切片；length 为负时取到末尾
func (s *Series) Slice(offset int64, length int) (*Series, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(s)
	return s.wrap(s.brg.SeriesSlice(s.handle, offset, length))
}

// Rechunk 合并为单个块
func (s *Series) Rechunk() (*Series, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(s)
	return s.wrap(s.brg.SeriesRechunk(s.handle))
}

// Mul 乘以标量
// 示例: s.Mul(2)
func (s *Series) Mul(value interface{}) (*Series, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(s)
	v, err := toAnyValue(value)
	if err != nil {
		return nil, err
	}
	return s.wrap(s.brg.SeriesMultiply(s.handle, v))
}

// SetSorted 原地设置排序标记
func (s *Series) SetSorted(flag plan.IsSorted) error {
	if err := s.valid(); err != nil {
		return err
	}
	defer runtime.KeepAlive(s)
	return s.brg.SeriesSetSortedFlag(s.handle, flag)
}

// Clone 复制
func (s *Series) Clone() (*Series, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(s)
	return s.wrap(s.brg.Clone(s.handle))
}

// Buffer 导出为批量缓冲；含空值的数值列会报错
func (s *Series) Buffer() (plan.Buffer, error) {
	if err := s.valid(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(s)
	return s.brg.SeriesBuffer(s.handle)
}

// Int64s 导出为 []int64（时间戳列返回原始刻度）
func (s *Series) Int64s() ([]int64, error) {
	buf, err := s.Buffer()
	if err != nil {
		return nil, err
	}
	v, ok := buf.(plan.Int64Buffer)
	if !ok {
		return nil, fmt.Errorf("series is not Int64 backed")
	}
	return v, nil
}

// Float64s 导出为 []float64，Float32 列会被展宽
func (s *Series) Float64s() ([]float64, error) {
	buf, err := s.Buffer()
	if err != nil {
		return nil, err
	}
	switch v := buf.(type) {
	case plan.Float64Buffer:
		return v, nil
	case plan.Float32Buffer:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("series is not floating point")
}

// Bools 导出为 []bool；空值位置的取值不确定
func (s *Series) Bools() ([]bool, error) {
	buf, err := s.Buffer()
	if err != nil {
		return nil, err
	}
	v, ok := buf.(plan.BoolBuffer)
	if !ok {
		return nil, fmt.Errorf("series is not Boolean")
	}
	out := make([]bool, len(v))
	for i, x := range v {
		out[i] = x != 0
	}
	return out, nil
}

func (s *Series) String() string {
	if s.valid() != nil {
		return "<nil series>"
	}
	defer runtime.KeepAlive(s)
	str, err := s.brg.SeriesString(s.handle)
	if err != nil {
		return fmt.Sprintf("<series: %v>", err)
	}
	return str
}

// toBuffer 把常见切片转为批量缓冲
func toBuffer(values interface{}) (plan.Buffer, error) {
	switch v := values.(type) {
	case plan.Buffer:
		return v, nil
	case []int64:
		return plan.Int64Buffer(v), nil
	case []int:
		out := make(plan.Int64Buffer, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out, nil
	case []float64:
		return plan.Float64Buffer(v), nil
	case []float32:
		return plan.Float32Buffer(v), nil
	case []bool:
		out := make(plan.BoolBuffer, len(v))
		for i, x := range v {
			if x {
				out[i] = 1
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported buffer type %T", values)
}
