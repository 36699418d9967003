package bridge

import (
	"github.com/isesword/framebridge/internal/engine"
	"github.com/isesword/framebridge/plan"
)

// SeriesFromBuffer 由批量缓冲构造列
func (b *Bridge) SeriesFromBuffer(name string, buf plan.Buffer, copyData bool) (plan.Handle, error) {
	defer b.enter("series_from_buffer", "name", name, "copy", copyData)()
	s, err := bufferSeries(name, buf, copyData, b.mem)
	if err != nil {
		return 0, err
	}
	return b.wrap(KindSeries, s), nil
}

// SeriesGet 取第 i 个值；空值返回 nil
func (b *Bridge) SeriesGet(h plan.Handle, i int) (plan.AnyValue, error) {
	defer b.enter("series_get", "handle", h, "index", i)()
	s, err := b.series(h)
	if err != nil {
		return nil, err
	}
	return getValue(s, i)
}

func (b *Bridge) SeriesLength(h plan.Handle) (int, error) {
	defer b.enter("series_len", "handle", h)()
	s, err := b.series(h)
	if err != nil {
		return 0, err
	}
	return s.Len(), nil
}

func (b *Bridge) SeriesName(h plan.Handle) (string, error) {
	defer b.enter("series_name", "handle", h)()
	s, err := b.series(h)
	if err != nil {
		return "", err
	}
	return s.Name(), nil
}

// SeriesDType 列的数据类型；宿主无法表示的类型返回 ErrUnsupported
func (b *Bridge) SeriesDType(h plan.Handle) (plan.DataType, error) {
	defer b.enter("series_dtype", "handle", h)()
	s, err := b.series(h)
	if err != nil {
		return plan.DataType{}, err
	}
	return fromEngineType(s.DType())
}

// SeriesSum 非空值之和，没有可加的值时为 0
func (b *Bridge) SeriesSum(h plan.Handle) (float64, error) {
	defer b.enter("series_sum", "handle", h)()
	s, err := b.series(h)
	if err != nil {
		return 0, err
	}
	sum, _ := s.Sum()
	return sum, nil
}

// SeriesCast 严格转换：无法表示的值报错
func (b *Bridge) SeriesCast(h plan.Handle, dt plan.DataType) (plan.Handle, error) {
	defer b.enter("series_cast", "handle", h, "dtype", dt)()
	s, err := b.series(h)
	if err != nil {
		return 0, err
	}
	et, err := toEngineType(dt)
	if err != nil {
		return 0, err
	}
	out, err := s.Cast(et, true)
	if err != nil {
		return 0, errorWithDesc(err, "cannot cast")
	}
	return b.wrap(KindSeries, out), nil
}

func (b *Bridge) SeriesSlice(h plan.Handle, offset int64, length int) (plan.Handle, error) {
	defer b.enter("series_slice", "handle", h, "offset", offset, "length", length)()
	s, err := b.series(h)
	if err != nil {
		return 0, err
	}
	return b.wrap(KindSeries, s.Slice(offset, length)), nil
}

func (b *Bridge) SeriesRechunk(h plan.Handle) (plan.Handle, error) {
	defer b.enter("series_rechunk", "handle", h)()
	s, err := b.series(h)
	if err != nil {
		return 0, err
	}
	out, err := blocking(b, "series_rechunk", func() (*engine.Series, error) {
		return s.Rechunk(), nil
	})
	if err != nil {
		return 0, errorWithDesc(err, "cannot rechunk")
	}
	return b.wrap(KindSeries, out), nil
}

func (b *Bridge) SeriesNullCount(h plan.Handle) (int, error) {
	defer b.enter("series_null_count", "handle", h)()
	s, err := b.series(h)
	if err != nil {
		return 0, err
	}
	return blocking(b, "series_null_count", func() (int, error) {
		return s.NullCount(), nil
	})
}

// SeriesMultiply 乘以标量。布尔标量返回 ErrUnsupported，原列不变。
func (b *Bridge) SeriesMultiply(h plan.Handle, v plan.AnyValue) (plan.Handle, error) {
	defer b.enter("series_multiply", "handle", h)()
	s, err := b.series(h)
	if err != nil {
		return 0, err
	}
	if _, ok := v.(plan.BoolValue); ok {
		return 0, errorMsg(ErrUnsupported, "cannot multiply series %q by a boolean", s.Name())
	}
	ev, err := toEngineValue(v)
	if err != nil {
		return 0, err
	}
	out, err := s.Multiply(ev)
	if err != nil {
		return 0, errorWithDesc(err, "cannot multiply")
	}
	return b.wrap(KindSeries, out), nil
}

// SeriesSetSortedFlag 原地设置排序标记
func (b *Bridge) SeriesSetSortedFlag(h plan.Handle, flag plan.IsSorted) error {
	defer b.enter("series_set_sorted", "handle", h, "flag", flag)()
	f, err := toEngineSorted(flag)
	if err != nil {
		return err
	}
	e, err := b.handles.Exclusive(h, KindSeries)
	if err != nil {
		return err
	}
	e.Value = e.Value.(*engine.Series).WithSorted(f)
	return nil
}

// SeriesBuffer 导出为批量缓冲。单块且无空值的数值列直接返回引擎内存的视图，宿主不得修改。
func (b *Bridge) SeriesBuffer(h plan.Handle) (plan.Buffer, error) {
	defer b.enter("series_buffer", "handle", h)()
	s, err := b.series(h)
	if err != nil {
		return nil, err
	}
	return seriesBuffer(s)
}

func (b *Bridge) SeriesString(h plan.Handle) (string, error) {
	defer b.enter("series_string", "handle", h)()
	s, err := b.series(h)
	if err != nil {
		return "", err
	}
	return s.String(), nil
}
