package polars

import (
	"fmt"
	"runtime"

	"github.com/isesword/framebridge/bridge"
	"github.com/isesword/framebridge/plan"
)

// LazyFrame 惰性数据框架（延迟执行）。
// 每一步都生成新的计划句柄；出错后后续步骤直接透传错误，直到 Collect 返回。
type LazyFrame struct {
	handle plan.Handle
	brg    *bridge.Bridge
	err    error
}

func newLazyFrame(handle plan.Handle, brg *bridge.Bridge) *LazyFrame {
	lf := &LazyFrame{handle: handle, brg: brg}
	runtime.SetFinalizer(lf, func(l *LazyFrame) {
		if l != nil && l.handle != 0 && l.brg != nil {
			l.brg.Release(l.handle)
		}
	})
	return lf
}

// Free 释放计划句柄
func (lf *LazyFrame) Free() {
	if lf == nil || lf.handle == 0 || lf.brg == nil {
		return
	}
	lf.brg.Release(lf.handle)
	lf.handle = 0
	runtime.SetFinalizer(lf, nil)
}

// Err 返回链上第一个错误
func (lf *LazyFrame) Err() error {
	if lf == nil {
		return fmt.Errorf("lazyframe is nil")
	}
	if lf.err == nil && lf.handle == 0 {
		return fmt.Errorf("lazyframe is freed")
	}
	return lf.err
}

// step 在当前计划上追加一步
func (lf *LazyFrame) step(fn func(h plan.Handle) (plan.Handle, error)) *LazyFrame {
	if err := lf.Err(); err != nil {
		return &LazyFrame{err: err}
	}
	defer runtime.KeepAlive(lf)
	h, err := fn(lf.handle)
	if err != nil {
		return &LazyFrame{brg: lf.brg, err: err}
	}
	return newLazyFrame(h, lf.brg)
}

// Filter 过滤行
func (lf *LazyFrame) Filter(predicate Expr) *LazyFrame {
	return lf.step(func(h plan.Handle) (plan.Handle, error) {
		return lf.brg.LazyFilter(h, predicate.inner)
	})
}

// Select 选择列
func (lf *LazyFrame) Select(exprs ...Expr) *LazyFrame {
	return lf.step(func(h plan.Handle) (plan.Handle, error) {
		return lf.brg.LazySelect(h, toPlan(exprs))
	})
}

// WithColumns 添加或修改列
func (lf *LazyFrame) WithColumns(exprs ...Expr) *LazyFrame {
	return lf.step(func(h plan.Handle) (plan.Handle, error) {
		return lf.brg.LazyWithColumns(h, toPlan(exprs))
	})
}

// Limit 限制行数
func (lf *LazyFrame) Limit(n uint64) *LazyFrame {
	return lf.step(func(h plan.Handle) (plan.Handle, error) {
		return lf.brg.LazyLimit(h, n)
	})
}

// Sort 按单列排序
func (lf *LazyFrame) Sort(column string, opts plan.SortMultipleOptions) *LazyFrame {
	return lf.step(func(h plan.Handle) (plan.Handle, error) {
		return lf.brg.LazySort(h, column, opts)
	})
}

// GroupBy 分组，随后调用 Agg
func (lf *LazyFrame) GroupBy(keys ...Expr) *GroupBy {
	return &GroupBy{lf: lf, keys: keys}
}

// GroupBy 分组中间态
type GroupBy struct {
	lf   *LazyFrame
	keys []Expr
}

// Agg 对每组计算聚合
// 示例: lf.GroupBy(Col("shop")).Agg(Col("units").Sum())
func (g *GroupBy) Agg(aggs ...Expr) *LazyFrame {
	return g.lf.step(func(h plan.Handle) (plan.Handle, error) {
		return g.lf.brg.LazyGroupByAgg(h, toPlan(g.keys), toPlan(aggs))
	})
}

// Describe 返回优化前的计划文本
func (lf *LazyFrame) Describe() (string, error) {
	if err := lf.Err(); err != nil {
		return "", err
	}
	defer runtime.KeepAlive(lf)
	return lf.brg.LazyDescribe(lf.handle)
}

// Collect 执行查询并收集结果
func (lf *LazyFrame) Collect() (*DataFrame, error) {
	if err := lf.Err(); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(lf)
	h, err := lf.brg.LazyCollect(lf.handle)
	if err != nil {
		return nil, fmt.Errorf("failed to execute plan: %w", err)
	}
	return newDataFrame(h, lf.brg), nil
}

// CollectRows 执行查询并以行的形式返回
func (lf *LazyFrame) CollectRows() ([]map[string]interface{}, error) {
	df, err := lf.Collect()
	if err != nil {
		return nil, err
	}
	defer df.Free()

	return df.Rows()
}

// Print 执行查询并打印结果
func (lf *LazyFrame) Print() error {
	df, err := lf.Collect()
	if err != nil {
		return err
	}
	defer df.Free()

	return df.Print()
}
