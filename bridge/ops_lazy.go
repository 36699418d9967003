package bridge

import (
	"github.com/isesword/framebridge/internal/engine"
	"github.com/isesword/framebridge/plan"
)

// LazyFrame 以 DataFrame 为数据源开始一个惰性计划
func (b *Bridge) LazyFrame(df plan.Handle) (plan.Handle, error) {
	defer b.enter("lazy", "handle", df)()
	d, err := b.dataFrame(df)
	if err != nil {
		return 0, err
	}
	return b.wrap(KindLazyFrame, d.Lazy()), nil
}

// lazyStep 借出计划、翻译表达式并追加一个步骤
func (b *Bridge) lazyStep(h plan.Handle, step func(lf *engine.LazyFrame, t *Translator) (*engine.LazyFrame, error)) (plan.Handle, error) {
	lf, err := b.lazyFrame(h)
	if err != nil {
		return 0, err
	}
	out, err := step(lf, b.newTranslator())
	if err != nil {
		return 0, err
	}
	return b.wrap(KindLazyFrame, out), nil
}

func (b *Bridge) LazyWithColumns(h plan.Handle, exprs []plan.Expr) (plan.Handle, error) {
	defer b.enter("lazy_with_columns", "handle", h, "exprs", len(exprs))()
	return b.lazyStep(h, func(lf *engine.LazyFrame, t *Translator) (*engine.LazyFrame, error) {
		ex, err := t.Exprs(exprs)
		if err != nil {
			return nil, err
		}
		return lf.WithColumns(ex), nil
	})
}

// LazyGroupByAgg 分组聚合；分组按首次出现的顺序输出
func (b *Bridge) LazyGroupByAgg(h plan.Handle, keys, aggs []plan.Expr) (plan.Handle, error) {
	defer b.enter("lazy_group_by", "handle", h, "keys", len(keys), "aggs", len(aggs))()
	return b.lazyStep(h, func(lf *engine.LazyFrame, t *Translator) (*engine.LazyFrame, error) {
		k, err := t.Exprs(keys)
		if err != nil {
			return nil, err
		}
		a, err := t.Exprs(aggs)
		if err != nil {
			return nil, err
		}
		return lf.GroupByAgg(k, a), nil
	})
}

func (b *Bridge) LazySort(h plan.Handle, byColumn string, opts plan.SortMultipleOptions) (plan.Handle, error) {
	defer b.enter("lazy_sort", "handle", h, "by", byColumn)()
	return b.lazyStep(h, func(lf *engine.LazyFrame, _ *Translator) (*engine.LazyFrame, error) {
		return lf.Sort([]string{byColumn}, toEngineSortMultiple(opts)), nil
	})
}

func (b *Bridge) LazySelect(h plan.Handle, exprs []plan.Expr) (plan.Handle, error) {
	defer b.enter("lazy_select", "handle", h, "exprs", len(exprs))()
	return b.lazyStep(h, func(lf *engine.LazyFrame, t *Translator) (*engine.LazyFrame, error) {
		ex, err := t.Exprs(exprs)
		if err != nil {
			return nil, err
		}
		return lf.Select(ex), nil
	})
}

func (b *Bridge) LazyFilter(h plan.Handle, predicate plan.Expr) (plan.Handle, error) {
	defer b.enter("lazy_filter", "handle", h)()
	return b.lazyStep(h, func(lf *engine.LazyFrame, t *Translator) (*engine.LazyFrame, error) {
		p, err := t.Expr(predicate)
		if err != nil {
			return nil, err
		}
		return lf.Filter(p), nil
	})
}

func (b *Bridge) LazyLimit(h plan.Handle, n uint64) (plan.Handle, error) {
	defer b.enter("lazy_limit", "handle", h, "n", n)()
	return b.lazyStep(h, func(lf *engine.LazyFrame, _ *Translator) (*engine.LazyFrame, error) {
		return lf.Limit(n), nil
	})
}

// LazyCollect 执行计划，执行期间释放宿主锁
func (b *Bridge) LazyCollect(h plan.Handle) (plan.Handle, error) {
	defer b.enter("lazy_collect", "handle", h)()
	lf, err := b.lazyFrame(h)
	if err != nil {
		return 0, err
	}
	df, err := blocking(b, "lazy_collect", lf.Collect)
	if err != nil {
		return 0, errorWithDesc(err, "cannot collect")
	}
	return b.wrap(KindDataFrame, df), nil
}

// LazyDescribe 计划的文本形式
func (b *Bridge) LazyDescribe(h plan.Handle) (string, error) {
	defer b.enter("lazy_describe", "handle", h)()
	lf, err := b.lazyFrame(h)
	if err != nil {
		return "", err
	}
	return lf.Describe(), nil
}
