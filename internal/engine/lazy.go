package engine

import (
	"fmt"
	"strings"
)

// LazyOperation is one deferred step of a LazyFrame.
type LazyOperation interface {
	Apply(df *DataFrame) (*DataFrame, error)
	String() string
}

// LazyFrame is a persistent plan: every builder returns a new LazyFrame and
// leaves the receiver untouched.
type LazyFrame struct {
	source *DataFrame
	ops    []LazyOperation
}

// Lazy starts a plan scanning df.
func (df *DataFrame) Lazy() *LazyFrame {
	return &LazyFrame{source: df.Clone()}
}

func (lf *LazyFrame) with(op LazyOperation) *LazyFrame {
	ops := make([]LazyOperation, len(lf.ops), len(lf.ops)+1)
	copy(ops, lf.ops)
	return &LazyFrame{source: lf.source, ops: append(ops, op)}
}

func (lf *LazyFrame) WithColumns(exprs []Expr) *LazyFrame {
	return lf.with(&WithColumnsOperation{Exprs: exprs})
}

func (lf *LazyFrame) Select(exprs []Expr) *LazyFrame {
	return lf.with(&SelectOperation{Exprs: exprs})
}

func (lf *LazyFrame) Filter(predicate Expr) *LazyFrame {
	return lf.with(&FilterOperation{Predicate: predicate})
}

func (lf *LazyFrame) GroupByAgg(keys, aggs []Expr) *LazyFrame {
	return lf.with(&GroupByOperation{Keys: keys, Aggs: aggs})
}

func (lf *LazyFrame) Sort(by []string, opts SortMultipleOptions) *LazyFrame {
	return lf.with(&SortOperation{By: by, Options: opts})
}

func (lf *LazyFrame) Limit(n uint64) *LazyFrame {
	return lf.with(&LimitOperation{N: n})
}

// Collect runs the plan.
func (lf *LazyFrame) Collect() (*DataFrame, error) {
	df := lf.source
	for _, op := range lf.ops {
		next, err := op.Apply(df)
		if err != nil {
			return nil, err
		}
		df = next
	}
	if len(lf.ops) == 0 {
		return df.Clone(), nil
	}
	return df, nil
}

// Describe renders the plan, innermost step last.
func (lf *LazyFrame) Describe() string {
	var sb strings.Builder
	for i := len(lf.ops) - 1; i >= 0; i-- {
		sb.WriteString(strings.Repeat("  ", len(lf.ops)-1-i))
		sb.WriteString(lf.ops[i].String())
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat("  ", len(lf.ops)))
	fmt.Fprintf(&sb, "DF %v; PROJECT */%d COLUMNS", lf.source.ColumnNames(), lf.source.Width())
	return sb.String()
}

// evalProjection evaluates exprs in parallel.
func evalProjection(df *DataFrame, exprs []Expr) ([]*Series, error) {
	exprs, err := ExpandExprs(exprs, df)
	if err != nil {
		return nil, err
	}
	out := make([]*Series, len(exprs))
	err = parallelFor(len(exprs), 0, func(i int) error {
		s, err := Evaluate(df, exprs[i])
		out[i] = s
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// broadcast stretches unit-length columns to height.
func broadcast(cols []*Series, height int) error {
	for i, s := range cols {
		if s.Len() == 1 && height != 1 {
			cols[i] = s.Take(make([]int, height))
			continue
		}
		if s.Len() != height {
			return errorf(ErrShapeMismatch, "unable to add a column of length %d to a DataFrame of height %d", s.Len(), height)
		}
	}
	return nil
}

// WithColumnsOperation adds or replaces columns; every expression sees the input frame.
type WithColumnsOperation struct {
	Exprs []Expr
}

func (o *WithColumnsOperation) Apply(df *DataFrame) (*DataFrame, error) {
	cols, err := evalProjection(df, o.Exprs)
	if err != nil {
		return nil, err
	}
	if err := broadcast(cols, df.Height()); err != nil {
		return nil, err
	}
	out := df.Clone()
	for _, c := range cols {
		if i := out.columnIndex(c.Name()); i >= 0 {
			out.columns[i] = c
			continue
		}
		out.columns = append(out.columns, c)
	}
	return out, nil
}

func (o *WithColumnsOperation) String() string {
	return fmt.Sprintf("WITH_COLUMNS: [%s]", joinExprs(o.Exprs))
}

// SelectOperation projects exprs. The output height is that of the first
// result longer or shorter than one row; unit results are broadcast.
type SelectOperation struct {
	Exprs []Expr
}

func (o *SelectOperation) Apply(df *DataFrame) (*DataFrame, error) {
	cols, err := evalProjection(df, o.Exprs)
	if err != nil {
		return nil, err
	}
	height := 1
	for _, c := range cols {
		if c.Len() != 1 {
			height = c.Len()
			break
		}
	}
	if err := broadcast(cols, height); err != nil {
		return nil, err
	}
	return NewDataFrame(cols)
}

func (o *SelectOperation) String() string {
	return fmt.Sprintf("SELECT [%s]", joinExprs(o.Exprs))
}

// FilterOperation keeps rows where Predicate is true.
type FilterOperation struct {
	Predicate Expr
}

func (o *FilterOperation) Apply(df *DataFrame) (*DataFrame, error) {
	mask, err := Evaluate(df, o.Predicate)
	if err != nil {
		return nil, err
	}
	if mask.DType().Kind != KindBoolean {
		return nil, errorf(ErrInvalidOperation, "filter predicate must be of type `Boolean`, got `%s`", mask.DType())
	}
	if mask.Len() == 1 && df.Height() != 1 {
		mask = mask.Take(make([]int, df.Height()))
	}
	return df.Filter(mask)
}

func (o *FilterOperation) String() string { return fmt.Sprintf("FILTER %s", o.Predicate) }

// SortOperation sorts by column names.
type SortOperation struct {
	By      []string
	Options SortMultipleOptions
}

func (o *SortOperation) Apply(df *DataFrame) (*DataFrame, error) { return df.Sort(o.By, o.Options) }
func (o *SortOperation) String() string {
	return fmt.Sprintf("SORT BY %v", o.By)
}

// LimitOperation keeps the first N rows.
type LimitOperation struct {
	N uint64
}

func (o *LimitOperation) Apply(df *DataFrame) (*DataFrame, error) {
	n := df.Height()
	if o.N < uint64(n) {
		n = int(o.N)
	}
	return df.Head(n), nil
}
func (o *LimitOperation) String() string { return fmt.Sprintf("SLICE[offset: 0, len: %d]", o.N) }

// GroupByOperation groups by Keys (first-appearance order) and evaluates Aggs
// per group. An aggregation yielding one value becomes a scalar; longer
// results are collected into a list.
type GroupByOperation struct {
	Keys []Expr
	Aggs []Expr
}

func (o *GroupByOperation) Apply(df *DataFrame) (*DataFrame, error) {
	keyExprs, err := ExpandExprs(o.Keys, df)
	if err != nil {
		return nil, err
	}
	aggExprs, err := ExpandExprs(o.Aggs, df)
	if err != nil {
		return nil, err
	}
	keys := make([]*Series, len(keyExprs))
	for i, k := range keyExprs {
		if keys[i], err = Evaluate(df, k); err != nil {
			return nil, err
		}
		if keys[i].Len() != df.Height() {
			return nil, errorf(ErrShapeMismatch, "group_by key %s has length %d, expected %d", k, keys[i].Len(), df.Height())
		}
	}
	parts := groups(keys, df.Height())

	first := make([]int, len(parts))
	for g, rows := range parts {
		first[g] = rows[0]
	}
	cols := make([]*Series, 0, len(keys)+len(aggExprs))
	for _, k := range keys {
		cols = append(cols, k.Take(first))
	}

	results := make([][]*Series, len(parts))
	ctx := &evalContext{df: df}
	err = parallelFor(len(parts), 0, func(g int) error {
		sub, err := ctx.subContext(parts[g])
		if err != nil {
			return err
		}
		results[g] = make([]*Series, len(aggExprs))
		for a, e := range aggExprs {
			if results[g][a], err = sub.eval(e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for a, e := range aggExprs {
		name := outputName(e, df)
		scalar := true
		dt := Null
		for g := range parts {
			r := results[g][a]
			name = r.Name()
			if r.Len() != 1 {
				scalar = false
			}
			if dt.Kind == KindNull {
				dt = r.DType()
			}
		}
		vals := make([]AnyValue, len(parts))
		for g := range parts {
			r := results[g][a]
			if scalar {
				vals[g] = r.value(0)
			} else {
				vals[g] = ListValue(r.Rechunk())
			}
		}
		if !scalar {
			dt = List(dt)
		}
		col, err := FromValues(name, dt, vals)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return NewDataFrame(cols)
}

func (o *GroupByOperation) String() string {
	return fmt.Sprintf("AGGREGATE [%s] BY [%s]", joinExprs(o.Aggs), joinExprs(o.Keys))
}
