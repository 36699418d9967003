package engine

// evalContext evaluates expressions against one frame. rows holds the
// original row numbers when the frame is a group of a larger frame.
type evalContext struct {
	df   *DataFrame
	rows []int
}

// Evaluate computes e on df. Multi-output expressions must be expanded
// first (see ExpandExprs).
func Evaluate(df *DataFrame, e Expr) (*Series, error) {
	ctx := &evalContext{df: df}
	return ctx.eval(e)
}

func (c *evalContext) eval(e Expr) (*Series, error) {
	switch e := e.(type) {
	case *ColumnExpr:
		s, err := c.df.ColumnByName(e.Name)
		if err != nil {
			return nil, err
		}
		return s.Clone(), nil
	case *NthExpr:
		i := int(e.Index)
		if i < 0 {
			i += c.df.Width()
		}
		s, ok := c.df.Column(i)
		if !ok {
			return nil, errorf(ErrOutOfBounds, "nth(%d) is out of bounds for a frame of width %d", e.Index, c.df.Width())
		}
		return s.Clone(), nil
	case *ColumnsExpr, *DtypeColumnExpr, *WildcardExpr:
		return nil, errorf(ErrInvalidOperation, "expression %s expands to several columns and cannot be evaluated here", e)
	case *LenExpr:
		return NewUInt64("len", []uint64{uint64(c.df.Height())}, nil), nil
	case *LiteralExpr:
		return evalLiteral(e)
	case *AliasExpr:
		s, err := c.eval(e.Input)
		if err != nil {
			return nil, err
		}
		return s.Rename(e.Name), nil
	case *KeepNameExpr:
		s, err := c.eval(e.Input)
		if err != nil {
			return nil, err
		}
		if name, ok := rootColumn(e.Input); ok {
			return s.Rename(name), nil
		}
		return s, nil
	case *BinaryExpr:
		l, err := c.eval(e.Left)
		if err != nil {
			return nil, err
		}
		r, err := c.eval(e.Right)
		if err != nil {
			return nil, err
		}
		return BinaryOp(l, r, e.Op)
	case *CastExpr:
		s, err := c.eval(e.Input)
		if err != nil {
			return nil, err
		}
		return s.Cast(e.DataType, e.Strict)
	case *SortExpr:
		s, err := c.eval(e.Input)
		if err != nil {
			return nil, err
		}
		return s.Sort(e.Options), nil
	case *GatherExpr:
		s, err := c.eval(e.Input)
		if err != nil {
			return nil, err
		}
		idx, err := c.eval(e.Index)
		if err != nil {
			return nil, err
		}
		return gather(s, idx)
	case *SortByExpr:
		return c.evalSortBy(e)
	case *AggExpr:
		s, err := c.eval(e.Input)
		if err != nil {
			return nil, err
		}
		return aggregate(s, e, c.rows)
	case *TernaryExpr:
		return c.evalTernary(e)
	case *FunctionExpr:
		in, err := c.evalInputs(e.Inputs, e.Function.variadic())
		if err != nil {
			return nil, err
		}
		return e.Function.apply(in, e.Options)
	case *ExplodeExpr:
		s, err := c.eval(e.Input)
		if err != nil {
			return nil, err
		}
		return explode(s)
	case *FilterExpr:
		s, err := c.eval(e.Input)
		if err != nil {
			return nil, err
		}
		mask, err := c.eval(e.By)
		if err != nil {
			return nil, err
		}
		if mask.Len() == 1 && s.Len() != 1 {
			keep := mask.value(0)
			if keep.IsNull() || !keep.Bool {
				return s.Slice(0, 0), nil
			}
			return s, nil
		}
		return s.Filter(mask)
	case *SliceExpr:
		s, err := c.eval(e.Input)
		if err != nil {
			return nil, err
		}
		off, err := c.evalScalarInt(e.Offset, "slice offset")
		if err != nil {
			return nil, err
		}
		length, err := c.evalScalarInt(e.Length, "slice length")
		if err != nil {
			return nil, err
		}
		return s.Slice(off, int(length)), nil
	case *WindowExpr:
		return c.evalWindow(e)
	case *RollingExpr:
		s, err := c.eval(e.Input)
		if err != nil {
			return nil, err
		}
		return c.rolling(s, e)
	case *HorizontalExpr:
		in, err := c.evalInputs(e.Inputs, true)
		if err != nil {
			return nil, err
		}
		return horizontal(in, e.Op)
	case *ForwardFillExpr:
		s, err := c.eval(e.Input)
		if err != nil {
			return nil, err
		}
		return forwardFill(s, e.Limit)
	}
	return nil, errorf(ErrInvalidOperation, "cannot evaluate expression %s", e)
}

// evalInputs evaluates a list of inputs; variadic lists expand
// multi-output inputs in place.
func (c *evalContext) evalInputs(exprs []Expr, variadic bool) ([]*Series, error) {
	if variadic {
		expanded, err := ExpandExprs(exprs, c.df)
		if err != nil {
			return nil, err
		}
		exprs = expanded
	}
	out := make([]*Series, len(exprs))
	for i, in := range exprs {
		s, err := c.eval(in)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (c *evalContext) evalScalarInt(e Expr, what string) (int64, error) {
	s, err := c.eval(e)
	if err != nil {
		return 0, err
	}
	v, ok := scalarInt(s)
	if !ok {
		return 0, errorf(ErrInvalidOperation, "%s must evaluate to an integer scalar", what)
	}
	return v, nil
}

func evalLiteral(e *LiteralExpr) (*Series, error) {
	switch {
	case e.Series != nil:
		return e.Series.Clone(), nil
	case e.Range != nil:
		n := max(e.Range.High-e.Range.Low, 0)
		vals := make([]int64, n)
		for i := range vals {
			vals[i] = e.Range.Low + int64(i)
		}
		s := NewInt64("literal", vals, nil)
		if e.Range.DType.Kind == KindInt64 || e.Range.DType.Kind == KindNull {
			return s, nil
		}
		return s.Cast(e.Range.DType, true)
	}
	return FromValues("literal", e.Scalar.Type, []AnyValue{*e.Scalar})
}

func (c *evalContext) evalSortBy(e *SortByExpr) (*Series, error) {
	s, err := c.eval(e.Input)
	if err != nil {
		return nil, err
	}
	if len(e.Options.Descending) > 1 && len(e.Options.Descending) != len(e.By) {
		return nil, errorf(ErrInvalidOperation, "the length of `descending` (%d) does not match the number of sort keys (%d)", len(e.Options.Descending), len(e.By))
	}
	keys := make([]*Series, len(e.By))
	for i, by := range e.By {
		k, err := c.eval(by)
		if err != nil {
			return nil, err
		}
		if k.Len() != s.Len() {
			return nil, errorf(ErrShapeMismatch, "sort_by key has length %d, expected %d", k.Len(), s.Len())
		}
		keys[i] = k
	}
	return s.Take(ArgSort(keys, e.Options)), nil
}

func (c *evalContext) evalTernary(e *TernaryExpr) (*Series, error) {
	pred, err := c.eval(e.Predicate)
	if err != nil {
		return nil, err
	}
	if pred.dtype.Kind != KindBoolean {
		return nil, errorf(ErrInvalidOperation, "when predicate must be of type bool, got %s", pred.dtype)
	}
	t, err := c.eval(e.Truthy)
	if err != nil {
		return nil, err
	}
	f, err := c.eval(e.Falsy)
	if err != nil {
		return nil, err
	}
	n := max(pred.Len(), t.Len(), f.Len())
	for _, s := range []*Series{pred, t, f} {
		if s.Len() != n && s.Len() != 1 {
			return nil, errorf(ErrShapeMismatch, "shapes of `self`, `mask` and `other` are not suitable for `zip_with` operation")
		}
	}
	st, ok := supertype(t.dtype, f.dtype)
	if !ok {
		return nil, errorf(ErrSchemaMismatch, "then and otherwise have incompatible types %s and %s", t.dtype, f.dtype)
	}
	mask, valid := pred.bools()
	vals := make([]AnyValue, n)
	for i := range vals {
		j := at(i, len(mask))
		if mask[j] && valid[j] {
			vals[i] = t.value(at(i, t.Len()))
		} else {
			vals[i] = f.value(at(i, f.Len()))
		}
	}
	return FromValues(t.name, st, vals)
}

// ExpandExprs replaces every expression containing a multi-output leaf
// by one copy per matching column.
func ExpandExprs(exprs []Expr, df *DataFrame) ([]Expr, error) {
	out := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		leaf := findMultiOutput(e)
		if leaf == nil {
			out = append(out, e)
			continue
		}
		names, err := matchColumns(leaf, df)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			out = append(out, replaceLeaf(e, leaf, Col(name)))
		}
	}
	return out, nil
}

func findMultiOutput(e Expr) Expr {
	if isMultiOutput(e) {
		return e
	}
	if f, ok := e.(*FunctionExpr); ok && f.Function.variadic() {
		// variadic inputs expand in place at evaluation time
		return nil
	}
	if _, ok := e.(*HorizontalExpr); ok {
		return nil
	}
	for _, in := range e.inputs() {
		if leaf := findMultiOutput(in); leaf != nil {
			return leaf
		}
	}
	return nil
}

func matchColumns(leaf Expr, df *DataFrame) ([]string, error) {
	switch leaf := leaf.(type) {
	case *WildcardExpr:
		return df.ColumnNames(), nil
	case *ColumnsExpr:
		for _, name := range leaf.Names {
			if _, err := df.ColumnByName(name); err != nil {
				return nil, err
			}
		}
		return leaf.Names, nil
	case *DtypeColumnExpr:
		var names []string
		for _, col := range df.Columns() {
			for _, dt := range leaf.Types {
				if col.DType().Equal(dt) {
					names = append(names, col.Name())
					break
				}
			}
		}
		return names, nil
	}
	return nil, nil
}

func replaceLeaf(e, leaf, with Expr) Expr {
	if e == leaf {
		return with
	}
	in := e.inputs()
	if len(in) == 0 {
		return e
	}
	next := make([]Expr, len(in))
	for i, child := range in {
		next[i] = replaceLeaf(child, leaf, with)
	}
	return e.withInputs(next)
}

// outputName is the name a projection of e produces on df.
func outputName(e Expr, df *DataFrame) string {
	switch e := e.(type) {
	case *AliasExpr:
		return e.Name
	case *ColumnExpr:
		return e.Name
	case *LiteralExpr:
		if e.Series != nil {
			return e.Series.Name()
		}
		return "literal"
	case *LenExpr:
		return "len"
	case *NthExpr:
		i := int(e.Index)
		if i < 0 {
			i += df.Width()
		}
		if s, ok := df.Column(i); ok {
			return s.Name()
		}
		return ""
	case *KeepNameExpr:
		if name, ok := rootColumn(e.Input); ok {
			return name
		}
	case *TernaryExpr:
		return outputName(e.Truthy, df)
	case *WindowExpr:
		return outputName(e.Function, df)
	}
	in := e.inputs()
	if len(in) == 0 {
		return ""
	}
	return outputName(in[0], df)
}
