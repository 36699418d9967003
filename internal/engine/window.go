package engine

// groups partitions the rows of df by the values of keys, in order of first
// appearance. Each group lists its row numbers ascending.
func groups(keys []*Series, height int) [][]int {
	index := make(map[string]int)
	var out [][]int
	var buf []byte
	for i := 0; i < height; i++ {
		buf = buf[:0]
		for _, k := range keys {
			buf = appendKey(buf, k.value(at(i, k.Len())))
		}
		g, ok := index[string(buf)]
		if !ok {
			g = len(out)
			index[string(buf)] = g
			out = append(out, nil)
		}
		out[g] = append(out[g], i)
	}
	return out
}

// subContext evaluates on the rows of one group.
func (c *evalContext) subContext(rows []int) (*evalContext, error) {
	sub, err := c.df.Take(rows)
	if err != nil {
		return nil, err
	}
	orig := rows
	if c.rows != nil {
		orig = make([]int, len(rows))
		for i, r := range rows {
			orig[i] = c.rows[r]
		}
	}
	return &evalContext{df: sub, rows: orig}, nil
}

func (c *evalContext) evalWindow(e *WindowExpr) (*Series, error) {
	keys := make([]*Series, len(e.PartitionBy))
	for i, p := range e.PartitionBy {
		k, err := c.eval(p)
		if err != nil {
			return nil, err
		}
		if k.Len() != c.df.Height() && k.Len() != 1 {
			return nil, errorf(ErrShapeMismatch, "window partition key has length %d, expected %d", k.Len(), c.df.Height())
		}
		keys[i] = k
	}
	parts := groups(keys, c.df.Height())
	results := make([]*Series, len(parts))
	for g, rows := range parts {
		sub, err := c.subContext(rows)
		if err != nil {
			return nil, err
		}
		if results[g], err = sub.eval(e.Function); err != nil {
			return nil, err
		}
	}

	name := outputName(e.Function, c.df)
	dt := Null
	for _, r := range results {
		if r.dtype.Kind != KindNull {
			dt = r.dtype
			break
		}
	}

	switch e.Mapping {
	case WindowExplode:
		var vals []AnyValue
		for _, r := range results {
			vals = append(vals, r.Values()...)
		}
		return FromValues(name, dt, vals)
	case WindowJoin:
		vals := make([]AnyValue, c.df.Height())
		for g, rows := range parts {
			v := ListValue(results[g].Rechunk())
			for _, r := range rows {
				vals[r] = v
			}
		}
		return FromValues(name, List(dt), vals)
	}

	vals := make([]AnyValue, c.df.Height())
	for g, rows := range parts {
		r := results[g]
		switch r.Len() {
		case 1:
			v := r.value(0)
			for _, row := range rows {
				vals[row] = v
			}
		case len(rows):
			for k, row := range rows {
				vals[row] = r.value(k)
			}
		default:
			return nil, errorf(ErrShapeMismatch, "the length of the window expression did not match that of the group: %d vs %d", r.Len(), len(rows))
		}
	}
	return FromValues(name, dt, vals)
}
