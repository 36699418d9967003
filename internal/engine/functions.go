package engine

import (
	"fmt"
	"math"
)

// FunctionKind names a function call node.
type FunctionKind uint8

const (
	FuncAbs FunctionKind = iota
	FuncNullCount
	FuncFillNull
	FuncDropNans
	FuncShift
	FuncCumCount
	FuncCumSum
	FuncCumProd
	FuncCumMin
	FuncCumMax
	FuncReverse
	FuncBoolean
	FuncCoalesce
	FuncShrinkType
	FuncEntropy
	FuncLog
	FuncLog1p
	FuncExp
	FuncUnique
	FuncRound
	FuncFloor
	FuncCeil
	FuncUpperBound
	FuncLowerBound
	FuncConcatExpr
	FuncToPhysical
	FuncSetSortedFlag
)

var functionNames = [...]string{
	"abs", "null_count", "fill_null", "drop_nans", "shift", "cum_count", "cum_sum",
	"cum_prod", "cum_min", "cum_max", "reverse", "boolean", "coalesce", "shrink_dtype",
	"entropy", "log", "log1p", "exp", "unique", "round", "floor", "ceil", "upper_bound",
	"lower_bound", "concat_expr", "to_physical", "set_sorted",
}

func (k FunctionKind) String() string { return functionNames[k] }

// BooleanKind names a boolean function.
type BooleanKind uint8

const (
	BoolAll BooleanKind = iota
	BoolAny
	BoolNot
	BoolIsNull
	BoolIsNotNull
	BoolIsFinite
	BoolIsInfinite
	BoolIsNan
	BoolIsNotNan
	BoolAllHorizontal
	BoolAnyHorizontal
)

var booleanNames = [...]string{
	"all", "any", "not", "is_null", "is_not_null", "is_finite", "is_infinite",
	"is_nan", "is_not_nan", "all_horizontal", "any_horizontal",
}

func (k BooleanKind) String() string { return booleanNames[k] }

// Function is a function tag plus its parameters.
type Function struct {
	Kind          FunctionKind
	Reverse       bool        // cumulative functions
	Boolean       BooleanKind // FuncBoolean
	IgnoreNulls   bool        // BoolAll, BoolAny
	Base          float64     // FuncEntropy, FuncLog
	Normalize     bool        // FuncEntropy
	MaintainOrder bool        // FuncUnique
	Decimals      uint32      // FuncRound
	Rechunk       bool        // FuncConcatExpr
	Sorted        IsSorted    // FuncSetSortedFlag
}

func (f Function) String() string {
	if f.Kind == FuncBoolean {
		return f.Boolean.String()
	}
	return f.Kind.String()
}

// ApplyOptions says how a function is applied under a group context.
type ApplyOptions uint8

const (
	GroupWise ApplyOptions = iota
	ApplyList
	ElementWise
)

// FunctionOptions carries evaluation flags of a function call.
type FunctionOptions struct {
	CollectGroups    ApplyOptions
	CastToSupertypes bool
}

// FunctionExpr calls Function on Inputs.
type FunctionExpr struct {
	Inputs   []Expr
	Function Function
	Options  FunctionOptions
}

func (e *FunctionExpr) String() string {
	if len(e.Inputs) == 0 {
		return e.Function.String() + "()"
	}
	if len(e.Inputs) == 1 {
		return fmt.Sprintf("%s.%s()", e.Inputs[0], e.Function)
	}
	return fmt.Sprintf("%s.%s([%s])", e.Inputs[0], e.Function, joinExprs(e.Inputs[1:]))
}
func (e *FunctionExpr) inputs() []Expr { return e.Inputs }
func (e *FunctionExpr) withInputs(in []Expr) Expr {
	return &FunctionExpr{Inputs: in, Function: e.Function, Options: e.Options}
}

// variadic reports whether f takes an expandable list of inputs.
func (f Function) variadic() bool {
	switch f.Kind {
	case FuncCoalesce, FuncConcatExpr:
		return true
	case FuncBoolean:
		return f.Boolean == BoolAllHorizontal || f.Boolean == BoolAnyHorizontal
	}
	return false
}

func (f Function) apply(in []*Series, opts FunctionOptions) (*Series, error) {
	if len(in) == 0 {
		return nil, errorf(ErrInvalidOperation, "function %s needs at least one input", f)
	}
	if opts.CastToSupertypes && len(in) > 1 {
		var err error
		if in, err = castToSupertype(in); err != nil {
			return nil, err
		}
	}
	s := in[0]
	switch f.Kind {
	case FuncAbs:
		return mapNumeric(s, "abs", math.Abs, func(v int64) int64 {
			if v < 0 {
				return -v
			}
			return v
		})
	case FuncNullCount:
		return NewUInt64(s.name, []uint64{uint64(s.NullCount())}, nil), nil
	case FuncFillNull:
		if len(in) < 2 {
			return nil, errorf(ErrInvalidOperation, "fill_null needs a fill value")
		}
		return fillNull(s, in[1])
	case FuncDropNans:
		if !s.dtype.IsFloat() {
			return s.Clone(), nil
		}
		vals, _ := s.f64s()
		mask := make([]bool, len(vals))
		for i, v := range vals {
			mask[i] = !math.IsNaN(v)
		}
		return s.Filter(NewBool("", mask, nil))
	case FuncShift:
		periods := int64(1)
		if len(in) > 1 {
			p, ok := scalarInt(in[1])
			if !ok {
				return nil, errorf(ErrInvalidOperation, "shift periods must be an integer scalar")
			}
			periods = p
		}
		return shift(s, periods), nil
	case FuncCumCount, FuncCumSum, FuncCumProd, FuncCumMin, FuncCumMax:
		return cumulative(s, f.Kind, f.Reverse)
	case FuncReverse:
		idx := make([]int, s.Len())
		for i := range idx {
			idx[i] = s.Len() - 1 - i
		}
		return s.Take(idx), nil
	case FuncBoolean:
		return booleanFunction(in, f)
	case FuncCoalesce:
		return coalesce(in)
	case FuncShrinkType:
		return shrinkType(s), nil
	case FuncEntropy:
		return entropy(s, f.Base, f.Normalize)
	case FuncLog:
		return mapFloat(s, "log", func(v float64) float64 { return math.Log(v) / math.Log(f.Base) })
	case FuncLog1p:
		return mapFloat(s, "log1p", math.Log1p)
	case FuncExp:
		return mapFloat(s, "exp", math.Exp)
	case FuncUnique:
		return unique(s, f.MaintainOrder), nil
	case FuncRound:
		scale := math.Pow(10, float64(f.Decimals))
		return mapNumeric(s, "round", func(v float64) float64 { return math.Round(v*scale) / scale }, nil)
	case FuncFloor:
		return mapNumeric(s, "floor", math.Floor, nil)
	case FuncCeil:
		return mapNumeric(s, "ceil", math.Ceil, nil)
	case FuncUpperBound, FuncLowerBound:
		return bound(s, f.Kind == FuncUpperBound)
	case FuncConcatExpr:
		return concatSeries(in, f.Rechunk)
	case FuncToPhysical:
		if s.dtype.Kind == KindDatetime {
			return s.Cast(Int64, true)
		}
		return s.Clone(), nil
	case FuncSetSortedFlag:
		return s.WithSorted(f.Sorted), nil
	}
	return nil, errorf(ErrInvalidOperation, "function %s is not supported", f)
}

func castToSupertype(in []*Series) ([]*Series, error) {
	st := in[0].dtype
	for _, s := range in[1:] {
		var ok bool
		if st, ok = supertype(st, s.dtype); !ok {
			return nil, errorf(ErrSchemaMismatch, "failed to determine supertype of %s and %s", st, s.dtype)
		}
	}
	out := make([]*Series, len(in))
	for i, s := range in {
		c, err := s.Cast(st, true)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func scalarInt(s *Series) (int64, bool) {
	if s.Len() != 1 {
		return 0, false
	}
	return s.value(0).AsInt()
}

// mapNumeric applies ff to floats and fi to integers; a nil fi keeps integers unchanged.
func mapNumeric(s *Series, op string, ff func(float64) float64, fi func(int64) int64) (*Series, error) {
	switch {
	case s.dtype.IsFloat():
		vals, valid := s.f64s()
		for i, v := range vals {
			vals[i] = ff(v)
		}
		return newFloat(s.name, s.dtype, vals, valid), nil
	case s.dtype.IsInteger():
		if fi == nil {
			return s.Clone(), nil
		}
		vals, valid := s.i64s()
		for i, v := range vals {
			vals[i] = fi(v)
		}
		return newInt(s.name, s.dtype, vals, valid), nil
	case s.dtype.Kind == KindNull:
		return s.Clone(), nil
	}
	return nil, errorf(ErrInvalidOperation, "`%s` operation not supported for dtype `%s`", op, s.dtype)
}

func mapFloat(s *Series, op string, ff func(float64) float64) (*Series, error) {
	if err := requireNumeric(s, op); err != nil {
		return nil, err
	}
	vals, valid := s.f64s()
	for i, v := range vals {
		vals[i] = ff(v)
	}
	return newFloat(s.name, floatResultType(s.dtype), vals, valid), nil
}

func fillNull(s, fill *Series) (*Series, error) {
	if fill.Len() != 1 && fill.Len() != s.Len() {
		return nil, errorf(ErrShapeMismatch, "fill value has length %d, expected 1 or %d", fill.Len(), s.Len())
	}
	st, ok := supertype(s.dtype, fill.dtype)
	if !ok {
		return nil, errorf(ErrSchemaMismatch, "cannot fill nulls of %s with %s", s.dtype, fill.dtype)
	}
	vals := s.Values()
	for i, v := range vals {
		if v.IsNull() {
			vals[i] = fill.value(at(i, fill.Len()))
		}
	}
	return FromValues(s.name, st, vals)
}

func shift(s *Series, periods int64) *Series {
	n := s.Len()
	idx := make([]int, n)
	for i := range idx {
		j := int64(i) - periods
		if j < 0 || j >= int64(n) {
			idx[i] = -1
			continue
		}
		idx[i] = int(j)
	}
	return s.Take(idx)
}

func cumulative(s *Series, kind FunctionKind, reverse bool) (*Series, error) {
	n := s.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
		if reverse {
			order[i] = n - 1 - i
		}
	}
	valid := s.validity()

	if kind == FuncCumCount {
		out := make([]uint64, n)
		var count uint64
		for _, i := range order {
			if valid[i] {
				count++
			}
			out[i] = count
		}
		return NewUInt64(s.name, out, nil), nil
	}

	switch {
	case s.dtype.IsFloat():
		vals, _ := s.f64s()
		out := make([]float64, n)
		started := false
		var acc float64
		for _, i := range order {
			if !valid[i] {
				continue
			}
			v := vals[i]
			switch {
			case !started:
				acc, started = v, true
			case kind == FuncCumSum:
				acc += v
			case kind == FuncCumProd:
				acc *= v
			case kind == FuncCumMin:
				acc = math.Min(acc, v)
			case kind == FuncCumMax:
				acc = math.Max(acc, v)
			}
			out[i] = acc
		}
		return newFloat(s.name, s.dtype, out, valid), nil
	case s.dtype.IsInteger() || s.dtype.Kind == KindBoolean:
		vals, _ := s.i64s()
		out := make([]int64, n)
		started := false
		var acc int64
		for _, i := range order {
			if !valid[i] {
				continue
			}
			v := vals[i]
			switch {
			case !started:
				acc, started = v, true
			case kind == FuncCumSum:
				acc += v
			case kind == FuncCumProd:
				acc *= v
			case kind == FuncCumMin:
				acc = min(acc, v)
			case kind == FuncCumMax:
				acc = max(acc, v)
			}
			out[i] = acc
		}
		dt := s.dtype
		if dt.Kind == KindBoolean {
			dt = Int64
		}
		return newInt(s.name, dt, out, valid), nil
	}
	return nil, errorf(ErrInvalidOperation, "`%s` operation not supported for dtype `%s`", kind, s.dtype)
}

func booleanFunction(in []*Series, f Function) (*Series, error) {
	s := in[0]
	switch f.Boolean {
	case BoolIsNull, BoolIsNotNull:
		valid := s.validity()
		out := make([]bool, len(valid))
		for i, v := range valid {
			out[i] = v == (f.Boolean == BoolIsNotNull)
		}
		return NewBool(s.name, out, nil), nil
	case BoolIsFinite, BoolIsInfinite, BoolIsNan, BoolIsNotNan:
		if !s.dtype.IsNumeric() {
			return nil, errorf(ErrInvalidOperation, "`%s` operation not supported for dtype `%s`", f.Boolean, s.dtype)
		}
		vals, valid := s.f64s()
		out := make([]bool, len(vals))
		for i, v := range vals {
			switch f.Boolean {
			case BoolIsFinite:
				out[i] = !math.IsInf(v, 0) && !math.IsNaN(v)
			case BoolIsInfinite:
				out[i] = math.IsInf(v, 0)
			case BoolIsNan:
				out[i] = math.IsNaN(v)
			case BoolIsNotNan:
				out[i] = !math.IsNaN(v)
			}
		}
		return NewBool(s.name, out, valid), nil
	}

	if s.dtype.Kind != KindBoolean && s.dtype.Kind != KindNull {
		return nil, errorf(ErrInvalidOperation, "`%s` operation not supported for dtype `%s`", f.Boolean, s.dtype)
	}
	switch f.Boolean {
	case BoolNot:
		vals, valid := s.bools()
		for i := range vals {
			vals[i] = !vals[i]
		}
		return NewBool(s.name, vals, valid), nil
	case BoolAll, BoolAny:
		vals, valid := s.bools()
		isAll := f.Boolean == BoolAll
		sawNull := false
		for i, v := range vals {
			if !valid[i] {
				sawNull = true
				continue
			}
			if v != isAll {
				return NewBool(s.name, []bool{!isAll}, nil), nil
			}
		}
		if sawNull && !f.IgnoreNulls {
			return NewBool(s.name, []bool{false}, []bool{false}), nil
		}
		return NewBool(s.name, []bool{isAll}, nil), nil
	case BoolAllHorizontal, BoolAnyHorizontal:
		op := OpAnd
		if f.Boolean == BoolAnyHorizontal {
			op = OpOr
		}
		acc := in[0]
		for _, next := range in[1:] {
			var err error
			if acc, err = BinaryOp(acc, next, op); err != nil {
				return nil, err
			}
		}
		return acc, nil
	}
	return nil, errorf(ErrInvalidOperation, "boolean function %s is not supported", f.Boolean)
}

func coalesce(in []*Series) (*Series, error) {
	n := 0
	for _, s := range in {
		n = max(n, s.Len())
	}
	for _, s := range in {
		if s.Len() != n && s.Len() != 1 {
			return nil, errorf(ErrShapeMismatch, "cannot coalesce series of lengths %d and %d", s.Len(), n)
		}
	}
	st := in[0].dtype
	for _, s := range in[1:] {
		var ok bool
		if st, ok = supertype(st, s.dtype); !ok {
			return nil, errorf(ErrSchemaMismatch, "failed to determine supertype of %s and %s", st, s.dtype)
		}
	}
	vals := make([]AnyValue, n)
	for i := range vals {
		vals[i] = NullValue(st)
		for _, s := range in {
			if v := s.value(at(i, s.Len())); !v.IsNull() {
				vals[i] = v
				break
			}
		}
	}
	return FromValues(in[0].name, st, vals)
}

func shrinkType(s *Series) *Series {
	if s.dtype.Kind != KindFloat64 {
		return s.Clone()
	}
	vals, valid := s.f64s()
	for i, v := range vals {
		if valid[i] && float64(float32(v)) != v && !math.IsNaN(v) {
			return s.Clone()
		}
	}
	out, err := s.Cast(Float32, true)
	if err != nil {
		return s.Clone()
	}
	return out
}

func entropy(s *Series, base float64, normalize bool) (*Series, error) {
	if err := requireNumeric(s, "entropy"); err != nil {
		return nil, err
	}
	vals := validFloats(s)
	if normalize {
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		for i := range vals {
			vals[i] /= sum
		}
	}
	h := 0.0
	for _, p := range vals {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return NewFloat64(s.name, []float64{h / math.Log(base)}, nil), nil
}

func unique(s *Series, maintainOrder bool) *Series {
	seen := make(map[string]struct{}, s.Len())
	var idx []int
	var buf []byte
	for i, v := range s.Values() {
		buf = appendKey(buf[:0], v)
		if _, ok := seen[string(buf)]; ok {
			continue
		}
		seen[string(buf)] = struct{}{}
		idx = append(idx, i)
	}
	out := s.Take(idx)
	if maintainOrder {
		return out
	}
	return out.Sort(SortOptions{MaintainOrder: true})
}

func bound(s *Series, upper bool) (*Series, error) {
	switch s.dtype.Kind {
	case KindInt64:
		if upper {
			return NewInt64(s.name, []int64{math.MaxInt64}, nil), nil
		}
		return NewInt64(s.name, []int64{math.MinInt64}, nil), nil
	case KindUInt64:
		if upper {
			return NewUInt64(s.name, []uint64{math.MaxUint64}, nil), nil
		}
		return NewUInt64(s.name, []uint64{0}, nil), nil
	case KindFloat32, KindFloat64:
		sign := -1
		if upper {
			sign = 1
		}
		return newFloat(s.name, s.dtype, []float64{math.Inf(sign)}, nil), nil
	case KindBoolean:
		return NewBool(s.name, []bool{upper}, nil), nil
	case KindDatetime:
		if upper {
			return NewDatetime(s.name, s.dtype.Unit, []int64{math.MaxInt64}, nil), nil
		}
		return NewDatetime(s.name, s.dtype.Unit, []int64{math.MinInt64}, nil), nil
	}
	return nil, errorf(ErrInvalidOperation, "`%s` has no bounds", s.dtype)
}

func concatSeries(in []*Series, rechunk bool) (*Series, error) {
	in, err := castToSupertype(in)
	if err != nil {
		return nil, err
	}
	out := in[0]
	for _, s := range in[1:] {
		if out, err = out.Append(s); err != nil {
			return nil, err
		}
	}
	if rechunk {
		return out.Rechunk(), nil
	}
	return out, nil
}

// explode flattens a list series; empty or null lists become one null.
func explode(s *Series) (*Series, error) {
	if s.dtype.Kind != KindList {
		return s.Clone(), nil
	}
	inner := *s.dtype.Inner
	var vals []AnyValue
	for _, v := range s.Values() {
		if v.IsNull() || v.List.Len() == 0 {
			vals = append(vals, NullValue(inner))
			continue
		}
		vals = append(vals, v.List.Values()...)
	}
	return FromValues(s.name, inner, vals)
}

// forwardFill carries the last non-null value forward at most limit times.
func forwardFill(s *Series, limit *uint32) (*Series, error) {
	vals := s.Values()
	var last AnyValue
	have := false
	run := uint32(0)
	for i, v := range vals {
		if !v.IsNull() {
			last, have, run = v, true, 0
			continue
		}
		if !have || (limit != nil && run >= *limit) {
			continue
		}
		vals[i] = last
		run++
	}
	return FromValues(s.name, s.dtype, vals)
}

// horizontal reduces inputs row-wise; nulls are skipped.
func horizontal(in []*Series, op HorizontalOp) (*Series, error) {
	in, err := castToSupertype(in)
	if err != nil {
		return nil, err
	}
	n := 0
	for _, s := range in {
		n = max(n, s.Len())
	}
	for _, s := range in {
		if s.Len() != n && s.Len() != 1 {
			return nil, errorf(ErrShapeMismatch, "cannot evaluate %s over series of lengths %d and %d", horizontalNames[op], s.Len(), n)
		}
	}
	dt := in[0].dtype
	vals := make([]AnyValue, n)
	for i := range vals {
		var acc AnyValue
		found := false
		for _, s := range in {
			v := s.value(at(i, s.Len()))
			if v.IsNull() {
				continue
			}
			if !found {
				acc, found = v, true
				continue
			}
			switch op {
			case HorizontalMin:
				if compareValues(v, acc) < 0 {
					acc = v
				}
			case HorizontalMax:
				if compareValues(v, acc) > 0 {
					acc = v
				}
			case HorizontalSum:
				acc = addValues(acc, v)
			}
		}
		switch {
		case found:
			vals[i] = acc
		case op == HorizontalSum:
			vals[i], _ = castValue(IntValue(0), dt)
		default:
			vals[i] = NullValue(dt)
		}
	}
	if op == HorizontalSum && dt.Kind == KindBoolean {
		dt = UInt64
	}
	return FromValues(in[0].name, dt, vals)
}

func addValues(a, b AnyValue) AnyValue {
	switch a.Type.Kind {
	case KindFloat32, KindFloat64:
		return AnyValue{Type: a.Type, Float: a.Float + b.Float}
	case KindUInt64:
		return AnyValue{Type: a.Type, Uint: a.Uint + b.Uint}
	case KindBoolean:
		ai, _ := a.AsInt()
		bi, _ := b.AsInt()
		return UintValue(uint64(ai + bi))
	case KindString:
		return StringValue(a.Str + b.Str)
	}
	return AnyValue{Type: a.Type, Int: a.Int + b.Int}
}

// gather takes values at idx; negative indices count from the end.
func gather(s, idx *Series) (*Series, error) {
	if !idx.dtype.IsInteger() && idx.dtype.Kind != KindNull {
		return nil, errorf(ErrInvalidOperation, "gather indices must be integers, got %s", idx.dtype)
	}
	raw, valid := idx.i64s()
	pos := make([]int, len(raw))
	for i, r := range raw {
		if !valid[i] {
			pos[i] = -1
			continue
		}
		if r < 0 {
			r += int64(s.Len())
		}
		if r < 0 || r >= int64(s.Len()) {
			return nil, errorf(ErrOutOfBounds, "gather indices are out of bounds")
		}
		pos[i] = int(r)
	}
	return s.Take(pos), nil
}
