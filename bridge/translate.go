package bridge

import (
	"github.com/isesword/framebridge/internal/engine"
	"github.com/isesword/framebridge/plan"
)

// Translator 把 plan 表达式翻译为引擎节点。每次边界调用使用一个新的 Translator。
// 按节点身份缓存结果：被多个父节点共享的子树只翻译一次，得到同一个引擎节点。
// 翻译不修改输入树。
type Translator struct {
	b    *Bridge
	memo map[plan.Expr]engine.Expr
}

func (b *Bridge) newTranslator() *Translator {
	return &Translator{b: b, memo: make(map[plan.Expr]engine.Expr)}
}

// Expr 翻译一个表达式
func (t *Translator) Expr(e plan.Expr) (engine.Expr, error) {
	if e == nil {
		return nil, errorMsg(ErrInvalidArgument, "missing expression")
	}
	if n, ok := t.memo[e]; ok {
		return n, nil
	}
	n, err := t.translate(e)
	if err != nil {
		return nil, err
	}
	t.memo[e] = n
	return n, nil
}

// Exprs 按顺序翻译一组表达式
func (t *Translator) Exprs(exprs []plan.Expr) ([]engine.Expr, error) {
	out := make([]engine.Expr, len(exprs))
	for i, e := range exprs {
		n, err := t.Expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

var operators = [...]engine.Operator{
	plan.OpEq:            engine.OpEq,
	plan.OpEqValidity:    engine.OpEqValidity,
	plan.OpNotEq:         engine.OpNotEq,
	plan.OpNotEqValidity: engine.OpNotEqValidity,
	plan.OpLt:            engine.OpLt,
	plan.OpLtEq:          engine.OpLtEq,
	plan.OpGt:            engine.OpGt,
	plan.OpGtEq:          engine.OpGtEq,
	plan.OpPlus:          engine.OpPlus,
	plan.OpMinus:         engine.OpMinus,
	plan.OpMultiply:      engine.OpMultiply,
	plan.OpDivide:        engine.OpDivide,
	plan.OpTrueDivide:    engine.OpTrueDivide,
	plan.OpFloorDivide:   engine.OpFloorDivide,
	plan.OpModulus:       engine.OpModulus,
	plan.OpAnd:           engine.OpAnd,
	plan.OpOr:            engine.OpOr,
	plan.OpXor:           engine.OpXor,
}

var windowMappings = [...]engine.WindowMapping{
	plan.GroupsToRows:  engine.GroupsToRows,
	plan.WindowExplode: engine.WindowExplode,
	plan.WindowJoin:    engine.WindowJoin,
}

var rollingOps = [...]engine.RollingOp{
	plan.RollingMin:      engine.RollingMin,
	plan.RollingMax:      engine.RollingMax,
	plan.RollingMean:     engine.RollingMean,
	plan.RollingSum:      engine.RollingSum,
	plan.RollingMedian:   engine.RollingMedian,
	plan.RollingQuantile: engine.RollingQuantile,
	plan.RollingVar:      engine.RollingVar,
	plan.RollingStd:      engine.RollingStd,
}

var closedWindows = [...]engine.ClosedWindow{
	plan.ClosedLeft:  engine.ClosedLeft,
	plan.ClosedRight: engine.ClosedRight,
	plan.ClosedBoth:  engine.ClosedBoth,
	plan.ClosedNone:  engine.ClosedNone,
}

var horizontalOps = [...]engine.HorizontalOp{
	plan.HorizontalMin: engine.HorizontalMin,
	plan.HorizontalMax: engine.HorizontalMax,
	plan.HorizontalSum: engine.HorizontalSum,
}

func (t *Translator) translate(e plan.Expr) (engine.Expr, error) {
	switch e := e.(type) {
	case *plan.Column:
		return engine.Col(e.Name), nil
	case *plan.Columns:
		return &engine.ColumnsExpr{Names: append([]string(nil), e.Names...)}, nil
	case *plan.DtypeColumn:
		types := make([]engine.DataType, len(e.Types))
		for i, dt := range e.Types {
			et, err := toEngineType(dt)
			if err != nil {
				return nil, err
			}
			types[i] = et
		}
		return &engine.DtypeColumnExpr{Types: types}, nil
	case *plan.Wildcard:
		return &engine.WildcardExpr{}, nil
	case *plan.Nth:
		return &engine.NthExpr{Index: e.Index}, nil
	case *plan.Len:
		return &engine.LenExpr{}, nil
	case *plan.Literal:
		return t.literal(e.Value)

	case *plan.Alias:
		in, err := t.Expr(e.Expr)
		if err != nil {
			return nil, err
		}
		return &engine.AliasExpr{Input: in, Name: e.Name}, nil
	case *plan.KeepName:
		in, err := t.Expr(e.Expr)
		if err != nil {
			return nil, err
		}
		return &engine.KeepNameExpr{Input: in}, nil
	case *plan.BinaryExpr:
		if int(e.Op) >= len(operators) {
			return nil, errorMsg(ErrInvalidArgument, "unknown operator %d", e.Op)
		}
		l, err := t.Expr(e.Left)
		if err != nil {
			return nil, err
		}
		r, err := t.Expr(e.Right)
		if err != nil {
			return nil, err
		}
		return &engine.BinaryExpr{Left: l, Op: operators[e.Op], Right: r}, nil
	case *plan.Cast:
		in, err := t.Expr(e.Expr)
		if err != nil {
			return nil, err
		}
		dt, err := toEngineType(e.DataType)
		if err != nil {
			return nil, err
		}
		return &engine.CastExpr{Input: in, DataType: dt, Strict: e.Strict}, nil
	case *plan.Sort:
		in, err := t.Expr(e.Expr)
		if err != nil {
			return nil, err
		}
		return &engine.SortExpr{Input: in, Options: toEngineSortOptions(e.Options)}, nil
	case *plan.Gather:
		in, err := t.Expr(e.Expr)
		if err != nil {
			return nil, err
		}
		idx, err := t.Expr(e.Idx)
		if err != nil {
			return nil, err
		}
		return &engine.GatherExpr{Input: in, Index: idx, ReturnsScalar: e.ReturnsScalar}, nil
	case *plan.SortBy:
		in, err := t.Expr(e.Expr)
		if err != nil {
			return nil, err
		}
		by, err := t.Exprs(e.By)
		if err != nil {
			return nil, err
		}
		return &engine.SortByExpr{Input: in, By: by, Options: toEngineSortMultiple(e.SortOptions)}, nil
	case *plan.Agg:
		return t.agg(e.Agg)
	case *plan.Ternary:
		p, err := t.Expr(e.Predicate)
		if err != nil {
			return nil, err
		}
		tr, err := t.Expr(e.Truthy)
		if err != nil {
			return nil, err
		}
		f, err := t.Expr(e.Falsy)
		if err != nil {
			return nil, err
		}
		return &engine.TernaryExpr{Predicate: p, Truthy: tr, Falsy: f}, nil
	case *plan.Function:
		return t.function(e)
	case *plan.Explode:
		in, err := t.Expr(e.Expr)
		if err != nil {
			return nil, err
		}
		return &engine.ExplodeExpr{Input: in}, nil
	case *plan.Filter:
		in, err := t.Expr(e.Input)
		if err != nil {
			return nil, err
		}
		by, err := t.Expr(e.By)
		if err != nil {
			return nil, err
		}
		return &engine.FilterExpr{Input: in, By: by}, nil
	case *plan.Window:
		if int(e.Options) >= len(windowMappings) {
			return nil, errorMsg(ErrInvalidArgument, "unknown window mapping %d", e.Options)
		}
		fn, err := t.Expr(e.Function)
		if err != nil {
			return nil, err
		}
		by, err := t.Exprs(e.PartitionBy)
		if err != nil {
			return nil, err
		}
		return &engine.WindowExpr{Function: fn, PartitionBy: by, Mapping: windowMappings[e.Options]}, nil
	case *plan.Slice:
		in, err := t.Expr(e.Input)
		if err != nil {
			return nil, err
		}
		off, err := t.Expr(e.Offset)
		if err != nil {
			return nil, err
		}
		n, err := t.Expr(e.Length)
		if err != nil {
			return nil, err
		}
		return &engine.SliceExpr{Input: in, Offset: off, Length: n}, nil
	case *plan.Rolling:
		return t.rolling(e)
	case *plan.Horizontal:
		if len(e.Input) == 0 {
			panic("caller contract violated: horizontal aggregation needs at least one input")
		}
		if int(e.Op) >= len(horizontalOps) {
			return nil, errorMsg(ErrInvalidArgument, "unknown horizontal operation %d", e.Op)
		}
		in, err := t.Exprs(e.Input)
		if err != nil {
			return nil, err
		}
		h, err := engine.NewHorizontal(horizontalOps[e.Op], in)
		if err != nil {
			return nil, errorWithDesc(err, "horizontal aggregation")
		}
		return h, nil
	case *plan.ForwardFill:
		in, err := t.Expr(e.Expr)
		if err != nil {
			return nil, err
		}
		var limit *uint32
		if e.Limit != nil {
			n := *e.Limit
			limit = &n
		}
		return &engine.ForwardFillExpr{Input: in, Limit: limit}, nil
	}
	return nil, errorMsg(ErrInvalidArgument, "unknown expression %T", e)
}

func (t *Translator) literal(v plan.LiteralValue) (engine.Expr, error) {
	switch v := v.(type) {
	case plan.NullLit:
		return engine.Lit(engine.NullValue(engine.Null)), nil
	case plan.BoolLit:
		return engine.Lit(engine.BoolValue(bool(v))), nil
	case plan.StringLit:
		return engine.Lit(engine.StringValue(string(v))), nil
	case plan.UInt64Lit:
		return engine.Lit(engine.UintValue(uint64(v))), nil
	case plan.Int64Lit:
		return engine.Lit(engine.IntValue(int64(v))), nil
	case plan.Float32Lit:
		return engine.Lit(engine.Float32Value(float32(v))), nil
	case plan.Float64Lit:
		return engine.Lit(engine.FloatValue(float64(v))), nil
	case plan.RangeLit:
		dt, err := toEngineType(v.DataType)
		if err != nil {
			return nil, err
		}
		return &engine.LiteralExpr{Range: &engine.Range{Low: v.Low, High: v.High, DType: dt}}, nil
	case plan.SeriesLit:
		s, err := t.b.series(v.Series)
		if err != nil {
			return nil, err
		}
		return &engine.LiteralExpr{Series: s}, nil
	}
	return nil, errorMsg(ErrInvalidArgument, "unknown literal %T", v)
}

func (t *Translator) agg(a plan.AggExpr) (engine.Expr, error) {
	var (
		out   engine.AggExpr
		input plan.Expr
	)
	switch a := a.(type) {
	case *plan.Min:
		out.Kind, out.PropagateNaNs, input = engine.AggMin, a.PropagateNaNs, a.Input
	case *plan.Max:
		out.Kind, out.PropagateNaNs, input = engine.AggMax, a.PropagateNaNs, a.Input
	case *plan.Median:
		out.Kind, input = engine.AggMedian, a.Input
	case *plan.NUnique:
		out.Kind, input = engine.AggNUnique, a.Input
	case *plan.First:
		out.Kind, input = engine.AggFirst, a.Input
	case *plan.Last:
		out.Kind, input = engine.AggLast, a.Input
	case *plan.Mean:
		out.Kind, input = engine.AggMean, a.Input
	case *plan.Implode:
		out.Kind, input = engine.AggImplode, a.Input
	case *plan.Count:
		out.Kind, out.IncludeNulls, input = engine.AggCount, a.IncludeNulls, a.Input
	case *plan.Sum:
		out.Kind, input = engine.AggSum, a.Input
	case *plan.AggGroups:
		out.Kind, input = engine.AggGroups, a.Input
	case *plan.Std:
		out.Kind, out.Ddof, input = engine.AggStd, a.Ddof, a.Input
	case *plan.Var:
		out.Kind, out.Ddof, input = engine.AggVar, a.Ddof, a.Input
	default:
		return nil, errorMsg(ErrInvalidArgument, "unknown aggregation %T", a)
	}
	in, err := t.Expr(input)
	if err != nil {
		return nil, err
	}
	out.Input = in
	return &out, nil
}

var booleanKinds = map[plan.BooleanFunction]engine.BooleanKind{
	plan.Not{}:           engine.BoolNot,
	plan.IsNull{}:        engine.BoolIsNull,
	plan.IsNotNull{}:     engine.BoolIsNotNull,
	plan.IsFinite{}:      engine.BoolIsFinite,
	plan.IsInfinite{}:    engine.BoolIsInfinite,
	plan.IsNan{}:         engine.BoolIsNan,
	plan.IsNotNan{}:      engine.BoolIsNotNan,
	plan.AllHorizontal{}: engine.BoolAllHorizontal,
	plan.AnyHorizontal{}: engine.BoolAnyHorizontal,
}

func toEngineFunction(f plan.FunctionExpr) (engine.Function, error) {
	var out engine.Function
	switch f := f.(type) {
	case plan.Abs:
		out.Kind = engine.FuncAbs
	case plan.NullCount:
		out.Kind = engine.FuncNullCount
	case plan.FillNull:
		out.Kind = engine.FuncFillNull
	case plan.DropNans:
		out.Kind = engine.FuncDropNans
	case plan.Shift:
		out.Kind = engine.FuncShift
	case plan.CumCount:
		out.Kind, out.Reverse = engine.FuncCumCount, f.Reverse
	case plan.CumSum:
		out.Kind, out.Reverse = engine.FuncCumSum, f.Reverse
	case plan.CumProd:
		out.Kind, out.Reverse = engine.FuncCumProd, f.Reverse
	case plan.CumMin:
		out.Kind, out.Reverse = engine.FuncCumMin, f.Reverse
	case plan.CumMax:
		out.Kind, out.Reverse = engine.FuncCumMax, f.Reverse
	case plan.Reverse:
		out.Kind = engine.FuncReverse
	case plan.BooleanFn:
		out.Kind = engine.FuncBoolean
		switch bf := f.Func.(type) {
		case plan.All:
			out.Boolean, out.IgnoreNulls = engine.BoolAll, bf.IgnoreNulls
		case plan.Any:
			out.Boolean, out.IgnoreNulls = engine.BoolAny, bf.IgnoreNulls
		case nil:
			return out, errorMsg(ErrInvalidArgument, "missing boolean function")
		default:
			k, ok := booleanKinds[bf]
			if !ok {
				return out, errorMsg(ErrInvalidArgument, "unknown boolean function %T", bf)
			}
			out.Boolean = k
		}
	case plan.Coalesce:
		out.Kind = engine.FuncCoalesce
	case plan.ShrinkType:
		out.Kind = engine.FuncShrinkType
	case plan.Entropy:
		out.Kind, out.Base, out.Normalize = engine.FuncEntropy, f.Base, f.Normalize
	case plan.Log:
		out.Kind, out.Base = engine.FuncLog, f.Base
	case plan.Log1p:
		out.Kind = engine.FuncLog1p
	case plan.Exp:
		out.Kind = engine.FuncExp
	case plan.Unique:
		out.Kind, out.MaintainOrder = engine.FuncUnique, f.MaintainOrder
	case plan.Round:
		out.Kind, out.Decimals = engine.FuncRound, f.Decimals
	case plan.Floor:
		out.Kind = engine.FuncFloor
	case plan.Ceil:
		out.Kind = engine.FuncCeil
	case plan.UpperBound:
		out.Kind = engine.FuncUpperBound
	case plan.LowerBound:
		out.Kind = engine.FuncLowerBound
	case plan.ConcatExpr:
		out.Kind, out.Rechunk = engine.FuncConcatExpr, f.Rechunk
	case plan.ToPhysical:
		out.Kind = engine.FuncToPhysical
	case plan.SetSortedFlag:
		sorted, err := toEngineSorted(f.Sorted)
		if err != nil {
			return out, err
		}
		out.Kind, out.Sorted = engine.FuncSetSortedFlag, sorted
	default:
		return out, errorMsg(ErrInvalidArgument, "unknown function %T", f)
	}
	return out, nil
}

func (t *Translator) function(e *plan.Function) (engine.Expr, error) {
	fn, err := toEngineFunction(e.Function)
	if err != nil {
		return nil, err
	}
	in, err := t.Exprs(e.Input)
	if err != nil {
		return nil, err
	}
	opts := engine.FunctionOptions{
		CollectGroups:    engine.ApplyOptions(e.Options.CollectGroups),
		CastToSupertypes: e.Options.CastToSupertypes,
	}
	return &engine.FunctionExpr{Inputs: in, Function: fn, Options: opts}, nil
}

func (t *Translator) rolling(e *plan.Rolling) (engine.Expr, error) {
	if int(e.Op.Kind) >= len(rollingOps) {
		return nil, errorMsg(ErrInvalidArgument, "unknown rolling function %d", e.Op.Kind)
	}
	in, err := t.Expr(e.Expr)
	if err != nil {
		return nil, err
	}
	size, err := toEngineDuration(e.Options.WindowSize)
	if err != nil {
		return nil, err
	}
	// 未指定时右闭
	closed := engine.ClosedRight
	if c := e.Options.ClosedWindow; c != nil {
		if int(*c) >= len(closedWindows) {
			return nil, errorMsg(ErrInvalidArgument, "unknown closed window %d", *c)
		}
		closed = closedWindows[*c]
	}
	return &engine.RollingExpr{
		Input:    in,
		Op:       rollingOps[e.Op.Kind],
		Quantile: e.Op.Quantile,
		Options: engine.RollingOptions{
			WindowSize: size,
			MinPeriods: e.Options.MinPeriods,
			Weights:    append([]float64(nil), e.Options.Weights...),
			Center:     e.Options.Center,
			By:         e.Options.By,
			Closed:     closed,
		},
	}, nil
}

// PrintExpr 返回表达式翻译后的引擎树的文本形式
func (b *Bridge) PrintExpr(e plan.Expr) (string, error) {
	defer b.enter("print_expr")()
	n, err := b.newTranslator().Expr(e)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}
