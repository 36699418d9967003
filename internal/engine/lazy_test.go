package engine

import (
	"strings"
	"testing"
)

func salesFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame([]*Series{
		NewString("shop", []string{"b", "a", "b", "a", "c"}, nil),
		NewInt64("units", []int64{1, 2, 3, 4, 5}, nil),
		NewFloat64("price", []float64{10, 20, 30, 40, 50}, nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	return df
}

func TestLazyFilterSelectLimit(t *testing.T) {
	df := salesFrame(t)
	gt := &BinaryExpr{Left: Col("units"), Op: OpGt, Right: Lit(IntValue(1))}
	lt := &BinaryExpr{Left: Col("units"), Op: OpLt, Right: Lit(IntValue(5))}

	lf := df.Lazy().
		Filter(gt).
		Filter(lt).
		Select([]Expr{Col("shop"), &AliasExpr{Input: &BinaryExpr{Left: Col("units"), Op: OpMultiply, Right: Col("price")}, Name: "revenue"}}).
		Limit(2)

	out, err := lf.Collect()
	if err != nil {
		t.Fatalf("Collect: %v\nplan:\n%s", err, lf.Describe())
	}
	if got := strings.Join(out.ColumnNames(), ","); got != "shop,revenue" {
		t.Fatalf("unexpected columns %s", got)
	}
	rev, _ := out.ColumnByName("revenue")
	vals, _ := rev.f64s()
	if len(vals) != 2 || vals[0] != 40 || vals[1] != 90 {
		t.Fatalf("unexpected revenue %v", vals)
	}

	// the plan is persistent
	base, err := df.Lazy().Collect()
	if err != nil {
		t.Fatal(err)
	}
	if !base.EqualsMissing(df) {
		t.Fatal("collecting an empty plan should reproduce the source")
	}
}

func TestLazyWithColumnsBroadcastsScalars(t *testing.T) {
	df := salesFrame(t)
	total := &AliasExpr{Input: &AggExpr{Kind: AggSum, Input: Col("units")}, Name: "total"}
	out, err := df.Lazy().WithColumns([]Expr{total, &LenExpr{}}).Collect()
	if err != nil {
		t.Fatal(err)
	}
	if out.Width() != 5 || out.Height() != 5 {
		t.Fatalf("unexpected shape (%d, %d)", out.Height(), out.Width())
	}
	col, _ := out.ColumnByName("total")
	if got := int64Values(t, col); !equalInts(got, []int64{15, 15, 15, 15, 15}) {
		t.Fatalf("unexpected broadcast %v", got)
	}
}

func TestLazyGroupByAgg(t *testing.T) {
	df := salesFrame(t)
	out, err := df.Lazy().GroupByAgg(
		[]Expr{Col("shop")},
		[]Expr{
			&AggExpr{Kind: AggSum, Input: Col("units")},
			&AliasExpr{Input: &AggExpr{Kind: AggMean, Input: Col("price")}, Name: "avg"},
			&AliasExpr{Input: Col("units"), Name: "all"},
		},
	).Collect()
	if err != nil {
		t.Fatal(err)
	}

	shops, _ := out.ColumnByName("shop")
	names, _ := shops.strs()
	if got := strings.Join(names, ","); got != "b,a,c" {
		t.Fatalf("groups should keep first-appearance order, got %s", got)
	}
	units, _ := out.ColumnByName("units")
	if got := int64Values(t, units); !equalInts(got, []int64{4, 6, 5}) {
		t.Fatalf("unexpected sums %v", got)
	}
	avg, _ := out.ColumnByName("avg")
	if v, _ := avg.Get(1); v.Float != 30 {
		t.Fatalf("unexpected mean %s", v)
	}
	all, _ := out.ColumnByName("all")
	if all.DType().Kind != KindList {
		t.Fatalf("non-aggregated column should be a list, got %s", all.DType())
	}
	if v, _ := all.Get(0); v.String() != "[1, 3]" {
		t.Fatalf("unexpected group values %s", v)
	}
}

func TestLazySortAndExpansion(t *testing.T) {
	df := salesFrame(t)
	out, err := df.Lazy().
		Sort([]string{"units"}, SortMultipleOptions{Descending: []bool{true}}).
		Select([]Expr{&DtypeColumnExpr{Types: []DataType{Int64, Float64}}}).
		Collect()
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(out.ColumnNames(), ","); got != "units,price" {
		t.Fatalf("dtype selection gave %s", got)
	}
	units, _ := out.ColumnByName("units")
	if got := int64Values(t, units); !equalInts(got, []int64{5, 4, 3, 2, 1}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestWindowMappings(t *testing.T) {
	df := salesFrame(t)
	sum := &AggExpr{Kind: AggSum, Input: Col("units")}

	tests := []struct {
		name    string
		mapping WindowMapping
		check   func(t *testing.T, s *Series)
	}{
		{"GroupsToRows", GroupsToRows, func(t *testing.T, s *Series) {
			if got := int64Values(t, s); !equalInts(got, []int64{4, 6, 4, 6, 5}) {
				t.Fatalf("got %v", got)
			}
		}},
		{"Explode", WindowExplode, func(t *testing.T, s *Series) {
			if got := int64Values(t, s); !equalInts(got, []int64{4, 6, 5}) {
				t.Fatalf("got %v", got)
			}
		}},
		{"Join", WindowJoin, func(t *testing.T, s *Series) {
			if s.DType().Kind != KindList || s.Len() != 5 {
				t.Fatalf("expected one list per row, got %s of length %d", s.DType(), s.Len())
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Evaluate(df, &WindowExpr{Function: sum, PartitionBy: []Expr{Col("shop")}, Mapping: tt.mapping})
			if err != nil {
				t.Fatal(err)
			}
			if s.Name() != "units" {
				t.Fatalf("window output should keep the input name, got %q", s.Name())
			}
			tt.check(t, s)
		})
	}
}

func TestRollingFixedWindow(t *testing.T) {
	df := salesFrame(t)
	s, err := Evaluate(df, &RollingExpr{
		Input:   Col("price"),
		Op:      RollingMean,
		Options: RollingOptions{WindowSize: DurationSlots(2), MinPeriods: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if first, _ := s.Get(0); !first.IsNull() {
		t.Fatalf("first window is below min_periods, got %s", first)
	}
	vals, _ := s.f64s()
	want := []float64{0, 15, 25, 35, 45}
	for i := 1; i < len(want); i++ {
		if vals[i] != want[i] {
			t.Fatalf("rolling mean = %v, want %v", vals, want)
		}
	}

	sum, err := Evaluate(df, &RollingExpr{Input: Col("units"), Op: RollingSum, Options: RollingOptions{WindowSize: DurationSlots(3)}})
	if err != nil {
		t.Fatal(err)
	}
	if got := int64Values(t, sum); !equalInts(got, []int64{1, 3, 6, 9, 12}) {
		t.Fatalf("rolling sum = %v", got)
	}
}

func TestRollingTemporalWindow(t *testing.T) {
	hour := int64(3600 * 1000)
	df, _ := NewDataFrame([]*Series{
		NewDatetime("ts", Milliseconds, []int64{0, hour, 2 * hour, 5 * hour}, nil),
		NewInt64("v", []int64{1, 2, 3, 4}, nil),
	})
	window, err := ParseDuration("2h")
	if err != nil {
		t.Fatal(err)
	}
	s, err := Evaluate(df, &RollingExpr{Input: Col("v"), Op: RollingSum, Options: RollingOptions{WindowSize: window, By: "ts", Closed: ClosedRight}})
	if err != nil {
		t.Fatal(err)
	}
	if got := int64Values(t, s); !equalInts(got, []int64{1, 3, 5, 4}) {
		t.Fatalf("temporal rolling sum = %v", got)
	}
}

func TestHorizontalAndForwardFill(t *testing.T) {
	df, _ := NewDataFrame([]*Series{
		NewInt64("a", []int64{1, 5, 0}, []bool{true, true, false}),
		NewInt64("b", []int64{4, 2, 0}, []bool{true, true, false}),
	})
	if _, err := NewHorizontal(HorizontalSum, nil); err == nil {
		t.Fatal("an empty horizontal fold should be rejected")
	}
	maxH, _ := NewHorizontal(HorizontalMax, []Expr{Col("a"), Col("b")})
	s, err := Evaluate(df, maxH)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "a" || s.NullCount() != 1 {
		t.Fatalf("unexpected horizontal max %s", s)
	}
	if v, _ := s.Get(1); v.Int != 5 {
		t.Fatalf("max of (5, 2) = %s", v)
	}

	limit := uint32(1)
	filled, err := Evaluate(df, &ForwardFillExpr{Input: Col("a"), Limit: &limit})
	if err != nil {
		t.Fatal(err)
	}
	if got := int64Values(t, filled); !equalInts(got, []int64{1, 5, 5}) {
		t.Fatalf("forward fill = %v", got)
	}
}

func TestTernaryAndFunctions(t *testing.T) {
	df := salesFrame(t)
	cond := &TernaryExpr{
		Predicate: &BinaryExpr{Left: Col("units"), Op: OpGtEq, Right: Lit(IntValue(3))},
		Truthy:    Col("price"),
		Falsy:     Lit(IntValue(0)),
	}
	s, err := Evaluate(df, cond)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "price" || !s.DType().Equal(Float64) {
		t.Fatalf("unexpected ternary output %q %s", s.Name(), s.DType())
	}
	vals, _ := s.f64s()
	if vals[0] != 0 || vals[2] != 30 {
		t.Fatalf("unexpected ternary values %v", vals)
	}

	cum, err := Evaluate(df, &FunctionExpr{Inputs: []Expr{Col("units")}, Function: Function{Kind: FuncCumSum, Reverse: true}})
	if err != nil {
		t.Fatal(err)
	}
	if got := int64Values(t, cum); !equalInts(got, []int64{15, 14, 12, 9, 5}) {
		t.Fatalf("reverse cum_sum = %v", got)
	}
}
