package bridge

import (
	"strings"
	"testing"

	"github.com/isesword/framebridge/plan"
)

func salesFrame(t *testing.T, b *Bridge) plan.Handle {
	t.Helper()
	return mustFrame(t, b,
		plan.NamedBuffer{Name: "shop", Data: plan.Int64Buffer{2, 1, 2, 1, 3}},
		plan.NamedBuffer{Name: "units", Data: plan.Int64Buffer{1, 2, 3, 4, 5}},
		plan.NamedBuffer{Name: "price", Data: plan.Int64Buffer{10, 20, 30, 40, 50}},
	)
}

func TestLazyPipeline(t *testing.T) {
	b := newTestBridge(t)
	df := salesFrame(t, b)

	lf, err := b.LazyFrame(df)
	if err != nil {
		t.Fatal(err)
	}

	units := &plan.Column{Name: "units"}
	revenue := &plan.Alias{
		Expr: &plan.BinaryExpr{Left: units, Op: plan.OpMultiply, Right: &plan.Column{Name: "price"}},
		Name: "revenue",
	}
	steps := []func(plan.Handle) (plan.Handle, error){
		func(h plan.Handle) (plan.Handle, error) { return b.LazyWithColumns(h, []plan.Expr{revenue}) },
		func(h plan.Handle) (plan.Handle, error) {
			return b.LazyFilter(h, &plan.BinaryExpr{Left: units, Op: plan.OpGtEq, Right: &plan.Literal{Value: plan.Int64Lit(2)}})
		},
		func(h plan.Handle) (plan.Handle, error) {
			return b.LazySort(h, "revenue", plan.SortMultipleOptions{Descending: []bool{true}})
		},
		func(h plan.Handle) (plan.Handle, error) { return b.LazyLimit(h, 2) },
		func(h plan.Handle) (plan.Handle, error) {
			return b.LazySelect(h, []plan.Expr{&plan.Column{Name: "shop"}, &plan.Column{Name: "revenue"}})
		},
	}
	for i, step := range steps {
		if lf, err = step(lf); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	out, err := b.LazyCollect(lf)
	if err != nil {
		t.Fatalf("Failed to collect: %v", err)
	}
	if got := int64Column(t, b, out, "revenue"); !equalInt64s(got, []int64{250, 160}) {
		t.Errorf("revenue = %v", got)
	}
	if got := int64Column(t, b, out, "shop"); !equalInt64s(got, []int64{3, 1}) {
		t.Errorf("shop = %v", got)
	}

	desc, err := b.LazyDescribe(lf)
	if err != nil || !strings.Contains(desc, "SLICE") {
		t.Errorf("describe = %q, %v", desc, err)
	}
}

func TestLazyGroupByAgg(t *testing.T) {
	b := newTestBridge(t)
	lf, err := b.LazyFrame(salesFrame(t, b))
	if err != nil {
		t.Fatal(err)
	}
	units := &plan.Column{Name: "units"}
	lf, err = b.LazyGroupByAgg(lf,
		[]plan.Expr{&plan.Column{Name: "shop"}},
		[]plan.Expr{
			&plan.Agg{Agg: &plan.Sum{Input: units}},
			&plan.Alias{Expr: &plan.Agg{Agg: &plan.Count{Input: units, IncludeNulls: true}}, Name: "n"},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.LazyCollect(lf)
	if err != nil {
		t.Fatalf("Failed to collect: %v", err)
	}

	// 分组按首次出现的顺序
	if got := int64Column(t, b, out, "shop"); !equalInt64s(got, []int64{2, 1, 3}) {
		t.Errorf("shop = %v", got)
	}
	if got := int64Column(t, b, out, "units"); !equalInt64s(got, []int64{4, 6, 5}) {
		t.Errorf("units = %v", got)
	}
}

func TestLazyWindowAndHorizontal(t *testing.T) {
	b := newTestBridge(t)
	lf, _ := b.LazyFrame(salesFrame(t, b))
	units := &plan.Column{Name: "units"}
	lf, err := b.LazyWithColumns(lf, []plan.Expr{
		&plan.Alias{
			Expr: &plan.Window{
				Function:    &plan.Agg{Agg: &plan.Sum{Input: units}},
				PartitionBy: []plan.Expr{&plan.Column{Name: "shop"}},
				Options:     plan.GroupsToRows,
			},
			Name: "shop_units",
		},
		&plan.Alias{
			Expr: &plan.Horizontal{Input: []plan.Expr{units, &plan.Column{Name: "price"}}, Op: plan.HorizontalMax},
			Name: "biggest",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.LazyCollect(lf)
	if err != nil {
		t.Fatal(err)
	}
	if got := int64Column(t, b, out, "shop_units"); !equalInt64s(got, []int64{4, 6, 4, 6, 5}) {
		t.Errorf("shop_units = %v", got)
	}
	if got := int64Column(t, b, out, "biggest"); !equalInt64s(got, []int64{10, 20, 30, 40, 50}) {
		t.Errorf("biggest = %v", got)
	}
}

func TestLazyCollectError(t *testing.T) {
	b := newTestBridge(t)
	lf, _ := b.LazyFrame(salesFrame(t, b))
	lf, err := b.LazySelect(lf, []plan.Expr{&plan.Column{Name: "missing"}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = b.LazyCollect(lf)
	if CodeOf(err) != ErrExecution || !strings.HasPrefix(err.Error(), "cannot collect: ") {
		t.Fatalf("expected a described execution error, got %v", err)
	}
}
