package polars

import (
	"testing"

	"github.com/isesword/framebridge/plan"
)

func TestLit(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  plan.LiteralValue
	}{
		{"int", 3, plan.Int64Lit(3)},
		{"int64", int64(-4), plan.Int64Lit(-4)},
		{"uint64", uint64(5), plan.UInt64Lit(5)},
		{"float32", float32(1.5), plan.Float32Lit(1.5)},
		{"float64", 2.25, plan.Float64Lit(2.25)},
		{"bool", true, plan.BoolLit(true)},
		{"string", "x", plan.StringLit("x")},
		{"nil", nil, plan.NullLit{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lit, ok := Lit(tt.value).Plan().(*plan.Literal)
			if !ok {
				t.Fatalf("Lit(%v) is %T", tt.value, Lit(tt.value).Plan())
			}
			if lit.Value != tt.want {
				t.Errorf("Lit(%v) = %#v, want %#v", tt.value, lit.Value, tt.want)
			}
		})
	}
}

func TestExprBuilders(t *testing.T) {
	t.Run("BinaryShareOperands", func(t *testing.T) {
		a := Col("a")
		e := a.Add(a).Plan().(*plan.BinaryExpr)
		if e.Op != plan.OpPlus {
			t.Errorf("op = %v", e.Op)
		}
		// 同一个 Expr 重复使用时共享节点
		if e.Left != e.Right {
			t.Error("operands should be the same node")
		}
	})

	t.Run("WhenThenOtherwise", func(t *testing.T) {
		e, ok := When(Col("a").Gt(Lit(1))).Then(Lit(1)).Otherwise(Lit(0)).Plan().(*plan.Ternary)
		if !ok {
			t.Fatal("expected a ternary node")
		}
		if _, ok := e.Predicate.(*plan.BinaryExpr); !ok {
			t.Errorf("predicate = %T", e.Predicate)
		}
	})

	t.Run("Over", func(t *testing.T) {
		w := Col("units").Sum().Over(Col("shop")).Plan().(*plan.Window)
		if w.Options != plan.GroupsToRows || len(w.PartitionBy) != 1 {
			t.Errorf("window = %+v", w)
		}
		if _, ok := w.Function.(*plan.Agg).Agg.(*plan.Sum); !ok {
			t.Errorf("function = %T", w.Function)
		}
	})

	t.Run("ForwardFillLimit", func(t *testing.T) {
		unlimited := Col("a").ForwardFill().Plan().(*plan.ForwardFill)
		if unlimited.Limit != nil {
			t.Error("expected no limit")
		}
		limited := Col("a").ForwardFill(2).Plan().(*plan.ForwardFill)
		if limited.Limit == nil || *limited.Limit != 2 {
			t.Errorf("limit = %v", limited.Limit)
		}
	})

	t.Run("FillNullPassesValue", func(t *testing.T) {
		f := Col("a").FillNull(Lit(0)).Plan().(*plan.Function)
		if len(f.Input) != 2 {
			t.Fatalf("inputs = %d", len(f.Input))
		}
		if _, ok := f.Function.(plan.FillNull); !ok {
			t.Errorf("function = %T", f.Function)
		}
	})

	t.Run("Slice", func(t *testing.T) {
		s := Col("a").Head(3).Plan().(*plan.Slice)
		if s.Offset.(*plan.Literal).Value != plan.Int64Lit(0) || s.Length.(*plan.Literal).Value != plan.Int64Lit(3) {
			t.Errorf("slice = %+v", s)
		}
	})

	t.Run("Rolling", func(t *testing.T) {
		r := Col("a").RollingQuantile(0.5, plan.RollingOptions{WindowSize: plan.DurationSlots(3)}).Plan().(*plan.Rolling)
		if r.Op.Kind != plan.RollingQuantile || r.Op.Quantile != 0.5 {
			t.Errorf("op = %+v", r.Op)
		}
	})
}
