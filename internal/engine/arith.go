package engine

import (
	"math"
	"strings"
)

// Operator is a binary operator between two expressions.
type Operator uint8

const (
	OpEq Operator = iota
	OpEqValidity
	OpNotEq
	OpNotEqValidity
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpPlus
	OpMinus
	OpMultiply
	OpDivide
	OpTrueDivide
	OpFloorDivide
	OpModulus
	OpAnd
	OpOr
	OpXor
)

var operatorSymbols = [...]string{
	OpEq:            "==",
	OpEqValidity:    "==v",
	OpNotEq:         "!=",
	OpNotEqValidity: "!=v",
	OpLt:            "<",
	OpLtEq:          "<=",
	OpGt:            ">",
	OpGtEq:          ">=",
	OpPlus:          "+",
	OpMinus:         "-",
	OpMultiply:      "*",
	OpDivide:        "//",
	OpTrueDivide:    "/",
	OpFloorDivide:   "floor_div",
	OpModulus:       "%",
	OpAnd:           "&",
	OpOr:            "|",
	OpXor:           "^",
}

func (op Operator) String() string {
	if int(op) < len(operatorSymbols) {
		return operatorSymbols[op]
	}
	return "?"
}

func (op Operator) isComparison() bool { return op <= OpGtEq }
func (op Operator) isLogical() bool    { return op >= OpAnd }

// broadcastLen checks operand lengths; a length-1 side is broadcast.
func broadcastLen(l, r *Series) (int, error) {
	switch {
	case l.Len() == r.Len():
		return l.Len(), nil
	case l.Len() == 1:
		return r.Len(), nil
	case r.Len() == 1:
		return l.Len(), nil
	}
	return 0, errorf(ErrShapeMismatch, "cannot evaluate two series of different lengths (%d and %d)", l.Len(), r.Len())
}

func at(i, n int) int {
	if n == 1 {
		return 0
	}
	return i
}

// BinaryOp applies op elementwise. The result is named after l.
func BinaryOp(l, r *Series, op Operator) (*Series, error) {
	n, err := broadcastLen(l, r)
	if err != nil {
		return nil, err
	}
	switch {
	case op.isComparison():
		return compare(l, r, op, n)
	case op.isLogical():
		return logical(l, r, op, n)
	}
	return arithmetic(l, r, op, n)
}

func compare(l, r *Series, op Operator, n int) (*Series, error) {
	st, ok := supertype(l.dtype, r.dtype)
	if !ok {
		return nil, errorf(ErrInvalidOperation, "cannot compare %s with %s", l.dtype, r.dtype)
	}
	lc, err := l.Cast(st, false)
	if err != nil {
		return nil, err
	}
	rc, err := r.Cast(st, false)
	if err != nil {
		return nil, err
	}
	lv, rv := lc.Values(), rc.Values()
	out := make([]bool, n)
	valid := make([]bool, n)
	ln, rn := len(lv), len(rv)
	for i := 0; i < n; i++ {
		a, b := lv[at(i, ln)], rv[at(i, rn)]
		switch op {
		case OpEqValidity, OpNotEqValidity:
			valid[i] = true
			var eq bool
			switch {
			case a.IsNull() && b.IsNull():
				eq = true
			case a.IsNull() || b.IsNull():
				eq = false
			default:
				eq = compareValues(a, b) == 0
			}
			out[i] = eq == (op == OpEqValidity)
			continue
		}
		if a.IsNull() || b.IsNull() {
			continue
		}
		valid[i] = true
		c := compareValues(a, b)
		if st.IsFloat() && (math.IsNaN(a.Float) || math.IsNaN(b.Float)) && op != OpNotEq {
			out[i] = false
			continue
		}
		switch op {
		case OpEq:
			out[i] = c == 0
		case OpNotEq:
			out[i] = c != 0
		case OpLt:
			out[i] = c < 0
		case OpLtEq:
			out[i] = c <= 0
		case OpGt:
			out[i] = c > 0
		case OpGtEq:
			out[i] = c >= 0
		}
	}
	return NewBool(l.name, out, valid), nil
}

func logical(l, r *Series, op Operator, n int) (*Series, error) {
	if l.dtype.Kind == KindBoolean || r.dtype.Kind == KindBoolean {
		if (l.dtype.Kind != KindBoolean && l.dtype.Kind != KindNull) || (r.dtype.Kind != KindBoolean && r.dtype.Kind != KindNull) {
			return nil, errorf(ErrInvalidOperation, "%s operation not supported for dtypes `%s` and `%s`", op, l.dtype, r.dtype)
		}
		lb, lvalid := l.bools()
		rb, rvalid := r.bools()
		if l.dtype.Kind == KindNull {
			lb, lvalid = make([]bool, l.Len()), make([]bool, l.Len())
		}
		if r.dtype.Kind == KindNull {
			rb, rvalid = make([]bool, r.Len()), make([]bool, r.Len())
		}
		out := make([]bool, n)
		valid := make([]bool, n)
		for i := 0; i < n; i++ {
			li, ri := at(i, len(lb)), at(i, len(rb))
			a, av, b, bv := lb[li], lvalid[li], rb[ri], rvalid[ri]
			switch op {
			case OpAnd:
				switch {
				case (av && !a) || (bv && !b):
					out[i], valid[i] = false, true
				case av && bv:
					out[i], valid[i] = true, true
				}
			case OpOr:
				switch {
				case (av && a) || (bv && b):
					out[i], valid[i] = true, true
				case av && bv:
					out[i], valid[i] = false, true
				}
			case OpXor:
				if av && bv {
					out[i], valid[i] = a != b, true
				}
			}
		}
		return NewBool(l.name, out, valid), nil
	}
	if !l.dtype.IsInteger() || !r.dtype.IsInteger() {
		return nil, errorf(ErrInvalidOperation, "%s operation not supported for dtypes `%s` and `%s`", op, l.dtype, r.dtype)
	}
	st, _ := supertype(l.dtype, r.dtype)
	la, lvalid := l.i64s()
	ra, rvalid := r.i64s()
	out := make([]int64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		li, ri := at(i, len(la)), at(i, len(ra))
		if !lvalid[li] || !rvalid[ri] {
			continue
		}
		valid[i] = true
		switch op {
		case OpAnd:
			out[i] = la[li] & ra[ri]
		case OpOr:
			out[i] = la[li] | ra[ri]
		case OpXor:
			out[i] = la[li] ^ ra[ri]
		}
	}
	return newInt(l.name, st, out, valid), nil
}

func arithmetic(l, r *Series, op Operator, n int) (*Series, error) {
	lt, rt := l.dtype, r.dtype
	if lt.Kind == KindBoolean {
		lt = Int64
	}
	if rt.Kind == KindBoolean {
		rt = Int64
	}
	if lt.Kind == KindString && rt.Kind == KindString && op == OpPlus {
		return concatStrings(l, r, n), nil
	}
	if lt.Kind == KindString || rt.Kind == KindString || lt.Kind == KindList || rt.Kind == KindList {
		return nil, errorf(ErrInvalidOperation, "arithmetic on series of dtype %s and %s is not supported", l.dtype, r.dtype)
	}
	st, ok := supertype(lt, rt)
	if !ok {
		return nil, errorf(ErrInvalidOperation, "arithmetic on series of dtype %s and %s is not supported", l.dtype, r.dtype)
	}
	if st.Kind == KindNull {
		return NewNull(l.name, n), nil
	}
	if op == OpTrueDivide && !st.IsFloat() {
		st = Float64
	}
	if st.Kind == KindDatetime && lt.Kind == KindDatetime && rt.Kind == KindDatetime && op == OpMinus {
		// difference of two timestamps is a plain integer span
		return intArith(l, r, op, n, Int64)
	}
	if st.Kind == KindDatetime && op != OpPlus && op != OpMinus {
		st = Int64
	}
	if st.IsFloat() {
		return floatArith(l, r, op, n, st)
	}
	return intArith(l, r, op, n, st)
}

func floatArith(l, r *Series, op Operator, n int, dt DataType) (*Series, error) {
	la, lvalid := l.f64s()
	ra, rvalid := r.f64s()
	out := make([]float64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		li, ri := at(i, len(la)), at(i, len(ra))
		if !lvalid[li] || !rvalid[ri] {
			continue
		}
		a, b := la[li], ra[ri]
		valid[i] = true
		switch op {
		case OpPlus:
			out[i] = a + b
		case OpMinus:
			out[i] = a - b
		case OpMultiply:
			out[i] = a * b
		case OpDivide, OpTrueDivide:
			out[i] = a / b
		case OpFloorDivide:
			out[i] = math.Floor(a / b)
		case OpModulus:
			m := math.Mod(a, b)
			if m != 0 && (m < 0) != (b < 0) {
				m += b
			}
			out[i] = m
		}
	}
	return newFloat(l.name, dt, out, valid), nil
}

func intArith(l, r *Series, op Operator, n int, dt DataType) (*Series, error) {
	if dt.Kind == KindUInt64 {
		return uintArith(l, r, op, n)
	}
	la, lvalid := l.i64s()
	ra, rvalid := r.i64s()
	if dt.Kind == KindDatetime {
		// align units before adding spans
		if l.dtype.Kind == KindDatetime && l.dtype.Unit != dt.Unit {
			for i := range la {
				la[i] = convertUnit(la[i], l.dtype.Unit, dt.Unit)
			}
		}
		if r.dtype.Kind == KindDatetime && r.dtype.Unit != dt.Unit {
			for i := range ra {
				ra[i] = convertUnit(ra[i], r.dtype.Unit, dt.Unit)
			}
		}
	}
	out := make([]int64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		li, ri := at(i, len(la)), at(i, len(ra))
		if !lvalid[li] || !rvalid[ri] {
			continue
		}
		a, b := la[li], ra[ri]
		valid[i] = true
		switch op {
		case OpPlus:
			out[i] = a + b
		case OpMinus:
			out[i] = a - b
		case OpMultiply:
			out[i] = a * b
		case OpDivide, OpFloorDivide:
			if b == 0 {
				valid[i] = false
				continue
			}
			out[i] = floorDiv(a, b)
		case OpModulus:
			if b == 0 {
				valid[i] = false
				continue
			}
			m := a % b
			if m != 0 && (m < 0) != (b < 0) {
				m += b
			}
			out[i] = m
		}
	}
	return newInt(l.name, dt, out, valid), nil
}

func uintArith(l, r *Series, op Operator, n int) (*Series, error) {
	la, lvalid := l.u64s()
	ra, rvalid := r.u64s()
	out := make([]uint64, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		li, ri := at(i, len(la)), at(i, len(ra))
		if !lvalid[li] || !rvalid[ri] {
			continue
		}
		a, b := la[li], ra[ri]
		valid[i] = true
		switch op {
		case OpPlus:
			out[i] = a + b
		case OpMinus:
			out[i] = a - b
		case OpMultiply:
			out[i] = a * b
		case OpDivide, OpFloorDivide, OpModulus:
			if b == 0 {
				valid[i] = false
				continue
			}
			if op == OpModulus {
				out[i] = a % b
			} else {
				out[i] = a / b
			}
		}
	}
	return NewUInt64(l.name, out, valid), nil
}

func concatStrings(l, r *Series, n int) *Series {
	la, lvalid := l.strs()
	ra, rvalid := r.strs()
	out := make([]string, n)
	valid := make([]bool, n)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		li, ri := at(i, len(la)), at(i, len(ra))
		if !lvalid[li] || !rvalid[ri] {
			continue
		}
		sb.Reset()
		sb.WriteString(la[li])
		sb.WriteString(ra[ri])
		out[i], valid[i] = sb.String(), true
	}
	return NewString(l.name, out, valid)
}

// Multiply multiplies every value of s by the scalar v.
func (s *Series) Multiply(v AnyValue) (*Series, error) {
	if v.Type.Kind == KindBoolean {
		return nil, errorf(ErrInvalidOperation, "multiplication by a boolean is not supported")
	}
	if v.Type.Kind == KindDatetime {
		// a datetime scalar multiplies by its raw integer value
		v = IntValue(v.Int)
	}
	lhs := s
	if s.dtype.Kind == KindDatetime {
		ints, valid := s.i64s()
		lhs = NewInt64(s.name, ints, valid)
	}
	// the factor takes the column's physical type, so the result keeps it too
	f, ok := castValue(v, lhs.dtype)
	if !ok {
		return nil, errorf(ErrInvalidOperation, "cannot convert factor %s to %s", v, lhs.dtype)
	}
	rhs, err := FromValues("", lhs.dtype, []AnyValue{f})
	if err != nil {
		return nil, err
	}
	return BinaryOp(lhs, rhs, OpMultiply)
}
