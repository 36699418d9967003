package engine

import (
	"slices"
	"strings"
)

// SortOptions configures sorting a single column.
type SortOptions struct {
	Descending    bool
	NullsLast     bool
	Multithreaded bool
	MaintainOrder bool
}

// SortMultipleOptions configures sorting by several keys. A single
// Descending flag is broadcast to every key.
type SortMultipleOptions struct {
	Descending    []bool
	NullsLast     bool
	Multithreaded bool
	MaintainOrder bool
}

func (o SortMultipleOptions) descending(i int) bool {
	switch len(o.Descending) {
	case 0:
		return false
	case 1:
		return o.Descending[0]
	}
	return o.Descending[i]
}

// keyComparator compares two rows of one sort key; nulls are handled by the caller.
type keyComparator struct {
	valid []bool
	cmp   func(a, b int) int
}

func newKeyComparator(s *Series) keyComparator {
	switch {
	case s.dtype.Kind == KindString:
		v, valid := s.strs()
		return keyComparator{valid, func(a, b int) int { return strings.Compare(v[a], v[b]) }}
	case s.dtype.Kind == KindUInt64:
		v, valid := s.u64s()
		return keyComparator{valid, func(a, b int) int { return cmpOrdered(v[a], v[b]) }}
	case s.dtype.IsFloat():
		v, valid := s.f64s()
		return keyComparator{valid, func(a, b int) int { return cmpFloat(v[a], v[b]) }}
	case s.dtype.Kind == KindInt64 || s.dtype.Kind == KindDatetime || s.dtype.Kind == KindBoolean:
		v, valid := s.i64s()
		return keyComparator{valid, func(a, b int) int { return cmpOrdered(v[a], v[b]) }}
	case s.dtype.Kind == KindNull:
		return keyComparator{make([]bool, s.Len()), func(a, b int) int { return 0 }}
	}
	vals := s.Values()
	valid := make([]bool, len(vals))
	for i, v := range vals {
		valid[i] = !v.IsNull()
	}
	return keyComparator{valid, func(a, b int) int { return compareValues(vals[a], vals[b]) }}
}

// ArgSort returns the row permutation ordering keys. Nulls go first unless
// nullsLast; their placement does not flip with descending.
func ArgSort(keys []*Series, opts SortMultipleOptions) []int {
	if len(keys) == 0 {
		return nil
	}
	n := keys[0].Len()
	cmps := make([]keyComparator, len(keys))
	for i, k := range keys {
		cmps[i] = newKeyComparator(k)
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	compare := func(a, b int) int {
		for k, c := range cmps {
			av, bv := c.valid[a], c.valid[b]
			switch {
			case !av && !bv:
				continue
			case !av || !bv:
				first := !av
				if opts.NullsLast {
					first = !first
				}
				if first {
					return -1
				}
				return 1
			}
			r := c.cmp(a, b)
			if r == 0 {
				continue
			}
			if opts.descending(k) {
				return -r
			}
			return r
		}
		return 0
	}
	if opts.MaintainOrder {
		slices.SortStableFunc(idx, compare)
	} else {
		slices.SortFunc(idx, compare)
	}
	return idx
}

// Sort returns s sorted, with its sortedness flag set.
func (s *Series) Sort(opts SortOptions) *Series {
	idx := ArgSort([]*Series{s}, SortMultipleOptions{
		Descending:    []bool{opts.Descending},
		NullsLast:     opts.NullsLast,
		MaintainOrder: opts.MaintainOrder,
	})
	out := s.Take(idx)
	out.sorted = SortedAscending
	if opts.Descending {
		out.sorted = SortedDescending
	}
	return out
}
