package bridge

import (
	"sync"

	"github.com/isesword/framebridge/plan"
)

// Entry 句柄表中的一项。Exclusive 借出后调用方可以直接替换 Value。
type Entry struct {
	Kind  Kind
	Value any
}

type slot struct {
	gen   uint32
	entry *Entry
}

// Registry 句柄表。句柄低 32 位是槽位，高 32 位是代数；
// 槽位释放后代数加一，旧句柄因此失效而不会指向新对象。
// 互斥锁只保护槽位表本身（终结器在独立的 goroutine 上释放句柄），原生对象不加锁。
type Registry struct {
	mu    sync.Mutex
	slots []slot
	free  []uint32
	live  int
}

func NewRegistry() *Registry {
	// 槽位 0 保留，保证句柄 0 永远无效
	return &Registry{slots: make([]slot, 1)}
}

func makeHandle(idx, gen uint32) plan.Handle {
	return plan.Handle(uint64(gen)<<32 | uint64(idx))
}

// Allocate 登记一个原生对象
func (r *Registry) Allocate(kind Kind, value any) plan.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &Entry{Kind: kind, Value: value}
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[idx].entry = e
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, slot{gen: 1, entry: e})
	}
	r.live++
	return makeHandle(idx, r.slots[idx].gen)
}

// lookup 调用方持有 r.mu
func (r *Registry) lookup(h plan.Handle) (*Entry, error) {
	idx, gen := uint32(h), uint32(h>>32)
	if h == 0 || int(idx) >= len(r.slots) {
		return nil, errorMsg(ErrInvalidArgument, "invalid %s", h)
	}
	s := r.slots[idx]
	if s.entry == nil || s.gen != gen {
		return nil, errorMsg(ErrInvalidArgument, "%s has been released", h)
	}
	return s.entry, nil
}

func (r *Registry) borrow(h plan.Handle, kind Kind) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	if e.Kind != kind {
		return nil, errorMsg(ErrInvalidArgument, "%s refers to a %s, expected a %s", h, e.Kind, kind)
	}
	return e, nil
}

// Shared 只读借用
func (r *Registry) Shared(h plan.Handle, kind Kind) (any, error) {
	e, err := r.borrow(h, kind)
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

// Exclusive 可变借用，调用方通过返回的 Entry 原地替换值
func (r *Registry) Exclusive(h plan.Handle, kind Kind) (*Entry, error) {
	return r.borrow(h, kind)
}

// Duplicate 为同一个对象的浅拷贝登记新句柄
func (r *Registry) Duplicate(h plan.Handle) (plan.Handle, error) {
	r.mu.Lock()
	e, err := r.lookup(h)
	r.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return r.Allocate(e.Kind, cloneValue(e.Value)), nil
}

// Release 注销句柄。失效句柄或重复释放返回 false。
func (r *Registry) Release(h plan.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lookup(h); err != nil {
		return false
	}
	idx := uint32(h)
	r.slots[idx].entry = nil
	r.slots[idx].gen++
	if r.slots[idx].gen == 0 {
		r.slots[idx].gen = 1
	}
	r.free = append(r.free, idx)
	r.live--
	return true
}

// Len 存活句柄数
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}
