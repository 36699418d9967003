package bridge

import (
	"sync"
	"sync/atomic"
)

// RuntimeLock 宿主运行时的全局协调锁
type RuntimeLock interface {
	Release()
	Acquire()
}

// MutexLock 默认的宿主锁：一把互斥锁加持有标记
type MutexLock struct {
	mu   sync.Mutex
	held atomic.Bool
}

func NewMutexLock() *MutexLock {
	return &MutexLock{}
}

func (l *MutexLock) Acquire() {
	l.mu.Lock()
	l.held.Store(true)
}

func (l *MutexLock) Release() {
	l.held.Store(false)
	l.mu.Unlock()
}

// Held 报告锁当前是否被某个调用方持有
func (l *MutexLock) Held() bool {
	return l.held.Load()
}

// BlockingSection 释放宿主锁的作用域。
// 作用域内的代码不得访问句柄表和宿主内存，只能使用进入前借出的值。
type BlockingSection struct {
	lock RuntimeLock
	left bool
}

// EnterBlockingSection 释放 lock，返回的作用域负责重新获取
func EnterBlockingSection(lock RuntimeLock) *BlockingSection {
	lock.Release()
	return &BlockingSection{lock: lock}
}

// Leave 重新获取宿主锁；重复调用无效
func (s *BlockingSection) Leave() {
	if s.left {
		return
	}
	s.left = true
	s.lock.Acquire()
}

// Releasing 在释放宿主锁的情况下执行 fn。
// 无论 fn 正常返回还是 panic，控制权回到调用方之前锁都已重新持有。
func Releasing[T any](lock RuntimeLock, fn func() T) T {
	s := EnterBlockingSection(lock)
	defer s.Leave()
	return fn()
}
