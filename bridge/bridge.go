package bridge

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/isesword/framebridge/internal/engine"
	"github.com/isesword/framebridge/plan"
)

// Bridge 宿主与列式引擎之间的边界：句柄表、宿主锁和所有边界操作
type Bridge struct {
	cfg     Config
	mem     memory.Allocator
	logger  *slog.Logger
	lock    RuntimeLock
	handles *Registry
}

// New 创建 Bridge，cfg 可以为 nil
func New(cfg *Config) *Bridge {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.Allocator == nil {
		c.Allocator = memory.DefaultAllocator
	}
	if c.Logger == nil {
		if c.LogLevel != nil {
			c.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *c.LogLevel}))
		} else {
			c.Logger = slog.Default()
		}
	}
	if c.Threads <= 0 {
		c.Threads = threadsFromEnv()
	}
	if c.Lock == nil {
		c.Lock = NewMutexLock()
	}
	engine.SetMaxThreads(c.Threads)

	return &Bridge{
		cfg:     c,
		mem:     c.Allocator,
		logger:  c.Logger,
		lock:    c.Lock,
		handles: NewRegistry(),
	}
}

func threadsFromEnv() int {
	if v := os.Getenv("POLARS_MAX_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

// Lock 返回 Bridge 使用的宿主锁
func (b *Bridge) Lock() RuntimeLock { return b.lock }

// Threads 引擎线程上限
func (b *Bridge) Threads() int { return b.cfg.Threads }

// enter 在边界入口获取宿主锁，返回的函数在出口释放
func (b *Bridge) enter(op string, args ...any) func() {
	if !b.cfg.LockHeldByCaller {
		b.lock.Acquire()
	}
	b.logger.Debug("bridge call", append([]any{"op", op}, args...)...)
	return func() {
		if !b.cfg.LockHeldByCaller {
			b.lock.Release()
		}
	}
}

// blocking 释放宿主锁执行 fn。fn 只能使用调用前借出的原生值。
func blocking[T any](b *Bridge, op string, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	start := time.Now()
	r := Releasing(b.lock, func() result {
		v, err := fn()
		return result{v, err}
	})
	b.logger.Debug("blocking section", "op", op, "duration", time.Since(start))
	if r.err != nil {
		b.logger.Debug("blocking section failed", "op", op, "err", r.err)
	}
	return r.v, r.err
}

func (b *Bridge) dataFrame(h plan.Handle) (*engine.DataFrame, error) {
	v, err := b.handles.Shared(h, KindDataFrame)
	if err != nil {
		return nil, err
	}
	return v.(*engine.DataFrame), nil
}

func (b *Bridge) series(h plan.Handle) (*engine.Series, error) {
	v, err := b.handles.Shared(h, KindSeries)
	if err != nil {
		return nil, err
	}
	return v.(*engine.Series), nil
}

func (b *Bridge) lazyFrame(h plan.Handle) (*engine.LazyFrame, error) {
	v, err := b.handles.Shared(h, KindLazyFrame)
	if err != nil {
		return nil, err
	}
	return v.(*engine.LazyFrame), nil
}

func (b *Bridge) wrap(kind Kind, v any) plan.Handle {
	h := b.handles.Allocate(kind, v)
	b.logger.Debug("handle allocated", "kind", kind, "handle", h)
	return h
}

// cloneValue 浅拷贝原生对象，列缓冲共享
func cloneValue(v any) any {
	switch v := v.(type) {
	case *engine.DataFrame:
		return v.Clone()
	case *engine.Series:
		return v.Clone()
	}
	// LazyFrame 不可变，直接共享
	return v
}

// Release 释放句柄（终结器或显式 Free 调用）。失效句柄返回 false。
// 原生缓冲由 Arrow 分配器和 GC 回收，其他句柄可能仍共享它们。
func (b *Bridge) Release(h plan.Handle) bool {
	defer b.enter("release", "handle", h)()
	ok := b.handles.Release(h)
	b.logger.Debug("handle released", "handle", h, "ok", ok)
	return ok
}

// Clone 返回指向同一对象浅拷贝的新句柄
func (b *Bridge) Clone(h plan.Handle) (plan.Handle, error) {
	defer b.enter("clone", "handle", h)()
	return b.handles.Duplicate(h)
}

// LiveHandles 存活句柄数
func (b *Bridge) LiveHandles() int {
	return b.handles.Len()
}
