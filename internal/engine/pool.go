package engine

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var maxThreads atomic.Int64

func init() {
	maxThreads.Store(int64(runtime.NumCPU()))
}

// SetMaxThreads bounds the worker pool used by parallel kernels.
func SetMaxThreads(n int) {
	if n < 1 {
		n = 1
	}
	maxThreads.Store(int64(n))
}

// MaxThreads returns the current worker bound.
func MaxThreads() int { return int(maxThreads.Load()) }

// parallelFor runs fn for 0..n-1 on at most limit workers (MaxThreads when
// limit <= 0) and returns the first error.
func parallelFor(n, limit int, fn func(i int) error) error {
	if limit <= 0 {
		limit = MaxThreads()
	}
	if n <= 1 || limit == 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}
