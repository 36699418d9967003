package bridge

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Config Bridge 的配置，所有字段都可以留空
type Config struct {
	// Allocator 构造列时使用的 Arrow 分配器；为空时使用 memory.DefaultAllocator
	Allocator memory.Allocator

	// Logger 为空时使用 slog.Default()；同时给出 LogLevel 时以该级别新建 stderr 文本日志
	Logger   *slog.Logger
	LogLevel *slog.Level

	// Threads 引擎并行计算的线程上限；为 0 时读取 POLARS_MAX_THREADS，再退回 CPU 核数
	Threads int

	// Lock 宿主全局锁；为空时使用新的 MutexLock
	Lock RuntimeLock

	// LockHeldByCaller 宿主在每次调用前已经持有 Lock（嵌入运行时的场景），Bridge 不再自行获取
	LockHeldByCaller bool
}
