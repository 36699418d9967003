//go:build !windows
// +build !windows

package bridge

import (
	"fmt"
	"os"

	"github.com/ebitengine/purego"
)

// NativeLock 由宿主运行时动态库导出的一对加锁/解锁入口。
// release 返回的状态值原样传回 acquire（不需要状态的运行时忽略它即可）。
type NativeLock struct {
	lib     uintptr
	release func() uintptr
	acquire func(uintptr)
	state   uintptr
}

// LoadRuntimeLock 加载宿主运行时并查找两个锁入口。libPath 为空时读取 FRAMEBRIDGE_RUNTIME_LIB。
func LoadRuntimeLock(libPath, releaseSym, acquireSym string) (*NativeLock, error) {
	if libPath == "" {
		libPath = os.Getenv("FRAMEBRIDGE_RUNTIME_LIB")
		if libPath == "" {
			return nil, errorMsg(ErrInvalidArgument, "no runtime library given and FRAMEBRIDGE_RUNTIME_LIB is not set")
		}
	}

	if _, err := os.Stat(libPath); os.IsNotExist(err) {
		return nil, errorMsg(ErrInvalidArgument, "library not found: %s", libPath)
	}

	lib, err := purego.Dlopen(libPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errorWithDesc(err, fmt.Sprintf("failed to load library %s", libPath))
	}

	l := &NativeLock{lib: lib}
	for _, f := range []struct {
		sym string
		fn  any
	}{
		{releaseSym, &l.release},
		{acquireSym, &l.acquire},
	} {
		addr, err := purego.Dlsym(lib, f.sym)
		if err != nil {
			return nil, errorWithDesc(err, fmt.Sprintf("failed to find %s", f.sym))
		}
		purego.RegisterFunc(f.fn, addr)
	}
	return l, nil
}

func (l *NativeLock) Release() {
	l.state = l.release()
}

func (l *NativeLock) Acquire() {
	l.acquire(l.state)
	l.state = 0
}
