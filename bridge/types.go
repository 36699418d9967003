package bridge

import "fmt"

// ErrorCode 错误码，同时作为 errors.Is 的类别哨兵
type ErrorCode int32

const (
	ErrOK              ErrorCode = 0
	ErrUnknown         ErrorCode = 1
	ErrInvalidArgument ErrorCode = 2
	ErrArrowImport     ErrorCode = 7
	ErrArrowExport     ErrorCode = 8
	ErrExecution       ErrorCode = 9
	ErrUnsupported     ErrorCode = 10
)

var errorCodeNames = map[ErrorCode]string{
	ErrOK:              "ok",
	ErrUnknown:         "unknown error",
	ErrInvalidArgument: "invalid argument",
	ErrArrowImport:     "arrow import failed",
	ErrArrowExport:     "arrow export failed",
	ErrExecution:       "execution failed",
	ErrUnsupported:     "unsupported operation",
}

func (c ErrorCode) Error() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("error code %d", int32(c))
}

// Kind 句柄指向的原生对象种类
type Kind uint8

const (
	KindDataFrame Kind = iota + 1
	KindSeries
	KindLazyFrame
)

func (k Kind) String() string {
	switch k {
	case KindDataFrame:
		return "DataFrame"
	case KindSeries:
		return "Series"
	case KindLazyFrame:
		return "LazyFrame"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}
