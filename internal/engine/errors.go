package engine

import "fmt"

// ErrorKind classifies engine failures.
type ErrorKind uint8

const (
	ErrCompute ErrorKind = iota
	ErrColumnNotFound
	ErrInvalidOperation
	ErrOutOfBounds
	ErrSchemaMismatch
	ErrShapeMismatch
	ErrDuplicate
	ErrIO
	ErrNoData
)

func (k ErrorKind) String() string {
	switch k {
	case ErrColumnNotFound:
		return "not found"
	case ErrInvalidOperation:
		return "invalid operation"
	case ErrOutOfBounds:
		return "out of bounds"
	case ErrSchemaMismatch:
		return "schema mismatch"
	case ErrShapeMismatch:
		return "shape mismatch"
	case ErrDuplicate:
		return "duplicate"
	case ErrIO:
		return "io error"
	case ErrNoData:
		return "no data"
	default:
		return "compute error"
	}
}

// Error is the only error type returned by the engine.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapErr(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
