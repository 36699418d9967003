package bridge

import (
	"errors"
	"fmt"
)

// ContextError 带描述的原生错误，渲染为 "<desc>: <cause>"
type ContextError struct {
	Code ErrorCode
	Desc string
	Err  error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("%s: %v", e.Desc, e.Err)
}

// Unwrap 同时暴露类别和原因，errors.Is 对两者都成立
func (e *ContextError) Unwrap() []error {
	return []error{e.Code, e.Err}
}

// MessageError 只有一条消息的错误
type MessageError struct {
	Code ErrorCode
	Msg  string
}

func (e *MessageError) Error() string { return e.Msg }

func (e *MessageError) Unwrap() error { return e.Code }

// errorWithDesc 给错误加上描述；已经分类的错误保留原类别
func errorWithDesc(err error, desc string) error {
	if err == nil {
		return nil
	}
	code := ErrExecution
	var c ErrorCode
	if errors.As(err, &c) {
		code = c
	}
	return &ContextError{Code: code, Desc: desc, Err: err}
}

func errorMsg(code ErrorCode, format string, args ...interface{}) error {
	return &MessageError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf 返回错误的类别；nil 为 ErrOK，未分类为 ErrUnknown
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrOK
	}
	var c ErrorCode
	if errors.As(err, &c) {
		return c
	}
	return ErrUnknown
}
