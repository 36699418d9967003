package bridge

import (
	"errors"
	"io"
	"testing"
)

func TestErrorShapes(t *testing.T) {
	t.Run("context error", func(t *testing.T) {
		err := errorWithDesc(io.ErrUnexpectedEOF, "cannot read csv")
		if err.Error() != "cannot read csv: unexpected EOF" {
			t.Errorf("Error() = %q", err.Error())
		}
		if !errors.Is(err, ErrExecution) {
			t.Error("native failures are execution errors")
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Error("cause must stay reachable")
		}
	})

	t.Run("message error", func(t *testing.T) {
		err := errorMsg(ErrUnsupported, "AnyValue for dtype %s not implemented", "String")
		if err.Error() != "AnyValue for dtype String not implemented" {
			t.Errorf("Error() = %q", err.Error())
		}
		if CodeOf(err) != ErrUnsupported {
			t.Errorf("CodeOf = %v", CodeOf(err))
		}
	})

	t.Run("description keeps category", func(t *testing.T) {
		err := errorWithDesc(errorMsg(ErrInvalidArgument, "bad"), "outer")
		if CodeOf(err) != ErrInvalidArgument {
			t.Errorf("CodeOf = %v, want invalid argument", CodeOf(err))
		}
	})

	t.Run("nil", func(t *testing.T) {
		if errorWithDesc(nil, "x") != nil {
			t.Error("nil error must stay nil")
		}
		if CodeOf(nil) != ErrOK {
			t.Error("CodeOf(nil) must be ErrOK")
		}
	})
}
