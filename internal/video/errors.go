package video

import (
	"errors"
	"fmt"

	"github.com/smazurov/videocore/internal/capability"
	"github.com/smazurov/videocore/internal/framebuf"
	"github.com/smazurov/videocore/pkg/v4l2"
)

// Error represents a capture device error.
type Error struct {
	Code    string
	Op      string
	Stream  v4l2.BufType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Code
	if e.Op != "" {
		if e.Stream.Valid() {
			msg = fmt.Sprintf("%s(%s): %s", e.Op, e.Stream, e.Code)
		} else {
			msg = fmt.Sprintf("%s: %s", e.Op, e.Code)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the stable error code. Log handlers record it as its
// own field.
func (e *Error) ErrorCode() string {
	return e.Code
}

// Is matches any *Error carrying the same code, so callers can compare
// against the sentinel values with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Error codes
const (
	ErrCodeInvalidArgument  = "INVALID_ARGUMENT"
	ErrCodeBusy             = "BUSY"
	ErrCodePermissionDenied = "PERMISSION_DENIED"
	ErrCodeOutOfMemory      = "OUT_OF_MEMORY"
	ErrCodeOutOfContainers  = "OUT_OF_CONTAINERS"
	ErrCodeCancelled        = "CANCELLED"
	ErrCodeNotSupported     = "NOT_SUPPORTED"
	ErrCodeNotOpen          = "NOT_OPEN"
	ErrCodeClosed           = "CLOSED"
)

// Sentinels for errors.Is.
var (
	ErrInvalidArgument  = &Error{Code: ErrCodeInvalidArgument}
	ErrBusy             = &Error{Code: ErrCodeBusy}
	ErrPermissionDenied = &Error{Code: ErrCodePermissionDenied}
	ErrOutOfMemory      = &Error{Code: ErrCodeOutOfMemory}
	ErrOutOfContainers  = &Error{Code: ErrCodeOutOfContainers}
	ErrCancelled        = &Error{Code: ErrCodeCancelled}
	ErrNotSupported     = &Error{Code: ErrCodeNotSupported}
	ErrNotOpen          = &Error{Code: ErrCodeNotOpen}
	ErrClosed           = &Error{Code: ErrCodeClosed}
)

// NewError creates a new device error
func NewError(code, op string, stream v4l2.BufType, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Stream:  stream,
		Message: message,
		Cause:   cause,
	}
}

// wrapErr converts collaborator and queue errors into device errors.
func wrapErr(op string, stream v4l2.BufType, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}

	code := ErrCodeInvalidArgument
	switch {
	case errors.Is(err, framebuf.ErrOutOfContainers):
		code = ErrCodeOutOfContainers
	case errors.Is(err, framebuf.ErrBusy):
		code = ErrCodeBusy
	case errors.Is(err, capability.ErrNotSupported):
		code = ErrCodeNotSupported
	}
	return NewError(code, op, stream, "", err)
}

// ControlError reports the first failing entry of a batched control call.
type ControlError struct {
	Index int
	Err   error
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("control %d: %v", e.Index, e.Err)
}

func (e *ControlError) Unwrap() error {
	return e.Err
}
