// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error taxonomy shared across the library. Callers pick retry policy by
// classifying failures: end of input, timeout, bounds violation, or genuine
// transport failure, which propagates unchanged.

package api

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/momentics/hioload-io/buffer"
	"github.com/momentics/hioload-io/timeout"
)

// Common sentinel errors.
var (
	ErrClosed       = errors.New("stream is closed")
	ErrNotSupported = errors.New("operation not supported on this platform")
)

// ErrorCode classifies a failure for retry/backoff decisions.
type ErrorCode int

const (
	CodeOK ErrorCode = iota
	CodeEndOfInput
	CodeTimeout
	CodeOutOfRange
	CodeClosed
	CodeTransport
)

// Classify maps err onto the taxonomy. Unrecognized errors are transport
// failures: the library never converts them into anything else.
func Classify(err error) ErrorCode {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, io.EOF):
		return CodeEndOfInput
	case errors.Is(err, timeout.ErrTimeout):
		return CodeTimeout
	case errors.Is(err, buffer.ErrOutOfRange):
		return CodeOutOfRange
	case errors.Is(err, ErrClosed), errors.Is(err, net.ErrClosed):
		return CodeClosed
	default:
		return CodeTransport
	}
}

// IsTimeout reports whether err is a deadline failure, from either the
// cooperative check or the watchdog path.
func IsTimeout(err error) bool {
	return errors.Is(err, timeout.ErrTimeout)
}

// IsOutOfRange reports whether err is a bounds violation.
func IsOutOfRange(err error) bool {
	return errors.Is(err, buffer.ErrOutOfRange)
}

// IsClosed reports whether err came from using an already-closed stream.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed) || errors.Is(err, net.ErrClosed)
}

// Error is a structured failure with a code and free-form context.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// NewError creates a structured error wrapping an optional cause.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
