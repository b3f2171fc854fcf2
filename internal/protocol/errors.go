package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code classifies the failures surfaced by this package.
type Code int

// Available error codes.
const (
	// CodeTimeout means a connect, login or per-request deadline fired.
	CodeTimeout Code = iota + 1

	// CodeCanceled means the caller context expired.
	CodeCanceled

	// CodeInvalidArgument means a request argument of an unsupported kind
	// was submitted. Nothing was written to the wire.
	CodeInvalidArgument

	// CodeProtocol means the peer sent a malformed frame. The connection is
	// unusable.
	CodeProtocol

	// CodeNetwork means a socket read or write failed or the peer closed
	// the connection. The connection is unusable.
	CodeNetwork
)

// Error is a transport-level failure.
type Error struct {
	code    Code
	message string
}

func newError(code Code, format string, a ...interface{}) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, a...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.message
}

// Code returns the error classification.
func (e *Error) Code() Code {
	return e.code
}

// ErrCode returns the classification of err, unwrapping any context added
// with errors.Wrap. It returns 0 for errors that did not originate in this
// package.
func ErrCode(err error) Code {
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.code
	}
	return 0
}

// ServerError is a well-formed reply carrying a non-OK status. It is local
// to a single request and does not affect the connection.
type ServerError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}
