// Package errors provides structured error types for topoconsole.
//
// Errors carry a machine-readable [Code] so the CLI, the HTTP API and the
// console websocket can report failures consistently:
//
//   - INVALID_*: bad user input (layout mode, output format, dimensions)
//   - BACKEND / NETWORK / TIMEOUT / DECODE: failures talking to the topology backend
//   - INTERNAL: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidLayout, "unknown layout %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidLayout) {
//	    // fall back to the default layout
//	}
//
//	err = errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidLayout Code = "INVALID_LAYOUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Backend errors
	ErrCodeBackend Code = "BACKEND"
	ErrCodeNetwork Code = "NETWORK"
	ErrCodeTimeout Code = "TIMEOUT"
	ErrCodeDecode  Code = "DECODE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a typed error with
// a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// coder is implemented by typed errors such as [BackendError].
type coder interface {
	Code() Code
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// BackendError is returned when the backend answers with a failure, either
// a non-2xx status or an envelope with success=false.
type BackendError struct {
	Status    int    // HTTP status (0 when the failure came from the envelope)
	ErrorCode int    // Backend errorCode from the envelope
	Message   string // Backend errorMsg or response body excerpt
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("backend returned %d", e.Status)
	default:
		return fmt.Sprintf("backend error %d: %s", e.ErrorCode, e.Message)
	}
}

// Code returns the error code for this error type.
func (e *BackendError) Code() Code {
	return ErrCodeBackend
}
