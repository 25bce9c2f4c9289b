// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	"context"
	stderrs "errors"
	"fmt"
)

// ErrorCode classifies failures for exit-code mapping and logging
// Values are stable; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeConfiguration is for bad or missing run configuration (CLI flags, run card, env)
	ErrorCodeConfiguration

	// ErrorCodeStorage is for directory, file and object-store I/O failures
	ErrorCodeStorage

	// ErrorCodeCollaborator is for anything surfaced by the external processing collaborator
	ErrorCodeCollaborator

	// ErrorCodeCanceled is for runs interrupted by signal or context cancellation
	ErrorCodeCanceled
)

// String renders the code as a short label for logs
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeConfiguration:
		return "configuration"
	case ErrorCodeStorage:
		return "storage"
	case ErrorCodeCollaborator:
		return "collaborator"
	case ErrorCodeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Process exit codes
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitStorage       = 3
	ExitCollaborator  = 4
	ExitCanceled      = 130
)

// ExitCodeOf turns an ErrorCode into a process exit status
func ExitCodeOf(c ErrorCode) int {
	switch c {
	case ErrorCodeConfiguration:
		return ExitConfiguration
	case ErrorCodeStorage:
		return ExitStorage
	case ErrorCodeCollaborator:
		return ExitCollaborator
	case ErrorCodeCanceled:
		return ExitCanceled
	default:
		return ExitFailure
	}
}

// ExitCode returns the process exit status for any error; nil maps to ExitOK
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if stderrs.Is(err, context.Canceled) {
		return ExitCanceled
	}
	return ExitCodeOf(CodeOf(err))
}

// Error is the structured error type with wrapping and metadata
// msg is human facing; code is machine facing
// field is optional (for validation); op is optional operation tag
// orig is the wrapped cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is re-exports errors.Is so callers importing perr do not need both packages
func Is(err, target error) bool { return stderrs.Is(err, target) }

// Mutators (copy-on-write)

// WithField attaches a field to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// Constructors

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// Sugar

// Configf returns a configuration error
func Configf(format string, a ...any) error { return Newf(ErrorCodeConfiguration, format, a...) }

// Storagef returns a storage error
func Storagef(format string, a ...any) error { return Newf(ErrorCodeStorage, format, a...) }

// Collaboratorf returns a collaborator error
func Collaboratorf(format string, a ...any) error { return Newf(ErrorCodeCollaborator, format, a...) }
