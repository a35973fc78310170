// Package errors provides structured error types for depmanifest.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND / UNKNOWN_*: Resource not found
//   - Resolution failures (AMBIGUOUS_PLATFORM, UNRESOLVED_VERSION, CONFLICTING_ROLE)
//   - NETWORK_*: Network-related errors
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidCoordinate, "invalid coordinate: %s", s)
//	if errors.Is(err, errors.ErrCodeInvalidCoordinate) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidManifest   Code = "INVALID_MANIFEST"
	ErrCodeInvalidCoordinate Code = "INVALID_COORDINATE"
	ErrCodeInvalidRole       Code = "INVALID_ROLE"
	ErrCodeInvalidCatalog    Code = "INVALID_CATALOG"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Resolution errors
	ErrCodeAmbiguousPlatform Code = "AMBIGUOUS_PLATFORM"
	ErrCodeUnresolvedVersion Code = "UNRESOLVED_VERSION"
	ErrCodeConflictingRole   Code = "CONFLICTING_ROLE"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeUnknownAlias  Code = "UNKNOWN_ALIAS"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeRunNotFound   Code = "RUN_NOT_FOUND"
	ErrCodeBOMNotFound   Code = "BOM_NOT_FOUND"
	ErrCodeUnsupported   Code = "UNSUPPORTED"
	ErrCodeConfiguration Code = "UNKNOWN_CONFIGURATION"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// Coded is implemented by error types that carry their own code without
// being an *Error (the resolution errors in package manifest, for example).
type Coded interface {
	error
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a [Coded] error
// with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// The outermost coded error in the chain wins, whether it is an *Error or
// a [Coded] error. Returns empty string if no error in the chain carries a
// code.
func GetCode(err error) Code {
	switch e := outermost(err).(type) {
	case *Error:
		return e.Code
	case Coded:
		return e.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For [Coded] errors, returns their own message.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	switch e := outermost(err).(type) {
	case *Error:
		return e.Message
	case Coded:
		return e.Error()
	}
	return err.Error()
}

// outermost returns the first error in err's chain that carries a code,
// or nil. Joined errors are searched depth first.
func outermost(err error) error {
	for err != nil {
		switch err.(type) {
		case *Error, Coded:
			return err
		}
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				if c := outermost(inner); c != nil {
					return c
				}
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}
