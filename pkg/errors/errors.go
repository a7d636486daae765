// Package errors provides structured error types for icebergviz.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the HTTP server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input or geometry validation failures
//   - *_NOT_FOUND: Missing files or resources
//   - UNDEFINED_CRS, AMBIGUOUS_PROJECTION: projection contract violations
//   - INSUFFICIENT_DATA: too few shapes for a grouping operation
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSite, "invalid site: %s", site)
//	if errors.Is(err, errors.ErrCodeInvalidSite) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidSite      Code = "INVALID_SITE"
	ErrCodeInvalidDateRange Code = "INVALID_DATE_RANGE"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidMode      Code = "INVALID_MODE"
	ErrCodeInvalidView      Code = "INVALID_VIEW"
	ErrCodeInvalidPath      Code = "INVALID_PATH"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"

	// Geometry and projection errors
	ErrCodeInvalidGeometry     Code = "INVALID_GEOMETRY"
	ErrCodeEmptyGeometry       Code = "EMPTY_GEOMETRY"
	ErrCodeMissingGeometry     Code = "MISSING_GEOMETRY"
	ErrCodeUndefinedCRS        Code = "UNDEFINED_CRS"
	ErrCodeAmbiguousProjection Code = "AMBIGUOUS_PROJECTION"
	ErrCodeInsufficientData    Code = "INSUFFICIENT_DATA"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
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

// Fatal reports whether an error code represents a caller contract
// violation that must abort the whole request rather than a single shape.
func Fatal(code Code) bool {
	switch code {
	case ErrCodeUndefinedCRS, ErrCodeAmbiguousProjection, ErrCodeInvalidConfig, ErrCodeInternal:
		return true
	}
	return false
}

// HTTPStatus maps an error code to the HTTP status served for it.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidSite, ErrCodeInvalidDateRange,
		ErrCodeInvalidFormat, ErrCodeInvalidMode, ErrCodeInvalidView, ErrCodeInvalidPath:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeInsufficientData, ErrCodeInvalidGeometry, ErrCodeEmptyGeometry, ErrCodeMissingGeometry:
		return http.StatusUnprocessableEntity
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
