// Package errors provides structured error types for pedigree operations.
//
// Every rejected mutation carries a machine-readable reason [Code] so the
// CLI, the HTTP API and tests can react to the cause without parsing
// messages. A rejected mutation leaves the pedigree unchanged.
//
// # Error Codes
//
//   - INVALID_*: malformed input, parameters or documents
//   - NOT_FOUND: a referenced individual or document does not exist
//   - SPOUSE_*, PARENTS_*, PROBAND_*, GENERATION_LIMIT: structural
//     preconditions of a mutation were not met
//   - STORE_ERROR, INTERNAL_ERROR: infrastructure failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSpouseRequired, "%s has no spouse", id)
//	if errors.Is(err, errors.ErrCodeSpouseRequired) {
//	    // offer to add a spouse first
//	}
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
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidOperation Code = "INVALID_OPERATION"
	ErrCodeInvalidDocument  Code = "INVALID_DOCUMENT"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Structural precondition errors
	ErrCodeSpouseExists     Code = "SPOUSE_EXISTS"
	ErrCodeParentsComplete  Code = "PARENTS_COMPLETE"
	ErrCodeSpouseRequired   Code = "SPOUSE_REQUIRED"
	ErrCodeParentsRequired  Code = "PARENTS_REQUIRED"
	ErrCodeGenerationLimit  Code = "GENERATION_LIMIT"
	ErrCodeProbandProtected Code = "PROBAND_PROTECTED"
	ErrCodeProbandExists    Code = "PROBAND_EXISTS"
	ErrCodeDuplicateID      Code = "DUPLICATE_ID"

	// Infrastructure errors
	ErrCodeStore    Code = "STORE_ERROR"
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

// IsPrecondition reports whether err is a rejected structural mutation,
// as opposed to bad input or an infrastructure failure.
func IsPrecondition(err error) bool {
	switch GetCode(err) {
	case ErrCodeSpouseExists, ErrCodeParentsComplete, ErrCodeSpouseRequired,
		ErrCodeParentsRequired, ErrCodeGenerationLimit, ErrCodeProbandProtected,
		ErrCodeProbandExists, ErrCodeDuplicateID:
		return true
	}
	return false
}
