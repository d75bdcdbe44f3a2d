// Package errors provides coded application errors for the genre wiki.
//
// Domain packages return their own typed errors; anything that crosses into
// a transport layer is converted to *Error so a handler can switch on Code:
//
//	var appErr *errors.Error
//	if errors.As(err, &appErr) {
//	    switch appErr.Code {
//	    case errors.CodeGenreCycle:
//	        // 409 with the cycle path in Details
//	    case errors.CodeNotFound:
//	        // 404
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeAlreadyExists    Code = "ALREADY_EXISTS"
	CodeValidation       Code = "VALIDATION"
	CodeConflict         Code = "CONFLICT"
	CodeInternal         Code = "INTERNAL"
	CodeSelfInfluence    Code = "SELF_INFLUENCE"
	CodeDuplicateAka     Code = "DUPLICATE_AKA"
	CodeGenreCycle       Code = "GENRE_CYCLE"
	CodeNoUpdates        Code = "NO_UPDATES"
	CodeInvalidRelevance Code = "INVALID_RELEVANCE"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict, CodeGenreCycle:
		return http.StatusConflict
	case CodeValidation, CodeSelfInfluence, CodeDuplicateAka, CodeInvalidRelevance:
		return http.StatusBadRequest
	case CodeNoUpdates:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is an application error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists    = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation       = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict         = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal         = &Error{Code: CodeInternal, Message: "internal error"}
	ErrSelfInfluence    = &Error{Code: CodeSelfInfluence, Message: "genre cannot influence itself"}
	ErrDuplicateAka     = &Error{Code: CodeDuplicateAka, Message: "duplicate alternate name"}
	ErrGenreCycle       = &Error{Code: CodeGenreCycle, Message: "genre hierarchy cycle"}
	ErrNoUpdates        = &Error{Code: CodeNoUpdates, Message: "no updates"}
	ErrInvalidRelevance = &Error{Code: CodeInvalidRelevance, Message: "invalid relevance"}
)

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an error with the given code and formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return New(CodeValidation, msg)
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflictf creates a conflict error with formatted message.
func Conflictf(format string, args ...any) *Error {
	return Newf(CodeConflict, format, args...)
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}
