// Package errors defines coded domain errors shared by services and the API layer.
//
// Services return *Error values; the API error handler turns the Code into an
// HTTP status and a machine-readable error code in the response envelope.
//
//	if errors.Is(err, errors.ErrNotFound) { ... }
//
//	var de *errors.Error
//	if errors.As(err, &de) && de.Code == errors.CodeMalformedReply { ... }
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-exports so callers only need one errors import.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)

// Code is a machine-readable error code.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION"
	CodeConflict           Code = "CONFLICT"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeInternal           Code = "INTERNAL"

	// CodeUpstream covers failures of the generative model service.
	CodeUpstream Code = "UPSTREAM"
	// CodeMalformedReply is a tool call without a name or arguments.
	CodeMalformedReply Code = "MALFORMED_MODEL_REPLY"
	// CodeUnexpectedReply is a model reply with neither text nor a tool call.
	CodeUnexpectedReply Code = "UNEXPECTED_MODEL_REPLY"
)

// HTTPStatus maps a code to its HTTP status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUpstream, CodeMalformedReply, CodeUnexpectedReply:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status for this error.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// WithDetails returns a copy carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// Sentinels for errors.Is.
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrRateLimited        = &Error{Code: CodeRateLimited, Message: "too many requests"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
	ErrUpstream           = &Error{Code: CodeUpstream, Message: "AI service unavailable"}
	ErrMalformedReply     = &Error{Code: CodeMalformedReply, Message: "AI returned a malformed function call."}
	ErrUnexpectedReply    = &Error{Code: CodeUnexpectedReply, Message: "AI returned an unexpected response format."}
)

func newf(code Code, format string, args ...any) *Error {
	if len(args) == 0 {
		return &Error{Code: code, Message: format}
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(format string, args ...any) *Error { return newf(CodeNotFound, format, args...) }

// AlreadyExists creates an already exists error.
func AlreadyExists(format string, args ...any) *Error {
	return newf(CodeAlreadyExists, format, args...)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(format string, args ...any) *Error {
	return newf(CodeUnauthorized, format, args...)
}

// Forbidden creates a forbidden error.
func Forbidden(format string, args ...any) *Error { return newf(CodeForbidden, format, args...) }

// Validation creates a validation error.
func Validation(format string, args ...any) *Error { return newf(CodeValidation, format, args...) }

// ValidationWithDetails creates a validation error with field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a conflict error.
func Conflict(format string, args ...any) *Error { return newf(CodeConflict, format, args...) }

// InvalidCredentials creates an invalid credentials error.
func InvalidCredentials(msg string) *Error { return &Error{Code: CodeInvalidCredentials, Message: msg} }

// Internal creates an internal error.
func Internal(format string, args ...any) *Error { return newf(CodeInternal, format, args...) }

// Upstream wraps a generative model failure.
func Upstream(err error) *Error { return ErrUpstream.WithCause(err) }

// Wrap wraps err with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}
