package domain

import (
	"errors"
	"fmt"
	"time"
)

// Application error codes
const (
	EINVALID           = "invalid"            // Invalid input or validation failure
	EMISSINGCREDENTIAL = "missing_credential" // Completion backend not configured
	EUPSTREAM          = "upstream"           // Completion backend failed after retry or timed out
	EMETHOD            = "method_not_allowed" // HTTP method not accepted
	ENOTFOUND          = "not_found"          // Resource not found
	ETOOLARGE          = "too_large"          // Request entity too large
	ERATELIMIT         = "rate_limit"         // Rate limit exceeded
	EINTERNAL          = "internal"           // Internal server error
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "rams.generate")
	Message string // Human-readable message
	Detail  string // Optional detail safe to show to the caller
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		// For internal errors, return generic message
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// ErrorDetail returns the caller-visible detail of the error, if any.
func ErrorDetail(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Detail
	}
	return ""
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Convenience constructors for the generation error kinds

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// MissingCredential creates an error for an unconfigured completion backend.
func MissingCredential(op string) *Error {
	return &Error{
		Code:    EMISSINGCREDENTIAL,
		Op:      op,
		Message: "Completion service is not configured",
	}
}

// Upstream creates an upstream failure, keeping the backend error text as
// detail. When err is already an *Error its caller-visible detail is reused.
func Upstream(err error, op, message string) *Error {
	e := &Error{
		Code:    EUPSTREAM,
		Op:      op,
		Message: message,
		Err:     err,
	}
	var inner *Error
	switch {
	case errors.As(err, &inner):
		e.Detail = ErrorDetail(inner)
	case err != nil:
		e.Detail = err.Error()
	}
	return e
}

// UpstreamTimeout creates an upstream failure for a request that ran out of time.
func UpstreamTimeout(err error, op, message string, after time.Duration) *Error {
	return &Error{
		Code:    EUPSTREAM,
		Op:      op,
		Message: message,
		Detail:  fmt.Sprintf("generation timed out after %s", after),
		Err:     err,
	}
}

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// RateLimit creates a rate limit error.
func RateLimit(op string) *Error {
	return &Error{
		Code:    ERATELIMIT,
		Op:      op,
		Message: "Too many requests. Please try again later.",
	}
}
