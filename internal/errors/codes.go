// Package errors provides application error codes and their HTTP mapping.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/devrev/bizdir/internal/store"
)

// ErrorCode represents application-specific error codes.
type ErrorCode string

const (
	// General errors
	ErrorCodeUnknown        ErrorCode = "UNKNOWN"
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrorCodeInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrorCodeServiceDown    ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout        ErrorCode = "TIMEOUT"
	ErrorCodeRateLimited    ErrorCode = "RATE_LIMITED"
	ErrorCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrorCodeConflict       ErrorCode = "CONFLICT"

	// Auth errors
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden    ErrorCode = "FORBIDDEN"

	// Webhook errors
	ErrorCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"
)

// AppError is an error carrying an application code
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap creates an AppError around a cause
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// InvalidArgument reports bad caller input
func InvalidArgument(format string, args ...interface{}) *AppError {
	return New(ErrorCodeInvalidRequest, fmt.Sprintf(format, args...))
}

// NotFound reports a missing resource
func NotFound(resource string) *AppError {
	return New(ErrorCodeNotFound, resource+" not found")
}

// Conflict reports a state conflict
func Conflict(format string, args ...interface{}) *AppError {
	return New(ErrorCodeConflict, fmt.Sprintf(format, args...))
}

// Unauthorized reports a missing or invalid identity
func Unauthorized(message string) *AppError {
	return New(ErrorCodeUnauthorized, message)
}

// Forbidden reports an identity lacking permission
func Forbidden(message string) *AppError {
	return New(ErrorCodeForbidden, message)
}

// Internal wraps an unexpected failure
func Internal(message string, cause error) *AppError {
	return Wrap(ErrorCodeInternalError, message, cause)
}

// CodeOf extracts the application code of err.
// Store sentinels map to NOT_FOUND, CONFLICT and INVALID_REQUEST.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrorCodeUnknown
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		return ErrorCodeNotFound
	case stderrors.Is(err, store.ErrConflict):
		return ErrorCodeConflict
	case stderrors.Is(err, store.ErrReferenceMissing):
		return ErrorCodeInvalidRequest
	case stderrors.Is(err, context.DeadlineExceeded):
		return ErrorCodeTimeout
	default:
		return ErrorCodeInternalError
	}
}

// HTTPStatus converts an error to an HTTP status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch CodeOf(err) {
	case ErrorCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodeUnauthorized, ErrorCodeInvalidSignature:
		return http.StatusUnauthorized
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrorCodeServiceDown:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a caller.
// Internal failures are not described.
func PublicMessage(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if appErr.Code == ErrorCodeInternalError {
			return "internal server error"
		}
		return appErr.Message
	}
	switch CodeOf(err) {
	case ErrorCodeNotFound:
		return "resource not found"
	case ErrorCodeConflict:
		return "resource already exists"
	case ErrorCodeInvalidRequest:
		return "referenced resource does not exist"
	case ErrorCodeTimeout:
		return "request timed out"
	default:
		return "internal server error"
	}
}
