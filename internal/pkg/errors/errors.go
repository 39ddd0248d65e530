// Package errors provides the application error type rendered by the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is wrapped by Unauthorized.
var ErrUnauthorized = errors.New("unauthorized")

// Error codes returned to webhook callers.
const (
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeEmptyPayload    = "EMPTY_PAYLOAD"
	CodeInvalidPayload  = "INVALID_PAYLOAD"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeInvalidQuery    = "INVALID_QUERY"
	CodeEventSaveFailed = "EVENT_SAVE_FAILED"
	CodeQueryFailed     = "EVENT_QUERY_FAILED"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError is a structured application error with HTTP status and error code.
type AppError struct {
	// Code is a machine-readable error code (e.g., "EVENT_SAVE_FAILED").
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// HTTPStatus is the corresponding HTTP status code.
	HTTPStatus int `json:"-"`

	// Err is the wrapped underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error into an AppError.
func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// BadRequest creates a 400 error.
func BadRequest(code, message string) *AppError {
	return New(code, message, http.StatusBadRequest)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return Wrap(ErrUnauthorized, CodeUnauthorized, message, http.StatusUnauthorized)
}

// Internal creates a 500 error wrapping err.
func Internal(err error, code, message string) *AppError {
	return Wrap(err, code, message, http.StatusInternalServerError)
}

// IsAppError checks if an error is an AppError and returns it.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
