package apperror

import (
	"errors"
	"net/http"
)

// Sentinel kinds. Every AppError unwraps to exactly one of these so callers
// can branch with errors.Is without looking at messages.
var (
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrBadCredentials = errors.New("bad credentials")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrTooLarge       = errors.New("payload too large")
	ErrInternal       = errors.New("internal error")
)

var statusByKind = map[error]int{
	ErrValidation:     http.StatusBadRequest,
	ErrConflict:       http.StatusBadRequest,
	ErrNotFound:       http.StatusNotFound,
	ErrBadCredentials: http.StatusBadRequest,
	ErrUnauthorized:   http.StatusUnauthorized,
	ErrTooLarge:       http.StatusRequestEntityTooLarge,
	ErrInternal:       http.StatusInternalServerError,
}

// AppError carries a kind, the client-facing message and, optionally, the
// underlying cause. The cause is for logs only and never reaches the client.
type AppError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// Status returns the HTTP status for the error's kind.
func (e *AppError) Status() int {
	return StatusOf(e.Kind)
}

// StatusOf maps a kind to its HTTP status, defaulting to 500.
func StatusOf(kind error) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func Validation(message string) *AppError {
	return &AppError{Kind: ErrValidation, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: ErrConflict, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Kind: ErrNotFound, Message: message}
}

func BadCredentials(message string) *AppError {
	return &AppError{Kind: ErrBadCredentials, Message: message}
}

func Unauthorized(message string) *AppError {
	return &AppError{Kind: ErrUnauthorized, Message: message}
}

func TooLarge(message string) *AppError {
	return &AppError{Kind: ErrTooLarge, Message: message}
}

// Internal wraps cause behind a generic client message.
func Internal(message string, cause error) *AppError {
	return &AppError{Kind: ErrInternal, Message: message, Cause: cause}
}
