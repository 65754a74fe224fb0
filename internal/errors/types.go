package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// SigningError is the error type returned by every signing pipeline component
type SigningError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	Err       error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorType represents the categories callers are expected to branch on
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeNotFound
	ErrorTypeValidation
	ErrorTypeInvalidState
	ErrorTypeStorageFailure
	ErrorTypeUnauthorized
)

// Sentinels for errors.Is. Matching is by type only.
var (
	ErrNotFound     = &SigningError{Type: ErrorTypeNotFound, Message: "not found"}
	ErrValidation   = &SigningError{Type: ErrorTypeValidation, Message: "validation failed"}
	ErrInvalidState = &SigningError{Type: ErrorTypeInvalidState, Message: "invalid state"}
	ErrStorage      = &SigningError{Type: ErrorTypeStorageFailure, Message: "storage failure"}
	ErrUnauthorized = &SigningError{Type: ErrorTypeUnauthorized, Message: "unauthorized"}
)

// ErrRequestNotFound is the single outcome of every failed public token lookup.
// It carries no context so unknown and deleted requests look identical.
var ErrRequestNotFound = &SigningError{Type: ErrorTypeNotFound, Message: "signature request not found"}

// Error implements the error interface
func (e *SigningError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *SigningError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a SigningError of the same type
func (e *SigningError) Is(target error) bool {
	t, ok := target.(*SigningError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeInvalidState:
		return "INVALID_STATE"
	case ErrorTypeStorageFailure:
		return "STORAGE_FAILURE"
	case ErrorTypeUnauthorized:
		return "UNAUTHORIZED"
	default:
		return "UNKNOWN"
	}
}

// New creates a new SigningError
func New(errorType ErrorType, message string) *SigningError {
	return &SigningError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a new SigningError with a formatted message
func Newf(errorType ErrorType, format string, args ...any) *SigningError {
	return New(errorType, fmt.Sprintf(format, args...))
}

// Wrap wraps err as a SigningError of the given type. A nil err yields nil.
func Wrap(errorType ErrorType, err error, message string) *SigningError {
	if err == nil {
		return nil
	}
	return &SigningError{
		Type:      errorType,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// NotFound creates a NotFound error
func NotFound(format string, args ...any) *SigningError {
	return Newf(ErrorTypeNotFound, format, args...)
}

// Validation creates a ValidationError
func Validation(format string, args ...any) *SigningError {
	return Newf(ErrorTypeValidation, format, args...)
}

// InvalidState creates an InvalidState error
func InvalidState(format string, args ...any) *SigningError {
	return Newf(ErrorTypeInvalidState, format, args...)
}

// Storage wraps a backing store failure
func Storage(err error, format string, args ...any) *SigningError {
	return Wrap(ErrorTypeStorageFailure, err, fmt.Sprintf(format, args...))
}

// WithContext adds context to an existing SigningError
func (e *SigningError) WithContext(context string) *SigningError {
	e.Context = context
	return e
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var se *SigningError
	if stderrors.As(err, &se) {
		return se.Type
	}
	return ErrorTypeUnknown
}

// IsNotFound reports whether err is a NotFound error
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	return stderrors.Is(err, ErrValidation)
}

// IsInvalidState reports whether err is an InvalidState error
func IsInvalidState(err error) bool {
	return stderrors.Is(err, ErrInvalidState)
}

// IsStorage reports whether err is a StorageFailure
func IsStorage(err error) bool {
	return stderrors.Is(err, ErrStorage)
}
