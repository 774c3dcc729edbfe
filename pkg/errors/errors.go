package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned values compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrGone               = New("GONE", http.StatusGone, "resource expired")
)

// Feedback submission rule violations. Only the first failing rule is ever reported.
var (
	ErrSubjectRequired   = New("SUBJECT_REQUIRED", http.StatusBadRequest, "Subject is required")
	ErrSubjectTooShort   = New("SUBJECT_TOO_SHORT", http.StatusBadRequest, "Subject must be at least 5 characters")
	ErrSubjectTooLong    = New("SUBJECT_TOO_LONG", http.StatusBadRequest, "Subject must be at most 100 characters")
	ErrMessageRequired   = New("MESSAGE_REQUIRED", http.StatusBadRequest, "Message is required")
	ErrMessageTooShort   = New("MESSAGE_TOO_SHORT", http.StatusBadRequest, "Message must be at least 10 characters")
	ErrMessageTooLong    = New("MESSAGE_TOO_LONG", http.StatusBadRequest, "Message must be at most 1000 characters")
	ErrRatingRequired    = New("RATING_REQUIRED", http.StatusBadRequest, "Please provide a rating")
	ErrRatingOutOfRange  = New("RATING_OUT_OF_RANGE", http.StatusBadRequest, "Rating must be between 1 and 5")
	ErrInvalidCategory   = New("INVALID_CATEGORY", http.StatusBadRequest, "Unknown feedback category")
	ErrInvalidTransition = New("INVALID_TRANSITION", http.StatusConflict, "status transition not allowed")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
