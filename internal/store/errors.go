package store

import (
	"fmt"
	"net/http"
)

// Error is a storage error carrying the HTTP status it maps to.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)

	parent *Error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the cause and the sentinel this error refines.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.parent != nil {
		errs = append(errs, e.parent)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithCause wraps an underlying error, keeping e in the chain.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err, parent: e}
}

// Generic sentinels.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}
)

// Entity sentinels. Each satisfies errors.Is against its generic parent.
var (
	ErrUserNotFound        = refine(ErrNotFound, "user not found")
	ErrTransactionNotFound = refine(ErrNotFound, "transaction not found")
	ErrTagNotFound         = refine(ErrNotFound, "tag not found")
	ErrTagExists           = refine(ErrAlreadyExists, "tag already exists")
	ErrEmailExists         = refine(ErrAlreadyExists, "email already registered")
)

func refine(parent *Error, msg string) *Error {
	return &Error{Code: parent.Code, Message: msg, parent: parent}
}
