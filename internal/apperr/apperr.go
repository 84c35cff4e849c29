// Package apperr defines the coded error taxonomy shared by the lifecycle
// manager, the stores, and the transport layers. Collaborators translate
// codes into transport responses; nothing here knows about HTTP.
package apperr

import (
	"errors"
	"fmt"
)

const (
	CodeNotFound = "NOT_FOUND"
	CodeConflict = "CONFLICT"
	CodeInvalid  = "INVALID_ARGUMENT"
	CodeInternal = "INTERNAL"
)

// Error carries a machine-readable code plus the entity kind and id the
// condition refers to.
type Error struct {
	Code    string
	Kind    string
	ID      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %q: %s", e.Kind, e.ID, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors by code so callers can use errors.Is with sentinel
// constructors, e.g. errors.Is(err, apperr.NotFound("task", "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func NotFound(kind, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Kind:    kind,
		ID:      id,
		Message: fmt.Sprintf("%s '%s' not found", kind, id),
	}
}

func Conflict(kind, id string) *Error {
	return &Error{
		Code:    CodeConflict,
		Kind:    kind,
		ID:      id,
		Message: fmt.Sprintf("%s '%s' already exists", kind, id),
	}
}

func Invalid(message string) *Error {
	return &Error{Code: CodeInvalid, Message: message}
}

func Wrap(code string, err error, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }
func IsConflict(err error) bool { return hasCode(err, CodeConflict) }
func IsInvalid(err error) bool  { return hasCode(err, CodeInvalid) }

func hasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
