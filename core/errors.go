package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError reports a missing course, submission, session etc.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

// ForbiddenError reports a role, ownership or enrollment mismatch.
type ForbiddenError struct {
	msg string
}

func NewForbiddenError(msg string) error {
	return &ForbiddenError{msg: msg}
}

func (err ForbiddenError) Error() string {
	return err.msg
}

// LockedError reports a write attempt on something that can no longer change.
type LockedError struct {
	msg string
}

func NewLockedError(msg string) error {
	return &LockedError{msg: msg}
}

func (err LockedError) Error() string {
	return err.msg
}

// StateError reports an operation that the current state of a resource does not accept.
type StateError struct {
	msg string
}

func NewStateError(msg string) error {
	return &StateError{msg: msg}
}

func (err StateError) Error() string {
	return err.msg
}

// ConflictError reports a write that lost a race against a concurrent one.
type ConflictError struct {
	msg string
}

func NewConflictError(msg string) error {
	return &ConflictError{msg: msg}
}

func (err ConflictError) Error() string {
	return err.msg
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
