// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// Common application errors.
var (
	// Ledger errors.
	ErrValidation     = errors.New("validation failed")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrNotFound       = errors.New("not found")
	ErrAuth           = errors.New("authentication failed")
	ErrPersistence    = errors.New("persistence failure")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FieldProblem describes a single rejected field.
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationError reports caller-supplied data that violates a field or shape
// constraint. It never reaches the store.
type ValidationError struct {
	Problems []FieldProblem
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Problems: []FieldProblem{{Field: field, Message: fmt.Sprintf(format, args...)}},
	}
}

// Add appends a problem for field.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Message: fmt.Sprintf(format, args...)})
}

// HasField reports whether any problem was recorded for field.
func (e *ValidationError) HasField(field string) bool {
	for _, p := range e.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no problems were recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, "; "))
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DuplicateError reports a name collision on a unique scope. Existing holds the
// value already stored, with its stored casing.
type DuplicateError struct {
	Kind     string
	Existing string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s is already a %s", e.Existing, e.Kind)
}

// Is lets errors.Is match ErrDuplicateEntry.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateEntry
}

// NotFoundError reports a referenced user, category or row that is absent.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q %v", e.Kind, e.Key, ErrNotFound)
}

// Is lets errors.Is match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AuthError reports a credential mismatch.
type AuthError struct {
	Username string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%v for user %q", ErrAuth, e.Username)
}

// Is lets errors.Is match ErrAuth.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuth
}

// PersistenceError reports that the underlying store failed mid-operation.
type PersistenceError struct {
	Err error
	Op  string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%v during %s: %v", ErrPersistence, e.Op, e.Err)
}

// Is lets errors.Is match ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage turns a core error into the message handed to the presentation layer.
func UserMessage(err error) string {
	var (
		userErr *UserError
		dupErr  *DuplicateError
		nfErr   *NotFoundError
		valErr  *ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &userErr):
		return userErr.UserMessage
	case errors.As(err, &dupErr):
		return dupErr.Error()
	case errors.As(err, &nfErr):
		return nfErr.Error()
	case errors.As(err, &valErr):
		msgs := make([]string, 0, len(valErr.Problems))
		for _, p := range valErr.Problems {
			msgs = append(msgs, p.Field+" "+p.Message)
		}
		return strings.Join(msgs, "\n")
	case errors.Is(err, ErrAuth):
		return "incorrect username or password"
	case errors.Is(err, ErrPersistence):
		return "something went wrong saving your changes; nothing was recorded"
	default:
		return err.Error()
	}
}
