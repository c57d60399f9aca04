// Package shared holds the error taxonomy and status enums used across the domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Error categories. Typed domain errors match one of these through errors.Is so that
// callers can branch on the category without knowing every concrete type.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("resource not found")
	ErrRejected   = errors.New("operation rejected by business rule")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrStorage    = errors.New("storage failure")
)

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) ValidationError {
	return ValidationError{Field: field, Reason: reason}
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

// Is matches ErrValidation and any ValidationError with an empty field.
func (e ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// ConflictError reports an operation blocked by existing state.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	return "conflict: " + e.Reason
}

func (e ConflictError) Is(target error) bool {
	if target == ErrConflict {
		return true
	}
	_, ok := target.(ConflictError)
	return ok
}

// ForbiddenError reports an operation the owner may not perform on an existing resource.
type ForbiddenError struct {
	Reason string
}

func (e ForbiddenError) Error() string {
	return "forbidden: " + e.Reason
}

func (e ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// StorageError wraps a failure of the underlying store. No partial state survives it,
// so the whole operation may be retried by the caller.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return StorageError{Op: op, Err: err}
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}

func (e StorageError) Is(target error) bool {
	return target == ErrStorage
}

// IsDomainError reports whether err belongs to a category the caller must not retry.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRejected) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrForbidden)
}

// WrapStorage tags err as a storage failure unless it already carries a category.
func WrapStorage(op string, err error) error {
	if err == nil || IsDomainError(err) || errors.Is(err, ErrStorage) {
		return err
	}
	return StorageError{Op: op, Err: err}
}
