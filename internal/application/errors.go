package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidPlan      = errors.New("invalid plan")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StoreUnavailableError means a catalog or asset store could not be reached.
// It is fatal for the current operation and the only retryable class.
type StoreUnavailableError struct {
	Store string // "catalog" or "assets"
	Err   error
}

func (e *StoreUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s store unavailable", e.Store)
	}
	return fmt.Sprintf("%s store unavailable: %v", e.Store, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// Unavailable wraps err as a StoreUnavailableError for the named store
func Unavailable(store string, err error) error {
	return &StoreUnavailableError{Store: store, Err: err}
}

// UpdateError is a store rejection of one record update
type UpdateError struct {
	RecordID string
	Err      error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("cannot update record %s: %v", e.RecordID, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err may succeed on retry
func IsTransient(err error) bool {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return false
	}
	return errors.Is(err, ErrStoreUnavailable)
}
