package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInterval  = errors.New("unknown recurrence interval")
	ErrTemplateNotFound = errors.New("recurring transaction not found")
	ErrUpdateConflict   = errors.New("recurring transaction was modified concurrently")
	ErrSweepInProgress  = errors.New("a recurring sweep is already running")
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	ok := errors.As(err, &validationError)
	return ok
}

// PersistenceError wraps a failed ledger store read or write. Op names the
// store operation so sweep reports stay readable in logs.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

func IsPersistenceError(err error) bool {
	var persistenceError *PersistenceError
	ok := errors.As(err, &persistenceError)
	return ok
}
