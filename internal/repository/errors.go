package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrConflict is returned when an optimistic update kept losing to
	// concurrent writers.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrNoRollback marks a WithTx failure whose earlier writes were kept.
	ErrNoRollback = errors.New("transaction not rolled back")
)

// Error is the data-access error returned by every Store implementation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("repository: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err and leaves an existing *Error untouched.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return err
	}
	return &Error{Op: op, Err: err}
}

func NotFound(op string) error {
	return &Error{Op: op, Err: ErrNotFound}
}

func Duplicate(op string, cause error) error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrDuplicate, cause)}
}

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsDuplicate(err error) bool  { return errors.Is(err, ErrDuplicate) }
func IsNoRollback(err error) bool { return errors.Is(err, ErrNoRollback) }
