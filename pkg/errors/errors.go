package errors

import "errors"

// Sentinels shared by services and handlers.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
	ErrUnavailable  = errors.New("service unavailable")
	ErrInvalidState = errors.New("invalid state transition")
)

// Is reports whether err matches target anywhere in its chain.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Wrap prefixes err with message while keeping it matchable.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Join(errors.New(message), err)
}

// Join aggregates cleanup errors, skipping nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
