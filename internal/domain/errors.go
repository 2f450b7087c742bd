package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing record and a record in the wrong
	// lifecycle state for the requested transition (e.g. restoring a bin
	// that is not trashed).
	ErrNotFound = errors.New("not found")

	// ErrShortCodeTaken reports a unique-constraint conflict on a short
	// code. Callers retry with a fresh code rather than surfacing it.
	ErrShortCodeTaken = errors.New("short code already taken")

	// ErrCodeSpaceExhausted means the short-code retry budget ran out.
	// Ten consecutive collisions in a ~887M code space signals an anomaly,
	// so this is an internal failure, not a caller error.
	ErrCodeSpaceExhausted = errors.New("short code space exhausted")
)

// ValidationError reports input that fails shape or size limits. It carries
// no side effects: nothing was persisted when one is returned.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
