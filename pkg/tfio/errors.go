package tfio

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat is returned for file extensions without a codec.
	ErrUnknownFormat = errors.New("tfio: unknown format")
	// ErrMalformed is returned when a file cannot be decoded.
	ErrMalformed = errors.New("tfio: malformed input")
)

// FormatError describes why a file of a given format was rejected.
type FormatError struct {
	Format string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tfio: malformed %s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("tfio: malformed %s: %s", e.Format, e.Reason)
}

// Unwrap exposes ErrMalformed and the underlying cause.
func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformed, e.Err}
	}
	return []error{ErrMalformed}
}

func malformed(format, reason string, err error) error {
	return &FormatError{Format: format, Reason: reason, Err: err}
}
