package models

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Concrete errors unwrap to one of these so callers can
// branch with errors.Is without caring about the details.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrOutOfRange    = errors.New("out of range")
)

// ConfigurationError reports an invalid or missing parameter, or a particle
// measurement that cannot be used (non-positive area, negative size).
type ConfigurationError struct {
	// Field names the offending parameter or measurement
	Field string

	// Reason is a short human readable explanation
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// OutOfRangeError reports a nucleus bounding box that reaches past the edges
// of the image it is read from.
type OutOfRangeError struct {
	// Index is the nucleus position in its detection set
	Index int

	// Box is the offending bounding box
	Box BoundingBox

	// Width and Height are the image dimensions
	Width, Height int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("nucleus %d: bounding box (%d,%d %dx%d) outside image bounds %dx%d",
		e.Index, e.Box.X, e.Box.Y, e.Box.Width, e.Box.Height, e.Width, e.Height)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }
