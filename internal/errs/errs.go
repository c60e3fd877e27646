// Package errs defines the error kinds shared by the predictor packages.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch reports an input, state or parameter dimension that
	// disagrees with the configured sizes.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidInput reports an argument that cannot be used, such as an
	// empty sequence when look-ahead needs a seed step.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNumericInstability reports a NaN or Inf produced during a step.
	ErrNumericInstability = errors.New("numeric instability")
)

// ShapeError describes a dimension disagreement.
type ShapeError struct {
	What string
	Want int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape mismatch: %s: expected %d, got %d", e.What, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// Shape returns a *ShapeError.
func Shape(what string, want, got int) error {
	return &ShapeError{What: what, Want: want, Got: got}
}

// Invalid returns an error wrapping ErrInvalidInput.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Unstable returns an error wrapping ErrNumericInstability for the given step.
func Unstable(step int, detail string) error {
	return fmt.Errorf("%w at step %d: %s", ErrNumericInstability, step, detail)
}
