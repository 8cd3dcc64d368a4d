package world

import (
	"errors"
	"fmt"

	"github.com/san-kum/rigidsim/internal/body"
)

// Domain errors for world operations.
var (
	// ErrInvalidMassProperties is returned when a dynamic body would have a
	// zero, negative or non-finite mass.
	ErrInvalidMassProperties = body.ErrInvalidMassProperties

	// ErrDegenerateConstraint indicates a joint that can never act, such as
	// one attaching a body to itself.
	ErrDegenerateConstraint = errors.New("world: degenerate constraint")

	// ErrMissingBody indicates a handle that does not refer to a live body.
	ErrMissingBody = errors.New("world: missing body")

	// ErrInvalidParams indicates world parameters outside their valid range.
	ErrInvalidParams = errors.New("world: invalid parameters")
)

// BodyError wraps an error with the body it concerns.
type BodyError struct {
	Op      string
	Handle  body.Handle
	Wrapped error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("world: %s %v: %v", e.Op, e.Handle, e.Wrapped)
}

func (e *BodyError) Unwrap() error {
	return e.Wrapped
}
