package body

import "errors"

var (
	// ErrInvalidMassProperties indicates a non-static body with zero,
	// negative or non-finite mass.
	ErrInvalidMassProperties = errors.New("body: invalid mass properties")

	// ErrNotFound indicates a handle that does not refer to a live body.
	ErrNotFound = errors.New("body: no such body")

	// ErrNoShape indicates a body description without a shape.
	ErrNoShape = errors.New("body: shape is required")
)
