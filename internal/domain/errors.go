package domain

import "errors"

// Sentinel errors for the reconciliation core. Callers match with errors.Is;
// every raise site wraps these with a human-readable detail message that the
// front end can surface as-is.
var (
	// ErrValidation marks malformed input: a non-positive amount, a status
	// outside the allowed set, an orphan line flagged invalid.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference that does not resolve: a missing row, or
	// an orphan line no longer in the state the operation requires.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an entity found but in a state that forbids the
	// operation, e.g. reconciling an already-consumed orphan line.
	ErrInvalidState = errors.New("invalid state")
)
