package service

import "errors"

// The error taxonomy every service returns from. Handlers map these to
// HTTP statuses in one place; nothing below the boundary logs or retries
// them.
var (
	// ErrNotFound covers both "absent" and "not visible to the caller",
	// deliberately indistinguishable so existence never leaks.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the entity is visible but the caller lacks
	// permission for this particular mutation.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict signals a uniqueness or state-invariant violation.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState means the operation is not valid for the entity's
	// current lifecycle state.
	ErrInvalidState = errors.New("invalid state")

	// ErrExpired means an undo arrived after the tombstone window closed.
	// The boundary surfaces it as not found.
	ErrExpired = errors.New("undo window expired")
)
