package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrLocationUnavailable is returned when the geolocation provider denies,
	// times out, or the caller supplies no fix. No complaint is created.
	ErrLocationUnavailable = errors.New("current location unavailable")

	// ErrInvalidTransition marks a state-machine violation: skipping a state,
	// moving backward, approving without proof, or assigning a non-worker.
	ErrInvalidTransition = errors.New("invalid complaint transition")

	// ErrForbidden marks an actor operating on a complaint that is not theirs.
	ErrForbidden = errors.New("actor not permitted for this complaint")

	// ErrMissingField marks a user-recoverable validation failure.
	ErrMissingField = errors.New("missing or invalid required field")

	// ErrNotFound is returned for unknown complaint ids.
	ErrNotFound = errors.New("complaint not found")
)

// DuplicateError aborts creation when an open complaint of the same category
// already exists within the duplicate radius. It is user-recoverable and
// surfaces the existing complaint's id.
type DuplicateError struct {
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("a similar issue was already reported nearby (ref: %s)", e.ExistingID)
}
