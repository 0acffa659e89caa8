package engine

import (
	"errors"
	"fmt"
)

// PullError reports a pull that produced no usable state: a transport
// failure, a non-2xx response or an unparseable body. The view is left
// unchanged.
type PullError struct {
	// PullID identifies the pull within the session, starting at 1.
	PullID int64

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *PullError) Error() string {
	return fmt.Sprintf("pull %d failed: %v", e.PullID, e.Err)
}

// Unwrap returns the underlying failure.
func (e *PullError) Unwrap() error {
	return e.Err
}

// IsPullError returns true if the error is a PullError.
// Uses errors.As to handle wrapped errors.
func IsPullError(err error) bool {
	var pe *PullError
	return errors.As(err, &pe)
}
