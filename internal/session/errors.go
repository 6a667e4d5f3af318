package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResources is returned by edits and validation before any response
	// with uiResources has been applied.
	ErrNoResources = errors.New("no form loaded")

	// ErrNoOpenAction is returned when a submission is requested without an
	// open assignment action.
	ErrNoOpenAction = errors.New("no assignment action is open")

	// ErrValidationFailed is returned by PrepareSubmit when a required field
	// is empty.
	ErrValidationFailed = errors.New("validation failed")
)

// EditError reports an edit the session refused.
type EditError struct {
	Key    string
	Reason string
}

func (e *EditError) Error() string {
	return fmt.Sprintf("cannot edit %s: %s", e.Key, e.Reason)
}
