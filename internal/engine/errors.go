package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected by the engine itself, as
// opposed to a call the server rejected.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// SessionID identifies the affected session.
	SessionID string

	// Seq is the logical time of the affected call, 0 if none.
	Seq int64

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeStopped indicates the engine is not accepting calls.
	ErrCodeStopped RuntimeErrorCode = "ENGINE_STOPPED"

	// ErrCodeQuotaExceeded indicates the session exceeded its call quota.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeJournal indicates the call could not be journaled.
	ErrCodeJournal RuntimeErrorCode = "JOURNAL_FAILED"

	// ErrCodeReplay indicates a journaled call could not be replayed.
	ErrCodeReplay RuntimeErrorCode = "REPLAY_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.SessionID != "" {
		msg += fmt.Sprintf(" (session=%s", e.SessionID)
		if e.Seq != 0 {
			msg += fmt.Sprintf(", seq=%d", e.Seq)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsStopped returns true if the error reports a stopped engine.
// Uses errors.As to handle wrapped errors.
func IsStopped(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeStopped
	}
	return false
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and CallsExceededError.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) && re.Code == ErrCodeQuotaExceeded {
		return true
	}
	return IsCallsExceededError(err)
}

func newStoppedError(sessionID string) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeStopped,
		Message:   "engine is not running",
		SessionID: sessionID,
	}
}
