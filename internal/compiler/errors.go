package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/dxexplorer/internal/model"
)

// ConstructError reports a component that could not be built. It carries the
// indented JSON of the offending node for diagnostics.
type ConstructError struct {
	Kind    model.Kind
	Name    string
	ClassID string
	Reason  string
	JSON    string
}

func (e *ConstructError) Error() string {
	return fmt.Sprintf("failed to make %s component (%s) from JSON:\n%s", e.Kind, e.Reason, e.JSON)
}

// LookupErrorCode categorizes strict content lookup failures.
type LookupErrorCode string

const (
	// ErrCodeMissingClassID indicates the content has no classID entry.
	ErrCodeMissingClassID LookupErrorCode = "MISSING_CLASS_ID"

	// ErrCodeClassMismatch indicates content["classID"] differs from the requested class.
	ErrCodeClassMismatch LookupErrorCode = "CLASS_MISMATCH"

	// ErrCodeNameNotFound indicates the requested name is not in the content.
	ErrCodeNameNotFound LookupErrorCode = "NAME_NOT_FOUND"
)

// LookupError reports a strict content lookup failure.
type LookupError struct {
	Code           LookupErrorCode
	ClassID        string // Class the lookup was performed against
	Name           string
	ContentClassID string // content["classID"], empty if missing
}

func (e *LookupError) Error() string {
	switch e.Code {
	case ErrCodeMissingClassID:
		return fmt.Sprintf("%s: could not resolve name %q: content does not contain 'classID'", e.Code, e.Name)
	case ErrCodeClassMismatch:
		return fmt.Sprintf("%s: could not resolve name %q: content classID = %q, class_id = %q", e.Code, e.Name, e.ContentClassID, e.ClassID)
	default:
		return fmt.Sprintf("%s: could not resolve name %q: name not found in content of %q", e.Code, e.Name, e.ClassID)
	}
}

// RootError reports an unsupported root component descriptor.
type RootError struct {
	Field string // "context" or "type"
	Value string
}

func (e *RootError) Error() string {
	return fmt.Sprintf("root component uses unsupported %s: %q", e.Field, e.Value)
}

// ParseError reports a response body that is not shaped like a DX API response.
type ParseError struct {
	Section string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse response: %s: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("parse response: %s", e.Section)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsLookupError reports whether err is a strict lookup failure with the given code.
// An empty code matches any lookup failure.
func IsLookupError(err error, code LookupErrorCode) bool {
	var le *LookupError
	if errors.As(err, &le) {
		return code == "" || le.Code == code
	}
	return false
}
