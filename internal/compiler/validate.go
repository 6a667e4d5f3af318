package compiler

import (
	"fmt"

	"github.com/roach88/dxexplorer/internal/model"
)

// Validation error codes (E200-E299)
const (
	ErrRequiredFieldEmpty   = "E201" // required field has no data
	ErrRequiredFieldMissing = "E202" // required field has no catalog entry
)

// ValidationError describes one field that blocks submission.
type ValidationError struct {
	Field   string `json:"field"` // Field key
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// validatedKinds are the field kinds whose required flag is enforced.
var validatedKinds = map[model.Kind]bool{
	model.KindTextInput: true,
	model.KindTextArea:  true,
	model.KindDate:      true,
	model.KindDropdown:  true,
	model.KindInteger:   true,
}

// ValidateComponent reports whether every required, editable field beneath c
// has data. Children are visited depth-first in document order and the walk
// stops at the first failure. References are not followed.
func ValidateComponent(c *model.Component, fields model.FieldMap) bool {
	if c == nil {
		return true
	}
	if checkField(c, fields) != nil {
		return false
	}
	for _, child := range c.Children {
		if !ValidateComponent(child, fields) {
			return false
		}
	}
	return true
}

// Problems returns every failing field beneath c in document order.
// Unlike ValidateComponent it does not stop at the first failure.
func Problems(c *model.Component, fields model.FieldMap) []ValidationError {
	errs := []ValidationError{}
	var walk func(*model.Component)
	walk = func(c *model.Component) {
		if c == nil {
			return
		}
		if err := checkField(c, fields); err != nil {
			errs = append(errs, *err)
		}
		for _, child := range c.Children {
			walk(child)
		}
	}
	walk(c)
	return errs
}

// checkField validates a single node, ignoring its children.
func checkField(c *model.Component, fields model.FieldMap) *ValidationError {
	if !validatedKinds[c.Kind] || !c.IsRequired {
		return nil
	}
	f := fields[c.Key]
	if f == nil && !c.IsReadOnly && !c.IsDisabled {
		return &ValidationError{
			Field:   c.Key,
			Message: fmt.Sprintf("required %s %q has no field metadata", c.Kind, c.Label),
			Code:    ErrRequiredFieldMissing,
		}
	}
	if !model.IsEditable(c, f) {
		return nil
	}
	if f.Data == "" {
		return &ValidationError{
			Field:   c.Key,
			Message: fmt.Sprintf("required %s %q is empty", c.Kind, c.Label),
			Code:    ErrRequiredFieldEmpty,
		}
	}
	return nil
}
