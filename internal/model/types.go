package model

import "sort"

// Status describes what information is available for display.
type Status int

const (
	StatusLoggedOut Status = iota
	StatusLoggedIn
	StatusOpenCase
	StatusOpenAssignment
	StatusOpenAction
)

var statusStrings = [...]string{
	"logged_out",
	"logged_in",
	"open_case",
	"open_assignment",
	"open_action",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusStrings) {
		return "unknown"
	}
	return statusStrings[s]
}

// ParseStatus returns the status named s and whether it was recognized.
func ParseStatus(s string) (Status, bool) {
	for i, name := range statusStrings {
		if name == s {
			return Status(i), true
		}
	}
	return StatusLoggedOut, false
}

// Field is the metadata and bound value of one case property.
//
// https://docs.pega.com/bundle/dx-api/page/platform/dx-api/understand-dx-api-response.html
type Field struct {
	ID      string `json:"id"`
	ClassID string `json:"class_id"`
	Label   string `json:"label,omitempty"`
	Type    string `json:"type"`
	Data    string `json:"data"`
	JSON    string `json:"-"` // Indented source JSON, kept for diagnostics

	IsSpecial  bool `json:"is_special,omitempty"`
	IsClassKey bool `json:"is_class_key,omitempty"`
	IsDirty    bool `json:"is_dirty,omitempty"`
}

// Key returns the field key: classID + "." + id.
func (f *Field) Key() string {
	return MakeKey(f.ClassID, f.ID)
}

// FieldMap maps field keys to fields.
type FieldMap map[string]*Field

// Paragraph is a named static text fragment.
type Paragraph struct {
	ClassID string `json:"class_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ParagraphMap maps paragraph names to paragraphs.
type ParagraphMap map[string]*Paragraph

// Component is one node of the server-described UI tree.
//
// The zero value is an unspecified component; the builder fills in the
// attributes that its kind carries and leaves the rest at their zero value.
type Component struct {
	Kind    Kind   `json:"kind"`
	Name    string `json:"name"`
	ClassID string `json:"class_id"`
	Key     string `json:"key"` // This rule, or the referenced rule for references and fields

	Label        string `json:"label,omitempty"`
	JSON         string `json:"-"`
	DebugString  string `json:"debug_string"`
	BrokenString string `json:"broken_string,omitempty"`

	IsReadOnly bool `json:"is_readonly,omitempty"`
	IsRequired bool `json:"is_required,omitempty"`
	IsDisabled bool `json:"is_disabled,omitempty"`
	IsBroken   bool `json:"is_broken,omitempty"`
	IsSelected bool `json:"is_selected,omitempty"`

	RefKind      Kind         `json:"ref_kind,omitempty"` // Referenced component or template
	Children     []*Component `json:"children,omitempty"`
	Instructions string       `json:"instructions,omitempty"`
	Options      []*Component `json:"options,omitempty"`
}

// ComponentMap maps component keys to components.
type ComponentMap map[string]*Component

// MakeKey creates a key from a class id and a name, such as "The-Class-ID.TheName".
func MakeKey(classID, name string) string {
	return classID + "." + name
}

// IsEditable reports whether a field component should accept edits.
func IsEditable(c *Component, f *Field) bool {
	if c.IsReadOnly || c.IsDisabled {
		return false
	}
	if f == nil {
		return false
	}
	return !f.IsSpecial && !f.IsClassKey
}

// Action is an operation performable on an assignment.
type Action struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Assignment is a unit of work on a case.
type Assignment struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	CanPerform bool               `json:"can_perform"`
	Actions    map[string]*Action `json:"actions"`
	ActionIDs  []string           `json:"action_ids"` // Document order
}

// NewAssignment returns an assignment with an empty action map.
func NewAssignment(id string) *Assignment {
	return &Assignment{ID: id, Actions: make(map[string]*Action)}
}

// AddAction inserts or replaces an action, keeping first-seen order.
func (a *Assignment) AddAction(act *Action) {
	if _, exists := a.Actions[act.ID]; !exists {
		a.ActionIDs = append(a.ActionIDs, act.ID)
	}
	a.Actions[act.ID] = act
}

// CaseType is a case type the application allows creating.
type CaseType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CaseInfo is the top-level case record.
type CaseInfo struct {
	Type           CaseType `json:"type"`
	ID             string   `json:"id"`
	BusinessID     string   `json:"business_id"`
	CreateTime     string   `json:"create_time"`
	CreatedBy      string   `json:"created_by"`
	LastUpdateTime string   `json:"last_update_time"`
	LastUpdatedBy  string   `json:"last_updated_by"`
	Name           string   `json:"name"`
	Owner          string   `json:"owner"`
	Status         string   `json:"status"`

	Assignments   map[string]*Assignment `json:"assignments"`
	AssignmentIDs []string               `json:"assignment_ids"` // Document order
	Content       Content                `json:"content"`
}

// NewCaseInfo returns a case info with empty maps.
func NewCaseInfo() *CaseInfo {
	return &CaseInfo{
		Assignments: make(map[string]*Assignment),
		Content:     make(Content),
	}
}

// AddAssignment inserts or replaces an assignment, keeping first-seen order.
func (c *CaseInfo) AddAssignment(a *Assignment) {
	if _, exists := c.Assignments[a.ID]; !exists {
		c.AssignmentIDs = append(c.AssignmentIDs, a.ID)
	}
	c.Assignments[a.ID] = a
}

// ActionButton is a button descriptor supplied by the server.
type ActionButton struct {
	JSAction string `json:"jsAction"`
	Name     string `json:"name"`
	ActionID string `json:"actionID"`
}

// ActionButtons holds the main and secondary button lists verbatim.
type ActionButtons struct {
	Main      []ActionButton `json:"main"`
	Secondary []ActionButton `json:"secondary"`
}

// SortedKeys returns the map keys in byte order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
