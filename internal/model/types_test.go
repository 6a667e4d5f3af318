package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeKey(t *testing.T) {
	assert.Equal(t, "MyApp-Work.Status", MakeKey("MyApp-Work", "Status"))
	f := &Field{ClassID: "MyApp-Work", ID: "Name"}
	assert.Equal(t, "MyApp-Work.Name", f.Key())
}

func TestIsEditable(t *testing.T) {
	field := &Field{ID: "Name"}
	tests := []struct {
		name string
		c    *Component
		f    *Field
		want bool
	}{
		{"plain", &Component{}, field, true},
		{"readonly", &Component{IsReadOnly: true}, field, false},
		{"disabled", &Component{IsDisabled: true}, field, false},
		{"special", &Component{}, &Field{IsSpecial: true}, false},
		{"class key", &Component{}, &Field{IsClassKey: true}, false},
		{"no field", &Component{}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEditable(tt.c, tt.f))
		})
	}
}

func TestAssignmentOrder(t *testing.T) {
	info := NewCaseInfo()
	a := NewAssignment("A-2")
	a.AddAction(&Action{ID: "Second"})
	a.AddAction(&Action{ID: "First"})
	a.AddAction(&Action{ID: "Second", Name: "replaced"})
	info.AddAssignment(a)
	info.AddAssignment(NewAssignment("A-1"))

	assert.Equal(t, []string{"A-2", "A-1"}, info.AssignmentIDs)
	assert.Equal(t, []string{"Second", "First"}, a.ActionIDs)
	assert.Equal(t, "replaced", a.Actions["Second"].Name)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "open_action", StatusOpenAction.String())
	s, ok := ParseStatus("open_assignment")
	assert.True(t, ok)
	assert.Equal(t, StatusOpenAssignment, s)
	_, ok = ParseStatus("nope")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Status(42).String())
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}
