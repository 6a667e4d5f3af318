package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/dxexplorer/internal/logging/loggingtest"
	"github.com/roach88/dxexplorer/internal/model"
)

func testBuilder() *Builder {
	return &Builder{
		Content: model.Content{
			"classID":  "MyApp-Work",
			"ViewName": "DynamicDetails",
			"Address":  map[string]any{"classID": "MyApp-Data-Address"},
			"Notes":    "",
		},
		Fields: model.FieldMap{
			"MyApp-Work.FirstName": {ID: "FirstName", ClassID: "MyApp-Work", Label: "First name"},
		},
		Paragraphs: model.ParagraphMap{
			"Intro": {Name: "Intro", Content: "Hello."},
		},
	}
}

func TestBuild_ReferenceClassContext(t *testing.T) {
	c, err := testBuilder().Build(decodeNode(t, `{"type": "reference", "config": {"name": "Details", "type": "view", "context": "@CLASS Foo"}}`), "MyApp-Work")
	require.NoError(t, err)

	assert.Equal(t, model.KindReference, c.Kind)
	assert.Equal(t, "Foo", c.ClassID)
	assert.Equal(t, "Foo.Details", c.Key)
	assert.Equal(t, model.KindView, c.RefKind)
	assert.Equal(t, "Reference: Details[View]", c.DebugString)
	assert.False(t, c.IsBroken)
}

func TestBuild_ReferencePropertyContext(t *testing.T) {
	b := testBuilder()

	c, err := b.Build(decodeNode(t, `{"type": "reference", "config": {"name": "AddressDetails", "type": "view", "context": "@P .Address"}}`), "MyApp-Work")
	require.NoError(t, err)
	assert.Equal(t, "MyApp-Data-Address", c.ClassID)

	// Falls back to the parent when the property holds no classID.
	c, err = b.Build(decodeNode(t, `{"type": "reference", "config": {"name": "Other", "type": "view", "context": "@P .Notes"}}`), "MyApp-Work")
	require.NoError(t, err)
	assert.Equal(t, "MyApp-Work", c.ClassID)
}

func TestBuild_ReferenceBareContext(t *testing.T) {
	c, err := testBuilder().Build(decodeNode(t, `{"type": "reference", "config": {"name": "AddressDetails", "type": "view", "context": ".Address"}}`), "MyApp-Work")
	require.NoError(t, err)
	assert.Equal(t, "MyApp-Data-Address", c.ClassID)
	assert.Equal(t, "MyApp-Data-Address.AddressDetails", c.Key)
}

func TestBuild_BrokenReferenceDoesNotAbortSiblings(t *testing.T) {
	logger, logs := loggingtest.NewObserved(zapcore.WarnLevel)
	b := testBuilder()
	b.Logger = logger

	region := decodeNode(t, `{
		"name": "A",
		"type": "Region",
		"children": [
			{"type": "reference", "config": {"name": "Legacy", "type": "view", "context": "@BOGUS xyz"}},
			{"type": "reference", "config": {"name": "Ghost", "type": "view", "context": ".NotInContent"}},
			{"type": "TextInput", "config": {"value": "@P .FirstName", "label": "@FL .FirstName"}}
		]
	}`)
	c, err := b.Build(region, "MyApp-Work")
	require.NoError(t, err)
	require.Len(t, c.Children, 3)

	broken := c.Children[0]
	assert.True(t, broken.IsBroken)
	assert.Equal(t, "Unsupported context: @BOGUS xyz", broken.BrokenString)
	assert.Equal(t, "MyApp-Work.Legacy", broken.Key)

	assert.True(t, c.Children[1].IsBroken)

	field := c.Children[2]
	assert.False(t, field.IsBroken)
	assert.Equal(t, "MyApp-Work.FirstName", field.Key)
	assert.Equal(t, "First name", field.Label)

	assert.Equal(t, 2, logs.FilterMessage("broken reference").Len())
}

func TestBuild_ReferenceNameDereferenced(t *testing.T) {
	b := testBuilder()

	c, err := b.Build(decodeNode(t, `{"type": "reference", "config": {"name": "@P .ViewName", "type": "view"}}`), "MyApp-Work")
	require.NoError(t, err)
	assert.Equal(t, "DynamicDetails", c.Name)

	_, err = b.Build(decodeNode(t, `{"type": "reference", "config": {"name": "@P .Nope", "type": "view"}}`), "MyApp-Work")
	assert.True(t, IsLookupError(err, ErrCodeNameNotFound))
}

func TestBuild_ContainerNameFallback(t *testing.T) {
	tests := []struct {
		name string
		node string
		want string
	}{
		{"name", `{"type": "Region", "name": "A", "config": {"id": "B", "name": "C"}}`, "A"},
		{"config id", `{"type": "Group", "config": {"id": "B", "name": "C"}}`, "B"},
		{"config name", `{"type": "FlowContainer", "config": {"name": "C"}}`, "C"},
		{"empty name falls through", `{"type": "Region", "name": "", "config": {"id": "B"}}`, "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := testBuilder().Build(decodeNode(t, tt.node), "MyApp-Work")
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Name)
			assert.Equal(t, "MyApp-Work", c.ClassID)
		})
	}
}

func TestBuild_Instructions(t *testing.T) {
	b := testBuilder()

	c, err := b.Build(decodeNode(t, `{"type": "Region", "name": "A", "config": {"instructions": "@PARAGRAPH Intro"}}`), "MyApp-Work")
	require.NoError(t, err)
	assert.Equal(t, "Hello.", c.Instructions)

	c, err = b.Build(decodeNode(t, `{"type": "Region", "name": "A", "config": {"instructions": "Inline"}}`), "MyApp-Work")
	require.NoError(t, err)
	assert.Equal(t, "Inline", c.Instructions)

	c, err = b.Build(decodeNode(t, `{"type": "Region", "name": "A", "config": {"instructions": "@PARAGRAPH Missing"}}`), "MyApp-Work")
	require.NoError(t, err)
	assert.Equal(t, "@PARAGRAPH Missing", c.Instructions)
}

func TestBuild_ViewIntroducesClassScope(t *testing.T) {
	view := decodeNode(t, `{
		"name": "AddressDetails",
		"type": "View",
		"classID": "MyApp-Data-Address",
		"config": {"template": "DefaultForm"},
		"children": [
			{"name": "A", "type": "Region", "children": [
				{"type": "TextInput", "config": {"value": "@P .City", "label": "City"}}
			]}
		]
	}`)
	c, err := testBuilder().Build(view, "MyApp-Work")
	require.NoError(t, err)

	assert.Equal(t, "MyApp-Data-Address", c.ClassID)
	assert.Equal(t, model.KindDefaultForm, c.RefKind)
	assert.Equal(t, "View: AddressDetails[DefaultForm]", c.DebugString)

	field := c.Children[0].Children[0]
	assert.Equal(t, "MyApp-Data-Address", field.ClassID)
	assert.Equal(t, "MyApp-Data-Address.City", field.Key)
}

func TestBuild_ViewWithoutTemplate(t *testing.T) {
	c, err := testBuilder().Build(decodeNode(t, `{"name": "Plain", "type": "View", "classID": "MyApp-Work", "config": {}}`), "")
	require.NoError(t, err)
	assert.Equal(t, model.KindUnspecified, c.RefKind)
	assert.Equal(t, "View: Plain", c.DebugString)
}

func TestBuild_FieldNameNotDereferenced(t *testing.T) {
	c, err := testBuilder().Build(decodeNode(t, `{"type": "TextInput", "config": {"value": "@P .ViewName", "label": "@L Name"}}`), "MyApp-Work")
	require.NoError(t, err)
	assert.Equal(t, "ViewName", c.Name)
	assert.Equal(t, "Name", c.Label)
	assert.Equal(t, "TextInput: Name", c.DebugString)
}

func TestBuild_FieldCaptionFallback(t *testing.T) {
	c, err := testBuilder().Build(decodeNode(t, `{"type": "Checkbox", "config": {"value": "@P .Agree", "caption": "I agree"}}`), "MyApp-Work")
	require.NoError(t, err)
	assert.Equal(t, "I agree", c.Label)
}

func TestBuild_FieldFlagsOnlyWhenPresent(t *testing.T) {
	tests := []struct {
		name                         string
		config                       string
		disabled, readOnly, required bool
	}{
		{"absent", `{}`, false, false, false},
		{"native true", `{"disabled": true, "readOnly": true, "required": true}`, true, true, true},
		{"string true any case", `{"disabled": "TRUE", "readOnly": "True", "required": "true"}`, true, true, true},
		{"explicit false", `{"disabled": false, "readOnly": "false", "required": false}`, false, false, false},
		{"other strings", `{"required": "yes", "readOnly": "1"}`, false, false, false},
		{"numbers", `{"required": 1}`, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := decodeNode(t, `{"type": "TextInput", "config": {"value": "@P .FirstName", "label": "x"}}`)
			for k, v := range decodeNode(t, tt.config) {
				node["config"].(map[string]any)[k] = v
			}
			c, err := testBuilder().Build(node, "MyApp-Work")
			require.NoError(t, err)
			assert.Equal(t, tt.disabled, c.IsDisabled, "disabled")
			assert.Equal(t, tt.readOnly, c.IsReadOnly, "readOnly")
			assert.Equal(t, tt.required, c.IsRequired, "required")
		})
	}
}

func TestBuild_FieldDatasourceOptions(t *testing.T) {
	node := decodeNode(t, `{"type": "RadioButtons", "config": {
		"value": "@P .Size",
		"label": "Size",
		"datasource": {"records": [{"key": "S", "value": "Small"}, {"key": "L", "value": "Large"}]}
	}}`)
	c, err := testBuilder().Build(node, "MyApp-Work")
	require.NoError(t, err)

	require.Len(t, c.Options, 2)
	assert.Equal(t, "Small", c.Options[0].Label)
	assert.Equal(t, "L", c.Options[1].Key)
	assert.Empty(t, c.Children)
}

func TestBuild_UnknownKind(t *testing.T) {
	logger, logs := loggingtest.NewObserved(zapcore.DebugLevel)
	b := testBuilder()
	b.Logger = logger

	c, err := b.Build(decodeNode(t, `{"type": "Signature", "config": {}}`), "MyApp-Work")
	require.NoError(t, err)
	assert.Equal(t, model.KindUnknown, c.Kind)
	assert.Equal(t, "Signature", c.Name)
	assert.Equal(t, "MyApp-Work.Signature", c.Key)
	assert.Equal(t, "Unknown: Signature", c.DebugString)
	assert.Equal(t, 1, logs.FilterMessage("unknown component type").Len())
}

func TestBuild_ConstructionFailures(t *testing.T) {
	tests := []struct {
		name   string
		node   string
		parent string
		reason string
	}{
		{"region without name", `{"type": "Region", "config": {}}`, "MyApp-Work", "missing name"},
		{"view without classID", `{"type": "View", "name": "Orphan", "config": {}}`, "MyApp-Work", "missing classID"},
		{"field without parent class", `{"type": "TextInput", "config": {"value": "@P .X"}}`, "", "missing classID"},
		{"unspecified type", `{"type": "Unspecified", "name": "X"}`, "MyApp-Work", "unspecified type"},
		{"template as node", `{"type": "DefaultForm", "name": "X"}`, "MyApp-Work", "missing name"},
		{"missing type", `{"config": {"name": "X"}}`, "", "missing classID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := decodeNode(t, tt.node)
			_, err := testBuilder().Build(node, tt.parent)
			require.Error(t, err)

			var ce *ConstructError
			require.True(t, errors.As(err, &ce))
			assert.Contains(t, ce.Reason, tt.reason)
			assert.Equal(t, model.IndentJSON(node), ce.JSON)
			assert.Contains(t, err.Error(), ce.JSON)
		})
	}
}

func TestBuild_ChildFailureAbortsBuild(t *testing.T) {
	node := decodeNode(t, `{"type": "Region", "name": "A", "children": [
		{"type": "TextInput", "config": {"value": "@P .Ok", "label": "Ok"}},
		{"type": "Region", "config": {}}
	]}`)
	_, err := testBuilder().Build(node, "MyApp-Work")
	var ce *ConstructError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, model.KindRegion, ce.Kind)
}

func TestBuild_NonObjectNode(t *testing.T) {
	_, err := testBuilder().Build("not a node", "MyApp-Work")
	var ce *ConstructError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, `"not a node"`, ce.JSON)
}

func TestBuild_ChildrenInDocumentOrder(t *testing.T) {
	node := decodeNode(t, `{"type": "Region", "name": "A", "children": [
		{"type": "TextInput", "config": {"value": "@P .C", "label": "c"}},
		{"type": "TextInput", "config": {"value": "@P .A", "label": "a"}},
		{"type": "TextInput", "config": {"value": "@P .B", "label": "b"}}
	]}`)
	c, err := testBuilder().Build(node, "MyApp-Work")
	require.NoError(t, err)

	var names []string
	for _, child := range c.Children {
		names = append(names, child.Name)
	}
	assert.Equal(t, []string{"C", "A", "B"}, names)
}

func TestBuild_DoesNotMutateCatalogs(t *testing.T) {
	b := testBuilder()
	before := b.Content.Clone()
	fieldsBefore := len(b.Fields)

	_, err := b.Build(decodeNode(t, `{"type": "Dropdown", "config": {"value": "@P .FirstName", "label": "@FL .FirstName", "datasource": "@ASSOCIATED .FirstName"}}`), "MyApp-Work")
	require.NoError(t, err)
	assert.Equal(t, before, b.Content)
	assert.Len(t, b.Fields, fieldsBefore)
}
