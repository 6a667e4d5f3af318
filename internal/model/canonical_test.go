package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": "2", "a": "1", "c": map[string]any{"z": true, "y": nil}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"1","b":"2","c":{"y":null,"z":true}}`, string(got))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	got, err := MarshalCanonical("<a & b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(got))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9.
	decomposed, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	composed, err := MarshalCanonical("\u00e9")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalNumbers(t *testing.T) {
	got, err := MarshalCanonical([]any{json.Number("12.50"), int64(3), 1.5})
	require.NoError(t, err)
	assert.Equal(t, `[12.50,3,1.5]`, string(got))
}

func TestMarshalCanonicalUnsupported(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestResponseHashIgnoresFormatting(t *testing.T) {
	a := ResponseHash([]byte(`{"data":{"b":1,"a":2}}`))
	b := ResponseHash([]byte("{\n  \"data\": {\"a\": 2, \"b\": 1}\n}"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c := ResponseHash([]byte(`not json`))
	assert.NotEqual(t, a, c)
}

func TestCallIDStable(t *testing.T) {
	id1, err := CallID("s1", 1, "GET", "/casetypes", `{"caseTypes":[]}`)
	require.NoError(t, err)
	id2, err := CallID("s1", 1, "GET", "/casetypes", `{"caseTypes": []}`)
	require.NoError(t, err)
	id3, err := CallID("s1", 2, "GET", "/casetypes", `{"caseTypes":[]}`)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "x", Stringify("x"))
	assert.Equal(t, "42", Stringify(json.Number("42")))
	assert.Equal(t, "1.25", Stringify(1.25))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, `{"a":"b"}`, Stringify(map[string]any{"a": "b"}))
}

func TestContentClassIDAndStrings(t *testing.T) {
	c := Content{"classID": "MyApp-Work", "Status": "New", "Nested": map[string]any{"classID": "X"}}

	id, ok := c.ClassID()
	assert.True(t, ok)
	assert.Equal(t, "MyApp-Work", id)

	_, ok = Content{}.ClassID()
	assert.False(t, ok)

	flat := c.Strings()
	assert.Equal(t, map[string]string{"classID": "MyApp-Work", "Status": "New"}, flat)

	obj, ok := c.Object("Nested")
	require.True(t, ok)
	assert.Equal(t, "X", obj["classID"])
}
