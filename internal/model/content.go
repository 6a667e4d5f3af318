package model

import (
	"encoding/json"
	"strconv"
)

// ClassIDKey is the content entry naming the class that owns the case data.
const ClassIDKey = "classID"

// Content is the flat case-data store from caseInfo.content.
//
// Values are strings, numbers, booleans or nested objects exactly as decoded
// from the response.
//
// https://docs.pega.com/bundle/dx-api/page/platform/dx-api/understand-dx-api-response.html
type Content map[string]any

// ClassID returns the classID entry and whether it is present.
func (c Content) ClassID() (string, bool) {
	v, ok := c[ClassIDKey]
	if !ok {
		return "", false
	}
	return Stringify(v), true
}

// Object returns the nested object stored under name, if any.
func (c Content) Object(name string) (map[string]any, bool) {
	obj, ok := c[name].(map[string]any)
	return obj, ok
}

// Strings flattens the content into string values. Nested objects are
// skipped; they are addressed through their own classID.
func (c Content) Strings() map[string]string {
	out := make(map[string]string, len(c))
	for k, v := range c {
		switch v.(type) {
		case map[string]any, []any:
			continue
		}
		out[k] = Stringify(v)
	}
	return out
}

// Clone returns a shallow copy.
func (c Content) Clone() Content {
	out := make(Content, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Stringify renders a decoded JSON value as the string a field binds to.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := MarshalCanonical(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
