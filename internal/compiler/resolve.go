package compiler

import (
	"strings"

	"github.com/roach88/dxexplorer/internal/model"
)

// Sigils recognized in raw string attributes.
const (
	sigilProperty   = "@P"
	sigilLabel      = "@L"
	sigilFieldLabel = "@FL"
	sigilParagraph  = "@PARAGRAPH"
	sigilAssociated = "@ASSOCIATED"
	sigilClass      = "@CLASS"
)

// maxDatasourceDepth bounds @ASSOCIATED chains that point at each other.
const maxDatasourceDepth = 8

// from returns s[i:], or "" when s is shorter than i.
func from(s string, i int) string {
	if len(s) < i {
		return ""
	}
	return s[i:]
}

// LookupContent returns the value of name in the content store.
//
// In strict mode a missing classID, a classID other than classID, or a
// missing name each fail with a distinct *LookupError. Otherwise all three
// yield "".
func LookupContent(content model.Content, classID, name string, strict bool) (string, error) {
	contentClassID, ok := content.ClassID()
	if !ok {
		if strict {
			return "", &LookupError{Code: ErrCodeMissingClassID, ClassID: classID, Name: name}
		}
		return "", nil
	}
	if contentClassID != classID {
		if strict {
			return "", &LookupError{Code: ErrCodeClassMismatch, ClassID: classID, Name: name, ContentClassID: contentClassID}
		}
		return "", nil
	}
	v, ok := content[name]
	if !ok {
		if strict {
			return "", &LookupError{Code: ErrCodeNameNotFound, ClassID: classID, Name: name, ContentClassID: contentClassID}
		}
		return "", nil
	}
	return model.Stringify(v), nil
}

// ResolveName interprets a DX API name property:
//
//	"@P .Blah"  : "Blah" when dereference is false, else the content value of "Blah"
//	"Blah Blah" : "Blah Blah"
//
// Dereferencing uses a strict lookup, so a missing value is an error.
func ResolveName(raw string, content model.Content, classID string, dereference bool) (string, error) {
	if !strings.HasPrefix(raw, sigilProperty) {
		return raw, nil
	}
	// "@P .Blah"
	//  01234567
	//      ^ start here
	name := from(raw, 4)
	if !dereference {
		return name, nil
	}
	return LookupContent(content, classID, name, true)
}

// ResolveLabel interprets a DX API label property:
//
//	"@L Blah"        : "Blah"
//	"@FL .BlahBlah"  : the label of field classID.BlahBlah, or the raw string if unknown
//	"Blah Blah Blah" : "Blah Blah Blah"
func ResolveLabel(raw string, fields model.FieldMap, classID string) string {
	switch {
	case strings.HasPrefix(raw, sigilLabel):
		// "@L Blah"
		//  0123456
		//     ^ start here
		return from(raw, 3)
	case strings.HasPrefix(raw, sigilFieldLabel):
		// "@FL .Blah"
		//  012345678
		//       ^ start here
		if f, ok := fields[model.MakeKey(classID, from(raw, 5))]; ok && f.Label != "" {
			return f.Label
		}
	}
	return raw
}

// ResolveInstructions replaces "@PARAGRAPH Name" with the paragraph's content.
// A paragraph missing from the catalog leaves the raw string; ok reports
// whether the string was a paragraph reference that resolved.
func ResolveInstructions(raw string, paragraphs model.ParagraphMap) (resolved string, ok bool) {
	if !strings.HasPrefix(raw, sigilParagraph) {
		return raw, true
	}
	// "@PARAGRAPH AccountDetails"
	//  0123456789012
	//             ^ start here
	if p, found := paragraphs[from(raw, 11)]; found {
		return p.Content, true
	}
	return raw, false
}

// ResolveDatasource expands a field's datasource into option components.
//
// "@ASSOCIATED .Name" follows the datasource of field classID.Name. An object
// with a "records" list maps each {key, value} record to an option with
// Label=value and Key=key. Any other shape yields no options.
func ResolveDatasource(ds any, fields model.FieldMap, classID string) []*model.Component {
	return resolveDatasource(ds, fields, classID, 0)
}

func resolveDatasource(ds any, fields model.FieldMap, classID string, depth int) []*model.Component {
	if depth > maxDatasourceDepth {
		return nil
	}
	switch v := ds.(type) {
	case string:
		if !strings.HasPrefix(v, sigilAssociated) {
			return nil
		}
		// "@ASSOCIATED .Gender"
		//  0123456789012
		//              ^ start here
		f, ok := fields[classID+from(v, 12)]
		if !ok {
			return nil
		}
		raw, err := model.DecodeJSON([]byte(f.JSON))
		if err != nil {
			return nil
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil
		}
		return resolveDatasource(obj["datasource"], fields, classID, depth+1)
	case map[string]any:
		records, ok := v["records"].([]any)
		if !ok {
			return nil
		}
		options := make([]*model.Component, 0, len(records))
		for _, r := range records {
			rec, ok := r.(map[string]any)
			if !ok {
				continue
			}
			options = append(options, &model.Component{
				Label: model.Stringify(rec["value"]),
				Key:   model.Stringify(rec["key"]),
			})
		}
		return options
	}
	return nil
}

// toBool extracts a boolean from a JSON value: native true, or the string
// "true" in any case. Everything else is false.
func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}

// truthy reports whether a JSON attribute is present with a non-empty value.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	if n, ok := v.(interface{ String() string }); ok {
		s := n.String()
		return s != "" && s != "0"
	}
	return true
}

// firstString returns the first attribute among keys holding a non-empty value.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && truthy(v) {
			return model.Stringify(v)
		}
	}
	return ""
}

// object returns m[key] as an object, or an empty one.
func object(m map[string]any, key string) map[string]any {
	if obj, ok := m[key].(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}
