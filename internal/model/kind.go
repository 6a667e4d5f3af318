package model

import (
	"fmt"

	"golang.org/x/text/cases"
)

// Kind identifies a component type from the closed set we model.
//
// Component types: https://docs.pega.com/bundle/constellation-sdk/page/constellation-sdks/sdks/using-dx-component-builder.html
type Kind int

const (
	KindUnspecified Kind = iota
	KindUnknown

	// Infrastructure
	KindReference
	KindRegion
	KindView
	KindGroup
	KindFlowContainer

	// Fields
	KindTextArea
	KindTextInput
	KindInteger
	KindEmail
	KindPhone
	KindCheckbox
	KindDate
	KindDropdown
	KindRadioButtons
	KindURL

	// Templates
	KindDefaultForm

	// Widgets
	KindAttachment

	kindCount
)

// kindStrings holds the wire names as they appear in DX API responses.
// Index i is the name of Kind(i).
var kindStrings = [...]string{
	"Unspecified",
	"Unknown",
	"Reference",
	"Region",
	"View",
	"Group",
	"FlowContainer",
	"TextArea",
	"TextInput",
	"Integer",
	"Email",
	"Phone",
	"Checkbox",
	"Date",
	"Dropdown",
	"RadioButtons",
	"URL",
	"DefaultForm",
	"Attachment",
}

// Compile-time check that the table and the enum have the same length.
var (
	_ [len(kindStrings) - int(kindCount)]struct{}
	_ [int(kindCount) - len(kindStrings)]struct{}
)

// kindByFolded maps case-folded wire names to kinds.
var kindByFolded = func() map[string]Kind {
	m := make(map[string]Kind, len(kindStrings))
	for i, s := range kindStrings {
		m[fold(s)] = Kind(i)
	}
	return m
}()

// fold returns the Unicode case-folded form of s.
// A Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindStrings[k]
}

// KindOf returns the kind whose wire name matches s, ignoring case.
// Unrecognized names map to KindUnknown, never to an error.
func KindOf(s string) Kind {
	if k, ok := kindByFolded[fold(s)]; ok {
		return k
	}
	return KindUnknown
}

// Kinds returns every kind in ordinal order, excluding the count sentinel.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := KindUnspecified; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// IsField reports whether components of this kind bind to a field.
func (k Kind) IsField() bool {
	switch k {
	case KindTextArea, KindTextInput, KindInteger, KindEmail, KindPhone,
		KindCheckbox, KindDate, KindDropdown, KindRadioButtons, KindURL,
		KindAttachment:
		return true
	}
	return false
}
