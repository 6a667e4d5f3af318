package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/dxexplorer/internal/logging"
	"github.com/roach88/dxexplorer/internal/model"
)

// Builder converts component-description JSON nodes into components.
//
// The catalogs are read-only during a build; the builder never mutates them.
type Builder struct {
	Content    model.Content
	Fields     model.FieldMap
	Paragraphs model.ParagraphMap
	Logger     *logging.Logger
}

// Build recursively makes a component and its children from a DX API JSON
// node. parentClassID is the resolved classID of the enclosing component.
//
// Broken references are returned as components with IsBroken set. A node
// that resolves to no name, no classID, or an unspecified kind fails with a
// *ConstructError carrying the node's JSON.
func (b *Builder) Build(node any, parentClassID string) (*model.Component, error) {
	obj, ok := node.(map[string]any)
	if !ok {
		return nil, &ConstructError{
			Kind:   model.KindUnspecified,
			Reason: fmt.Sprintf("node is %T, not an object", node),
			JSON:   model.IndentJSON(node),
		}
	}
	return b.build(obj, parentClassID)
}

func (b *Builder) build(node map[string]any, parentClassID string) (*model.Component, error) {
	log := logging.OrNop(b.Logger)
	rawType := model.Stringify(node["type"])

	c := &model.Component{
		JSON: model.IndentJSON(node),
		Kind: model.KindOf(rawType),
	}
	cfg := object(node, "config")

	var err error
	switch c.Kind {
	case model.KindUnknown:
		c.ClassID = parentClassID
		c.Name = rawType
		c.DebugString = debugString(c.Kind, c.Name, model.KindUnspecified)
		log.Debug("unknown component type", "type", rawType, "class_id", c.ClassID)

	case model.KindReference:
		c.ClassID = parentClassID
		c.Name, err = ResolveName(model.Stringify(cfg["name"]), b.Content, c.ClassID, true)
		if err != nil {
			return nil, err
		}
		c.RefKind = model.KindOf(model.Stringify(cfg["type"]))
		if ctx := model.Stringify(cfg["context"]); ctx != "" {
			b.applyContext(c, ctx, parentClassID)
			if c.IsBroken {
				log.Warn("broken reference", "name", c.Name, "reason", c.BrokenString)
			}
		}
		c.DebugString = debugString(c.Kind, c.Name, c.RefKind)

	case model.KindRegion, model.KindGroup, model.KindFlowContainer:
		c.ClassID = parentClassID
		raw := firstString(node, "name")
		if raw == "" {
			raw = firstString(cfg, "id", "name")
		}
		c.Name, err = ResolveName(raw, b.Content, c.ClassID, true)
		if err != nil {
			return nil, err
		}
		b.applyInstructions(c, cfg)
		c.DebugString = debugString(c.Kind, c.Name, model.KindUnspecified)

	case model.KindView:
		// Views introduce their own class scope.
		c.ClassID = model.Stringify(node["classID"])
		c.Name, err = ResolveName(model.Stringify(node["name"]), b.Content, c.ClassID, true)
		if err != nil {
			return nil, err
		}
		// Views usually, but not always, specify a template.
		if tmpl, ok := cfg["template"]; ok && truthy(tmpl) {
			c.RefKind = model.KindOf(model.Stringify(tmpl))
		}
		b.applyInstructions(c, cfg)
		c.DebugString = debugString(c.Kind, c.Name, c.RefKind)

	case model.KindTextArea, model.KindTextInput, model.KindInteger, model.KindEmail,
		model.KindPhone, model.KindCheckbox, model.KindDate, model.KindDropdown,
		model.KindRadioButtons, model.KindURL, model.KindAttachment:
		c.ClassID = parentClassID
		// The raw property path is the field's logical name, never its value.
		c.Name, err = ResolveName(model.Stringify(cfg["value"]), b.Content, c.ClassID, false)
		if err != nil {
			return nil, err
		}
		c.Label = ResolveLabel(firstString(cfg, "label", "caption"), b.Fields, c.ClassID)

		// Optional flags are only assigned when present.
		if v, ok := cfg["disabled"]; ok && truthy(v) {
			c.IsDisabled = toBool(v)
		}
		if v, ok := cfg["readOnly"]; ok && truthy(v) {
			c.IsReadOnly = toBool(v)
		}
		if v, ok := cfg["required"]; ok && truthy(v) {
			c.IsRequired = toBool(v)
		}
		if ds, ok := cfg["datasource"]; ok && truthy(ds) {
			c.Options = ResolveDatasource(ds, b.Fields, c.ClassID)
		}
		c.DebugString = debugString(c.Kind, c.Label, model.KindUnspecified)

	case model.KindUnspecified, model.KindDefaultForm:
		// Not valid as a node type; left unnamed so the checks below reject it.
	}

	if reason := missing(c); reason != "" {
		return nil, &ConstructError{
			Kind:    c.Kind,
			Name:    c.Name,
			ClassID: c.ClassID,
			Reason:  reason,
			JSON:    c.JSON,
		}
	}
	c.Key = model.MakeKey(c.ClassID, c.Name)

	if children, ok := node["children"].([]any); ok {
		for _, child := range children {
			cc, err := b.Build(child, c.ClassID)
			if err != nil {
				return nil, err
			}
			c.Children = append(c.Children, cc)
		}
	}

	return c, nil
}

// applyContext resolves a reference's context attribute into its classID.
//
// Supported forms, in priority order:
//
//	"@CLASS The-Class-Name" : classID is The-Class-Name
//	"@P .Property"          : classID of content[Property], else the parent's
//	".Property"             : classID of content[Property], if that key exists
//
// Anything else marks the reference broken.
func (b *Builder) applyContext(c *model.Component, ctx, parentClassID string) {
	switch {
	case strings.HasPrefix(ctx, sigilClass):
		// "@CLASS The-Class-Name"
		//  0123456789
		//         ^ start here
		c.ClassID = from(ctx, 7)
	case strings.HasPrefix(ctx, sigilProperty):
		// "@P .Property"
		//  012345
		//      ^ start here
		c.ClassID = parentClassID
		if obj, ok := b.Content.Object(from(ctx, 4)); ok {
			if id := model.Stringify(obj[model.ClassIDKey]); id != "" {
				c.ClassID = id
			}
		}
	default:
		name := from(ctx, 1)
		if _, ok := b.Content[name]; ok {
			c.ClassID = ""
			if obj, ok := b.Content.Object(name); ok {
				c.ClassID = model.Stringify(obj[model.ClassIDKey])
			}
			return
		}
		c.IsBroken = true
		c.BrokenString = fmt.Sprintf("Unsupported context: %s", ctx)
	}
}

// applyInstructions resolves optional config.instructions.
func (b *Builder) applyInstructions(c *model.Component, cfg map[string]any) {
	raw, ok := cfg["instructions"]
	if !ok || !truthy(raw) {
		return
	}
	text, resolved := ResolveInstructions(model.Stringify(raw), b.Paragraphs)
	if !resolved {
		logging.OrNop(b.Logger).Warn("paragraph not found", "instructions", text, "component", c.Name)
	}
	c.Instructions = text
}

// missing reports why a component fails its construction invariant, or "".
func missing(c *model.Component) string {
	var reasons []string
	if c.Name == "" {
		reasons = append(reasons, "missing name")
	}
	if c.ClassID == "" {
		reasons = append(reasons, "missing classID")
	}
	if c.Kind == model.KindUnspecified {
		reasons = append(reasons, "unspecified type")
	}
	return strings.Join(reasons, ", ")
}

// debugString produces "Type: Name" or "Type: Name[RefType]".
func debugString(kind model.Kind, name string, ref model.Kind) string {
	if ref != model.KindUnspecified {
		return fmt.Sprintf("%s: %s[%s]", kind, name, ref)
	}
	return fmt.Sprintf("%s: %s", kind, name)
}
