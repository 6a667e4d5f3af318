package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/dxexplorer/internal/logging"
	"github.com/roach88/dxexplorer/internal/model"
)

// Root descriptor values accepted by ParseResponse.
const (
	RootContext = "caseInfo.content"
	RootType    = "view"
)

// ParseOptions carries the navigation state in effect before the parse.
// Auto-advance may move it forward; otherwise it is returned unchanged.
type ParseOptions struct {
	Logger           *logging.Logger
	Status           model.Status
	OpenAssignmentID string
	OpenActionID     string
}

// Response is one fully compiled DX API response.
//
// It is built into fresh structures and only returned on success, so a
// caller that keeps its previous *Response on error never observes a
// partial rebuild.
type Response struct {
	CaseInfo *model.CaseInfo
	Content  model.Content

	// HasResources is false when the body carried no uiResources section.
	// Fields, Paragraphs and Components are then empty and RootKey is "".
	HasResources bool
	Fields       model.FieldMap
	Paragraphs   model.ParagraphMap
	Components   model.ComponentMap
	RootKey      string

	ActionButtons model.ActionButtons

	Status           model.Status
	OpenAssignmentID string
	OpenActionID     string
}

// Root returns the root component, or nil when the graph does not contain it.
func (r *Response) Root() *model.Component {
	if r == nil || r.Components == nil {
		return nil
	}
	return r.Components[r.RootKey]
}

// ParseResponse compiles a DX API response body.
//
// https://docs.pega.com/bundle/dx-api/page/platform/dx-api/understand-dx-api-response.html
func ParseResponse(body []byte, opts ParseOptions) (*Response, error) {
	log := logging.OrNop(opts.Logger)

	raw, err := model.DecodeJSON(body)
	if err != nil {
		return nil, &ParseError{Section: "body", Err: err}
	}
	root, ok := raw.(map[string]any)
	if !ok {
		return nil, &ParseError{Section: "body", Err: fmt.Errorf("top level is %T, not an object", raw)}
	}
	info, ok := object(root, "data")["caseInfo"].(map[string]any)
	if !ok {
		return nil, &ParseError{Section: "data.caseInfo", Err: errors.New("missing")}
	}

	resp := &Response{
		Fields:           make(model.FieldMap),
		Paragraphs:       make(model.ParagraphMap),
		Components:       make(model.ComponentMap),
		Status:           opts.Status,
		OpenAssignmentID: opts.OpenAssignmentID,
		OpenActionID:     opts.OpenActionID,
	}

	resp.CaseInfo = parseCaseInfo(info)
	resp.Content = resp.CaseInfo.Content
	resp.autoAdvance()

	ui, ok := root["uiResources"].(map[string]any)
	if !ok {
		log.Debug("response has no uiResources", "case", resp.CaseInfo.ID)
		return resp, nil
	}
	resp.HasResources = true
	resources := object(ui, "resources")

	resp.parseFields(object(resources, "fields"), log)
	resp.parseParagraphs(object(resources, "paragraphs"))
	if err := resp.parseViews(object(resources, "views"), log); err != nil {
		return nil, err
	}
	if err := resp.parseRoot(object(ui, "root")); err != nil {
		return nil, err
	}
	resp.ActionButtons = parseActionButtons(object(ui, "actionButtons"))

	log.Debug("parsed response",
		"case", resp.CaseInfo.ID,
		"fields", len(resp.Fields),
		"paragraphs", len(resp.Paragraphs),
		"components", len(resp.Components),
		"root", resp.RootKey,
		"status", resp.Status.String())
	return resp, nil
}

func parseCaseInfo(info map[string]any) *model.CaseInfo {
	ci := model.NewCaseInfo()
	ci.ID = model.Stringify(info["ID"])
	ci.BusinessID = model.Stringify(info["businessID"])
	ci.Type.ID = model.Stringify(info["caseTypeID"])
	ci.Type.Name = model.Stringify(info["caseTypeName"])
	ci.CreateTime = model.Stringify(info["createTime"])
	ci.CreatedBy = model.Stringify(info["createdBy"])
	ci.LastUpdateTime = model.Stringify(info["lastUpdateTime"])
	ci.LastUpdatedBy = model.Stringify(info["lastUpdatedBy"])
	ci.Name = model.Stringify(info["name"])
	ci.Owner = model.Stringify(info["owner"])
	ci.Status = model.Stringify(info["status"])

	assignments, _ := info["assignments"].([]any)
	for _, a := range assignments {
		aj, ok := a.(map[string]any)
		if !ok {
			continue
		}
		assignment := model.NewAssignment(model.Stringify(aj["ID"]))
		assignment.Name = model.Stringify(aj["name"])
		assignment.CanPerform = toBool(aj["canPerform"])

		actions, _ := aj["actions"].([]any)
		for _, act := range actions {
			actj, ok := act.(map[string]any)
			if !ok {
				continue
			}
			assignment.AddAction(&model.Action{
				ID:   model.Stringify(actj["ID"]),
				Name: model.Stringify(actj["name"]),
				Type: model.Stringify(actj["type"]),
			})
		}
		ci.AddAssignment(assignment)
	}

	for k, v := range object(info, "content") {
		ci.Content[k] = v
	}
	return ci
}

// autoAdvance opens the sole assignment, and its sole action, when the
// response leaves no choice.
func (r *Response) autoAdvance() {
	if len(r.CaseInfo.AssignmentIDs) != 1 {
		return
	}
	r.OpenAssignmentID = r.CaseInfo.AssignmentIDs[0]
	r.Status = model.StatusOpenAssignment

	assignment := r.CaseInfo.Assignments[r.OpenAssignmentID]
	if len(assignment.ActionIDs) != 1 {
		return
	}
	r.OpenActionID = assignment.ActionIDs[0]
	r.Status = model.StatusOpenAction
}

func (r *Response) parseFields(fields map[string]any, log *logging.Logger) {
	for _, id := range model.SortedKeys(fields) {
		entries, _ := fields[id].([]any)
		for _, e := range entries {
			value, ok := e.(map[string]any)
			if !ok {
				continue
			}
			f := &model.Field{
				ID:   id,
				JSON: model.IndentJSON(value),
				Type: model.Stringify(value["type"]),
			}
			// Malformed entries arrive with type "Unknown".
			if strings.EqualFold(f.Type, "unknown") {
				log.Debug("skipping field of unknown type", "field", id)
				continue
			}
			f.ClassID = model.Stringify(value["classID"])

			if v, ok := value["label"]; ok && truthy(v) {
				f.Label = model.Stringify(v)
			}
			if v, ok := value["isSpecial"]; ok && truthy(v) {
				f.IsSpecial = toBool(v)
			}
			if v, ok := value["isClassKey"]; ok && truthy(v) {
				f.IsClassKey = toBool(v)
			}

			// Non-strict lookups never fail.
			f.Data, _ = LookupContent(r.Content, f.ClassID, f.ID, false)
			r.Fields[f.Key()] = f
		}
	}
}

func (r *Response) parseParagraphs(paragraphs map[string]any) {
	for name, v := range paragraphs {
		entries, _ := v.([]any)
		if len(entries) == 0 {
			continue
		}
		pj, ok := entries[0].(map[string]any)
		if !ok {
			continue
		}
		r.Paragraphs[name] = &model.Paragraph{
			ClassID: model.Stringify(pj["classID"]),
			Name:    model.Stringify(pj["name"]),
			Content: model.Stringify(pj["content"]),
		}
	}
}

func (r *Response) parseViews(views map[string]any, log *logging.Logger) error {
	b := &Builder{
		Content:    r.Content,
		Fields:     r.Fields,
		Paragraphs: r.Paragraphs,
		Logger:     log,
	}
	for _, name := range model.SortedKeys(views) {
		entries, _ := views[name].([]any)
		for _, v := range entries {
			c, err := b.Build(v, "")
			if err != nil {
				return fmt.Errorf("view %s: %w", name, err)
			}
			r.Components[c.Key] = c
		}
	}
	return nil
}

func (r *Response) parseRoot(root map[string]any) error {
	cfg := object(root, "config")

	if context := model.Stringify(cfg["context"]); context != RootContext {
		return &RootError{Field: "context", Value: context}
	}
	if typ := model.Stringify(cfg["type"]); typ != RootType {
		return &RootError{Field: "type", Value: typ}
	}
	classID, _ := r.Content.ClassID()
	r.RootKey = model.MakeKey(classID, model.Stringify(cfg["name"]))
	return nil
}

func parseActionButtons(buttons map[string]any) model.ActionButtons {
	return model.ActionButtons{
		Main:      parseButtonList(buttons["main"]),
		Secondary: parseButtonList(buttons["secondary"]),
	}
}

func parseButtonList(v any) []model.ActionButton {
	list, _ := v.([]any)
	out := make([]model.ActionButton, 0, len(list))
	for _, b := range list {
		bj, ok := b.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, model.ActionButton{
			JSAction: model.Stringify(bj["jsAction"]),
			Name:     model.Stringify(bj["name"]),
			ActionID: model.Stringify(bj["actionID"]),
		})
	}
	return out
}

// ParseCaseTypes extracts the case types from a GET /casetypes body. ok is
// false when the body has no caseTypes entry, which the server returns for
// applications that are not Constellation compatible.
func ParseCaseTypes(body []byte) (types []model.CaseType, ok bool, err error) {
	raw, err := model.DecodeJSON(body)
	if err != nil {
		return nil, false, &ParseError{Section: "body", Err: err}
	}
	root, isObj := raw.(map[string]any)
	if !isObj {
		return nil, false, &ParseError{Section: "body", Err: fmt.Errorf("top level is %T, not an object", raw)}
	}
	v, present := root["caseTypes"]
	if !present || !truthy(v) {
		return []model.CaseType{}, false, nil
	}

	types = []model.CaseType{}
	add := func(item any) {
		if obj, isObj := item.(map[string]any); isObj {
			types = append(types, model.CaseType{
				ID:   model.Stringify(obj["ID"]),
				Name: model.Stringify(obj["name"]),
			})
		}
	}
	switch list := v.(type) {
	case []any:
		for _, item := range list {
			add(item)
		}
	case map[string]any:
		for _, k := range model.SortedKeys(list) {
			add(list[k])
		}
	}
	return types, true, nil
}
