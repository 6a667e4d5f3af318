package visibility

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/roach88/dxexplorer/internal/logging"
	"github.com/roach88/dxexplorer/internal/model"
)

// Condition prefixes.
const (
	PrefixWhen = "@W"
	PrefixExpr = "@E"
)

// WhenConditionsKey is the content entry holding server-evaluated when rules.
const WhenConditionsKey = "summary_of_when_conditions__"

// Evaluator compiles predicate trees to CEL programs and caches them by
// their CEL source. It is safe for concurrent use.
type Evaluator struct {
	env    *cel.Env
	cache  sync.Map // CEL source → cel.Program
	Logger *logging.Logger
}

// NewEvaluator builds the CEL environment.
func NewEvaluator(logger *logging.Logger) (*Evaluator, error) {
	env, err := cel.NewEnv(cel.Variable("content", cel.MapType(cel.StringType, cel.StringType)))
	if err != nil {
		return nil, fmt.Errorf("visibility: create CEL env: %w", err)
	}
	return &Evaluator{env: env, Logger: logger}, nil
}

func (ev *Evaluator) program(e Expr) (cel.Program, error) {
	src := CEL(e)
	if cached, ok := ev.cache.Load(src); ok {
		return cached.(cel.Program), nil
	}
	ast, issues := ev.env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.New("expression output type mismatch")
	}
	program, err := ev.env.Program(ast)
	if err != nil {
		return nil, err
	}
	ev.cache.Store(src, program)
	return program, nil
}

// Eval evaluates e against the string view of the content.
func (ev *Evaluator) Eval(e Expr, content map[string]string) (bool, error) {
	program, err := ev.program(e)
	if err != nil {
		return false, err
	}
	if content == nil {
		content = map[string]string{}
	}
	out, _, err := program.Eval(map[string]any{"content": content})
	if err != nil {
		return false, err
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression produced %T, not bool", out.Value())
	}
	return v, nil
}

// Condition returns the raw config.visibility attribute of c, or nil.
func Condition(c *model.Component) any {
	if c == nil || c.JSON == "" {
		return nil
	}
	raw, err := model.DecodeJSON([]byte(c.JSON))
	if err != nil {
		return nil
	}
	node, _ := raw.(map[string]any)
	cfg, _ := node["config"].(map[string]any)
	return cfg["visibility"]
}

// Visible decides whether c should be shown given the case content.
//
//	true / false  : as given
//	"@W Name"     : content[summary_of_when_conditions__][Name]; absent is false
//	"@E expr"     : the parsed expression; unparseable expressions are visible
//	anything else : visible
func (ev *Evaluator) Visible(c *model.Component, content model.Content) bool {
	switch v := Condition(c).(type) {
	case bool:
		return v
	case string:
		switch {
		case strings.HasPrefix(v, PrefixWhen):
			return when(content, strings.TrimSpace(strings.TrimPrefix(v, PrefixWhen)))
		case strings.HasPrefix(v, PrefixExpr):
			src := strings.TrimSpace(strings.TrimPrefix(v, PrefixExpr))
			ok, err := ev.EvalString(src, content)
			if err != nil {
				logging.OrNop(ev.Logger).Warn("visibility expression not evaluated",
					"component", c.Key, "expression", src, "error", err)
				return true
			}
			return ok
		}
	}
	return true
}

// EvalString parses and evaluates one expression.
func (ev *Evaluator) EvalString(src string, content model.Content) (bool, error) {
	e, err := Parse(src)
	if err != nil {
		return false, err
	}
	return ev.Eval(e, content.Strings())
}

func when(content model.Content, name string) bool {
	conditions, ok := content.Object(WhenConditionsKey)
	if !ok {
		return false
	}
	switch v := conditions[name].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}
