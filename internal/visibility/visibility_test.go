package visibility

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/dxexplorer/internal/logging/loggingtest"
	"github.com/roach88/dxexplorer/internal/model"
)

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	ev, err := NewEvaluator(nil)
	require.NoError(t, err)
	return ev
}

func TestParse_Tree(t *testing.T) {
	tests := []struct {
		input string
		want  Expr
	}{
		{".Status == 'Open'", Equals{Field{"Status"}, Str{"Open"}}},
		{`.Status != "Open"`, NotEquals{Field{"Status"}, Str{"Open"}}},
		{".Status === 'Open'", Equals{Field{"Status"}, Str{"Open"}}},
		{".Count !== 0", NotEquals{Field{"Count"}, Str{"0"}}},
		{".Flag", Truthy{Field{"Flag"}}},
		{"true", Literal{true}},
		{"!false", Not{Literal{false}}},
		{
			".A == 'x' && .B == 'y' || .C",
			Or{And{Equals{Field{"A"}, Str{"x"}}, Equals{Field{"B"}, Str{"y"}}}, Truthy{Field{"C"}}},
		},
		{
			".A == 'x' && (.B == 'y' || !.C)",
			And{Equals{Field{"A"}, Str{"x"}}, Or{Equals{Field{"B"}, Str{"y"}}, Not{Truthy{Field{"C"}}}}},
		},
		{".Address.City == 'Boston'", Equals{Field{"Address.City"}, Str{"Boston"}}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	inputs := []string{
		"",
		".Status ==",
		"'unterminated",
		"alert('x')",
		".A + .B",
		"(.A == 'x'",
		".A == 'x')",
		"content.size() > 0",
		". == 'x'",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, input, pe.Input)
		})
	}
}

func TestCEL(t *testing.T) {
	e, err := Parse(".Status == 'Open' && !.Closed")
	require.NoError(t, err)
	assert.Equal(t,
		`((("Status" in content ? content["Status"] : "") == "Open") && !(("Closed" in content ? content["Closed"] : "") != ""))`,
		CEL(e))
}

func TestFields(t *testing.T) {
	e, err := Parse(".A == .B || (.A != 'x' && !.C)")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, Fields(e))
}

func TestEval(t *testing.T) {
	ev := newEvaluator(t)
	content := map[string]string{"Status": "Open", "Type": "External", "Empty": ""}

	tests := []struct {
		input string
		want  bool
	}{
		{".Status == 'Open'", true},
		{".Status == 'Closed'", false},
		{".Status != 'Closed'", true},
		{".Missing == ''", true},
		{".Missing", false},
		{".Empty", false},
		{".Type", true},
		{".Status == 'Open' && .Type == 'Internal'", false},
		{".Status == 'Open' || .Type == 'Internal'", true},
		{"!(.Status == 'Open')", false},
		{".Status == .Status", true},
		{"true && !false", true},
		{`.Status == "it's é"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := Parse(tt.input)
			require.NoError(t, err)
			got, err := ev.Eval(e, content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_QuotedLiteralRoundTrip(t *testing.T) {
	ev := newEvaluator(t)
	value := `say "hi"\n`
	got, err := ev.Eval(Equals{Field{"Greeting"}, Str{value}}, map[string]string{"Greeting": value})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEval_Cache(t *testing.T) {
	ev := newEvaluator(t)
	e := Equals{Field{"A"}, Str{"x"}}

	_, err := ev.Eval(e, map[string]string{"A": "x"})
	require.NoError(t, err)
	_, cached := ev.cache.Load(CEL(e))
	assert.True(t, cached)

	got, err := ev.Eval(e, nil)
	require.NoError(t, err)
	assert.False(t, got)
}

func component(t *testing.T, visibility string) *model.Component {
	t.Helper()
	return &model.Component{
		Kind: model.KindTextInput, Name: "Notes", ClassID: "X", Key: "X.Notes",
		JSON: `{"type": "TextInput", "config": {"value": "@P .Notes", "visibility": ` + visibility + `}}`,
	}
}

func TestVisible(t *testing.T) {
	ev := newEvaluator(t)
	content := model.Content{
		"classID": "X",
		"Status":  "Open",
		"Age":     "42",
		WhenConditionsKey: map[string]any{
			"ShowNotes": true,
			"HideNotes": false,
			"Stringy":   "TRUE",
		},
	}

	tests := []struct {
		name       string
		visibility string
		want       bool
	}{
		{"bool true", `true`, true},
		{"bool false", `false`, false},
		{"when true", `"@W ShowNotes"`, true},
		{"when false", `"@W HideNotes"`, false},
		{"when string", `"@W Stringy"`, true},
		{"when missing", `"@W Nope"`, false},
		{"expr true", `"@E .Status == 'Open'"`, true},
		{"expr false", `"@E .Age == '18'"`, false},
		{"expr unparseable", `"@E window.close()"`, true},
		{"other string", `"sometimes"`, true},
		{"number", `1`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ev.Visible(component(t, tt.visibility), content))
		})
	}
}

func TestVisible_NoCondition(t *testing.T) {
	ev := newEvaluator(t)
	assert.True(t, ev.Visible(&model.Component{JSON: `{"type": "Region"}`}, nil))
	assert.True(t, ev.Visible(&model.Component{}, nil))
	assert.True(t, ev.Visible(nil, nil))
}

func TestVisible_WhenWithoutConditions(t *testing.T) {
	ev := newEvaluator(t)
	assert.False(t, ev.Visible(component(t, `"@W ShowNotes"`), model.Content{"classID": "X"}))
}

func TestVisible_LogsRejectedExpression(t *testing.T) {
	logger, logs := loggingtest.NewObserved(zapcore.WarnLevel)
	ev, err := NewEvaluator(logger)
	require.NoError(t, err)

	assert.True(t, ev.Visible(component(t, `"@E eval('x')"`), model.Content{}))
	assert.Equal(t, 1, logs.FilterMessage("visibility expression not evaluated").Len())
}
