// Package render writes text views of a compiled response.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/dxexplorer/internal/compiler"
	"github.com/roach88/dxexplorer/internal/model"
	"github.com/roach88/dxexplorer/internal/visibility"
)

const indentUnit = "  "

// Options controls the outline.
type Options struct {
	// Color enables lipgloss styling.
	Color bool

	// Visibility, when set, omits components whose visibility condition is
	// false for the current content.
	Visibility *visibility.Evaluator
}

// Outline writes the component tree rooted at the response's root key.
//
// References are followed by key lookup. A reference back to a component
// already on the current path prints "(cycle)" instead of recursing.
func Outline(w io.Writer, resp *compiler.Response, opts Options) error {
	if resp == nil || !resp.HasResources {
		_, err := fmt.Fprintln(w, "(no form loaded)")
		return err
	}
	root := resp.Root()
	if root == nil {
		_, err := fmt.Fprintf(w, "(root %s not found)\n", resp.RootKey)
		return err
	}

	r := &outliner{
		w:      w,
		resp:   resp,
		opts:   opts,
		styles: stylesFor(opts.Color),
		onPath: map[string]bool{root.Key: true},
	}
	r.component(root, 0)
	return r.err
}

type outliner struct {
	w      io.Writer
	resp   *compiler.Response
	opts   Options
	styles Styles
	onPath map[string]bool
	err    error
}

func (r *outliner) line(depth int, text string) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, "%s%s\n", strings.Repeat(indentUnit, depth), text)
}

func (r *outliner) hidden(c *model.Component) bool {
	return r.opts.Visibility != nil && !r.opts.Visibility.Visible(c, r.resp.Content)
}

func (r *outliner) component(c *model.Component, depth int) {
	if r.hidden(c) {
		return
	}
	st := r.styles
	text := st.paint(st.Kind, c.DebugString)

	switch {
	case c.Kind == model.KindReference:
		r.reference(c, depth, text)
		return

	case c.Kind.IsField():
		if c.IsRequired {
			text += " " + st.paint(st.Required, "*")
		}
		f := r.resp.Fields[c.Key]
		if f != nil {
			text += " = " + st.paint(st.Value, strconv.Quote(f.Data))
		} else {
			text += " " + st.paint(st.Muted, "[no field]")
		}
		switch {
		case c.IsReadOnly:
			text += " " + st.paint(st.Muted, "(readonly)")
		case c.IsDisabled:
			text += " " + st.paint(st.Muted, "(disabled)")
		case f != nil && !model.IsEditable(c, f):
			// Special and class key fields refuse edits.
			text += " " + st.paint(st.Muted, "(locked)")
		}
	}
	r.line(depth, text)

	if c.Instructions != "" {
		r.line(depth+1, st.paint(st.Muted, "> "+c.Instructions))
	}
	for _, opt := range c.Options {
		r.line(depth+1, fmt.Sprintf("- %s (%s)", opt.Label, opt.Key))
	}
	for _, child := range c.Children {
		r.component(child, depth+1)
	}
}

func (r *outliner) reference(c *model.Component, depth int, text string) {
	st := r.styles
	if c.IsBroken {
		r.line(depth, text+" "+st.paint(st.Broken, "[broken: "+c.BrokenString+"]"))
		return
	}
	target, ok := r.resp.Components[c.Key]
	if !ok {
		r.line(depth, text+" "+st.paint(st.Broken, "[missing: "+c.Key+"]"))
		return
	}
	if r.onPath[c.Key] {
		r.line(depth, text+" "+st.paint(st.Muted, "(cycle)"))
		return
	}
	r.line(depth, text)

	r.onPath[c.Key] = true
	r.component(target, depth+1)
	delete(r.onPath, c.Key)
}
