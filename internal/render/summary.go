package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/dxexplorer/internal/compiler"
	"github.com/roach88/dxexplorer/internal/model"
)

// Summary writes the case header, navigation state and catalog sizes.
func Summary(w io.Writer, resp *compiler.Response, color bool) error {
	st := stylesFor(color)
	if resp == nil || resp.CaseInfo == nil {
		_, err := fmt.Fprintln(w, "(no case loaded)")
		return err
	}
	ci := resp.CaseInfo

	rows := [][2]string{
		{"Case", fmt.Sprintf("%s (%s)", ci.ID, ci.BusinessID)},
		{"Type", fmt.Sprintf("%s (%s)", ci.Type.Name, ci.Type.ID)},
		{"Status", ci.Status},
		{"Owner", ci.Owner},
		{"State", resp.Status.String()},
		{"Assignment", resp.OpenAssignmentID},
		{"Action", resp.OpenActionID},
	}
	if resp.HasResources {
		rows = append(rows, [2]string{"Resources", fmt.Sprintf("%d fields, %d paragraphs, %d views",
			len(resp.Fields), len(resp.Paragraphs), len(resp.Components))})
	}
	if buttons := buttonList(resp.ActionButtons); buttons != "" {
		rows = append(rows, [2]string{"Buttons", buttons})
	}

	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row[0]))
	}
	var b strings.Builder
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		label := row[0] + ":" + strings.Repeat(" ", width-lipgloss.Width(row[0])+1)
		fmt.Fprintf(&b, "%s%s\n", st.paint(st.Label, label), row[1])
	}

	if len(ci.AssignmentIDs) > 0 {
		fmt.Fprintln(&b, st.paint(st.Header, "Assignments"))
		for _, id := range ci.AssignmentIDs {
			a := ci.Assignments[id]
			marker := " "
			if id == resp.OpenAssignmentID {
				marker = "*"
			}
			fmt.Fprintf(&b, "%s %s: %s\n", marker, id, a.Name)
			for _, actID := range a.ActionIDs {
				act := a.Actions[actID]
				fmt.Fprintf(&b, "    - %s: %s\n", act.ID, act.Name)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func buttonList(buttons model.ActionButtons) string {
	var names []string
	for _, list := range [][]model.ActionButton{buttons.Main, buttons.Secondary} {
		for _, btn := range list {
			names = append(names, fmt.Sprintf("%s (%s)", btn.Name, btn.JSAction))
		}
	}
	return strings.Join(names, ", ")
}

// Fields writes the field catalog as an aligned table sorted by key.
func Fields(w io.Writer, fields model.FieldMap, color bool) error {
	st := stylesFor(color)
	headers := []string{"KEY", "LABEL", "TYPE", "DATA", "FLAGS"}
	var rows [][]string
	for _, key := range model.SortedKeys(fields) {
		f := fields[key]
		var flags []string
		if f.IsSpecial {
			flags = append(flags, "special")
		}
		if f.IsClassKey {
			flags = append(flags, "classkey")
		}
		if f.IsDirty {
			flags = append(flags, "dirty")
		}
		rows = append(rows, []string{key, f.Label, f.Type, f.Data, strings.Join(flags, ",")})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i, cell := range cells {
			b.WriteString(style(cell))
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
			}
		}
		b.WriteString("\n")
	}
	writeRow(headers, func(s string) string { return st.paint(st.Header, s) })
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
	for _, line := range strings.SplitAfter(b.String(), "\n") {
		if line == "" {
			continue
		}
		if _, err := io.WriteString(w, strings.TrimRight(line, " \n")+"\n"); err != nil {
			return err
		}
	}
	return nil
}
