package explore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/logsift/logsift/pkg/types"
)

// detailsPane shows every occurrence of the selected value.
type detailsPane struct {
	row         *valueRow
	group       int // key group of the scan, -1 for full-match keys
	matchCursor int
	width       int
	height      int
	offset      int // scroll offset for content
	focused     bool
}

func newDetailsPane(group int) detailsPane {
	return detailsPane{group: group}
}

func (dp *detailsPane) setRow(r *valueRow) {
	dp.row = r
	dp.matchCursor = 0
	dp.offset = 0
}

func (dp detailsPane) selectedMatch() *types.Match {
	if dp.row == nil || dp.matchCursor < 0 || dp.matchCursor >= len(dp.row.Matches) {
		return nil
	}
	return dp.row.Matches[dp.matchCursor]
}

func (dp detailsPane) Update(msg tea.Msg) (detailsPane, tea.Cmd) {
	if !dp.focused {
		return dp, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, defaultKeys.Up):
			if dp.offset > 0 {
				dp.offset--
			}
		case key.Matches(msg, defaultKeys.Down):
			dp.offset++
		case key.Matches(msg, defaultKeys.Left):
			if dp.matchCursor > 0 {
				dp.matchCursor--
				dp.offset = 0
			}
		case key.Matches(msg, defaultKeys.Right):
			if dp.row != nil && dp.matchCursor < len(dp.row.Matches)-1 {
				dp.matchCursor++
				dp.offset = 0
			}
		case key.Matches(msg, defaultKeys.Home):
			dp.offset = 0
		case key.Matches(msg, defaultKeys.PageDown):
			dp.offset += dp.visibleRows()
		case key.Matches(msg, defaultKeys.PageUp):
			dp.offset = max(0, dp.offset-dp.visibleRows())
		}
	}

	return dp, nil
}

func (dp detailsPane) lines(contentWidth int) []string {
	if dp.row == nil {
		return []string{"  No value selected"}
	}
	r := dp.row

	keyLabel := "full match"
	if dp.group >= 0 {
		keyLabel = fmt.Sprintf("group %d", dp.group)
	}

	lines := []string{
		field("Value:", renderValue(r.Value, !r.Unmatched)),
		field("Key:", fieldValueStyle.Render(keyLabel)),
		field("Count:", fieldValueStyle.Render(fmt.Sprintf("%d", len(r.Matches)))),
		field("Sources:", fieldValueStyle.Render(strings.Join(r.Sources, ", "))),
		"",
		"  " + headerRowStyle.Render(fmt.Sprintf("Occurrence %d/%d (h/l to navigate)", dp.matchCursor+1, len(r.Matches))),
		"  " + strings.Repeat("─", max(0, min(40, contentWidth-4))),
	}

	if m := dp.selectedMatch(); m != nil {
		lines = append(lines, renderMatchDetails(m)...)
	}
	return lines
}

func (dp detailsPane) View() string {
	if dp.width <= 0 || dp.height <= 0 {
		return ""
	}

	inner := dp.width - 4
	lines := dp.lines(inner)
	lines = lines[min(dp.offset, max(0, len(lines)-1)):]
	for i, line := range lines {
		lines[i] = truncateString(line, inner)
	}

	return renderPane(" Details ", lines, dp.visibleRows(), inner, dp.width, dp.height, dp.focused)
}

func renderMatchDetails(m *types.Match) []string {
	lines := []string{
		field("Source:", fieldValueStyle.Render(m.Source)),
		field("Location:", fmt.Sprintf("%d:%d (chars %d-%d)",
			m.Location.Line, m.Location.Column(), m.Location.Offset.Start, m.Location.Offset.End)),
		field("Match:", valueStyle.Render(m.FullValue)),
	}

	if len(m.Groups) > 1 {
		lines = append(lines, "  "+fieldLabelStyle.Render("Groups:"))
		for i, g := range m.Groups[1:] {
			lines = append(lines, fmt.Sprintf("    %s %s",
				fieldLabelStyle.Render(fmt.Sprintf("%d:", i+1)),
				renderValue(g.Value, g.Matched)))
		}
	}

	if len(m.NamedGroups) > 0 {
		names := make([]string, 0, len(m.NamedGroups))
		for name := range m.NamedGroups {
			names = append(names, name)
		}
		sort.Strings(names)

		lines = append(lines, "  "+fieldLabelStyle.Render("Named Groups:"))
		for _, name := range names {
			g := m.NamedGroups[name]
			lines = append(lines, fmt.Sprintf("    %s %s",
				fieldLabelStyle.Render(name+":"),
				renderValue(g.Value, g.Matched)))
		}
	}

	return lines
}

func field(label, value string) string {
	return fmt.Sprintf("  %s %s", fieldLabelStyle.Render(label), value)
}

func (dp detailsPane) visibleRows() int {
	return max(1, dp.height-4)
}

func (dp *detailsPane) setSize(w, h int) {
	dp.width = w
	dp.height = h
}
