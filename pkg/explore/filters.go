package explore

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// filterItem is one line of the facet tree: a facet heading (value < 0) or
// one of its values.
type filterItem struct {
	facet facetID
	value int
}

func (it filterItem) heading() bool { return it.value < 0 }

// filterPane is the left-side facet tree.
type filterPane struct {
	listNav
	facets  *facetState
	items   []filterItem
	folded  map[facetID]bool
	width   int
	height  int
	focused bool
}

func newFilterPane(facets *facetState) filterPane {
	fp := filterPane{facets: facets, folded: make(map[facetID]bool)}
	fp.rebuildItems()
	return fp
}

// rebuildItems flattens the unfolded part of the facet tree.
func (fp *filterPane) rebuildItems() {
	fp.items = fp.items[:0]
	for _, def := range facetDefs {
		values := fp.facets.Values[def.ID]
		if len(values) == 0 {
			continue
		}
		fp.items = append(fp.items, filterItem{facet: def.ID, value: -1})
		if fp.folded[def.ID] {
			continue
		}
		for i := range values {
			fp.items = append(fp.items, filterItem{facet: def.ID, value: i})
		}
	}
}

func (fp filterPane) Update(msg tea.Msg) (filterPane, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !fp.focused || !ok {
		return fp, nil
	}
	if fp.navigate(km, len(fp.items), fp.visibleRows()) {
		return fp, nil
	}
	switch {
	case key.Matches(km, defaultKeys.ToggleFilter):
		fp.toggleCurrent()
	case key.Matches(km, defaultKeys.ResetFilter):
		fp.facets.resetAll()
	}
	return fp, nil
}

// toggleCurrent folds the heading under the cursor or flips the value's
// selection.
func (fp *filterPane) toggleCurrent() {
	if fp.cursor < 0 || fp.cursor >= len(fp.items) {
		return
	}
	item := fp.items[fp.cursor]
	if !item.heading() {
		v := fp.facets.Values[item.facet][item.value]
		v.Selected = !v.Selected
		return
	}

	fp.folded[item.facet] = !fp.folded[item.facet]
	fp.rebuildItems()
	for i, it := range fp.items {
		if it == item {
			fp.cursor = i
			break
		}
	}
	fp.clamp(len(fp.items), fp.visibleRows())
}

func (fp filterPane) renderItem(it filterItem) string {
	if it.heading() {
		arrow := "▾"
		if fp.folded[it.facet] {
			arrow = "▸"
		}
		return facetLabelStyle.Render(fmt.Sprintf(" %s %s", arrow, facetDefs[it.facet].Label))
	}

	v := fp.facets.Values[it.facet][it.value]
	label := truncateString(v.Value, fp.width-12)
	count := facetCountStyle.Render(fmt.Sprintf("(%d)", v.Count))
	if v.Selected {
		return fmt.Sprintf("   %s %s %s", facetSelectedStyle.Render("+"), facetSelectedStyle.Render(label), count)
	}
	return fmt.Sprintf("     %s %s", label, count)
}

func (fp filterPane) View() string {
	if fp.width <= 0 || fp.height <= 0 {
		return ""
	}

	inner := fp.width - 2
	var lines []string
	start, end := fp.window(len(fp.items), fp.visibleRows())
	for i := start; i < end; i++ {
		line := fp.renderItem(fp.items[i])
		if i == fp.cursor && fp.focused {
			line = selectedRowStyle.Width(inner).Render(ansi.Strip(line))
		}
		lines = append(lines, line)
	}

	return renderPane(" Filters ", lines, fp.visibleRows(), inner, fp.width, fp.height, fp.focused)
}

func (fp filterPane) visibleRows() int {
	return max(1, fp.height-4) // title + border
}

func (fp *filterPane) setSize(w, h int) {
	fp.width = w
	fp.height = h
	fp.clamp(len(fp.items), fp.visibleRows())
}

// renderPane draws a titled, bordered box holding rows lines of inner width.
func renderPane(title string, lines []string, rows, inner, width, height int, focused bool) string {
	var b strings.Builder
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		b.WriteString(padRight(line, inner))
	}

	border := inactiveBorderStyle
	if focused {
		border = activeBorderStyle
	}
	box := border.Width(width - 2).Height(height - 3).Render(b.String())
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), box)
}

// truncateString shortens s to n cells, ending with "...".
func truncateString(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return ansi.Truncate(s, n, "...")
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
