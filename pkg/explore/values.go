package explore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

type sortField int

const (
	sortByFirstSeen sortField = iota
	sortByValue
	sortByCount
	sortBySources
	sortFieldCount // sentinel
)

var sortFieldNames = [sortFieldCount]string{"First Seen", "Value", "Count", "Sources"}

// rowLess orders value rows by each sort field.
var rowLess = [sortFieldCount]func(a, b *valueRow) bool{
	sortByFirstSeen: func(a, b *valueRow) bool { return a.First < b.First },
	sortByValue:     func(a, b *valueRow) bool { return a.label() < b.label() },
	sortByCount:     func(a, b *valueRow) bool { return len(a.Matches) < len(b.Matches) },
	sortBySources:   func(a, b *valueRow) bool { return len(a.Sources) < len(b.Sources) },
}

// valuesPane is the table of distinct key values.
type valuesPane struct {
	listNav
	rows    []*valueRow // rows passing the filters, in display order
	total   int
	width   int
	height  int
	focused bool
	sortBy  sortField
	desc    bool
}

func newValuesPane(rows []*valueRow) valuesPane {
	vp := valuesPane{total: len(rows)}
	vp.setFilteredRows(rows)
	return vp
}

// setFilteredRows replaces the visible rows with a sorted copy of rows.
func (vp *valuesPane) setFilteredRows(rows []*valueRow) {
	vp.rows = append(vp.rows[:0:0], rows...)
	vp.sort()
	vp.clamp(len(vp.rows), vp.visibleRows())
}

func (vp valuesPane) selectedRow() *valueRow {
	if vp.cursor < 0 || vp.cursor >= len(vp.rows) {
		return nil
	}
	return vp.rows[vp.cursor]
}

func (vp valuesPane) Update(msg tea.Msg) (valuesPane, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !vp.focused || !ok {
		return vp, nil
	}
	if vp.navigate(km, len(vp.rows), vp.visibleRows()) {
		return vp, nil
	}
	switch {
	case key.Matches(km, defaultKeys.SortNext):
		vp.sortBy = (vp.sortBy + 1) % sortFieldCount
		vp.sort()
	case key.Matches(km, defaultKeys.SortReverse):
		vp.desc = !vp.desc
		vp.sort()
	}
	return vp, nil
}

func (vp *valuesPane) sort() {
	less := rowLess[vp.sortBy]
	sort.SliceStable(vp.rows, func(i, j int) bool {
		if vp.desc {
			return less(vp.rows[j], vp.rows[i])
		}
		return less(vp.rows[i], vp.rows[j])
	})
}

func (vp valuesPane) View() string {
	if vp.width <= 0 || vp.height <= 0 {
		return ""
	}

	inner := vp.width - 4
	const colCount, colSources, colFirst = 8, 8, 10
	colValue := max(10, inner-colCount-colSources-colFirst-4)

	mark := func(f sortField, name string) string {
		switch {
		case vp.sortBy != f:
			return name
		case vp.desc:
			return name + " v"
		default:
			return name + " ^"
		}
	}
	header := fmt.Sprintf(" %-*s %*s %*s %*s",
		colValue, mark(sortByValue, "Value"),
		colCount, mark(sortByCount, "Count"),
		colSources, mark(sortBySources, "Srcs"),
		colFirst, mark(sortByFirstSeen, "First"))

	lines := []string{
		headerRowStyle.Width(inner).Render(truncateString(header, inner)),
		strings.Repeat("─", max(0, inner)),
	}

	start, end := vp.window(len(vp.rows), vp.visibleRows())
	for i := start; i < end; i++ {
		row := vp.rows[i]
		value := truncateString(row.label(), colValue)
		if row.Unmatched {
			value = unmatchedStyle.Render(value)
		}
		line := fmt.Sprintf(" %s %*d %*d %*d", padRight(value, colValue),
			colCount, len(row.Matches), colSources, len(row.Sources), colFirst, row.First+1)
		if i == vp.cursor && vp.focused {
			line = selectedRowStyle.Width(inner).Render(ansi.Strip(line))
		}
		lines = append(lines, line)
	}

	title := fmt.Sprintf(" Values (%d/%d) [sort: %s] ", len(vp.rows), vp.total, sortFieldNames[vp.sortBy])
	return renderPane(title, lines, vp.visibleRows()+2, inner, vp.width, vp.height, vp.focused)
}

func (vp valuesPane) visibleRows() int {
	return max(1, vp.height-6) // title + border + header + separator
}

func (vp *valuesPane) setSize(w, h int) {
	vp.width = w
	vp.height = h
	vp.clamp(len(vp.rows), vp.visibleRows())
}
