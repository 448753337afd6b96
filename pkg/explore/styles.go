package explore

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	colorPrimary   = lipgloss.Color("#2A9D8F") // teal
	colorSecondary = lipgloss.Color("10")      // green
	colorMatch     = lipgloss.Color("#E9C46A") // amber
	colorError     = lipgloss.Color("9")       // red
	colorMuted     = lipgloss.Color("8")       // gray
	colorAccent    = lipgloss.Color("#8AB4F8") // blue
	colorHighlight = lipgloss.Color("15")      // white
)

// Pane border styles
var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorMuted)
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Background(colorPrimary).
	Padding(0, 1)

// Table rows
var (
	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("23")).
				Foreground(colorHighlight)

	headerRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)
)

var (
	valueStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorMatch)
	unmatchedStyle = lipgloss.NewStyle().Italic(true).Foreground(colorMuted)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
)

var statusBarStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

var (
	helpKeyStyle  = lipgloss.NewStyle().Foreground(colorAccent)
	helpDescStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// Facets
var (
	facetLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	facetSelectedStyle = lipgloss.NewStyle().Foreground(colorSecondary)
	facetCountStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

// Detail fields
var (
	fieldLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	fieldValueStyle = lipgloss.NewStyle().Foreground(colorHighlight)
)

var modalStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// renderValue styles a row or group value, marking absent groups.
func renderValue(value string, matched bool) string {
	if !matched {
		return unmatchedStyle.Render("(unmatched)")
	}
	return valueStyle.Render(value)
}
