package explore

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/logsift/logsift/pkg/source"
)

// focusedPane tracks which pane has keyboard focus.
type focusedPane int

const (
	paneFilters focusedPane = iota
	paneValues
	paneDetails
)

// overlay tracks which modal overlay is active.
type overlay int

const (
	overlayNone overlay = iota
	overlayHelp
	overlaySource
)

// pagerFinishedMsg is sent when an external pager process exits.
type pagerFinishedMsg struct{ err error }

// Model is the root Bubble Tea model for the explore TUI.
type Model struct {
	data    *exploreData
	filters filterPane
	values  valuesPane
	details detailsPane

	focus         focusedPane
	activeOverlay overlay
	showFilters   bool

	overlayContent string
	overlayOffset  int

	width  int
	height int
}

// New creates a Model for one scan in the database at dbPath. A scanID of 0
// opens the most recent scan.
func New(dbPath string, scanID int64) (Model, error) {
	data, err := loadData(dbPath, scanID)
	if err != nil {
		return Model{}, err
	}
	return newModel(data), nil
}

func newModel(data *exploreData) Model {
	m := Model{
		data:        data,
		filters:     newFilterPane(buildFacets(data.rows)),
		values:      newValuesPane(data.rows),
		details:     newDetailsPane(data.group),
		focus:       paneValues,
		showFilters: true,
	}
	m.values.focused = true
	m.details.setRow(m.values.selectedRow())
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle("logsift explore")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case pagerFinishedMsg:
		return m, nil

	case tea.MouseMsg:
		if m.activeOverlay != overlayNone {
			return m, nil
		}
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.handleMouseClick(msg.X, msg.Y)
		return m, nil

	case tea.KeyMsg:
		if m.activeOverlay != overlayNone {
			m.updateOverlay(msg)
			return m, nil
		}

		switch {
		case key.Matches(msg, defaultKeys.ForceQuit), key.Matches(msg, defaultKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, defaultKeys.ToggleHelp):
			m.showOverlay(overlayHelp, renderHelp())
			return m, nil
		case key.Matches(msg, defaultKeys.ToggleFilters):
			m.showFilters = !m.showFilters
			if !m.showFilters && m.focus == paneFilters {
				m.setFocus(paneValues)
			}
			m.layout()
			return m, nil
		case key.Matches(msg, defaultKeys.FocusFilters):
			if m.showFilters {
				m.setFocus(paneFilters)
			}
			return m, nil
		case key.Matches(msg, defaultKeys.FocusValues):
			m.setFocus(paneValues)
			return m, nil
		case key.Matches(msg, defaultKeys.FocusDetails):
			m.setFocus(paneDetails)
			return m, nil
		case key.Matches(msg, defaultKeys.OpenSource) && m.focus != paneFilters:
			return m, m.openSource()
		}

		var cmd tea.Cmd
		switch m.focus {
		case paneFilters:
			m.filters, cmd = m.filters.Update(msg)
			m.applyFilters()
		case paneValues:
			prev := m.values.selectedRow()
			m.values, cmd = m.values.Update(msg)
			if r := m.values.selectedRow(); r != prev {
				m.details.setRow(r)
			}
		case paneDetails:
			m.details, cmd = m.details.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

func (m *Model) showOverlay(o overlay, content string) {
	m.activeOverlay = o
	m.overlayContent = content
	m.overlayOffset = 0
}

func (m *Model) updateOverlay(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, defaultKeys.Quit),
		key.Matches(msg, defaultKeys.ForceQuit),
		key.Matches(msg, defaultKeys.ToggleHelp) && m.activeOverlay == overlayHelp,
		key.Matches(msg, defaultKeys.OpenSource) && m.activeOverlay == overlaySource:
		m.activeOverlay = overlayNone
	case key.Matches(msg, defaultKeys.Down):
		m.overlayOffset++
	case key.Matches(msg, defaultKeys.Up):
		m.overlayOffset = max(0, m.overlayOffset-1)
	case key.Matches(msg, defaultKeys.PageDown):
		m.overlayOffset += m.height / 2
	case key.Matches(msg, defaultKeys.PageUp):
		m.overlayOffset = max(0, m.overlayOffset-m.height/2)
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.activeOverlay != overlayNone {
		return m.renderOverlay()
	}

	dataColumn := lipgloss.JoinVertical(lipgloss.Left, m.values.View(), m.details.View())
	mainContent := dataColumn
	if m.showFilters {
		mainContent = lipgloss.JoinHorizontal(lipgloss.Top, m.filters.View(), dataColumn)
	}

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, m.renderStatusBar())
}

// layout sizes the panes for the current window.
func (m *Model) layout() {
	contentHeight := m.height - 2 // status bar + padding
	filtersWidth := m.filtersWidth()
	dataWidth := m.width - filtersWidth
	valuesHeight := contentHeight * 40 / 100

	m.filters.setSize(filtersWidth, contentHeight)
	m.values.setSize(dataWidth, valuesHeight)
	m.details.setSize(dataWidth, contentHeight-valuesHeight)
}

func (m Model) filtersWidth() int {
	if !m.showFilters {
		return 0
	}
	return min(m.width*30/100, 50)
}

func (m Model) renderStatusBar() string {
	scan := m.data.scan
	status := fmt.Sprintf(" scan %d | %s | %s values | %d shown",
		scan.ID, truncateString(scan.Pattern, 30),
		humanize.Comma(int64(len(m.data.rows))), len(m.values.rows))
	if n := len(scan.Errors); n > 0 {
		status += " | " + errorStyle.Render(fmt.Sprintf("%d source errors", n))
	}
	left := statusBarStyle.Render(status)

	right := fmt.Sprintf("%s:%s  %s:%s  %s:%s  %s:%s  %s:%s",
		helpKeyStyle.Render("j/k"), helpDescStyle.Render("nav"),
		helpKeyStyle.Render("v/d"), helpDescStyle.Render("focus"),
		helpKeyStyle.Render("s"), helpDescStyle.Render("sort"),
		helpKeyStyle.Render("o"), helpDescStyle.Render("source"),
		helpKeyStyle.Render("?"), helpDescStyle.Render("help"),
	)

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderOverlay() string {
	overlayWidth := m.width * 80 / 100
	overlayHeight := m.height * 80 / 100

	title := " Help (q to close) "
	if m.activeOverlay == overlaySource {
		title = " Source (q to close) "
	}

	lines := strings.Split(m.overlayContent, "\n")
	start := min(m.overlayOffset, max(0, len(lines)-1))
	end := min(start+max(1, overlayHeight-4), len(lines))

	box := modalStyle.
		Width(overlayWidth - 4).
		Height(overlayHeight - 2).
		Render(strings.Join(lines[start:end], "\n"))

	view := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), box)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, view)
}

func (m *Model) setFocus(p focusedPane) {
	m.filters.focused = p == paneFilters
	m.values.focused = p == paneValues
	m.details.focused = p == paneDetails
	m.focus = p
}

func (m *Model) handleMouseClick(x, y int) {
	contentHeight := m.height - 2
	filtersWidth := m.filtersWidth()
	valuesHeight := contentHeight * 40 / 100

	switch {
	case y >= contentHeight:
		return
	case x < filtersWidth:
		m.setFocus(paneFilters)
		row := y - 2 // title + border top
		if idx := row + m.filters.offset; row >= 0 && idx < len(m.filters.items) {
			m.filters.cursor = idx
			m.filters.toggleCurrent()
			m.applyFilters()
		}
	case y < valuesHeight:
		m.setFocus(paneValues)
		row := y - 4 // title + border top + header + separator
		if idx := row + m.values.offset; row >= 0 && idx < len(m.values.rows) {
			m.values.cursor = idx
			m.details.setRow(m.values.selectedRow())
		}
	default:
		m.setFocus(paneDetails)
	}
}

func (m *Model) applyFilters() {
	facets := m.filters.facets
	if !facets.hasActiveFilters() {
		m.values.setFilteredRows(m.data.rows)
	} else {
		var filtered []*valueRow
		for _, r := range m.data.rows {
			if facets.matchesRow(r) {
				filtered = append(filtered, r)
			}
		}
		m.values.setFilteredRows(filtered)
	}
	facets.updateCounts(m.data.rows)

	if r := m.values.selectedRow(); r != m.details.row {
		m.details.setRow(r)
	}
}

// openSource pages the selected occurrence's file, or shows the occurrence
// in an overlay when the source is not a file on disk.
func (m *Model) openSource() tea.Cmd {
	match := m.details.selectedMatch()
	if match == nil {
		return nil
	}

	if match.Source != source.StdinID {
		if info, err := os.Stat(match.Source); err == nil && info.Mode().IsRegular() {
			return openInPager(match.Source, match.Location.Line)
		}
	}

	m.showOverlay(overlaySource, strings.Join(renderMatchDetails(match), "\n"))
	return nil
}

func openInPager(filePath string, line int) tea.Cmd {
	pager := os.Getenv("PAGER")
	if pager == "" {
		pager = "less"
	}

	var args []string
	if line > 0 && pager == "less" {
		args = append(args, fmt.Sprintf("+%d", line))
	}
	args = append(args, filePath)

	c := exec.Command(pager, args...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return pagerFinishedMsg{err: err}
	})
}

// Close releases resources held by the model.
func (m *Model) Close() error {
	if m.data != nil {
		return m.data.close()
	}
	return nil
}

func renderHelp() string {
	return `logsift explore - Interactive Scan Browser

NAVIGATION
  j/k or Up/Down    Move cursor up/down
  h/l or Left/Right Previous/next occurrence (details)
  Ctrl+f/Ctrl+b     Page down/up
  g/G               Jump to top/bottom

FOCUS
  F1                Focus filters pane
  v                 Focus values pane
  d                 Focus details pane
  F7                Toggle filters pane visibility

FILTERS
  x, Space, Enter   Toggle filter value or fold a category
  Ctrl+r            Reset all filters

VIEWS
  s                 Cycle sort column
  S                 Reverse sort order
  o                 Open source in $PAGER
  ?                 Toggle this help screen

QUIT
  q                 Quit
  Ctrl+c            Force quit
`
}
