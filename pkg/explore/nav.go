package explore

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// listNav is a cursor and scroll offset over a list.
type listNav struct {
	cursor int
	offset int
}

// navigate applies a movement key for a list of n items showing page rows at
// a time. It reports false when msg is not a movement key.
func (l *listNav) navigate(msg tea.KeyMsg, n, page int) bool {
	switch {
	case key.Matches(msg, defaultKeys.Up):
		l.cursor--
	case key.Matches(msg, defaultKeys.Down):
		l.cursor++
	case key.Matches(msg, defaultKeys.Home):
		l.cursor = 0
	case key.Matches(msg, defaultKeys.End):
		l.cursor = n - 1
	case key.Matches(msg, defaultKeys.PageDown):
		l.cursor += page
	case key.Matches(msg, defaultKeys.PageUp):
		l.cursor -= page
	default:
		return false
	}
	l.clamp(n, page)
	return true
}

// clamp keeps the cursor inside the list and on screen.
func (l *listNav) clamp(n, page int) {
	l.cursor = max(0, min(l.cursor, n-1))
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+page {
		l.offset = l.cursor - page + 1
	}
}

// window returns the index range of the rows on screen.
func (l listNav) window(n, page int) (start, end int) {
	start = min(l.offset, max(0, n-1))
	return start, min(start+page, n)
}
