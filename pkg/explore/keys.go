package explore

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Left, Right key.Binding
	PageUp, PageDown      key.Binding
	Home, End             key.Binding

	FocusFilters, FocusValues, FocusDetails key.Binding

	ToggleFilter, ResetFilter key.Binding

	OpenSource, ToggleHelp, ToggleFilters key.Binding
	SortNext, SortReverse                 key.Binding

	Quit, ForceQuit key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

var defaultKeys = keyMap{
	Up:    bind("k/up", "up", "up", "k"),
	Down:  bind("j/dn", "down", "down", "j"),
	Left:  bind("h", "previous occurrence", "left", "h"),
	Right: bind("l", "next occurrence", "right", "l"),

	PageUp:   bind("C-b", "page up", "pgup", "ctrl+b"),
	PageDown: bind("C-f", "page down", "pgdown", "ctrl+f"),
	Home:     bind("g", "top", "home", "g"),
	End:      bind("G", "bottom", "end", "G"),

	FocusFilters: bind("F1", "filters", "f1"),
	FocusValues:  bind("v", "values", "v"),
	FocusDetails: bind("d", "details", "d"),

	ToggleFilter: bind("x/spc", "toggle", "x", " ", "enter"),
	ResetFilter:  bind("C-r", "reset filters", "ctrl+r"),

	OpenSource:    bind("o", "open in pager", "o"),
	ToggleHelp:    bind("?", "help", "?"),
	ToggleFilters: bind("F7", "show/hide filters", "f7"),
	SortNext:      bind("s", "sort", "s"),
	SortReverse:   bind("S", "reverse", "S"),

	Quit:      bind("q", "quit", "q"),
	ForceQuit: bind("C-c", "quit", "ctrl+c"),
}
