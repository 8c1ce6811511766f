package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Tab       key.Binding
	Todos     key.Binding
	Prios     key.Binding
	Stats     key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	Enter     key.Binding
	Add       key.Binding
	Edit      key.Binding
	Done      key.Binding
	Delete    key.Binding
	Undo      key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	Search    key.Binding
	Completed key.Binding
	Priority  key.Binding
	Sort      key.Binding
	Theme     key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
	Escape    key.Binding
	Logout    key.Binding
}

var keys = keyMap{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Todos:     key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "todos")),
	Prios:     key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "priorities")),
	Stats:     key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "statuses")),
	NextPage:  key.NewBinding(key.WithKeys("]", "pgdown", "right", "l"), key.WithHelp("]/→", "next page")),
	PrevPage:  key.NewBinding(key.WithKeys("[", "pgup", "left", "h"), key.WithHelp("[/←", "prev page")),
	Enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select/toggle")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit title")),
	Done:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle done")),
	Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Undo:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo delete")),
	MoveUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
	MoveDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search page")),
	Completed: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "completed filter")),
	Priority:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "priority filter")),
	Sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Theme:     key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "theme")),
	Refresh:   key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "refresh/retry")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Done, k.Delete, k.NextPage, k.Search, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Tab, k.Todos, k.Prios, k.Stats, k.NextPage, k.PrevPage},
		{k.Add, k.Edit, k.Done, k.Delete, k.Undo, k.MoveUp, k.MoveDown},
		{k.Search, k.Completed, k.Priority, k.Sort, k.Refresh},
		{k.Theme, k.Logout, k.Help, k.Quit},
	}
}
