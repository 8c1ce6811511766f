package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/store"
)

// Pane represents which list is focused
type Pane int

const (
	PaneTodos Pane = iota
	PanePriorities
	PaneStatuses
	paneCount
)

func (p Pane) String() string {
	switch p {
	case PanePriorities:
		return "Priorities"
	case PaneStatuses:
		return "Statuses"
	default:
		return "Todos"
	}
}

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeEdit
	ModeSearch
	ModeHelp
	ModeLogin
)

// pager is the navigation surface shared by the three stores
type pager interface {
	GoToNext(ctx context.Context) error
	GoToPrev(ctx context.Context) error
	Refresh(ctx context.Context) error
	SetSearch(q string)
	ClearError()
}

// Model is the main TUI model
type Model struct {
	ctx     context.Context
	app     *app.App
	changed chan struct{} // coalesced store notifications
	expired chan struct{}
	unsubs  []func()

	// UI state
	width   int
	height  int
	pane    Pane
	mode    Mode
	cursors [paneCount]int

	// Input
	input      textinput.Model
	username   textinput.Model
	password   textinput.Model
	loginFocus int
	loginErr   string
	loggingIn  bool

	spinner spinner.Model
	help    help.Model
	styles  styles

	// full priority set, for labels and filter cycling
	priorities []model.Priority

	undo    *store.Undo
	message string
}

// NewModel creates a TUI model over the app's stores
func NewModel(ctx context.Context, a *app.App) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Width = 30

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 128
	pass.Width = 30

	m := Model{
		ctx:        ctx,
		app:        a,
		changed:    make(chan struct{}, 1),
		expired:    make(chan struct{}, 1),
		mode:       ModeNormal,
		input:      ti,
		username:   user,
		password:   pass,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:       help.New(),
		styles:     newStyles(a.Session.Theme(a.Config.Theme)),
		priorities: model.DefaultPriorities(),
	}

	signal := func() { wake(m.changed) }
	m.unsubs = append(m.unsubs,
		a.Todos.Subscribe(signal),
		a.Priorities.Subscribe(signal),
		a.Statuses.Subscribe(signal),
		a.User.Subscribe(signal),
	)
	a.OnSessionExpired(func() { wake(m.expired) })

	if !a.Session.Authenticated() {
		m.startLogin("")
	}
	return m
}

// wake signals ch without blocking; pending signals coalesce
func wake(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Close detaches the model from the stores
func (m Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
}

func (m *Model) startLogin(reason string) {
	m.mode = ModeLogin
	m.loginErr = reason
	m.loginFocus = 0
	m.loggingIn = false
	m.undo = nil
	m.password.SetValue("")
	m.password.Blur()
	m.username.Focus()
}

func (m Model) pager(p Pane) pager {
	switch p {
	case PanePriorities:
		return m.app.Priorities
	case PaneStatuses:
		return m.app.Statuses
	default:
		return m.app.Todos
	}
}

// visibleLen returns the rows of pane p after search
func (m Model) visibleLen(p Pane) int {
	switch p {
	case PanePriorities:
		return len(m.app.Priorities.VisibleItems())
	case PaneStatuses:
		return len(m.app.Statuses.VisibleItems())
	default:
		return len(m.app.Todos.VisibleItems())
	}
}

func (m Model) searchOf(p Pane) string {
	switch p {
	case PanePriorities:
		return m.app.Priorities.Snapshot().Search
	case PaneStatuses:
		return m.app.Statuses.Snapshot().Search
	default:
		return m.app.Todos.Snapshot().Search
	}
}

func (m Model) cursor() int {
	return clamp(m.cursors[m.pane], m.visibleLen(m.pane))
}

func (m Model) currentTodo() (model.Todo, bool) {
	items := m.app.Todos.VisibleItems()
	if len(items) == 0 {
		return model.Todo{}, false
	}
	return items[clamp(m.cursors[PaneTodos], len(items))], true
}

func (m Model) currentPriority() (model.Priority, bool) {
	items := m.app.Priorities.VisibleItems()
	if len(items) == 0 {
		return model.Priority{}, false
	}
	return items[clamp(m.cursors[PanePriorities], len(items))], true
}

func (m Model) currentStatus() (model.Status, bool) {
	items := m.app.Statuses.VisibleItems()
	if len(items) == 0 {
		return model.Status{}, false
	}
	return items[clamp(m.cursors[PaneStatuses], len(items))], true
}

// defaultPriority is the priority new todos get
func (m Model) defaultPriority() string {
	if p := model.FindPriority(m.priorities, "medium"); p != nil {
		return p.Key
	}
	if sorted := model.SortPriorities(m.priorities); len(sorted) > 0 {
		return sorted[0].Key
	}
	return "medium"
}

// nextPriorityFilter cycles "" then every priority key in order
func (m Model) nextPriorityFilter(current string) string {
	sorted := model.SortPriorities(m.priorities)
	if current == "" {
		if len(sorted) == 0 {
			return ""
		}
		return sorted[0].Key
	}
	for i, p := range sorted {
		if p.Key == current && i+1 < len(sorted) {
			return sorted[i+1].Key
		}
	}
	return ""
}
