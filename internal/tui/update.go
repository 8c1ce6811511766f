package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/irontodo/internal/api"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/store"
)

// changedMsg is sent when any store published a new state
type changedMsg struct{}

// expiredMsg is sent when the server rejected the session token
type expiredMsg struct{}

// loadedMsg reports the end of a page request
type loadedMsg struct {
	pane Pane
	err  error
}

// doneMsg reports the end of a mutation
type doneMsg struct {
	pane    Pane
	note    string
	err     error
	undo    *store.Undo
	undone  bool // the pending undo was consumed
	catalog bool // the priority set changed
}

// catalogMsg carries the full priority set
type catalogMsg struct {
	priorities []model.Priority
	err        error
}

// loginMsg reports the end of a login attempt
type loginMsg struct {
	user model.User
	err  error
}

// undoTickMsg advances the undo countdown
type undoTickMsg time.Time

// Init starts listening for store events and loads every pane
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForEvent(), m.spinner.Tick, textinput.Blink}
	if m.mode != ModeLogin {
		cmds = append(cmds, m.loadAll())
	}
	return tea.Batch(cmds...)
}

// waitForEvent blocks until a store callback fires
func (m Model) waitForEvent() tea.Cmd {
	changed, expired, ctx := m.changed, m.expired, m.ctx
	return func() tea.Msg {
		select {
		case <-expired:
			return expiredMsg{}
		case <-changed:
			return changedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) loadAll() tea.Cmd {
	return tea.Batch(
		m.navigate(PaneTodos, pager.Refresh),
		m.navigate(PanePriorities, pager.Refresh),
		m.navigate(PaneStatuses, pager.Refresh),
		m.loadCatalog(),
	)
}

// navigate runs a page request on pane p
func (m Model) navigate(p Pane, fn func(pager, context.Context) error) tea.Cmd {
	pg, ctx := m.pager(p), m.ctx
	return func() tea.Msg {
		return loadedMsg{pane: p, err: fn(pg, ctx)}
	}
}

func (m Model) loadCatalog() tea.Cmd {
	svc, ctx := m.app.Services.Priorities, m.ctx
	return func() tea.Msg {
		ps, err := svc.All(ctx)
		return catalogMsg{priorities: ps, err: err}
	}
}

// mutate runs a store mutation and reports note on success
func (m Model) mutate(p Pane, note string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{pane: p, note: note, err: fn(ctx), catalog: p == PanePriorities}
	}
}

func undoTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return undoTickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case changedMsg:
		return m, m.waitForEvent()

	case expiredMsg:
		logger.Info("Session expired, showing login")
		m.startLogin("Session expired, please log in again.")
		return m, tea.Batch(m.waitForEvent(), textinput.Blink)

	case loadedMsg:
		if msg.err != nil {
			logger.Debug("Page request failed", logger.F("pane", msg.pane.String()), logger.F("error", msg.err))
		}
		return m, nil

	case catalogMsg:
		if msg.err == nil && len(msg.priorities) > 0 {
			m.priorities = model.SortPriorities(msg.priorities)
		}
		return m, nil

	case doneMsg:
		return m.handleDone(msg)

	case loginMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.loginErr = msg.err.Error()
			return m, nil
		}
		m.mode = ModeNormal
		m.username.Blur()
		m.password.Blur()
		m.password.SetValue("")
		m.message = fmt.Sprintf("Logged in as %s", msg.user.Username)
		return m, m.loadAll()

	case undoTickMsg:
		if m.undo == nil {
			return m, nil
		}
		if m.undo.Expired() {
			m.undo = nil
			return m, nil
		}
		return m, undoTick()

	case tea.KeyMsg:
		switch m.mode {
		case ModeLogin:
			return m.updateLogin(msg)
		case ModeAdd, ModeEdit:
			return m.updateInput(msg)
		case ModeSearch:
			return m.updateSearch(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

func (m Model) handleDone(msg doneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return m, nil
		}
		m.message = "Error: " + msg.err.Error()
		return m, nil
	}
	m.message = msg.note
	if msg.undone {
		m.undo = nil
	}

	var cmds []tea.Cmd
	if msg.undo != nil {
		m.undo = msg.undo
		cmds = append(cmds, undoTick())
	}
	if msg.catalog {
		cmds = append(cmds, m.loadCatalog())
	}
	return m, tea.Batch(cmds...)
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		m.pane = (m.pane + 1) % paneCount

	case key.Matches(msg, keys.Todos):
		m.pane = PaneTodos

	case key.Matches(msg, keys.Prios):
		m.pane = PanePriorities

	case key.Matches(msg, keys.Stats):
		m.pane = PaneStatuses

	case key.Matches(msg, keys.Up):
		m.cursors[m.pane] = clamp(m.cursor()-1, m.visibleLen(m.pane))

	case key.Matches(msg, keys.Down):
		m.cursors[m.pane] = clamp(m.cursor()+1, m.visibleLen(m.pane))

	case key.Matches(msg, keys.NextPage):
		m.cursors[m.pane] = 0
		return m, m.navigate(m.pane, pager.GoToNext)

	case key.Matches(msg, keys.PrevPage):
		m.cursors[m.pane] = 0
		return m, m.navigate(m.pane, pager.GoToPrev)

	case key.Matches(msg, keys.Refresh):
		m.pager(m.pane).ClearError()
		return m, m.navigate(m.pane, pager.Refresh)

	case key.Matches(msg, keys.Search):
		return m.startInput(ModeSearch, m.searchOf(m.pane), "search this page...")

	case key.Matches(msg, keys.Add):
		placeholder := "New todo title..."
		switch m.pane {
		case PanePriorities:
			placeholder = "New priority name..."
		case PaneStatuses:
			placeholder = "New status name..."
		}
		return m.startInput(ModeAdd, "", placeholder)

	case key.Matches(msg, keys.Edit):
		if t, ok := m.currentTodo(); ok && m.pane == PaneTodos {
			return m.startInput(ModeEdit, t.Title, "Edit todo...")
		}

	case key.Matches(msg, keys.Done), key.Matches(msg, keys.Enter):
		return m, m.handleToggle()

	case key.Matches(msg, keys.Delete):
		return m, m.handleDelete()

	case key.Matches(msg, keys.Undo):
		return m, m.handleUndo()

	case key.Matches(msg, keys.MoveUp), key.Matches(msg, keys.MoveDown):
		delta := 1
		if key.Matches(msg, keys.MoveUp) {
			delta = -1
		}
		cmd := m.handleMove(delta)
		if cmd != nil {
			m.cursors[m.pane] = m.cursor() + delta
		}
		return m, cmd

	case key.Matches(msg, keys.Completed):
		if m.pane == PaneTodos {
			todos := m.app.Todos
			next := store.NextCompleted(todos.Snapshot().Filter.Completed)
			m.cursors[PaneTodos] = 0
			m.message = "Showing " + next
			return m, m.navigate(PaneTodos, func(_ pager, ctx context.Context) error {
				return todos.SetCompletedFilter(ctx, next)
			})
		}

	case key.Matches(msg, keys.Priority):
		if m.pane == PaneTodos {
			todos := m.app.Todos
			next := m.nextPriorityFilter(todos.Snapshot().Filter.Priority)
			m.cursors[PaneTodos] = 0
			m.message = "Priority: " + m.priorityName(next)
			return m, m.navigate(PaneTodos, func(_ pager, ctx context.Context) error {
				return todos.SetPriorityFilter(ctx, next)
			})
		}

	case key.Matches(msg, keys.Sort):
		if m.pane == PaneTodos {
			todos := m.app.Todos
			next := model.NextSort(todos.Snapshot().Filter.Sort)
			m.cursors[PaneTodos] = 0
			m.message = "Sort: " + model.SortLabel(next)
			return m, m.navigate(PaneTodos, func(_ pager, ctx context.Context) error {
				return todos.SetSort(ctx, next)
			})
		}

	case key.Matches(msg, keys.Theme):
		theme := "light"
		if m.styles.theme == "light" {
			theme = "dark"
		}
		m.styles = newStyles(theme)
		if err := m.app.Session.SetTheme(theme); err != nil {
			logger.Warn("Failed to store theme", logger.F("error", err))
		}
		m.message = "Theme: " + theme

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Escape):
		if m.searchOf(m.pane) != "" {
			m.pager(m.pane).SetSearch("")
			m.message = "Search cleared"
		}

	case key.Matches(msg, keys.Logout):
		if err := m.app.Logout(); err != nil {
			m.message = fmt.Sprintf("Logout error: %v", err)
			return m, nil
		}
		m.message = "Logged out"
		m.startLogin("")
		return m, textinput.Blink
	}

	return m, nil
}

func (m Model) priorityName(key string) string {
	if key == "" {
		return "all"
	}
	if p := model.FindPriority(m.priorities, key); p != nil {
		return p.Name
	}
	return key
}

func (m Model) handleToggle() tea.Cmd {
	switch m.pane {
	case PaneTodos:
		t, ok := m.currentTodo()
		if !ok {
			return nil
		}
		todos := m.app.Todos
		note := fmt.Sprintf("Completed: %s", t.Title)
		if t.Completed {
			note = fmt.Sprintf("Reopened: %s", t.Title)
		}
		return m.mutate(PaneTodos, note, func(ctx context.Context) error {
			_, err := todos.Toggle(ctx, t.Key)
			return err
		})

	case PaneStatuses:
		s, ok := m.currentStatus()
		if !ok || s.IsDefault {
			return nil
		}
		statuses := m.app.Statuses
		return m.mutate(PaneStatuses, fmt.Sprintf("Default status: %s", s.Name), func(ctx context.Context) error {
			_, err := statuses.Patch(ctx, s.Key, model.StatusPatch{IsDefault: model.BoolPtr(true)})
			return err
		})
	}
	return nil
}

func (m Model) handleDelete() tea.Cmd {
	switch m.pane {
	case PaneTodos:
		t, ok := m.currentTodo()
		if !ok {
			return nil
		}
		todos, window, ctx := m.app.Todos, m.app.Config.UndoWindow, m.ctx
		return func() tea.Msg {
			u, err := todos.DeleteWithUndo(ctx, t.Key, window)
			return doneMsg{pane: PaneTodos, note: fmt.Sprintf("Deleted: %s", t.Title), err: err, undo: u}
		}

	case PanePriorities:
		p, ok := m.currentPriority()
		if !ok {
			return nil
		}
		priorities := m.app.Priorities
		return m.mutate(PanePriorities, fmt.Sprintf("Deleted priority %s", p.Name), func(ctx context.Context) error {
			return priorities.Delete(ctx, p.Key)
		})

	case PaneStatuses:
		s, ok := m.currentStatus()
		if !ok {
			return nil
		}
		statuses := m.app.Statuses
		return m.mutate(PaneStatuses, fmt.Sprintf("Deleted status %s", s.Name), func(ctx context.Context) error {
			return statuses.Delete(ctx, s.Key)
		})
	}
	return nil
}

func (m Model) handleUndo() tea.Cmd {
	u := m.undo
	if u == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		_, err := u.Restore(ctx)
		if errors.Is(err, store.ErrUndoExpired) || errors.Is(err, store.ErrUndoUsed) {
			return doneMsg{pane: PaneTodos, note: "Nothing to undo", undone: true}
		}
		return doneMsg{pane: PaneTodos, note: fmt.Sprintf("Restored: %s", u.Deleted().Title), err: err, undone: err == nil}
	}
}

// handleMove shifts the selected priority or status by delta positions
func (m Model) handleMove(delta int) tea.Cmd {
	switch m.pane {
	case PanePriorities:
		p, ok := m.currentPriority()
		total := m.app.Priorities.Snapshot().Total
		if !ok || p.Order+delta < 1 || p.Order+delta > total {
			return nil
		}
		priorities := m.app.Priorities
		return m.mutate(PanePriorities, fmt.Sprintf("Moved %s to %d", p.Name, p.Order+delta), func(ctx context.Context) error {
			return priorities.Reorder(ctx, p.Key, p.Order, p.Order+delta)
		})

	case PaneStatuses:
		s, ok := m.currentStatus()
		total := m.app.Statuses.Snapshot().Total
		if !ok || s.Order+delta < 1 || s.Order+delta > total {
			return nil
		}
		statuses := m.app.Statuses
		return m.mutate(PaneStatuses, fmt.Sprintf("Moved %s to %d", s.Name, s.Order+delta), func(ctx context.Context) error {
			return statuses.Reorder(ctx, s.Key, s.Order, s.Order+delta)
		})
	}
	return nil
}

func (m Model) startInput(mode Mode, value, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.Focus()
	m.input.CursorEnd()
	return m, textinput.Blink
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Enter):
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = ModeNormal
		m.input.Blur()
		if value == "" {
			return m, nil
		}
		if mode == ModeEdit {
			return m, m.submitEdit(value)
		}
		return m, m.submitAdd(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitAdd(value string) tea.Cmd {
	switch m.pane {
	case PanePriorities:
		priorities := m.app.Priorities
		draft := model.PriorityDraft{
			Name:  value,
			Color: "#4ECDC4",
			Icon:  "fa-circle",
			Order: priorities.Snapshot().Total + 1,
		}
		return m.mutate(PanePriorities, fmt.Sprintf("Created priority %s", value), func(ctx context.Context) error {
			_, err := priorities.Add(ctx, draft)
			return err
		})

	case PaneStatuses:
		statuses := m.app.Statuses
		draft := model.StatusDraft{
			Name:  value,
			Color: "#6B7280",
			Icon:  "fa-circle",
			Order: statuses.Snapshot().Total + 1,
		}
		return m.mutate(PaneStatuses, fmt.Sprintf("Created status %s", value), func(ctx context.Context) error {
			_, err := statuses.Add(ctx, draft)
			return err
		})
	}

	draft := model.TodoDraft{Title: value, Priority: m.defaultPriority()}
	if s := m.app.Statuses.Default(); s != nil {
		draft.Status = model.StringPtr(s.Key)
	}
	todos := m.app.Todos
	return m.mutate(PaneTodos, fmt.Sprintf("Added: %s", value), func(ctx context.Context) error {
		_, err := todos.Add(ctx, draft)
		return err
	})
}

func (m Model) submitEdit(value string) tea.Cmd {
	t, ok := m.currentTodo()
	if !ok {
		return nil
	}
	todos := m.app.Todos
	return m.mutate(PaneTodos, fmt.Sprintf("Updated: %s", value), func(ctx context.Context) error {
		_, err := todos.Edit(ctx, t.Key, model.TodoPatch{Title: model.StringPtr(value)})
		return err
	})
}

// updateSearch narrows the focused page as the user types
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.input.Blur()
		m.pager(m.pane).SetSearch("")
		return m, nil

	case key.Matches(msg, keys.Enter):
		m.mode = ModeNormal
		m.input.Blur()
		m.cursors[m.pane] = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.pager(m.pane).SetSearch(m.input.Value())
	m.cursors[m.pane] = 0
	return m, cmd
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loggingIn {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "tab", "shift+tab", "up", "down":
		m.focusLogin(1 - m.loginFocus)
		return m, textinput.Blink

	case "enter":
		if m.loginFocus == 0 {
			m.focusLogin(1)
			return m, textinput.Blink
		}
		username := strings.TrimSpace(m.username.Value())
		password := m.password.Value()
		if username == "" || password == "" {
			m.loginErr = "Username and password are required."
			return m, nil
		}
		m.loggingIn = true
		m.loginErr = ""
		users, ctx := m.app.User, m.ctx
		return m, func() tea.Msg {
			u, err := users.Login(ctx, username, password)
			return loginMsg{user: u, err: err}
		}
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusLogin(field int) {
	m.loginFocus = field
	if field == 0 {
		m.password.Blur()
		m.username.Focus()
		return
	}
	m.username.Blur()
	m.password.Focus()
}
