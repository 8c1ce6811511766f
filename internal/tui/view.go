package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/irontodo/internal/model"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	var body string
	switch m.mode {
	case ModeLogin:
		body = m.place(bodyHeight, m.renderLogin())
	case ModeAdd, ModeEdit:
		body = m.place(bodyHeight, m.renderModal())
	case ModeHelp:
		body = m.place(bodyHeight, m.renderHelp())
	default:
		body = m.styles.List.Width(m.width).Height(bodyHeight).Render(m.renderPane())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}

func (m Model) place(height int, modal string) string {
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, modal,
		lipgloss.WithWhitespaceChars(" "))
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render("IronTodo")

	counts := [paneCount]int{
		m.app.Todos.Snapshot().Total,
		m.app.Priorities.Snapshot().Total,
		m.app.Statuses.Snapshot().Total,
	}
	tabs := make([]string, 0, paneCount)
	for p := Pane(0); p < paneCount; p++ {
		label := fmt.Sprintf("%d %s (%d)", int(p)+1, p, counts[p])
		style := m.styles.Tabs
		if p == m.pane && m.mode != ModeLogin {
			style = m.styles.TabActive
		}
		tabs = append(tabs, style.Render(label))
	}

	who := ""
	if u := m.app.User.Snapshot().User; u != nil {
		who = m.styles.Help.Render(u.Username)
	}

	left := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", strings.Join(tabs, ""))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(who) - 1
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + who
}

// banners renders the loading and error states above a pane's content
func (m Model) banners(loading bool, errMsg string) string {
	var s string
	if loading {
		s += m.spinner.View() + " " + m.styles.Help.Render("Loading...") + "\n"
	}
	if errMsg != "" {
		s += m.styles.Error.Render("⚠ "+errMsg) + "  " + m.styles.Help.Render("press r to retry") + "\n"
	}
	return s
}

func (m Model) pageFooter(hasPrev, hasNext bool) string {
	var hints []string
	if hasPrev {
		hints = append(hints, "[ prev page")
	}
	if hasNext {
		hints = append(hints, "] next page")
	}
	if len(hints) == 0 {
		return ""
	}
	return "\n" + m.styles.Help.Render(strings.Join(hints, "  ·  "))
}

func (m Model) renderPane() string {
	switch m.pane {
	case PanePriorities:
		return m.renderPriorities()
	case PaneStatuses:
		return m.renderStatuses()
	default:
		return m.renderTodos()
	}
}

func (m Model) divider() string {
	w := m.width - 6
	if w < 10 {
		w = 10
	}
	return m.styles.Divider.Render(strings.Repeat("─", w))
}

func (m Model) renderTodos() string {
	st := m.app.Todos.Snapshot()
	items := m.app.Todos.VisibleItems()
	statuses := m.app.Statuses.Snapshot().Items

	completed := st.Filter.Completed
	if completed == "" {
		completed = "all"
	}
	header := fmt.Sprintf("Todos · page %d/%d · %d total · %s · showing %s · priority %s",
		st.Page, st.TotalPages(), st.Total, model.SortLabel(st.Filter.Sort), completed,
		m.priorityName(st.Filter.Priority))

	s := m.styles.Header.Render(header) + "\n" + m.divider() + "\n"
	s += m.banners(st.Loading, st.Err)
	if st.Search != "" {
		s += m.styles.Help.Render(fmt.Sprintf("search: %q (%d of %d on this page)", st.Search, len(items), len(st.Items))) + "\n"
	}
	s += "\n"

	if len(items) == 0 && !st.Loading {
		if st.Search != "" {
			s += m.styles.Help.Render("  No todos on this page match.")
		} else if st.Err == "" {
			s += m.styles.Help.Render("  No todos. Press 'a' to add one.")
		}
	}

	width := m.width - 40
	if width < 10 {
		width = 10
	}
	cursor := clamp(m.cursors[PaneTodos], len(items))
	for i, t := range items {
		marker := "  "
		style := m.styles.Item
		if i == cursor {
			marker = "❯ "
			style = m.styles.ItemSelected
		}
		icon := "[ ]"
		if t.Completed {
			icon = "[x]"
			style = m.styles.ItemDone
		}

		prio := t.Priority
		color := ""
		if p := model.FindPriority(m.priorities, t.Priority); p != nil {
			prio = model.IconFor(*p).Glyph + " " + p.Name
			color = p.Color
		}
		status := ""
		if sv := model.FindStatus(statuses, t.StatusKey()); sv != nil {
			status = m.styles.swatch(sv.Color, sv.Name)
		} else if t.StatusKey() != "" {
			status = m.styles.Help.Render(t.StatusKey())
		}

		line := style.Render(fmt.Sprintf("%s%s %-*s", marker, icon, width, truncate(t.Title, width)))
		s += line + " " + m.styles.swatch(color, fmt.Sprintf("%-12s", truncate(prio, 12))) + " " + status + "\n"
	}

	return s + m.pageFooter(st.HasPrev(), st.HasNext())
}

func (m Model) renderPriorities() string {
	st := m.app.Priorities.Snapshot()
	items := m.app.Priorities.VisibleItems()

	header := fmt.Sprintf("Priorities · page %d/%d · %d total", st.Page, st.TotalPages(), st.Total)
	s := m.styles.Header.Render(header) + "\n" + m.divider() + "\n"
	s += m.banners(st.Loading, st.Err) + "\n"

	if len(items) == 0 && !st.Loading && st.Err == "" {
		s += m.styles.Help.Render("  No priorities. Press 'a' to add one.")
	}

	cursor := clamp(m.cursors[PanePriorities], len(items))
	for i, p := range items {
		marker := "  "
		style := m.styles.Item
		if i == cursor {
			marker = "❯ "
			style = m.styles.ItemSelected
		}
		glyph := m.styles.swatch(p.Color, model.IconFor(p).Glyph)
		s += style.Render(fmt.Sprintf("%s%2d", marker, p.Order)) + " " + glyph + " " +
			style.Render(fmt.Sprintf("%-20s %s", truncate(p.Name, 20), truncate(p.Description, 40))) + "\n"
	}

	s += m.pageFooter(st.HasPrev(), st.HasNext())
	return s + "\n" + m.styles.Help.Render("K/J move  a add  d delete")
}

func (m Model) renderStatuses() string {
	st := m.app.Statuses.Snapshot()
	items := m.app.Statuses.VisibleItems()

	header := fmt.Sprintf("Statuses · page %d/%d · %d total", st.Page, st.TotalPages(), st.Total)
	s := m.styles.Header.Render(header) + "\n" + m.divider() + "\n"
	s += m.banners(st.Loading, st.Err) + "\n"

	if len(items) == 0 && !st.Loading && st.Err == "" {
		s += m.styles.Help.Render("  No statuses.")
	}

	cursor := clamp(m.cursors[PaneStatuses], len(items))
	for i, x := range items {
		marker := "  "
		style := m.styles.Item
		if i == cursor {
			marker = "❯ "
			style = m.styles.ItemSelected
		}
		def := " "
		if x.IsDefault {
			def = "*"
		}
		glyph := m.styles.swatch(x.Color, model.LookupIcon(x.Icon).Glyph)
		s += style.Render(fmt.Sprintf("%s%2d", marker, x.Order)) + " " + glyph + " " +
			style.Render(fmt.Sprintf("%-20s %s %s", truncate(x.Name, 20), def, truncate(x.Description, 40))) + "\n"
	}

	s += m.pageFooter(st.HasPrev(), st.HasNext())
	return s + "\n" + m.styles.Help.Render("K/J move  a add  d delete  enter make default (*)")
}

func (m Model) renderStatusBar() string {
	if m.mode == ModeSearch {
		return m.styles.StatusBar.Width(m.width).Render("/" + m.input.View())
	}

	text := m.help.View(keys)
	switch {
	case m.undo != nil && !m.undo.Expired():
		secs := int(m.undo.Remaining().Seconds() + 0.5)
		text = m.styles.Toast.Render(fmt.Sprintf("Deleted %q · u to undo (%ds)", m.undo.Deleted().Title, secs))
	case m.message != "":
		text = m.message
	}
	return m.styles.StatusBar.Width(m.width).Render(text)
}

func (m Model) renderModal() string {
	title := "Add Todo"
	switch {
	case m.mode == ModeEdit:
		title = "Edit Todo"
	case m.pane == PanePriorities:
		title = "New Priority"
	case m.pane == PaneStatuses:
		title = "New Status"
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += m.styles.Help.Render("Enter:save  Esc:cancel")
	return m.styles.Modal.Render(content)
}

func (m Model) renderLogin() string {
	content := m.styles.Header.Render("Log in to IronTodo") + "\n\n"
	content += m.username.View() + "\n"
	content += m.password.View() + "\n\n"
	switch {
	case m.loggingIn:
		content += m.spinner.View() + " " + m.styles.Help.Render("Logging in...") + "\n\n"
	case m.loginErr != "":
		content += m.styles.Error.Render(m.loginErr) + "\n\n"
	}
	content += m.styles.Help.Render("Tab:switch field  Enter:submit  Esc:quit")
	return m.styles.Modal.Width(50).Render(content)
}

func (m Model) renderHelp() string {
	full := m.help
	full.ShowAll = true
	content := m.styles.Header.Render("Keyboard Shortcuts") + "\n\n" + full.View(keys) + "\n\n"
	content += m.styles.Help.Render("Press any key to close")
	return m.styles.Modal.Render(content)
}
