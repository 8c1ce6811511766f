package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/config"
	"github.com/existflow/irontodo/internal/fakeapi"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/store"
)

type tuiHarness struct {
	t    *testing.T
	app  *app.App
	fake *fakeapi.Server
	user model.User
	m    Model
}

func newTUIHarness(t *testing.T, login bool) *tuiHarness {
	t.Helper()
	fake := fakeapi.New()
	srv := httptest.NewServer(fake.Router())
	t.Cleanup(srv.Close)

	u, err := fake.SeedUser("ann", "password123")
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.APIURL = srv.URL + fakeapi.Prefix
	cfg.StoragePath = filepath.Join(t.TempDir(), "state.db")
	cfg.StorageKey = ""
	cfg.Prefetch = false

	a, err := app.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if login {
		if _, err := a.User.Login(ctx, "ann", "password123"); err != nil {
			t.Fatal(err)
		}
	}

	h := &tuiHarness{t: t, app: a, fake: fake, user: u, m: NewModel(ctx, a)}
	t.Cleanup(h.m.Close)
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// settled are the messages whose follow-up commands are run synchronously
func settled(msg tea.Msg) bool {
	switch msg.(type) {
	case loadedMsg, doneMsg, catalogMsg, loginMsg, expiredMsg, tea.WindowSizeMsg, tea.KeyMsg:
		return true
	}
	return false
}

// send feeds msg to the model and runs the resulting commands. Commands that
// do not answer quickly (ticks, blinks, event waits) are dropped.
func (h *tuiHarness) send(msg tea.Msg) {
	h.t.Helper()
	if !settled(msg) {
		return
	}
	typing := false
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyRunes {
		switch h.m.mode {
		case ModeLogin, ModeAdd, ModeEdit, ModeSearch:
			typing = true
		}
	}
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	if typing {
		// only the cursor blink
		return
	}
	h.run(cmd)
}

func (h *tuiHarness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()

	select {
	case msg := <-out:
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				h.run(c)
			}
			return
		}
		h.send(msg)
	case <-time.After(2 * time.Second):
	}
}

// deliver feeds a pending session expiry to the model
func (h *tuiHarness) deliver() {
	select {
	case <-h.m.expired:
		h.send(expiredMsg{})
	default:
	}
}

func (h *tuiHarness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		h.send(msg)
	}
}

func (h *tuiHarness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *tuiHarness) load() {
	h.t.Helper()
	h.run(h.m.loadAll())
}

func (h *tuiHarness) seed(drafts ...model.TodoDraft) []model.Todo {
	return h.fake.SeedTodos(h.user.Key, drafts...)
}

func TestLoginPrompt(t *testing.T) {
	h := newTUIHarness(t, false)

	if h.m.mode != ModeLogin {
		t.Fatalf("mode = %v, want login", h.m.mode)
	}
	if view := h.m.View(); !strings.Contains(view, "Log in to IronTodo") {
		t.Errorf("view has no login prompt:\n%s", view)
	}

	h.seed(model.TodoDraft{Title: "Buy milk", Priority: "high"})
	h.typeText("ann")
	h.press("enter")
	h.typeText("wrong")
	h.press("enter")
	if h.m.mode != ModeLogin || h.m.loginErr == "" {
		t.Fatalf("bad password: mode = %v, err = %q", h.m.mode, h.m.loginErr)
	}

	h.m.password.SetValue("")
	h.typeText("password123")
	h.press("enter")
	if h.m.mode != ModeNormal {
		t.Fatalf("mode after login = %v, err = %q", h.m.mode, h.m.loginErr)
	}
	if view := h.m.View(); !strings.Contains(view, "Buy milk") {
		t.Errorf("todos not loaded after login:\n%s", view)
	}
}

func TestPaneRenderStates(t *testing.T) {
	h := newTUIHarness(t, true)
	h.seed(model.TodoDraft{Title: "Buy milk", Priority: "high"})

	h.fake.Fail(http.MethodGet, "/todos", http.StatusInternalServerError, 1)
	h.load()
	view := h.m.View()
	if !strings.Contains(view, "press r to retry") {
		t.Fatalf("no error banner:\n%s", view)
	}

	h.press("r")
	view = h.m.View()
	if strings.Contains(view, "press r to retry") || !strings.Contains(view, "Buy milk") {
		t.Errorf("retry did not recover:\n%s", view)
	}
}

func TestNavigateTodoPages(t *testing.T) {
	h := newTUIHarness(t, true)
	var drafts []model.TodoDraft
	for i := 0; i < 15; i++ {
		drafts = append(drafts, model.TodoDraft{Title: "chore", Priority: "low"})
	}
	h.seed(drafts...)
	h.load()

	if !strings.Contains(h.m.View(), "page 1/2") {
		t.Fatalf("first page view:\n%s", h.m.View())
	}
	h.press("]")
	if got := h.app.Todos.Snapshot().Page; got != 2 {
		t.Errorf("page after next = %d", got)
	}
	if view := h.m.View(); !strings.Contains(view, "page 2/2") || !strings.Contains(view, "prev page") {
		t.Errorf("second page view:\n%s", view)
	}
	h.press("[")
	if got := h.app.Todos.Snapshot().Page; got != 1 {
		t.Errorf("page after prev = %d", got)
	}
}

func TestFilterAndSortCycling(t *testing.T) {
	h := newTUIHarness(t, true)
	h.seed(
		model.TodoDraft{Title: "open", Priority: "low"},
		model.TodoDraft{Title: "closed", Priority: "high", Completed: true},
	)
	h.load()

	h.press("c")
	st := h.app.Todos.Snapshot()
	if st.Filter.Completed != store.CompletedIncomplete || st.Page != 1 || st.Total != 1 {
		t.Errorf("after c: filter = %q, page = %d, total = %d", st.Filter.Completed, st.Page, st.Total)
	}

	h.press("p")
	if got := h.app.Todos.Snapshot().Filter.Priority; got != "low" {
		t.Errorf("priority filter = %q, want the lowest order priority", got)
	}

	h.press("s")
	if got := h.app.Todos.Snapshot().Filter.Sort; got != model.NextSort(model.DefaultSort) {
		t.Errorf("sort = %q", got)
	}
}

func TestSearchNarrowsPage(t *testing.T) {
	h := newTUIHarness(t, true)
	h.seed(
		model.TodoDraft{Title: "pay rent", Priority: "high"},
		model.TodoDraft{Title: "walk dog", Priority: "low"},
	)
	h.load()

	h.press("/")
	h.typeText("RENT")
	if got := len(h.app.Todos.VisibleItems()); got != 1 {
		t.Errorf("visible = %d, want 1", got)
	}
	h.press("enter")
	if h.m.mode != ModeNormal || h.app.Todos.Snapshot().Search != "RENT" {
		t.Errorf("search not kept: mode = %v, search = %q", h.m.mode, h.app.Todos.Snapshot().Search)
	}

	h.press("esc")
	if got := len(h.app.Todos.VisibleItems()); got != 2 {
		t.Errorf("visible after clear = %d", got)
	}
}

func TestAddToggleDeleteUndo(t *testing.T) {
	h := newTUIHarness(t, true)
	h.load()

	h.press("a")
	h.typeText("Buy milk")
	h.press("enter")
	items := h.app.Todos.Snapshot().Items
	if len(items) != 1 || items[0].Title != "Buy milk" || items[0].Priority != "medium" {
		t.Fatalf("items after add = %+v", items)
	}
	if items[0].StatusKey() != "todo" {
		t.Errorf("status = %q, want the default status", items[0].StatusKey())
	}

	h.press("x")
	if !h.app.Todos.Snapshot().Items[0].Completed {
		t.Error("toggle did not complete the todo")
	}

	oldKey := items[0].Key
	h.press("d")
	if got := h.app.Todos.Snapshot().Total; got != 0 {
		t.Fatalf("total after delete = %d", got)
	}
	if view := h.m.View(); !strings.Contains(view, "u to undo") {
		t.Errorf("no undo toast:\n%s", view)
	}

	h.press("u")
	restored := h.app.Todos.Snapshot().Items
	if len(restored) != 1 || restored[0].Title != "Buy milk" || restored[0].Key == oldKey {
		t.Errorf("restored = %+v", restored)
	}
	if h.m.undo != nil {
		t.Error("undo still pending after restore")
	}
}

func TestEditTitle(t *testing.T) {
	h := newTUIHarness(t, true)
	h.seed(model.TodoDraft{Title: "Old", Priority: "low"})
	h.load()

	h.press("e")
	h.typeText(" and new")
	h.press("enter")
	if got := h.app.Todos.Snapshot().Items[0].Title; got != "Old and new" {
		t.Errorf("title = %q", got)
	}
}

func TestReorderPriorityKeys(t *testing.T) {
	h := newTUIHarness(t, true)
	h.load()

	h.press("2", "j", "J")
	var names []string
	for _, p := range h.app.Priorities.Snapshot().Items {
		names = append(names, p.Key)
	}
	if got := strings.Join(names, ","); got != "low,high,medium,urgent" {
		t.Errorf("order after move = %s", got)
	}

	h.press("K", "K")
	if first := h.app.Priorities.Snapshot().Items[0].Key; first != "medium" {
		t.Errorf("first after moves = %s", first)
	}
	if h.m.cursor() != 0 {
		t.Errorf("cursor = %d, want it to follow the moved row", h.m.cursor())
	}
}

func TestStatusDefaultKey(t *testing.T) {
	h := newTUIHarness(t, true)
	h.load()

	h.press("3", "j", "enter")
	if d := h.app.Statuses.Default(); d == nil || d.Key != "in-progress" {
		t.Errorf("default = %+v", d)
	}
}

func TestSessionExpiryShowsLogin(t *testing.T) {
	h := newTUIHarness(t, true)
	h.load()

	h.fake.RevokeTokens()
	h.press("r")
	h.deliver()

	if h.m.mode != ModeLogin {
		t.Fatalf("mode = %v, want login", h.m.mode)
	}
	if !strings.Contains(h.m.View(), "Session expired") {
		t.Errorf("view:\n%s", h.m.View())
	}
}

func TestThemeToggle(t *testing.T) {
	h := newTUIHarness(t, true)
	if h.m.styles.theme != "dark" {
		t.Fatalf("theme = %q", h.m.styles.theme)
	}
	h.press("T")
	if h.m.styles.theme != "light" {
		t.Errorf("theme = %q", h.m.styles.theme)
	}
	if got := h.app.Session.Theme("dark"); got != "light" {
		t.Errorf("stored theme = %q", got)
	}
}
