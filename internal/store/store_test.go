package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/existflow/irontodo/internal/api"
	"github.com/existflow/irontodo/internal/fakeapi"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/service"
	"github.com/existflow/irontodo/internal/session"
	"github.com/existflow/irontodo/internal/storage"
)

type harness struct {
	fake     *fakeapi.Server
	session  *session.Manager
	services *service.Services
	user     model.User
}

// newHarness signs a seeded user in against an in-memory API
func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := fakeapi.New()
	srv := httptest.NewServer(fake.Router())
	t.Cleanup(srv.Close)

	kv, err := storage.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })
	sess := session.New(kv)

	client, err := api.New(api.Options{BaseURL: srv.URL + fakeapi.Prefix, Auth: sess})
	if err != nil {
		t.Fatal(err)
	}
	u, err := fake.SeedUser("ann", "password123")
	if err != nil {
		t.Fatal(err)
	}
	services := service.New(client, sess, service.Credentials{})
	if _, err := services.Users.Login(context.Background(), "ann", "password123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	fake.ResetHistory()
	return &harness{fake: fake, session: sess, services: services, user: u}
}

func (h *harness) todoStore() *TodoStore {
	return NewTodoStore(h.services.Todos, TodoOptions{Size: 10, UserKey: h.session.UserKey})
}

func (h *harness) seedTodos(n int) []model.Todo {
	var drafts []model.TodoDraft
	for i := 1; i <= n; i++ {
		drafts = append(drafts, model.TodoDraft{
			Title:     fmt.Sprintf("todo %02d", i),
			Priority:  "medium",
			Completed: i%2 == 0,
		})
	}
	return h.fake.SeedTodos(h.user.Key, drafts...)
}

func (h *harness) lastRequest(t *testing.T) string {
	t.Helper()
	history := h.fake.History()
	if len(history) == 0 {
		t.Fatal("no requests recorded")
	}
	return history[len(history)-1]
}

func names(priorities []model.Priority) []string {
	var out []string
	for _, p := range priorities {
		out = append(out, p.Key)
	}
	return out
}

func TestPriorityPagesToTheEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 21; i++ {
		_, err := h.services.Priorities.Create(ctx, model.PriorityDraft{
			Name:  fmt.Sprintf("Level %d", i),
			Color: "#123456",
			Icon:  "fa-star",
			Order: 5 + i,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	s := NewPriorityStore(h.services.Priorities, 10, false)
	if err := s.FetchPage(ctx, 1, false); err != nil {
		t.Fatal(err)
	}
	if st := s.Snapshot(); st.Total != 25 || s.TotalPages() != 3 {
		t.Fatalf("total = %d, pages = %d; want 25 and 3", st.Total, s.TotalPages())
	}

	for i := 0; i < 2; i++ {
		if err := s.GoToNext(ctx); err != nil {
			t.Fatal(err)
		}
	}
	st := s.Snapshot()
	if st.Page != 3 || len(st.Items) != 5 || st.HasNext() {
		t.Fatalf("page = %d, items = %d, has next = %v", st.Page, len(st.Items), st.HasNext())
	}

	before := h.fake.Requests(http.MethodGet, fakeapi.Prefix+"/priorities")
	if err := s.GoToNext(ctx); err != nil {
		t.Fatal(err)
	}
	if h.fake.Requests(http.MethodGet, fakeapi.Prefix+"/priorities") != before {
		t.Error("GoToNext on the last page made a request")
	}
	if s.Snapshot().Page != 3 {
		t.Error("GoToNext on the last page moved")
	}
}

func TestCreateTodoInvalidatesCache(t *testing.T) {
	h := newHarness(t)
	h.seedTodos(15)
	s := h.todoStore()
	ctx := context.Background()

	if err := s.FetchPage(ctx, 1, false); err != nil {
		t.Fatal(err)
	}
	if err := s.GoToNext(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.GoToPrev(ctx); err != nil {
		t.Fatal(err)
	}
	if s.CacheLen() != 2 {
		t.Fatalf("cache = %d pages, want 2", s.CacheLen())
	}

	lists := h.fake.Requests(http.MethodGet, fakeapi.Prefix+"/todos")
	created, err := s.Add(ctx, model.TodoDraft{Title: "Buy milk", Priority: "high"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if created.UserKey != h.user.Key {
		t.Errorf("user key = %q, want %q", created.UserKey, h.user.Key)
	}

	if h.fake.Requests(http.MethodGet, fakeapi.Prefix+"/todos") != lists+1 {
		t.Error("current page was not refetched after create")
	}
	if s.CacheLen() != 1 || !s.Cached(1) {
		t.Errorf("cache = %d pages, want only the refetched page", s.CacheLen())
	}

	found := false
	for _, todo := range s.Snapshot().Items {
		if todo.Key == created.Key && todo.Title == "Buy milk" {
			found = true
		}
	}
	if !found {
		t.Errorf("new todo missing from %v", s.Snapshot().Items)
	}
}

func TestAddRejectsInvalidDraft(t *testing.T) {
	h := newHarness(t)
	s := h.todoStore()

	_, err := s.Add(context.Background(), model.TodoDraft{Title: "  "})
	var verrs model.ValidationErrors
	if !errors.As(err, &verrs) || verrs.Field("title") == "" {
		t.Fatalf("Add = %v, want a title error", err)
	}
	if n := h.fake.Requests(http.MethodPost, fakeapi.Prefix+"/todos"); n != 0 {
		t.Errorf("invalid draft reached the server %d times", n)
	}
}

func TestCompletedFilterResetsToFirstPage(t *testing.T) {
	h := newHarness(t)
	h.seedTodos(40)
	s := h.todoStore()
	ctx := context.Background()

	if err := s.FetchPage(ctx, 4, false); err != nil {
		t.Fatal(err)
	}
	if st := s.Snapshot(); st.Page != 4 {
		t.Fatalf("page = %d, want 4", st.Page)
	}

	if err := s.SetCompletedFilter(ctx, CompletedOnly); err != nil {
		t.Fatal(err)
	}
	last := h.lastRequest(t)
	if !strings.Contains(last, "completed=true") || !strings.Contains(last, "page=1") {
		t.Errorf("last request = %q, want page 1 of completed todos", last)
	}

	st := s.Snapshot()
	if st.Page != 1 || st.Total != 20 {
		t.Errorf("page = %d, total = %d", st.Page, st.Total)
	}
	for _, todo := range st.Items {
		if !todo.Completed {
			t.Errorf("incomplete todo %q in completed view", todo.Title)
		}
	}

	if err := s.SetCompletedFilter(ctx, "maybe"); err == nil {
		t.Error("unknown completed filter accepted")
	}
}

func TestTodoFilterValues(t *testing.T) {
	tests := []struct {
		filter TodoFilter
		want   string
	}{
		{TodoFilter{Completed: CompletedAll}, ""},
		{TodoFilter{Completed: CompletedOnly}, "completed=true"},
		{TodoFilter{Completed: CompletedIncomplete, Priority: "high"}, "completed=false&priority=high"},
		{TodoFilter{Sort: model.SortTextAsc, Status: "done"}, "sort=text-asc&status=done"},
	}
	for _, tt := range tests {
		if got := tt.filter.Values().Encode(); got != tt.want {
			t.Errorf("%+v encodes %q, want %q", tt.filter, got, tt.want)
		}
	}
}

func TestStatusesNotFoundShowsEmptyList(t *testing.T) {
	h := newHarness(t)
	h.fake.DisableStatuses(true)
	s := NewStatusStore(h.services.Statuses, 50, false)

	if err := s.FetchPage(context.Background(), 1, false); err != nil {
		t.Fatalf("FetchPage = %v, want nil", err)
	}
	st := s.Snapshot()
	if len(st.Items) != 0 || st.Total != 0 || st.Err != "" {
		t.Errorf("state = %+v, want empty without error", st)
	}
	if s.Default() != nil {
		t.Error("Default on an empty list")
	}
}

func TestStatusStoreDefault(t *testing.T) {
	h := newHarness(t)
	s := NewStatusStore(h.services.Statuses, 50, false)
	if err := s.FetchPage(context.Background(), 1, false); err != nil {
		t.Fatal(err)
	}
	def := s.Default()
	if def == nil || def.Key != "todo" {
		t.Errorf("Default = %+v, want todo", def)
	}
}

func TestReorderReloadsServerOrder(t *testing.T) {
	h := newHarness(t)
	s := NewPriorityStore(h.services.Priorities, 10, false)
	ctx := context.Background()

	if err := s.FetchPage(ctx, 1, false); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"low", "medium", "high", "urgent"}, names(s.Snapshot().Items)); diff != "" {
		t.Fatalf("initial order mismatch (-want +got):\n%s", diff)
	}

	if err := s.Reorder(ctx, "medium", 2, 4); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	items := s.Snapshot().Items
	if diff := cmp.Diff([]string{"low", "high", "urgent", "medium"}, names(items)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	for i, p := range items {
		if p.Order != i+1 {
			t.Errorf("%s order = %d, want %d", p.Key, p.Order, i+1)
		}
	}

	if err := s.Reorder(ctx, "medium", 0, 2); err == nil {
		t.Error("Reorder accepted order 0")
	}
}

func TestReorderStaleFromOrderSetsError(t *testing.T) {
	h := newHarness(t)
	s := NewPriorityStore(h.services.Priorities, 10, false)
	ctx := context.Background()

	if err := s.FetchPage(ctx, 1, false); err != nil {
		t.Fatal(err)
	}
	err := s.Reorder(ctx, "medium", 3, 1)
	if !errors.Is(err, api.ErrBadRequest) {
		t.Fatalf("Reorder = %v, want bad request", err)
	}
	if s.Snapshot().Err == "" {
		t.Error("error not recorded")
	}
}

func TestPriorityStoreCRUD(t *testing.T) {
	h := newHarness(t)
	s := NewPriorityStore(h.services.Priorities, 10, false)
	ctx := context.Background()

	created, err := s.Add(ctx, model.PriorityDraft{Name: "Someday", Color: "#aabbcc", Icon: "fa-clock", Order: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Items[0].Key; got != created.Key {
		t.Errorf("first priority = %q, want the new one", got)
	}

	patched, err := s.Patch(ctx, created.Key, model.PriorityPatch{Name: model.StringPtr("Later")})
	if err != nil {
		t.Fatal(err)
	}
	if patched.Name != "Later" || patched.Color != "#aabbcc" {
		t.Errorf("patched = %+v", patched)
	}

	if _, err := s.Update(ctx, created.Key, model.PriorityDraft{Name: "Later", Color: "nope", Icon: "fa-clock", Order: 1}); err == nil {
		t.Error("Update accepted a bad color")
	}

	avail, err := s.CheckAvailability(ctx, model.PriorityDraft{Name: "Later"})
	if err != nil {
		t.Fatal(err)
	}
	if avail.Available {
		t.Error("taken name reported available")
	}

	if err := s.Delete(ctx, created.Key); err != nil {
		t.Fatal(err)
	}
	if st := s.Snapshot(); st.Total != 4 {
		t.Errorf("total after delete = %d, want 4", st.Total)
	}
}

func TestToggleAndEdit(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedTodos(1)
	s := h.todoStore()
	ctx := context.Background()
	key := seeded[0].Key

	if err := s.FetchPage(ctx, 1, false); err != nil {
		t.Fatal(err)
	}
	toggled, err := s.Toggle(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if !toggled.Completed {
		t.Error("Toggle did not complete the todo")
	}

	edited, err := s.Edit(ctx, key, model.TodoPatch{Title: model.StringPtr("renamed")})
	if err != nil {
		t.Fatal(err)
	}
	if edited.Title != "renamed" || !edited.Completed || edited.Priority != "medium" {
		t.Errorf("edited = %+v", edited)
	}
	if got := s.Snapshot().Items[0].Title; got != "renamed" {
		t.Errorf("list shows %q after edit", got)
	}
}

func TestDeleteLastItemStepsBack(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedTodos(11)
	s := h.todoStore()
	ctx := context.Background()

	if err := s.FetchPage(ctx, 2, false); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, seeded[10].Key); err != nil {
		t.Fatal(err)
	}
	st := s.Snapshot()
	if st.Page != 1 || len(st.Items) != 10 || st.Total != 10 {
		t.Errorf("page = %d, items = %d, total = %d", st.Page, len(st.Items), st.Total)
	}
}

func TestUndoRecreatesWithNewKey(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedTodos(3)
	s := h.todoStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	if err := s.FetchPage(ctx, 1, false); err != nil {
		t.Fatal(err)
	}
	undo, err := s.DeleteWithUndo(ctx, seeded[0].Key, 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if st := s.Snapshot(); st.Total != 2 {
		t.Fatalf("total after delete = %d, want 2", st.Total)
	}
	if undo.Remaining() != 30*time.Second || undo.Expired() {
		t.Errorf("remaining = %v", undo.Remaining())
	}

	now = now.Add(10 * time.Second)
	restored, err := undo.Restore(ctx)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.Key == seeded[0].Key {
		t.Error("restored todo kept the deleted key")
	}
	if restored.Title != seeded[0].Title || restored.Priority != seeded[0].Priority {
		t.Errorf("restored = %+v, want fields of %+v", restored, seeded[0])
	}
	if st := s.Snapshot(); st.Total != 3 {
		t.Errorf("total after restore = %d, want 3", st.Total)
	}

	if _, err := undo.Restore(ctx); !errors.Is(err, ErrUndoUsed) {
		t.Errorf("second Restore = %v, want ErrUndoUsed", err)
	}
}

func TestUndoExpires(t *testing.T) {
	h := newHarness(t)
	seeded := h.seedTodos(1)
	s := h.todoStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	undo, err := s.DeleteWithUndo(ctx, seeded[0].Key, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(5 * time.Second)
	if !undo.Expired() || undo.Remaining() != 0 {
		t.Errorf("expired = %v, remaining = %v", undo.Expired(), undo.Remaining())
	}
	if _, err := undo.Restore(ctx); !errors.Is(err, ErrUndoExpired) {
		t.Errorf("Restore = %v, want ErrUndoExpired", err)
	}
	if n := h.fake.Requests(http.MethodPost, fakeapi.Prefix+"/todos"); n != 0 {
		t.Errorf("expired undo created %d todos", n)
	}
}

func TestServerErrorBanner(t *testing.T) {
	h := newHarness(t)
	s := h.todoStore()
	h.fake.Fail(http.MethodGet, "/todos", http.StatusInternalServerError, 1)

	err := s.FetchPage(context.Background(), 1, false)
	if !errors.Is(err, api.ErrServer) {
		t.Fatalf("FetchPage = %v, want server error", err)
	}
	if got := s.Snapshot().Err; got != api.MsgServer {
		t.Errorf("banner = %q, want %q", got, api.MsgServer)
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Snapshot().Err != "" {
		t.Error("successful refetch kept the banner")
	}
}

func TestUserStoreLifecycle(t *testing.T) {
	h := newHarness(t)
	s := NewUserStore(h.services.Users, h.session.Authenticated())
	ctx := context.Background()

	if !s.Snapshot().LoggedIn {
		t.Fatal("restored session not reported as logged in")
	}
	u, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "ann" || s.Snapshot().User.Key != h.user.Key {
		t.Errorf("loaded = %+v", u)
	}

	updated, err := s.Update(ctx, model.UserUpdate{Username: "ann", Email: "ann@example.com", FullName: "Ann"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.FullName != "Ann" {
		t.Errorf("updated = %+v", updated)
	}

	if err := s.ChangePassword(ctx, model.PasswordChange{CurrentPassword: "password123", NewPassword: "short"}); err == nil {
		t.Error("short password accepted")
	}
	if err := s.ChangePassword(ctx, model.PasswordChange{CurrentPassword: "password123", NewPassword: "longer-password"}); err != nil {
		t.Fatal(err)
	}

	if err := s.Logout(); err != nil {
		t.Fatal(err)
	}
	if st := s.Snapshot(); st.LoggedIn || st.User != nil {
		t.Errorf("state after logout = %+v", st)
	}
	if h.session.Authenticated() {
		t.Error("session survived logout")
	}

	if _, err := s.Login(ctx, "ann", "longer-password"); err != nil {
		t.Fatalf("Login with new password failed: %v", err)
	}
	if st := s.Snapshot(); !st.LoggedIn || st.User == nil || st.Err != "" {
		t.Errorf("state after login = %+v", st)
	}
}

func TestUserStoreLoginFailure(t *testing.T) {
	h := newHarness(t)
	s := NewUserStore(h.services.Users, false)

	if _, err := s.Login(context.Background(), "ann", "wrong-password"); err == nil {
		t.Fatal("Login succeeded with a wrong password")
	}
	st := s.Snapshot()
	if st.LoggedIn || st.Loading || st.Err == "" {
		t.Errorf("state = %+v", st)
	}
}
