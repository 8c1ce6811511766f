package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/existflow/irontodo/internal/api"
	"github.com/existflow/irontodo/internal/fakeapi"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/schema"
	"github.com/existflow/irontodo/internal/session"
	"github.com/existflow/irontodo/internal/storage"
)

type fixture struct {
	fake     *fakeapi.Server
	session  *session.Manager
	services *Services
	user     model.User
}

// newFixture returns services signed in as a seeded user
func newFixture(t *testing.T) *fixture {
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
	services := New(client, sess, Credentials{})
	if _, err := services.Users.Login(context.Background(), "ann", "password123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return &fixture{fake: fake, session: sess, services: services, user: u}
}

func TestLoginPersistsToken(t *testing.T) {
	f := newFixture(t)
	if !f.session.Authenticated() {
		t.Fatal("no token after login")
	}
	if got := f.session.UserKey(); got != f.user.Key {
		t.Errorf("UserKey() = %q, want %q", got, f.user.Key)
	}

	me, err := f.services.Users.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if me.Username != "ann" {
		t.Errorf("Current() = %+v", me)
	}
}

func TestLoginBadPassword(t *testing.T) {
	f := newFixture(t)
	f.session.Logout()

	_, err := f.services.Users.Login(context.Background(), "ann", "nope")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestTodoCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	todos := f.services.Todos

	created, err := todos.Create(ctx, model.TodoDraft{Title: "Buy milk", Priority: "high"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Key == "" || created.Title != "Buy milk" {
		t.Errorf("created = %+v", created)
	}

	patched, err := todos.Patch(ctx, created.Key, model.TodoPatch{Completed: model.BoolPtr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if !patched.Completed || patched.Title != "Buy milk" {
		t.Errorf("patched = %+v", patched)
	}

	updated, err := todos.Update(ctx, created.Key, model.TodoDraft{Title: "Buy oat milk", Priority: "low"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Buy oat milk" || updated.Completed {
		t.Errorf("updated = %+v", updated)
	}

	if err := todos.Delete(ctx, created.Key); err != nil {
		t.Fatal(err)
	}
	if _, err := todos.Get(ctx, created.Key); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestTodoListQuery(t *testing.T) {
	f := newFixture(t)
	f.fake.SeedTodos(f.user.Key,
		model.TodoDraft{Title: "a", Priority: "low"},
		model.TodoDraft{Title: "b", Priority: "high", Completed: true},
		model.TodoDraft{Title: "c", Priority: "high"},
	)

	done := true
	page, err := f.services.Todos.List(context.Background(), TodoQuery{Page: 1, Size: 10, Completed: &done})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].Title != "b" {
		t.Errorf("page = %+v", page)
	}

	page, err = f.services.Todos.List(context.Background(), TodoQuery{Page: 1, Size: 2, Priority: "high"})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || page.HasNext() {
		t.Errorf("priority filter page = %+v", page)
	}
}

func TestTodoQueryValues(t *testing.T) {
	no := false
	q := TodoQuery{Page: 2, Size: 10, Sort: model.SortTextAsc, Completed: &no, Status: "done"}
	want := "completed=false&page=2&size=10&sort=text-asc&status=done"
	if got := q.Values().Encode(); got != want {
		t.Errorf("Values() = %q, want %q", got, want)
	}
	if got := (TodoQuery{}).Values().Encode(); got != "" {
		t.Errorf("empty query = %q", got)
	}
}

func TestListByLink(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		f.fake.SeedTodos(f.user.Key, model.TodoDraft{Title: "t", Priority: "low"})
	}

	first, err := f.services.Todos.List(context.Background(), TodoQuery{Page: 1, Size: 10})
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.services.Todos.ListByLink(context.Background(), first.NextLink)
	if err != nil {
		t.Fatal(err)
	}
	if second.Page != 2 || len(second.Items) != 2 || second.HasNext() || !second.HasPrev() {
		t.Errorf("second = %+v", second)
	}
}

func TestPriorityReorderAndAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.services.Priorities.Reorder(ctx, "medium", 2, 4); err != nil {
		t.Fatal(err)
	}
	all, err := f.services.Priorities.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, p := range all {
		keys = append(keys, p.Key)
	}
	if diff := cmp.Diff([]string{"low", "high", "urgent", "medium"}, keys); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestPriorityAllFallsBackToDefaults(t *testing.T) {
	f := newFixture(t)
	f.fake.Fail(http.MethodGet, "/priorities", http.StatusInternalServerError, -1)

	all, err := f.services.Priorities.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(model.DefaultPriorities(), all); diff != "" {
		t.Errorf("fallback mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	a, err := f.services.Priorities.CheckAvailability(context.Background(), model.PriorityDraft{Name: "high"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Available {
		t.Error("existing name reported available")
	}
}

func TestStatusListNotFoundIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.fake.DisableStatuses(true)

	page, err := f.services.Statuses.List(context.Background(), 1, 50)
	if err != nil {
		t.Fatalf("List = %v, want nil error", err)
	}
	if len(page.Items) != 0 || page.Total != 0 {
		t.Errorf("page = %+v", page)
	}
}

func TestStatusListServerErrorSurfaces(t *testing.T) {
	f := newFixture(t)
	f.fake.Fail(http.MethodGet, "/statuses", http.StatusInternalServerError, 1)

	_, err := f.services.Statuses.List(context.Background(), 1, 50)
	if !errors.Is(err, api.ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
}

func TestMalformedResponseFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"todos":[{"key":"t1","title":null,"priority":"low"}],"total":1}`))
	}))
	defer srv.Close()

	client, err := api.New(api.Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewTodoService(client).List(context.Background(), TodoQuery{Page: 1})
	var se *schema.Error
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *schema.Error", err)
	}
	if se.Path != "/todos/0/title" {
		t.Errorf("path = %q", se.Path)
	}
}

func TestUserProfileAndPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := f.services.Users

	u, err := users.Update(ctx, f.user.Key, model.UserUpdate{Username: "ann", Email: "ann@new.test", FullName: "Ann"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "ann@new.test" {
		t.Errorf("updated = %+v", u)
	}

	err = users.UpdatePassword(ctx, f.user.Key, model.PasswordChange{CurrentPassword: "wrong", NewPassword: "password456"})
	if !errors.Is(err, api.ErrBadRequest) {
		t.Errorf("wrong current password = %v", err)
	}
	if err := users.UpdatePassword(ctx, f.user.Key, model.PasswordChange{CurrentPassword: "password123", NewPassword: "password456"}); err != nil {
		t.Fatal(err)
	}
	if _, err := users.Login(ctx, "ann", "password456"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	u, err := f.services.Users.Register(context.Background(), model.Registration{
		Username: "bob", Email: "bob@example.test", Password: "password123",
	})
	if err != nil {
		t.Fatal(err)
	}
	if u.Key == "" || u.Username != "bob" {
		t.Errorf("registered = %+v", u)
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	f := newFixture(t)
	torn := false
	f.session.OnUnauthorized(func() { torn = true })
	f.fake.RevokeTokens()

	_, err := f.services.Todos.List(context.Background(), TodoQuery{Page: 1})
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if !torn || f.session.Authenticated() {
		t.Error("session not torn down after 401")
	}
}
