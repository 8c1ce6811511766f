package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/existflow/irontodo/internal/config"
	"github.com/existflow/irontodo/internal/fakeapi"
	"github.com/existflow/irontodo/internal/model"
)

type cliHarness struct {
	t       *testing.T
	fake    *fakeapi.Server
	user    model.User
	cfg     *config.Config
	cfgPath string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	fake := fakeapi.New()
	srv := httptest.NewServer(fake.Router())
	t.Cleanup(srv.Close)

	u, err := fake.SeedUser("ann", "password123")
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.APIURL = srv.URL + fakeapi.Prefix
	cfg.StoragePath = filepath.Join(dir, "state.db")
	cfg.StorageKey = ""
	cfg.LogFile = ""
	cfg.Prefetch = false
	return &cliHarness{t: t, fake: fake, user: u, cfg: cfg, cfgPath: filepath.Join(dir, "config.yaml")}
}

// run executes one command line with stdin and returns everything printed
func (h *cliHarness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(Options{
		Config:     h.cfg,
		ConfigPath: h.cfgPath,
		In:         strings.NewReader(stdin),
		Out:        &out,
	})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *cliHarness) mustRun(stdin string, args ...string) string {
	h.t.Helper()
	out, err := h.run(stdin, args...)
	if err != nil {
		h.t.Fatalf("%v failed: %v\n%s", args, err, out)
	}
	return out
}

func (h *cliHarness) login() {
	h.t.Helper()
	h.mustRun("ann\npassword123\n", "auth", "login")
}

func TestLoginAndWhoami(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("ann\npassword123\n", "auth", "login")
	if !strings.Contains(out, "Logged in as ann") {
		t.Errorf("login output = %q", out)
	}

	out = h.mustRun("", "auth", "whoami")
	if !strings.Contains(out, "ann") || !strings.Contains(out, h.user.Key) {
		t.Errorf("whoami output = %q", out)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newCLIHarness(t)
	if _, err := h.run("nope\n", "auth", "login", "-u", "ann"); err == nil {
		t.Fatal("login with a wrong password succeeded")
	}
	if _, err := h.run("", "list"); err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Errorf("list after failed login = %v", err)
	}
}

func TestAddListDone(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	out := h.mustRun("", "add", "Buy", "milk", "-p", "high")
	if !strings.Contains(out, `Added: "Buy milk"`) || !strings.Contains(out, "High") {
		t.Errorf("add output = %q", out)
	}

	out = h.mustRun("", "list")
	if !strings.Contains(out, "Buy milk") || !strings.Contains(out, "page 1/1") {
		t.Errorf("list output = %q", out)
	}

	list := h.fake.SeedTodos(h.user.Key, model.TodoDraft{Title: "Walk dog", Priority: "low"})
	out = h.mustRun("", "done", list[0].Key[:8])
	if !strings.Contains(out, `Completed: "Walk dog"`) {
		t.Errorf("done output = %q", out)
	}

	out = h.mustRun("", "list", "--completed", "completed")
	if !strings.Contains(out, "Walk dog") || strings.Contains(out, "Buy milk") {
		t.Errorf("completed list = %q", out)
	}

	if _, err := h.run("", "add", "Bad", "-p", ""); err == nil {
		t.Error("add without a priority succeeded")
	}
}

func TestListPagesAndSearch(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	var drafts []model.TodoDraft
	for i := 0; i < 15; i++ {
		d := model.TodoDraft{Title: "chore", Priority: "medium"}
		if i == 3 {
			d = model.TodoDraft{Title: "pay rent", Priority: "urgent"}
		}
		drafts = append(drafts, d)
	}
	h.fake.SeedTodos(h.user.Key, drafts...)

	out := h.mustRun("", "list")
	if !strings.Contains(out, "page 1/2") || !strings.Contains(out, "next: irontodo list --page 2") {
		t.Errorf("first page = %q", out)
	}

	out = h.mustRun("", "list", "--page", "2")
	if !strings.Contains(out, "page 2/2") || !strings.Contains(out, "prev: irontodo list --page 1") {
		t.Errorf("second page = %q", out)
	}

	out = h.mustRun("", "list", "-q", "RENT")
	if !strings.Contains(out, "pay rent") || strings.Contains(out, "chore") {
		t.Errorf("search output = %q", out)
	}
	if !strings.Contains(out, "15 total") {
		t.Errorf("search changed the total: %q", out)
	}

	if _, err := h.run("", "list", "--sort", "sideways"); err == nil {
		t.Error("unknown sort accepted")
	}
}

func TestEditTodo(t *testing.T) {
	h := newCLIHarness(t)
	h.login()
	seeded := h.fake.SeedTodos(h.user.Key, model.TodoDraft{Title: "Old title", Priority: "low"})

	if _, err := h.run("", "edit", seeded[0].Key); err == nil {
		t.Error("edit without flags succeeded")
	}
	out := h.mustRun("", "edit", seeded[0].Key, "--title", "New title", "--status", "done")
	if !strings.Contains(out, `Updated: "New title"`) {
		t.Errorf("edit output = %q", out)
	}

	out = h.mustRun("", "list", "--status", "done")
	if !strings.Contains(out, "New title") || !strings.Contains(out, "Done") {
		t.Errorf("list output = %q", out)
	}
}

func TestDeleteConfirms(t *testing.T) {
	h := newCLIHarness(t)
	h.login()
	seeded := h.fake.SeedTodos(h.user.Key, model.TodoDraft{Title: "Keep me", Priority: "low"})

	out := h.mustRun("n\n", "delete", seeded[0].Key)
	if !strings.Contains(out, "Cancelled.") {
		t.Errorf("delete output = %q", out)
	}

	out = h.mustRun("", "rm", seeded[0].Key, "--force")
	if !strings.Contains(out, `Deleted: "Keep me"`) {
		t.Errorf("forced delete output = %q", out)
	}
	if _, err := h.run("", "done", seeded[0].Key); err == nil {
		t.Error("done on a deleted todo succeeded")
	}
}

func TestPriorityCommands(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	out := h.mustRun("", "priority", "new", "Someday", "--color", "#9ca3af", "--icon", "fa-clock", "--order", "1")
	if !strings.Contains(out, "Created priority") {
		t.Errorf("new output = %q", out)
	}
	if _, err := h.run("", "priority", "new", "someday"); err == nil || !strings.Contains(err.Error(), "already in use") {
		t.Errorf("duplicate name = %v", err)
	}

	out = h.mustRun("", "priority", "list")
	if !strings.Contains(out, "Someday") || !strings.Contains(out, "5 total") {
		t.Errorf("list output = %q", out)
	}

	out = h.mustRun("", "priority", "reorder", "medium", "3", "5")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if last := lines[len(lines)-1]; !strings.Contains(last, "Medium") {
		t.Errorf("last line after reorder = %q", last)
	}

	if _, err := h.run("", "priority", "reorder", "medium", "x", "1"); err == nil {
		t.Error("non-numeric order accepted")
	}
}

func TestStatusCommands(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	h.mustRun("", "status", "new", "Blocked", "--color", "#ef4444", "--icon", "fa-times", "--order", "4")
	out := h.mustRun("", "status", "list")
	if !strings.Contains(out, "Blocked") || !strings.Contains(out, "4 total") {
		t.Errorf("list output = %q", out)
	}

	h.fake.DisableStatuses(true)
	out = h.mustRun("", "status", "list")
	if !strings.Contains(out, "No statuses.") {
		t.Errorf("missing statuses output = %q", out)
	}
}

func TestConfigSet(t *testing.T) {
	h := newCLIHarness(t)

	h.mustRun("", "config", "set", "page_sizes.todos", "25")
	saved, err := config.LoadFile(h.cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.PageSizes.Todos != 25 {
		t.Errorf("saved todos page size = %d", saved.PageSizes.Todos)
	}

	if _, err := h.run("", "config", "set", "page_sizes.todos", "0"); err == nil {
		t.Error("page size 0 accepted")
	}
	if _, err := h.run("", "config", "set", "colour", "red"); err == nil {
		t.Error("unknown key accepted")
	}

	out := h.mustRun("", "config")
	if !strings.Contains(out, "todos: 25") {
		t.Errorf("config output = %q", out)
	}
}

func TestLogout(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	out := h.mustRun("", "auth", "logout")
	if !strings.Contains(out, "Logged out") {
		t.Errorf("logout output = %q", out)
	}
	out = h.mustRun("", "auth", "logout")
	if !strings.Contains(out, "Not logged in.") {
		t.Errorf("second logout output = %q", out)
	}
}
