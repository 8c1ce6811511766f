package store

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/service"
)

// Completed filter values
const (
	CompletedAll        = "all"
	CompletedOnly       = "completed"
	CompletedIncomplete = "incomplete"
)

// TodoFilter is the server-side query of the todo list
type TodoFilter struct {
	Sort      string
	Completed string // CompletedAll, CompletedOnly or CompletedIncomplete
	Priority  string
	Status    string
}

// Query builds the service query for page and size
func (f TodoFilter) Query(page, size int) service.TodoQuery {
	q := service.TodoQuery{
		Page:     page,
		Size:     size,
		Sort:     f.Sort,
		Priority: f.Priority,
		Status:   f.Status,
	}
	switch f.Completed {
	case CompletedOnly:
		q.Completed = model.BoolPtr(true)
	case CompletedIncomplete:
		q.Completed = model.BoolPtr(false)
	}
	return q
}

// Values implements Filter
func (f TodoFilter) Values() url.Values {
	return f.Query(0, 0).Values()
}

// TodoAPI is the todo service surface the store uses
type TodoAPI interface {
	List(ctx context.Context, q service.TodoQuery) (model.Page[model.Todo], error)
	ListByLink(ctx context.Context, link string) (model.Page[model.Todo], error)
	Get(ctx context.Context, key string) (model.Todo, error)
	Create(ctx context.Context, draft model.TodoDraft) (model.Todo, error)
	Patch(ctx context.Context, key string, patch model.TodoPatch) (model.Todo, error)
	Delete(ctx context.Context, key string) error
}

type todoSource struct {
	api TodoAPI
}

func (s todoSource) List(ctx context.Context, page, size int, f TodoFilter) (model.Page[model.Todo], error) {
	return s.api.List(ctx, f.Query(page, size))
}

func (s todoSource) ListByLink(ctx context.Context, link string) (model.Page[model.Todo], error) {
	return s.api.ListByLink(ctx, link)
}

// TodoStore is the todo list with its filters and mutations
type TodoStore struct {
	*Store[model.Todo, TodoFilter]

	api     TodoAPI
	userKey func() string
	now     func() time.Time
}

// TodoOptions configures a TodoStore
type TodoOptions struct {
	Size     int
	Prefetch bool
	UserKey  func() string // stamped on created todos
}

// NewTodoStore creates the todo store with the default sort
func NewTodoStore(api TodoAPI, opts TodoOptions) *TodoStore {
	userKey := opts.UserKey
	if userKey == nil {
		userKey = func() string { return "" }
	}
	return &TodoStore{
		Store: New[model.Todo, TodoFilter]("todos", todoSource{api: api}, Options[model.Todo, TodoFilter]{
			Size:     opts.Size,
			Filter:   TodoFilter{Sort: model.DefaultSort, Completed: CompletedAll},
			Text:     func(t model.Todo) string { return t.Title },
			Prefetch: opts.Prefetch,
		}),
		api:     api,
		userKey: userKey,
		now:     time.Now,
	}
}

// SetClock replaces the time source of undo windows
func (s *TodoStore) SetClock(now func() time.Time) {
	s.now = now
}

// SetSort changes the sort mode and returns to page 1
func (s *TodoStore) SetSort(ctx context.Context, mode string) error {
	return s.SetFilter(ctx, func(f *TodoFilter) { f.Sort = mode })
}

// ParseCompleted accepts "all", "completed" or "incomplete"; empty means all
func ParseCompleted(value string) (string, error) {
	switch value {
	case "", CompletedAll:
		return CompletedAll, nil
	case CompletedOnly, CompletedIncomplete:
		return value, nil
	}
	return "", fmt.Errorf("unknown completed filter %q", value)
}

// NextCompleted cycles all, incomplete, completed
func NextCompleted(value string) string {
	switch value {
	case CompletedAll:
		return CompletedIncomplete
	case CompletedIncomplete:
		return CompletedOnly
	}
	return CompletedAll
}

// SetCompletedFilter accepts "all", "completed" or "incomplete" and returns
// to page 1
func (s *TodoStore) SetCompletedFilter(ctx context.Context, value string) error {
	value, err := ParseCompleted(value)
	if err != nil {
		return err
	}
	return s.SetFilter(ctx, func(f *TodoFilter) { f.Completed = value })
}

// SetPriorityFilter restricts the list to a priority key, empty for all
func (s *TodoStore) SetPriorityFilter(ctx context.Context, key string) error {
	return s.SetFilter(ctx, func(f *TodoFilter) { f.Priority = key })
}

// SetStatusFilter restricts the list to a status key, empty for all
func (s *TodoStore) SetStatusFilter(ctx context.Context, key string) error {
	return s.SetFilter(ctx, func(f *TodoFilter) { f.Status = key })
}

// Add validates and creates a todo owned by the current user
func (s *TodoStore) Add(ctx context.Context, draft model.TodoDraft) (model.Todo, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return model.Todo{}, err
	}
	if draft.UserKey == "" {
		draft.UserKey = s.userKey()
	}

	var created model.Todo
	err := s.Mutate(ctx, "create", func(ctx context.Context) error {
		var err error
		created, err = s.api.Create(ctx, draft)
		return err
	})
	return created, err
}

// current returns the todo from the loaded page, or fetches it
func (s *TodoStore) current(ctx context.Context, key string) (model.Todo, error) {
	if t, ok := s.find(func(t model.Todo) bool { return t.Key == key }); ok {
		return t, nil
	}
	t, err := s.api.Get(ctx, key)
	if err != nil {
		s.setErr(err)
	}
	return t, err
}

// Edit merges patch over the current todo and saves it
func (s *TodoStore) Edit(ctx context.Context, key string, patch model.TodoPatch) (model.Todo, error) {
	if err := patch.Validate(); err != nil {
		return model.Todo{}, err
	}
	cur, err := s.current(ctx, key)
	if err != nil {
		return model.Todo{}, err
	}

	merged := patch.Merge(cur)
	var saved model.Todo
	err = s.Mutate(ctx, "update", func(ctx context.Context) error {
		var err error
		saved, err = s.api.Patch(ctx, key, merged)
		return err
	})
	return saved, err
}

// Toggle flips the completed flag of a todo
func (s *TodoStore) Toggle(ctx context.Context, key string) (model.Todo, error) {
	cur, err := s.current(ctx, key)
	if err != nil {
		return model.Todo{}, err
	}

	var saved model.Todo
	err = s.Mutate(ctx, "toggle", func(ctx context.Context) error {
		var err error
		saved, err = s.api.Patch(ctx, key, model.TodoPatch{Completed: model.BoolPtr(!cur.Completed)})
		return err
	})
	return saved, err
}

// Delete removes a todo
func (s *TodoStore) Delete(ctx context.Context, key string) error {
	return s.Mutate(ctx, "delete", func(ctx context.Context) error {
		return s.api.Delete(ctx, key)
	})
}

// DeleteWithUndo removes a todo and returns an Undo that can re-create it
// until window elapses
func (s *TodoStore) DeleteWithUndo(ctx context.Context, key string, window time.Duration) (*Undo, error) {
	cur, err := s.current(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := s.Delete(ctx, key); err != nil {
		return nil, err
	}
	return &Undo{
		store:    s,
		deleted:  cur,
		deadline: s.now().Add(window),
	}, nil
}
