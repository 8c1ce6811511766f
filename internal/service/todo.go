package service

import (
	"context"
	"net/url"
	"strconv"

	"github.com/existflow/irontodo/internal/api"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/schema"
)

const todosPath = "todos"

// TodoQuery holds the list parameters of GET /todos. A nil Completed lists
// both completed and open todos.
type TodoQuery struct {
	Page      int
	Size      int
	Sort      string
	Completed *bool
	Priority  string
	Status    string
}

// Values encodes the query, omitting unset filters
func (q TodoQuery) Values() url.Values {
	v := pageValues(q.Page, q.Size)
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Completed != nil {
		v.Set("completed", strconv.FormatBool(*q.Completed))
	}
	if q.Priority != "" {
		v.Set("priority", q.Priority)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	return v
}

// TodoService maps the todo endpoints
type TodoService struct {
	client *api.Client
}

// NewTodoService creates a todo service
func NewTodoService(client *api.Client) *TodoService {
	return &TodoService{client: client}
}

// List fetches one page of todos
func (s *TodoService) List(ctx context.Context, q TodoQuery) (model.Page[model.Todo], error) {
	body, err := s.client.Get(ctx, todosPath, q.Values())
	if err != nil {
		return model.Page[model.Todo]{}, err
	}
	return decodePage[model.Todo](schema.TodoPage, "todos", body)
}

// ListByLink fetches the page a next_link or prev_link points at
func (s *TodoService) ListByLink(ctx context.Context, link string) (model.Page[model.Todo], error) {
	body, err := s.client.FollowLink(ctx, link)
	if err != nil {
		return model.Page[model.Todo]{}, err
	}
	return decodePage[model.Todo](schema.TodoPage, "todos", body)
}

// Get fetches a single todo
func (s *TodoService) Get(ctx context.Context, key string) (model.Todo, error) {
	body, err := s.client.Get(ctx, itemPath(todosPath, key), nil)
	if err != nil {
		return model.Todo{}, err
	}
	return decodeTodo(body)
}

// Create submits a draft
func (s *TodoService) Create(ctx context.Context, draft model.TodoDraft) (model.Todo, error) {
	body, err := s.client.Post(ctx, todosPath, draft)
	if err != nil {
		return model.Todo{}, err
	}
	return decodeTodo(body)
}

// Update replaces a todo
func (s *TodoService) Update(ctx context.Context, key string, draft model.TodoDraft) (model.Todo, error) {
	body, err := s.client.Put(ctx, itemPath(todosPath, key), draft)
	if err != nil {
		return model.Todo{}, err
	}
	return decodeTodo(body)
}

// Patch applies a partial update
func (s *TodoService) Patch(ctx context.Context, key string, patch model.TodoPatch) (model.Todo, error) {
	body, err := s.client.Patch(ctx, itemPath(todosPath, key), patch)
	if err != nil {
		return model.Todo{}, err
	}
	return decodeTodo(body)
}

// Delete removes a todo
func (s *TodoService) Delete(ctx context.Context, key string) error {
	_, err := s.client.Delete(ctx, itemPath(todosPath, key))
	return err
}

func decodeTodo(body []byte) (model.Todo, error) {
	var t model.Todo
	if err := schema.Decode(schema.Todo, body, &t); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}
