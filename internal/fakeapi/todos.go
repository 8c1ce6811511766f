package fakeapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/existflow/irontodo/internal/model"
)

type todo struct {
	model.Todo
}

type todoPage struct {
	Todos    []model.Todo `json:"todos"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	Size     int          `json:"size"`
	NextLink *string      `json:"next_link"`
	PrevLink *string      `json:"prev_link"`
}

func (s *Server) handleListTodos(c echo.Context) error {
	userKey := currentUser(c)
	p := parsePage(c)

	completed := c.QueryParam("completed")
	priority := c.QueryParam("priority")
	status := c.QueryParam("status")

	s.mu.Lock()
	var matched []model.Todo
	for _, t := range s.todos[userKey] {
		if completed == "true" && !t.Completed || completed == "false" && t.Completed {
			continue
		}
		if priority != "" && t.Priority != priority {
			continue
		}
		if status != "" && t.StatusKey() != status {
			continue
		}
		matched = append(matched, t.Todo)
	}
	priorities := entriesToPriorities(s.priorities[userKey])
	s.mu.Unlock()

	if sort := c.QueryParam("sort"); sort != "" {
		matched = model.SortTodos(matched, priorities, sort)
	}

	start, end := p.bounds(len(matched))
	next, prev := p.links(c, len(matched))
	items := append([]model.Todo{}, matched[start:end]...)

	return c.JSON(http.StatusOK, todoPage{
		Todos:    items,
		Total:    len(matched),
		Page:     p.page,
		Size:     p.size,
		NextLink: next,
		PrevLink: prev,
	})
}

// SeedTodos adds todos for userKey directly, bypassing HTTP
func (s *Server) SeedTodos(userKey string, drafts ...model.TodoDraft) []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Todo
	for _, d := range drafts {
		t := s.insertTodo(userKey, d)
		out = append(out, t.Todo)
	}
	return out
}

func (s *Server) insertTodo(userKey string, d model.TodoDraft) *todo {
	t := &todo{Todo: model.Todo{
		Key:         uuid.NewString(),
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Priority:    d.Priority,
		Status:      d.Status,
		Completed:   d.Completed,
		UserKey:     userKey,
	}}
	s.todos[userKey] = append(s.todos[userKey], t)
	return t
}

// checkTodo validates references against the user's catalogs. Callers hold
// s.mu.
func (s *Server) checkTodo(userKey, title, priority string, status *string) string {
	if strings.TrimSpace(title) == "" {
		return "title is required"
	}
	if findEntry(s.priorities[userKey], priority) == nil {
		return "unknown priority: " + priority
	}
	if status != nil && *status != "" && findEntry(s.statuses[userKey], *status) == nil {
		return "unknown status: " + *status
	}
	return ""
}

func (s *Server) findTodo(userKey, key string) *todo {
	for _, t := range s.todos[userKey] {
		if t.Key == key {
			return t
		}
	}
	return nil
}

func (s *Server) handleCreateTodo(c echo.Context) error {
	var d model.TodoDraft
	if err := c.Bind(&d); err != nil {
		return c.JSON(http.StatusBadRequest, detail("invalid request"))
	}
	userKey := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	if msg := s.checkTodo(userKey, d.Title, d.Priority, d.Status); msg != "" {
		return c.JSON(http.StatusBadRequest, detail(msg))
	}
	t := s.insertTodo(userKey, d)
	return c.JSON(http.StatusCreated, t.Todo)
}

func (s *Server) handleGetTodo(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTodo(currentUser(c), c.Param("key"))
	if t == nil {
		return c.JSON(http.StatusNotFound, detail("Todo not found"))
	}
	return c.JSON(http.StatusOK, t.Todo)
}

func (s *Server) handleUpdateTodo(c echo.Context) error {
	var d model.TodoDraft
	if err := c.Bind(&d); err != nil {
		return c.JSON(http.StatusBadRequest, detail("invalid request"))
	}
	userKey := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTodo(userKey, c.Param("key"))
	if t == nil {
		return c.JSON(http.StatusNotFound, detail("Todo not found"))
	}
	if msg := s.checkTodo(userKey, d.Title, d.Priority, d.Status); msg != "" {
		return c.JSON(http.StatusBadRequest, detail(msg))
	}
	t.Title = strings.TrimSpace(d.Title)
	t.Description = d.Description
	t.Priority = d.Priority
	t.Status = d.Status
	t.Completed = d.Completed
	return c.JSON(http.StatusOK, t.Todo)
}

func (s *Server) handlePatchTodo(c echo.Context) error {
	var p model.TodoPatch
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, detail("invalid request"))
	}
	userKey := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findTodo(userKey, c.Param("key"))
	if t == nil {
		return c.JSON(http.StatusNotFound, detail("Todo not found"))
	}

	merged := p.Merge(t.Todo)
	if msg := s.checkTodo(userKey, *merged.Title, *merged.Priority, merged.Status); msg != "" {
		return c.JSON(http.StatusBadRequest, detail(msg))
	}
	t.Title = strings.TrimSpace(*merged.Title)
	t.Description = *merged.Description
	t.Priority = *merged.Priority
	t.Status = merged.Status
	t.Completed = *merged.Completed
	return c.JSON(http.StatusOK, t.Todo)
}

func (s *Server) handleDeleteTodo(c echo.Context) error {
	userKey := currentUser(c)
	key := c.Param("key")

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.todos[userKey]
	for i, t := range list {
		if t.Key == key {
			s.todos[userKey] = append(list[:i], list[i+1:]...)
			return c.NoContent(http.StatusNoContent)
		}
	}
	return c.JSON(http.StatusNotFound, detail("Todo not found"))
}
