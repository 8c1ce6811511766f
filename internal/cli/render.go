package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/service"
)

const shortKeyLen = 8

func shortKey(key string) string {
	if len(key) > shortKeyLen {
		return key[:shortKeyLen]
	}
	return key
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// catalogs holds the lookups needed to render todos
type catalogs struct {
	priorities []model.Priority
	statuses   []model.Status
}

// loadCatalogs never fails: priorities fall back to the defaults and a
// missing status list renders keys
func loadCatalogs(ctx context.Context, a *app.App) catalogs {
	var c catalogs
	c.priorities, _ = a.Services.Priorities.All(ctx)
	if page, err := a.Services.Statuses.List(ctx, 1, 100); err == nil {
		c.statuses = page.Items
	}
	return c
}

func (c catalogs) priority(key string) string {
	if p := model.FindPriority(c.priorities, key); p != nil {
		return model.IconFor(*p).Glyph + " " + p.Name
	}
	return key
}

func (c catalogs) status(key string) string {
	if key == "" {
		return ""
	}
	if st := model.FindStatus(c.statuses, key); st != nil {
		return st.Name
	}
	return key
}

func printTodo(w io.Writer, t model.Todo, c catalogs) {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	fmt.Fprintf(w, "  %s  %-8s  %-40s  %-12s  %s\n",
		box, shortKey(t.Key), truncate(t.Title, 40), c.priority(t.Priority), c.status(t.StatusKey()))
}

// pageFooter prints the navigation hints of a page
func pageFooter(w io.Writer, command string, page int, hasPrev, hasNext bool) {
	var hints []string
	if hasPrev {
		hints = append(hints, fmt.Sprintf("prev: %s --page %d", command, page-1))
	}
	if hasNext {
		hints = append(hints, fmt.Sprintf("next: %s --page %d", command, page+1))
	}
	if len(hints) > 0 {
		fmt.Fprintf(w, "\n  %s\n", strings.Join(hints, "  ·  "))
	}
	fmt.Fprintln(w)
}

func printPriorities(w io.Writer, items []model.Priority) {
	for _, p := range items {
		fmt.Fprintf(w, "  %2d  %s %-20s  %-8s  %-10s  %s\n",
			p.Order, model.IconFor(p).Glyph, truncate(p.Name, 20), p.Color, shortKey(p.Key), p.Description)
	}
}

func printStatuses(w io.Writer, items []model.Status) {
	for _, st := range items {
		def := " "
		if st.IsDefault {
			def = "*"
		}
		fmt.Fprintf(w, "  %2d %s %s %-20s  %-8s  %-10s  %s\n",
			st.Order, def, model.LookupIcon(st.Icon).Glyph, truncate(st.Name, 20), st.Color, shortKey(st.Key), st.Description)
	}
}

// findTodo resolves a full key or a unique key prefix
func findTodo(ctx context.Context, a *app.App, ref string) (model.Todo, error) {
	page, err := a.Services.Todos.List(ctx, service.TodoQuery{Page: 1, Size: 100})
	if err != nil {
		return model.Todo{}, fmt.Errorf("failed to look up todo: %w", err)
	}

	var matches []model.Todo
	for {
		for _, t := range page.Items {
			if t.Key == ref {
				return t, nil
			}
			if strings.HasPrefix(t.Key, ref) {
				matches = append(matches, t)
			}
		}
		if page.NextLink == "" {
			break
		}
		if page, err = a.Services.Todos.ListByLink(ctx, page.NextLink); err != nil {
			return model.Todo{}, fmt.Errorf("failed to look up todo: %w", err)
		}
	}

	switch len(matches) {
	case 0:
		return model.Todo{}, fmt.Errorf("todo not found: %s", ref)
	case 1:
		return matches[0], nil
	}
	return model.Todo{}, fmt.Errorf("todo key %q is ambiguous (%d matches)", ref, len(matches))
}
