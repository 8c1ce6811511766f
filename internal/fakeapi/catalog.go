package fakeapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/existflow/irontodo/internal/model"
)

type catalogKind int

const (
	kindPriority catalogKind = iota
	kindStatus
)

// entry is a priority or status row
type entry struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
	IsDefault   bool   `json:"is_default"`
	UserKey     string `json:"user_key"`
}

// entryPatch carries the optional fields of PATCH and the full fields of PUT
type entryPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	Order       *int    `json:"order"`
	IsDefault   *bool   `json:"is_default"`
}

func defaultPriorities(userKey string) []*entry {
	var out []*entry
	for _, p := range model.DefaultPriorities() {
		out = append(out, &entry{
			Key:         p.Key,
			Name:        p.Name,
			Description: p.Description,
			Color:       p.Color,
			Icon:        p.Icon,
			Order:       p.Order,
			UserKey:     userKey,
		})
	}
	return out
}

func defaultStatuses(userKey string) []*entry {
	return []*entry{
		{Key: "todo", Name: "To do", Color: "#6b7280", Icon: "fa-circle", Order: 1, IsDefault: true, UserKey: userKey},
		{Key: "in-progress", Name: "In progress", Color: "#3b82f6", Icon: "fa-clock", Order: 2, UserKey: userKey},
		{Key: "done", Name: "Done", Color: "#10b981", Icon: "fa-check", Order: 3, UserKey: userKey},
	}
}

func entriesToPriorities(entries []*entry) []model.Priority {
	out := make([]model.Priority, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.Priority{
			Key:         e.Key,
			Name:        e.Name,
			Description: e.Description,
			Color:       e.Color,
			Icon:        e.Icon,
			Order:       e.Order,
			UserKey:     e.UserKey,
		})
	}
	return out
}

func findEntry(entries []*entry, key string) *entry {
	for _, e := range entries {
		if e.Key == key {
			return e
		}
	}
	return nil
}

func sortEntries(entries []*entry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Order < entries[j].Order })
}

// renumber assigns dense orders 1..n in slice order
func renumber(entries []*entry) {
	for i, e := range entries {
		e.Order = i + 1
	}
}

// moveEntry moves the entry at from to slot to and renumbers the range
func moveEntry(entries []*entry, key string, from, to int) ([]*entry, bool) {
	sortEntries(entries)
	idx := -1
	for i, e := range entries {
		if e.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 || entries[idx].Order != from {
		return entries, false
	}

	moved := entries[idx]
	rest := append(append([]*entry{}, entries[:idx]...), entries[idx+1:]...)

	pos := to - 1
	if pos < 0 {
		pos = 0
	}
	if pos > len(rest) {
		pos = len(rest)
	}
	out := append(append(append([]*entry{}, rest[:pos]...), moved), rest[pos:]...)
	renumber(out)
	return out, true
}

// view renders an entry in the resource's response shape
func (k catalogKind) view(e *entry) interface{} {
	if k == kindStatus {
		return model.Status{
			Key: e.Key, Name: e.Name, Description: e.Description, Color: e.Color,
			Icon: e.Icon, Order: e.Order, IsDefault: e.IsDefault, UserKey: e.UserKey,
		}
	}
	return model.Priority{
		Key: e.Key, Name: e.Name, Description: e.Description, Color: e.Color,
		Icon: e.Icon, Order: e.Order, UserKey: e.UserKey,
	}
}

// catalogHandlers serves /priorities or /statuses
type catalogHandlers struct {
	server   *Server
	resource string
	kind     catalogKind
}

// table returns the user's rows. Callers hold server.mu.
func (h *catalogHandlers) table(userKey string) []*entry {
	if h.kind == kindStatus {
		return h.server.statuses[userKey]
	}
	return h.server.priorities[userKey]
}

func (h *catalogHandlers) setTable(userKey string, entries []*entry) {
	if h.kind == kindStatus {
		h.server.statuses[userKey] = entries
		return
	}
	h.server.priorities[userKey] = entries
}

func (h *catalogHandlers) notFound(c echo.Context) error {
	if h.kind == kindStatus {
		return c.JSON(http.StatusNotFound, detail("Status not found"))
	}
	return c.JSON(http.StatusNotFound, detail("Priority not found"))
}

func (h *catalogHandlers) list(c echo.Context) error {
	s := h.server
	p := parsePage(c)

	s.mu.Lock()
	if h.kind == kindStatus && s.statusesDisabled {
		s.mu.Unlock()
		return c.JSON(http.StatusNotFound, detail("Not Found"))
	}
	rows := append([]*entry(nil), h.table(currentUser(c))...)
	s.mu.Unlock()

	sortEntries(rows)
	start, end := p.bounds(len(rows))
	next, prev := p.links(c, len(rows))

	items := make([]interface{}, 0, end-start)
	for _, e := range rows[start:end] {
		items = append(items, h.kind.view(e))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		h.resource:  items,
		"total":     len(rows),
		"page":      p.page,
		"size":      p.size,
		"next_link": next,
		"prev_link": prev,
	})
}

func (h *catalogHandlers) get(c echo.Context) error {
	h.server.mu.Lock()
	defer h.server.mu.Unlock()

	e := findEntry(h.table(currentUser(c)), c.Param("key"))
	if e == nil {
		return h.notFound(c)
	}
	return c.JSON(http.StatusOK, h.kind.view(e))
}

// validateEntry checks a complete entry
func validateEntry(e *entry) string {
	if strings.TrimSpace(e.Name) == "" {
		return "name is required"
	}
	if !model.IsHexColor(e.Color) {
		return "color must be a hex value like #4ECDC4"
	}
	if e.Order < 1 {
		return "order must be at least 1"
	}
	return ""
}

func (h *catalogHandlers) create(c echo.Context) error {
	var e entry
	if err := c.Bind(&e); err != nil {
		return c.JSON(http.StatusBadRequest, detail("invalid request"))
	}
	if msg := validateEntry(&e); msg != "" {
		return c.JSON(http.StatusBadRequest, detail(msg))
	}

	userKey := currentUser(c)
	e.Key = uuid.NewString()
	e.UserKey = userKey

	h.server.mu.Lock()
	defer h.server.mu.Unlock()

	rows := h.table(userKey)
	if e.IsDefault {
		clearDefault(rows)
	}
	// Inserting at an occupied order shifts the rest down
	for _, r := range rows {
		if r.Order >= e.Order {
			r.Order++
		}
	}
	rows = append(rows, &e)
	sortEntries(rows)
	h.setTable(userKey, rows)
	return c.JSON(http.StatusCreated, h.kind.view(&e))
}

func clearDefault(rows []*entry) {
	for _, r := range rows {
		r.IsDefault = false
	}
}

func (h *catalogHandlers) update(c echo.Context) error {
	return h.apply(c, true)
}

func (h *catalogHandlers) patch(c echo.Context) error {
	return h.apply(c, false)
}

// apply handles PUT (full) and PATCH (partial). Order changes go through
// reorder; a PATCH carrying order is accepted only when it is unchanged.
func (h *catalogHandlers) apply(c echo.Context, full bool) error {
	var p entryPatch
	if err := json.NewDecoder(c.Request().Body).Decode(&p); err != nil {
		return c.JSON(http.StatusBadRequest, detail("invalid request"))
	}
	if full && (p.Name == nil || p.Color == nil) {
		return c.JSON(http.StatusBadRequest, detail("name and color are required"))
	}

	userKey := currentUser(c)

	h.server.mu.Lock()
	defer h.server.mu.Unlock()

	rows := h.table(userKey)
	e := findEntry(rows, c.Param("key"))
	if e == nil {
		return h.notFound(c)
	}

	next := *e
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Color != nil {
		next.Color = *p.Color
	}
	if p.Icon != nil {
		next.Icon = *p.Icon
	}
	if p.Order != nil {
		next.Order = *p.Order
	}
	if p.IsDefault != nil {
		next.IsDefault = *p.IsDefault
	}
	if msg := validateEntry(&next); msg != "" {
		return c.JSON(http.StatusBadRequest, detail(msg))
	}

	if next.IsDefault && !e.IsDefault {
		clearDefault(rows)
	}
	if next.Order != e.Order {
		moved, _ := moveEntry(rows, e.Key, e.Order, next.Order)
		h.setTable(userKey, moved)
		next.Order = e.Order
	}
	*e = next
	return c.JSON(http.StatusOK, h.kind.view(e))
}

func (h *catalogHandlers) delete(c echo.Context) error {
	userKey := currentUser(c)
	key := c.Param("key")

	h.server.mu.Lock()
	defer h.server.mu.Unlock()

	rows := h.table(userKey)
	for i, e := range rows {
		if e.Key != key {
			continue
		}
		if h.kind == kindPriority {
			for _, t := range h.server.todos[userKey] {
				if t.Priority == key {
					return c.JSON(http.StatusBadRequest, detail("priority is used by existing todos"))
				}
			}
		}
		rows = append(rows[:i], rows[i+1:]...)
		sortEntries(rows)
		renumber(rows)
		h.setTable(userKey, rows)
		return c.NoContent(http.StatusNoContent)
	}
	return h.notFound(c)
}

func (h *catalogHandlers) reorder(c echo.Context) error {
	var r model.Reorder
	if err := c.Bind(&r); err != nil {
		return c.JSON(http.StatusBadRequest, detail("invalid request"))
	}
	if err := r.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, detail(err.Error()))
	}

	userKey := currentUser(c)

	h.server.mu.Lock()
	defer h.server.mu.Unlock()

	rows := h.table(userKey)
	if findEntry(rows, c.Param("key")) == nil {
		return h.notFound(c)
	}
	moved, ok := moveEntry(rows, c.Param("key"), r.FromOrder, r.ToOrder)
	if !ok {
		return c.JSON(http.StatusBadRequest, detail("fromOrder does not match the current order"))
	}
	h.setTable(userKey, moved)

	items := make([]interface{}, 0, len(moved))
	for _, e := range moved {
		items = append(items, h.kind.view(e))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{h.resource: items})
}

func (h *catalogHandlers) checkAvailability(c echo.Context) error {
	var e entry
	if err := c.Bind(&e); err != nil {
		return c.JSON(http.StatusBadRequest, detail("invalid request"))
	}

	h.server.mu.Lock()
	defer h.server.mu.Unlock()

	for _, r := range h.table(currentUser(c)) {
		if strings.EqualFold(r.Name, strings.TrimSpace(e.Name)) {
			return c.JSON(http.StatusOK, model.Availability{Available: false, Message: "name already in use"})
		}
	}
	return c.JSON(http.StatusOK, model.Availability{Available: true})
}
