package store

import (
	"context"
	"net/url"

	"github.com/existflow/irontodo/internal/model"
)

// PageFilter is the query of lists that only page
type PageFilter struct{}

// Values implements Filter
func (PageFilter) Values() url.Values {
	return url.Values{}
}

// PriorityAPI is the priority service surface the store uses
type PriorityAPI interface {
	List(ctx context.Context, page, size int) (model.Page[model.Priority], error)
	ListByLink(ctx context.Context, link string) (model.Page[model.Priority], error)
	Create(ctx context.Context, draft model.PriorityDraft) (model.Priority, error)
	Update(ctx context.Context, key string, draft model.PriorityDraft) (model.Priority, error)
	Patch(ctx context.Context, key string, patch model.PriorityPatch) (model.Priority, error)
	Delete(ctx context.Context, key string) error
	Reorder(ctx context.Context, key string, from, to int) error
	CheckAvailability(ctx context.Context, draft model.PriorityDraft) (model.Availability, error)
}

// StatusAPI is the status service surface the store uses
type StatusAPI interface {
	List(ctx context.Context, page, size int) (model.Page[model.Status], error)
	ListByLink(ctx context.Context, link string) (model.Page[model.Status], error)
	Create(ctx context.Context, draft model.StatusDraft) (model.Status, error)
	Update(ctx context.Context, key string, draft model.StatusDraft) (model.Status, error)
	Patch(ctx context.Context, key string, patch model.StatusPatch) (model.Status, error)
	Delete(ctx context.Context, key string) error
	Reorder(ctx context.Context, key string, from, to int) error
}

// pager adapts a page/size lister to Source
type pager[T any] struct {
	list   func(ctx context.Context, page, size int) (model.Page[T], error)
	byLink func(ctx context.Context, link string) (model.Page[T], error)
}

func (p pager[T]) List(ctx context.Context, page, size int, _ PageFilter) (model.Page[T], error) {
	return p.list(ctx, page, size)
}

func (p pager[T]) ListByLink(ctx context.Context, link string) (model.Page[T], error) {
	return p.byLink(ctx, link)
}

// PriorityStore is the paginated priority catalog
type PriorityStore struct {
	*Store[model.Priority, PageFilter]
	api PriorityAPI
}

// NewPriorityStore creates the priority store
func NewPriorityStore(api PriorityAPI, size int, prefetch bool) *PriorityStore {
	src := pager[model.Priority]{list: api.List, byLink: api.ListByLink}
	return &PriorityStore{
		Store: New[model.Priority, PageFilter]("priorities", src, Options[model.Priority, PageFilter]{
			Size:     size,
			Text:     func(p model.Priority) string { return p.Name },
			Prefetch: prefetch,
		}),
		api: api,
	}
}

// Add validates and creates a priority
func (s *PriorityStore) Add(ctx context.Context, draft model.PriorityDraft) (model.Priority, error) {
	if err := draft.Validate(); err != nil {
		return model.Priority{}, err
	}
	var created model.Priority
	err := s.Mutate(ctx, "create", func(ctx context.Context) error {
		var err error
		created, err = s.api.Create(ctx, draft)
		return err
	})
	return created, err
}

// Update validates and replaces a priority
func (s *PriorityStore) Update(ctx context.Context, key string, draft model.PriorityDraft) (model.Priority, error) {
	if err := draft.Validate(); err != nil {
		return model.Priority{}, err
	}
	var saved model.Priority
	err := s.Mutate(ctx, "update", func(ctx context.Context) error {
		var err error
		saved, err = s.api.Update(ctx, key, draft)
		return err
	})
	return saved, err
}

// Patch validates and applies a partial update
func (s *PriorityStore) Patch(ctx context.Context, key string, patch model.PriorityPatch) (model.Priority, error) {
	if err := patch.Validate(); err != nil {
		return model.Priority{}, err
	}
	var saved model.Priority
	err := s.Mutate(ctx, "patch", func(ctx context.Context) error {
		var err error
		saved, err = s.api.Patch(ctx, key, patch)
		return err
	})
	return saved, err
}

// Delete removes a priority
func (s *PriorityStore) Delete(ctx context.Context, key string) error {
	return s.Mutate(ctx, "delete", func(ctx context.Context) error {
		return s.api.Delete(ctx, key)
	})
}

// Reorder asks the server to move key and reloads its numbering
func (s *PriorityStore) Reorder(ctx context.Context, key string, from, to int) error {
	if err := (model.Reorder{FromOrder: from, ToOrder: to}).Validate(); err != nil {
		return err
	}
	return s.Mutate(ctx, "reorder", func(ctx context.Context) error {
		return s.api.Reorder(ctx, key, from, to)
	})
}

// CheckAvailability asks whether draft's name is free. It does not touch
// the list.
func (s *PriorityStore) CheckAvailability(ctx context.Context, draft model.PriorityDraft) (model.Availability, error) {
	return s.api.CheckAvailability(ctx, draft)
}

// StatusStore is the paginated status catalog
type StatusStore struct {
	*Store[model.Status, PageFilter]
	api StatusAPI
}

// NewStatusStore creates the status store
func NewStatusStore(api StatusAPI, size int, prefetch bool) *StatusStore {
	src := pager[model.Status]{list: api.List, byLink: api.ListByLink}
	return &StatusStore{
		Store: New[model.Status, PageFilter]("statuses", src, Options[model.Status, PageFilter]{
			Size:     size,
			Text:     func(st model.Status) string { return st.Name },
			Prefetch: prefetch,
		}),
		api: api,
	}
}

// Default returns the first status of the loaded page flagged as default
func (s *StatusStore) Default() *model.Status {
	st := s.Snapshot()
	return model.DefaultStatus(st.Items)
}

// Add validates and creates a status
func (s *StatusStore) Add(ctx context.Context, draft model.StatusDraft) (model.Status, error) {
	if err := draft.Validate(); err != nil {
		return model.Status{}, err
	}
	var created model.Status
	err := s.Mutate(ctx, "create", func(ctx context.Context) error {
		var err error
		created, err = s.api.Create(ctx, draft)
		return err
	})
	return created, err
}

// Update validates and replaces a status
func (s *StatusStore) Update(ctx context.Context, key string, draft model.StatusDraft) (model.Status, error) {
	if err := draft.Validate(); err != nil {
		return model.Status{}, err
	}
	var saved model.Status
	err := s.Mutate(ctx, "update", func(ctx context.Context) error {
		var err error
		saved, err = s.api.Update(ctx, key, draft)
		return err
	})
	return saved, err
}

// Patch validates and applies a partial update
func (s *StatusStore) Patch(ctx context.Context, key string, patch model.StatusPatch) (model.Status, error) {
	if err := patch.Validate(); err != nil {
		return model.Status{}, err
	}
	var saved model.Status
	err := s.Mutate(ctx, "patch", func(ctx context.Context) error {
		var err error
		saved, err = s.api.Patch(ctx, key, patch)
		return err
	})
	return saved, err
}

// Delete removes a status
func (s *StatusStore) Delete(ctx context.Context, key string) error {
	return s.Mutate(ctx, "delete", func(ctx context.Context) error {
		return s.api.Delete(ctx, key)
	})
}

// Reorder asks the server to move key and reloads its numbering
func (s *StatusStore) Reorder(ctx context.Context, key string, from, to int) error {
	if err := (model.Reorder{FromOrder: from, ToOrder: to}).Validate(); err != nil {
		return err
	}
	return s.Mutate(ctx, "reorder", func(ctx context.Context) error {
		return s.api.Reorder(ctx, key, from, to)
	})
}
