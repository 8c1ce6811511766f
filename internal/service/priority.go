package service

import (
	"context"
	"errors"

	"github.com/existflow/irontodo/internal/api"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/schema"
)

const (
	prioritiesPath = "priorities"
	allPageSize    = 100
	maxAllPages    = 50
)

// PriorityService maps the priority endpoints
type PriorityService struct {
	client *api.Client
}

// NewPriorityService creates a priority service
func NewPriorityService(client *api.Client) *PriorityService {
	return &PriorityService{client: client}
}

// List fetches one page of priorities
func (s *PriorityService) List(ctx context.Context, page, size int) (model.Page[model.Priority], error) {
	body, err := s.client.Get(ctx, prioritiesPath, pageValues(page, size))
	if err != nil {
		return model.Page[model.Priority]{}, err
	}
	return decodePage[model.Priority](schema.PriorityPage, "priorities", body)
}

// ListByLink fetches the page a next_link or prev_link points at
func (s *PriorityService) ListByLink(ctx context.Context, link string) (model.Page[model.Priority], error) {
	body, err := s.client.FollowLink(ctx, link)
	if err != nil {
		return model.Page[model.Priority]{}, err
	}
	return decodePage[model.Priority](schema.PriorityPage, "priorities", body)
}

// All walks every page of the catalog, sorted by order. When the catalog
// cannot be fetched the default priorities are returned instead; only an
// unauthorized session is reported as an error.
func (s *PriorityService) All(ctx context.Context) ([]model.Priority, error) {
	page, err := s.List(ctx, 1, allPageSize)
	if err != nil {
		return s.fallback(err)
	}

	all := append([]model.Priority(nil), page.Items...)
	for i := 0; page.NextLink != "" && i < maxAllPages; i++ {
		page, err = s.ListByLink(ctx, page.NextLink)
		if err != nil {
			return s.fallback(err)
		}
		all = append(all, page.Items...)
	}

	if len(all) == 0 {
		return model.DefaultPriorities(), nil
	}
	return model.SortPriorities(all), nil
}

func (s *PriorityService) fallback(err error) ([]model.Priority, error) {
	if errors.Is(err, api.ErrUnauthorized) {
		return nil, err
	}
	logger.Warn("Using default priorities", logger.F("error", err))
	return model.DefaultPriorities(), nil
}

// Get fetches a single priority
func (s *PriorityService) Get(ctx context.Context, key string) (model.Priority, error) {
	body, err := s.client.Get(ctx, itemPath(prioritiesPath, key), nil)
	if err != nil {
		return model.Priority{}, err
	}
	return decodePriority(body)
}

// Create submits a draft
func (s *PriorityService) Create(ctx context.Context, draft model.PriorityDraft) (model.Priority, error) {
	body, err := s.client.Post(ctx, prioritiesPath, draft)
	if err != nil {
		return model.Priority{}, err
	}
	return decodePriority(body)
}

// Update replaces a priority
func (s *PriorityService) Update(ctx context.Context, key string, draft model.PriorityDraft) (model.Priority, error) {
	body, err := s.client.Put(ctx, itemPath(prioritiesPath, key), draft)
	if err != nil {
		return model.Priority{}, err
	}
	return decodePriority(body)
}

// Patch applies a partial update
func (s *PriorityService) Patch(ctx context.Context, key string, patch model.PriorityPatch) (model.Priority, error) {
	body, err := s.client.Patch(ctx, itemPath(prioritiesPath, key), patch)
	if err != nil {
		return model.Priority{}, err
	}
	return decodePriority(body)
}

// Delete removes a priority
func (s *PriorityService) Delete(ctx context.Context, key string) error {
	_, err := s.client.Delete(ctx, itemPath(prioritiesPath, key))
	return err
}

// Reorder asks the server to move key from one order slot to another
func (s *PriorityService) Reorder(ctx context.Context, key string, from, to int) error {
	_, err := s.client.Patch(ctx, itemPath(prioritiesPath, key)+"/reorder", model.Reorder{FromOrder: from, ToOrder: to})
	return err
}

// CheckAvailability asks whether a draft's name and order are free
func (s *PriorityService) CheckAvailability(ctx context.Context, draft model.PriorityDraft) (model.Availability, error) {
	body, err := s.client.Post(ctx, prioritiesPath+"/check-availability", draft)
	if err != nil {
		return model.Availability{}, err
	}
	var a model.Availability
	if err := schema.Decode(schema.Availability, body, &a); err != nil {
		return model.Availability{}, err
	}
	return a, nil
}

func decodePriority(body []byte) (model.Priority, error) {
	var p model.Priority
	if err := schema.Decode(schema.Priority, body, &p); err != nil {
		return model.Priority{}, err
	}
	return p, nil
}
