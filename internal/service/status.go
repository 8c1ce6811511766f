package service

import (
	"context"
	"errors"

	"github.com/existflow/irontodo/internal/api"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/schema"
)

const statusesPath = "statuses"

// StatusService maps the status endpoints
type StatusService struct {
	client *api.Client
}

// NewStatusService creates a status service
func NewStatusService(client *api.Client) *StatusService {
	return &StatusService{client: client}
}

// List fetches one page of statuses. A 404 means statuses are not
// provisioned for the user and yields an empty page.
func (s *StatusService) List(ctx context.Context, page, size int) (model.Page[model.Status], error) {
	body, err := s.client.Get(ctx, statusesPath, pageValues(page, size))
	if err != nil {
		return emptyStatuses(page, size, err)
	}
	return decodePage[model.Status](schema.StatusPage, "statuses", body)
}

// ListByLink fetches the page a next_link or prev_link points at
func (s *StatusService) ListByLink(ctx context.Context, link string) (model.Page[model.Status], error) {
	body, err := s.client.FollowLink(ctx, link)
	if err != nil {
		return emptyStatuses(0, 0, err)
	}
	return decodePage[model.Status](schema.StatusPage, "statuses", body)
}

func emptyStatuses(page, size int, err error) (model.Page[model.Status], error) {
	if !errors.Is(err, api.ErrNotFound) {
		return model.Page[model.Status]{}, err
	}
	logger.Debug("Status list not provisioned", logger.F("error", err))
	if page < 1 {
		page = 1
	}
	return model.Page[model.Status]{Items: []model.Status{}, Page: page, Size: size}, nil
}

// Get fetches a single status
func (s *StatusService) Get(ctx context.Context, key string) (model.Status, error) {
	body, err := s.client.Get(ctx, itemPath(statusesPath, key), nil)
	if err != nil {
		return model.Status{}, err
	}
	return decodeStatus(body)
}

// Create submits a draft
func (s *StatusService) Create(ctx context.Context, draft model.StatusDraft) (model.Status, error) {
	body, err := s.client.Post(ctx, statusesPath, draft)
	if err != nil {
		return model.Status{}, err
	}
	return decodeStatus(body)
}

// Update replaces a status
func (s *StatusService) Update(ctx context.Context, key string, draft model.StatusDraft) (model.Status, error) {
	body, err := s.client.Put(ctx, itemPath(statusesPath, key), draft)
	if err != nil {
		return model.Status{}, err
	}
	return decodeStatus(body)
}

// Patch applies a partial update
func (s *StatusService) Patch(ctx context.Context, key string, patch model.StatusPatch) (model.Status, error) {
	body, err := s.client.Patch(ctx, itemPath(statusesPath, key), patch)
	if err != nil {
		return model.Status{}, err
	}
	return decodeStatus(body)
}

// Delete removes a status
func (s *StatusService) Delete(ctx context.Context, key string) error {
	_, err := s.client.Delete(ctx, itemPath(statusesPath, key))
	return err
}

// Reorder asks the server to move key from one order slot to another
func (s *StatusService) Reorder(ctx context.Context, key string, from, to int) error {
	_, err := s.client.Patch(ctx, itemPath(statusesPath, key)+"/reorder", model.Reorder{FromOrder: from, ToOrder: to})
	return err
}

func decodeStatus(body []byte) (model.Status, error) {
	var st model.Status
	if err := schema.Decode(schema.Status, body, &st); err != nil {
		return model.Status{}, err
	}
	return st, nil
}
