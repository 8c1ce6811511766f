package service

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/existflow/irontodo/internal/api"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/schema"
)

// Services groups the resource services sharing one API client
type Services struct {
	Todos      *TodoService
	Priorities *PriorityService
	Statuses   *StatusService
	Users      *UserService
}

// New creates every resource service
func New(client *api.Client, tokens TokenStore, creds Credentials) *Services {
	return &Services{
		Todos:      NewTodoService(client),
		Priorities: NewPriorityService(client),
		Statuses:   NewStatusService(client),
		Users:      NewUserService(client, tokens, creds),
	}
}

// pageEnvelope is the navigation part of every list response
type pageEnvelope struct {
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	Size     int    `json:"size"`
	NextLink string `json:"next_link"`
	PrevLink string `json:"prev_link"`
}

// decodePage validates a list body and lifts it into a model.Page. itemsKey
// is the resource-named array field ("todos", "priorities", "statuses").
func decodePage[T any](schemaName, itemsKey string, body []byte) (model.Page[T], error) {
	var env pageEnvelope
	if err := schema.Decode(schemaName, body, &env); err != nil {
		return model.Page[T]{}, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return model.Page[T]{}, fmt.Errorf("failed to decode %s: %w", itemsKey, err)
	}
	items := []T{}
	if raw, ok := fields[itemsKey]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return model.Page[T]{}, fmt.Errorf("failed to decode %s: %w", itemsKey, err)
		}
	}

	return model.Page[T]{
		Items:    items,
		Total:    env.Total,
		Page:     env.Page,
		Size:     env.Size,
		NextLink: env.NextLink,
		PrevLink: env.PrevLink,
	}, nil
}

// pageValues encodes page and size, skipping zero values
func pageValues(page, size int) url.Values {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		v.Set("size", strconv.Itoa(size))
	}
	return v
}

func itemPath(resource, key string) string {
	return resource + "/" + url.PathEscape(key)
}
