package model

import "strings"

// Todo represents a single todo item as returned by the API
type Todo struct {
	Key         string  `json:"key"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Priority    string  `json:"priority"`
	Status      *string `json:"status,omitempty"`
	Completed   bool    `json:"completed"`
	UserKey     string  `json:"user_key,omitempty"`
}

// StatusKey returns the status key or an empty string when unset
func (t Todo) StatusKey() string {
	if t.Status == nil {
		return ""
	}
	return *t.Status
}

// Draft returns a draft that would re-create this todo under a new key
func (t Todo) Draft() TodoDraft {
	return TodoDraft{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		Completed:   t.Completed,
	}
}

// TodoDraft is the payload of a create request. It lives only client-side
// until the create call succeeds.
type TodoDraft struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	Status      *string `json:"status,omitempty"`
	Completed   bool    `json:"completed"`
	UserKey     string  `json:"user_key,omitempty"`
}

// Normalize trims the title
func (d *TodoDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
}

// Validate checks the fields a todo form requires before submission
func (d TodoDraft) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(d.Title) == "" {
		errs.Add("title", "title is required")
	}
	if strings.TrimSpace(d.Priority) == "" {
		errs.Add("priority", "priority is required")
	}
	return errs.Err()
}

// TodoPatch is a partial update; nil fields are left untouched by the server
type TodoPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// Merge fills every nil field of the patch from the current todo
func (p TodoPatch) Merge(current Todo) TodoPatch {
	if p.Title == nil {
		p.Title = &current.Title
	}
	if p.Description == nil {
		p.Description = &current.Description
	}
	if p.Priority == nil {
		p.Priority = &current.Priority
	}
	if p.Status == nil {
		p.Status = current.Status
	}
	if p.Completed == nil {
		p.Completed = &current.Completed
	}
	return p
}

// Validate rejects patches that would blank required fields
func (p TodoPatch) Validate() error {
	var errs ValidationErrors
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		errs.Add("title", "title is required")
	}
	if p.Priority != nil && strings.TrimSpace(*p.Priority) == "" {
		errs.Add("priority", "priority is required")
	}
	return errs.Err()
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}
