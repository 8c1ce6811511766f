package model

// Priority is a user-configurable priority level. Order defines its display
// and sort rank within the user's set.
type Priority struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
	UserKey     string `json:"user_key,omitempty"`
}

// PriorityDraft is the payload of a create or full update request
type PriorityDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
	UserKey     string `json:"user_key,omitempty"`
}

// Validate checks the priority form fields
func (d PriorityDraft) Validate() error {
	var errs ValidationErrors
	validateCatalogEntry(&errs, d.Name, d.Color, d.Icon, d.Order)
	return errs.Err()
}

// PriorityPatch is a partial priority update
type PriorityPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// Validate checks only the fields present in the patch
func (p PriorityPatch) Validate() error {
	return validatePatch(p.Name, p.Color, p.Icon, p.Order)
}

// Reorder moves a catalog entry from one order slot to another. The server
// renumbers the affected range.
type Reorder struct {
	FromOrder int `json:"fromOrder"`
	ToOrder   int `json:"toOrder"`
}

// Validate rejects orders below the first slot
func (r Reorder) Validate() error {
	var errs ValidationErrors
	if r.FromOrder < 1 {
		errs.Add("fromOrder", "order must be at least 1")
	}
	if r.ToOrder < 1 {
		errs.Add("toOrder", "order must be at least 1")
	}
	return errs.Err()
}

// Availability is the server answer to a priority availability check
type Availability struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

// DefaultPriorities returns the catalog used when the priority list cannot be
// fetched
func DefaultPriorities() []Priority {
	return []Priority{
		{Key: "low", Name: "Low", Description: "Low priority", Color: "#6b7280", Icon: "fa-chevron-down", Order: 1},
		{Key: "medium", Name: "Medium", Description: "Medium priority", Color: "#f59e0b", Icon: "fa-minus", Order: 2},
		{Key: "high", Name: "High", Description: "High priority", Color: "#ef4444", Icon: "fa-chevron-up", Order: 3},
		{Key: "urgent", Name: "Urgent", Description: "Urgent priority", Color: "#dc2626", Icon: "fa-exclamation-triangle", Order: 4},
	}
}

// FindPriority returns the priority with key, or nil
func FindPriority(priorities []Priority, key string) *Priority {
	for i := range priorities {
		if priorities[i].Key == key {
			return &priorities[i]
		}
	}
	return nil
}

func validatePatch(name, color, icon *string, order *int) error {
	var errs ValidationErrors
	if name != nil && *name == "" {
		errs.Add("name", "name is required")
	}
	if color != nil && !IsHexColor(*color) {
		errs.Add("color", "color must be a hex value like #4ECDC4")
	}
	if icon != nil && *icon != "" && !IsKnownIcon(*icon) {
		errs.Add("icon", "unknown icon: "+*icon)
	}
	if order != nil && *order < 1 {
		errs.Add("order", "order must be at least 1")
	}
	return errs.Err()
}
