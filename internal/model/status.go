package model

// Status is a user-configurable workflow state for todos
type Status struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
	IsDefault   bool   `json:"is_default"`
	UserKey     string `json:"user_key,omitempty"`
}

// StatusDraft is the payload of a create or full update request
type StatusDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
	IsDefault   bool   `json:"is_default"`
	UserKey     string `json:"user_key,omitempty"`
}

// Validate checks the status form fields
func (d StatusDraft) Validate() error {
	var errs ValidationErrors
	validateCatalogEntry(&errs, d.Name, d.Color, d.Icon, d.Order)
	return errs.Err()
}

// StatusPatch is a partial status update
type StatusPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Order       *int    `json:"order,omitempty"`
	IsDefault   *bool   `json:"is_default,omitempty"`
}

// Validate checks only the fields present in the patch
func (p StatusPatch) Validate() error {
	return validatePatch(p.Name, p.Color, p.Icon, p.Order)
}

// DefaultStatus returns the first status flagged as default, or nil
func DefaultStatus(statuses []Status) *Status {
	for i := range statuses {
		if statuses[i].IsDefault {
			return &statuses[i]
		}
	}
	return nil
}

// FindStatus returns the status with key, or nil
func FindStatus(statuses []Status, key string) *Status {
	for i := range statuses {
		if statuses[i].Key == key {
			return &statuses[i]
		}
	}
	return nil
}
