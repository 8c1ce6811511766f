package model

import (
	"regexp"
	"strings"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// FieldError is a single inline form error
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors collects per-field form errors
type ValidationErrors []FieldError

// Add appends an error for field
func (v *ValidationErrors) Add(field, msg string) {
	*v = append(*v, FieldError{Field: field, Message: msg})
}

// Err returns nil when no errors were collected
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Field returns the message recorded for field, if any
func (v ValidationErrors) Field(name string) string {
	for _, e := range v {
		if e.Field == name {
			return e.Message
		}
	}
	return ""
}

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// IsHexColor reports whether s is a #RRGGBB color
func IsHexColor(s string) bool {
	return hexColor.MatchString(s)
}

// validateCatalogEntry checks the fields shared by priorities and statuses
func validateCatalogEntry(errs *ValidationErrors, name, color, icon string, order int) {
	if strings.TrimSpace(name) == "" {
		errs.Add("name", "name is required")
	}
	if !IsHexColor(color) {
		errs.Add("color", "color must be a hex value like #4ECDC4")
	}
	if icon != "" && !IsKnownIcon(icon) {
		errs.Add("icon", "unknown icon: "+icon)
	}
	if order < 1 {
		errs.Add("order", "order must be at least 1")
	}
}
