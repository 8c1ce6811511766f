package model

import "sort"

// Icon is an entry of the fixed icon registry priorities and statuses pick from
type Icon struct {
	Key      string
	Name     string
	Category string
	Glyph    string // terminal rendering
}

var icons = map[string]Icon{
	"fa-chevron-up":           {Key: "fa-chevron-up", Name: "Chevron Up", Category: "arrows", Glyph: "˄"},
	"fa-chevron-down":         {Key: "fa-chevron-down", Name: "Chevron Down", Category: "arrows", Glyph: "˅"},
	"fa-arrow-up":             {Key: "fa-arrow-up", Name: "Arrow Up", Category: "arrows", Glyph: "↑"},
	"fa-arrow-down":           {Key: "fa-arrow-down", Name: "Arrow Down", Category: "arrows", Glyph: "↓"},
	"fa-exclamation-triangle": {Key: "fa-exclamation-triangle", Name: "Warning", Category: "priority", Glyph: "▲"},
	"fa-exclamation":          {Key: "fa-exclamation", Name: "Exclamation", Category: "priority", Glyph: "!"},
	"fa-fire":                 {Key: "fa-fire", Name: "Fire", Category: "priority", Glyph: "♨"},
	"fa-bolt":                 {Key: "fa-bolt", Name: "Lightning", Category: "priority", Glyph: "ϟ"},
	"fa-flag":                 {Key: "fa-flag", Name: "Flag", Category: "markers", Glyph: "⚑"},
	"fa-star":                 {Key: "fa-star", Name: "Star", Category: "markers", Glyph: "★"},
	"fa-minus":                {Key: "fa-minus", Name: "Minus", Category: "basic", Glyph: "-"},
	"fa-circle":               {Key: "fa-circle", Name: "Circle", Category: "basic", Glyph: "●"},
	"fa-square":               {Key: "fa-square", Name: "Square", Category: "basic", Glyph: "■"},
	"fa-diamond":              {Key: "fa-diamond", Name: "Diamond", Category: "basic", Glyph: "◆"},
	"fa-heart":                {Key: "fa-heart", Name: "Heart", Category: "basic", Glyph: "♥"},
	"fa-clock":                {Key: "fa-clock", Name: "Clock", Category: "time", Glyph: "◷"},
	"fa-calendar":             {Key: "fa-calendar", Name: "Calendar", Category: "time", Glyph: "▦"},
	"fa-check":                {Key: "fa-check", Name: "Check", Category: "status", Glyph: "✓"},
	"fa-times":                {Key: "fa-times", Name: "Times", Category: "status", Glyph: "✗"},
	"fa-plus":                 {Key: "fa-plus", Name: "Plus", Category: "status", Glyph: "+"},
	"fa-info":                 {Key: "fa-info", Name: "Info", Category: "status", Glyph: "i"},
	"fa-question":             {Key: "fa-question", Name: "Question", Category: "status", Glyph: "?"},
	"fa-hashtag":              {Key: "fa-hashtag", Name: "Hashtag", Category: "symbols", Glyph: "#"},
	"fa-at":                   {Key: "fa-at", Name: "At Symbol", Category: "symbols", Glyph: "@"},
	"fa-asterisk":             {Key: "fa-asterisk", Name: "Asterisk", Category: "symbols", Glyph: "*"},
	"fa-percent":              {Key: "fa-percent", Name: "Percent", Category: "symbols", Glyph: "%"},
}

// defaultPriorityIcons maps the well-known priority keys to their icon
var defaultPriorityIcons = map[string]string{
	"low":    "fa-chevron-down",
	"medium": "fa-minus",
	"high":   "fa-chevron-up",
	"urgent": "fa-exclamation-triangle",
}

// IsKnownIcon reports whether key is in the registry
func IsKnownIcon(key string) bool {
	_, ok := icons[key]
	return ok
}

// LookupIcon returns the registry entry for key, falling back to fa-minus
func LookupIcon(key string) Icon {
	if icon, ok := icons[key]; ok {
		return icon
	}
	return icons["fa-minus"]
}

// IconFor returns the icon for a priority, using its own icon when set and
// the well-known default for its key otherwise
func IconFor(p Priority) Icon {
	if p.Icon != "" {
		return LookupIcon(p.Icon)
	}
	return LookupIcon(defaultPriorityIcons[p.Key])
}

// Icons returns the registry sorted by category then key
func Icons() []Icon {
	list := make([]Icon, 0, len(icons))
	for _, icon := range icons {
		list = append(list, icon)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Category != list[j].Category {
			return list[i].Category < list[j].Category
		}
		return list[i].Key < list[j].Key
	})
	return list
}
