package model

import (
	"sort"
	"strings"
)

// Sort modes understood by the todo list endpoint
const (
	SortPriorityDesc           = "priority-desc"
	SortPriorityDescTextAsc    = "priority-desc-text-asc"
	SortIncompletePriorityDesc = "incomplete-priority-desc"
	SortTextAsc                = "text-asc"
	SortTextDesc               = "text-desc"
)

// DefaultSort is the initial sort of a todo list
const DefaultSort = SortIncompletePriorityDesc

// SortOption pairs a sort mode with its label
type SortOption struct {
	Value string
	Label string
}

// SortOptions returns the selectable sort modes in display order
func SortOptions() []SortOption {
	return []SortOption{
		{Value: SortPriorityDesc, Label: "Priority (High to Low)"},
		{Value: SortPriorityDescTextAsc, Label: "Priority + Alphabetical"},
		{Value: SortIncompletePriorityDesc, Label: "Incomplete + Priority"},
		{Value: SortTextAsc, Label: "Alphabetical (A-Z)"},
		{Value: SortTextDesc, Label: "Alphabetical (Z-A)"},
	}
}

// SortLabel returns the label of a sort mode, or the mode itself when unknown
func SortLabel(mode string) string {
	for _, o := range SortOptions() {
		if o.Value == mode {
			return o.Label
		}
	}
	return mode
}

// NextSort returns the sort mode following mode in SortOptions, wrapping around
func NextSort(mode string) string {
	opts := SortOptions()
	for i, o := range opts {
		if o.Value == mode {
			return opts[(i+1)%len(opts)].Value
		}
	}
	return opts[0].Value
}

// SortPriorities returns priorities ordered by ascending order
func SortPriorities(priorities []Priority) []Priority {
	sorted := append([]Priority(nil), priorities...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// PriorityOrder returns priority keys from highest order to lowest
func PriorityOrder(priorities []Priority) []string {
	sorted := SortPriorities(priorities)
	keys := make([]string, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		keys = append(keys, sorted[i].Key)
	}
	return keys
}

// SortTodos returns a sorted copy of todos. Priority rank comes from the
// catalog order, unknown priorities sort last.
func SortTodos(todos []Todo, priorities []Priority, mode string) []Todo {
	sorted := append([]Todo(nil), todos...)

	rank := make(map[string]int, len(priorities))
	for i, key := range PriorityOrder(priorities) {
		rank[key] = i
	}
	rankOf := func(key string) int {
		if r, ok := rank[key]; ok {
			return r
		}
		return len(rank)
	}
	byTitle := func(a, b Todo) int {
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	}

	var less func(a, b Todo) bool
	switch mode {
	case SortPriorityDesc:
		less = func(a, b Todo) bool { return rankOf(a.Priority) < rankOf(b.Priority) }
	case SortPriorityDescTextAsc:
		less = func(a, b Todo) bool {
			if ra, rb := rankOf(a.Priority), rankOf(b.Priority); ra != rb {
				return ra < rb
			}
			return byTitle(a, b) < 0
		}
	case SortIncompletePriorityDesc:
		less = func(a, b Todo) bool {
			if a.Completed != b.Completed {
				return !a.Completed
			}
			return rankOf(a.Priority) < rankOf(b.Priority)
		}
	case SortTextAsc:
		less = func(a, b Todo) bool { return byTitle(a, b) < 0 }
	case SortTextDesc:
		less = func(a, b Todo) bool { return byTitle(a, b) > 0 }
	default:
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted
}
