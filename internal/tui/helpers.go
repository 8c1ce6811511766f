package tui

// truncate shortens a string to max runes with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		if max > 0 && len(r) > max {
			return string(r[:max])
		}
		return s
	}
	return string(r[:max-3]) + "..."
}

// clamp keeps a cursor inside a list of n rows
func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}
