package model

// Page is the navigation envelope of every list endpoint. NextLink and
// PrevLink are followed verbatim.
type Page[T any] struct {
	Items    []T
	Total    int
	Page     int
	Size     int
	NextLink string
	PrevLink string
}

// TotalPages returns max(1, ceil(total/size))
func (p Page[T]) TotalPages() int {
	return TotalPages(p.Total, p.Size)
}

// HasNext reports whether the server sent a next link
func (p Page[T]) HasNext() bool {
	return p.NextLink != ""
}

// HasPrev reports whether the server sent a previous link
func (p Page[T]) HasPrev() bool {
	return p.PrevLink != ""
}

// TotalPages computes the page count, never less than 1
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		return 1
	}
	return pages
}
