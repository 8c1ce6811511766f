package fakeapi

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type pageParams struct {
	page int
	size int
}

func parsePage(c echo.Context) pageParams {
	p := pageParams{page: 1, size: defaultPageSize}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		p.page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("size")); err == nil && v > 0 {
		p.size = v
	}
	if p.size > maxPageSize {
		p.size = maxPageSize
	}
	return p
}

// bounds returns the slice range of the page within total items
func (p pageParams) bounds(total int) (int, int) {
	start := (p.page - 1) * p.size
	if start > total {
		start = total
	}
	end := start + p.size
	if end > total {
		end = total
	}
	return start, end
}

// links builds next_link and prev_link from the request query, so filters
// carry over. A missing link is JSON null.
func (p pageParams) links(c echo.Context, total int) (next, prev *string) {
	link := func(page int) *string {
		q := url.Values{}
		for k, vs := range c.QueryParams() {
			q[k] = append([]string(nil), vs...)
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("size", strconv.Itoa(p.size))
		s := c.Request().URL.Path + "?" + q.Encode()
		return &s
	}

	if p.page*p.size < total {
		next = link(p.page + 1)
	}
	if p.page > 1 {
		prev = link(p.page - 1)
	}
	return next, prev
}
