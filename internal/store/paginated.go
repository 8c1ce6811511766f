package store

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
)

// Filter is the server-side part of a list query. Its encoded values, with
// the page size, form the query signature of the page cache.
type Filter interface {
	Values() url.Values
}

// Source fetches pages for a store
type Source[T any, F Filter] interface {
	List(ctx context.Context, page, size int, filter F) (model.Page[T], error)
	ListByLink(ctx context.Context, link string) (model.Page[T], error)
}

// State is a snapshot of a store
type State[T any, F Filter] struct {
	Items    []T
	Total    int
	Page     int
	Size     int
	Filter   F
	Search   string
	NextLink string
	PrevLink string
	Loading  bool
	Err      string
}

// TotalPages returns max(1, ceil(total/size))
func (s State[T, F]) TotalPages() int {
	return model.TotalPages(s.Total, s.Size)
}

// HasNext reports whether a next page link is known
func (s State[T, F]) HasNext() bool {
	return s.NextLink != ""
}

// HasPrev reports whether a previous page link is known
func (s State[T, F]) HasPrev() bool {
	return s.PrevLink != ""
}

// Options configures a Store
type Options[T any, F Filter] struct {
	Size     int
	Filter   F
	Text     func(T) string // field matched by the search box
	Prefetch bool
}

// Store keeps one server-paginated collection: the current page, the page
// cache keyed by query signature and link-based navigation.
type Store[T any, F Filter] struct {
	notifier

	name     string
	source   Source[T, F]
	text     func(T) string
	prefetch bool
	log      *logger.Logger

	mu    sync.Mutex
	state State[T, F]
	cache map[string]model.Page[T]
	gen   uint64 // bumped by every fetch; stale results are dropped
	epoch uint64 // bumped by every invalidation; stale prefetches are dropped

	prefetches sync.WaitGroup
}

// New creates a store reading from source
func New[T any, F Filter](name string, source Source[T, F], opts Options[T, F]) *Store[T, F] {
	size := opts.Size
	if size <= 0 {
		size = 10
	}
	return &Store[T, F]{
		name:     name,
		source:   source,
		text:     opts.Text,
		prefetch: opts.Prefetch,
		log:      logger.WithFields(logger.F("store", name)),
		state: State[T, F]{
			Page:   1,
			Size:   size,
			Filter: opts.Filter,
		},
		cache: make(map[string]model.Page[T]),
	}
}

// Snapshot returns a copy of the current state
func (s *Store[T, F]) Snapshot() State[T, F] {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	st.Items = append([]T(nil), s.state.Items...)
	return st
}

// VisibleItems returns the items of the current page matching the search,
// case-insensitively. Total and paging are unaffected.
func (s *Store[T, F]) VisibleItems() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible()
}

func (s *Store[T, F]) visible() []T {
	q := strings.ToLower(strings.TrimSpace(s.state.Search))
	if q == "" || s.text == nil {
		return append([]T(nil), s.state.Items...)
	}
	out := make([]T, 0, len(s.state.Items))
	for _, item := range s.state.Items {
		if strings.Contains(strings.ToLower(s.text(item)), q) {
			out = append(out, item)
		}
	}
	return out
}

// TotalPages returns the page count, never less than 1
func (s *Store[T, F]) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalPages()
}

// Signature encodes the query dimensions a cached page belongs to
func (s *Store[T, F]) Signature() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signature()
}

func (s *Store[T, F]) signature() string {
	v := s.state.Filter.Values()
	if v == nil {
		v = url.Values{}
	}
	v.Set("size", strconv.Itoa(s.state.Size))
	return v.Encode()
}

func (s *Store[T, F]) cacheKey(page int) string {
	return s.signature() + "|p=" + strconv.Itoa(page)
}

// Cached reports whether page is cached under the current signature
func (s *Store[T, F]) Cached(page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache[s.cacheKey(page)]
	return ok
}

// CacheLen returns the number of cached pages across all signatures
func (s *Store[T, F]) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// FetchPage loads page into the store. A cached page is applied without a
// request unless force is set. On failure the error is recorded and the
// current items are kept.
func (s *Store[T, F]) FetchPage(ctx context.Context, page int, force bool) error {
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	s.gen++
	gen, epoch := s.gen, s.epoch
	key := s.cacheKey(page)
	filter, size := s.state.Filter, s.state.Size
	s.state.Loading = true

	if env, ok := s.cache[key]; ok && !force {
		s.apply(env, page)
		s.state.Loading = false
		s.state.Err = ""
		s.mu.Unlock()

		s.log.Debug("Page served from cache", logger.F("page", page))
		s.notify()
		s.prefetchAdjacent(ctx)
		return nil
	}
	s.mu.Unlock()
	s.notify()

	env, err := s.source.List(ctx, page, size, filter)

	s.mu.Lock()
	if gen != s.gen {
		// A newer fetch owns the state; keep the page if the cache is still current
		if err == nil && epoch == s.epoch {
			s.cache[key] = env
		}
		s.mu.Unlock()
		s.log.Debug("Discarded superseded fetch", logger.F("page", page))
		return err
	}

	s.state.Loading = false
	if err != nil {
		s.state.Err = err.Error()
		s.mu.Unlock()

		s.log.Warn("Failed to fetch page", logger.F("page", page), logger.F("error", err))
		s.notify()
		s.prefetchAdjacent(ctx)
		return err
	}

	if epoch == s.epoch {
		s.cache[key] = env
	}
	s.apply(env, page)
	s.state.Err = ""
	s.mu.Unlock()

	s.notify()
	s.prefetchAdjacent(ctx)
	return nil
}

// apply copies an envelope into the state. Callers hold s.mu.
func (s *Store[T, F]) apply(env model.Page[T], target int) {
	s.state.Items = append([]T(nil), env.Items...)
	s.state.Total = env.Total
	s.state.Page = target
	if env.Page >= 1 {
		s.state.Page = env.Page
	}
	s.state.NextLink = env.NextLink
	s.state.PrevLink = env.PrevLink
}

// prefetchAdjacent warms the cache with the pages behind the current links.
// Failures are ignored and existing entries are never replaced.
func (s *Store[T, F]) prefetchAdjacent(ctx context.Context) {
	if !s.prefetch {
		return
	}

	s.mu.Lock()
	type target struct {
		link string
		key  string
	}
	var targets []target
	if s.state.NextLink != "" {
		page := LinkPage(s.state.NextLink, s.state.Page+1)
		targets = append(targets, target{s.state.NextLink, s.cacheKey(page)})
	}
	if s.state.PrevLink != "" {
		page := LinkPage(s.state.PrevLink, max(1, s.state.Page-1))
		targets = append(targets, target{s.state.PrevLink, s.cacheKey(page)})
	}
	epoch := s.epoch
	var pending []target
	for _, t := range targets {
		if _, ok := s.cache[t.key]; !ok {
			pending = append(pending, t)
		}
	}
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	for _, t := range pending {
		s.prefetches.Add(1)
		go func(t target) {
			defer s.prefetches.Done()

			env, err := s.source.ListByLink(ctx, t.link)
			if err != nil {
				s.log.Debug("Prefetch failed", logger.F("link", t.link), logger.F("error", err))
				return
			}

			s.mu.Lock()
			defer s.mu.Unlock()
			if epoch != s.epoch {
				return
			}
			if _, ok := s.cache[t.key]; !ok {
				s.cache[t.key] = env
			}
		}(t)
	}
}

// Wait blocks until in-flight prefetches finish
func (s *Store[T, F]) Wait() {
	s.prefetches.Wait()
}

// LinkPage returns the page query parameter of link, or fallback when the
// link carries none
func LinkPage(link string, fallback int) int {
	u, err := url.Parse(link)
	if err != nil {
		return fallback
	}
	page, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || page < 1 {
		return fallback
	}
	return page
}

// GoToNext follows the next link. Without one it does nothing.
func (s *Store[T, F]) GoToNext(ctx context.Context) error {
	s.mu.Lock()
	link, page := s.state.NextLink, s.state.Page
	s.mu.Unlock()

	if link == "" {
		return nil
	}
	return s.FetchPage(ctx, LinkPage(link, page+1), false)
}

// GoToPrev follows the previous link. Without one it does nothing.
func (s *Store[T, F]) GoToPrev(ctx context.Context) error {
	s.mu.Lock()
	link, page := s.state.PrevLink, s.state.Page
	s.mu.Unlock()

	if link == "" {
		return nil
	}
	return s.FetchPage(ctx, LinkPage(link, max(1, page-1)), false)
}

// Refresh refetches the current page bypassing the cache
func (s *Store[T, F]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	page := s.state.Page
	s.mu.Unlock()
	return s.FetchPage(ctx, page, true)
}

// SetFilter changes the server-side query and returns to page 1
func (s *Store[T, F]) SetFilter(ctx context.Context, update func(*F)) error {
	s.mu.Lock()
	update(&s.state.Filter)
	s.mu.Unlock()
	return s.FetchPage(ctx, 1, false)
}

// SetSearch narrows VisibleItems without a request
func (s *Store[T, F]) SetSearch(q string) {
	s.mu.Lock()
	s.state.Search = q
	s.mu.Unlock()
	s.notify()
}

// Invalidate drops every cached page
func (s *Store[T, F]) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]model.Page[T])
	s.epoch++
	s.mu.Unlock()
}

// Mutate runs a service call. On success the cache is cleared and the
// current page refetched; on failure the error is recorded.
func (s *Store[T, F]) Mutate(ctx context.Context, op string, call func(ctx context.Context) error) error {
	if err := call(ctx); err != nil {
		s.setErr(err)
		s.log.Warn("Mutation failed", logger.F("op", op), logger.F("error", err))
		return err
	}
	s.log.Debug("Mutation applied", logger.F("op", op))

	s.Invalidate()
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	// Removing the last item of the last page leaves an empty page behind
	st := s.Snapshot()
	if len(st.Items) == 0 && st.Page > 1 && st.Total > 0 {
		return s.FetchPage(ctx, st.TotalPages(), true)
	}
	return nil
}

func (s *Store[T, F]) setErr(err error) {
	s.mu.Lock()
	s.state.Err = err.Error()
	s.mu.Unlock()
	s.notify()
}

// ClearError dismisses the error banner
func (s *Store[T, F]) ClearError() {
	s.mu.Lock()
	s.state.Err = ""
	s.mu.Unlock()
	s.notify()
}

// Reset forgets items and cache, keeping size and filter
func (s *Store[T, F]) Reset() {
	s.mu.Lock()
	s.gen++
	s.epoch++
	s.cache = make(map[string]model.Page[T])
	s.state = State[T, F]{Page: 1, Size: s.state.Size, Filter: s.state.Filter}
	s.mu.Unlock()
	s.notify()
}

// find returns the first item of the current page matching pred
func (s *Store[T, F]) find(pred func(T) bool) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.state.Items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}
