// Package fakeapi is an in-memory implementation of the todo REST API. It
// backs the test suites and the sandbox command; it is not a production
// server.
package fakeapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/existflow/irontodo/internal/logger"
)

// Prefix is the versioned base path of every route
const Prefix = "/api/v1"

// Server is the in-memory API
type Server struct {
	echo *echo.Echo

	mu         sync.Mutex
	users      map[string]*user    // by key
	tokens     map[string]*token   // by access token
	todos      map[string][]*todo  // by user key, creation order
	priorities map[string][]*entry // by user key
	statuses   map[string][]*entry // by user key
	faults     []*fault
	requests   map[string]int // "METHOD /path" -> count
	history    []string       // "METHOD /path?query"

	tokenTTL         time.Duration
	statusesDisabled bool
}

// Option configures a Server
type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// New creates an empty server
func New(opts ...Option) *Server {
	s := &Server{
		users:      make(map[string]*user),
		tokens:     make(map[string]*token),
		todos:      make(map[string][]*todo),
		priorities: make(map[string][]*entry),
		statuses:   make(map[string][]*entry),
		requests:   make(map[string]int),
		tokenTTL:   24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			s.record(req)

			if f := s.matchFault(req); f != nil {
				return c.JSON(f.status, detail(f.message))
			}

			err := next(c)

			logger.Debug("Sandbox request",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", c.Response().Status),
				logger.F("duration", time.Since(start).String()))
			return err
		}
	})
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/health", s.handleHealth)

	api := e.Group(Prefix)

	// Public
	api.POST("/token", s.handleToken)
	api.POST("/users", s.handleRegister)

	protected := api.Group("")
	protected.Use(s.authMiddleware)

	protected.GET("/users/:key", s.handleGetUser)
	protected.PUT("/users/:key", s.handleUpdateUser)
	protected.PUT("/users/:key/password", s.handleUpdatePassword)

	protected.GET("/todos", s.handleListTodos)
	protected.POST("/todos", s.handleCreateTodo)
	protected.GET("/todos/:key", s.handleGetTodo)
	protected.PUT("/todos/:key", s.handleUpdateTodo)
	protected.PATCH("/todos/:key", s.handlePatchTodo)
	protected.DELETE("/todos/:key", s.handleDeleteTodo)

	priorities := &catalogHandlers{server: s, resource: "priorities", kind: kindPriority}
	protected.GET("/priorities", priorities.list)
	protected.POST("/priorities", priorities.create)
	protected.POST("/priorities/check-availability", priorities.checkAvailability)
	protected.GET("/priorities/:key", priorities.get)
	protected.PUT("/priorities/:key", priorities.update)
	protected.PATCH("/priorities/:key", priorities.patch)
	protected.DELETE("/priorities/:key", priorities.delete)
	protected.PATCH("/priorities/:key/reorder", priorities.reorder)

	statuses := &catalogHandlers{server: s, resource: "statuses", kind: kindStatus}
	protected.GET("/statuses", statuses.list)
	protected.POST("/statuses", statuses.create)
	protected.GET("/statuses/:key", statuses.get)
	protected.PUT("/statuses/:key", statuses.update)
	protected.PATCH("/statuses/:key", statuses.patch)
	protected.DELETE("/statuses/:key", statuses.delete)
	protected.PATCH("/statuses/:key/reorder", statuses.reorder)

	s.echo = e
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start serves on addr until the listener fails
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) record(req *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.Method+" "+req.URL.Path]++
	s.history = append(s.history, req.Method+" "+req.URL.RequestURI())
}

// Requests returns how many times method and path were called. Path
// excludes the query and includes the /api/v1 prefix.
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

// History returns every request seen, oldest first
func (s *Server) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// ResetHistory forgets recorded requests
func (s *Server) ResetHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = make(map[string]int)
	s.history = nil
}

// DisableStatuses makes GET /statuses answer 404, as for a tenant without
// status management
func (s *Server) DisableStatuses(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusesDisabled = disabled
}

// RevokeTokens invalidates every issued token
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]*token)
}

// fault is an injected failure
type fault struct {
	method  string
	path    string
	status  int
	message string
	times   int // remaining, <0 for forever
}

// Fail makes the next times requests matching method and path prefix answer
// status. times < 0 fails forever. An empty method matches any.
func (s *Server) Fail(method, pathPrefix string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, &fault{
		method:  method,
		path:    Prefix + pathPrefix,
		status:  status,
		message: http.StatusText(status),
		times:   times,
	})
}

// ClearFaults removes every injected failure
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = nil
}

func (s *Server) matchFault(req *http.Request) *fault {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.faults {
		if f.method != "" && f.method != req.Method {
			continue
		}
		if !strings.HasPrefix(req.URL.Path, f.path) {
			continue
		}
		if f.times > 0 {
			f.times--
			if f.times == 0 {
				s.faults = append(s.faults[:i], s.faults[i+1:]...)
			}
		}
		return f
	}
	return nil
}

// detail builds a FastAPI-style error body
func detail(msg string) map[string]string {
	return map[string]string{"detail": msg}
}
