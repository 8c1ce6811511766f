package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/existflow/irontodo/internal/logger"
)

// DefaultTimeout applies when Options.Timeout is zero
const DefaultTimeout = 10 * time.Second

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Authenticator supplies credentials and tears the session down on 401
type Authenticator interface {
	Authorization() (string, bool)
	HandleUnauthorized()
}

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Auth       Authenticator
	Logger     *logger.Logger
}

// Client is the single configured HTTP client of the application
type Client struct {
	base       *url.URL
	httpClient *http.Client
	auth       Authenticator
	log        *logger.Logger
}

// Request describes one API call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{} // encoded as JSON
	Form   url.Values  // encoded as a form, wins over Body
	Header http.Header

	// Anonymous skips the Authorization header and the 401 teardown
	Anonymous bool
}

// New creates a client for the API rooted at opts.BaseURL
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log := opts.Logger
	if log == nil {
		log = logger.WithFields(logger.F("component", "api"))
	}

	return &Client{
		base:       base,
		httpClient: httpClient,
		auth:       opts.Auth,
		log:        log,
	}, nil
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.base.String(), "/")
}

// Resolve turns a path or link into an absolute URL. Relative references
// resolve against the base URL; absolute paths keep the base host.
func (c *Client) Resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid link %q: %w", ref, err)
	}
	return c.base.ResolveReference(u), nil
}

// Do performs the request and returns the raw response body. Every failure
// is an *Error.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	target, err := c.Resolve(strings.TrimPrefix(req.Path, "/"))
	if err != nil {
		return nil, err
	}
	if len(req.Query) > 0 {
		q := target.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}
	return c.send(ctx, req, target)
}

// FollowLink GETs a next_link or prev_link verbatim
func (c *Client) FollowLink(ctx context.Context, link string) ([]byte, error) {
	target, err := c.Resolve(link)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, Request{Method: http.MethodGet}, target)
}

func (c *Client) send(ctx context.Context, req Request, target *url.URL) ([]byte, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := contentTypeJSON
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = contentTypeForm
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", contentTypeJSON)

	requestID := httpReq.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	if !req.Anonymous && c.auth != nil && httpReq.Header.Get("Authorization") == "" {
		if header, ok := c.auth.Authorization(); ok {
			httpReq.Header.Set("Authorization", header)
		}
	}

	start := time.Now()
	c.log.Debug("API request",
		logger.F("method", method),
		logger.F("url", target.String()),
		logger.F("request_id", requestID))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("API unreachable",
			logger.F("method", method),
			logger.F("url", target.String()),
			logger.F("error", err))
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}

	c.log.Debug("API response",
		logger.F("status", resp.StatusCode),
		logger.F("request_id", requestID),
		logger.F("duration_ms", time.Since(start).Milliseconds()))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	apiErr := statusError(resp.StatusCode, data)
	switch apiErr.Kind {
	case KindServer:
		c.log.Error("API server error",
			logger.F("method", method),
			logger.F("url", target.String()),
			logger.F("status", resp.StatusCode),
			logger.F("body", string(data)))
	case KindUnauthorized:
		if !req.Anonymous && c.auth != nil {
			c.log.Info("Session rejected by server, signing out")
			c.auth.HandleUnauthorized()
		}
	}
	return nil, apiErr
}

// Get is a shorthand for a GET request
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post sends body as JSON
func (c *Client) Post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put sends body as JSON
func (c *Client) Put(ctx context.Context, path string, body interface{}) ([]byte, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch sends body as JSON
func (c *Client) Patch(ctx context.Context, path string, body interface{}) ([]byte, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete issues a DELETE
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}
