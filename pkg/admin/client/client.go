// Package client is an HTTP client for a running mockroute server and its
// admin API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/mockroute/pkg/admin"
	"github.com/getmockd/mockroute/pkg/requestlog"
	"github.com/getmockd/mockroute/pkg/route"
)

// ErrNotFound is returned when the addressed route or request does not exist.
var ErrNotFound = errors.New("not found")

// Client talks to one base URL. Admin calls need the admin listener;
// PushRoutes needs the mock listener.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for baseURL, e.g. "http://localhost:8081".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the URL the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// Health checks GET /health on the admin API.
func (c *Client) Health(ctx context.Context) (*admin.HealthResponse, error) {
	var out admin.HealthResponse
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns GET /stats.
func (c *Client) Stats(ctx context.Context) (*admin.StatsResponse, error) {
	var out admin.StatsResponse
	if err := c.getJSON(ctx, "/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetStats zeroes the injector counters.
func (c *Client) ResetStats(ctx context.Context) error {
	return c.deleteNoContent(ctx, "/stats")
}

// ListRoutes returns the route table, sorted by path.
func (c *Client) ListRoutes(ctx context.Context) ([]route.Route, error) {
	var out admin.RouteListResponse
	if err := c.getJSON(ctx, "/routes", &out); err != nil {
		return nil, err
	}
	return out.Routes, nil
}

// GetRoute returns the route stored at path.
func (c *Client) GetRoute(ctx context.Context, path string) (*route.Route, error) {
	var out route.Route
	if err := c.getJSON(ctx, routeURLPath(path), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRoute removes the route stored at path.
func (c *Client) DeleteRoute(ctx context.Context, path string) error {
	return c.deleteNoContent(ctx, routeURLPath(path))
}

func routeURLPath(p string) string {
	return "/routes/" + strings.TrimPrefix(route.NormalizePath(p), "/")
}

// RequestFilter selects entries from GET /requests.
type RequestFilter struct {
	Method     string
	Path       string
	Outcome    string
	StatusCode int
	Limit      int
	Offset     int
}

func (f *RequestFilter) query() string {
	if f == nil {
		return ""
	}
	q := url.Values{}
	if f.Method != "" {
		q.Set("method", f.Method)
	}
	if f.Path != "" {
		q.Set("path", f.Path)
	}
	if f.Outcome != "" {
		q.Set("outcome", f.Outcome)
	}
	if f.StatusCode > 0 {
		q.Set("status", strconv.Itoa(f.StatusCode))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListRequests returns recorded requests, newest first.
func (c *Client) ListRequests(ctx context.Context, filter *RequestFilter) ([]*requestlog.Entry, error) {
	var out admin.RequestListResponse
	if err := c.getJSON(ctx, "/requests"+filter.query(), &out); err != nil {
		return nil, err
	}
	return out.Requests, nil
}

// GetRequest returns one recorded request.
func (c *Client) GetRequest(ctx context.Context, id string) (*requestlog.Entry, error) {
	var out requestlog.Entry
	if err := c.getJSON(ctx, "/requests/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearRequests empties the request history and returns how many entries were removed.
func (c *Client) ClearRequests(ctx context.Context) (int, error) {
	resp, err := c.do(ctx, http.MethodDelete, "/requests", nil, "")
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, c.parseError(resp)
	}
	var out struct {
		Cleared int `json:"cleared"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Cleared, nil
}

// PushRoutes sends a route update to PUT /routes on the mock listener.
// contentType selects the payload format; "" means YAML.
func (c *Client) PushRoutes(ctx context.Context, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/yaml"
	}
	resp, err := c.do(ctx, http.MethodPut, "/routes", data, contentType)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("route update rejected (status %d): %s", resp.StatusCode, msg)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) deleteNoContent(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var errResp admin.ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, errResp.Message)
		}
		return fmt.Errorf("%s: %s", errResp.Error, errResp.Message)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("request failed: status %d", resp.StatusCode)
}
