// Package backend is the HTTP client for the access-control REST backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Flyrell/gatepass/internal/metrics"
	"github.com/google/uuid"
)

// DefaultTimeout bounds every backend call unless overridden.
const DefaultTimeout = 10 * time.Second

// Client issues requests to the backend and decodes its JSON responses.
type Client struct {
	baseURL   string
	http      *http.Client
	token     string
	metrics   *metrics.Metrics
	requestID func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithToken sets the bearer token sent on authenticated endpoints.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithMetrics records request durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// request describes a single backend call. route is the path template used
// for logging and metrics labels.
type request struct {
	method string
	route  string
	path   string
	body   any
	out    any
	auth   bool
}

func (c *Client) do(ctx context.Context, r request) error {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", r.route, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return err
	}
	reqID := c.requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(r.method, r.route, 0, time.Since(start))
		slog.Warn("backend request failed",
			"method", r.method,
			"path", r.path,
			"request_id", reqID,
			"error", err,
		)
		return &NetworkError{Op: r.method + " " + r.route, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	duration := time.Since(start)
	c.metrics.ObserveRequest(r.method, r.route, resp.StatusCode, duration)
	slog.Debug("backend request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration_ms", duration.Milliseconds(),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: r.method + " " + r.route, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:  r.method,
			Path:    r.path,
			Code:    resp.StatusCode,
			Message: errorMessage(data),
		}
	}

	if r.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, r.out); err != nil {
		return &NetworkError{Op: r.method + " " + r.route, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// errorMessage extracts {"message": ...} or {"error": ...} from an error body.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// asNetwork wraps a StatusError into a NetworkError and leaves other errors
// untouched.
func asNetwork(op string, err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		return &NetworkError{Op: op, Err: se}
	}
	return err
}

func pathID(id fmt.Stringer) string {
	return url.PathEscape(id.String())
}
