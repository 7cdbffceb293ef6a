// Package api is the HTTP client for the apply-assistant backend: scoring,
// form analysis, fill, profile, authentication and application ledger endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default HTTP request timeout.
// Fill drives a real browser on the backend, so it is generous.
const DefaultTimeout = 120 * time.Second

// DefaultUserAgent is the user agent string for backend requests.
const DefaultUserAgent = "apply-assistant/1.0"

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// TokenSource supplies the bearer credential attached to each request.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token returns f().
func (f TokenFunc) Token() string { return f() }

// Options configures the client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
	log       *zap.SugaredLogger

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func()
}

// New creates a client from opts. Zero values fall back to defaults;
// a non-positive RequestsPerSecond disables throttling.
func New(opts Options) (*Client, error) {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", base)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	limit := rate.Inf
	burst := opts.Burst
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		if burst <= 0 {
			burst = 1
		}
	}

	return &Client{
		baseURL:   u,
		http:      httpClient,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(limit, burst),
		log:       zap.S().Named("api"),
	}, nil
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetTokenSource installs the credential supplier. A nil source sends no credential.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

// OnUnauthorized registers the hook run when a request that carried a
// credential is answered with 401. Unauthenticated 401s (a failed login) do not fire it.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) unauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// request describes one backend call.
type request struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// do executes r and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) do(ctx context.Context, r request, out any) error {
	endpoint := c.endpoint(r.path)

	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Op: r.op, URL: endpoint, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return &TransportError{Op: r.op, URL: endpoint, Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	token := c.token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debugw("request failed", "op", r.op, "url", endpoint, "error", err)
		return &TransportError{Op: r.op, URL: endpoint, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: r.op, URL: endpoint, Cause: fmt.Errorf("failed to read response body: %w", err)}
	}
	c.log.Debugw("request complete", "op", r.op, "method", r.method, "path", r.path,
		"status", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return &TransportError{
			Op:         r.op,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(body, resp.Header.Get("Content-Type")),
		}
	case resp.StatusCode >= http.StatusBadRequest:
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			c.unauthorized()
		}
		return &APIError{
			Op:         r.op,
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(body, resp.Header.Get("Content-Type")),
		}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &PayloadError{Op: r.op, Cause: err}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	r := request{op: op, method: method, path: path}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		r.body = bytes.NewReader(data)
		r.contentType = "application/json"
	}
	return c.do(ctx, r, out)
}

// filePart is a file attached to a multipart request.
type filePart struct {
	field    string
	filename string
	content  io.Reader
}

func (c *Client) postMultipart(ctx context.Context, op, path string, fields map[string]string, file *filePart, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("%s: failed to write form field: %w", op, err)
		}
	}
	if file != nil {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return fmt.Errorf("%s: failed to create file part: %w", op, err)
		}
		if _, err := io.Copy(part, file.content); err != nil {
			return fmt.Errorf("%s: failed to copy file: %w", op, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: failed to finish multipart body: %w", op, err)
	}

	return c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, out)
}

func (c *Client) postForm(ctx context.Context, op, path string, values url.Values, out any) error {
	return c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        path,
		body:        strings.NewReader(values.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, out)
}
