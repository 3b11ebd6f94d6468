// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/volzer-tui/internal/model"
)

const (
	// DefaultBaseURL is the backend used when none is configured.
	DefaultBaseURL = "http://localhost:3000"

	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize caps how much of a body is read.
	MaxResponseSize = 1 << 20

	// DefaultRequestsPerSecond paces outgoing requests.
	DefaultRequestsPerSecond = 5
)

// Client talks to the Volzer backend. Session cookies set by the backend
// are kept in a cookie jar and sent back on later calls.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        *sessionJar
	timeout    time.Duration
	limiter    *rate.Limiter
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the transport. Its Jar is replaced by the
// client's own jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit paces requests to rps per second. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: invalid base url %q: scheme must be http or https", baseURL)
	}

	jar, err := newSessionJar()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultRequestsPerSecond),
		userAgent:  "volzer",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.jar = jar
	c.httpClient.Jar = jar
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// Cookies returns the cookies the backend has set.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// SetCookies restores previously saved cookies.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	if len(cookies) > 0 {
		c.jar.SetCookies(c.baseURL, cookies)
	}
}

// ClearCookies drops every stored cookie. Requests in flight keep using
// the same jar.
func (c *Client) ClearCookies() {
	if err := c.jar.reset(); err != nil {
		c.logger.Warn("cookie jar reset failed", "error", err)
	}
}

// sessionJar is the client's only cookie jar. reset swaps the inner jar
// so the http.Client never has to be touched after NewClient.
type sessionJar struct {
	mu    sync.RWMutex
	inner *cookiejar.Jar
}

func newSessionJar() (*sessionJar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &sessionJar{inner: inner}, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.inner.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.inner.Cookies(u)
}

func (j *sessionJar) reset() error {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()
	return nil
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Register submits a registration.
func (c *Client) Register(ctx context.Context, data model.RegistrationData) (*Response, error) {
	var resp Response
	if err := c.do(ctx, http.MethodPost, PathRegister, data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login submits credentials. On success the backend's session cookie is
// stored in the jar.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*Response, error) {
	var resp Response
	if err := c.do(ctx, http.MethodPost, PathLogin, creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckAuth asks whether the session cookie is still valid.
func (c *Client) CheckAuth(ctx context.Context) (*Response, error) {
	var resp Response
	if err := c.do(ctx, http.MethodGet, PathAuthCheck, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUser fetches the extended profile of id.
func (c *Client) GetUser(ctx context.Context, id model.UserID) (*UserResponse, error) {
	if id == "" {
		return nil, errors.New("api: empty user id")
	}
	var resp UserResponse
	if err := c.do(ctx, http.MethodGet, PathUsers+url.PathEscape(string(id)), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	var resp Response
	return c.do(ctx, http.MethodPost, PathLogout, struct{}{}, &resp)
}

// Ping reports whether the backend answers its health check.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(PathHealth), nil)
	if err != nil {
		return &TransportError{Op: "ping", Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "ping", Err: classify(ctx, err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))

	if resp.StatusCode >= 500 {
		return &TransportError{Op: "ping", Status: resp.StatusCode, Err: ErrUnreachable}
	}
	return nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) url(path string) string {
	return c.baseURL.String() + path
}

// do sends body as JSON (when non-nil) and decodes the reply into out.
// The JSON envelope is decoded whatever the status code: a 401 carrying
// {"success": false} is a normal answer.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Op: op, Err: classify(ctx, err)}
		}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode %s: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "path", path,
			"duration", time.Since(start), "error", err)
		return &TransportError{Op: op, Err: classify(ctx, err)}
	}
	defer resp.Body.Close()

	c.logger.Info("REQUEST", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: classify(ctx, err)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
