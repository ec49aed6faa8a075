// Package client is a Go client for the todo API. It keeps the access token
// in memory, carries the refresh cookie in a cookie jar and transparently
// refreshes the access token once when a call comes back 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout = 15 * time.Second

	pathLogin   = "/api/auth/login"
	pathRefresh = "/api/auth/refresh"
)

// ErrNoRefresh is returned by Refresh when the server does not answer with a
// token.
var ErrNoRefresh = errors.New("client: refresh returned no access token")

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string

	// one refresh in flight at a time; concurrent 401s share its result
	refreshes singleflight.Group

	hookMu    sync.RWMutex
	onExpired func()
}

type Option func(*Client)

// WithHTTPClient replaces the default client. A jar is added when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("client: cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// OnSessionExpired registers fn to run when a refresh is rejected.
func (c *Client) OnSessionExpired(fn func()) {
	c.hookMu.Lock()
	c.onExpired = fn
	c.hookMu.Unlock()
}

// Cookies returns the jar's cookies for the refresh endpoint.
func (c *Client) Cookies() []*http.Cookie {
	u, err := url.Parse(c.baseURL + pathRefresh)
	if err != nil {
		return nil
	}
	return c.httpClient.Jar.Cookies(u)
}

// SetCookies seeds the jar, e.g. with a refresh cookie saved by a previous run.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	u, err := url.Parse(c.baseURL + pathRefresh)
	if err != nil {
		return
	}
	c.httpClient.Jar.SetCookies(u, cookies)
}

type callOptions struct {
	// skipAuth sends no bearer token and never triggers a refresh
	skipAuth bool
	headers  map[string]string
}

// Do sends a JSON request and decodes a JSON response into out (when non-nil).
// A 401 triggers at most one refresh and one retry.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	_, err := c.call(ctx, method, path, body, out, callOptions{})
	return err
}

func (c *Client) call(ctx context.Context, method, path string, body, out any, opts callOptions) (*http.Response, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = b
	}

	sentToken := ""
	if !opts.skipAuth {
		sentToken = c.Token()
	}

	resp, err := c.send(ctx, method, path, payload, sentToken, opts)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !opts.skipAuth && path != pathRefresh {
		drain(resp)

		if _, err := c.refreshAfter(ctx, sentToken); err != nil {
			return nil, err
		}

		resp, err = c.send(ctx, method, path, payload, c.Token(), opts)
		if err != nil {
			return nil, err
		}
	}

	return resp, decode(resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string, opts callOptions) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range opts.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	return resp, nil
}

// refreshAfter refreshes unless the token already moved on from stale, which
// means another caller refreshed (or logged in) in the meantime.
func (c *Client) refreshAfter(ctx context.Context, stale string) (string, error) {
	if cur := c.Token(); cur != "" && cur != stale {
		return cur, nil
	}

	// the shared refresh must outlive whichever caller started it
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTimeout)
		defer cancel()
		return c.Refresh(rctx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Refresh exchanges the refresh cookie for a new access token and stores it.
// A 401 or 403 clears the token and fires the session-expired hook.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var out TokenResponse
	_, err := c.call(ctx, http.MethodPost, pathRefresh, nil, &out, callOptions{skipAuth: true})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			c.SetToken("")
			c.sessionExpired()
		}
		return "", err
	}
	if out.AccessToken == "" {
		return "", ErrNoRefresh
	}

	c.SetToken(out.AccessToken)
	return out.AccessToken, nil
}

func (c *Client) sessionExpired() {
	c.hookMu.RLock()
	fn := c.onExpired
	c.hookMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return newAPIError(resp, data)
	}

	if out == nil || len(data) == 0 || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
