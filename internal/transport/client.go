// Package transport provides the authenticated HTTP client shared by the
// platform API clients.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akahusync/akahusync/pkg/errors"
)

// DefaultTimeout bounds any single platform request.
const DefaultTimeout = 30 * time.Second

// errorBodyLimit caps how much of an error response body is kept for the
// error message.
const errorBodyLimit = 2048

// Client is an authenticated JSON HTTP client for one platform API.
type Client struct {
	http     *http.Client
	auth     Authenticator
	baseURL  string
	platform string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Used in tests with
// httptest servers.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a client for the given platform API.
func New(platform, baseURL string, auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http:     &http.Client{Timeout: DefaultTimeout},
		auth:     auth,
		baseURL:  strings.TrimRight(baseURL, "/"),
		platform: platform,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body and decodes the JSON
// response into out. A nil out discards the response body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.WrapAPI(c.platform, 0, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.WrapAPI(c.platform, 0, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth.Apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapAPI(c.platform, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		apiErr := errors.NewAPIError(c.platform, resp.StatusCode, strings.TrimSpace(string(snippet)))
		apiErr.Endpoint = method + " " + path
		return apiErr
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapAPI(c.platform, resp.StatusCode, err)
	}
	return nil
}
