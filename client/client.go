// Package client is a thin Go SDK for the mem-mcp HTTP API. Transient
// failures (5xx, transport errors) are retried with exponential backoff.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client talks to a mem-mcp memory service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	retry   func() backoff.BackOff
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetryPolicy overrides the backoff policy factory used per request.
func WithRetryPolicy(factory func() backoff.BackOff) Option {
	return func(c *Client) { c.retry = factory }
}

// New constructs a Client scoped to one user token.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	if token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}
	c := &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		retry: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MemorySummary mirrors the list endpoint's projection.
type MemorySummary struct {
	Filename       string    `json:"filename"`
	Title          string    `json:"title"`
	Priority       string    `json:"priority"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}

// SweepResult mirrors the sweep endpoint's response.
type SweepResult struct {
	Archived []string `json:"archived"`
	Kept     []string `json:"kept"`
}

// List returns summaries of the user's active memories.
func (c *Client) List(ctx context.Context) ([]MemorySummary, error) {
	var out struct {
		Memories []MemorySummary `json:"memories"`
	}
	err := c.do(ctx, http.MethodGet, c.userPath("memories"), nil, &out)
	return out.Memories, err
}

// Recall retrieves formatted active memories, optionally filtered by query.
func (c *Client) Recall(ctx context.Context, query string) ([]string, error) {
	return c.recall(ctx, c.userPath("memories", "recall"), query)
}

// SearchArchive retrieves formatted archived memories.
func (c *Client) SearchArchive(ctx context.Context, query string) ([]string, error) {
	return c.recall(ctx, c.userPath("archive", "recall"), query)
}

func (c *Client) recall(ctx context.Context, path, query string) ([]string, error) {
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var out struct {
		Results []string `json:"results"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Results, err
}

// Save creates a memory and returns the derived filename.
func (c *Client) Save(ctx context.Context, title, body, priority string) (string, error) {
	req := map[string]string{"title": title, "body": body}
	if priority != "" {
		req["priority"] = priority
	}
	var out struct {
		Filename string `json:"filename"`
	}
	err := c.do(ctx, http.MethodPost, c.userPath("memories"), req, &out)
	return out.Filename, err
}

// Update replaces a memory's content; priority "" keeps the current one.
func (c *Client) Update(ctx context.Context, filename, title, body, priority string) error {
	req := map[string]interface{}{"title": title, "body": body}
	if priority != "" {
		req["priority"] = priority
	}
	return c.do(ctx, http.MethodPut, c.userPath("memories", filename), req, nil)
}

// Delete permanently removes an active memory.
func (c *Client) Delete(ctx context.Context, filename string) error {
	return c.do(ctx, http.MethodDelete, c.userPath("memories", filename), nil, nil)
}

// Archive moves an active memory to the archive.
func (c *Client) Archive(ctx context.Context, filename string) error {
	return c.do(ctx, http.MethodPost, c.userPath("memories", filename, "archive"), nil, nil)
}

// Sweep runs the retention sweep for the user.
func (c *Client) Sweep(ctx context.Context, dryRun bool) (SweepResult, error) {
	req := map[string]bool{"dryRun": dryRun}
	var out SweepResult
	err := c.do(ctx, http.MethodPost, c.userPath("sweep"), req, &out)
	return out, err
}

func (c *Client) userPath(parts ...string) string {
	p := c.baseURL + "/api/users/" + url.PathEscape(c.token)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

// transientError marks responses worth retrying.
type transientError struct{ err error }

func (t transientError) Error() string { return t.err.Error() }
func (t transientError) Unwrap() error { return t.err }

func (c *Client) do(ctx context.Context, method, rawurl string, body, out interface{}) error {
	op := func() error {
		var reader io.Reader
		if body != nil {
			buf, err := json.Marshal(body)
			if err != nil {
				return backoff.Permanent(err)
			}
			reader = bytes.NewReader(buf)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawurl, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		requestsTotal.WithLabelValues(method).Inc()
		resp, err := c.http.Do(req)
		if err != nil {
			requestFailuresTotal.WithLabelValues(method).Inc()
			return transientError{err}
		}
		defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode >= 500:
			requestFailuresTotal.WithLabelValues(method).Inc()
			return transientError{fmt.Errorf("server error: %s", resp.Status)}
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode >= 400:
			payload, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("request failed: %s: %s", resp.Status, payload))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(err)
			}
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(c.retry(), ctx))
}
