// Package apiclient is the authenticated REST client for the news backend.
//
// Every request carries the session's bearer token when one is stored. The
// client never retries and never refreshes tokens: callers decide what an
// errs.ErrUnauthorized means for them.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/session"
)

// DefaultBaseURL is the development backend.
const DefaultBaseURL = "http://127.0.0.1:8000/api/"

const maxErrBody = 64 << 10

// TokenSource yields the access token to attach; "" means send unauthenticated.
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

// StoreTokens reads the access token from a session store on every call.
type StoreTokens struct{ Store session.Store }

// AccessToken returns the stored access token or "" if there is no usable session.
func (s StoreTokens) AccessToken(ctx context.Context) string {
	sess, err := s.Store.Load(ctx)
	if err != nil {
		return ""
	}
	return sess.AccessToken
}

// Client performs JSON calls against the backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	tokens  TokenSource
	log     *zap.Logger
	timeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (its transport gets wrapped for logging).
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithTimeout sets a per-request timeout.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// New constructs a client for baseURL. tokens may be nil for a fully anonymous client.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url: unsupported scheme %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	c := &Client{base: u, http: &http.Client{Timeout: 30 * time.Second}, tokens: tokens, log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	next := c.http.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	wrapped := *c.http
	if c.timeout > 0 {
		wrapped.Timeout = c.timeout
	}
	wrapped.Transport = loggingTransport{next: next, log: c.log}
	c.http = &wrapped
	return c, nil
}

// URL resolves an endpoint path against the base URL.
func (c *Client) URL(path string) string {
	return c.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")}).String()
}

// Do sends in as JSON (when non-nil) and decodes the answer into out (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.bearer(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s %s: %v", errs.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	if kind := errs.KindForStatus(resp.StatusCode); kind != nil {
		return decodeError(resp, kind)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", errs.ErrNetwork, method, path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", errs.ErrServer, method, path, err)
	}
	return nil
}

func (c *Client) bearer(ctx context.Context) string {
	if tok, ok := bearerFromContext(ctx); ok {
		return tok
	}
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken(ctx)
}

// getList fetches a collection that the backend returns either as a bare
// array or paginated as {"results": [...]}. Anything else yields an empty list.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	out := []T{}
	if len(raw) == 0 {
		return out, nil
	}
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", errs.ErrServer, path, err)
		}
	case '{':
		var page struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(raw, &page); err == nil && len(page.Results) > 0 && page.Results[0] == '[' {
			if err := json.Unmarshal(page.Results, &out); err != nil {
				return nil, fmt.Errorf("%w: decode %s: %v", errs.ErrServer, path, err)
			}
		}
	}
	return out, nil
}

// decodeError builds an *errs.APIError from a DRF-style body:
// {"detail": "..."}, {"error": "..."} or {"field": ["msg", ...]}.
func decodeError(resp *http.Response, kind error) error {
	ae := &errs.APIError{Status: resp.StatusCode, Kind: kind}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ae
	}
	for _, key := range []string{"detail", "error"} {
		var s string
		if v, ok := body[key]; ok && json.Unmarshal(v, &s) == nil && s != "" {
			ae.Detail = s
			return ae
		}
	}

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var msgs []string
		if json.Unmarshal(body[k], &msgs) != nil {
			var one string
			if json.Unmarshal(body[k], &one) != nil {
				continue
			}
			msgs = []string{one}
		}
		if len(msgs) == 0 {
			continue
		}
		if ae.Fields == nil {
			ae.Fields = map[string][]string{}
		}
		ae.Fields[k] = msgs
		if ae.Detail == "" {
			ae.Detail = msgs[0]
		}
	}
	return ae
}

// IsAuthFailure reports whether err means the token was rejected.
func IsAuthFailure(err error) bool { return errors.Is(err, errs.ErrUnauthorized) }
