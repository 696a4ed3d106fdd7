package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds each request made by an HTTPTransport.
const DefaultTimeout = 30 * time.Second

// HTTPTransport fetches objects from the results API over HTTP. Refs are
// joined onto the base URL; the API's validator tokens are standard ETags.
type HTTPTransport struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient replaces the underlying http.Client. The caller keeps
// responsibility for its timeout.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		t.client = c
	}
}

// WithAPIKey sends key as a bearer token on every request.
func WithAPIKey(key string) HTTPOption {
	return func(t *HTTPTransport) {
		t.apiKey = key
	}
}

// NewHTTPTransport creates a transport rooted at baseURL.
func NewHTTPTransport(baseURL string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) url(ref string) string {
	return t.baseURL + "/" + strings.TrimLeft(ref, "/")
}

func (t *HTTPTransport) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
}

// Probe issues a HEAD request and returns the response ETag.
func (t *HTTPTransport) Probe(ctx context.Context, ref string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, t.url(ref), nil)
	if err != nil {
		return "", fmt.Errorf("remote: probe %s: %w", ref, err)
	}
	t.decorate(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("remote: probe %s: %w", ref, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("remote: probe %s: %w", ref, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("remote: probe %s: unexpected status %s", ref, resp.Status)
	}
	return resp.Header.Get("ETag"), nil
}

// Fetch issues a GET request, conditional when ifNoneMatch is set.
func (t *HTTPTransport) Fetch(ctx context.Context, ref, ifNoneMatch string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url(ref), nil)
	if err != nil {
		return nil, fmt.Errorf("remote: fetch %s: %w", ref, err)
	}
	t.decorate(req)
	if ifNoneMatch != "" {
		req.Header.Set("If-None-Match", ifNoneMatch)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return &Result{Status: StatusNotModified, ETag: resp.Header.Get("ETag")}, nil
	case resp.StatusCode == http.StatusNotFound:
		return &Result{Status: StatusNotFound}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("remote: fetch %s: status %s: %s",
			ref, resp.Status, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: fetch %s: read body: %w", ref, err)
	}
	return &Result{Status: StatusOK, Body: body, ETag: resp.Header.Get("ETag")}, nil
}
