// Package wikipedia provides a client for the Wikipedia REST summary API.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Wikipedia REST operations used for enrichment.
type Client interface {
	// Summary fetches the page summary for a title. Returns (nil, nil)
	// when no page exists.
	Summary(ctx context.Context, title string) (*Summary, error)
}

// Summary is the parsed REST summary response.
type Summary struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Extract     string      `json:"extract"`
	Type        string      `json:"type"`
	ContentURLs ContentURLs `json:"content_urls"`
}

// ContentURLs holds canonical page links.
type ContentURLs struct {
	Desktop PageURL `json:"desktop"`
}

// PageURL is a single page link.
type PageURL struct {
	Page string `json:"page"`
}

// StatusError reports a non-success HTTP status from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wikipedia: status %d", e.Code)
}

// Option configures the Wikipedia client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithUserAgent sets the User-Agent header; Wikimedia asks API consumers
// to identify themselves.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) { c.userAgent = ua }
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a Wikipedia REST client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://en.wikipedia.org/api/rest_v1",
		userAgent: "deadonfilm-enrichment/1.0",
		http: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Summary(ctx context.Context, title string) (*Summary, error) {
	reqURL := fmt.Sprintf("%s/page/summary/%s", c.baseURL, url.PathEscape(title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: read response body")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var s Summary
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, eris.Wrap(err, "wikipedia: parse response")
	}
	return &s, nil
}
