// Package airtable implements the AirtableClient port against the Airtable
// REST API.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/TejAtParkourOps/Airetable/internal/domain/port/driven"
)

// DefaultAPIURL is the production Airtable API root.
const DefaultAPIURL = "https://api.airtable.com"

// maxErrorBody caps how much of a failed response is kept for logging.
const maxErrorBody = 4 << 10

// Compile-time interface satisfaction check.
var _ driven.AirtableClient = (*Client)(nil)

// Client implements the driven.AirtableClient port.
type Client struct {
	http            *http.Client
	baseURL         string
	notificationURL string
}

// NewClient creates an Airtable API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching, always revalidated)
//  2. http.DefaultTransport
//
// Requests are bounded by timeout. The notification URL is registered on
// every webhook this client creates.
func NewClient(apiURL, notificationURL string, timeout time.Duration) (*Client, error) {
	httpClient := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   timeout,
	}
	return NewClientWithHTTPClient(httpClient, apiURL, notificationURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, notificationURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL: %q is not absolute", baseURL)
	}

	return &Client{
		http:            httpClient,
		baseURL:         strings.TrimRight(u.String(), "/"),
		notificationURL: notificationURL,
	}, nil
}

// do performs one authenticated JSON request. Non-2xx answers become a
// *driven.StatusError; anything that prevents a complete exchange becomes a
// *driven.TransportError. When out is non-nil the response body is decoded
// into it.
func (c *Client) do(ctx context.Context, op, authToken, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", cacheControl(query))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &driven.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	slog.Debug("airtable request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"from_cache", resp.Header.Get(httpcache.XFromCache) != "",
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &driven.StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &driven.TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	// httpcache only stores a body that was read to EOF.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// cacheControl keeps continuation pages out of the response cache: their
// offsets are single-use. Every other listing is revalidated upstream before
// a cached body is reused, so the cache is keyed by URL but never answers
// for a token upstream has not accepted.
func cacheControl(query url.Values) string {
	if query.Has("offset") {
		return "no-store"
	}
	return "max-age=0"
}

func basePath(baseID string) string {
	return "/v0/bases/" + url.PathEscape(baseID)
}
