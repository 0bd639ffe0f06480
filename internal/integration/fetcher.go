// Package integration handles external service interactions
package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultFetchTimeout bounds a single gauge page request
	DefaultFetchTimeout = 10 * time.Second
	// DefaultUserAgent makes requests look like a regular browser so the source does not reject them
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	maxDocumentSize = 5 << 20
)

// DocumentFetcher retrieves the raw document at a remote location
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TransportError reports a failed fetch: timeout, connection error or non-success status
type TransportError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status code %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPFetcher fetches documents over HTTP with a bounded timeout
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewHTTPFetcher creates a fetcher with its own client. Zero values fall back to the defaults.
func NewHTTPFetcher(timeout time.Duration, userAgent string, logger *slog.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return NewHTTPFetcherWithClient(&http.Client{Timeout: timeout}, userAgent, logger)
}

// NewHTTPFetcherWithClient creates a fetcher around an existing client
func NewHTTPFetcherWithClient(client *http.Client, userAgent string, logger *slog.Logger) *HTTPFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch performs a GET and returns the response body
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	f.logger.Debug("Sending HTTP request to gauge page", "url", url)
	res, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("Error fetching gauge page", "url", url, "error", err)
		return nil, &TransportError{URL: url, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		f.logger.Warn("Received unexpected status code", "url", url, "status", res.Status)
		return nil, &TransportError{URL: url, StatusCode: res.StatusCode, Err: fmt.Errorf("%s", res.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxDocumentSize))
	if err != nil {
		return nil, &TransportError{URL: url, StatusCode: res.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	f.logger.Debug("Received gauge page", "url", url, "status", res.Status, "bytes", len(body))
	return body, nil
}
