package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) nts-downloader"
	defaultRPS       = 2.0
	defaultBurst     = 4
)

// Config holds HTTP client settings. Zero fields take defaults.
type Config struct {
	// Timeout bounds every request, including reading the body.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// RequestsPerSecond limits how fast pages are fetched from upstream.
	RequestsPerSecond float64

	// Burst is the number of requests allowed before limiting kicks in.
	Burst int

	// Logger receives debug lines for each request. Nil discards them.
	Logger *slog.Logger
}

// FetchError is returned when a URL cannot be retrieved, either because the
// request failed or because the server answered with a non-200 status.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Response is a fully read response body with its declared content type.
type Response struct {
	Body        []byte
	ContentType string
}

// Client wraps HTTP operations with scraping-friendly configuration.
//
// Client provides:
//   - Configured User-Agent header
//   - Timeout handling
//   - Client-side rate limiting shared by all requests
//
// Example usage:
//
//	client := NewClient(nil)
//
//	// Fetch HTML content
//	page, err := client.Get(ctx, "https://www.nts.live/shows/name/episodes/alias")
//
//	// Fetch an image with its content type
//	resp, err := client.Fetch(ctx, artworkURL)
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new HTTP client. A nil config uses defaults.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		logger:    logger,
	}
}

// Fetch performs a GET request and returns the body and content type.
//
// Any failure is returned as a *FetchError.
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("http request", "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("http response", "url", url, "status", resp.StatusCode, "bytes", len(body))

	return &Response{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Get performs a GET request and returns the response body as bytes.
//
// Example:
//
//	data, err := client.Get(ctx, "https://example.com/page")
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
