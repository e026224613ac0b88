// Package nominatim is a thin client for the OpenStreetMap Nominatim
// search API. It returns raw JSON payloads; interpreting them is the
// caller's job.
package nominatim

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/pulse-works/citypulse/internal/resilience"
)

const (
	// DefaultBaseURL is the public Nominatim instance. Heavy users should
	// point base_url at a self-hosted instance instead.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the app per Nominatim's usage policy.
	DefaultUserAgent = "citypulse/1.0 (local@example.com)"
)

const (
	msgUnreachable = "Nominatim is not reachable right now. Check your network and the nominatim.base_url setting, then try again."
	msgBlocked     = "Nominatim blocked this request. Set nominatim.user_agent to a unique app identifier (ideally with contact email) and try again."
	msgRateLimited = "Nominatim rate limit reached. Wait briefly and retry your search."
)

// Client queries Nominatim's /search endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	email      string
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the Nominatim instance URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithEmail adds the optional email parameter Nominatim asks large-volume
// users to send.
func WithEmail(email string) Option {
	return func(c *Client) {
		c.email = email
	}
}

// WithRateLimit sets the client-side requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// NewClient creates a Nominatim client. The default limiter honors the
// public instance's 1 req/s usage policy.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 8 * time.Second},
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		limiter:    rate.NewLimiter(1, 1),
		retry:      resilience.DefaultRetryConfig("nominatim"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a free-text place search and returns the raw JSON array.
// Failures come back as resilience.ServiceUnavailableError with a message
// safe to show users.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]byte, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.search(ctx, query, limit)
	})
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit")
	}

	params := url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"addressdetails": {"1"},
		"limit":          {strconv.Itoa(limit)},
	}
	if c.email != "" {
		params.Set("email", c.email)
	}

	reqURL := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resilience.Unavailable("nominatim", msgUnreachable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, resilience.Unavailable("nominatim", msgBlocked, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resilience.NewTransientError(
			resilience.Unavailable("nominatim", msgRateLimited, nil), resp.StatusCode,
		)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		sue := resilience.Unavailable("nominatim",
			fmt.Sprintf("Nominatim request failed with HTTP %d. Please retry.", resp.StatusCode), nil,
		)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(sue, resp.StatusCode)
		}
		return nil, sue
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Unavailable("nominatim", msgUnreachable, err)
	}
	return body, nil
}
