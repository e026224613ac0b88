// Package openweather is a thin client for the OpenWeather current
// weather and air pollution APIs. It returns raw JSON payloads; the
// mapper layer interprets them.
package openweather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pulse-works/citypulse/internal/resilience"
)

// DefaultBaseURL is the OpenWeather 2.5 API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

const (
	msgMissingKey  = "Set openweather.api_key in your config to enable weather and AQI data."
	msgBadKey      = "OpenWeather rejected your key. Verify openweather.api_key in your config."
	msgRateLimited = "OpenWeather rate limit reached. Wait briefly and retry."
	msgUnreachable = "OpenWeather is not reachable right now. Check your network and openweather.base_url, then retry."
)

// Client queries OpenWeather's /weather and /air_pollution endpoints.
// Both endpoints share one circuit breaker since they hit the same host.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	retry      resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithCircuitBreaker replaces the default breaker.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// NewClient creates an OpenWeather client. An empty apiKey is allowed at
// construction; calls fail with a configuration hint instead.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 8 * time.Second},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		retry:      resilience.DefaultRetryConfig("openweather"),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentWeather fetches current conditions for a coordinate pair and
// returns the raw JSON object.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64, units string) ([]byte, error) {
	params := url.Values{
		"lat":   {formatCoord(lat)},
		"lon":   {formatCoord(lon)},
		"units": {units},
	}
	return c.get(ctx, "/weather", params)
}

// AirPollution fetches the air quality index and pollutant components for
// a coordinate pair and returns the raw JSON object.
func (c *Client) AirPollution(ctx context.Context, lat, lon float64) ([]byte, error) {
	params := url.Values{
		"lat": {formatCoord(lat)},
		"lon": {formatCoord(lon)},
	}
	return c.get(ctx, "/air_pollution", params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, resilience.Unavailable("openweather", msgMissingKey, nil)
	}

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if err := c.breaker.Allow(); err != nil {
			return nil, resilience.Unavailable("openweather", msgUnreachable, err)
		}
		body, err := c.getOnce(ctx, path, params)
		if err != nil && !shouldTrip(err) {
			// Config mistakes (rejected key) must not open the breaker.
			c.breaker.Record(nil)
		} else {
			c.breaker.Record(err)
		}
		return body, err
	})
}

func (c *Client) getOnce(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("appid", c.apiKey)

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "openweather: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resilience.Unavailable("openweather", msgUnreachable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, resilience.Unavailable("openweather", msgBadKey, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, resilience.NewTransientError(
			resilience.Unavailable("openweather", msgRateLimited, nil), resp.StatusCode,
		)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		sue := resilience.Unavailable("openweather",
			fmt.Sprintf("OpenWeather request failed with HTTP %d. Please retry.", resp.StatusCode), nil,
		)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(sue, resp.StatusCode)
		}
		return nil, sue
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Unavailable("openweather", msgUnreachable, err)
	}
	return body, nil
}

// shouldTrip reports whether an error counts toward opening the circuit:
// transport failures and retryable server-side statuses do, auth and other
// client mistakes do not.
func shouldTrip(err error) bool {
	if resilience.IsTransient(err) {
		return true
	}
	sue, ok := resilience.AsServiceUnavailable(err)
	return ok && sue.Message == msgUnreachable
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
