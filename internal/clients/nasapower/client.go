// Package nasapower provides a client for the NASA POWER daily point API.
// POWER serves satellite-derived solar and meteorological series on a
// 0.5° x 0.625° grid; requests are resolved to the nearest grid cell.
package nasapower

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/solar-roi/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL    = "https://power.larc.nasa.gov/api/temporal/daily/point"
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = time.Second
	// one initial attempt plus one retry for transient failures
	maxAttempts = 2
	// bytes of an error body kept in error messages
	maxErrorBody = 512
)

// HTTPClient interface allows mocking http.Client in tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the NASA POWER API client
type Client struct {
	baseURL    string
	httpClient HTTPClient
	retryDelay time.Duration
	log        zerolog.Logger
}

// Option customizes the client
type Option func(*Client)

// WithBaseURL points the client at another endpoint (tests, mirrors)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient allows injecting a custom HTTP client
func WithHTTPClient(client HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// WithRetryDelay sets the pause before the single retry
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = delay
	}
}

// NewClient creates a new NASA POWER client
func NewClient(log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryDelay: defaultRetryDelay,
		log:        log.With().Str("client", "nasa-power").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetDailyIrradiance fetches the all-sky irradiance series for a point and date range.
// Transport errors, timeouts and 5xx/429 responses are retried once and then reported as
// domain.ErrFetch. Requests the API rejects (other 4xx) are reported as domain.ErrInvalidInput.
// Fill values are returned untouched; cleaning is up to the caller.
func (c *Client) GetDailyIrradiance(ctx context.Context, coord domain.Coordinate, dates domain.DateRange) (*DailyResponse, error) {
	reqURL, err := c.buildURL(coord, dates)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, retryable, err := c.doRequest(ctx, reqURL)
		if err == nil {
			c.log.Debug().
				Str("coordinate", coord.String()).
				Str("range", dates.String()).
				Int("values", len(resp.Values)).
				Int("attempt", attempt).
				Msg("Fetched daily irradiance")
			return resp, nil
		}

		lastErr = err
		if !retryable || attempt == maxAttempts || ctx.Err() != nil {
			break
		}

		c.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", c.retryDelay).
			Msg("POWER request failed, retrying")

		timer := time.NewTimer(c.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: cancelled during retry backoff: %w", domain.ErrFetch, ctx.Err())
		case <-timer.C:
		}
	}

	return nil, lastErr
}

func (c *Client) buildURL(coord domain.Coordinate, dates domain.DateRange) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid POWER base URL: %w", err)
	}

	q := u.Query()
	q.Set("parameters", ParameterAllSkyIrradiance)
	q.Set("community", "RE")
	q.Set("latitude", strconv.FormatFloat(coord.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(coord.Longitude, 'f', 4, 64))
	q.Set("start", dates.Start.Format(dateLayout))
	q.Set("end", dates.End.Format(dateLayout))
	q.Set("format", "JSON")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// doRequest performs one attempt. The bool reports whether a failure is worth retrying.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*DailyResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to create request: %w", domain.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: request failed: %w", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("%w: API returned status %d", domain.ErrFetch, resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("%w: API rejected request (status %d): %s",
			domain.ErrInvalidInput, resp.StatusCode, readErrorMessage(resp.Body))
	}

	var body dailyPointResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		// a body cut off mid-stream is a transport failure, anything else is a bad payload
		retryable := errors.Is(err, io.ErrUnexpectedEOF)
		return nil, retryable, fmt.Errorf("%w: failed to decode response: %w", domain.ErrFetch, err)
	}

	return c.toDailyResponse(body), false, nil
}

func (c *Client) toDailyResponse(body dailyPointResponse) *DailyResponse {
	out := &DailyResponse{
		Parameter: ParameterAllSkyIrradiance,
		FillValue: DefaultFillValue,
	}
	if body.Header.FillValue != nil {
		out.FillValue = *body.Header.FillValue
	}
	if meta, ok := body.Parameters[ParameterAllSkyIrradiance]; ok {
		out.Units = meta.Units
	}
	if len(body.Geometry.Coordinates) >= 2 {
		out.GridLongitude = body.Geometry.Coordinates[0]
		out.GridLatitude = body.Geometry.Coordinates[1]
	}

	raw := body.Properties.Parameter[ParameterAllSkyIrradiance]
	out.Values = make([]DailyValue, 0, len(raw))
	for key, value := range raw {
		date, err := time.Parse(dateLayout, key)
		if err != nil {
			c.log.Warn().Str("key", key).Msg("Skipping reading with unparseable date")
			continue
		}
		out.Values = append(out.Values, DailyValue{Date: date, Value: value})
	}
	sort.Slice(out.Values, func(i, j int) bool {
		return out.Values[i].Date.Before(out.Values[j].Date)
	})

	for _, msg := range body.Messages {
		c.log.Debug().Str("message", msg).Msg("POWER response message")
	}

	return out
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return "no details"
	}

	var parsed errorResponse
	if err := json.Unmarshal(data, &parsed); err == nil {
		switch {
		case len(parsed.Messages) > 0:
			return strings.Join(parsed.Messages, "; ")
		case parsed.Message != "":
			return parsed.Message
		case parsed.Detail != nil:
			return fmt.Sprint(parsed.Detail)
		}
	}

	return strings.TrimSpace(string(data))
}
