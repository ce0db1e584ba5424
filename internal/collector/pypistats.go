package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/semclone/pypistats-tracker/internal/domain"
	apperrors "github.com/semclone/pypistats-tracker/internal/errors"
)

// Backoff schedule for HTTP 429 responses. Other failures are not retried.
var defaultBackoff = []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}

// pypistatsCollector implements Collector against the pypistats.org API
type pypistatsCollector struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter RateLimiter
	backoff     []time.Duration
	log         *logrus.Entry
}

// Option configures a pypistats collector
type Option func(*pypistatsCollector)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *pypistatsCollector) {
		c.httpClient = client
	}
}

// WithBackoff overrides the 429 retry schedule
func WithBackoff(backoff []time.Duration) Option {
	return func(c *pypistatsCollector) {
		c.backoff = backoff
	}
}

// WithRateLimiter overrides the inter-request rate limiter
func WithRateLimiter(limiter RateLimiter) Option {
	return func(c *pypistatsCollector) {
		c.rateLimiter = limiter
	}
}

// NewPyPIStatsCollector creates a new pypistats.org collector
func NewPyPIStatsCollector(baseURL string, opts ...Option) Collector {
	c := &pypistatsCollector{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: NewRateLimiter(500 * time.Millisecond),
		backoff:     defaultBackoff,
		log:         logrus.WithField("component", "collector"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRecent retrieves the recent download summary (day, week, month)
func (c *pypistatsCollector) FetchRecent(ctx context.Context, pkg string) (*domain.RecentResponse, error) {
	var result domain.RecentResponse
	if err := c.fetch(ctx, pkg, "recent", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchOverall retrieves the overall daily download time series
func (c *pypistatsCollector) FetchOverall(ctx context.Context, pkg string) (*domain.OverallResponse, error) {
	var result domain.OverallResponse
	if err := c.fetch(ctx, pkg, "overall", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchPythonVersions retrieves downloads broken down by Python minor version
func (c *pypistatsCollector) FetchPythonVersions(ctx context.Context, pkg string) (*domain.BreakdownResponse, error) {
	var result domain.BreakdownResponse
	if err := c.fetch(ctx, pkg, "python_minor", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchSystem retrieves downloads broken down by operating system
func (c *pypistatsCollector) FetchSystem(ctx context.Context, pkg string) (*domain.BreakdownResponse, error) {
	var result domain.BreakdownResponse
	if err := c.fetch(ctx, pkg, "system", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// fetch performs one idempotent GET, retrying only on rate limiting.
func (c *pypistatsCollector) fetch(ctx context.Context, pkg, endpoint string, result interface{}) error {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, pkg, endpoint)

	var lastErr error
	for attempt := 0; attempt <= len(c.backoff); attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}

		retryable, err := c.doRequest(ctx, url, result)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt == len(c.backoff) {
			break
		}

		delay := c.backoff[attempt]
		c.log.WithFields(logrus.Fields{
			"url":   url,
			"delay": delay,
		}).Warn("rate limited, backing off")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// doRequest performs a single GET. The boolean reports whether the failure
// was a 429 and worth retrying.
func (c *pypistatsCollector) doRequest(ctx context.Context, url string, result interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, apperrors.NewInternalError("building request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, apperrors.NewUnavailableError(fmt.Sprintf("fetching %s", url), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return true, apperrors.NewRateLimitedError(fmt.Sprintf("rate limited by %s", url))
	case resp.StatusCode == http.StatusNotFound:
		return false, apperrors.NewNotFoundError(url)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return false, apperrors.NewUnavailableError(
			fmt.Sprintf("unexpected status %s from %s", resp.Status, url),
			fmt.Errorf("%s", string(body)),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return false, apperrors.NewUnavailableError(fmt.Sprintf("decoding %s", url), err)
	}
	return false, nil
}
