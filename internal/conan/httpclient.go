package conan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmaksimovic94/mm-test-release/internal/common/version"
)

var (
	// ErrMaxRetriesExceeded is returned when every attempt failed
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	// ErrRequestTimeout is returned when a request times out
	ErrRequestTimeout = errors.New("request timeout")
)

// RetryConfig holds retry behavior for index requests
type RetryConfig struct {
	MaxRetries int           // retries after the first attempt
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // cap on any single delay
	Timeout    time.Duration // per-request timeout
}

// DefaultRetryConfig returns 3 retries with 1s, 2s, 4s backoff
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   4 * time.Second,
		Timeout:    30 * time.Second,
	}
}

// RetryableHTTPClient retries network errors, 5xx and 429 responses with
// exponential backoff, and authenticates with an optional bearer token.
type RetryableHTTPClient struct {
	client    *http.Client
	config    RetryConfig
	delayFunc func(time.Duration)
	token     string
	userAgent string
}

// NewRetryableHTTPClient creates a client with the given retry configuration
func NewRetryableHTTPClient(config RetryConfig) *RetryableHTTPClient {
	return &RetryableHTTPClient{
		client: &http.Client{
			Timeout: config.Timeout,
		},
		config:    config,
		userAgent: version.UserAgent(),
	}
}

// SetHTTPClient replaces the underlying client (tests use httptest clients)
func (c *RetryableHTTPClient) SetHTTPClient(client *http.Client) {
	c.client = client
}

// SetDelayFunc replaces the wait between attempts.
// The default wait ends early when the request context is done.
func (c *RetryableHTTPClient) SetDelayFunc(fn func(time.Duration)) {
	c.delayFunc = fn
}

// wait pauses before a retry and returns ctx.Err() if ctx ends first
func (c *RetryableHTTPClient) wait(ctx context.Context, d time.Duration) error {
	if c.delayFunc != nil {
		c.delayFunc(d)
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetToken sets the bearer token sent with every request
func (c *RetryableHTTPClient) SetToken(token string) {
	c.token = token
}

// Config returns the retry configuration
func (c *RetryableHTTPClient) Config() RetryConfig {
	return c.config
}

// Get performs a GET request with retries.
// A non-retryable status (2xx, 3xx, 4xx other than 429) is returned as is;
// the caller closes the body.
func (c *RetryableHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			if err := c.wait(ctx, c.calculateDelay(attempt)); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if isTimeoutError(err) {
				lastErr = fmt.Errorf("%w: %v", ErrRequestTimeout, err)
			}
			continue
		}

		if shouldRetry(resp.StatusCode) {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr)
}

// calculateDelay returns BaseDelay * 2^(attempt-1), capped at MaxDelay.
// Doubling stops once the cap is reached, so large attempts cannot overflow.
func (c *RetryableHTTPClient) calculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := c.config.BaseDelay
	for i := 1; i < attempt && delay < c.config.MaxDelay; i++ {
		delay *= 2
	}
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}
	return delay
}

// shouldRetry reports whether a status code is worth another attempt
func shouldRetry(statusCode int) bool {
	return statusCode >= 500 && statusCode < 600 || statusCode == http.StatusTooManyRequests
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}
