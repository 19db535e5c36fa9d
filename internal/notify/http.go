// Package notify delivers bot messages over the LINE Messaging API.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient handles HTTP requests with retry logic.
type HTTPClient struct {
	client     *http.Client
	maxRetries int
	retryDelay []time.Duration
	header     http.Header
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithBearer sends an Authorization bearer token on every request.
func WithBearer(token string) Option {
	return func(c *HTTPClient) {
		c.header.Set("Authorization", "Bearer "+token)
	}
}

// WithRetryDelays replaces the wait before each attempt. The first entry is
// the wait before the first attempt.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(c *HTTPClient) {
		c.retryDelay = delays
		c.maxRetries = len(delays) - 1
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// NewHTTPClient creates a new HTTP client with default settings.
func NewHTTPClient(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 2,
		retryDelay: []time.Duration{0, 1 * time.Second, 5 * time.Second},
		header: http.Header{},
	}
	c.header.Set("User-Agent", "escape-bot/1.0")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendResult contains the result of a send operation.
type SendResult struct {
	StatusCode int
	Duration   time.Duration
	Attempts   int
	Body       []byte
	Error      error
}

// Send POSTs body to url, retrying on transport errors, 429 and 5xx.
// Client errors are returned without retrying.
func (c *HTTPClient) Send(ctx context.Context, url string, contentType string, body []byte) *SendResult {
	result := &SendResult{}
	start := time.Now()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		result.Attempts = attempt + 1

		if attempt > 0 && attempt < len(c.retryDelay) {
			select {
			case <-ctx.Done():
				result.Error = ctx.Err()
				result.Duration = time.Since(start)
				return result
			case <-time.After(c.retryDelay[attempt]):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			result.Error = fmt.Errorf("failed to create request: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		for k, v := range c.header {
			req.Header[k] = v
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.client.Do(req)
		if err != nil {
			result.Error = fmt.Errorf("request failed: %w", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()

		result.StatusCode = resp.StatusCode
		result.Body = bodyBytes

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			result.Error = nil
			result.Duration = time.Since(start)
			return result
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			result.Error = fmt.Errorf("rate limited (HTTP 429)")
			continue
		}

		if resp.StatusCode >= 500 {
			result.Error = fmt.Errorf("server error (HTTP %d): %s", resp.StatusCode, string(bodyBytes))
			continue
		}

		result.Error = fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, string(bodyBytes))
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	if result.Error == nil {
		result.Error = fmt.Errorf("max retries exceeded")
	}
	return result
}
