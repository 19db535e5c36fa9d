// Package catalog is a client for the escape.bar game catalog. Search
// results and game pages are scraped from HTML; reviews come from the
// review JSON API.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/kipper0508/escape-bot/internal/breaker"
	"github.com/kipper0508/escape-bot/internal/errors"
	"github.com/kipper0508/escape-bot/internal/logging"
)

// ServiceName identifies the catalog in errors, logs and metrics.
const ServiceName = "catalog"

// Default endpoints and limits.
const (
	DefaultBaseURL   = "https://escape.bar"
	DefaultReviewURL = "https://bartender.escape.bar"
	DefaultTimeout   = 10 * time.Second
	DefaultRate      = 2.0 // requests per second
	DefaultBurst     = 4

	maxBodyBytes = 8 << 20
)

// Config configures a catalog Client.
type Config struct {
	BaseURL   string
	ReviewURL string
	Timeout   time.Duration
	// Rate is the sustained request rate in requests per second.
	Rate  float64
	Burst int
	// HTTPClient overrides the default client. Its Timeout is left untouched.
	HTTPClient *http.Client
}

// DefaultConfig returns the production catalog configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		ReviewURL: DefaultReviewURL,
		Timeout:   DefaultTimeout,
		Rate:      DefaultRate,
		Burst:     DefaultBurst,
	}
}

// Client fetches games, pages and reviews from the catalog.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *breaker.Breaker
}

// New creates a catalog client.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.ReviewURL == "" {
		cfg.ReviewURL = def.ReviewURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Rate <= 0 {
		cfg.Rate = def.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		cfg:     cfg,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		breaker: breaker.New(breaker.DefaultConfig(ServiceName)),
	}
}

// Check reports whether the catalog breaker is accepting calls.
func (c *Client) Check(ctx context.Context) error {
	return c.breaker.Check(ctx)
}

// GameURL returns the public page URL for a game.
func (c *Client) GameURL(gameID string) string {
	return fmt.Sprintf("%s/game/%s", c.cfg.BaseURL, gameID)
}

// fetch performs a rate-limited GET through the breaker and returns the body.
// Every failure is reported as an upstream error for op.
func (c *Client) fetch(ctx context.Context, op, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Upstream(ServiceName, op, err)
	}

	start := time.Now()
	body, err := breaker.Do(c.breaker, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "escape-bot/1.0")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	})

	logging.DebugContext(ctx, "catalog request",
		logging.KeyOperation, op,
		logging.KeyDuration, time.Since(start).Milliseconds(),
		logging.KeyError, err,
	)
	if err != nil {
		return nil, errors.Upstream(ServiceName, op, err)
	}
	return body, nil
}

// parseHTML parses a fetched page, reporting failures as upstream errors for op.
func parseHTML(r io.Reader, op string) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Upstream(ServiceName, op, fmt.Errorf("failed to parse page: %w", err))
	}
	return doc, nil
}
