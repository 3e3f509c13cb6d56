// Package github implements the harvest source against the GitHub REST
// API: a throttled client, the rate-limit gate, lazy pull-request
// pagination with an opaque resume cursor, and per-pull-request
// review-comment and label retrieval.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the listing page size (the API caps at 100).
	DefaultPageSize = 100

	// DefaultMaxRetries is the default quota-exhaustion retry ceiling.
	DefaultMaxRetries = 5

	// DefaultCommentPageDelay paces successive comment pages of one
	// pull request to stay clear of the secondary rate limiter.
	DefaultCommentPageDelay = 150 * time.Millisecond
)

// Config holds the settings for the GitHub source.
type Config struct {
	// Token is the personal access token used for authentication.
	Token string

	// Owner and Repo identify the repository being harvested.
	Owner string
	Repo  string

	// PageSize is the per-page item count for all listings (max 100).
	PageSize int

	// MaxRetries is the quota-exhaustion retry ceiling per request.
	MaxRetries int

	// CommentPageDelay is the pause between comment pages of one PR.
	CommentPageDelay time.Duration

	// ProactiveRate and MinRemaining tune the rate limiter.
	ProactiveRate float64
	MinRemaining  int

	// BaseURL overrides the API endpoint. Used by tests.
	BaseURL string
}

func (c *Config) applyDefaults() {
	if c.PageSize <= 0 || c.PageSize > 100 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.CommentPageDelay <= 0 {
		c.CommentPageDelay = DefaultCommentPageDelay
	}
}

// Client wraps the go-github client with throttling and the quota gate.
type Client struct {
	gh      *gh.Client
	cfg     Config
	limiter *RateLimiter
	log     *logrus.Entry
}

// NewClient creates a GitHub source client with a static access token.
func NewClient(cfg Config, log *logrus.Entry) (*Client, error) {
	cfg.applyDefaults()
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = DefaultTimeout

	ghc := gh.NewClient(tc)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		ghc.BaseURL = u
	}

	return &Client{
		gh:      ghc,
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.ProactiveRate, cfg.MinRemaining),
		log:     log.WithField("component", "github"),
	}, nil
}

// NewClientWithHTTPClient creates a client backed by a custom
// http.Client. Useful for tests.
func NewClientWithHTTPClient(cfg Config, httpClient *http.Client, log *logrus.Entry) (*Client, error) {
	c, err := NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	base := c.gh.BaseURL
	c.gh = gh.NewClient(httpClient)
	c.gh.BaseURL = base
	return c, nil
}

// RateLimiter returns the client's rate limiter.
func (c *Client) RateLimiter() *RateLimiter {
	return c.limiter
}

// AwaitQuota queries the current quota status and, if the window is
// exhausted, suspends until it resets. A failure to read the quota
// endpoint is fatal: without it the harvest cost cannot be estimated.
func (c *Client) AwaitQuota(ctx context.Context) error {
	limits, resp, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		return c.wrapError(err, "get rate limit")
	}
	c.updateFromResponse(resp)

	core := limits.GetCore()
	if core == nil || core.Remaining > 0 {
		return nil
	}

	wait := time.Until(core.Reset.Time)
	if wait <= 0 {
		return nil
	}

	c.log.WithFields(logrus.Fields{
		"reset": core.Reset.Time.Format(time.RFC3339),
		"wait":  wait.Round(time.Second).String(),
	}).Info("quota exhausted, waiting for window reset")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// withRetry issues one request through the throttling policy. Primary
// quota exhaustion is retried with the server-supplied backoff up to
// the configured ceiling; a secondary rate limit fails immediately and
// is only logged.
func (c *Client) withRetry(ctx context.Context, op string, fn func(ctx context.Context) (*gh.Response, error)) error {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := fn(ctx)
		c.updateFromResponse(resp)
		if err == nil {
			return nil
		}

		var abuseErr *gh.AbuseRateLimitError
		if errors.As(err, &abuseErr) {
			retryAfter := abuseErr.GetRetryAfter()
			c.log.WithFields(logrus.Fields{
				"op":          op,
				"retry_after": retryAfter.String(),
			}).Warn("secondary rate limit detected, not retrying")
			return &SecondaryRateLimitError{RetryAfter: retryAfter}
		}

		var rateErr *gh.RateLimitError
		if errors.As(err, &rateErr) {
			lastErr = err
			if attempt == c.cfg.MaxRetries {
				break
			}
			delay := time.Until(rateErr.Rate.Reset.Time)
			if delay < 0 {
				delay = 0
			}
			c.log.WithFields(logrus.Fields{
				"op":      op,
				"attempt": attempt + 1,
				"delay":   delay.Round(time.Second).String(),
			}).Info("request quota exhausted, retrying after reset")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		return c.wrapError(err, op)
	}

	return fmt.Errorf("%w: %s after %d attempts: %w", ErrRetryBudgetExhausted, op, c.cfg.MaxRetries+1, lastErr)
}

// updateFromResponse feeds response headers into the rate limiter.
func (c *Client) updateFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.limiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", op, err)
}
