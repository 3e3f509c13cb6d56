package github

import (
	"errors"
	"fmt"
	"time"
)

// GitHub-specific errors.
var (
	// ErrInvalidCursor indicates the resume cursor format is invalid.
	ErrInvalidCursor = errors.New("github: invalid cursor format")

	// ErrRetryBudgetExhausted indicates a request kept hitting the
	// primary rate limit past the configured retry ceiling.
	ErrRetryBudgetExhausted = errors.New("github: retry budget exhausted")
)

// APIError represents a GitHub API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// SecondaryRateLimitError represents an abuse-detection throttle hit.
// These are never retried automatically; compounding requests extends
// the penalty window.
type SecondaryRateLimitError struct {
	RetryAfter time.Duration
}

func (e *SecondaryRateLimitError) Error() string {
	return fmt.Sprintf("github: secondary rate limit hit, retry after %s", e.RetryAfter)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsSecondaryRateLimit checks if the error is an abuse-detection throttle.
func IsSecondaryRateLimit(err error) bool {
	var secErr *SecondaryRateLimitError
	return errors.As(err, &secErr)
}
