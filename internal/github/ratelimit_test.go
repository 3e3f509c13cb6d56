package github

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedResponse(remaining, limit int, reset time.Time) *http.Response {
	header := http.Header{}
	header.Set(HeaderRateRemaining, strconv.Itoa(remaining))
	header.Set(HeaderRateLimit, strconv.Itoa(limit))
	header.Set(HeaderRateReset, strconv.FormatInt(reset.Unix(), 10))
	return &http.Response{Header: header}
}

func TestRateLimiter(t *testing.T) {
	t.Run("tracks quota state from response headers", func(t *testing.T) {
		limiter := NewRateLimiter(1000, 0)
		reset := time.Now().Add(time.Hour).Truncate(time.Second)

		limiter.UpdateFromResponse(rateLimitedResponse(4200, 5000, reset))

		assert.Equal(t, 4200, limiter.Remaining())
		assert.Equal(t, 5000, limiter.Limit())
		assert.True(t, limiter.ResetTime().Equal(reset))
	})

	t.Run("missing headers leave state untouched", func(t *testing.T) {
		limiter := NewRateLimiter(1000, 0)

		limiter.UpdateFromResponse(&http.Response{Header: http.Header{}})

		assert.Equal(t, GitHubRateLimit, limiter.Remaining())
	})

	t.Run("passes when quota is plentiful", func(t *testing.T) {
		limiter := NewRateLimiter(1000, 100)

		start := time.Now()
		err := limiter.Wait(context.Background())

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("waits for the window reset once inside the reserve", func(t *testing.T) {
		limiter := NewRateLimiter(1000, 10)
		reset := time.Now().Add(60 * time.Millisecond)
		limiter.UpdateFromResponse(rateLimitedResponse(5, 5000, reset))

		start := time.Now()
		err := limiter.Wait(context.Background())

		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	})

	t.Run("a cancelled context interrupts the reserve wait", func(t *testing.T) {
		limiter := NewRateLimiter(1000, 10)
		limiter.UpdateFromResponse(rateLimitedResponse(5, 5000, time.Now().Add(time.Hour)))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := limiter.Wait(ctx)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("defaults apply for out-of-range settings", func(t *testing.T) {
		limiter := NewRateLimiter(0, -1)

		assert.Equal(t, DefaultMinBuffer, limiter.minBuffer)
		assert.Equal(t, GitHubRateLimit, limiter.Remaining())
	})
}
