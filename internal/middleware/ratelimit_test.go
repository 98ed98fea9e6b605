package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/gather/internal/testing/fixtures"
	"github.com/forgo/gather/internal/testing/helpers"
)

func newLimiter(t *testing.T, rate, burst int) (*RateLimiter, *helpers.Clock) {
	t.Helper()
	clock := helpers.NewClock(fixtures.Epoch)
	rl := NewRateLimiter(RateLimitConfig{Rate: rate, Burst: burst, Window: time.Minute, Clock: clock.Now})
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{})
	defer rl.Stop()

	assert.Equal(t, 60, rl.rate)
	assert.Equal(t, time.Minute, rl.window)
	assert.Equal(t, 20, rl.burst)
	assert.Equal(t, 5*time.Minute, rl.cleanup)

	rl.Stop() // second stop is a no-op
}

func TestAllow_ExhaustsCapacity(t *testing.T) {
	t.Parallel()

	rl, _ := newLimiter(t, 3, 2)

	for i := 4; i >= 0; i-- {
		allowed, remaining, _ := rl.Allow("a")
		require.True(t, allowed)
		assert.Equal(t, i, remaining)
	}
	allowed, remaining, _ := rl.Allow("a")
	assert.False(t, allowed)
	assert.Zero(t, remaining)

	// Other clients have their own bucket.
	allowed, _, _ = rl.Allow("b")
	assert.True(t, allowed)
}

func TestAllow_Refill(t *testing.T) {
	t.Parallel()

	rl, clock := newLimiter(t, 6, -1)
	for range 6 {
		allowed, _, _ := rl.Allow("a")
		require.True(t, allowed)
	}
	allowed, _, _ := rl.Allow("a")
	require.False(t, allowed)

	// Half the window refills half the rate.
	clock.Advance(30 * time.Second)
	allowed, remaining, _ := rl.Allow("a")
	assert.True(t, allowed)
	assert.Equal(t, 2, remaining)

	clock.Advance(time.Minute)
	_, remaining, reset := rl.Allow("a")
	assert.Equal(t, 5, remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), reset)
}

func TestCleanupExpired(t *testing.T) {
	t.Parallel()

	rl, clock := newLimiter(t, 10, 0)
	rl.Allow("old")
	clock.Advance(90 * time.Second)
	rl.Allow("fresh")
	clock.Advance(60 * time.Second)

	rl.cleanupExpired()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.buckets, "old")
	assert.Contains(t, rl.buckets, "fresh")
}

func TestAllow_Concurrent(t *testing.T) {
	t.Parallel()

	rl, _ := newLimiter(t, 50, -1)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, _ := rl.Allow("shared"); ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, granted)
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	rl, clock := newLimiter(t, 1, -1)
	h := RateLimit(rl)(okHandler("ok"))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr := call("198.51.100.7:1000")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	// Same host on a new port shares the bucket.
	clock.Advance(15 * time.Second)
	rr = call("198.51.100.7:2000")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, strconv.Itoa(45), rr.Header().Get("Retry-After"))

	rr = call("198.51.100.8:1000")
	assert.Equal(t, http.StatusOK, rr.Code)
}
