// Package helpers holds small test utilities shared across packages:
// pointer literals, a silent logger, a manual clock and a channel wait
// with a timeout.
//
//	clock := helpers.NewClock(fixtures.Epoch)
//	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{Clock: clock.Now})
//	clock.Advance(time.Minute)
package helpers
