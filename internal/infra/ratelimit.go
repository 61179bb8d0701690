package infra

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound requests to an upstream API.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows maxRequests per window, with bursts up to maxRequests.
// A non-positive maxRequests disables limiting.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests <= 0 || window <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := window / time.Duration(maxRequests)
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(every), maxRequests)}
}

// Wait blocks until a request slot is available or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed now without waiting.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}
