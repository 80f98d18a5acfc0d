// Package ratelimiter wraps golang.org/x/time/rate with the token-bucket
// policy used to throttle the flatstore accept loop.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// effectively unlimited; rate.Inf has awkward Burst interactions
const unlimitedRate = 1_000_000_000

// RateLimiter is a token-bucket limiter: tokens refill at a sustained rate,
// each admitted event consumes one, and the burst size bounds how many can
// be admitted back to back. Safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a limiter admitting eventsPerSecond sustained with the given
// burst capacity. eventsPerSecond == 0 disables limiting.
func New(eventsPerSecond, burst uint) *RateLimiter {
	if eventsPerSecond == 0 {
		eventsPerSecond = unlimitedRate
		burst = unlimitedRate
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), int(burst)),
	}
}

// Allow reports whether one event is admitted right now, consuming a token
// when it is.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done, returning the
// context error in the latter case.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Tokens returns the number of currently available tokens; useful for
// debugging only, the value is stale the moment it is read.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
