package collector

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces out calls to the upstream API
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// pypistatsRateLimiter enforces a minimum delay between sequential requests.
// pypistats.org publishes no hard quota, so politeness is the goal rather
// than header-driven budgeting.
type pypistatsRateLimiter struct {
	mu       sync.Mutex
	minDelay time.Duration
	lastCall time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(minDelay time.Duration) RateLimiter {
	return &pypistatsRateLimiter{
		minDelay: minDelay,
	}
}

// Wait waits until it's safe to make another API call
func (r *pypistatsRateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.lastCall)
	if elapsed < r.minDelay {
		r.mu.Unlock()
		select {
		case <-ctx.Done():
			r.mu.Lock()
			return ctx.Err()
		case <-time.After(r.minDelay - elapsed):
			r.mu.Lock()
		}
	}

	r.lastCall = time.Now()
	return nil
}
