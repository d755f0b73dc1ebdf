// Package ratelimit throttles outbound API requests with a token bucket so
// an over-eager caller cannot burn through the vendor quota.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter implements a token bucket with a minimum spacing between
// requests.
type RateLimiter struct {
	mu          sync.Mutex
	tokens      int           // Current number of tokens available
	maxTokens   int           // Maximum number of tokens
	refillRate  time.Duration // Time between token refills
	lastRefill  time.Time     // Last time tokens were refilled
	minInterval time.Duration // Minimum time between requests
	lastRequest time.Time     // Last request time
}

// New creates a rate limiter allowing maxRequests per perDuration, with at
// least minInterval between consecutive requests. Non-positive arguments
// fall back to 60 requests per minute with 100ms spacing.
func New(maxRequests int, perDuration, minInterval time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 60
	}
	if perDuration <= 0 {
		perDuration = time.Minute
	}
	if minInterval <= 0 {
		minInterval = 100 * time.Millisecond
	}

	refillRate := perDuration / time.Duration(maxRequests)
	if refillRate <= 0 {
		refillRate = time.Nanosecond
	}

	return &RateLimiter{
		tokens:      maxRequests,
		maxTokens:   maxRequests,
		refillRate:  refillRate,
		lastRefill:  time.Now(),
		minInterval: minInterval,
	}
}

// Wait blocks until a request may proceed or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.refill(time.Now())

	// Enforce minimum spacing between requests.
	if !rl.lastRequest.IsZero() {
		if sinceLast := now.Sub(rl.lastRequest); sinceLast < rl.minInterval {
			if err := rl.sleep(ctx, rl.minInterval-sinceLast); err != nil {
				return err
			}
			now = time.Now()
		}
	}

	// Wait for a token to become available.
	for rl.tokens <= 0 {
		waitTime := rl.lastRefill.Add(rl.refillRate).Sub(now)
		if waitTime <= 0 {
			waitTime = rl.refillRate
		}
		if waitTime <= 0 {
			waitTime = time.Millisecond
		}
		if err := rl.sleep(ctx, waitTime); err != nil {
			return err
		}
		now = rl.refill(time.Now())
	}

	rl.tokens--
	rl.lastRequest = now
	return nil
}

// refill adds tokens for elapsed time. Caller holds the lock.
func (rl *RateLimiter) refill(now time.Time) time.Time {
	if rl.refillRate <= 0 {
		return now
	}
	elapsed := now.Sub(rl.lastRefill)
	if elapsed <= 0 {
		return now
	}
	tokensToAdd := int(elapsed / rl.refillRate)
	if tokensToAdd > 0 {
		rl.tokens = min(rl.maxTokens, rl.tokens+tokensToAdd)
		rl.lastRefill = now
	}
	return now
}

// sleep releases the lock while waiting. Caller holds the lock.
func (rl *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	rl.mu.Unlock()
	defer rl.mu.Lock()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait cancelled: %w", ctx.Err())
	case <-time.After(d):
		return nil
	}
}
