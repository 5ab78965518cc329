// Package ratelimiter throttles connection acceptance using the token
// bucket algorithm.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles the accept loop using a token bucket.
//
// This implementation wraps golang.org/x/time/rate to provide:
//   - Token bucket limiting (allows bursts while enforcing sustained rate)
//   - Context-aware waiting (respects cancellation)
//   - Thread-safe operation
//
// The token bucket works as follows:
//  1. Tokens are added to the bucket at a constant rate (accepts per second)
//  2. Each accepted connection consumes one token
//  3. If the bucket is empty, the accept loop waits for a token
//  4. Burst capacity allows temporary spikes above the sustained rate
//
// Use cases:
//   - Smooth out accept storms after a restart or upstream failover
//   - Protect handler resources from connection floods
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a new RateLimiter with the specified rate and burst capacity.
//
// Parameters:
//   - acceptsPerSecond: Maximum sustained rate (tokens added per second)
//   - burst: Maximum burst size (bucket capacity in tokens)
//
// Special cases:
//   - acceptsPerSecond = 0: No throttling (unlimited)
//
// Example:
//
//	// Allow 1000 accepts/s sustained, 2000 burst
//	limiter := New(1000, 2000)
func New(acceptsPerSecond, burst uint) *RateLimiter {
	if acceptsPerSecond == 0 {
		// Unlimited: use a very high limit
		// rate.Inf would be ideal but has edge cases, so use a large value
		acceptsPerSecond = 1_000_000_000
		burst = acceptsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(acceptsPerSecond), int(burst)),
	}
}

// Allow checks whether one accept is allowed right now.
//
// This is the fast path - it returns immediately without waiting.
//
// Returns:
//   - true if the accept is allowed (token consumed)
//   - false if no tokens are available
//
// Thread safety:
// Safe to call concurrently.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
//
// The accept loop uses this method so that excess connection attempts queue
// in the listen backlog instead of being rejected.
//
// Parameters:
//   - ctx: Controls the maximum wait time. If cancelled, returns context error.
//
// Returns:
//   - nil if a token was acquired
//   - context error if the context was cancelled before a token was available
//
// Thread safety:
// Safe to call concurrently.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
