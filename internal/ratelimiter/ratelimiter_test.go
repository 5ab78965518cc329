package ratelimiter

import (
	"context"
	"testing"
	"time"
)

// TestNew verifies limiter creation with different parameters.
func TestNew(t *testing.T) {
	tests := []struct {
		name             string
		acceptsPerSecond uint
		burst            uint
	}{
		{
			name:             "standard rate",
			acceptsPerSecond: 100,
			burst:            200,
		},
		{
			name:             "low rate",
			acceptsPerSecond: 1,
			burst:            2,
		},
		{
			name:             "unlimited (zero rate)",
			acceptsPerSecond: 0,
			burst:            0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.acceptsPerSecond, tt.burst)
			if limiter == nil {
				t.Fatal("New() returned nil")
			}
			if limiter.limiter == nil {
				t.Fatal("internal limiter is nil")
			}
		})
	}
}

// TestAllow verifies that Allow() enforces the configured rate.
func TestAllow(t *testing.T) {
	// 10 accepts/s, burst of 10
	limiter := New(10, 10)

	// First burst should be allowed (up to burst capacity)
	for i := 0; i < 10; i++ {
		if !limiter.Allow() {
			t.Fatalf("accept %d should be allowed (within burst)", i)
		}
	}

	// Next accept should be throttled (bucket empty)
	if limiter.Allow() {
		t.Fatal("accept should be throttled after burst exhausted")
	}

	// Wait for token replenishment (100ms for 10 accepts/s = 1 token)
	time.Sleep(110 * time.Millisecond)

	if !limiter.Allow() {
		t.Fatal("accept should be allowed after token replenishment")
	}
}

// TestWaitCancellation verifies that Wait() honors context cancellation.
func TestWaitCancellation(t *testing.T) {
	// 1 accept/s, burst of 1: second Wait must block
	limiter := New(1, 1)

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait should succeed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("Wait should fail when context expires before a token is available")
	}
}

// TestUnlimited verifies the zero-rate special case.
func TestUnlimited(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 1000; i++ {
		if !limiter.Allow() {
			t.Fatalf("unlimited limiter rejected accept %d", i)
		}
	}
}
