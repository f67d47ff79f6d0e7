package gateway

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_UnlimitedAllowsAll(t *testing.T) {
	rl := newRateLimiter(0)

	for i := 0; i < 100; i++ {
		if err := rl.wait(context.Background()); err != nil {
			t.Fatalf("wait should always succeed when unlimited, got %v", err)
		}
	}
}

func TestRateLimiter_RequestRateLimit(t *testing.T) {
	// 60 RPM = 1 per second, burst of 60.
	rl := newRateLimiter(60)

	for i := 0; i < 60; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		err := rl.wait(ctx)
		cancel()
		if err != nil {
			t.Fatalf("request %d should succeed within burst, got %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	err := rl.wait(ctx)
	cancel()
	if err == nil {
		t.Error("request after burst should be rate-limited")
	}
}

func TestRateLimiter_CancelledContext(t *testing.T) {
	rl := newRateLimiter(1)
	_ = rl.wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.wait(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
