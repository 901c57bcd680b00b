package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAdaptiveLimiterBounds(t *testing.T) {
	lim := NewAdaptiveLimiter(4, 1, 8, 2, 0.5)
	lim.now = func() time.Time { return time.Unix(1000, 0) }

	lim.Failure()
	if got := lim.CurrentLimit(); got != 2 {
		t.Fatalf("after failure limit = %v, want 2", got)
	}
	lim.Failure()
	lim.Failure()
	if got := lim.CurrentLimit(); got != 1 {
		t.Fatalf("limit should floor at min, got %v", got)
	}

	// success right after a failure does not raise the rate
	lim.Success()
	if got := lim.CurrentLimit(); got != 1 {
		t.Fatalf("limit raised during cooldown: %v", got)
	}

	lim.now = func() time.Time { return time.Unix(2000, 0) }
	for i := 0; i < 10; i++ {
		lim.Success()
	}
	if got := lim.CurrentLimit(); got != 8 {
		t.Fatalf("limit should cap at max, got %v", got)
	}
}

func TestDoSingleAttempt(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 1, 20, 1, 0.5)
	calls := 0
	boom := errors.New("boom")
	err := Do(context.Background(), lim, func(context.Context) error {
		calls++
		return boom
	}, nil)
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("Do = %v after %d calls", err, calls)
	}
	if lim.CurrentLimit() != 5 {
		t.Fatalf("failure should halve the limit, got %v", lim.CurrentLimit())
	}
}

func TestDoIgnoresCancellation(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 1, 20, 1, 0.5)
	_ = Do(context.Background(), lim, func(context.Context) error {
		return context.DeadlineExceeded
	}, nil)
	if lim.CurrentLimit() != 10 {
		t.Fatalf("timeouts must not slow the limiter, got %v", lim.CurrentLimit())
	}
}

func TestDoCanceledContext(t *testing.T) {
	lim := NewAdaptiveLimiter(1, 1, 1, 1, 0.5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// drain the single token so Wait has to block
	_ = lim.Wait(context.Background())
	called := false
	err := Do(ctx, lim, func(context.Context) error { called = true; return nil }, nil)
	if err == nil || called {
		t.Fatalf("expected Wait to fail on canceled context, err=%v called=%v", err, called)
	}
}
