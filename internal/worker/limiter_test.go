package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	ctx := context.Background()

	if err := l.Wait(ctx, "cms"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := l.Wait(ctx, "search"); err != nil {
		t.Errorf("wait on a second dependency failed: %v", err)
	}
}

func TestLimiter_RateEnforced(t *testing.T) {
	l := NewLimiter(20, 1) // 20 rps, burst 1
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx, "cms"); err != nil {
			t.Fatalf("wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("expected roughly 100ms of throttling, got %v", elapsed)
	}
}

func TestLimiter_PerDependencyRates(t *testing.T) {
	l := NewLimiter(1, 1)
	l.SetRate("search", 1000, 10)

	if !l.Allow("search") {
		t.Error("custom-rate dependency should allow immediately")
	}
	l.Allow("cms") // consume the single default token
	if l.Allow("cms") {
		t.Error("default-rate dependency should be throttled after its burst")
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	l := NewLimiter(1000, 10)

	start := time.Now()
	if err := l.WaitWithDelay(context.Background(), "cms", 30*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected at least the added delay, got %v", elapsed)
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.Allow("slow") // drain the only token

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "slow"); err == nil {
		t.Error("expected context error while throttled")
	}
}
