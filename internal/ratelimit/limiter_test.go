package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	limiter := New("test", 1)

	if !limiter.Allow() {
		t.Error("first request should be allowed")
	}
	if limiter.Allow() {
		t.Error("second immediate request should be rejected at 1 rps")
	}
}

func TestLimiterWaitCancelled(t *testing.T) {
	limiter := New("test", 1)
	limiter.Allow() // drain the burst

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	if err == nil {
		t.Fatal("expected error when context expires before a token is available")
	}
}

func TestLimiterName(t *testing.T) {
	if got := New("aladin", 5).Name(); got != "aladin" {
		t.Errorf("Name() = %q", got)
	}
}

func TestNewWithBurst(t *testing.T) {
	limiter := NewWithBurst("fanout", 1, 3)

	allowed := 0
	for i := 0; i < 5; i++ {
		if limiter.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("expected burst of 3, got %d", allowed)
	}
}
