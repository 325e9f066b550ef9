package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLocal(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base

	l := NewLocal(2, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow(ctx, "a"); !ok {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if ok, _ := l.Allow(ctx, "a"); ok {
		t.Errorf("third call inside the window should be throttled")
	}
	if ok, _ := l.Allow(ctx, "b"); !ok {
		t.Errorf("keys have separate buckets")
	}

	now = base.Add(30 * time.Second)
	if ok, _ := l.Allow(ctx, "a"); !ok {
		t.Errorf("one token should refill after half the window")
	}

	now = base.Add(5 * time.Minute)
	_, _ = l.Allow(ctx, "c")
	if _, ok := l.buckets["b"]; ok {
		t.Errorf("idle bucket should be evicted")
	}
}
