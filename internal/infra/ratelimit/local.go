// Package ratelimit holds the in-process limiter used when Redis is not configured.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ai-video-queue/internal/domain/ports/adapter"
)

var _ adapter.RateLimiter = (*Local)(nil)

// Local keeps one token bucket per key. Idle buckets are dropped on access
// once they have been full for longer than idleTTL.
type Local struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocal allows n events per window with bursts of up to n.
func NewLocal(n int, window time.Duration) *Local {
	if n <= 0 {
		n = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Local{
		limit:   rate.Every(window / time.Duration(n)),
		burst:   n,
		idleTTL: window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)

	b := l.buckets[key]
	if b == nil {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

func (l *Local) evictIdle(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, k)
		}
	}
}
