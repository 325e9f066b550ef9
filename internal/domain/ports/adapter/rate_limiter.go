package adapter

import "context"

// RateLimiter decides whether a requester may be served right now.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
