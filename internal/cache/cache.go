package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error

	// Incr atomically increments a numeric key, creating it at 1. The ttl
	// is applied on first creation so counters expire with their session.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
