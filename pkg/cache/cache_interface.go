package cache

import (
	"context"
	"time"
)

// Cache is the contract of the cache layer so Redis can be swapped out in tests.
type Cache interface {
	// Get unmarshals the cached value into dest.
	// found=false means a miss and dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	DeletePattern(ctx context.Context, pattern string) error

	Ping(ctx context.Context) error
}
