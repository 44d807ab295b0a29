package cache

import (
	"context"
	"errors"
)

var ErrCacheMiss = errors.New("cache: miss")

// Cache stores opaque response bodies by key. Get returns ErrCacheMiss for
// absent or expired entries.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Len(ctx context.Context) (int, error)
}
