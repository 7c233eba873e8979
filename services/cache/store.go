package cache

import (
	"context"
	"time"
)

// Store is a key/value store with per-key expiry. Values are serialized as
// JSON so any store can hold any dataset.
type Store interface {
	// Get decodes the value under key into dest. The boolean is false on a miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// DeleteMatching removes every key matching a glob pattern and returns how
	// many were removed.
	DeleteMatching(ctx context.Context, pattern string) (int, error)
	// Delete removes the exact keys given and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int, error)
}
