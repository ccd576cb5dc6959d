package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by CacheProvider.Get when the key does not exist.
var ErrCacheMiss = errors.New("cache: key not found")

// CacheProvider defines the interface for durable key/value storage
type CacheProvider interface {
	// Get retrieves a value; it returns ErrCacheMiss when the key is absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with expiration; zero means no expiration
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete removes a value
	Delete(ctx context.Context, key string) error
}
