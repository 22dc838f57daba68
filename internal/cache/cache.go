// Package cache provides the TTL key-value store used by the login throttle
// and the verification resend cooldown.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("cache is closed")

// Cache is a string store whose entries expire after their TTL.
// Each call is atomic on its own key only.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get reports ok=false for absent or expired keys.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}
