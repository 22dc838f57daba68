// Package blob stores user uploads (map thumbnails, place photos, profile
// pictures) and hands out time-limited URLs for them.
package blob

import (
	"MapHub-Backend/internal/domain"
	"context"
	"time"
)

// Store is the blob storage contract. References are opaque to callers.
type Store interface {
	Upload(ctx context.Context, file domain.Upload) (ref string, err error)
	Delete(ctx context.Context, ref string) error
	SignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error)
}
