// Package storage resolves detection image references to fetchable URLs.
package storage

import (
	"context"
	"time"
)

// Provider is an object store that can hand out temporary download links.
type Provider interface {
	// PresignGet returns a signed download URL for objectKey valid for expiry.
	PresignGet(ctx context.Context, objectKey string, expiry time.Duration) (string, error)

	// CheckBucket verifies that the configured bucket exists.
	CheckBucket(ctx context.Context) error
}
