package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

// ErrNoImage is returned for detections without an image reference.
var ErrNoImage = errors.New("detection has no image")

// ImageResolver turns detection image references into URLs. Absolute URLs
// pass through. Relative references are presigned against the object store
// when one is configured and joined to the backend origin otherwise.
type ImageResolver struct {
	provider Provider
	expiry   time.Duration
	origin   string
}

// NewImageResolver creates a resolver. provider may be nil. backendURL is
// the backend API URL; its scheme and host are used for relative references.
func NewImageResolver(provider Provider, expiry time.Duration, backendURL string) (*ImageResolver, error) {
	u, err := url.Parse(backendURL)
	if err != nil {
		return nil, err
	}
	return &ImageResolver{
		provider: provider,
		expiry:   expiry,
		origin:   u.Scheme + "://" + u.Host,
	}, nil
}

// Resolve returns a URL for ref.
func (r *ImageResolver) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrNoImage
	}

	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref, nil
	}

	if r.provider != nil {
		return r.provider.PresignGet(ctx, strings.TrimLeft(ref, "/"), r.expiry)
	}
	return r.origin + "/" + strings.TrimLeft(ref, "/"), nil
}
