package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeProvider struct {
	keys []string
}

func (f *fakeProvider) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	f.keys = append(f.keys, key)
	return "https://s3.local/detections/" + key + "?X-Amz-Expires=" + expiry.String(), nil
}

func (f *fakeProvider) CheckBucket(context.Context) error { return nil }

func TestResolveWithoutProvider(t *testing.T) {
	r, err := NewImageResolver(nil, time.Minute, "http://gcs:8080/api")
	if err != nil {
		t.Fatalf("NewImageResolver: %v", err)
	}

	tests := []struct {
		ref  string
		want string
	}{
		{"/images/d1.jpg", "http://gcs:8080/images/d1.jpg"},
		{"images/d2.jpg", "http://gcs:8080/images/d2.jpg"},
		{"https://cdn.example/d3.jpg", "https://cdn.example/d3.jpg"},
	}
	for _, tt := range tests {
		got, err := r.Resolve(context.Background(), tt.ref)
		if err != nil || got != tt.want {
			t.Errorf("Resolve(%q) = %q, %v; want %q", tt.ref, got, err, tt.want)
		}
	}
}

func TestResolveWithProvider(t *testing.T) {
	p := &fakeProvider{}
	r, _ := NewImageResolver(p, time.Minute, "http://gcs:8080/api")

	got, err := r.Resolve(context.Background(), "/scout/d1.jpg")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "https://s3.local/detections/scout/d1.jpg?X-Amz-Expires=1m0s" || len(p.keys) != 1 || p.keys[0] != "scout/d1.jpg" {
		t.Errorf("got %q, keys %v", got, p.keys)
	}

	abs, _ := r.Resolve(context.Background(), "http://other/x.jpg")
	if abs != "http://other/x.jpg" || len(p.keys) != 1 {
		t.Errorf("absolute url was presigned: %q", abs)
	}
}

func TestResolveEmpty(t *testing.T) {
	r, _ := NewImageResolver(nil, time.Minute, "http://gcs:8080")
	if _, err := r.Resolve(context.Background(), "  "); !errors.Is(err, ErrNoImage) {
		t.Errorf("got %v, want ErrNoImage", err)
	}
}
