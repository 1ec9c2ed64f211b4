// Package objectstore stores config files, avatars and the client binary in
// S3-compatible buckets.
package objectstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an object key does not exist.
var ErrNotFound = errors.New("objectstore: object not found")

// Bucket is a single named bucket.
type Bucket interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
