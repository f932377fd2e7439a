// Package storage holds the object store backends for location photos.
// Objects are write-once: an upload never replaces an existing name.
package storage

import (
	"context"

	"github.com/erazemk/zaloga/internal/store"
)

// DefaultBucket is the bucket location photos are stored in.
const DefaultBucket = "location-images"

// ErrObjectExists is returned by Upload when the name is already taken.
var ErrObjectExists = store.ErrObjectExists

// Bucket is a write-once object store with publicly addressable objects.
type Bucket interface {
	// Upload stores data under name. It fails with ErrObjectExists rather
	// than overwrite.
	Upload(ctx context.Context, name, contentType string, data []byte) error
	// PublicURL returns the absolute URL an uploaded object is served at.
	PublicURL(name string) string
}
