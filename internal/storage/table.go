package storage

import (
	"context"
	"net/url"
	"strings"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/store"
)

// Table keeps objects in the database next to the items. Objects are
// served by the HTTP server under /media/{bucket}/{name}.
type Table struct {
	db      *db.DB
	bucket  string
	baseURL string
}

// NewTable returns a bucket backed by the objects table. baseURL is the
// externally visible address of the HTTP server.
func NewTable(database *db.DB, bucket, baseURL string) *Table {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &Table{
		db:      database,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (t *Table) Upload(ctx context.Context, name, contentType string, data []byte) error {
	return store.PutObject(ctx, t.db, t.bucket, name, contentType, data)
}

func (t *Table) PublicURL(name string) string {
	return MediaURL(t.baseURL, t.bucket, name)
}

// MediaURL builds the URL the HTTP server serves a table object at.
func MediaURL(baseURL, bucket, name string) string {
	return strings.TrimRight(baseURL, "/") + "/media/" + url.PathEscape(bucket) + "/" + url.PathEscape(name)
}
