package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/zaloga/internal/db"
)

// ErrObjectExists is returned when an object name is already taken.
var ErrObjectExists = errors.New("object already exists")

// Object is a stored blob.
type Object struct {
	Bucket      string
	Name        string
	ContentType string
	Data        []byte
}

// PutObject stores a new object. It never replaces an existing one: a taken
// name yields ErrObjectExists.
func PutObject(ctx context.Context, db *db.DB, bucket, name, contentType string, data []byte) error {
	result, err := db.ExecContext(ctx,
		`INSERT INTO objects (bucket, name, content_type, size, data) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (bucket, name) DO NOTHING`,
		bucket, name, contentType, len(data), data,
	)
	if err != nil {
		return fmt.Errorf("storing object: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("storing object: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storing object %s/%s: %w", bucket, name, ErrObjectExists)
	}
	return nil
}

// GetObject returns an object, or nil if it does not exist.
func GetObject(ctx context.Context, db *db.DB, bucket, name string) (*Object, error) {
	obj := &Object{Bucket: bucket, Name: name}
	err := db.QueryRowContext(ctx,
		`SELECT content_type, data FROM objects WHERE bucket = ? AND name = ?`, bucket, name,
	).Scan(&obj.ContentType, &obj.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting object: %w", err)
	}
	return obj, nil
}
