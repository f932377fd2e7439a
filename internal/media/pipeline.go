package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/zaloga/internal/storage"
)

// ContentType is the type every photo is stored with.
const ContentType = "image/jpeg"

// UploadError reports a photo that could not be stored.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("uploading photo: %v", e.Err)
	}
	return fmt.Sprintf("uploading photo %s: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

var errEmptyImage = errors.New("image is empty")

// Pipeline uploads device photos to a bucket.
type Pipeline struct {
	dev    Device
	bucket storage.Bucket
	now    func() time.Time
	newID  func() string
}

// NewPipeline returns a pipeline reading from dev and writing to bucket.
func NewPipeline(dev Device, bucket storage.Bucket) *Pipeline {
	return &Pipeline{
		dev:    dev,
		bucket: bucket,
		now:    time.Now,
		newID:  func() string { return uuid.NewString()[:8] },
	}
}

// Attach stores img under a fresh name and returns its public URL. Each
// successful call creates exactly one object; nothing is retried.
func (p *Pipeline) Attach(ctx context.Context, img Image) (string, error) {
	data, err := p.dev.ReadFile(ctx, img)
	if err != nil {
		return "", &UploadError{Err: fmt.Errorf("reading %s: %w", img.URI, err)}
	}
	if len(data) == 0 {
		return "", &UploadError{Err: errEmptyImage}
	}

	name := ObjectName(p.now(), p.newID())
	if err := p.bucket.Upload(ctx, name, ContentType, data); err != nil {
		slog.Warn("photo upload failed", "name", name, "error", err)
		return "", &UploadError{Name: name, Err: err}
	}

	slog.Debug("photo uploaded", "name", name, "size", len(data))
	return p.bucket.PublicURL(name), nil
}

// ObjectName builds a photo object name from the upload time and a random
// suffix.
func ObjectName(t time.Time, suffix string) string {
	return fmt.Sprintf("%d-%s.jpg", t.UnixMilli(), suffix)
}
