// Package device provides media.Device implementations for the command
// line and for browser uploads. Picked photos go through the capture-step
// edit and are kept in a spool directory until they are uploaded.
package device

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/erazemk/zaloga/internal/imaging"
	"github.com/erazemk/zaloga/internal/media"
)

// Spool holds processed photos on disk.
type Spool struct {
	dir string
}

// NewSpool creates a spool in a fresh directory under parent. An empty
// parent uses the system temp directory.
func NewSpool(parent string) (*Spool, error) {
	dir, err := os.MkdirTemp(parent, "zaloga-spool-")
	if err != nil {
		return nil, fmt.Errorf("creating spool: %w", err)
	}
	return &Spool{dir: dir}, nil
}

// Put runs the capture-step edit on raw and stores the result. It returns
// a handle to the stored photo.
func (s *Spool) Put(raw []byte, src media.Source) (media.Image, error) {
	result, err := imaging.Process(bytes.NewReader(raw))
	if err != nil {
		return media.Image{}, err
	}

	path := filepath.Join(s.dir, uuid.NewString()+".jpg")
	if err := os.WriteFile(path, result.Data, 0o600); err != nil {
		return media.Image{}, fmt.Errorf("writing spooled photo: %w", err)
	}
	return media.Image{URI: path, Source: src}, nil
}

// ReadFile implements the read half of media.Device for spooled photos.
func (s *Spool) ReadFile(ctx context.Context, img media.Image) ([]byte, error) {
	path, err := s.path(img)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Remove deletes a spooled photo. Unknown handles are ignored.
func (s *Spool) Remove(img media.Image) {
	if path, err := s.path(img); err == nil {
		os.Remove(path)
	}
}

// Close removes the spool directory and everything in it.
func (s *Spool) Close() error {
	return os.RemoveAll(s.dir)
}

func (s *Spool) path(img media.Image) (string, error) {
	path := filepath.Clean(img.URI)
	if filepath.Dir(path) != s.dir || !strings.HasSuffix(path, ".jpg") {
		return "", fmt.Errorf("photo %q is not in the spool", img.URI)
	}
	return path, nil
}
