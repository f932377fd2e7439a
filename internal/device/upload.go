package device

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/erazemk/zaloga/internal/media"
)

// MaxUploadSize is the largest accepted photo upload.
const MaxUploadSize = 10 << 20

// Upload is the browser device: the file inputs of a submitted form stand
// in for the camera and the gallery. The browser has already asked the
// user, so permission is always granted. It is safe for concurrent use.
type Upload struct {
	spool *Spool

	mu      sync.Mutex
	files   map[media.Source][]byte
	spooled []media.Image
}

// NewUpload returns an upload device that spools into spool.
func NewUpload(spool *Spool) *Upload {
	return &Upload{spool: spool, files: map[media.Source][]byte{}}
}

// Add records the file submitted for src. The next Launch for src returns
// it once. An empty file is a cancelled pick.
func (d *Upload) Add(src media.Source, r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return fmt.Errorf("photo exceeds %d bytes", MaxUploadSize)
	}
	d.mu.Lock()
	d.files[src] = data
	d.mu.Unlock()
	return nil
}

func (d *Upload) RequestPermission(ctx context.Context, src media.Source) (media.Permission, error) {
	return media.Granted, nil
}

func (d *Upload) Launch(ctx context.Context, src media.Source) (media.Image, error) {
	d.mu.Lock()
	data := d.files[src]
	delete(d.files, src)
	d.mu.Unlock()
	if len(data) == 0 {
		return media.Image{}, nil
	}
	img, err := d.spool.Put(data, src)
	if err != nil {
		return media.Image{}, err
	}
	d.mu.Lock()
	d.spooled = append(d.spooled, img)
	d.mu.Unlock()
	return img, nil
}

func (d *Upload) ReadFile(ctx context.Context, img media.Image) ([]byte, error) {
	return d.spool.ReadFile(ctx, img)
}

// Close removes the photos this device spooled.
func (d *Upload) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, img := range d.spooled {
		d.spool.Remove(img)
	}
	d.spooled = nil
	return nil
}
