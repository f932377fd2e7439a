package device

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/erazemk/zaloga/internal/media"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func newTestSpool(t *testing.T) *Spool {
	t.Helper()
	s, err := NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("NewSpool: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLocalGallery(t *testing.T) {
	spool := newTestSpool(t)
	path := filepath.Join(t.TempDir(), "shelf.png")
	os.WriteFile(path, testPNG(t, 80, 80), 0o644)

	dev := &Local{Spool: spool, Path: path}
	img, err := media.Acquire(context.Background(), dev, media.Gallery)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if img.Source != media.Gallery {
		t.Errorf("expected gallery source, got %s", img.Source)
	}

	data, err := dev.ReadFile(context.Background(), img)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if magic := data[:2]; !bytes.Equal(magic, []byte{0xff, 0xd8}) {
		t.Error("expected spooled photo to be JPEG")
	}
}

func TestLocalGalleryCancelled(t *testing.T) {
	dev := &Local{Spool: newTestSpool(t)}

	_, err := media.Acquire(context.Background(), dev, media.Gallery)
	if !errors.Is(err, media.ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}

func TestLocalCameraWithoutCommand(t *testing.T) {
	dev := &Local{Spool: newTestSpool(t)}

	_, err := media.Acquire(context.Background(), dev, media.Camera)
	if !errors.Is(err, media.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied, got %v", err)
	}

	dev.CameraCmd = "zaloga-no-such-camera-command"
	_, err = media.Acquire(context.Background(), dev, media.Camera)
	if !errors.Is(err, media.ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied for missing binary, got %v", err)
	}
}

func TestLocalCameraCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.png")
	os.WriteFile(path, testPNG(t, 40, 30), 0o644)

	dev := &Local{Spool: newTestSpool(t), CameraCmd: "cat " + path}
	if perm, _ := dev.RequestPermission(context.Background(), media.Camera); perm != media.Granted {
		t.Skip("cat not available")
	}

	img, err := media.Acquire(context.Background(), dev, media.Camera)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if img.Source != media.Camera {
		t.Errorf("expected camera source, got %s", img.Source)
	}
}

func TestUploadDevice(t *testing.T) {
	dev := NewUpload(newTestSpool(t))
	ctx := context.Background()

	_, err := media.Acquire(ctx, dev, media.Camera)
	if !errors.Is(err, media.ErrCancelled) {
		t.Fatalf("expected ErrCancelled without a file, got %v", err)
	}

	if err := dev.Add(media.Camera, bytes.NewReader(testPNG(t, 64, 48))); err != nil {
		t.Fatalf("Add: %v", err)
	}
	img, err := media.Acquire(ctx, dev, media.Camera)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	data, err := dev.ReadFile(ctx, img)
	if err != nil || len(data) == 0 {
		t.Fatalf("ReadFile = %d bytes, %v", len(data), err)
	}
}

func TestUploadDeviceRejectsNonImage(t *testing.T) {
	dev := NewUpload(newTestSpool(t))
	dev.Add(media.Gallery, bytes.NewReader([]byte("plain text")))

	_, err := media.Acquire(context.Background(), dev, media.Gallery)
	if err == nil {
		t.Error("expected error for non-image upload")
	}
}

func TestSpoolRejectsForeignPaths(t *testing.T) {
	spool := newTestSpool(t)

	_, err := spool.ReadFile(context.Background(), media.Image{URI: "/etc/passwd"})
	if err == nil {
		t.Error("expected error reading outside the spool")
	}
}

func TestSpoolRemove(t *testing.T) {
	spool := newTestSpool(t)
	img, err := spool.Put(testPNG(t, 8, 6), media.Gallery)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	spool.Remove(img)
	if _, err := os.Stat(img.URI); !os.IsNotExist(err) {
		t.Errorf("expected photo removed, stat err = %v", err)
	}
}

func TestUploadCloseRemovesSpooled(t *testing.T) {
	dev := NewUpload(newTestSpool(t))
	dev.Add(media.Gallery, bytes.NewReader(testPNG(t, 16, 12)))

	img, err := media.Acquire(context.Background(), dev, media.Gallery)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	dev.Close()
	if _, err := os.Stat(img.URI); !os.IsNotExist(err) {
		t.Errorf("expected spooled photo removed, stat err = %v", err)
	}
}

func TestUploadLaunchConsumesFile(t *testing.T) {
	dev := NewUpload(newTestSpool(t))
	dev.Add(media.Camera, bytes.NewReader(testPNG(t, 16, 12)))

	if _, err := media.Acquire(context.Background(), dev, media.Camera); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	_, err := media.Acquire(context.Background(), dev, media.Camera)
	if !errors.Is(err, media.ErrCancelled) {
		t.Errorf("expected ErrCancelled once the file is used, got %v", err)
	}
}
