package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/erazemk/zaloga/internal/media"
)

// Local is the command-line device. The gallery is a file path chosen
// up front; the camera is an external command that writes a photo to
// stdout (for example "libcamera-still -n -o -").
type Local struct {
	Spool *Spool
	// Path is the picked gallery file. Empty means the pick was cancelled.
	Path string
	// CameraCmd is the capture command. Empty means there is no camera.
	CameraCmd string
}

func (d *Local) RequestPermission(ctx context.Context, src media.Source) (media.Permission, error) {
	switch src {
	case media.Camera:
		fields := strings.Fields(d.CameraCmd)
		if len(fields) == 0 {
			return media.Denied, nil
		}
		if _, err := exec.LookPath(fields[0]); err != nil {
			return media.Denied, nil
		}
		return media.Granted, nil
	case media.Gallery:
		if d.Path == "" {
			return media.Granted, nil
		}
		f, err := os.Open(d.Path)
		if errors.Is(err, fs.ErrPermission) {
			return media.Denied, nil
		}
		if err != nil {
			return media.Denied, err
		}
		f.Close()
		return media.Granted, nil
	default:
		return media.Denied, fmt.Errorf("unknown source %s", src)
	}
}

func (d *Local) Launch(ctx context.Context, src media.Source) (media.Image, error) {
	var raw []byte
	switch src {
	case media.Camera:
		fields := strings.Fields(d.CameraCmd)
		if len(fields) == 0 {
			return media.Image{}, nil
		}
		var stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if err != nil {
			return media.Image{}, fmt.Errorf("camera command: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		raw = out
	case media.Gallery:
		if d.Path == "" {
			return media.Image{}, nil
		}
		data, err := os.ReadFile(d.Path)
		if err != nil {
			return media.Image{}, fmt.Errorf("reading %s: %w", d.Path, err)
		}
		raw = data
	default:
		return media.Image{}, fmt.Errorf("unknown source %s", src)
	}

	// Nothing captured counts as a cancelled chooser.
	if len(raw) == 0 {
		return media.Image{}, nil
	}
	return d.Spool.Put(raw, src)
}

func (d *Local) ReadFile(ctx context.Context, img media.Image) ([]byte, error) {
	return d.Spool.ReadFile(ctx, img)
}
