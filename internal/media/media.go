// Package media turns a photo picked on a device into a stored, publicly
// addressable object.
package media

import (
	"context"
	"errors"
	"fmt"
)

// Source is where a photo comes from.
type Source int

const (
	Camera Source = iota
	Gallery
)

func (s Source) String() string {
	switch s {
	case Camera:
		return "camera"
	case Gallery:
		return "gallery"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Permission is the outcome of a device permission request.
type Permission int

const (
	Denied Permission = iota
	Granted
)

var (
	// ErrPermissionDenied means the user refused camera or library access.
	ErrPermissionDenied = errors.New("media: permission denied")
	// ErrCancelled means the user closed the chooser without a photo.
	ErrCancelled = errors.New("media: cancelled")
)

// Image is a handle to a photo on the device. It is not uploaded yet.
type Image struct {
	URI    string
	Source Source
}

// Device is the platform side of photo capture.
type Device interface {
	RequestPermission(ctx context.Context, src Source) (Permission, error)
	Launch(ctx context.Context, src Source) (Image, error)
	ReadFile(ctx context.Context, img Image) ([]byte, error)
}

// Acquire asks for permission and then launches the camera or gallery.
// A refused permission yields ErrPermissionDenied without launching.
func Acquire(ctx context.Context, dev Device, src Source) (Image, error) {
	perm, err := dev.RequestPermission(ctx, src)
	if err != nil {
		return Image{}, fmt.Errorf("requesting %s permission: %w", src, err)
	}
	if perm != Granted {
		return Image{}, ErrPermissionDenied
	}

	img, err := dev.Launch(ctx, src)
	if err != nil {
		return Image{}, err
	}
	if img.URI == "" {
		return Image{}, ErrCancelled
	}
	img.Source = src
	return img, nil
}
