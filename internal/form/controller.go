// Package form holds the add-item flow: the draft being edited, its
// validation, and the save sequence of photo upload followed by insert.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/zaloga/internal/media"
	"github.com/erazemk/zaloga/internal/model"
)

// State is the save state of a Controller.
type State int

const (
	Editing State = iota
	Submitting
	Saved
	SaveFailed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Saved:
		return "saved"
	case SaveFailed:
		return "save failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Required field names reported by ValidationError.
const (
	FieldName     = "name"
	FieldLocation = "location"
)

// Draft is the item being added.
type Draft struct {
	Name     string
	Root     model.Root
	Sub      model.SubCategory
	Location string
	Expiry   model.Date
	Photo    *media.Image
}

// Category returns the draft's category. Sub is ignored unless Root is
// Food.
func (d Draft) Category() (model.Category, error) {
	return model.NewCategory(d.Root, d.Sub)
}

// Gateway is the item table.
type Gateway interface {
	Insert(ctx context.Context, rec model.Record) (*model.Item, error)
}

// Attacher stores a device photo and returns its public URL.
type Attacher interface {
	Attach(ctx context.Context, img media.Image) (string, error)
}

// Result is the outcome of a successful Submit.
type Result struct {
	Item *model.Item
	// UploadErr is set when the photo could not be stored and the item was
	// saved without it.
	UploadErr error
}

// Option configures a Controller.
type Option func(*Controller)

// WithReporter sets where user notices go.
func WithReporter(r Reporter) Option {
	return func(c *Controller) { c.reporter = r }
}

// OnSaved registers a hook run after a successful save, outside the lock.
func OnSaved(fn func(*model.Item)) Option {
	return func(c *Controller) { c.onSaved = fn }
}

// WithRequestID sets the idempotency key of the first add flow.
func WithRequestID(id string) Option {
	return func(c *Controller) { c.requestID = id }
}

// WithClock sets the clock used for the default expiry date.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns one add flow. It is safe for concurrent use.
type Controller struct {
	gateway  Gateway
	attacher Attacher
	reporter Reporter
	onSaved  func(*model.Item)
	now      func() time.Time

	mu        sync.Mutex
	state     State
	uploading bool
	draft     Draft
	requestID string
	lastErr   error

	// uploaded remembers the stored URL of a photo so a retried save does
	// not upload it again.
	uploaded    media.Image
	uploadedURL string
}

// New returns a controller with an empty draft. attacher may be nil if
// photos are not supported.
func New(gateway Gateway, attacher Attacher, opts ...Option) *Controller {
	c := &Controller{
		gateway:  gateway,
		attacher: attacher,
		reporter: discardReporter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.draft = c.blankDraft()
	if c.requestID == "" {
		c.requestID = uuid.NewString()
	}
	return c
}

func (c *Controller) blankDraft() Draft {
	return Draft{
		Root:   model.RootFood,
		Sub:    model.SubPantry,
		Expiry: model.DateOf(c.now()),
	}
}

// State returns the current save state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Uploading reports whether a photo upload is in flight.
func (c *Controller) Uploading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploading
}

// Draft returns a copy of the draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.draft
	if d.Photo != nil {
		p := *d.Photo
		d.Photo = &p
	}
	return d
}

// RequestID returns the idempotency key the next insert will carry.
func (c *Controller) RequestID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestID
}

// Err returns the error of the last failed save, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// edit applies fn to the draft if the controller accepts edits. Editing a
// failed save starts a new attempt with a new request ID.
func (c *Controller) edit(fn func(*Draft) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Submitting, Saved:
		return ErrNotEditable
	}

	next := c.draft
	if err := fn(&next); err != nil {
		return err
	}
	if next == c.draft {
		return nil
	}
	c.draft = next
	if c.state == SaveFailed {
		c.state = Editing
		c.lastErr = nil
		c.requestID = uuid.NewString()
	}
	return nil
}

func (c *Controller) SetName(name string) error {
	return c.edit(func(d *Draft) error {
		d.Name = name
		return nil
	})
}

func (c *Controller) SetLocation(location string) error {
	return c.edit(func(d *Draft) error {
		d.Location = location
		return nil
	})
}

// SetRoot selects a category root. The food sub-category is kept so that
// switching back to Food restores it.
func (c *Controller) SetRoot(root model.Root) error {
	if _, err := model.NewCategory(root, ""); err != nil {
		return err
	}
	return c.edit(func(d *Draft) error {
		d.Root = root
		return nil
	})
}

// SetSub selects the food sub-category.
func (c *Controller) SetSub(sub model.SubCategory) error {
	if _, err := model.NewCategory(model.RootFood, sub); err != nil {
		return err
	}
	return c.edit(func(d *Draft) error {
		d.Sub = sub
		return nil
	})
}

// SetExpiry sets the expiry date to the calendar day of t in t's location.
func (c *Controller) SetExpiry(t time.Time) error {
	return c.SetExpiryDate(model.DateOf(t))
}

func (c *Controller) SetExpiryDate(date model.Date) error {
	if date.IsZero() {
		return errors.New("expiry date required")
	}
	return c.edit(func(d *Draft) error {
		d.Expiry = date
		return nil
	})
}

// SetPhoto attaches an already acquired photo handle.
func (c *Controller) SetPhoto(img media.Image) error {
	if img.URI == "" {
		return errors.New("photo handle is empty")
	}
	return c.edit(func(d *Draft) error {
		d.Photo = &img
		return nil
	})
}

// RemovePhoto detaches the photo. Nothing is deleted from the device.
func (c *Controller) RemovePhoto() error {
	return c.edit(func(d *Draft) error {
		d.Photo = nil
		return nil
	})
}

// Capture acquires a photo from dev and attaches it. A denied permission
// or a cancelled chooser leaves the draft unchanged.
func (c *Controller) Capture(ctx context.Context, dev media.Device, src media.Source) error {
	if s := c.State(); s == Submitting || s == Saved {
		return ErrNotEditable
	}

	img, err := media.Acquire(ctx, dev, src)
	switch {
	case errors.Is(err, media.ErrPermissionDenied):
		c.reporter.Report(Notice{
			Level:   LevelWarning,
			Title:   "Permission Denied",
			Message: permissionMessage(src),
		})
		return err
	case errors.Is(err, media.ErrCancelled):
		return err
	case err != nil:
		return fmt.Errorf("capturing photo: %w", err)
	}
	return c.SetPhoto(img)
}

func permissionMessage(src media.Source) string {
	if src == media.Camera {
		return "Camera access is required to take photos."
	}
	return "Gallery access is required to pick a photo."
}

// Validate returns a ValidationError if a required field is empty.
func (d Draft) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, FieldName)
	}
	if strings.TrimSpace(d.Location) == "" {
		missing = append(missing, FieldLocation)
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Submit validates the draft, uploads the photo if one is attached, and
// inserts the item. A failed upload is reported and the item is saved
// without a photo. A failed insert keeps the draft for another attempt.
func (c *Controller) Submit(ctx context.Context) (Result, error) {
	c.mu.Lock()
	switch c.state {
	case Submitting:
		c.mu.Unlock()
		return Result{}, ErrBusy
	case Saved:
		c.mu.Unlock()
		return Result{}, ErrNotEditable
	}

	draft := c.draft
	if err := draft.Validate(); err != nil {
		c.mu.Unlock()
		c.reporter.Report(Notice{Level: LevelError, Title: "Error", Message: "Please enter a name and location"})
		return Result{}, err
	}
	category, err := draft.Category()
	if err != nil {
		c.mu.Unlock()
		return Result{}, &ValidationError{Fields: []string{"category"}}
	}

	var imageURL *string
	if draft.Photo != nil && c.uploadedURL != "" && *draft.Photo == c.uploaded {
		url := c.uploadedURL
		imageURL = &url
	}

	c.state = Submitting
	c.uploading = draft.Photo != nil && imageURL == nil && c.attacher != nil
	requestID := c.requestID
	c.mu.Unlock()

	var result Result
	if draft.Photo != nil && imageURL == nil && c.attacher != nil {
		url, err := c.attacher.Attach(ctx, *draft.Photo)
		if err != nil {
			slog.Warn("saving item without photo", "name", draft.Name, "error", err)
			result.UploadErr = err
			c.reporter.Report(Notice{
				Level:   LevelWarning,
				Title:   "Upload Error",
				Message: "Failed to upload image. Item will be saved without photo.",
			})
		}
		c.mu.Lock()
		c.uploading = false
		if err == nil {
			imageURL = &url
			c.uploaded, c.uploadedURL = *draft.Photo, url
		}
		c.mu.Unlock()
	}

	item, err := c.gateway.Insert(ctx, model.Record{
		Name:       strings.TrimSpace(draft.Name),
		Category:   category,
		Location:   strings.TrimSpace(draft.Location),
		ExpiryDate: draft.Expiry,
		ImageURL:   imageURL,
		RequestID:  requestID,
	})
	if err != nil {
		slog.Error("saving item", "name", draft.Name, "request_id", requestID, "error", err)
		saveErr := &SaveError{Err: err}
		c.mu.Lock()
		c.state = SaveFailed
		c.lastErr = saveErr
		c.mu.Unlock()
		c.reporter.Report(Notice{Level: LevelError, Title: "Error", Message: err.Error()})
		return result, saveErr
	}

	c.mu.Lock()
	c.state = Saved
	c.lastErr = nil
	c.draft = Draft{}
	c.uploaded, c.uploadedURL = media.Image{}, ""
	c.mu.Unlock()

	slog.Info("item added", "id", item.ID, "name", item.Name, "category", item.Category)
	c.reporter.Report(Notice{Level: LevelSuccess, Title: "Success", Message: "Item added!"})
	if c.onSaved != nil {
		c.onSaved(item)
	}

	result.Item = item
	return result, nil
}

// Reset discards the draft and starts a new add flow. It fails while a
// save is running.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Submitting {
		return ErrBusy
	}
	c.state = Editing
	c.uploading = false
	c.lastErr = nil
	c.draft = c.blankDraft()
	c.requestID = uuid.NewString()
	c.uploaded, c.uploadedURL = media.Image{}, ""
	return nil
}
