package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/zaloga/internal/dashboard"
	"github.com/erazemk/zaloga/internal/device"
	"github.com/erazemk/zaloga/internal/form"
	"github.com/erazemk/zaloga/internal/media"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/storage"
	"github.com/erazemk/zaloga/internal/store"
)

// maxItemForm bounds a multipart item submission: two photos plus fields.
const maxItemForm = 2*device.MaxUploadSize + 1<<20

// Photo form fields for the camera and the gallery.
var photoFields = []struct {
	field  string
	source media.Source
}{
	{"camera", media.Camera},
	{"photo", media.Gallery},
}

// ItemsHandler handles the inventory endpoints.
type ItemsHandler struct {
	Gateway *store.Gateway
	Bucket  storage.Bucket
	Spool   *device.Spool
}

type itemRow struct {
	model.Item
	DaysLeft int  `json:"days_left"`
	Expired  bool `json:"expired"`
}

type createItemResponse struct {
	Item        *model.Item `json:"item"`
	UploadError string      `json:"upload_error,omitempty"`
}

type validationResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

// List handles GET /api/items. Items are sorted by expiry date.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	p := dashboard.New(h.Gateway)
	if err := p.Activate(r.Context()); err != nil {
		jsonError(w, http.StatusBadGateway, "failed to list items")
		return
	}

	rows := p.Rows()
	out := make([]itemRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, itemRow{Item: row.Item, DaysLeft: row.DaysLeft, Expired: row.Expired})
	}
	jsonResponse(w, http.StatusOK, out)
}

// Create handles POST /api/items. The body is JSON, or multipart form
// data with optional "camera" and "photo" files. An Idempotency-Key header
// makes retries return the first item instead of adding another.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	dev := device.NewUpload(h.Spool)
	defer dev.Close()

	in, err := h.readInput(w, r, dev)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	var opts []form.Option
	if key := strings.TrimSpace(r.Header.Get("Idempotency-Key")); key != "" {
		opts = append(opts, form.WithRequestID(key))
	}
	c := form.New(h.Gateway, media.NewPipeline(dev, h.Bucket), opts...)

	if err := c.Fill(in); err != nil {
		writeFormError(w, err)
		return
	}
	if in.Expiry == "" {
		writeFormError(w, &form.ValidationError{Fields: []string{"expiry_date"}})
		return
	}
	if err := capturePhotos(r.Context(), c, dev); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid photo: "+err.Error())
		return
	}

	res, err := c.Submit(r.Context())
	if err != nil {
		writeFormError(w, err)
		return
	}

	resp := createItemResponse{Item: res.Item}
	if res.UploadErr != nil {
		resp.UploadError = "photo could not be stored; item saved without photo"
	}
	jsonResponse(w, http.StatusCreated, resp)
}

func (h *ItemsHandler) readInput(w http.ResponseWriter, r *http.Request, dev *device.Upload) (form.Input, error) {
	var in form.Input
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := decodeJSON(r, &in); err != nil {
			return in, errors.New("invalid request body")
		}
		return in, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxItemForm)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return in, errors.New("invalid form data")
	}
	defer r.MultipartForm.RemoveAll()

	in = form.Input{
		Name:     r.FormValue("name"),
		Category: r.FormValue("category"),
		Sub:      r.FormValue("sub_category"),
		Location: r.FormValue("location"),
		Expiry:   r.FormValue("expiry_date"),
	}
	for _, pf := range photoFields {
		file, _, err := r.FormFile(pf.field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return in, errors.New("invalid " + pf.field + " file")
		}
		err = dev.Add(pf.source, file)
		file.Close()
		if err != nil {
			return in, err
		}
	}
	return in, nil
}

// capturePhotos attaches the submitted photo. A camera shot wins over a
// gallery pick when both are sent.
func capturePhotos(ctx context.Context, c *form.Controller, dev media.Device) error {
	for i := len(photoFields) - 1; i >= 0; i-- {
		err := c.Capture(ctx, dev, photoFields[i].source)
		if err != nil && !errors.Is(err, media.ErrCancelled) {
			return err
		}
	}
	return nil
}

func writeFormError(w http.ResponseWriter, err error) {
	var vErr *form.ValidationError
	var saveErr *form.SaveError
	switch {
	case errors.As(err, &vErr):
		jsonResponse(w, http.StatusBadRequest, validationResponse{Error: vErr.Error(), Fields: vErr.Fields})
	case errors.As(err, &saveErr):
		jsonError(w, http.StatusBadGateway, "failed to save item")
	case errors.Is(err, form.ErrBusy), errors.Is(err, form.ErrNotEditable):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("adding item", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
