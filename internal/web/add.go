package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/zaloga/internal/device"
	"github.com/erazemk/zaloga/internal/form"
	"github.com/erazemk/zaloga/internal/media"
	"github.com/erazemk/zaloga/internal/model"
)

// maxAddForm bounds an add-item submission: two photos plus fields.
const maxAddForm = 2*device.MaxUploadSize + 1<<20

// Add form actions. Any other action only keeps the edits.
const (
	actionSave        = "save"
	actionRemovePhoto = "remove-photo"
)

type addPage struct {
	PageData
	Draft         form.Draft
	Uploading     bool
	Failed        bool
	Roots         []model.Root
	SubCategories []model.SubCategory
	RootFood      model.Root
}

// AddPage handles GET /add.
func (s *Server) AddPage(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r.Context())
	restart(ws)

	s.Templates.Render(w, "add.html", &addPage{
		PageData:      pageData(r, "Add item"),
		Draft:         ws.Form.Draft(),
		Uploading:     ws.Form.Uploading(),
		Failed:        ws.Form.State() == form.SaveFailed,
		Roots:         model.Roots,
		SubCategories: model.SubCategories,
		RootFood:      model.RootFood,
	})
}

// AddSubmit handles POST /add. Every submission copies the fields into the
// draft and attaches any picked photo. The action then saves the draft,
// removes the photo or only keeps the edits.
func (s *Server) AddSubmit(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r.Context())
	restart(ws)

	r.Body = http.MaxBytesReader(w, r.Body, maxAddForm)
	if err := r.ParseMultipartForm(8 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		ws.Report(form.Notice{Level: form.LevelError, Title: "Error", Message: "The form could not be read."})
		http.Redirect(w, r, "/add", http.StatusSeeOther)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	err := ws.Form.Fill(form.Input{
		Name:     r.FormValue("name"),
		Category: r.FormValue("category"),
		Sub:      r.FormValue("sub_category"),
		Location: r.FormValue("location"),
		Expiry:   r.FormValue("expiry_date"),
	})
	if err != nil {
		reportFormError(ws, err)
		http.Redirect(w, r, "/add", http.StatusSeeOther)
		return
	}

	if err := s.attachPhotos(r, ws); err != nil {
		reportFormError(ws, err)
		http.Redirect(w, r, "/add", http.StatusSeeOther)
		return
	}

	switch r.FormValue("action") {
	case actionRemovePhoto:
		if err := ws.Form.RemovePhoto(); err != nil {
			reportFormError(ws, err)
		}
	case actionSave:
		if _, err := ws.Form.Submit(r.Context()); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		} else if errors.Is(err, form.ErrBusy) || errors.Is(err, form.ErrNotEditable) {
			reportFormError(ws, err)
		}
	}
	http.Redirect(w, r, "/add", http.StatusSeeOther)
}

// attachPhotos hands the submitted files to the upload device and captures
// them. A camera shot wins over a gallery pick when both are sent.
func (s *Server) attachPhotos(r *http.Request, ws *Workspace) error {
	sources := []struct {
		field  string
		source media.Source
	}{
		{"photo", media.Gallery},
		{"camera", media.Camera},
	}
	for _, src := range sources {
		file, _, err := r.FormFile(src.field)
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			continue
		}
		if err != nil {
			return err
		}
		err = ws.Device.Add(src.source, file)
		file.Close()
		if err != nil {
			return err
		}
		err = ws.Form.Capture(r.Context(), ws.Device, src.source)
		if err != nil && !errors.Is(err, media.ErrCancelled) && !errors.Is(err, media.ErrPermissionDenied) {
			return err
		}
	}
	return nil
}

// PhotoPreview handles GET /add/photo and serves the photo attached to the
// draft.
func (s *Server) PhotoPreview(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r.Context())
	draft := ws.Form.Draft()
	if draft.Photo == nil {
		http.NotFound(w, r)
		return
	}

	data, err := ws.Device.ReadFile(r.Context(), *draft.Photo)
	if err != nil {
		slog.Warn("reading draft photo", "error", err)
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", media.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write photo preview", "error", err)
	}
}

// restart begins a new add flow once the previous one was saved.
func restart(ws *Workspace) {
	if ws.Form.State() == form.Saved {
		ws.Form.Reset()
	}
}

func reportFormError(ws *Workspace, err error) {
	var vErr *form.ValidationError
	msg := "The photo could not be used."
	switch {
	case errors.As(err, &vErr):
		msg = "Invalid value: " + strings.Join(vErr.Fields, ", ")
	case errors.Is(err, form.ErrBusy):
		msg = "The item is still being saved."
	case errors.Is(err, form.ErrNotEditable):
		msg = "The item was already saved."
	default:
		slog.Warn("add form input rejected", "error", err)
	}
	ws.Report(form.Notice{Level: form.LevelError, Title: "Error", Message: msg})
}
