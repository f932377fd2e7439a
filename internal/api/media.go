package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/store"
)

// MediaHandler serves photos kept in the objects table.
type MediaHandler struct {
	DB *db.DB
}

// Get handles GET /media/{bucket}/{name}. Objects are public and never
// change once written.
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	obj, err := store.GetObject(r.Context(), h.DB, r.PathValue("bucket"), r.PathValue("name"))
	if err != nil {
		slog.Error("failed to get object", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if obj == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := w.Write(obj.Data); err != nil {
		slog.Error("failed to write object response", "error", err)
	}
}
