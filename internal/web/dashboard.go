package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/erazemk/zaloga/internal/dashboard"
)

type dashboardPage struct {
	PageData
	Rows         []dashboard.Row
	Empty        bool
	Stale        bool
	Loaded       bool
	EmptyMessage string
}

// Dashboard handles GET /. The list is refreshed on every visit. When the
// refresh fails the last list is shown with a retry link.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r.Context())
	ws.Dashboard.Activate(r.Context())

	s.Templates.Render(w, "dashboard.html", &dashboardPage{
		PageData:     pageData(r, "Inventory"),
		Rows:         ws.Dashboard.Rows(),
		Empty:        ws.Dashboard.Empty(),
		Stale:        ws.Dashboard.Stale(),
		Loaded:       ws.Dashboard.Loaded(),
		EmptyMessage: dashboard.EmptyMessage,
	})
}

// ToggleSubmit handles POST /items/{id}/toggle.
func (s *Server) ToggleSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	GetWorkspace(r.Context()).Dashboard.Toggle(id)
	http.Redirect(w, r, fmt.Sprintf("/#item-%d", id), http.StatusSeeOther)
}
