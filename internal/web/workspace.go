package web

import (
	"log/slog"
	"sync"

	"github.com/erazemk/zaloga/internal/dashboard"
	"github.com/erazemk/zaloga/internal/device"
	"github.com/erazemk/zaloga/internal/form"
	"github.com/erazemk/zaloga/internal/media"
	"github.com/erazemk/zaloga/internal/session"
)

// Workspace is the per-session state of the web UI: the add flow in
// progress, the dashboard with its expanded rows and the photos picked in
// the browser.
type Workspace struct {
	Form      *form.Controller
	Dashboard *dashboard.Presenter
	Device    *device.Upload

	mu      sync.Mutex
	notices []form.Notice
}

// Report queues a notice for the next rendered page.
func (ws *Workspace) Report(n form.Notice) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.notices = append(ws.notices, n)
}

// Notices returns the queued notices and clears the queue.
func (ws *Workspace) Notices() []form.Notice {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	n := ws.notices
	ws.notices = nil
	return n
}

// newWorkspace builds the workspace of sess and releases it when the
// session ends.
func (s *Server) newWorkspace(sess *session.Session) *Workspace {
	dev := device.NewUpload(s.spool)
	ws := &Workspace{
		Dashboard: dashboard.New(s.gateway),
		Device:    dev,
	}
	ws.Form = form.New(s.gateway, media.NewPipeline(dev, s.bucket), form.WithReporter(ws))

	updates, _ := sess.Subscribe()
	go func() {
		var last session.State
		for st := range updates {
			last = st
		}
		if err := ws.Form.Reset(); err != nil {
			slog.Warn("session ended during save", "user", last.Username, "error", err)
		}
		ws.Device.Close()
		slog.Debug("session ended", "user", last.Username)
	}()
	return ws
}
