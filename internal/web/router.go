package web

import (
	"net/http"
	"time"

	"github.com/erazemk/zaloga/internal/api"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/device"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/session"
	"github.com/erazemk/zaloga/internal/storage"
	"github.com/erazemk/zaloga/internal/store"
	webembed "github.com/erazemk/zaloga/web"
)

// Session registry limits.
const (
	MaxSessions = 256
	SessionTTL  = 24 * time.Hour
)

// Config holds the web server dependencies.
type Config struct {
	DB        *db.DB
	JWTSecret string
	Bucket    storage.Bucket
	Spool     *device.Spool
	// LoginLimiter throttles login attempts per client. A default limiter
	// is used when nil.
	LoginLimiter *api.RateLimiter
}

// Server holds all dependencies for page handlers.
type Server struct {
	Templates *Templates

	db        *db.DB
	jwtSecret string
	gateway   *store.Gateway
	bucket    storage.Bucket
	spool     *device.Spool
	sessions  *session.Registry[*Workspace]
	limiter   *api.RateLimiter
}

// NewServer loads the templates and creates an empty session registry.
func NewServer(cfg Config) (*Server, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Templates: templates,
		db:        cfg.DB,
		jwtSecret: cfg.JWTSecret,
		gateway:   store.NewGateway(cfg.DB),
		bucket:    cfg.Bucket,
		spool:     cfg.Spool,
		limiter:   cfg.LoginLimiter,
	}
	if s.limiter == nil {
		s.limiter = api.NewRateLimiter(10, 5)
	}
	s.sessions = session.NewRegistry(MaxSessions, SessionTTL, s.newWorkspace)
	return s, nil
}

// Sessions returns the live web sessions.
func (s *Server) Sessions() *session.Registry[*Workspace] {
	return s.sessions
}

// Handler returns the page router with all page routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	cookieAuth := s.CookieAuthMiddleware
	auth := func(h http.HandlerFunc) http.Handler { return cookieAuth(h) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.Handle("POST /login", s.limiter.Middleware(http.HandlerFunc(s.LoginSubmit)))
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", auth(s.Dashboard))
	mux.Handle("POST /items/{id}/toggle", auth(s.ToggleSubmit))

	mux.Handle("GET /add", auth(requireRole(model.RoleMember, s.AddPage)))
	mux.Handle("POST /add", auth(requireRole(model.RoleMember, s.AddSubmit)))
	mux.Handle("GET /add/photo", auth(requireRole(model.RoleMember, s.PhotoPreview)))

	mux.Handle("GET /users", auth(requireRole(model.RoleAdmin, s.UsersPage)))
	mux.Handle("POST /users", auth(requireRole(model.RoleAdmin, s.UserCreateSubmit)))
	mux.Handle("POST /users/{id}/password", auth(requireRole(model.RoleAdmin, s.UserResetPasswordSubmit)))
	mux.Handle("POST /users/{id}/delete", auth(requireRole(model.RoleAdmin, s.UserDeleteSubmit)))

	mux.Handle("GET /settings", auth(s.SettingsPage))
	mux.Handle("POST /settings", auth(s.SettingsSubmit))

	return mux
}
