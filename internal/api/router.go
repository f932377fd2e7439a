package api

import (
	"net/http"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/device"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/storage"
	"github.com/erazemk/zaloga/internal/store"
)

// Sessions ends live web sessions when tokens are revoked or users removed.
type Sessions interface {
	End(tokenID string)
	EndUser(userID int64) int
}

// Config holds the router dependencies.
type Config struct {
	DB        *db.DB
	JWTSecret string
	Bucket    storage.Bucket
	Spool     *device.Spool
	// Sessions is optional.
	Sessions Sessions
	// LoginLimiter throttles login attempts per client. A default limiter
	// is used when nil.
	LoginLimiter *RateLimiter
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	mux := http.NewServeMux()

	limiter := cfg.LoginLimiter
	if limiter == nil {
		limiter = NewRateLimiter(10, 5)
	}

	authHandler := &AuthHandler{DB: cfg.DB, JWTSecret: cfg.JWTSecret, Sessions: cfg.Sessions}
	usersHandler := &UsersHandler{DB: cfg.DB, Sessions: cfg.Sessions}
	itemsHandler := &ItemsHandler{Gateway: store.NewGateway(cfg.DB), Bucket: cfg.Bucket, Spool: cfg.Spool}
	mediaHandler := &MediaHandler{DB: cfg.DB}

	authMW := AuthMiddleware(cfg.JWTSecret, cfg.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireMember := RequireRole(model.RoleMember)

	// Public: login and stored photos.
	mux.Handle("POST /api/auth/login", limiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("GET /media/{bucket}/{name}", mediaHandler.Get)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items: read (all roles), add (member+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireMember(http.HandlerFunc(itemsHandler.Create))))

	return mux
}
