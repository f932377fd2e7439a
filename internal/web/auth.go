package web

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zaloga/internal/api"
	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/store"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: "Sign in"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	fail := func(status int, msg string) {
		s.Templates.RenderStatus(w, status, "login.html", &PageData{Title: "Sign in", Error: msg})
	}

	if username == "" || password == "" {
		fail(http.StatusBadRequest, "Enter a username and password.")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), s.db, username)
	if err != nil {
		slog.Error("looking up user", "error", err)
		fail(http.StatusInternalServerError, "Sign in failed.")
		return
	}
	if user == nil {
		fail(http.StatusUnauthorized, "Wrong username or password.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login failed", "username", username, "remote", api.ClientIP(r))
		fail(http.StatusUnauthorized, "Wrong username or password.")
		return
	}

	token, err := auth.GenerateToken(s.jwtSecret, user.ID, user.Username, user.Role)
	if err != nil {
		slog.Error("generating token", "error", err)
		fail(http.StatusInternalServerError, "Sign in failed.")
		return
	}
	claims, err := auth.ValidateToken(s.jwtSecret, token)
	if err != nil {
		slog.Error("validating new token", "error", err)
		fail(http.StatusInternalServerError, "Sign in failed.")
		return
	}
	s.sessions.Open(claims.State())

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	setAuthCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. The token is revoked and the session with
// its unsaved draft is discarded.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.jwtSecret, cookie.Value); err == nil {
			if err := store.RevokeToken(r.Context(), s.db, claims.ID, claims.ExpiresAt.Time); err != nil {
				slog.Error("revoking token", "error", err)
			}
			s.sessions.End(claims.ID)
			slog.Info("user logged out", "user", claims.Username)
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
