package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/session"
	"github.com/erazemk/zaloga/internal/store"
)

type webContextKey string

const (
	webSessionKey   webContextKey = "websession"
	webWorkspaceKey webContextKey = "webworkspace"
)

const cookieName = "token"

// CookieAuthMiddleware validates the JWT from the cookie, checks token
// revocation and attaches the session and its workspace to the context.
// A token without a live session, for example after a restart, opens a
// new one if the user still exists.
func (s *Server) CookieAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(cookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		claims, err := auth.ValidateToken(s.jwtSecret, cookie.Value)
		if err != nil {
			clearAuthCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		revoked, err := store.IsTokenRevoked(r.Context(), s.db, claims.ID)
		if err != nil {
			slog.Error("failed to check token revocation", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if revoked {
			clearAuthCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		sess, ws, ok := s.sessions.Get(claims.ID)
		if !ok {
			user, err := store.GetUser(r.Context(), s.db, claims.UserID)
			if err != nil {
				slog.Error("failed to look up session user", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if user == nil || user.DeletedAt != nil {
				clearAuthCookie(w)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			st := claims.State()
			st.Role = user.Role
			sess, ws = s.sessions.Open(st)
		}
		sess.Update(func(st *session.State) { st.LastSeen = time.Now() })

		ctx := context.WithValue(r.Context(), webSessionKey, sess)
		ctx = context.WithValue(ctx, webWorkspaceKey, ws)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole rejects users below the minimum role.
func requireRole(minimum string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := GetSession(r.Context())
		if sess == nil || !model.RoleAtLeast(sess.Current().Role, minimum) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// setAuthCookie stores the token for the lifetime of the token.
func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.TokenExpiry / time.Second),
	})
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetSession retrieves the session from web context.
func GetSession(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(webSessionKey).(*session.Session)
	return sess
}

// GetWorkspace retrieves the session workspace from web context.
func GetWorkspace(ctx context.Context) *Workspace {
	ws, _ := ctx.Value(webWorkspaceKey).(*Workspace)
	return ws
}

// pageData returns the base page data for an authenticated request. The
// workspace notices are consumed.
func pageData(r *http.Request, title string) PageData {
	pd := PageData{Title: title}
	if sess := GetSession(r.Context()); sess != nil {
		st := sess.Current()
		pd.User = &st
	}
	if ws := GetWorkspace(r.Context()); ws != nil {
		pd.Notices = ws.Notices()
	}
	return pd
}
