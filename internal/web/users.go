package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/zaloga/internal/form"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

type usersPage struct {
	PageData
	Users []model.User
	Roles []string
}

// UsersPage handles GET /users (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), s.db)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	s.Templates.Render(w, "users.html", &usersPage{
		PageData: pageData(r, "Users"),
		Users:    users,
		Roles:    []string{model.RoleGuest, model.RoleMember, model.RoleAdmin},
	})
}

// UserCreateSubmit handles POST /users (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r.Context())
	username := r.FormValue("username")
	password := r.FormValue("password")
	role := r.FormValue("role")

	if username == "" || password == "" {
		notify(ws, form.LevelError, "Enter a username and password.")
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}
	if !model.ValidRole(role) {
		notify(ws, form.LevelError, "Unknown role.")
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		notify(ws, form.LevelError, err.Error())
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if _, err := store.CreateUser(r.Context(), s.db, username, string(hash), role); err != nil {
		slog.Error("failed to create user", "error", err)
		notify(ws, form.LevelError, "User could not be created. The username may be taken.")
	} else {
		slog.Info("user created", "user", username, "role", role)
		notify(ws, form.LevelSuccess, "User "+username+" created.")
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// UserResetPasswordSubmit handles POST /users/{id}/password (admin only).
// The user's open sessions are ended.
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		notify(ws, form.LevelError, err.Error())
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.db, id, string(hash)); err != nil {
		slog.Error("failed to reset password", "error", err)
		notify(ws, form.LevelError, "Password could not be changed.")
	} else {
		if id != GetSession(r.Context()).Current().UserID {
			s.sessions.EndUser(id)
		}
		notify(ws, form.LevelSuccess, "Password changed.")
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// UserDeleteSubmit handles POST /users/{id}/delete (admin only).
func (s *Server) UserDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	ws := GetWorkspace(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}
	if id == GetSession(r.Context()).Current().UserID {
		notify(ws, form.LevelError, "You cannot delete yourself.")
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	if err := store.DeleteUser(r.Context(), s.db, id); err != nil {
		slog.Error("failed to delete user", "error", err)
		notify(ws, form.LevelError, "User could not be deleted.")
	} else {
		n := s.sessions.EndUser(id)
		slog.Info("user deleted", "id", id, "sessions_ended", n)
		notify(ws, form.LevelSuccess, "User deleted.")
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	pd := pageData(r, "Settings")
	s.Templates.Render(w, "settings.html", &pd)
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	pd := pageData(r, "Settings")
	fail := func(status int, msg string) {
		pd.Error = msg
		s.Templates.RenderStatus(w, status, "settings.html", &pd)
	}

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" || newPassword == "" {
		fail(http.StatusBadRequest, "Enter your current and new password.")
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}

	user, err := store.GetUser(r.Context(), s.db, pd.User.UserID)
	if err != nil || user == nil {
		fail(http.StatusInternalServerError, "Could not load your account.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		fail(http.StatusBadRequest, "Current password is wrong.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		fail(http.StatusInternalServerError, "Could not save the password.")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.db, user.ID, string(hash)); err != nil {
		slog.Error("failed to update password", "error", err)
		fail(http.StatusInternalServerError, "Could not save the password.")
		return
	}

	pd.Success = "Password changed."
	s.Templates.Render(w, "settings.html", &pd)
}

func notify(ws *Workspace, level form.Level, msg string) {
	ws.Report(form.Notice{Level: level, Message: msg})
}
