package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mlanden/task-manager/internal/apperror"
	"github.com/mlanden/task-manager/internal/auth"
	"github.com/mlanden/task-manager/internal/model"
	"github.com/mlanden/task-manager/internal/service"
)

// AuthHandler exposes registration, login, and the two logout endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// sessionResponse is the body for register and login: the user plus the
// freshly issued token. The user's hash and avatar never serialize.
type sessionResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// HandleRegister creates an account and its first session.
//
// POST /users
// Body: {"name": "...", "email": "...", "age": 36, "password": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Age      int    `json:"age"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	session, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Age, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{User: session.User, Token: session.Token})
}

// HandleLogin verifies credentials and issues an additional session token.
//
// POST /users/login
// Body: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{User: session.User, Token: session.Token})
}

// HandleLogout revokes exactly the session token this request
// authenticated with. Other sessions stay valid.
//
// POST /users/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	if err := h.auth.Logout(r.Context(), identity.User, identity.Token); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// HandleLogoutAll revokes every session token the user holds.
//
// POST /users/logoutAll
func (h *AuthHandler) HandleLogoutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	if err := h.auth.LogoutAll(r.Context(), identity.User); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out of all sessions"})
}
