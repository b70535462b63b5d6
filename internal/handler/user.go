package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mlanden/task-manager/internal/apperror"
	"github.com/mlanden/task-manager/internal/auth"
	"github.com/mlanden/task-manager/internal/service"
)

// UserHandler exposes the profile and avatar endpoints.
type UserHandler struct {
	users          *service.UserService
	maxAvatarBytes int64
	logger         *slog.Logger
}

// NewUserHandler creates a UserHandler. maxAvatarBytes caps the multipart
// upload size before the bytes ever reach the service.
func NewUserHandler(users *service.UserService, maxAvatarBytes int64, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, maxAvatarBytes: maxAvatarBytes, logger: logger}
}

// profileFields is the PATCH /users/me allow-list. Any other key in the
// body is a validation error.
var profileFields = map[string]bool{
	"name":     true,
	"email":    true,
	"age":      true,
	"password": true,
}

// HandleMe returns the authenticated user's profile.
//
// GET /users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	writeJSON(w, http.StatusOK, identity.User)
}

// HandleUpdateMe applies a partial profile update.
//
// PATCH /users/me
// Body: any subset of {"name", "email", "age", "password"}
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	fields, err := decodeAllowListed(r, profileFields)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch service.ProfilePatch
	if err := unmarshalField(fields, "name", &patch.Name); err != nil {
		writeError(w, err)
		return
	}
	if err := unmarshalField(fields, "email", &patch.Email); err != nil {
		writeError(w, err)
		return
	}
	if err := unmarshalField(fields, "age", &patch.Age); err != nil {
		writeError(w, err)
		return
	}
	if err := unmarshalField(fields, "password", &patch.Password); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.users.Update(r.Context(), identity.User, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteMe removes the account and everything it owns.
//
// DELETE /users/me
func (h *UserHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	if err := h.users.Delete(r.Context(), identity.User); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, identity.User)
}

// HandleSetAvatar stores a profile picture uploaded as the multipart form
// field "avatar".
//
// POST /users/me/avatar
func (h *UserHandler) HandleSetAvatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	// Cap the whole request body; the extra kilobyte covers the multipart
	// framing around an image at the limit.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+1024)

	file, _, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, apperror.ValidationFailed("avatar", "avatar file field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperror.ValidationFailed("avatar", "could not read avatar upload"))
		return
	}

	if err := h.users.SetAvatar(r.Context(), identity.User, data); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "avatar updated"})
}

// HandleDeleteAvatar clears the stored profile picture.
//
// DELETE /users/me/avatar
func (h *UserHandler) HandleDeleteAvatar(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	if err := h.users.ClearAvatar(r.Context(), identity.User); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "avatar removed"})
}

// HandleGetAvatar serves any user's avatar by ID. This route is open; it
// returns raw image bytes, not JSON.
//
// GET /users/{id}/avatar
func (h *UserHandler) HandleGetAvatar(w http.ResponseWriter, r *http.Request) {
	data, err := h.users.Avatar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// unmarshalField decodes one allow-listed key into its typed destination,
// leaving dst nil when the key is absent. A present key of the wrong JSON
// type is a validation error.
func unmarshalField[T any](fields map[string]json.RawMessage, key string, dst **T) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return apperror.ValidationFailed(key, key+" has the wrong type")
	}
	*dst = &value
	return nil
}
