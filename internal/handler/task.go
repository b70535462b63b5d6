package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mlanden/task-manager/internal/apperror"
	"github.com/mlanden/task-manager/internal/auth"
	"github.com/mlanden/task-manager/internal/service"
)

// TaskHandler exposes task CRUD. Every endpoint takes the owner from the
// authenticated identity; a task ID in the URL is never enough on its own.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// taskFields is the PATCH /tasks/{id} allow-list.
var taskFields = map[string]bool{
	"description": true,
	"completed":   true,
}

// HandleCreate saves a new task for the authenticated user.
//
// POST /tasks
// Body: {"description": "...", "completed": false}
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	var req struct {
		Description string `json:"description"`
		Completed   bool   `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	task, err := h.tasks.Create(r.Context(), identity.User.ID, req.Description, req.Completed)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// HandleList returns the authenticated user's tasks.
//
// GET /tasks?completed=true&sortBy=createdAt:desc&limit=10&skip=0
//
// completed filters when present and parseable; limit and skip fall back to
// their defaults when absent or non-numeric; a bad sortBy is a 400.
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	query := r.URL.Query()

	var completed *bool
	if raw := query.Get("completed"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			completed = &value
		}
	}

	limit := intQueryParam(query.Get("limit"), 0)
	skip := intQueryParam(query.Get("skip"), 0)

	tasks, err := h.tasks.List(r.Context(), identity.User.ID, completed, query.Get("sortBy"), limit, skip)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// HandleGet returns one of the authenticated user's tasks.
//
// GET /tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	task, err := h.tasks.Get(r.Context(), identity.User.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleUpdate applies a partial update to one of the user's tasks.
//
// PATCH /tasks/{id}
// Body: any subset of {"description", "completed"}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	fields, err := decodeAllowListed(r, taskFields)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch service.TaskPatch
	if err := unmarshalField(fields, "description", &patch.Description); err != nil {
		writeError(w, err)
		return
	}
	if err := unmarshalField(fields, "completed", &patch.Completed); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), identity.User.ID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// HandleDelete removes one of the user's tasks and returns its last state.
//
// DELETE /tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	task, err := h.tasks.Delete(r.Context(), identity.User.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// intQueryParam parses a numeric query parameter, falling back to def when
// the value is absent or not a number.
func intQueryParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
