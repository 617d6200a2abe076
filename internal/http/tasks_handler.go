package http

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"foyer/internal/exporter"
	"foyer/internal/tasks"
)

// TasksHandler exposes task CRUD endpoints scoped to the caller's
// identity, plus the public sample list and the CSV export.
type TasksHandler struct {
	service  *tasks.Service
	exporter *exporter.CSVExporter
	logger   *slog.Logger
}

// NewTasksHandler creates a handler.
func NewTasksHandler(service *tasks.Service, csvExporter *exporter.CSVExporter, logger *slog.Logger) *TasksHandler {
	return &TasksHandler{service: service, exporter: csvExporter, logger: logger}
}

// List handles GET /api/tasks.
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	list, err := h.service.List(r.Context(), identity.ID)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": list})
}

// Create handles POST /api/tasks.
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	task, err := h.service.Create(r.Context(), identity.ID, payload.Text)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// Update handles PATCH /api/tasks/{id}. Only the completion flag is
// mutable; task text is written once.
func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var payload struct {
		IsCompleted bool `json:"isCompleted"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	task, err := h.service.SetCompleted(r.Context(), identity.ID, id, payload.IsCompleted)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), identity.ID, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/tasks/export, streaming the caller's tasks as
// a CSV download.
func (h *TasksHandler) Export(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	list, err := h.service.List(r.Context(), identity.ID)
	if err != nil {
		h.logger.Error("export tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export tasks")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks.csv"`)
	if err := h.exporter.Export(w, list); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("write csv export", "error", err)
	}
}

// Sample handles GET /demo/tasks, the public demo data route.
func (h *TasksHandler) Sample(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListSample(r.Context())
	if err != nil {
		h.logger.Error("list sample tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sample tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": list})
}

func (h *TasksHandler) handleServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, tasks.ErrNotFound) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	if errors.Is(err, tasks.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("task service error", "error", err)
	writeError(w, http.StatusInternalServerError, "unexpected error")
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	value := chi.URLParam(r, key)
	id, err := uuid.Parse(value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
