package http

import (
	"errors"
	"net/http"

	"log/slog"

	"foyer/internal/prefs"
)

// PrefsHandler exposes the current user's preferences.
type PrefsHandler struct {
	service *prefs.Service
	logger  *slog.Logger
}

// NewPrefsHandler creates a handler.
func NewPrefsHandler(service *prefs.Service, logger *slog.Logger) *PrefsHandler {
	return &PrefsHandler{service: service, logger: logger}
}

// Get handles GET /api/preferences. Preferences stay null until the
// create-hook or the first write has run.
func (h *PrefsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	stored, err := h.service.Get(r.Context(), identity.ID)
	if err != nil {
		h.logger.Error("get preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":        identity,
		"preferences": stored,
	})
}

// Update handles PATCH /api/preferences with upsert semantics.
func (h *PrefsHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	var payload struct {
		Theme         *string `json:"theme"`
		Notifications *bool   `json:"notifications"`
		Language      *string `json:"language"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	input := prefs.UpdateInput{
		Notifications: payload.Notifications,
		Language:      payload.Language,
	}
	if payload.Theme != nil {
		theme := prefs.Theme(*payload.Theme)
		input.Theme = &theme
	}

	stored, err := h.service.Update(r.Context(), identity.ID, input)
	if err != nil {
		if errors.Is(err, prefs.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("update preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update preferences")
		return
	}

	writeJSON(w, http.StatusOK, stored)
}
