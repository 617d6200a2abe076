package http

import (
	"net/http"
	"time"

	"foyer/internal/idp"
	"foyer/internal/metrics"
	"foyer/internal/session"
)

// SessionHandler reports the resolved session projection. The route is
// public: an unauthenticated caller simply sees state "unauthenticated".
type SessionHandler struct {
	checker  session.Checker
	timeout  time.Duration
	recorder metrics.Recorder
}

// NewSessionHandler creates a handler.
func NewSessionHandler(checker session.Checker, timeout time.Duration, recorder metrics.Recorder) *SessionHandler {
	return &SessionHandler{checker: checker, timeout: timeout, recorder: recorder}
}

type sessionResponse struct {
	State     string        `json:"state"`
	User      *idp.Identity `json:"user,omitempty"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// Current handles GET /api/session.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	snap := session.Resolve(r.Context(), h.checker, sessionTokenFromRequest(r), h.timeout)
	h.recorder.RecordSessionCheck(string(snap.State))

	writeJSON(w, http.StatusOK, sessionResponse{
		State:     string(snap.State),
		User:      snap.Identity,
		CheckedAt: snap.CheckedAt,
	})
}
