package http

import (
	"errors"
	"io"
	"net/http"

	"log/slog"

	"foyer/internal/lifecycle"
	"foyer/internal/metrics"
)

const maxWebhookBodyBytes int64 = 256 << 10

// WebhookHandler receives lifecycle events from the identity provider.
// Deliveries are signed and retried at-least-once; the processor's
// ledger turns that into effectively-once side effects.
type WebhookHandler struct {
	verifier  *lifecycle.Verifier
	processor *lifecycle.Processor
	recorder  metrics.Recorder
	logger    *slog.Logger
}

// NewWebhookHandler creates a handler.
func NewWebhookHandler(verifier *lifecycle.Verifier, processor *lifecycle.Processor, recorder metrics.Recorder, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, processor: processor, recorder: recorder, logger: logger}
}

// Receive handles POST /webhooks/identity. A 5xx response makes the
// provider redeliver, so processing failures must not return 2xx.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	err = h.verifier.Verify(
		r.Header.Get(lifecycle.HeaderMessageID),
		r.Header.Get(lifecycle.HeaderTimestamp),
		r.Header.Get(lifecycle.HeaderSignature),
		body,
	)
	if err != nil {
		h.logger.Warn("webhook signature rejected", "error", err)
		h.recorder.RecordWebhookEvent("unknown", "rejected")
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	event, err := lifecycle.ParseEvent(body)
	if err != nil {
		if errors.Is(err, lifecycle.ErrMalformedEvent) {
			h.recorder.RecordWebhookEvent("unknown", "malformed")
			writeError(w, http.StatusBadRequest, "malformed event")
			return
		}
		h.logger.Error("webhook parse failed", "error", err)
		writeError(w, http.StatusInternalServerError, "unexpected error")
		return
	}

	if err := h.processor.Process(r.Context(), event); err != nil {
		h.logger.Error("webhook processing failed", "error", err, "event_id", event.ID, "type", event.Type)
		h.recorder.RecordWebhookEvent(event.Type, "failed")
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	h.recorder.RecordWebhookEvent(event.Type, "processed")
	w.WriteHeader(http.StatusNoContent)
}
