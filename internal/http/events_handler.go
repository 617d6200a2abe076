package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"foyer/internal/idp"
	"foyer/internal/metrics"
	"foyer/internal/session"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 4 << 10
)

// EventsHandler streams the session projection over a WebSocket. Each
// connection gets its own Coordinator registered with the hub, so a
// sign-out in any tab pushes Unauthenticated to every open stream of
// that session. Clients may also request a re-evaluation (the focus /
// storage-change triggers), rate-limited per connection.
type EventsHandler struct {
	checker         session.Checker
	hub             *session.Hub
	recorder        metrics.Recorder
	logger          *slog.Logger
	checkTimeout    time.Duration
	refreshInterval time.Duration
	upgrader        websocket.Upgrader
}

// NewEventsHandler creates a handler.
func NewEventsHandler(checker session.Checker, hub *session.Hub, recorder metrics.Recorder, checkTimeout, refreshInterval time.Duration, allowedOrigins []string, logger *slog.Logger) *EventsHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &EventsHandler{
		checker:         checker,
		hub:             hub,
		recorder:        recorder,
		logger:          logger,
		checkTimeout:    checkTimeout,
		refreshInterval: refreshInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

type eventsClientMessage struct {
	Type string `json:"type"`
}

type eventsServerMessage struct {
	Type      string        `json:"type"`
	State     string        `json:"state,omitempty"`
	User      *idp.Identity `json:"user,omitempty"`
	CheckedAt time.Time     `json:"checkedAt,omitzero"`
}

// Serve handles GET /api/auth/events.
func (h *EventsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := sessionTokenFromRequest(r)

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		return
	}
	defer func() { _ = ws.Close() }()

	h.recorder.StreamOpened()
	defer h.recorder.StreamClosed()

	coordinator := session.NewCoordinator(h.checker,
		session.WithToken(token),
		session.WithCheckTimeout(h.checkTimeout),
	)
	if token != "" {
		key := session.TokenKey(token)
		h.hub.Register(key, coordinator)
		defer h.hub.Unregister(key, coordinator)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots, unsubscribe := coordinator.Subscribe()
	defer unsubscribe()

	go h.writePump(ctx, ws, coordinator, snapshots)

	go coordinator.Refresh(ctx)

	h.readPump(ctx, ws, coordinator)
}

// writePump owns all writes on the connection: snapshot updates, the
// periodic re-evaluation trigger, and keepalive pings.
func (h *EventsHandler) writePump(ctx context.Context, ws *websocket.Conn, coordinator *session.Coordinator, snapshots <-chan session.Snapshot) {
	pingTicker := time.NewTicker(wsPingPeriod)
	defer pingTicker.Stop()
	refreshTicker := time.NewTicker(h.refreshInterval)
	defer refreshTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			message := eventsServerMessage{
				Type:      "session",
				State:     string(snap.State),
				CheckedAt: snap.CheckedAt,
			}
			if snap.State == session.StateAuthenticated {
				message.User = snap.Identity
			}
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteJSON(message); err != nil {
				_ = ws.Close()
				return
			}
		case <-refreshTicker.C:
			// Refresh blocks up to the check timeout; keep it off the
			// write path. Overlapping checks are resolved by the
			// coordinator's sequence guard.
			go coordinator.Refresh(ctx)
		case <-pingTicker.C:
			deadline := time.Now().Add(wsWriteWait)
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				_ = ws.Close()
				return
			}
		}
	}
}

// readPump consumes client messages until the connection drops. The
// only recognized message asks for a re-evaluation.
func (h *EventsHandler) readPump(ctx context.Context, ws *websocket.Conn, coordinator *session.Coordinator) {
	limiter := rate.NewLimiter(rate.Every(2*time.Second), 3)

	ws.SetReadLimit(wsReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg eventsClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		if msg.Type == "refresh" && limiter.Allow() {
			go coordinator.Refresh(ctx)
		}
	}
}
