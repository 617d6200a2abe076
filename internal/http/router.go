package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"foyer/internal/config"
	"foyer/internal/metrics"
	"foyer/internal/session"
)

// Handlers bundles everything the router mounts. SSO is nil when no
// provider client is configured; its routes are simply not registered.
type Handlers struct {
	Pages   *PagesHandler
	Auth    *AuthHandler
	SSO     *SSOHandler
	Session *SessionHandler
	Events  *EventsHandler
	Prefs   *PrefsHandler
	Tasks   *TasksHandler
	Webhook *WebhookHandler
	Metrics http.Handler

	Checker  session.Checker
	Recorder metrics.Recorder
}

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})
	r.Method(http.MethodGet, "/metrics", h.Metrics)

	// Pages.
	r.Get("/", h.Pages.Landing)
	r.Get("/dashboard", h.Pages.Dashboard)
	r.Post("/dashboard/preferences", h.Pages.UpdatePreferences)
	r.Post("/dashboard/tasks", h.Pages.CreateTask)
	r.Post("/dashboard/tasks/{id}/toggle", h.Pages.ToggleTask)
	r.Post("/dashboard/tasks/{id}/delete", h.Pages.DeleteTask)

	// Authentication endpoints accept JSON or form posts.
	r.Route("/auth", func(r chi.Router) {
		r.Post("/sign-up", h.Auth.SignUp)
		r.Post("/sign-in", h.Auth.SignIn)
		r.Post("/sign-out", h.Auth.SignOut)

		if h.SSO != nil {
			r.Get("/sso/start", h.SSO.Start)
			r.Get("/sso/callback", h.SSO.Callback)
		}
	})

	// Public demo data for the landing page teaser.
	r.Get("/demo/tasks", h.Tasks.Sample)

	// Signed lifecycle deliveries from the identity provider.
	r.Post("/webhooks/identity", h.Webhook.Receive)

	r.Route("/api", func(r chi.Router) {
		// Public: an anonymous caller sees state "unauthenticated".
		r.Get("/session", h.Session.Current)
		r.Get("/auth/events", h.Events.Serve)

		r.Group(func(r chi.Router) {
			r.Use(newSessionMiddleware(h.Checker, cfg.SessionCheckTimeout, h.Recorder))

			r.Route("/preferences", func(r chi.Router) {
				r.Get("/", h.Prefs.Get)
				r.Patch("/", h.Prefs.Update)
			})
			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.Tasks.List)
				r.Post("/", h.Tasks.Create)
				r.Get("/export", h.Tasks.Export)
				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", h.Tasks.Update)
					r.Delete("/", h.Tasks.Delete)
				})
			})
		})
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
