package http

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"log/slog"

	"foyer/internal/idp"
	"foyer/internal/metrics"
	"foyer/internal/prefs"
	"foyer/internal/session"
	"foyer/internal/tasks"
)

//go:embed templates/*.html
var templatesFS embed.FS

// PagesHandler renders the server-side pages: the public landing page
// and the session-gated dashboard, plus the dashboard's form posts.
type PagesHandler struct {
	checker      session.Checker
	prefsService *prefs.Service
	taskService  *tasks.Service
	recorder     metrics.Recorder
	checkTimeout time.Duration
	ssoEnabled   bool
	templates    *template.Template
	logger       *slog.Logger
}

// NewPagesHandler parses the embedded templates and creates a handler.
func NewPagesHandler(checker session.Checker, prefsService *prefs.Service, taskService *tasks.Service, recorder metrics.Recorder, checkTimeout time.Duration, ssoEnabled bool, logger *slog.Logger) (*PagesHandler, error) {
	parsed, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &PagesHandler{
		checker:      checker,
		prefsService: prefsService,
		taskService:  taskService,
		recorder:     recorder,
		checkTimeout: checkTimeout,
		ssoEnabled:   ssoEnabled,
		templates:    parsed,
		logger:       logger,
	}, nil
}

type landingPageData struct {
	Form          string
	Error         string
	SSOEnabled    bool
	Authenticated bool
	SampleTasks   []tasks.Task
}

type dashboardPageData struct {
	User        *idp.Identity
	Preferences prefs.Preferences
	Tasks       []tasks.Task
	Error       string
}

// Landing handles GET /. The page is public; an already-authenticated
// visitor gets a link to the dashboard instead of the sign-in forms.
func (h *PagesHandler) Landing(w http.ResponseWriter, r *http.Request) {
	snap := h.resolve(r)

	sample, err := h.taskService.ListSample(r.Context())
	if err != nil {
		h.logger.Error("list sample tasks for landing", "error", err)
		sample = nil
	}

	data := landingPageData{
		Form:          r.URL.Query().Get("form"),
		Error:         r.URL.Query().Get("error"),
		SSOEnabled:    h.ssoEnabled,
		Authenticated: snap.State == session.StateAuthenticated,
		SampleTasks:   sample,
	}
	if data.Form == "" {
		data.Form = "signin"
	}

	h.render(w, "landing.html", data)
}

// Dashboard handles GET /dashboard. Anything short of Authenticated is
// sent back to the landing page.
func (h *PagesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	stored, err := h.prefsService.Get(r.Context(), identity.ID)
	if err != nil {
		h.logger.Error("load preferences for dashboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	current := prefs.Defaults(identity.ID)
	if stored != nil {
		current = *stored
	}

	list, err := h.taskService.List(r.Context(), identity.ID)
	if err != nil {
		h.logger.Error("load tasks for dashboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	h.render(w, "dashboard.html", dashboardPageData{
		User:        identity,
		Preferences: current,
		Tasks:       list,
		Error:       r.URL.Query().Get("error"),
	})
}

// UpdatePreferences handles POST /dashboard/preferences.
func (h *PagesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.redirectBack(w, r, "invalid form submission")
		return
	}

	theme := prefs.Theme(r.PostFormValue("theme"))
	notifications := r.PostFormValue("notifications") == "on"
	language := r.PostFormValue("language")

	input := prefs.UpdateInput{
		Theme:         &theme,
		Notifications: &notifications,
		Language:      &language,
	}
	if _, err := h.prefsService.Update(r.Context(), identity.ID, input); err != nil {
		h.logger.Warn("dashboard preferences update rejected", "error", err)
		h.redirectBack(w, r, err.Error())
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// CreateTask handles POST /dashboard/tasks.
func (h *PagesHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.redirectBack(w, r, "invalid form submission")
		return
	}

	if _, err := h.taskService.Create(r.Context(), identity.ID, r.PostFormValue("text")); err != nil {
		h.logger.Warn("dashboard task create rejected", "error", err)
		h.redirectBack(w, r, err.Error())
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ToggleTask handles POST /dashboard/tasks/{id}/toggle. The form carries
// the target completion state so the post stays idempotent.
func (h *PagesHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.redirectBack(w, r, "invalid form submission")
		return
	}
	completed := r.PostFormValue("completed") == "true"

	if _, err := h.taskService.SetCompleted(r.Context(), identity.ID, id, completed); err != nil {
		h.logger.Warn("dashboard task toggle rejected", "error", err)
		h.redirectBack(w, r, "task not found")
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// DeleteTask handles POST /dashboard/tasks/{id}/delete.
func (h *PagesHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), identity.ID, id); err != nil {
		h.logger.Warn("dashboard task delete rejected", "error", err)
		h.redirectBack(w, r, "task not found")
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *PagesHandler) resolve(r *http.Request) session.Snapshot {
	token := sessionTokenFromRequest(r)
	snap := session.Resolve(r.Context(), h.checker, token, h.checkTimeout)
	h.recorder.RecordSessionCheck(string(snap.State))
	return snap
}

// requireIdentity resolves the session and redirects to the landing page
// when the visitor is not authenticated.
func (h *PagesHandler) requireIdentity(w http.ResponseWriter, r *http.Request) (*idp.Identity, bool) {
	snap := h.resolve(r)
	if snap.State != session.StateAuthenticated {
		http.Redirect(w, r, "/", http.StatusFound)
		return nil, false
	}
	return snap.Identity, true
}

func (h *PagesHandler) redirectBack(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, "/dashboard?error="+url.QueryEscape(message), http.StatusSeeOther)
}

func (h *PagesHandler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("render template", "template", name, "error", err)
	}
}
