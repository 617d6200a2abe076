package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foyer/internal/config"
	"foyer/internal/exporter"
	"foyer/internal/idp"
	"foyer/internal/lifecycle"
	"foyer/internal/metrics"
	"foyer/internal/prefs"
	"foyer/internal/session"
	"foyer/internal/tasks"
)

// routerFixture wires the full router against in-memory repositories and
// a stubbed identity provider that recognizes a single token.
type routerFixture struct {
	handler http.Handler
	token   string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := metrics.Noop{}
	token := "tok-live"
	identity := &idp.Identity{ID: "user-1", Email: "ada@example.com", Name: "Ada"}

	client := &identityClientStub{
		signInFunc: func(context.Context, idp.SignInInput) (*idp.Credentials, error) {
			return &idp.Credentials{Token: token, Identity: *identity}, nil
		},
		signUpFunc: func(_ context.Context, input idp.SignUpInput) (*idp.Credentials, error) {
			return &idp.Credentials{Token: token, Identity: idp.Identity{ID: "user-1", Email: input.Email, Name: input.Name}}, nil
		},
		currentSessionFunc: func(_ context.Context, got string) (*idp.Identity, error) {
			if got == token {
				return identity, nil
			}
			return nil, nil
		},
	}

	cfg := config.Config{
		Environment:           "development",
		AllowedOrigins:        []string{"http://localhost:8080"},
		SessionCheckTimeout:   time.Second,
		SessionTTL:            time.Hour,
		StreamRefreshInterval: time.Minute,
	}

	hub := session.NewHub()
	cookies := NewCookieConfig(cfg.Environment, cfg.SessionTTL)
	prefsService := prefs.NewService(prefs.NewInMemoryRepository())
	tasksService := tasks.NewService(tasks.NewInMemoryRepository(nil))
	processor := lifecycle.NewProcessor(prefsService, tasksService, lifecycle.NewInMemoryLedger(), logger)

	pages, err := NewPagesHandler(client, prefsService, tasksService, recorder, cfg.SessionCheckTimeout, false, logger)
	if err != nil {
		t.Fatalf("build pages handler: %v", err)
	}

	handler := NewRouter(cfg, Handlers{
		Pages:    pages,
		Auth:     NewAuthHandler(client, hub, recorder, cookies, logger),
		Session:  NewSessionHandler(client, cfg.SessionCheckTimeout, recorder),
		Events:   NewEventsHandler(client, hub, recorder, cfg.SessionCheckTimeout, cfg.StreamRefreshInterval, cfg.AllowedOrigins, logger),
		Prefs:    NewPrefsHandler(prefsService, logger),
		Tasks:    NewTasksHandler(tasksService, exporter.NewCSVExporter(), logger),
		Webhook:  NewWebhookHandler(lifecycle.NewVerifier("whsec_test"), processor, recorder, logger),
		Metrics:  http.NotFoundHandler(),
		Checker:  client,
		Recorder: recorder,
	}, logger)

	return &routerFixture{handler: handler, token: token}
}

func (f *routerFixture) do(method, target, body string, authenticated bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: f.token})
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestLandingPageIsPublic(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Fatalf("expected html, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "Sign in") {
		t.Fatal("landing page should offer sign-in")
	}
}

func TestDashboardRedirectsAnonymousVisitors(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/dashboard", "", false)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if location := rec.Header().Get("Location"); location != "/" {
		t.Fatalf("expected redirect to landing, got %q", location)
	}
}

func TestDashboardRendersForAuthenticatedUser(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/dashboard", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Ada") {
		t.Fatal("dashboard should greet the user by name")
	}
}

func TestAPIRejectsAnonymousCallers(t *testing.T) {
	f := newRouterFixture(t)

	for _, target := range []string{"/api/tasks", "/api/preferences"} {
		rec := f.do(http.MethodGet, target, "", false)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", target, rec.Code)
		}
	}
}

func TestSessionEndpointIsPublic(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/session", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	if payload.State != string(session.StateUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %q", payload.State)
	}
}

func TestTaskLifecycleOverAPI(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPost, "/api/tasks", `{"text":"write the launch post"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created tasks.Task
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created task: %v", err)
	}

	rec = f.do(http.MethodPatch, "/api/tasks/"+created.ID.String(), `{"isCompleted":true}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodGet, "/api/tasks", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var listed struct {
		Tasks []tasks.Task `json:"tasks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Tasks) != 1 || !listed.Tasks[0].IsCompleted {
		t.Fatalf("expected one completed task, got %+v", listed.Tasks)
	}

	rec = f.do(http.MethodGet, "/api/tasks/export", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("export: expected csv, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "write the launch post") {
		t.Fatal("export should contain the task text")
	}

	rec = f.do(http.MethodDelete, "/api/tasks/"+created.ID.String(), "", true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
}

func TestPreferencesNullUntilFirstWrite(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/preferences", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		User        *idp.Identity      `json:"user"`
		Preferences *prefs.Preferences `json:"preferences"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode preferences: %v", err)
	}
	if payload.Preferences != nil {
		t.Fatalf("expected null preferences before first write, got %+v", payload.Preferences)
	}

	rec = f.do(http.MethodPatch, "/api/preferences", `{"theme":"dark"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodGet, "/api/preferences", "", true)
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode preferences after write: %v", err)
	}
	if payload.Preferences == nil || payload.Preferences.Theme != prefs.ThemeDark {
		t.Fatalf("expected dark theme, got %+v", payload.Preferences)
	}
	if !payload.Preferences.Notifications || payload.Preferences.Language != "en" {
		t.Fatalf("unpatched fields should carry defaults, got %+v", payload.Preferences)
	}
}

func TestInvalidThemeRejected(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPatch, "/api/preferences", `{"theme":"sepia"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDemoTasksArePublic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := metrics.Noop{}
	client := &identityClientStub{}

	seeded := tasks.NewInMemoryRepository([]tasks.Task{
		{Text: "Try signing up", CreatedAt: time.Now()},
	})
	tasksService := tasks.NewService(seeded)
	prefsService := prefs.NewService(prefs.NewInMemoryRepository())
	processor := lifecycle.NewProcessor(prefsService, tasksService, lifecycle.NewInMemoryLedger(), logger)

	cfg := config.Config{Environment: "development", SessionCheckTimeout: time.Second}
	pages, err := NewPagesHandler(client, prefsService, tasksService, recorder, cfg.SessionCheckTimeout, false, logger)
	if err != nil {
		t.Fatalf("build pages handler: %v", err)
	}

	handler := NewRouter(cfg, Handlers{
		Pages:    pages,
		Auth:     NewAuthHandler(client, session.NewHub(), recorder, NewCookieConfig("development", 0), logger),
		Session:  NewSessionHandler(client, time.Second, recorder),
		Events:   NewEventsHandler(client, session.NewHub(), recorder, time.Second, time.Minute, nil, logger),
		Prefs:    NewPrefsHandler(prefsService, logger),
		Tasks:    NewTasksHandler(tasksService, exporter.NewCSVExporter(), logger),
		Webhook:  NewWebhookHandler(lifecycle.NewVerifier("whsec_test"), processor, recorder, logger),
		Metrics:  http.NotFoundHandler(),
		Checker:  client,
		Recorder: recorder,
	}, logger)

	req := httptest.NewRequest(http.MethodGet, "/demo/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Try signing up") {
		t.Fatal("demo route should return the seeded sample task")
	}
}
