package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foyer/internal/idp"
	"foyer/internal/metrics"
)

func TestSessionMiddlewareRejectsMissingCookie(t *testing.T) {
	checker := &identityClientStub{
		currentSessionFunc: func(context.Context, string) (*idp.Identity, error) {
			t.Fatal("provider must not be called without a token")
			return nil, nil
		},
	}

	gate := newSessionMiddleware(checker, time.Second, metrics.Noop{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	gate(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionMiddlewareRejectsFailedCheck(t *testing.T) {
	checker := &identityClientStub{
		currentSessionFunc: func(context.Context, string) (*idp.Identity, error) {
			return nil, errors.New("provider unreachable")
		},
	}

	gate := newSessionMiddleware(checker, time.Second, metrics.Noop{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "tok-expired"})
	rec := httptest.NewRecorder()
	gate(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionMiddlewarePopulatesIdentity(t *testing.T) {
	checker := &identityClientStub{
		currentSessionFunc: func(_ context.Context, token string) (*idp.Identity, error) {
			if token != "tok-live" {
				t.Fatalf("unexpected token %q", token)
			}
			return &idp.Identity{ID: "user-1", Email: "ada@example.com"}, nil
		},
	}

	gate := newSessionMiddleware(checker, time.Second, metrics.Noop{})
	var seen *idp.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "tok-live"})
	rec := httptest.NewRecorder()
	gate(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.ID != "user-1" {
		t.Fatalf("expected identity in context, got %+v", seen)
	}
}
