package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"log/slog"

	"foyer/internal/idp"
	"foyer/internal/metrics"
	"foyer/internal/session"
)

const minPasswordLength = 8

// identityClient is the subset of the identity provider client used by
// the auth endpoints.
type identityClient interface {
	SignUp(ctx context.Context, input idp.SignUpInput) (*idp.Credentials, error)
	SignIn(ctx context.Context, input idp.SignInInput) (*idp.Credentials, error)
	SignOut(ctx context.Context, token string) error
	CurrentSession(ctx context.Context, token string) (*idp.Identity, error)
}

// AuthHandler exposes the sign-up / sign-in / sign-out endpoints. All
// credential checking happens at the identity provider; this handler
// only enforces the client-side validations that never reach the
// network and relays vendor error messages verbatim.
type AuthHandler struct {
	idp      identityClient
	hub      *session.Hub
	recorder metrics.Recorder
	cookies  CookieConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a handler.
func NewAuthHandler(client identityClient, hub *session.Hub, recorder metrics.Recorder, cookies CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{idp: client, hub: hub, recorder: recorder, cookies: cookies, logger: logger}
}

type authRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp handles POST /auth/sign-up.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	// These checks run before any network dispatch; a short password
	// never reaches the provider.
	if payload.Name == "" {
		h.failValidation(w, r, "signup", "Name is required.")
		return
	}
	if payload.Email == "" {
		h.failValidation(w, r, "signup", "Email is required.")
		return
	}
	if len(payload.Password) < minPasswordLength {
		h.failValidation(w, r, "signup", "Password must be at least 8 characters.")
		return
	}

	creds, err := h.idp.SignUp(r.Context(), idp.SignUpInput{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		h.failProvider(w, r, "signup", err)
		return
	}

	h.recorder.RecordSignUp()
	h.succeed(w, r, creds.Token)
}

// SignIn handles POST /auth/sign-in. No password-length check here; the
// provider is the authority on existing credentials.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readCredentials(w, r)
	if !ok {
		return
	}

	if payload.Email == "" {
		h.failValidation(w, r, "signin", "Email is required.")
		return
	}
	if payload.Password == "" {
		h.failValidation(w, r, "signin", "Password is required.")
		return
	}

	creds, err := h.idp.SignIn(r.Context(), idp.SignInInput{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		h.failProvider(w, r, "signin", err)
		return
	}

	h.recorder.RecordSignIn()
	h.succeed(w, r, creds.Token)
}

// SignOut handles POST /auth/sign-out. The cookie is cleared and every
// live stream of the session is pushed to Unauthenticated even when the
// provider call fails; a dangling vendor-side session expires on its own.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := sessionTokenFromRequest(r)
	if token != "" {
		if err := h.idp.SignOut(r.Context(), token); err != nil {
			h.logger.Error("sign-out against identity provider failed", "error", err)
		}
		h.hub.Invalidate(r.Context(), session.TokenKey(token))
	}

	http.SetCookie(w, h.cookies.clearSessionCookie())

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request) (authRequest, bool) {
	var payload authRequest

	if wantsJSON(r) {
		if err := decodeJSONBody(w, r, &payload); err != nil {
			writeJSONError(w, err)
			return authRequest{}, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return authRequest{}, false
		}
		payload.Name = r.PostFormValue("name")
		payload.Email = r.PostFormValue("email")
		payload.Password = r.PostFormValue("password")
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Email = strings.TrimSpace(payload.Email)
	// Passwords are passed through unmodified.
	return payload, true
}

func (h *AuthHandler) succeed(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, h.cookies.sessionCookie(token))

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) failValidation(w http.ResponseWriter, r *http.Request, form, message string) {
	if wantsJSON(r) {
		writeError(w, http.StatusBadRequest, message)
		return
	}
	h.redirectWithError(w, r, form, message)
}

func (h *AuthHandler) failProvider(w http.ResponseWriter, r *http.Request, form string, err error) {
	// Vendor errors carry an opaque, human-readable message which is
	// surfaced verbatim. Anything else is an infrastructure failure.
	var apiErr *idp.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		if wantsJSON(r) {
			writeError(w, status, apiErr.Error())
			return
		}
		h.redirectWithError(w, r, form, apiErr.Error())
		return
	}

	h.logger.Error("identity provider request failed", "error", err)
	if wantsJSON(r) {
		writeError(w, http.StatusBadGateway, "authentication service unavailable")
		return
	}
	h.redirectWithError(w, r, form, "Authentication service unavailable. Please try again.")
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, form, message string) {
	target := "/?form=" + url.QueryEscape(form) + "&error=" + url.QueryEscape(message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}
