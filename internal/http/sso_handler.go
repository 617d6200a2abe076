package http

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"log/slog"

	"foyer/internal/idp"
	"foyer/internal/metrics"
)

// ssoStatePayload holds the CSRF state and optional redirect path.
type ssoStatePayload struct {
	State      string `json:"s"`
	RedirectTo string `json:"r,omitempty"`
}

const (
	ssoStateCookieName = "foyer_sso_state"
	ssoStateCookieTTL  = 10 * time.Minute
)

type ssoAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*idp.Credentials, error)
}

// SSOHandler drives the identity provider's hosted sign-in page flow.
type SSOHandler struct {
	sso      ssoAuthenticator
	recorder metrics.Recorder
	cookies  CookieConfig
	logger   *slog.Logger
}

// NewSSOHandler creates a handler.
func NewSSOHandler(sso ssoAuthenticator, recorder metrics.Recorder, cookies CookieConfig, logger *slog.Logger) *SSOHandler {
	return &SSOHandler{sso: sso, recorder: recorder, cookies: cookies, logger: logger}
}

// Start handles GET /auth/sso/start and redirects the user to the
// provider's hosted sign-in page.
func (h *SSOHandler) Start(w http.ResponseWriter, r *http.Request) {
	state, err := idp.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Store state in cookie for CSRF protection
	http.SetCookie(w, &http.Cookie{
		Name:     ssoStateCookieName,
		Value:    state,
		Path:     "/auth/sso",
		HttpOnly: true,
		Secure:   h.cookies.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ssoStateCookieTTL.Seconds()),
	})

	// Preserve redirectTo query param in state payload
	redirectTo := r.URL.Query().Get("redirectTo")
	payload := ssoStatePayload{State: state}
	if redirectTo != "" && isValidRedirectPath(redirectTo) {
		payload.RedirectTo = redirectTo
	}

	// Encode state as base64 JSON to avoid delimiter issues
	stateJSON, _ := json.Marshal(payload)
	fullState := base64.RawURLEncoding.EncodeToString(stateJSON)

	http.Redirect(w, r, h.sso.AuthURL(fullState), http.StatusTemporaryRedirect)
}

// Callback handles GET /auth/sso/callback. It verifies the CSRF state,
// exchanges the authorization code, and issues the session cookie.
func (h *SSOHandler) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(ssoStateCookieName)
	if err != nil {
		h.logger.Warn("sso callback: missing state cookie")
		h.redirectWithError(w, r, "Session expired. Please try again.")
		return
	}

	redirectTo := "/dashboard"

	stateBytes, err := base64.RawURLEncoding.DecodeString(r.URL.Query().Get("state"))
	if err != nil {
		h.logger.Warn("sso callback: invalid state encoding")
		h.redirectWithError(w, r, "Invalid state. Please try again.")
		return
	}

	var statePayload ssoStatePayload
	if err := json.Unmarshal(stateBytes, &statePayload); err != nil {
		h.logger.Warn("sso callback: invalid state JSON")
		h.redirectWithError(w, r, "Invalid state. Please try again.")
		return
	}

	if statePayload.RedirectTo != "" && isValidRedirectPath(statePayload.RedirectTo) {
		redirectTo = statePayload.RedirectTo
	}

	if subtle.ConstantTimeCompare([]byte(statePayload.State), []byte(stateCookie.Value)) != 1 {
		h.logger.Warn("sso callback: state mismatch")
		h.redirectWithError(w, r, "Invalid state. Please try again.")
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     ssoStateCookieName,
		Value:    "",
		Path:     "/auth/sso",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.secure,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Warn("sso callback: provider error", "error", errParam)
		message := r.URL.Query().Get("error_description")
		if message == "" {
			message = "Sign-in was cancelled."
		}
		h.redirectWithError(w, r, message)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectWithError(w, r, "Missing authorization code.")
		return
	}

	creds, err := h.sso.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("sso callback: exchange failed", "error", err)
		h.redirectWithError(w, r, "Failed to complete authentication.")
		return
	}

	http.SetCookie(w, h.cookies.sessionCookie(creds.Token))
	h.recorder.RecordSignIn()
	h.logger.Info("sso sign-in successful", "user_id", creds.Identity.ID)

	http.Redirect(w, r, redirectTo, http.StatusTemporaryRedirect)
}

// redirectWithError redirects to the landing page with error details.
func (h *SSOHandler) redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	target := "/?form=signin&error=" + url.QueryEscape(message)
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
