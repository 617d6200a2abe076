package http

import (
	"net/http"
	"strings"
	"time"
)

const sessionCookieName = "foyer_session"

// CookieConfig carries the environment-dependent cookie attributes.
type CookieConfig struct {
	secure bool
	ttl    time.Duration
}

// NewCookieConfig derives cookie attributes from the environment: the
// Secure flag is set everywhere except local development.
func NewCookieConfig(environment string, ttl time.Duration) CookieConfig {
	return CookieConfig{
		secure: !strings.EqualFold(environment, "development"),
		ttl:    ttl,
	}
}

// sessionCookie wraps the vendor's session token in an HttpOnly cookie.
// The browser never reads the token; every check round-trips through the
// identity provider.
func (c CookieConfig) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.ttl.Seconds()),
		Expires:  time.Now().Add(c.ttl),
	}
}

func (c CookieConfig) clearSessionCookie() *http.Cookie {
	cookie := c.sessionCookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}

// sessionTokenFromRequest extracts the session token, or "" when absent.
func sessionTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
