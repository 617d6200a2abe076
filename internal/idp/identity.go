package idp

import (
	"fmt"
	"time"
)

// Identity is the opaque caller identity issued by the hosted identity
// provider. The ID is vendor-assigned; this application never parses it.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Credentials is the result of a successful sign-up, sign-in, or SSO
// exchange: the session token plus the identity it belongs to.
type Credentials struct {
	Token     string
	Identity  Identity
	ExpiresAt time.Time
}

// APIError is an error returned by the identity provider. The message is
// the vendor's human-readable string and is surfaced to users verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("identity provider returned status %d", e.StatusCode)
}
