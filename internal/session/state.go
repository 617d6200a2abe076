package session

import (
	"context"
	"time"

	"foyer/internal/idp"
)

// State is the three-way projection of the identity provider's session
// signal. Every UI branch keys off this value and nothing else.
type State string

const (
	// StateLoading means a session check is in flight.
	StateLoading State = "loading"
	// StateAuthenticated means the provider confirmed a valid session.
	StateAuthenticated State = "authenticated"
	// StateUnauthenticated means no valid session was found, the check
	// failed, or the check timed out.
	StateUnauthenticated State = "unauthenticated"
)

// Snapshot is one observed value of the session projection.
type Snapshot struct {
	State     State
	Identity  *idp.Identity
	CheckedAt time.Time
}

// Checker resolves the identity behind a session token. *idp.Client
// satisfies it; tests substitute stubs.
type Checker interface {
	CurrentSession(ctx context.Context, token string) (*idp.Identity, error)
}

// DefaultCheckTimeout bounds a single session check. The provider gives
// no guidance here; ten seconds keeps a dead provider from pinning the
// projection in Loading while still tolerating a slow cold start.
const DefaultCheckTimeout = 10 * time.Second

// Resolve performs one session check and maps the outcome onto the
// three-state projection. It never returns an error: an unreachable or
// failing provider degrades to Unauthenticated so callers cannot hang.
func Resolve(ctx context.Context, checker Checker, token string, timeout time.Duration) Snapshot {
	now := time.Now()

	if token == "" {
		return Snapshot{State: StateUnauthenticated, CheckedAt: now}
	}

	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	identity, err := checker.CurrentSession(ctx, token)
	if err != nil || identity == nil {
		return Snapshot{State: StateUnauthenticated, CheckedAt: time.Now()}
	}

	return Snapshot{State: StateAuthenticated, Identity: identity, CheckedAt: time.Now()}
}
