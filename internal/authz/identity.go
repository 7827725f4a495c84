package authz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"log/slog"

	"github.com/babelboard/babelboard/internal/shared"
)

// maxResolveAttempts bounds recovery from a corrupt session store. A corrupt
// session is indistinguishable from an attack: retry a fixed number of times
// with the session expired in between, then abort the request.
const maxResolveAttempts = 3

// SessionReader is the slice of session storage the resolver needs. The
// redis-backed shared.SessionManager satisfies it.
type SessionReader interface {
	ReadUser(ctx context.Context, sessionID string) (string, error)
	Expire(ctx context.Context, sessionID string) error
}

// Resolver produces the request identity from session storage, tolerating a
// corrupt store up to maxResolveAttempts.
type Resolver struct {
	store  SessionReader
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(store SessionReader, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve reads the stored user id for a session. A recoverable corrupt
// payload expires the session and retries; exhausting the bound returns an
// IdentityError, never anonymous. Callers memoize the result in the request
// context via ContextWithIdentity so a request resolves at most once.
func (r *Resolver) Resolve(ctx context.Context, sessionID string) (Identity, error) {
	if sessionID == "" {
		return Anonymous(), nil
	}

	var lastErr error
	for attempt := 1; attempt <= maxResolveAttempts; attempt++ {
		raw, err := r.store.ReadUser(ctx, sessionID)
		if err == nil {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				return Anonymous(), nil
			}
			userID, perr := strconv.ParseInt(raw, 10, 64)
			if perr == nil && userID > 0 {
				return Authenticated(userID), nil
			}
			// A stored id that does not parse is corruption, not anonymity.
			err = fmt.Errorf("%w: stored user id %q", shared.ErrSessionCorrupt, raw)
		}

		if !errors.Is(err, shared.ErrSessionCorrupt) {
			return Anonymous(), &IdentityError{Attempts: attempt, Err: err}
		}

		lastErr = err
		if r.logger != nil {
			r.logger.Warn("expiring corrupt session",
				slog.Int("attempt", attempt),
				slog.Any("error", err))
		}
		if expErr := r.store.Expire(ctx, sessionID); expErr != nil {
			return Anonymous(), &IdentityError{Attempts: attempt, Err: expErr}
		}
	}
	return Anonymous(), &IdentityError{Attempts: maxResolveAttempts, Err: lastErr}
}
