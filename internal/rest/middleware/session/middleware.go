package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/disgoorg/disgo/oauth2"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/striketeam/warden/internal/auth"
	restTypes "github.com/striketeam/warden/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// refreshLeeway is how close to expiry an access token may get before the
// middleware refreshes it on the user's behalf.
const refreshLeeway = time.Minute

type identityCtxKey struct{}

type sessionCtxKey struct{}

// Identity is the resolved acting user for a request. It is produced once
// per request by this middleware and passed through the context, never held
// as ambient state.
type Identity struct {
	UserID     snowflake.ID
	Authorized bool
}

// IdentityFromContext retrieves the resolved identity from the context.
func IdentityFromContext(ctx context.Context) Identity {
	if identity, ok := ctx.Value(identityCtxKey{}).(Identity); ok {
		return identity
	}

	return Identity{}
}

// FromContext retrieves the full session from the context.
func FromContext(ctx context.Context) *auth.Session {
	if session, ok := ctx.Value(sessionCtxKey{}).(*auth.Session); ok {
		return session
	}

	return nil
}

// Middleware resolves the session cookie into an Identity for each request
// and refreshes the Discord access token when it is about to expire.
type Middleware struct {
	sessions   *auth.Store
	oauth      oauth2.Client
	cookieName string
	logger     *zap.Logger
}

// New creates a new session middleware.
func New(sessions *auth.Store, oauth oauth2.Client, cookieName string, logger *zap.Logger) *Middleware {
	return &Middleware{
		sessions:   sessions,
		oauth:      oauth,
		cookieName: cookieName,
		logger:     logger.Named("session_middleware"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware that rejects requests
// without a valid session.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		cookie, err := req.Cookie(m.cookieName)
		if err != nil || cookie.Value == "" {
			return unauthorized(w, "not signed in")
		}

		ctx := req.Context()

		session, err := m.sessions.Get(ctx, cookie.Value)
		if err != nil {
			if errors.Is(err, auth.ErrSessionNotFound) {
				return unauthorized(w, "session expired")
			}

			m.logger.Error("Failed to load session", zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)

			return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "internal server error"})
		}

		// Refresh the Discord token set when it is about to expire. A failed
		// refresh invalidates the whole session; the user has to sign in again.
		if time.Until(session.Expiration) < refreshLeeway {
			refreshed, err := m.oauth.RefreshSession(session.OAuth2Session(), rest.WithCtx(ctx))
			if err != nil {
				m.logger.Info("Failed to refresh session, signing user out",
					zap.Uint64("userID", uint64(session.UserID)),
					zap.Error(err))

				if err := m.sessions.Delete(ctx, session.Token); err != nil {
					m.logger.Error("Failed to delete stale session", zap.Error(err))
				}

				return unauthorized(w, "session expired")
			}

			session.UpdateTokens(refreshed)

			if err := m.sessions.Update(ctx, session); err != nil {
				m.logger.Error("Failed to store refreshed session", zap.Error(err))
			}
		}

		identity := Identity{UserID: session.UserID, Authorized: true}

		ctx = context.WithValue(ctx, identityCtxKey{}, identity)
		ctx = context.WithValue(ctx, sessionCtxKey{}, session)

		return next(w, req.WithContext(ctx))
	}
}

func unauthorized(w http.ResponseWriter, message string) error {
	w.WriteHeader(http.StatusUnauthorized)
	return bunrouter.JSON(w, restTypes.ErrorResponse{Error: message})
}
