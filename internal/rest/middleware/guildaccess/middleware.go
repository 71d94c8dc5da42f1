package guildaccess

import (
	"net/http"

	"github.com/striketeam/warden/internal/auth"
	"github.com/striketeam/warden/internal/rest/middleware/session"
	restTypes "github.com/striketeam/warden/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Middleware gates guild-scoped routes on the acting user holding the
// Manage Server permission for the guild named in the route. The settings
// pipeline itself never checks authorization; this is where it happens.
type Middleware struct {
	checker *auth.Checker
	logger  *zap.Logger
}

// New creates a new guild access middleware.
func New(checker *auth.Checker, logger *zap.Logger) *Middleware {
	return &Middleware{
		checker: checker,
		logger:  logger.Named("guild_access_middleware"),
	}
}

// AsRESTMiddleware returns a bunrouter middleware that enforces guild
// access. It must run after the session middleware.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		guildID := req.Param("guildId")
		if guildID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "missing guild ID"})
		}

		userSession := session.FromContext(req.Context())
		if userSession == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "not signed in"})
		}

		canManage, err := m.checker.CanManage(req.Context(), userSession, guildID)
		if err != nil {
			m.logger.Error("Failed to check guild access",
				zap.String("guildID", guildID),
				zap.Error(err))
			w.WriteHeader(http.StatusBadGateway)

			return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "failed to verify guild access"})
		}

		if !canManage {
			w.WriteHeader(http.StatusForbidden)
			return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "you do not manage this guild"})
		}

		return next(w, req)
	}
}
