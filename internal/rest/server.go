package rest

import (
	"net/http"

	"github.com/disgoorg/disgo/oauth2"
	"github.com/klauspost/compress/gzhttp"
	"github.com/striketeam/warden/internal/auth"
	"github.com/striketeam/warden/internal/database"
	"github.com/striketeam/warden/internal/directory"
	"github.com/striketeam/warden/internal/rest/handler"
	"github.com/striketeam/warden/internal/rest/middleware/guildaccess"
	"github.com/striketeam/warden/internal/rest/middleware/ratelimit"
	"github.com/striketeam/warden/internal/rest/middleware/reqlog"
	sessionMiddleware "github.com/striketeam/warden/internal/rest/middleware/session"
	"github.com/striketeam/warden/internal/settings"
	"github.com/striketeam/warden/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Server implements the dashboard HTTP API.
type Server struct {
	authHandler     *handler.AuthHandler
	guildHandler    *handler.GuildHandler
	settingsHandler *handler.SettingsHandler
}

// NewServer creates the dashboard HTTP handler with all routes and
// middleware wired up.
func NewServer(
	cfg *config.Config,
	db database.Client,
	sessions *auth.Store,
	oauthClient oauth2.Client,
	checker *auth.Checker,
	dir *directory.Client,
	logger *zap.Logger,
) http.Handler {
	pipeline := settings.NewPipeline(db.Model().GuildConfig(), logger)

	server := &Server{
		authHandler:     handler.NewAuthHandler(oauthClient, sessions, cfg, logger),
		guildHandler:    handler.NewGuildHandler(db, dir, checker, logger),
		settingsHandler: handler.NewSettingsHandler(pipeline, logger),
	}

	requestLogger := reqlog.New(logger)
	rateLimiter := ratelimit.New(&cfg.RateLimit, logger)
	sessionMW := sessionMiddleware.New(sessions, oauthClient, cfg.Session.CookieName, logger)
	accessMW := guildaccess.New(checker, logger)

	router := bunrouter.New()
	base := router.Use(requestLogger.AsRESTMiddleware, rateLimiter.AsRESTMiddleware)

	base.WithGroup("/auth", func(g *bunrouter.Group) {
		g.GET("/login", server.authHandler.Login)
		g.GET("/callback", server.authHandler.Callback)
		g.POST("/logout", sessionMW.AsRESTMiddleware(server.authHandler.Logout))
	})

	base.Use(sessionMW.AsRESTMiddleware).WithGroup("/v1", func(g *bunrouter.Group) {
		g.GET("/auth/me", server.authHandler.Me)
		g.GET("/guilds", server.guildHandler.ListGuilds)

		guarded := accessMW.AsRESTMiddleware
		g.GET("/guilds/:guildId", guarded(server.guildHandler.GetGuild))
		g.GET("/guilds/:guildId/channels", guarded(server.guildHandler.GetChannels))
		g.GET("/guilds/:guildId/roles", guarded(server.guildHandler.GetRoles))
		g.GET("/guilds/:guildId/catalog", guarded(server.guildHandler.GetCatalog))
		g.GET("/guilds/:guildId/settings", guarded(server.guildHandler.GetSettings))
		g.POST("/guilds/:guildId/settings", guarded(server.settingsHandler.SaveSettings))
	})

	// Add gzip compression
	return gzhttp.GzipHandler(router)
}
