package handler

import (
	"errors"
	"net/http"

	"github.com/disgoorg/snowflake/v2"
	"github.com/striketeam/warden/internal/auth"
	"github.com/striketeam/warden/internal/database"
	dbTypes "github.com/striketeam/warden/internal/database/types"
	"github.com/striketeam/warden/internal/directory"
	sessionMiddleware "github.com/striketeam/warden/internal/rest/middleware/session"
	restTypes "github.com/striketeam/warden/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CatalogResponse bundles the channel and role catalogs the settings page
// needs to render its selects.
type CatalogResponse struct {
	Channels []directory.Channel `json:"channels"`
	Roles    []directory.Role    `json:"roles"`
}

// GuildHandler serves guild listings, Discord catalogs, and stored
// configuration reads.
type GuildHandler struct {
	db        database.Client
	directory *directory.Client
	access    *auth.Checker
	logger    *zap.Logger
}

// NewGuildHandler creates a new guild handler.
func NewGuildHandler(
	db database.Client, dir *directory.Client, access *auth.Checker, logger *zap.Logger,
) *GuildHandler {
	return &GuildHandler{
		db:        db,
		directory: dir,
		access:    access,
		logger:    logger,
	}
}

// ListGuilds returns the guilds the signed-in user can administer.
func (h *GuildHandler) ListGuilds(w http.ResponseWriter, req bunrouter.Request) error {
	session := sessionMiddleware.FromContext(req.Context())
	if session == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "not signed in"})
	}

	guilds, err := h.access.ManageableGuilds(req.Context(), session)
	if err != nil {
		h.logger.Error("Failed to list manageable guilds", zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)

		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "failed to list guilds"})
	}

	return bunrouter.JSON(w, guilds)
}

// GetGuild returns guild metadata with approximate member counts.
func (h *GuildHandler) GetGuild(w http.ResponseWriter, req bunrouter.Request) error {
	guildID, err := snowflake.Parse(req.Param("guildId"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "invalid guild ID"})
	}

	guild, err := h.directory.Guild(req.Context(), guildID)
	if err != nil {
		h.logger.Error("Failed to fetch guild", zap.Uint64("guildID", uint64(guildID)), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)

		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "failed to fetch guild from Discord"})
	}

	return bunrouter.JSON(w, guild)
}

// GetChannels returns the guild's channel catalog.
func (h *GuildHandler) GetChannels(w http.ResponseWriter, req bunrouter.Request) error {
	guildID, err := snowflake.Parse(req.Param("guildId"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "invalid guild ID"})
	}

	channels, err := h.directory.Channels(req.Context(), guildID)
	if err != nil {
		h.logger.Error("Failed to fetch channels", zap.Uint64("guildID", uint64(guildID)), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)

		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "failed to fetch channels from Discord"})
	}

	return bunrouter.JSON(w, channels)
}

// GetRoles returns the guild's role catalog.
func (h *GuildHandler) GetRoles(w http.ResponseWriter, req bunrouter.Request) error {
	guildID, err := snowflake.Parse(req.Param("guildId"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "invalid guild ID"})
	}

	roles, err := h.directory.Roles(req.Context(), guildID)
	if err != nil {
		h.logger.Error("Failed to fetch roles", zap.Uint64("guildID", uint64(guildID)), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)

		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "failed to fetch roles from Discord"})
	}

	return bunrouter.JSON(w, roles)
}

// GetCatalog returns channels and roles together, fetched concurrently, for
// the settings page.
func (h *GuildHandler) GetCatalog(w http.ResponseWriter, req bunrouter.Request) error {
	guildID, err := snowflake.Parse(req.Param("guildId"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "invalid guild ID"})
	}

	var response CatalogResponse

	group, ctx := errgroup.WithContext(req.Context())

	group.Go(func() error {
		channels, err := h.directory.Channels(ctx, guildID)
		if err != nil {
			return err
		}

		response.Channels = channels

		return nil
	})

	group.Go(func() error {
		roles, err := h.directory.Roles(ctx, guildID)
		if err != nil {
			return err
		}

		response.Roles = roles

		return nil
	})

	if err := group.Wait(); err != nil {
		h.logger.Error("Failed to fetch guild catalog", zap.Uint64("guildID", uint64(guildID)), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)

		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "failed to fetch catalog from Discord"})
	}

	return bunrouter.JSON(w, response)
}

// GetSettings returns the stored configuration for a guild.
func (h *GuildHandler) GetSettings(w http.ResponseWriter, req bunrouter.Request) error {
	guildID := req.Param("guildId")

	config, err := h.db.Model().GuildConfig().GetConfig(req.Context(), guildID)
	if err != nil {
		if errors.Is(err, dbTypes.ErrConfigNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "guild is not configured yet"})
		}

		h.logger.Error("Failed to load guild configuration",
			zap.String("guildID", guildID),
			zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)

		return bunrouter.JSON(w, restTypes.ErrorResponse{Error: "failed to load settings"})
	}

	return bunrouter.JSON(w, config)
}
