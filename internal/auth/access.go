package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/oauth2"
	"github.com/disgoorg/disgo/rest"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// GuildListKeyPrefix namespaces cached manageable-guild listings in Redis.
const GuildListKeyPrefix = "manageable_guilds:"

// guildListTTL bounds how stale a cached guild listing may get. Kept short
// so permission changes on Discord take effect quickly.
const guildListTTL = time.Minute

// ManageableGuild is one guild the acting user may administer.
type ManageableGuild struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	IconURL *string `json:"iconUrl"`
	Owner   bool    `json:"owner"`
}

// Checker resolves which guilds a signed-in user may administer, caching the
// Discord listing briefly per user.
type Checker struct {
	oauth  oauth2.Client
	cache  rueidis.Client
	logger *zap.Logger
}

// NewChecker creates a guild access checker.
func NewChecker(oauth oauth2.Client, cache rueidis.Client, logger *zap.Logger) *Checker {
	return &Checker{
		oauth:  oauth,
		cache:  cache,
		logger: logger.Named("guild_access"),
	}
}

// ManageableGuilds lists the guilds where the session's user holds the
// Manage Server permission or is the owner.
func (c *Checker) ManageableGuilds(ctx context.Context, session *Session) ([]ManageableGuild, error) {
	cacheKey := GuildListKeyPrefix + session.UserID.String()

	if data, err := c.cache.Do(ctx, c.cache.B().Get().Key(cacheKey).Build()).AsBytes(); err == nil {
		var cached []ManageableGuild
		if err := sonic.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	oauthSession := session.OAuth2Session()

	guilds, err := c.oauth.GetGuilds(oauthSession, rest.WithCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list user guilds: %w", err)
	}

	manageable := make([]ManageableGuild, 0, len(guilds))

	for _, guild := range guilds {
		if !guild.Owner && !guild.Permissions.Has(discord.PermissionManageGuild) {
			continue
		}

		manageable = append(manageable, ManageableGuild{
			ID:      guild.ID.String(),
			Name:    guild.Name,
			IconURL: guild.IconURL(),
			Owner:   guild.Owner,
		})
	}

	if data, err := sonic.Marshal(manageable); err == nil {
		if err := c.cache.Do(ctx, c.cache.B().Set().
			Key(cacheKey).
			Value(rueidis.BinaryString(data)).
			Ex(guildListTTL).
			Build(),
		).Error(); err != nil {
			c.logger.Warn("Failed to cache guild listing", zap.Error(err))
		}
	}

	return manageable, nil
}

// CanManage reports whether the session's user may administer the guild.
func (c *Checker) CanManage(ctx context.Context, session *Session, guildID string) (bool, error) {
	guilds, err := c.ManageableGuilds(ctx, session)
	if err != nil {
		return false, err
	}

	for _, guild := range guilds {
		if guild.ID == guildID {
			return true, nil
		}
	}

	return false, nil
}

// InvalidateGuilds drops the cached guild listing for a user, forcing the
// next check to hit Discord again.
func (c *Checker) InvalidateGuilds(ctx context.Context, userID string) error {
	err := c.cache.Do(ctx,
		c.cache.B().Del().Key(GuildListKeyPrefix+userID).Build(),
	).Error()
	if err != nil {
		return fmt.Errorf("failed to invalidate guild listing: %w", err)
	}

	return nil
}
