// Package directory reads guild metadata, channel, and role catalogs from
// the Discord API using the bot's token. It is strictly read-only: the
// dashboard uses it to populate selectable options, never to validate
// submitted identifiers.
package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// GuildInfo is the guild metadata shown in the dashboard header.
type GuildInfo struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	IconURL       *string `json:"iconUrl"`
	Description   string  `json:"description,omitempty"`
	MemberCount   int     `json:"memberCount"`
	PresenceCount int     `json:"presenceCount"`
}

// Channel is one selectable channel in the guild's catalog.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type int    `json:"type"`
}

// Role is one selectable role in the guild's catalog.
type Role struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    int    `json:"color"`
	Position int    `json:"position"`
	Managed  bool   `json:"managed"`
}

// Client fetches catalogs from Discord with a short-lived Redis cache in
// front, so repeated settings page loads do not hammer the API.
type Client struct {
	rest     rest.Rest
	cache    rueidis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewClient creates a directory client using the given bot token.
func NewClient(botToken string, cache rueidis.Client, cacheTTL time.Duration, logger *zap.Logger) *Client {
	return &Client{
		rest:     rest.New(rest.NewClient(botToken)),
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.Named("directory"),
	}
}

// Guild returns guild metadata including approximate member and presence
// counts.
func (c *Client) Guild(ctx context.Context, guildID snowflake.ID) (*GuildInfo, error) {
	cacheKey := fmt.Sprintf("guild:%s", guildID)

	var cached GuildInfo
	if c.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	guild, err := c.rest.GetGuild(guildID, true, rest.WithCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild %s: %w", guildID, err)
	}

	info := &GuildInfo{
		ID:            guild.ID.String(),
		Name:          guild.Name,
		IconURL:       guild.IconURL(),
		MemberCount:   guild.ApproximateMemberCount,
		PresenceCount: guild.ApproximatePresenceCount,
	}
	if guild.Description != nil {
		info.Description = *guild.Description
	}

	c.toCache(ctx, cacheKey, info)

	return info, nil
}

// Channels returns the guild's channel catalog.
func (c *Client) Channels(ctx context.Context, guildID snowflake.ID) ([]Channel, error) {
	cacheKey := fmt.Sprintf("channels:%s", guildID)

	var cached []Channel
	if c.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	guildChannels, err := c.rest.GetGuildChannels(guildID, rest.WithCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channels for guild %s: %w", guildID, err)
	}

	channels := make([]Channel, 0, len(guildChannels))
	for _, channel := range guildChannels {
		channels = append(channels, Channel{
			ID:   channel.ID().String(),
			Name: channel.Name(),
			Type: int(channel.Type()),
		})
	}

	c.toCache(ctx, cacheKey, channels)

	return channels, nil
}

// Roles returns the guild's role catalog.
func (c *Client) Roles(ctx context.Context, guildID snowflake.ID) ([]Role, error) {
	cacheKey := fmt.Sprintf("roles:%s", guildID)

	var cached []Role
	if c.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	guildRoles, err := c.rest.GetRoles(guildID, rest.WithCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles for guild %s: %w", guildID, err)
	}

	roles := make([]Role, 0, len(guildRoles))
	for _, role := range guildRoles {
		roles = append(roles, Role{
			ID:       role.ID.String(),
			Name:     role.Name,
			Color:    role.Color,
			Position: role.Position,
			Managed:  role.Managed,
		})
	}

	c.toCache(ctx, cacheKey, roles)

	return roles, nil
}

func (c *Client) fromCache(ctx context.Context, key string, target any) bool {
	data, err := c.cache.Do(ctx, c.cache.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		return false
	}

	if err := sonic.Unmarshal(data, target); err != nil {
		c.logger.Warn("Failed to decode cached catalog entry", zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

func (c *Client) toCache(ctx context.Context, key string, value any) {
	data, err := sonic.Marshal(value)
	if err != nil {
		return
	}

	if err := c.cache.Do(ctx, c.cache.B().Set().
		Key(key).
		Value(rueidis.BinaryString(data)).
		Ex(c.cacheTTL).
		Build(),
	).Error(); err != nil {
		c.logger.Warn("Failed to cache catalog entry", zap.String("key", key), zap.Error(err))
	}
}
