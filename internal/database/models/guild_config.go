package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/striketeam/warden/internal/database/dbretry"
	"github.com/striketeam/warden/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// GuildConfigModel handles database operations for guild configurations.
type GuildConfigModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewGuildConfig creates a GuildConfigModel with database access.
func NewGuildConfig(db *bun.DB, logger *zap.Logger) *GuildConfigModel {
	return &GuildConfigModel{
		db:     db,
		logger: logger.Named("db_guild_config"),
	}
}

// SaveConfig writes all three parts of a guild configuration in a single
// transaction. Each part is a full-replace upsert keyed by guild ID, so
// omitted optional fields clear previously stored values. Either all three
// writes commit or none do; writes are not retried here since the caller
// decides whether to resubmit.
func (r *GuildConfigModel) SaveConfig(ctx context.Context, config *types.GuildConfig) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&config.Channels).
			On("CONFLICT (guild_id) DO UPDATE").
			Set("welcome_channel_id = EXCLUDED.welcome_channel_id").
			Set("goodbye_channel_id = EXCLUDED.goodbye_channel_id").
			Set("log_channel_id = EXCLUDED.log_channel_id").
			Set("bot_announcements_channel_id = EXCLUDED.bot_announcements_channel_id").
			Set("raids_td2_channel_id = EXCLUDED.raids_td2_channel_id").
			Set("activities_td2_channel_id = EXCLUDED.activities_td2_channel_id").
			Set("incursion_channel_id = EXCLUDED.incursion_channel_id").
			Set("build_channel_id = EXCLUDED.build_channel_id").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to upsert channel bindings: %w", err)
		}

		if _, err := tx.NewInsert().Model(&config.Roles).
			On("CONFLICT (guild_id) DO UPDATE").
			Set("raid_manager_role_id = EXCLUDED.raid_manager_role_id").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to upsert role bindings: %w", err)
		}

		if _, err := tx.NewInsert().Model(&config.Moderation).
			On("CONFLICT (guild_id) DO UPDATE").
			Set("mute_role_id = EXCLUDED.mute_role_id").
			Set("max_warns_mute_minutes = EXCLUDED.max_warns_mute_minutes").
			Set("max_warns_kick = EXCLUDED.max_warns_kick").
			Set("max_warns_ban_days = EXCLUDED.max_warns_ban_days").
			Set("warn_decay_days = EXCLUDED.warn_decay_days").
			Set("automod_enabled = EXCLUDED.automod_enabled").
			Set("block_invites = EXCLUDED.block_invites").
			Set("block_links = EXCLUDED.block_links").
			Set("caps_threshold = EXCLUDED.caps_threshold").
			Set("mention_threshold = EXCLUDED.mention_threshold").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to upsert moderation settings: %w", err)
		}

		return nil
	})
}

// GetConfig reads the stored configuration for a guild. The channel bindings
// row is the anchor; without it the guild counts as unconfigured and
// types.ErrConfigNotFound is returned. Missing role or moderation rows are
// tolerated and returned zeroed, keyed to the guild.
func (r *GuildConfigModel) GetConfig(ctx context.Context, guildID string) (*types.GuildConfig, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.GuildConfig, error) {
		config := types.NewGuildConfig(guildID)

		err := r.db.NewSelect().Model(&config.Channels).
			WherePK().
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w (guildID=%s)", types.ErrConfigNotFound, guildID)
			}

			return nil, fmt.Errorf("failed to get channel bindings: %w (guildID=%s)", err, guildID)
		}

		err = r.db.NewSelect().Model(&config.Roles).
			WherePK().
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to get role bindings: %w (guildID=%s)", err, guildID)
		}

		err = r.db.NewSelect().Model(&config.Moderation).
			WherePK().
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to get moderation settings: %w (guildID=%s)", err, guildID)
		}

		return config, nil
	})
}
