package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		statements := []string{
			`CREATE TABLE IF NOT EXISTS guild_channels (
				guild_id TEXT PRIMARY KEY,
				welcome_channel_id TEXT NOT NULL,
				goodbye_channel_id TEXT NOT NULL,
				log_channel_id TEXT NOT NULL,
				bot_announcements_channel_id TEXT NOT NULL,
				raids_td2_channel_id TEXT,
				activities_td2_channel_id TEXT,
				incursion_channel_id TEXT,
				build_channel_id TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS guild_roles (
				guild_id TEXT PRIMARY KEY,
				raid_manager_role_id TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS guild_moderation_settings (
				guild_id TEXT PRIMARY KEY,
				mute_role_id TEXT,
				max_warns_mute_minutes BIGINT CHECK (max_warns_mute_minutes >= 0),
				max_warns_kick BIGINT CHECK (max_warns_kick >= 0),
				max_warns_ban_days BIGINT CHECK (max_warns_ban_days >= 0),
				warn_decay_days BIGINT CHECK (warn_decay_days >= 0),
				automod_enabled BOOLEAN NOT NULL,
				block_invites BOOLEAN NOT NULL,
				block_links BOOLEAN NOT NULL,
				caps_threshold BIGINT CHECK (caps_threshold >= 0),
				mention_threshold BIGINT CHECK (mention_threshold >= 0)
			)`,
		}

		for _, stmt := range statements {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create guild configuration tables: %w", err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(
			`DROP TABLE IF EXISTS guild_channels, guild_roles, guild_moderation_settings CASCADE`,
		).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop guild configuration tables: %w", err)
		}

		return nil
	})
}
