package models_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/striketeam/warden/internal/database/models"
	"github.com/striketeam/warden/internal/database/types"
	"github.com/striketeam/warden/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"go.uber.org/zap"
)

// setupDB creates an in-memory database with the guild configuration schema.
// The DDL mirrors the initial migration, including the non-negative threshold
// checks the atomicity test relies on.
func setupDB(t *testing.T) *models.GuildConfigModel {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	// A second connection would see its own empty :memory: database
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	statements := []string{
		`CREATE TABLE guild_channels (
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
		`CREATE TABLE guild_roles (
			guild_id TEXT PRIMARY KEY,
			raid_manager_role_id TEXT
		)`,
		`CREATE TABLE guild_moderation_settings (
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
		_, err := db.NewRaw(stmt).Exec(context.Background())
		require.NoError(t, err)
	}

	return models.NewGuildConfig(db, zap.NewNop())
}

func fullConfig(guildID string) *types.GuildConfig {
	config := types.NewGuildConfig(guildID)
	config.Channels.WelcomeChannelID = "111"
	config.Channels.GoodbyeChannelID = "222"
	config.Channels.LogChannelID = "333"
	config.Channels.BotAnnouncementsChannelID = "444"
	config.Channels.RaidsTD2ChannelID = ptr("555")
	config.Channels.BuildChannelID = ptr("556")
	config.Roles.RaidManagerRoleID = ptr("777")
	config.Moderation.MuteRoleID = ptr("888")
	config.Moderation.MaxWarnsKick = ptr(int64(3))
	config.Moderation.WarnDecayDays = ptr(int64(30))
	config.Moderation.AutomodEnabled = true
	config.Moderation.BlockInvites = true

	return config
}

func ptr[T any](v T) *T {
	return &v
}

func TestSaveAndGetConfig(t *testing.T) {
	model := setupDB(t)
	ctx := t.Context()

	saved := fullConfig("guild-1")
	require.NoError(t, model.SaveConfig(ctx, saved))

	loaded, err := model.GetConfig(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestSaveConfigIdempotent(t *testing.T) {
	model := setupDB(t)
	ctx := t.Context()

	config := fullConfig("guild-1")
	require.NoError(t, model.SaveConfig(ctx, config))
	require.NoError(t, model.SaveConfig(ctx, config))

	loaded, err := model.GetConfig(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}

func TestSaveConfigFullReplace(t *testing.T) {
	model := setupDB(t)
	ctx := t.Context()

	require.NoError(t, model.SaveConfig(ctx, fullConfig("guild-1")))

	// A resubmission with the optional fields cleared must null them out
	// rather than keep the old values.
	replacement := types.NewGuildConfig("guild-1")
	replacement.Channels.WelcomeChannelID = "991"
	replacement.Channels.GoodbyeChannelID = "992"
	replacement.Channels.LogChannelID = "993"
	replacement.Channels.BotAnnouncementsChannelID = "994"
	require.NoError(t, model.SaveConfig(ctx, replacement))

	loaded, err := model.GetConfig(ctx, "guild-1")
	require.NoError(t, err)

	assert.Equal(t, "991", loaded.Channels.WelcomeChannelID)
	assert.Nil(t, loaded.Channels.RaidsTD2ChannelID)
	assert.Nil(t, loaded.Channels.BuildChannelID)
	assert.Nil(t, loaded.Roles.RaidManagerRoleID)
	assert.Nil(t, loaded.Moderation.MuteRoleID)
	assert.Nil(t, loaded.Moderation.MaxWarnsKick)
	assert.Nil(t, loaded.Moderation.WarnDecayDays)
	assert.False(t, loaded.Moderation.AutomodEnabled)
	assert.False(t, loaded.Moderation.BlockInvites)
}

func TestSaveConfigAtomic(t *testing.T) {
	model := setupDB(t)
	ctx := t.Context()

	// The third upsert violates the non-negative check, so the channel and
	// role writes from the same call must roll back too.
	bad := fullConfig("guild-1")
	bad.Moderation.CapsThreshold = ptr(int64(-1))

	require.Error(t, model.SaveConfig(ctx, bad))

	_, err := model.GetConfig(ctx, "guild-1")
	require.ErrorIs(t, err, types.ErrConfigNotFound)
}

func TestSaveConfigAtomicKeepsPrevious(t *testing.T) {
	model := setupDB(t)
	ctx := t.Context()

	require.NoError(t, model.SaveConfig(ctx, fullConfig("guild-1")))

	bad := fullConfig("guild-1")
	bad.Channels.WelcomeChannelID = "overwritten"
	bad.Moderation.MentionThreshold = ptr(int64(-5))
	require.Error(t, model.SaveConfig(ctx, bad))

	loaded, err := model.GetConfig(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "111", loaded.Channels.WelcomeChannelID)
}

func TestDecodedPayloadRoundTrip(t *testing.T) {
	model := setupDB(t)
	ctx := t.Context()

	// Form submission with everything arriving as strings, the way the
	// browser sends it.
	payload := `{
		"welcomeChannelId": "1",
		"goodbyeChannelId": "2",
		"logChannelId": "3",
		"botAnnouncementsChannelId": "4",
		"automodEnabled": "true",
		"blockInvites": "false",
		"blockLinks": "false",
		"capsThreshold": "70"
	}`

	config, err := settings.DecodeConfig("g1", []byte(payload))
	require.NoError(t, err)
	require.NoError(t, model.SaveConfig(ctx, config))

	loaded, err := model.GetConfig(ctx, "g1")
	require.NoError(t, err)

	assert.Equal(t, "g1", loaded.Channels.GuildID)
	assert.Equal(t, "1", loaded.Channels.WelcomeChannelID)
	assert.Equal(t, "4", loaded.Channels.BotAnnouncementsChannelID)
	assert.Nil(t, loaded.Channels.RaidsTD2ChannelID)
	assert.Nil(t, loaded.Roles.RaidManagerRoleID)
	assert.True(t, loaded.Moderation.AutomodEnabled)
	assert.False(t, loaded.Moderation.BlockInvites)
	assert.False(t, loaded.Moderation.BlockLinks)
	require.NotNil(t, loaded.Moderation.CapsThreshold)
	assert.Equal(t, int64(70), *loaded.Moderation.CapsThreshold)
	assert.Nil(t, loaded.Moderation.MentionThreshold)
}

func TestGetConfigNotFound(t *testing.T) {
	model := setupDB(t)

	_, err := model.GetConfig(t.Context(), "guild-unknown")
	require.ErrorIs(t, err, types.ErrConfigNotFound)
}

func TestGetConfigIsolatedPerGuild(t *testing.T) {
	model := setupDB(t)
	ctx := t.Context()

	first := fullConfig("guild-1")
	second := fullConfig("guild-2")
	second.Channels.WelcomeChannelID = "second-welcome"

	require.NoError(t, model.SaveConfig(ctx, first))
	require.NoError(t, model.SaveConfig(ctx, second))

	loaded, err := model.GetConfig(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, "111", loaded.Channels.WelcomeChannelID)

	loaded, err = model.GetConfig(ctx, "guild-2")
	require.NoError(t, err)
	assert.Equal(t, "second-welcome", loaded.Channels.WelcomeChannelID)
}
