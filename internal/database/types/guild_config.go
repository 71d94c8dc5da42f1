package types

import (
	"errors"

	"github.com/uptrace/bun"
)

// ErrConfigNotFound is returned when no configuration has been saved for a guild.
var ErrConfigNotFound = errors.New("guild configuration not found")

// ChannelBindings maps dashboard channel slots to Discord channel IDs.
// The four required channels must be non-empty; the optional feature
// channels are NULL when unset, never empty strings.
type ChannelBindings struct {
	bun.BaseModel `bun:"table:guild_channels" json:"-"`

	GuildID                   string  `bun:"guild_id,pk"                     json:"guildId"`
	WelcomeChannelID          string  `bun:"welcome_channel_id,notnull"      json:"welcomeChannelId"`
	GoodbyeChannelID          string  `bun:"goodbye_channel_id,notnull"      json:"goodbyeChannelId"`
	LogChannelID              string  `bun:"log_channel_id,notnull"          json:"logChannelId"`
	BotAnnouncementsChannelID string  `bun:"bot_announcements_channel_id,notnull" json:"botAnnouncementsChannelId"`
	RaidsTD2ChannelID         *string `bun:"raids_td2_channel_id"            json:"raidsTd2ChannelId"`
	ActivitiesTD2ChannelID    *string `bun:"activities_td2_channel_id"       json:"activitiesTd2ChannelId"`
	IncursionChannelID        *string `bun:"incursion_channel_id"            json:"incursionChannelId"`
	BuildChannelID            *string `bun:"build_channel_id"                json:"buildChannelId"`
}

// RoleBindings maps dashboard role slots to Discord role IDs.
type RoleBindings struct {
	bun.BaseModel `bun:"table:guild_roles" json:"-"`

	GuildID           string  `bun:"guild_id,pk"          json:"guildId"`
	RaidManagerRoleID *string `bun:"raid_manager_role_id" json:"raidManagerRoleId"`
}

// ModerationSettings holds the automod flags and escalation thresholds
// for a guild. Threshold columns are NULL when the guild has not set them.
type ModerationSettings struct {
	bun.BaseModel `bun:"table:guild_moderation_settings" json:"-"`

	GuildID             string  `bun:"guild_id,pk"             json:"guildId"`
	MuteRoleID          *string `bun:"mute_role_id"            json:"muteRoleId"`
	MaxWarnsMuteMinutes *int64  `bun:"max_warns_mute_minutes"  json:"maxWarnsMuteMinutes"`
	MaxWarnsKick        *int64  `bun:"max_warns_kick"          json:"maxWarnsKick"`
	MaxWarnsBanDays     *int64  `bun:"max_warns_ban_days"      json:"maxWarnsBanDays"`
	WarnDecayDays       *int64  `bun:"warn_decay_days"         json:"warnDecayDays"`
	AutomodEnabled      bool    `bun:"automod_enabled,notnull" json:"automodEnabled"`
	BlockInvites        bool    `bun:"block_invites,notnull"   json:"blockInvites"`
	BlockLinks          bool    `bun:"block_links,notnull"     json:"blockLinks"`
	CapsThreshold       *int64  `bun:"caps_threshold"          json:"capsThreshold"`
	MentionThreshold    *int64  `bun:"mention_threshold"       json:"mentionThreshold"`
}

// GuildConfig is the full configuration for a single guild. The three
// parts share the guild ID as primary key and are always written together
// in one transaction.
type GuildConfig struct {
	Channels   ChannelBindings    `json:"channels"`
	Roles      RoleBindings       `json:"roles"`
	Moderation ModerationSettings `json:"moderation"`
}

// NewGuildConfig creates an empty configuration keyed to the given guild.
func NewGuildConfig(guildID string) *GuildConfig {
	return &GuildConfig{
		Channels:   ChannelBindings{GuildID: guildID},
		Roles:      RoleBindings{GuildID: guildID},
		Moderation: ModerationSettings{GuildID: guildID},
	}
}
