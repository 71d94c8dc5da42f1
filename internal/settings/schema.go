package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/striketeam/warden/internal/database/types"
)

// Violation messages reused across fields.
const (
	violationRequired  = "required"
	violationNotEmpty  = "must not be empty"
	violationString    = "must be a string"
	violationNonNegInt = "must be a non-negative integer"
	violationInteger   = "must be an integer"
	violationBoolean   = "must be a boolean"
)

// DecodeConfig decodes a raw settings payload into a fully-typed guild
// configuration. It returns ErrMalformedPayload when the body is not valid
// JSON, and a *ValidationError listing every violated constraint when the
// payload decodes but fails the schema. Optional string fields submitted as
// empty strings are normalized to nil so they store as NULL.
func DecodeConfig(guildID string, raw []byte) (*types.GuildConfig, error) {
	var payload map[string]any
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	d := &decoder{payload: payload, violations: make(map[string][]string)}

	config := types.NewGuildConfig(guildID)
	config.Channels.WelcomeChannelID = d.requiredString("welcomeChannelId")
	config.Channels.GoodbyeChannelID = d.requiredString("goodbyeChannelId")
	config.Channels.LogChannelID = d.requiredString("logChannelId")
	config.Channels.BotAnnouncementsChannelID = d.requiredString("botAnnouncementsChannelId")
	config.Channels.RaidsTD2ChannelID = d.optionalID("raidsTd2ChannelId")
	config.Channels.ActivitiesTD2ChannelID = d.optionalID("activitiesTd2ChannelId")
	config.Channels.IncursionChannelID = d.optionalID("incursionChannelId")
	config.Channels.BuildChannelID = d.optionalID("buildChannelId")

	config.Roles.RaidManagerRoleID = d.optionalID("raidManagerRoleId")

	config.Moderation.MuteRoleID = d.optionalID("muteRoleId")
	config.Moderation.MaxWarnsMuteMinutes = d.optionalCount("maxWarnsMuteMinutes")
	config.Moderation.MaxWarnsKick = d.optionalCount("maxWarnsKick")
	config.Moderation.MaxWarnsBanDays = d.optionalCount("maxWarnsBanDays")
	config.Moderation.WarnDecayDays = d.optionalCount("warnDecayDays")
	config.Moderation.AutomodEnabled = d.requiredBool("automodEnabled")
	config.Moderation.BlockInvites = d.requiredBool("blockInvites")
	config.Moderation.BlockLinks = d.requiredBool("blockLinks")
	config.Moderation.CapsThreshold = d.optionalCount("capsThreshold")
	config.Moderation.MentionThreshold = d.optionalCount("mentionThreshold")

	if len(d.violations) > 0 {
		return nil, &ValidationError{Details: d.violations}
	}

	return config, nil
}

// decoder walks a loosely-typed payload and collects every constraint
// violation instead of failing on the first one.
type decoder struct {
	payload    map[string]any
	violations map[string][]string
}

func (d *decoder) add(field, violation string) {
	d.violations[field] = append(d.violations[field], violation)
}

// requiredString decodes a mandatory identifier field.
func (d *decoder) requiredString(field string) string {
	value, ok := d.payload[field]
	if !ok || value == nil {
		d.add(field, violationRequired)
		return ""
	}

	str, ok := value.(string)
	if !ok {
		d.add(field, violationString)
		return ""
	}

	if str == "" {
		d.add(field, violationNotEmpty)
	}

	return str
}

// optionalID decodes an optional identifier field. Absent, null, and empty
// values all normalize to nil.
func (d *decoder) optionalID(field string) *string {
	value, ok := d.payload[field]
	if !ok || value == nil {
		return nil
	}

	str, ok := value.(string)
	if !ok {
		d.add(field, violationString)
		return nil
	}

	if str == "" {
		return nil
	}

	return &str
}

// optionalCount decodes an optional non-negative integer, accepting either a
// JSON number or a numeric string. Absent and null stay nil; an empty string
// coerces to zero, matching how the settings form submits cleared inputs.
func (d *decoder) optionalCount(field string) *int64 {
	value, ok := d.payload[field]
	if !ok || value == nil {
		return nil
	}

	var parsed int64

	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			d.add(field, violationInteger)
			return nil
		}

		parsed = int64(v)
	case string:
		if strings.TrimSpace(v) == "" {
			parsed = 0
			break
		}

		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			d.add(field, violationNonNegInt)
			return nil
		}

		parsed = n
	default:
		d.add(field, violationNonNegInt)
		return nil
	}

	if parsed < 0 {
		d.add(field, violationNonNegInt)
		return nil
	}

	return &parsed
}

// requiredBool decodes a mandatory boolean flag, accepting a JSON bool, a
// boolean string ("true", "false", "1", "0"), or the numbers 0 and 1.
func (d *decoder) requiredBool(field string) bool {
	value, ok := d.payload[field]
	if !ok || value == nil {
		d.add(field, violationRequired)
		return false
	}

	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			d.add(field, violationBoolean)
			return false
		}

		return parsed
	case float64:
		switch v {
		case 0:
			return false
		case 1:
			return true
		}
	}

	d.add(field, violationBoolean)

	return false
}
