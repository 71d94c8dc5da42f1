package settings_test

import (
	"testing"

	"github.com/striketeam/warden/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGuildID = "100200300400500600"

// validPayload returns a payload that passes every schema check.
func validPayload() string {
	return `{
		"welcomeChannelId": "111",
		"goodbyeChannelId": "222",
		"logChannelId": "333",
		"botAnnouncementsChannelId": "444",
		"raidsTd2ChannelId": "555",
		"muteRoleId": "666",
		"maxWarnsKick": 3,
		"warnDecayDays": "30",
		"automodEnabled": true,
		"blockInvites": "false",
		"blockLinks": 0
	}`
}

func TestDecodeConfigValid(t *testing.T) {
	t.Parallel()

	config, err := settings.DecodeConfig(testGuildID, []byte(validPayload()))
	require.NoError(t, err)

	assert.Equal(t, testGuildID, config.Channels.GuildID)
	assert.Equal(t, testGuildID, config.Roles.GuildID)
	assert.Equal(t, testGuildID, config.Moderation.GuildID)

	assert.Equal(t, "111", config.Channels.WelcomeChannelID)
	assert.Equal(t, "444", config.Channels.BotAnnouncementsChannelID)

	require.NotNil(t, config.Channels.RaidsTD2ChannelID)
	assert.Equal(t, "555", *config.Channels.RaidsTD2ChannelID)
	assert.Nil(t, config.Channels.IncursionChannelID)
	assert.Nil(t, config.Roles.RaidManagerRoleID)

	require.NotNil(t, config.Moderation.MaxWarnsKick)
	assert.Equal(t, int64(3), *config.Moderation.MaxWarnsKick)
	require.NotNil(t, config.Moderation.WarnDecayDays)
	assert.Equal(t, int64(30), *config.Moderation.WarnDecayDays)
	assert.Nil(t, config.Moderation.MaxWarnsBanDays)

	assert.True(t, config.Moderation.AutomodEnabled)
	assert.False(t, config.Moderation.BlockInvites)
	assert.False(t, config.Moderation.BlockLinks)
}

func TestDecodeConfigMalformed(t *testing.T) {
	t.Parallel()

	_, err := settings.DecodeConfig(testGuildID, []byte(`{"welcomeChannelId": `))
	require.ErrorIs(t, err, settings.ErrMalformedPayload)
}

func TestDecodeConfigMissingRequiredChannel(t *testing.T) {
	t.Parallel()

	payload := `{
		"goodbyeChannelId": "222",
		"logChannelId": "333",
		"botAnnouncementsChannelId": "444",
		"automodEnabled": true,
		"blockInvites": false,
		"blockLinks": false
	}`

	_, err := settings.DecodeConfig(testGuildID, []byte(payload))

	var validationErr *settings.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Details, "welcomeChannelId")
}

func TestDecodeConfigCollectsAllViolations(t *testing.T) {
	t.Parallel()

	// Every field here is broken in a different way; all of them must be
	// reported in one pass.
	payload := `{
		"welcomeChannelId": "",
		"goodbyeChannelId": 42,
		"botAnnouncementsChannelId": "444",
		"maxWarnsKick": -1,
		"capsThreshold": 1.5,
		"automodEnabled": "maybe",
		"blockInvites": true,
		"blockLinks": false
	}`

	_, err := settings.DecodeConfig(testGuildID, []byte(payload))

	var validationErr *settings.ValidationError
	require.ErrorAs(t, err, &validationErr)

	assert.Len(t, validationErr.Details, 6)
	assert.Equal(t, []string{"must not be empty"}, validationErr.Details["welcomeChannelId"])
	assert.Equal(t, []string{"must be a string"}, validationErr.Details["goodbyeChannelId"])
	assert.Equal(t, []string{"required"}, validationErr.Details["logChannelId"])
	assert.Equal(t, []string{"must be a non-negative integer"}, validationErr.Details["maxWarnsKick"])
	assert.Equal(t, []string{"must be an integer"}, validationErr.Details["capsThreshold"])
	assert.Equal(t, []string{"must be a boolean"}, validationErr.Details["automodEnabled"])
}

func TestDecodeConfigOptionalNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  *string
	}{
		{name: "absent stays nil", value: "", want: nil},
		{name: "null stays nil", value: `"raidManagerRoleId": null,`, want: nil},
		{name: "empty string clears", value: `"raidManagerRoleId": "",`, want: nil},
		{name: "value kept", value: `"raidManagerRoleId": "777",`, want: ptr("777")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload := `{` + tt.value + `
				"welcomeChannelId": "111",
				"goodbyeChannelId": "222",
				"logChannelId": "333",
				"botAnnouncementsChannelId": "444",
				"automodEnabled": true,
				"blockInvites": false,
				"blockLinks": false
			}`

			config, err := settings.DecodeConfig(testGuildID, []byte(payload))
			require.NoError(t, err)

			if tt.want == nil {
				assert.Nil(t, config.Roles.RaidManagerRoleID)
			} else {
				require.NotNil(t, config.Roles.RaidManagerRoleID)
				assert.Equal(t, *tt.want, *config.Roles.RaidManagerRoleID)
			}
		})
	}
}

func TestDecodeConfigCountCoercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		want    *int64
		invalid bool
	}{
		{name: "number", value: `5`, want: ptr(int64(5))},
		{name: "zero", value: `0`, want: ptr(int64(0))},
		{name: "numeric string", value: `"15"`, want: ptr(int64(15))},
		{name: "empty string coerces to zero", value: `""`, want: ptr(int64(0))},
		{name: "padded numeric string", value: `" 7 "`, want: ptr(int64(7))},
		{name: "null stays nil", value: `null`, want: nil},
		{name: "negative number", value: `-3`, invalid: true},
		{name: "negative string", value: `"-3"`, invalid: true},
		{name: "fractional", value: `2.5`, invalid: true},
		{name: "non-numeric string", value: `"soon"`, invalid: true},
		{name: "boolean", value: `true`, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload := `{
				"welcomeChannelId": "111",
				"goodbyeChannelId": "222",
				"logChannelId": "333",
				"botAnnouncementsChannelId": "444",
				"automodEnabled": true,
				"blockInvites": false,
				"blockLinks": false,
				"mentionThreshold": ` + tt.value + `
			}`

			config, err := settings.DecodeConfig(testGuildID, []byte(payload))

			if tt.invalid {
				var validationErr *settings.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Contains(t, validationErr.Details, "mentionThreshold")

				return
			}

			require.NoError(t, err)

			if tt.want == nil {
				assert.Nil(t, config.Moderation.MentionThreshold)
			} else {
				require.NotNil(t, config.Moderation.MentionThreshold)
				assert.Equal(t, *tt.want, *config.Moderation.MentionThreshold)
			}
		})
	}
}

func TestDecodeConfigBoolCoercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		want    bool
		invalid bool
	}{
		{name: "true", value: `true`, want: true},
		{name: "false", value: `false`, want: false},
		{name: "string true", value: `"true"`, want: true},
		{name: "string false", value: `"false"`, want: false},
		{name: "string one", value: `"1"`, want: true},
		{name: "string zero", value: `"0"`, want: false},
		{name: "number one", value: `1`, want: true},
		{name: "number zero", value: `0`, want: false},
		{name: "other number", value: `2`, invalid: true},
		{name: "other string", value: `"yes please"`, invalid: true},
		{name: "null", value: `null`, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload := `{
				"welcomeChannelId": "111",
				"goodbyeChannelId": "222",
				"logChannelId": "333",
				"botAnnouncementsChannelId": "444",
				"automodEnabled": ` + tt.value + `,
				"blockInvites": false,
				"blockLinks": false
			}`

			config, err := settings.DecodeConfig(testGuildID, []byte(payload))

			if tt.invalid {
				var validationErr *settings.ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Contains(t, validationErr.Details, "automodEnabled")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, config.Moderation.AutomodEnabled)
		})
	}
}

func TestDecodeConfigIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	payload := `{
		"welcomeChannelId": "111",
		"goodbyeChannelId": "222",
		"logChannelId": "333",
		"botAnnouncementsChannelId": "444",
		"automodEnabled": true,
		"blockInvites": false,
		"blockLinks": false,
		"someFutureField": {"nested": true}
	}`

	_, err := settings.DecodeConfig(testGuildID, []byte(payload))
	require.NoError(t, err)
}

func ptr[T any](v T) *T {
	return &v
}
