package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/striketeam/warden/internal/database/types"
	"github.com/striketeam/warden/internal/rest/handler"
	restTypes "github.com/striketeam/warden/internal/rest/types"
	"github.com/striketeam/warden/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// stubStore fails with err when set, otherwise records the saved config.
type stubStore struct {
	saved *types.GuildConfig
	err   error
}

func (s *stubStore) SaveConfig(_ context.Context, config *types.GuildConfig) error {
	if s.err != nil {
		return s.err
	}

	s.saved = config

	return nil
}

func setupRouter(store *stubStore) *bunrouter.Router {
	pipeline := settings.NewPipeline(store, zap.NewNop())
	h := handler.NewSettingsHandler(pipeline, zap.NewNop())

	router := bunrouter.New()
	router.POST("/v1/guilds/:guildId/settings", h.SaveSettings)

	return router
}

func postSettings(t *testing.T, router *bunrouter.Router, guildID, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(
		http.MethodPost, "/v1/guilds/"+guildID+"/settings", strings.NewReader(body),
	)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

const validBody = `{
	"welcomeChannelId": "111",
	"goodbyeChannelId": "222",
	"logChannelId": "333",
	"botAnnouncementsChannelId": "444",
	"automodEnabled": true,
	"blockInvites": false,
	"blockLinks": false
}`

func TestSaveSettingsSuccess(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	router := setupRouter(store)

	w := postSettings(t, router, "123", validBody)
	require.Equal(t, http.StatusOK, w.Code)

	var resp restTypes.AckResponse
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)

	require.NotNil(t, store.saved)
	assert.Equal(t, "123", store.saved.Channels.GuildID)
	assert.Equal(t, "111", store.saved.Channels.WelcomeChannelID)
}

func TestSaveSettingsMalformedBody(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	router := setupRouter(store)

	w := postSettings(t, router, "123", `{"welcomeChannelId":`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp restTypes.ErrorResponse
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "request body is not valid JSON", resp.Error)
	assert.Nil(t, store.saved)
}

func TestSaveSettingsValidationDetails(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	router := setupRouter(store)

	// welcomeChannelId missing and one threshold negative; both must show up
	body := `{
		"goodbyeChannelId": "222",
		"logChannelId": "333",
		"botAnnouncementsChannelId": "444",
		"maxWarnsKick": -1,
		"automodEnabled": true,
		"blockInvites": false,
		"blockLinks": false
	}`

	w := postSettings(t, router, "123", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp restTypes.ErrorResponse
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation error", resp.Error)
	assert.Equal(t, []string{"required"}, resp.Details["welcomeChannelId"])
	assert.Equal(t, []string{"must be a non-negative integer"}, resp.Details["maxWarnsKick"])
	assert.Nil(t, store.saved)
}

func TestSaveSettingsStoreFailure(t *testing.T) {
	t.Parallel()

	store := &stubStore{err: errors.New("connection refused")}
	router := setupRouter(store)

	w := postSettings(t, router, "123", validBody)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp restTypes.ErrorResponse
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed to save settings, please try again later", resp.Error)
	assert.Empty(t, resp.Details)
}
