package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedreg/internal/authgate"
	"fedreg/internal/community/service"
	"fedreg/internal/discord"
	"fedreg/internal/models"
	"fedreg/internal/notify"
	"fedreg/internal/store"
	"fedreg/internal/store/memory"
)

const masterKey = "master-key"

type fixture struct {
	router http.Handler
	stores store.Stores
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stores := memory.NewStores()
	ctx := context.Background()
	require.NoError(t, stores.Auth.Create(ctx, &models.AuthToken{
		APIKey:     masterKey,
		APIKeyType: models.APIKeyTypeMaster,
	}))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	notifier := notify.New(notify.NewMemorySink(), logger, notify.WithInterval(time.Millisecond))
	svc := service.New(stores, discord.AllowAllVerifier{}, notifier, logger)
	gate := authgate.New(stores.Auth, stores.Communities, logger)

	router := chi.NewRouter()
	New(svc, gate, logger).Register(router)
	return &fixture{router: router, stores: stores}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&value))
	return value
}

type communityBody struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Contact  string   `json:"contact"`
	GuildIDs []string `json:"guildIds"`
}

type createBody struct {
	Community communityBody `json:"community"`
	APIKey    string        `json:"apiKey"`
}

func (f *fixture) createCommunity(t *testing.T, name string) createBody {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/communities", masterKey, map[string]string{
		"name":    name,
		"contact": "user-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[createBody](t, rec)
}

func TestCreateRequiresMasterKey(t *testing.T) {
	f := newFixture(t)
	payload := map[string]string{"name": "Acme", "contact": "user-1"}

	rec := f.do(t, http.MethodPost, "/communities", "", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	created := f.createCommunity(t, "Acme")
	rec = f.do(t, http.MethodPost, "/communities", created.APIKey, map[string]string{
		"name": "Other", "contact": "user-1",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateAndReadCommunities(t *testing.T) {
	f := newFixture(t)
	created := f.createCommunity(t, "Test Community")
	assert.Equal(t, "test-community", created.Community.ID)
	assert.NotEmpty(t, created.APIKey)

	rec := f.do(t, http.MethodGet, "/communities", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]communityBody](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "test-community", list[0].ID)

	rec = f.do(t, http.MethodGet, "/communities/test-community", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Test Community", decode[communityBody](t, rec).Name)

	rec = f.do(t, http.MethodGet, "/communities/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDuplicateNameConflicts(t *testing.T) {
	f := newFixture(t)
	f.createCommunity(t, "Alpha")

	rec := f.do(t, http.MethodPost, "/communities", masterKey, map[string]string{
		"name": "ALPHA", "contact": "user-1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetOwn(t *testing.T) {
	f := newFixture(t)
	created := f.createCommunity(t, "Own Goal")

	rec := f.do(t, http.MethodGet, "/communities/getown", created.APIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Community.ID, decode[communityBody](t, rec).ID)

	rec = f.do(t, http.MethodGet, "/communities/getown", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteCommunity(t *testing.T) {
	f := newFixture(t)
	created := f.createCommunity(t, "Doomed")

	rec := f.do(t, http.MethodDelete, "/communities/"+created.Community.ID, masterKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":true}`, rec.Body.String())

	// The member key died with its community.
	rec = f.do(t, http.MethodGet, "/communities/getown", created.APIKey, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodDelete, "/communities/"+created.Community.ID, masterKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMergeEndpoint(t *testing.T) {
	f := newFixture(t)
	receiving := f.createCommunity(t, "Receiving")
	dissolving := f.createCommunity(t, "Dissolving")

	rec := f.do(t, http.MethodPost, "/communities/"+receiving.Community.ID+"/merge/"+dissolving.Community.ID, masterKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, receiving.Community.ID, decode[communityBody](t, rec).ID)

	rec = f.do(t, http.MethodGet, "/communities/"+dissolving.Community.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGuildConfigRoundTrip(t *testing.T) {
	f := newFixture(t)
	created := f.createCommunity(t, "Config Owner")
	ctx := context.Background()
	require.NoError(t, f.stores.GuildConfigs.Create(ctx, &models.GuildConfig{
		GuildID:     "guild-1",
		CommunityID: created.Community.ID,
		APIKey:      "guild-secret",
	}))

	rec := f.do(t, http.MethodPost, "/communities/guildconfig/guild-1", created.APIKey, map[string]any{
		"trustedCommunities": []string{created.Community.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/communities/guildconfig/guild-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var config map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &config))
	assert.Equal(t, "guild-1", config["guildId"])
	assert.NotContains(t, rec.Body.String(), "guild-secret")

	rec = f.do(t, http.MethodPost, "/communities/guildconfig/guild-1", "", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuildLeaveAndNotify(t *testing.T) {
	f := newFixture(t)
	created := f.createCommunity(t, "Host")
	ctx := context.Background()
	require.NoError(t, f.stores.GuildConfigs.Create(ctx, &models.GuildConfig{
		GuildID:     "guild-1",
		CommunityID: created.Community.ID,
	}))

	rec := f.do(t, http.MethodPost, "/communities/notifyGuildConfigChanged/guild-1", masterKey, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPost, "/communities/guildLeave/guild-1", masterKey, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/communities/guildconfig/guild-1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/communities/notifyGuildConfigChanged/guild-1", masterKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
