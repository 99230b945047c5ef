package rules

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
	"fedreg/internal/models"
	"fedreg/internal/notify"
	"fedreg/internal/store"
	"fedreg/internal/store/memory"
)

const masterKey = "master-key"

type fixture struct {
	router  http.Handler
	stores  store.Stores
	sink    *notify.MemorySink
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	stores := memory.NewStores()
	require.NoError(t, stores.Auth.Create(context.Background(), &models.AuthToken{
		APIKey:     masterKey,
		APIKeyType: models.APIKeyTypeMaster,
	}))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	sink := notify.NewMemorySink()
	notifier := notify.New(sink, logger, notify.WithInterval(time.Millisecond))
	svc := NewService(stores.Rules, stores.GuildConfigs, notifier, logger)
	gate := authgate.New(stores.Auth, stores.Communities, logger)

	router := chi.NewRouter()
	NewHandler(svc, gate, logger).Register(router)
	return &fixture{router: router, stores: stores, sink: sink, service: svc}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestRuleCatalogOverHTTP(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/rules", masterKey, map[string]string{
		"shortdesc": "no griefing",
		"longdesc":  "destroying other players' builds",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Rule
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)

	rec = f.do(t, http.MethodGet, "/rules", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Rule
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list, 1)

	rec = f.do(t, http.MethodPatch, "/rules/"+created.ID, masterKey, map[string]string{
		"shortdesc": "no griefing at all",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Rule
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "no griefing at all", updated.ShortDesc)
	assert.Equal(t, created.LongDesc, updated.LongDesc)

	rec = f.do(t, http.MethodGet, "/rules/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRuleMutationsAreMasterGated(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/rules", "", map[string]string{"shortdesc": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodDelete, "/rules/whatever", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRuleDeleteCascadesIntoFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rule, err := f.service.Create(ctx, "no spam", "")
	require.NoError(t, err)
	keeper, err := f.service.Create(ctx, "no griefing", "")
	require.NoError(t, err)

	require.NoError(t, f.stores.GuildConfigs.Create(ctx, &models.GuildConfig{
		GuildID:     "guild-1",
		RuleFilters: []string{rule.ID, keeper.ID},
	}))
	require.NoError(t, f.stores.GuildConfigs.Create(ctx, &models.GuildConfig{
		GuildID:     "guild-2",
		RuleFilters: []string{rule.ID},
	}))

	rec := f.do(t, http.MethodDelete, "/rules/"+rule.ID, masterKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	one, err := f.stores.GuildConfigs.FindByGuildID(ctx, "guild-1")
	require.NoError(t, err)
	assert.Equal(t, []string{keeper.ID}, one.RuleFilters)
	two, err := f.stores.GuildConfigs.FindByGuildID(ctx, "guild-2")
	require.NoError(t, err)
	assert.Empty(t, two.RuleFilters)

	removed := f.sink.ByKind(notify.KindRuleRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, rule.ID, removed[0].Payload.(notify.RulePayload).Rule.ID)
}
