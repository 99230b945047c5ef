package authgate

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedreg/internal/models"
	"fedreg/internal/store"
	"fedreg/internal/store/memory"
)

const (
	memberKey = "member-key"
	masterKey = "master-key"
)

func newGate(t *testing.T) (*Gate, store.Stores) {
	t.Helper()
	stores := memory.NewStores()
	ctx := context.Background()

	require.NoError(t, stores.Communities.Create(ctx, &models.Community{ID: "acme", Name: "Acme"}))
	require.NoError(t, stores.Auth.Create(ctx, &models.AuthToken{
		CommunityID: "acme",
		APIKey:      memberKey,
		APIKeyType:  models.APIKeyTypeMember,
	}))
	require.NoError(t, stores.Auth.Create(ctx, &models.AuthToken{
		APIKey:     masterKey,
		APIKeyType: models.APIKeyTypeMaster,
	}))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return New(stores.Auth, stores.Communities, logger), stores
}

// echoCommunity reports which community the gate attached.
func echoCommunity(w http.ResponseWriter, r *http.Request) {
	if c := CommunityFrom(r.Context()); c != nil {
		w.Write([]byte(c.ID))
		return
	}
	w.Write([]byte("none"))
}

func request(authorization string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

func TestMemberGate(t *testing.T) {
	gate, _ := newGate(t)
	handler := gate.RequireMember(http.HandlerFunc(echoCommunity))

	cases := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"missing credential", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Bearer " + memberKey, http.StatusUnauthorized, ""},
		{"prefix only", "Token ", http.StatusUnauthorized, ""},
		{"unknown key", "Token nope", http.StatusUnauthorized, ""},
		{"member key admitted", "Token " + memberKey, http.StatusOK, "acme"},
		{"master key admitted", "Token " + masterKey, http.StatusOK, "none"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, request(tc.header))
			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, rec.Body.String())
			}
		})
	}
}

func TestMasterGate(t *testing.T) {
	gate, _ := newGate(t)
	handler := gate.RequireMaster(http.HandlerFunc(echoCommunity))

	t.Run("member key is forbidden, not unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request("Token "+memberKey))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown key stays unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request("Token nope"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("master key admitted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, request("Token "+masterKey))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGateRejectsTokenOfDeletedCommunity(t *testing.T) {
	gate, stores := newGate(t)
	handler := gate.RequireMember(http.HandlerFunc(echoCommunity))

	require.NoError(t, stores.Communities.Delete(context.Background(), "acme"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, request("Token "+memberKey))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
