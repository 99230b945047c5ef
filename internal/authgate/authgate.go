// Package authgate classifies inbound credentials and attaches the acting
// community to the request context. Two gate levels exist: the member gate
// accepts any valid token; the master gate additionally requires a
// master-type token. Gate failures are terminal 401/403 responses, never
// retried.
package authgate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fedreg/internal/models"
	"fedreg/internal/platform/middleware"
	"fedreg/internal/store"
	"fedreg/pkg/apierrors"
	"fedreg/pkg/httputil"
	"fedreg/pkg/platform/sentinel"
)

const tokenPrefix = "Token "

type contextKeyCommunity struct{}

// ContextKeyCommunity is exported for tests that prime an authenticated
// request context directly.
var ContextKeyCommunity = contextKeyCommunity{}

// CommunityFrom retrieves the acting community attached by a gate.
func CommunityFrom(ctx context.Context) *models.Community {
	community, ok := ctx.Value(ContextKeyCommunity).(*models.Community)
	if !ok {
		return nil
	}
	return community
}

// WithCommunity attaches the acting community to a context.
func WithCommunity(ctx context.Context, community *models.Community) context.Context {
	return context.WithValue(ctx, ContextKeyCommunity, community)
}

// Gate resolves credentials against the auth store, optionally through a
// read-through cache.
type Gate struct {
	tokens      store.AuthStore
	communities store.CommunityStore
	cache       *TokenCache
	logger      *slog.Logger
}

type Option func(g *Gate)

// WithCache enables the api-key lookup cache.
func WithCache(cache *TokenCache) Option {
	return func(g *Gate) {
		g.cache = cache
	}
}

// New constructs a Gate.
func New(tokens store.AuthStore, communities store.CommunityStore, logger *slog.Logger, opts ...Option) *Gate {
	g := &Gate{tokens: tokens, communities: communities, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequireMember admits any valid token and attaches its community.
func (g *Gate) RequireMember(next http.Handler) http.Handler {
	return g.require(next, false)
}

// RequireMaster additionally requires a master-type token.
func (g *Gate) RequireMaster(next http.Handler) http.Handler {
	return g.require(next, true)
}

func (g *Gate) require(next http.Handler, master bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		community, token, err := g.resolve(ctx, r.Header.Get("Authorization"))
		if err != nil {
			g.logger.WarnContext(ctx, "request rejected by auth gate",
				"request_id", middleware.GetRequestID(ctx),
				"master_gate", master,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		if master && !token.IsMaster() {
			g.logger.WarnContext(ctx, "member token on master-gated operation",
				"request_id", middleware.GetRequestID(ctx),
				"community_id", community.ID,
			)
			httputil.WriteError(w, apierrors.New(apierrors.CodeUnauthorized, "this operation requires a master API key"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCommunity(ctx, community)))
	})
}

// resolve classifies the credential and loads the owning community.
func (g *Gate) resolve(ctx context.Context, credential string) (*models.Community, *models.AuthToken, error) {
	if credential == "" {
		return nil, nil, apierrors.New(apierrors.CodeUnauthenticated, "your API key was invalid")
	}
	apiKey, ok := strings.CutPrefix(credential, tokenPrefix)
	if !ok || apiKey == "" {
		return nil, nil, apierrors.New(apierrors.CodeUnauthenticated, "your API key was invalid")
	}

	token, err := g.lookupToken(ctx, apiKey)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, apierrors.New(apierrors.CodeUnauthenticated, "your API key was invalid")
	}
	if err != nil {
		return nil, nil, apierrors.Wrap(err, apierrors.CodeUpstream, "credential lookup failed")
	}

	// Master tokens may exist without a community (the seeded boot key).
	if token.CommunityID == "" {
		if token.IsMaster() {
			return nil, token, nil
		}
		return nil, nil, apierrors.New(apierrors.CodeUnauthenticated, "your API key was invalid")
	}
	community, err := g.communities.FindByID(ctx, token.CommunityID)
	if errors.Is(err, sentinel.ErrNotFound) {
		if token.IsMaster() {
			return nil, token, nil
		}
		// Token survived its community (mid-cascade read); treat as invalid.
		return nil, nil, apierrors.New(apierrors.CodeUnauthenticated, "your API key was invalid")
	}
	if err != nil {
		return nil, nil, apierrors.Wrap(err, apierrors.CodeUpstream, "community lookup failed")
	}
	return community, token, nil
}

func (g *Gate) lookupToken(ctx context.Context, apiKey string) (*models.AuthToken, error) {
	if g.cache == nil {
		return g.tokens.FindByAPIKey(ctx, apiKey)
	}
	if token, ok := g.cache.Get(ctx, apiKey); ok {
		return token, nil
	}
	token, err := g.tokens.FindByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	g.cache.Put(ctx, *token)
	return token, nil
}
