package authgate

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"fedreg/internal/models"
	platformredis "fedreg/internal/platform/redis"
)

// TokenCache is a redis read-through cache for api-key lookups. Every
// authenticated request hits the gate, so the token lookup is the hottest
// store query in the system. Cache misses and redis failures fall through
// to the store; the cache is never authoritative.
type TokenCache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewTokenCache wraps a redis client. TTL bounds staleness after a token is
// deleted out-of-band; lifecycle operations invalidate explicitly.
func NewTokenCache(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *TokenCache {
	return &TokenCache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(apiKey string) string {
	return "fedreg:token:" + apiKey
}

// Get returns the cached token, if present.
func (c *TokenCache) Get(ctx context.Context, apiKey string) (*models.AuthToken, bool) {
	raw, err := c.client.Get(ctx, cacheKey(apiKey)).Bytes()
	if err != nil {
		return nil, false
	}
	var token models.AuthToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, false
	}
	return &token, true
}

// Put stores a token lookup result.
func (c *TokenCache) Put(ctx context.Context, token models.AuthToken) {
	raw, err := json.Marshal(token)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(token.APIKey), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "token cache write failed", "error", err)
	}
}

// Invalidate drops a cached token after deletion or dissolution.
func (c *TokenCache) Invalidate(ctx context.Context, apiKey string) {
	if err := c.client.Del(ctx, cacheKey(apiKey)).Err(); err != nil {
		c.logger.WarnContext(ctx, "token cache invalidation failed", "error", err)
	}
}
