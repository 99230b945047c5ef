// Package store declares the per-collection record store contracts the
// services depend on. Implementations return sentinel errors
// (sentinel.ErrNotFound, sentinel.ErrConflict); services translate those
// into coded domain errors.
//
// The mutating operations are deliberately idempotent: deleting documents
// that are already gone and pulling absent set members succeed with zero
// matches. The lifecycle cascades rely on this to be safely re-runnable
// after a partial failure.
package store

import (
	"context"

	"fedreg/internal/models"
)

// CommunityStore addresses the Community collection.
type CommunityStore interface {
	Find(ctx context.Context) ([]models.Community, error)
	// FindByID matches the id case-insensitively (ids are lowercase slugs;
	// lookups tolerate mixed-case input).
	FindByID(ctx context.Context, id string) (*models.Community, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Community, error)
	// FindByGuildID returns the community whose GuildIDs set contains the
	// guild, if any.
	FindByGuildID(ctx context.Context, guildID string) (*models.Community, error)
	// Create fails with sentinel.ErrConflict when the id is taken.
	Create(ctx context.Context, community *models.Community) error
	// Replace performs a full replacement write keyed by id.
	Replace(ctx context.Context, community *models.Community) error
	// AddGuildIDs set-inserts guild ids into the community's GuildIDs.
	AddGuildIDs(ctx context.Context, id string, guildIDs []string) error
	// PullGuildID removes a guild id from the community's GuildIDs set.
	PullGuildID(ctx context.Context, id, guildID string) error
	// Delete fails with sentinel.ErrNotFound when the community is absent.
	Delete(ctx context.Context, id string) error
}

// GuildConfigStore addresses the GuildConfig collection.
type GuildConfigStore interface {
	FindByGuildID(ctx context.Context, guildID string) (*models.GuildConfig, error)
	FindByCommunityID(ctx context.Context, communityID string) ([]models.GuildConfig, error)
	FindByCommunityIDs(ctx context.Context, communityIDs []string) ([]models.GuildConfig, error)
	// FindOwned returns the config for guildID owned by communityID, if any.
	FindOwned(ctx context.Context, communityID, guildID string) (*models.GuildConfig, error)
	// FindTrusting returns every config whose TrustedCommunities set lists
	// the community.
	FindTrusting(ctx context.Context, communityID string) ([]models.GuildConfig, error)
	Create(ctx context.Context, config *models.GuildConfig) error
	// Replace performs a full replacement write keyed by guild id.
	Replace(ctx context.Context, config *models.GuildConfig) error
	// BindGuild repoints every config for guildID to communityID.
	BindGuild(ctx context.Context, guildID, communityID string) error
	// RepointCommunity repoints every config owned by fromID to toID. When
	// apiKey is non-empty the repointed configs' APIKey is overwritten with
	// it; when empty the existing per-guild key is left untouched.
	RepointCommunity(ctx context.Context, fromID, toID, apiKey string) error
	// AddTrustedWhereTrusts set-inserts addID into the TrustedCommunities of
	// every config currently trusting trustsID.
	AddTrustedWhereTrusts(ctx context.Context, trustsID, addID string) error
	// PullTrusted removes communityID from every config's
	// TrustedCommunities set.
	PullTrusted(ctx context.Context, communityID string) error
	// PullRuleFilter removes ruleID from every config's RuleFilters set.
	PullRuleFilter(ctx context.Context, ruleID string) error
	DeleteByCommunityID(ctx context.Context, communityID string) error
	DeleteByGuildID(ctx context.Context, guildID string) error
}

// AuthStore addresses the AuthToken collection.
type AuthStore interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*models.AuthToken, error)
	FindByCommunityID(ctx context.Context, communityID string) (*models.AuthToken, error)
	Create(ctx context.Context, token *models.AuthToken) error
	DeleteByCommunityID(ctx context.Context, communityID string) error
}

// ReportStore covers the cascade surface of the Report collection.
type ReportStore interface {
	FindByCommunityID(ctx context.Context, communityID string) ([]models.Report, error)
	Create(ctx context.Context, report *models.Report) error
	// RepointCommunity re-owns every report of fromID to toID.
	RepointCommunity(ctx context.Context, fromID, toID string) error
	DeleteByCommunityID(ctx context.Context, communityID string) error
}

// RevocationStore covers the cascade surface of the Revocation collection.
type RevocationStore interface {
	FindByCommunityID(ctx context.Context, communityID string) ([]models.Revocation, error)
	Create(ctx context.Context, revocation *models.Revocation) error
	RepointCommunity(ctx context.Context, fromID, toID string) error
	DeleteByCommunityID(ctx context.Context, communityID string) error
}

// WebhookStore covers the cascade surface of the Webhook collection.
type WebhookStore interface {
	FindByGuildID(ctx context.Context, guildID string) ([]models.Webhook, error)
	Create(ctx context.Context, webhook *models.Webhook) error
	DeleteByGuildIDs(ctx context.Context, guildIDs []string) error
}

// RuleStore addresses the Rule collection.
type RuleStore interface {
	Find(ctx context.Context) ([]models.Rule, error)
	FindByID(ctx context.Context, id string) (*models.Rule, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Rule, error)
	Create(ctx context.Context, rule *models.Rule) error
	Replace(ctx context.Context, rule *models.Rule) error
	Delete(ctx context.Context, id string) error
}

// Stores bundles one implementation of every collection for wiring.
type Stores struct {
	Communities  CommunityStore
	GuildConfigs GuildConfigStore
	Auth         AuthStore
	Reports      ReportStore
	Revocations  RevocationStore
	Webhooks     WebhookStore
	Rules        RuleStore
}
