// Package service implements the community lifecycle engine: registration,
// deletion, merges, guild binding, and the per-guild configuration writes.
// Every mutation here keeps the cross-collection references consistent and
// reports the change through the notifier.
package service

import (
	"context"
	"errors"
	"log/slog"

	"fedreg/internal/discord"
	"fedreg/internal/models"
	"fedreg/internal/notify"
	"fedreg/internal/platform/metrics"
	"fedreg/internal/store"
	"fedreg/pkg/apierrors"
	"fedreg/pkg/platform/sentinel"
)

// CredentialInvalidator drops cached credential lookups after a token is
// destroyed, so a deleted or dissolved community's key stops working at
// once instead of after the cache TTL.
type CredentialInvalidator interface {
	Invalidate(ctx context.Context, apiKey string)
}

// Service owns the community and guild-config collections.
type Service struct {
	stores      store.Stores
	verifier    discord.Verifier
	notifier    *notify.Notifier
	logger      *slog.Logger
	metrics     *metrics.Metrics
	invalidator CredentialInvalidator
}

type Option func(s *Service)

// WithMetrics enables lifecycle counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCredentialInvalidator hooks token destruction up to the auth gate's
// lookup cache.
func WithCredentialInvalidator(inv CredentialInvalidator) Option {
	return func(s *Service) {
		s.invalidator = inv
	}
}

// New constructs the lifecycle service.
func New(stores store.Stores, verifier discord.Verifier, notifier *notify.Notifier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		stores:   stores,
		verifier: verifier,
		notifier: notifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every registered community.
func (s *Service) List(ctx context.Context) ([]models.Community, error) {
	communities, err := s.stores.Communities.Find(ctx)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "listing communities failed")
	}
	return communities, nil
}

// Get returns one community by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Community, error) {
	community, err := s.stores.Communities.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apierrors.New(apierrors.CodeNotFound, "community not found")
	}
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "community lookup failed")
	}
	return community, nil
}

// GetGuildConfig returns the redacted configuration for a guild.
func (s *Service) GetGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	config, err := s.stores.GuildConfigs.FindByGuildID(ctx, guildID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apierrors.New(apierrors.CodeNotFound, "guild config not found")
	}
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "guild config lookup failed")
	}
	redacted := config.Redacted()
	return &redacted, nil
}

// resolveContact fetches a contact profile on a best-effort basis for
// notification payloads. Lookup failures degrade to an absent contact.
func (s *Service) resolveContact(ctx context.Context, userID string) *discord.User {
	user, err := s.verifier.ResolveUser(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "contact resolution failed, emitting without profile",
			"user_id", userID,
			"error", err,
		)
		return nil
	}
	return user
}

// requireContact fetches a contact profile where validation depends on it.
func (s *Service) requireContact(ctx context.Context, userID string) (*discord.User, error) {
	user, err := s.verifier.ResolveUser(ctx, userID)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeUpstream, "contact verification is unavailable")
	}
	if user == nil {
		return nil, apierrors.New(apierrors.CodeBadRequest, "contact does not resolve to a known user")
	}
	if user.Bot {
		return nil, apierrors.New(apierrors.CodeBadRequest, "contact must not be a bot account")
	}
	return user, nil
}
