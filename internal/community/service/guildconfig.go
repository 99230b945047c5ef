package service

import (
	"context"
	"errors"
	"strings"

	"fedreg/internal/models"
	"fedreg/internal/notify"
	"fedreg/pkg/apierrors"
	"fedreg/pkg/platform/sentinel"
	"fedreg/pkg/platform/setops"
)

// GuildConfigPatch is a partial update to a guild configuration. Nil fields
// keep the stored value; the api key is never settable through this path.
type GuildConfigPatch struct {
	RuleFilters        *[]string
	TrustedCommunities *[]string
	Roles              *models.RoleBindings
}

// SetGuildConfig applies a patch to the config the acting community owns for
// the guild. Rule and community references are validated against the
// catalog; role ids that fail to resolve are dropped without failing the
// write. The stored document is fully replaced and the change is announced.
func (s *Service) SetGuildConfig(ctx context.Context, acting *models.Community, guildID string, patch GuildConfigPatch) (*models.GuildConfig, error) {
	if acting == nil {
		return nil, apierrors.New(apierrors.CodeUnauthenticated, "your API key was invalid")
	}
	config, err := s.stores.GuildConfigs.FindOwned(ctx, acting.ID, guildID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apierrors.New(apierrors.CodeNotFound, "your community has no configuration for this guild")
	}
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "guild config lookup failed")
	}

	if patch.RuleFilters != nil {
		// Rule ids are matched case-insensitively by the stores, so the
		// stored filter set is lowercased to keep rule-deletion pulls exact.
		filters := setops.DedupeLower(*patch.RuleFilters)
		rules, err := s.stores.Rules.FindByIDs(ctx, filters)
		if err != nil {
			return nil, apierrors.Wrap(err, apierrors.CodeInternal, "rule validation failed")
		}
		known := make([]string, len(rules))
		for i, rule := range rules {
			known[i] = strings.ToLower(rule.ID)
		}
		if missing := unmatched(filters, known); len(missing) > 0 {
			return nil, apierrors.Newf(apierrors.CodeBadRequest, "ruleFilters references unknown rules: %s", strings.Join(missing, ", "))
		}
		config.RuleFilters = filters
	}
	if patch.TrustedCommunities != nil {
		trusted := setops.DedupeLower(*patch.TrustedCommunities)
		communities, err := s.stores.Communities.FindByIDs(ctx, trusted)
		if err != nil {
			return nil, apierrors.Wrap(err, apierrors.CodeInternal, "community validation failed")
		}
		known := make([]string, len(communities))
		for i, community := range communities {
			known[i] = strings.ToLower(community.ID)
		}
		if missing := unmatched(trusted, known); len(missing) > 0 {
			return nil, apierrors.Newf(apierrors.CodeBadRequest, "trustedCommunities references unknown communities: %s", strings.Join(missing, ", "))
		}
		config.TrustedCommunities = trusted
	}
	if patch.Roles != nil {
		roles, err := s.verifyRoles(ctx, config.Roles, *patch.Roles)
		if err != nil {
			return nil, err
		}
		config.Roles = roles
	}

	if err := s.stores.GuildConfigs.Replace(ctx, config); err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "guild config write failed")
	}
	if s.metrics != nil {
		s.metrics.GuildConfigsChanged.Inc()
	}
	redacted := config.Redacted()
	s.notifier.Emit(ctx, notify.Event{
		Kind:    notify.KindGuildConfigChanged,
		Payload: notify.GuildConfigPayload{Config: redacted},
	})
	s.logger.InfoContext(ctx, "guild config replaced",
		"guild_id", guildID,
		"community_id", acting.ID,
	)
	return &redacted, nil
}

// unmatched returns the requested ids absent from known, preserving request
// order so rejections name exactly what the caller sent.
func unmatched(requested, known []string) []string {
	var missing []string
	for _, id := range requested {
		if !setops.Contains(known, id) {
			missing = append(missing, id)
		}
	}
	return missing
}

// verifyRoles folds incoming bindings onto the current ones. A binding that
// does not resolve to a known role is ignored, keeping the stored value.
func (s *Service) verifyRoles(ctx context.Context, current, incoming models.RoleBindings) (models.RoleBindings, error) {
	apply := func(stored *string, roleID string) error {
		if roleID == "" || roleID == *stored {
			return nil
		}
		ok, err := s.verifier.ResolveRole(ctx, roleID)
		if err != nil {
			return apierrors.Wrap(err, apierrors.CodeUpstream, "role verification is unavailable")
		}
		if !ok {
			s.logger.WarnContext(ctx, "dropping unresolvable role binding", "role_id", roleID)
			return nil
		}
		*stored = roleID
		return nil
	}
	result := current
	for _, pair := range []struct {
		stored *string
		role   string
	}{
		{&result.Reports, incoming.Reports},
		{&result.Webhooks, incoming.Webhooks},
		{&result.SetConfig, incoming.SetConfig},
		{&result.SetRules, incoming.SetRules},
		{&result.SetCommunities, incoming.SetCommunities},
	} {
		if err := apply(pair.stored, pair.role); err != nil {
			return models.RoleBindings{}, err
		}
	}
	return result, nil
}

// CommunityConfigPatch is a partial update to the acting community's own
// record.
type CommunityConfigPatch struct {
	Name    *string
	Contact *string
}

// SetCommunityConfig updates the acting community's display name and contact.
// The id never changes, even when the name does.
func (s *Service) SetCommunityConfig(ctx context.Context, acting *models.Community, patch CommunityConfigPatch) (*models.Community, error) {
	if acting == nil {
		return nil, apierrors.New(apierrors.CodeUnauthenticated, "your API key was invalid")
	}
	community, err := s.stores.Communities.FindByID(ctx, acting.ID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apierrors.New(apierrors.CodeNotFound, "community not found")
	}
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "community lookup failed")
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apierrors.New(apierrors.CodeBadRequest, "community name must not be empty")
		}
		community.Name = name
	}
	if patch.Contact != nil {
		if _, err := s.requireContact(ctx, *patch.Contact); err != nil {
			return nil, err
		}
		community.Contact = *patch.Contact
	}

	if err := s.stores.Communities.Replace(ctx, community); err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "community write failed")
	}
	s.notifier.Emit(ctx, notify.Event{
		Kind:    notify.KindCommunityUpdated,
		Payload: notify.CommunityPayload{Community: *community, Contact: s.resolveContact(ctx, community.Contact)},
	})
	s.logger.InfoContext(ctx, "community config replaced", "community_id", community.ID)
	return community, nil
}

// NotifyGuildConfigChanged re-announces a guild's current configuration
// without mutating it. Consumers use this to force a refresh.
func (s *Service) NotifyGuildConfigChanged(ctx context.Context, guildID string) error {
	config, err := s.stores.GuildConfigs.FindByGuildID(ctx, guildID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return apierrors.New(apierrors.CodeNotFound, "guild config not found")
	}
	if err != nil {
		return apierrors.Wrap(err, apierrors.CodeInternal, "guild config lookup failed")
	}
	s.notifier.Emit(ctx, notify.Event{
		Kind:    notify.KindGuildConfigChanged,
		Payload: notify.GuildConfigPayload{Config: config.Redacted()},
	})
	return nil
}
