package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fedreg/internal/models"
	"fedreg/internal/notify"
	"fedreg/pkg/apierrors"
	"fedreg/pkg/platform/sentinel"
	"fedreg/pkg/platform/setops"
	"fedreg/pkg/secrets"
	"fedreg/pkg/slug"
)

// CreateParams carries the registration input.
type CreateParams struct {
	Name    string
	Contact string
	// GuildID optionally binds an existing guild configuration to the new
	// community at creation time.
	GuildID string
}

// CreateResult pairs the new community with its member API key. The key is
// returned here and nowhere else.
type CreateResult struct {
	Community models.Community
	APIKey    string
}

// Create registers a community, mints its member token, and optionally binds
// a guild. The id is derived from the name, so registration of a name whose
// slug is taken fails with a conflict.
func (s *Service) Create(ctx context.Context, params CreateParams) (*CreateResult, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, apierrors.New(apierrors.CodeBadRequest, "community name must not be empty")
	}
	id := slug.Make(name)
	if id == "" {
		return nil, apierrors.New(apierrors.CodeBadRequest, "community name must contain letters or digits")
	}
	contact, err := s.requireContact(ctx, params.Contact)
	if err != nil {
		return nil, err
	}
	if params.GuildID != "" {
		ok, err := s.verifier.ResolveGuild(ctx, params.GuildID)
		if err != nil {
			return nil, apierrors.Wrap(err, apierrors.CodeUpstream, "guild verification is unavailable")
		}
		if !ok {
			return nil, apierrors.New(apierrors.CodeBadRequest, "guild does not resolve")
		}
	}

	community := models.Community{
		ID:       id,
		Name:     name,
		Contact:  params.Contact,
		GuildIDs: []string{},
	}
	if params.GuildID != "" {
		community.GuildIDs = []string{params.GuildID}
	}
	if err := s.stores.Communities.Create(ctx, &community); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, apierrors.Newf(apierrors.CodeConflict, "community id %q is already registered", id)
		}
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "community creation failed")
	}

	apiKey, err := secrets.GenerateAPIKey()
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "api key generation failed")
	}
	token := models.AuthToken{
		CommunityID: community.ID,
		APIKey:      apiKey,
		APIKeyType:  models.APIKeyTypeMember,
	}
	if err := s.stores.Auth.Create(ctx, &token); err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "token creation failed")
	}

	if params.GuildID != "" {
		// An unbound config created before registration adopts the community.
		if err := s.stores.GuildConfigs.BindGuild(ctx, params.GuildID, community.ID); err != nil {
			return nil, apierrors.Wrap(err, apierrors.CodeInternal, "guild binding failed")
		}
	}

	if s.metrics != nil {
		s.metrics.CommunitiesCreated.Inc()
	}
	s.notifier.Emit(ctx, notify.Event{
		Kind:    notify.KindCommunityCreated,
		Payload: notify.CommunityPayload{Community: community, Contact: contact},
	})
	s.logger.InfoContext(ctx, "community created", "community_id", community.ID, "name", community.Name)

	return &CreateResult{Community: community, APIKey: apiKey}, nil
}

// Delete removes a community and every record hanging off it. The cascade
// steps run in a fixed order and are each idempotent, so a partial failure
// can be recovered by re-issuing the delete. There is no rollback.
func (s *Service) Delete(ctx context.Context, id string) error {
	community, err := s.stores.Communities.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return apierrors.New(apierrors.CodeNotFound, "community not found")
	}
	if err != nil {
		return apierrors.Wrap(err, apierrors.CodeInternal, "community lookup failed")
	}

	// Guild ids are captured from the owned configs before those configs are
	// destroyed; the webhook cleanup below needs them.
	owned, err := s.stores.GuildConfigs.FindByCommunityID(ctx, community.ID)
	if err != nil {
		return s.cascadeFailed(ctx, "delete", community.ID, "collect owned configs", err)
	}
	guildIDs := make([]string, 0, len(owned))
	for _, config := range owned {
		guildIDs = append(guildIDs, config.GuildID)
	}

	// Everyone still trusting this community gets a pacing broadcast after
	// the trust edges are severed.
	trusting, err := s.stores.GuildConfigs.FindTrusting(ctx, community.ID)
	if err != nil {
		return s.cascadeFailed(ctx, "delete", community.ID, "collect trusting configs", err)
	}

	if err := s.stores.GuildConfigs.DeleteByCommunityID(ctx, community.ID); err != nil {
		return s.cascadeFailed(ctx, "delete", community.ID, "delete owned configs", err)
	}
	if err := s.stores.Reports.DeleteByCommunityID(ctx, community.ID); err != nil {
		return s.cascadeFailed(ctx, "delete", community.ID, "delete reports", err)
	}
	if err := s.stores.Revocations.DeleteByCommunityID(ctx, community.ID); err != nil {
		return s.cascadeFailed(ctx, "delete", community.ID, "delete revocations", err)
	}
	if err := s.dropCredentials(ctx, community.ID); err != nil {
		return s.cascadeFailed(ctx, "delete", community.ID, "delete token", err)
	}
	if len(guildIDs) > 0 {
		if err := s.stores.Webhooks.DeleteByGuildIDs(ctx, guildIDs); err != nil {
			return s.cascadeFailed(ctx, "delete", community.ID, "delete webhooks", err)
		}
	}
	if err := s.stores.GuildConfigs.PullTrusted(ctx, community.ID); err != nil {
		return s.cascadeFailed(ctx, "delete", community.ID, "pull trust references", err)
	}
	if err := s.stores.Communities.Delete(ctx, community.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return s.cascadeFailed(ctx, "delete", community.ID, "delete community", err)
	}

	for i := range trusting {
		trusting[i].TrustedCommunities = setops.Pull(trusting[i].TrustedCommunities, community.ID)
	}
	s.notifier.BroadcastConfigChanges(trusting)

	contact := s.resolveContact(ctx, community.Contact)
	s.notifier.Emit(ctx, notify.Event{
		Kind:    notify.KindCommunityRemoved,
		Payload: notify.CommunityPayload{Community: *community, Contact: contact},
	})
	if s.metrics != nil {
		s.metrics.CommunitiesDeleted.Inc()
	}
	s.logger.InfoContext(ctx, "community deleted",
		"community_id", community.ID,
		"owned_configs", len(owned),
		"trusting_configs", len(trusting),
	)
	return nil
}

// Merge dissolves one community into another. Every record owned by the
// dissolving community is re-owned by the receiving one, every trust edge
// pointing at the dissolving id is rewritten, and the dissolving token is
// destroyed. Like Delete, the steps are ordered and idempotent rather than
// transactional.
func (s *Service) Merge(ctx context.Context, idReceiving, idDissolving string) (*models.Community, error) {
	receiving, err := s.stores.Communities.FindByID(ctx, idReceiving)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apierrors.Newf(apierrors.CodeBadRequest, "idReceiving %q is not a registered community", idReceiving)
	}
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "receiving community lookup failed")
	}
	dissolving, err := s.stores.Communities.FindByID(ctx, idDissolving)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apierrors.Newf(apierrors.CodeBadRequest, "idDissolving %q is not a registered community", idDissolving)
	}
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "dissolving community lookup failed")
	}
	if receiving.ID == dissolving.ID {
		return nil, apierrors.New(apierrors.CodeBadRequest, "a community cannot be merged into itself")
	}

	if err := s.stores.Communities.Delete(ctx, dissolving.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.mergeFailed(ctx, receiving.ID, dissolving.ID, "delete dissolving community", err)
	}
	if err := s.stores.Reports.RepointCommunity(ctx, dissolving.ID, receiving.ID); err != nil {
		return nil, s.mergeFailed(ctx, receiving.ID, dissolving.ID, "repoint reports", err)
	}
	if err := s.stores.Revocations.RepointCommunity(ctx, dissolving.ID, receiving.ID); err != nil {
		return nil, s.mergeFailed(ctx, receiving.ID, dissolving.ID, "repoint revocations", err)
	}
	// Trust in the dissolving community becomes trust in the receiving one.
	if err := s.stores.GuildConfigs.AddTrustedWhereTrusts(ctx, dissolving.ID, receiving.ID); err != nil {
		return nil, s.mergeFailed(ctx, receiving.ID, dissolving.ID, "extend trust edges", err)
	}
	if err := s.stores.GuildConfigs.PullTrusted(ctx, dissolving.ID); err != nil {
		return nil, s.mergeFailed(ctx, receiving.ID, dissolving.ID, "pull dissolved trust edges", err)
	}

	configs, err := s.stores.GuildConfigs.FindByCommunityIDs(ctx, []string{receiving.ID, dissolving.ID})
	if err != nil {
		return nil, s.mergeFailed(ctx, receiving.ID, dissolving.ID, "collect configs", err)
	}
	// The receiving community adopts the guild of every collected config,
	// not the dissolving document's guildIds set: a config can own a guild
	// the community document never listed, and the configs are the ground
	// truth for which guilds exist after the merge.
	adopted := make([]string, 0, len(configs))
	for _, config := range configs {
		adopted = append(adopted, config.GuildID)
	}
	if len(adopted) > 0 {
		if err := s.stores.Communities.AddGuildIDs(ctx, receiving.ID, adopted); err != nil {
			return nil, s.mergeFailed(ctx, receiving.ID, dissolving.ID, "adopt guild ids", err)
		}
	}
	// The receiving community's existing per-guild key wins the tie-break;
	// when the receiving side had no config (and so no key) the dissolving
	// configs keep the keys they carried.
	var receivingKey string
	for _, config := range configs {
		if config.CommunityID == receiving.ID {
			receivingKey = config.APIKey
			break
		}
	}
	if err := s.stores.GuildConfigs.RepointCommunity(ctx, dissolving.ID, receiving.ID, receivingKey); err != nil {
		return nil, s.mergeFailed(ctx, receiving.ID, dissolving.ID, "repoint configs", err)
	}
	if err := s.dropCredentials(ctx, dissolving.ID); err != nil {
		return nil, s.mergeFailed(ctx, receiving.ID, dissolving.ID, "delete dissolving token", err)
	}

	merged, err := s.stores.Communities.FindByID(ctx, receiving.ID)
	if err != nil {
		return nil, s.mergeFailed(ctx, receiving.ID, dissolving.ID, "reload receiving community", err)
	}

	trusting, err := s.stores.GuildConfigs.FindTrusting(ctx, receiving.ID)
	if err != nil {
		return nil, s.mergeFailed(ctx, receiving.ID, dissolving.ID, "collect trusting configs", err)
	}
	s.notifier.BroadcastConfigChanges(trusting)

	contact := s.resolveContact(ctx, merged.Contact)
	s.notifier.Emit(ctx, notify.Event{
		Kind: notify.KindCommunitiesMerged,
		Payload: notify.MergePayload{
			Receiving:  *merged,
			Dissolving: *dissolving,
			Contact:    contact,
		},
	})
	if s.metrics != nil {
		s.metrics.CommunitiesMerged.Inc()
	}
	s.logger.InfoContext(ctx, "communities merged",
		"receiving_id", merged.ID,
		"dissolving_id", dissolving.ID,
		"adopted_guilds", len(adopted),
	)
	return merged, nil
}

// GuildLeave clears every record tied to a guild when the bot leaves it.
// Nothing is broadcast: there is no config left to announce.
func (s *Service) GuildLeave(ctx context.Context, guildID string) error {
	if err := s.stores.Webhooks.DeleteByGuildIDs(ctx, []string{guildID}); err != nil {
		return s.cascadeFailed(ctx, "guild leave", guildID, "delete webhooks", err)
	}
	if err := s.stores.GuildConfigs.DeleteByGuildID(ctx, guildID); err != nil {
		return s.cascadeFailed(ctx, "guild leave", guildID, "delete config", err)
	}
	owner, err := s.stores.Communities.FindByGuildID(ctx, guildID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return s.cascadeFailed(ctx, "guild leave", guildID, "find owning community", err)
	}
	if err := s.stores.Communities.PullGuildID(ctx, owner.ID, guildID); err != nil {
		return s.cascadeFailed(ctx, "guild leave", guildID, "pull guild id", err)
	}
	s.logger.InfoContext(ctx, "guild records cleared", "guild_id", guildID, "community_id", owner.ID)
	return nil
}

// dropCredentials destroys a community's tokens and evicts them from the
// gate's lookup cache. The key must be read before the store delete; after
// it the cache is the only place the key still exists.
func (s *Service) dropCredentials(ctx context.Context, communityID string) error {
	token, err := s.stores.Auth.FindByCommunityID(ctx, communityID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	if err := s.stores.Auth.DeleteByCommunityID(ctx, communityID); err != nil {
		return err
	}
	if token != nil && s.invalidator != nil {
		s.invalidator.Invalidate(ctx, token.APIKey)
	}
	return nil
}

func (s *Service) cascadeFailed(ctx context.Context, op, id, step string, err error) error {
	s.logger.ErrorContext(ctx, "cascade step failed, operation can be re-issued",
		"operation", op,
		"subject", id,
		"step", step,
		"error", err,
	)
	return apierrors.Wrap(err, apierrors.CodeInternal, fmt.Sprintf("%s failed at %q", op, step))
}

func (s *Service) mergeFailed(ctx context.Context, receiving, dissolving, step string, err error) error {
	s.logger.ErrorContext(ctx, "merge step failed, operation can be re-issued",
		"receiving_id", receiving,
		"dissolving_id", dissolving,
		"step", step,
		"error", err,
	)
	return apierrors.Wrap(err, apierrors.CodeInternal, fmt.Sprintf("merge failed at %q", step))
}
