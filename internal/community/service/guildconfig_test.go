package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fedreg/internal/discord"
	"fedreg/internal/models"
	"fedreg/internal/notify"
	"fedreg/internal/store"
	"fedreg/internal/store/memory"
	"fedreg/pkg/apierrors"
)

type GuildConfigSuite struct {
	suite.Suite
	ctx      context.Context
	stores   store.Stores
	verifier *discord.FakeVerifier
	sink     *notify.MemorySink
	service  *Service
	acting   *models.Community
}

func (s *GuildConfigSuite) SetupTest() {
	s.ctx = context.Background()
	s.stores = memory.NewStores()
	s.verifier = discord.NewFakeVerifier()
	s.verifier.AddUser("contact-1", "alice", false)
	s.verifier.AddRole("role-good")
	s.sink = notify.NewMemorySink()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	notifier := notify.New(s.sink, logger, notify.WithInterval(time.Millisecond))
	s.service = New(s.stores, s.verifier, notifier, logger)

	s.acting = &models.Community{ID: "acting", Name: "Acting", Contact: "contact-1"}
	s.Require().NoError(s.stores.Communities.Create(s.ctx, s.acting))
	s.Require().NoError(s.stores.Rules.Create(s.ctx, &models.Rule{ID: "rule-1", ShortDesc: "no griefing"}))
	s.Require().NoError(s.stores.GuildConfigs.Create(s.ctx, &models.GuildConfig{
		GuildID:     "guild-1",
		CommunityID: "acting",
		RuleFilters: []string{"rule-1"},
		APIKey:      "guild-key",
	}))
}

func TestGuildConfigSuite(t *testing.T) {
	suite.Run(t, new(GuildConfigSuite))
}

func strs(v ...string) *[]string { return &v }

func (s *GuildConfigSuite) TestSetGuildConfig() {
	s.Run("replaces filters and announces redacted config", func() {
		s.Require().NoError(s.stores.Rules.Create(s.ctx, &models.Rule{ID: "rule-2", ShortDesc: "no spam"}))

		config, err := s.service.SetGuildConfig(s.ctx, s.acting, "guild-1", GuildConfigPatch{
			RuleFilters:        strs("rule-2", "rule-2", "rule-1"),
			TrustedCommunities: strs("ACTING"),
		})
		s.Require().NoError(err)
		s.Equal([]string{"rule-2", "rule-1"}, config.RuleFilters)
		s.Equal([]string{"acting"}, config.TrustedCommunities)
		s.Empty(config.APIKey)

		// The stored key survives the replacement write.
		stored, err := s.stores.GuildConfigs.FindByGuildID(s.ctx, "guild-1")
		s.Require().NoError(err)
		s.Equal("guild-key", stored.APIKey)

		events := s.sink.ByKind(notify.KindGuildConfigChanged)
		s.Require().Len(events, 1)
		s.Empty(events[0].Payload.(notify.GuildConfigPayload).Config.APIKey)
	})

	s.Run("rejects unknown rule reference", func() {
		before, err := s.stores.GuildConfigs.FindByGuildID(s.ctx, "guild-1")
		s.Require().NoError(err)

		_, err = s.service.SetGuildConfig(s.ctx, s.acting, "guild-1", GuildConfigPatch{
			RuleFilters: strs("rule-1", "rule-missing"),
		})
		s.True(apierrors.HasCode(err, apierrors.CodeBadRequest))
		s.ErrorContains(err, "rule-missing")

		// Rejected writes leave the stored document untouched.
		stored, err := s.stores.GuildConfigs.FindByGuildID(s.ctx, "guild-1")
		s.Require().NoError(err)
		s.Equal(before.RuleFilters, stored.RuleFilters)
	})

	s.Run("rejects unknown trusted community", func() {
		_, err := s.service.SetGuildConfig(s.ctx, s.acting, "guild-1", GuildConfigPatch{
			TrustedCommunities: strs("acting", "phantom"),
		})
		s.True(apierrors.HasCode(err, apierrors.CodeBadRequest))
		s.ErrorContains(err, "phantom")
	})

	s.Run("stores rule filters lowercased so deletion pulls them", func() {
		config, err := s.service.SetGuildConfig(s.ctx, s.acting, "guild-1", GuildConfigPatch{
			RuleFilters: strs("RULE-1"),
		})
		s.Require().NoError(err)
		s.Equal([]string{"rule-1"}, config.RuleFilters)

		// The pull a rule deletion issues matches the stored casing.
		s.Require().NoError(s.stores.GuildConfigs.PullRuleFilter(s.ctx, "rule-1"))
		stored, err := s.stores.GuildConfigs.FindByGuildID(s.ctx, "guild-1")
		s.Require().NoError(err)
		s.Empty(stored.RuleFilters)
	})

	s.Run("drops unresolvable role bindings without failing", func() {
		config, err := s.service.SetGuildConfig(s.ctx, s.acting, "guild-1", GuildConfigPatch{
			Roles: &models.RoleBindings{
				Reports:  "role-good",
				Webhooks: "role-bogus",
			},
		})
		s.Require().NoError(err)
		s.Equal("role-good", config.Roles.Reports)
		s.Empty(config.Roles.Webhooks)
	})

	s.Run("requires ownership of the guild config", func() {
		other := &models.Community{ID: "other", Name: "Other", Contact: "contact-1"}
		s.Require().NoError(s.stores.Communities.Create(s.ctx, other))

		_, err := s.service.SetGuildConfig(s.ctx, other, "guild-1", GuildConfigPatch{
			RuleFilters: strs("rule-1"),
		})
		s.True(apierrors.HasCode(err, apierrors.CodeNotFound))
	})
}

func (s *GuildConfigSuite) TestSetCommunityConfig() {
	s.Run("updates name and contact, id stays", func() {
		s.verifier.AddUser("contact-2", "bob", false)
		name := "Renamed"
		contact := "contact-2"
		community, err := s.service.SetCommunityConfig(s.ctx, s.acting, CommunityConfigPatch{
			Name:    &name,
			Contact: &contact,
		})
		s.Require().NoError(err)
		s.Equal("acting", community.ID)
		s.Equal("Renamed", community.Name)
		s.Equal("contact-2", community.Contact)

		s.Len(s.sink.ByKind(notify.KindCommunityUpdated), 1)
	})

	s.Run("rejects unknown contact", func() {
		contact := "ghost"
		_, err := s.service.SetCommunityConfig(s.ctx, s.acting, CommunityConfigPatch{Contact: &contact})
		s.True(apierrors.HasCode(err, apierrors.CodeBadRequest))
	})
}

func (s *GuildConfigSuite) TestNotifyGuildConfigChanged() {
	s.Require().NoError(s.service.NotifyGuildConfigChanged(s.ctx, "guild-1"))
	events := s.sink.ByKind(notify.KindGuildConfigChanged)
	s.Require().Len(events, 1)
	announced := events[0].Payload.(notify.GuildConfigPayload).Config
	s.Equal("guild-1", announced.GuildID)
	s.Empty(announced.APIKey)

	err := s.service.NotifyGuildConfigChanged(s.ctx, "guild-unknown")
	s.True(apierrors.HasCode(err, apierrors.CodeNotFound))
}
