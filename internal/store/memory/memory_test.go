package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"fedreg/internal/models"
	"fedreg/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx         context.Context
	communities *CommunityStore
	configs     *GuildConfigStore
	auth        *AuthStore
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.communities = NewCommunityStore()
	s.configs = NewGuildConfigStore()
	s.auth = NewAuthStore()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) TestCommunityLookups() {
	s.Run("finds by id case-insensitively", func() {
		s.Require().NoError(s.communities.Create(s.ctx, &models.Community{ID: "acme", Name: "Acme"}))

		found, err := s.communities.FindByID(s.ctx, "ACME")
		s.Require().NoError(err)
		s.Equal("acme", found.ID)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.communities.FindByID(s.ctx, "ghost")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate id regardless of case", func() {
		s.Require().NoError(s.communities.Create(s.ctx, &models.Community{ID: "dup"}))
		err := s.communities.Create(s.ctx, &models.Community{ID: "DUP"})
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("finds by guild membership", func() {
		s.Require().NoError(s.communities.Create(s.ctx, &models.Community{
			ID:       "hosting",
			GuildIDs: []string{"g1", "g2"},
		}))
		found, err := s.communities.FindByGuildID(s.ctx, "g2")
		s.Require().NoError(err)
		s.Equal("hosting", found.ID)

		_, err = s.communities.FindByGuildID(s.ctx, "g3")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestCommunityGuildSets() {
	s.Require().NoError(s.communities.Create(s.ctx, &models.Community{ID: "acme", GuildIDs: []string{"g1"}}))

	s.Run("AddGuildIDs deduplicates", func() {
		s.Require().NoError(s.communities.AddGuildIDs(s.ctx, "acme", []string{"g1", "g2"}))
		found, err := s.communities.FindByID(s.ctx, "acme")
		s.Require().NoError(err)
		s.Equal([]string{"g1", "g2"}, found.GuildIDs)
	})

	s.Run("PullGuildID is idempotent", func() {
		s.Require().NoError(s.communities.PullGuildID(s.ctx, "acme", "g1"))
		s.Require().NoError(s.communities.PullGuildID(s.ctx, "acme", "g1"))
		s.Require().NoError(s.communities.PullGuildID(s.ctx, "ghost", "g1"))
		found, err := s.communities.FindByID(s.ctx, "acme")
		s.Require().NoError(err)
		s.Equal([]string{"g2"}, found.GuildIDs)
	})
}

func (s *MemoryStoreSuite) TestGuildConfigTrustEdges() {
	s.Require().NoError(s.configs.Create(s.ctx, &models.GuildConfig{
		GuildID: "g1", CommunityID: "a", TrustedCommunities: []string{"old"},
	}))
	s.Require().NoError(s.configs.Create(s.ctx, &models.GuildConfig{
		GuildID: "g2", CommunityID: "b", TrustedCommunities: []string{"old", "new"},
	}))
	s.Require().NoError(s.configs.Create(s.ctx, &models.GuildConfig{
		GuildID: "g3", CommunityID: "c",
	}))

	s.Run("AddTrustedWhereTrusts only touches trusting configs", func() {
		s.Require().NoError(s.configs.AddTrustedWhereTrusts(s.ctx, "old", "new"))

		one, err := s.configs.FindByGuildID(s.ctx, "g1")
		s.Require().NoError(err)
		s.Equal([]string{"old", "new"}, one.TrustedCommunities)

		// Already trusting "new": no duplicate appended.
		two, err := s.configs.FindByGuildID(s.ctx, "g2")
		s.Require().NoError(err)
		s.Equal([]string{"old", "new"}, two.TrustedCommunities)

		three, err := s.configs.FindByGuildID(s.ctx, "g3")
		s.Require().NoError(err)
		s.Empty(three.TrustedCommunities)
	})

	s.Run("PullTrusted severs every edge", func() {
		s.Require().NoError(s.configs.PullTrusted(s.ctx, "old"))
		trusting, err := s.configs.FindTrusting(s.ctx, "old")
		s.Require().NoError(err)
		s.Empty(trusting)
	})
}

func (s *MemoryStoreSuite) TestGuildConfigRepoint() {
	s.Require().NoError(s.configs.Create(s.ctx, &models.GuildConfig{
		GuildID: "g1", CommunityID: "from", APIKey: "key-1",
	}))
	s.Require().NoError(s.configs.Create(s.ctx, &models.GuildConfig{
		GuildID: "g2", CommunityID: "other", APIKey: "key-2",
	}))

	s.Run("overwrites keys when one is given", func() {
		s.Require().NoError(s.configs.RepointCommunity(s.ctx, "from", "to", "winner"))
		one, err := s.configs.FindByGuildID(s.ctx, "g1")
		s.Require().NoError(err)
		s.Equal("to", one.CommunityID)
		s.Equal("winner", one.APIKey)

		two, err := s.configs.FindByGuildID(s.ctx, "g2")
		s.Require().NoError(err)
		s.Equal("other", two.CommunityID)
		s.Equal("key-2", two.APIKey)
	})

	s.Run("keeps keys when none is given", func() {
		s.Require().NoError(s.configs.RepointCommunity(s.ctx, "other", "to", ""))
		two, err := s.configs.FindByGuildID(s.ctx, "g2")
		s.Require().NoError(err)
		s.Equal("to", two.CommunityID)
		s.Equal("key-2", two.APIKey)
	})
}

func (s *MemoryStoreSuite) TestGuildConfigOwnership() {
	s.Require().NoError(s.configs.Create(s.ctx, &models.GuildConfig{GuildID: "g1", CommunityID: "a"}))

	owned, err := s.configs.FindOwned(s.ctx, "a", "g1")
	s.Require().NoError(err)
	s.Equal("g1", owned.GuildID)

	_, err = s.configs.FindOwned(s.ctx, "b", "g1")
	s.ErrorIs(err, sentinel.ErrNotFound)

	// Binding adopts an unowned config and leaves missing guilds alone.
	s.Require().NoError(s.configs.Create(s.ctx, &models.GuildConfig{GuildID: "g2"}))
	s.Require().NoError(s.configs.BindGuild(s.ctx, "g2", "a"))
	s.Require().NoError(s.configs.BindGuild(s.ctx, "g-missing", "a"))
	bound, err := s.configs.FindByGuildID(s.ctx, "g2")
	s.Require().NoError(err)
	s.Equal("a", bound.CommunityID)
}

func (s *MemoryStoreSuite) TestAuthTokens() {
	token := models.AuthToken{CommunityID: "acme", APIKey: "k1", APIKeyType: models.APIKeyTypeMember}
	s.Require().NoError(s.auth.Create(s.ctx, &token))

	s.Run("finds by api key and community", func() {
		byKey, err := s.auth.FindByAPIKey(s.ctx, "k1")
		s.Require().NoError(err)
		s.Equal("acme", byKey.CommunityID)

		byCommunity, err := s.auth.FindByCommunityID(s.ctx, "acme")
		s.Require().NoError(err)
		s.Equal("k1", byCommunity.APIKey)
	})

	s.Run("deletion by community is idempotent", func() {
		s.Require().NoError(s.auth.DeleteByCommunityID(s.ctx, "acme"))
		s.Require().NoError(s.auth.DeleteByCommunityID(s.ctx, "acme"))
		_, err := s.auth.FindByAPIKey(s.ctx, "k1")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}
