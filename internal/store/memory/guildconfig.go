package memory

import (
	"context"
	"sync"

	"fedreg/internal/models"
	"fedreg/pkg/platform/sentinel"
	"fedreg/pkg/platform/setops"
)

// GuildConfigStore keys configs by guild id; one config per guild.
type GuildConfigStore struct {
	mu      sync.RWMutex
	configs map[string]models.GuildConfig
	order   []string
}

func NewGuildConfigStore() *GuildConfigStore {
	return &GuildConfigStore{configs: make(map[string]models.GuildConfig)}
}

func (s *GuildConfigStore) FindByGuildID(_ context.Context, guildID string) (*models.GuildConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.configs[guildID]; ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *GuildConfigStore) FindByCommunityID(_ context.Context, communityID string) ([]models.GuildConfig, error) {
	return s.filter(func(c models.GuildConfig) bool { return c.CommunityID == communityID })
}

func (s *GuildConfigStore) FindByCommunityIDs(_ context.Context, communityIDs []string) ([]models.GuildConfig, error) {
	return s.filter(func(c models.GuildConfig) bool {
		return c.CommunityID != "" && setops.Contains(communityIDs, c.CommunityID)
	})
}

func (s *GuildConfigStore) FindOwned(_ context.Context, communityID, guildID string) (*models.GuildConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.configs[guildID]; ok && c.CommunityID == communityID {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *GuildConfigStore) FindTrusting(_ context.Context, communityID string) ([]models.GuildConfig, error) {
	return s.filter(func(c models.GuildConfig) bool {
		return setops.Contains(c.TrustedCommunities, communityID)
	})
}

func (s *GuildConfigStore) Create(_ context.Context, config *models.GuildConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[config.GuildID]; ok {
		return sentinel.ErrConflict
	}
	s.configs[config.GuildID] = *config
	s.order = append(s.order, config.GuildID)
	return nil
}

func (s *GuildConfigStore) Replace(_ context.Context, config *models.GuildConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[config.GuildID]; !ok {
		return sentinel.ErrNotFound
	}
	s.configs[config.GuildID] = *config
	return nil
}

func (s *GuildConfigStore) BindGuild(_ context.Context, guildID, communityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.configs[guildID]; ok {
		c.CommunityID = communityID
		s.configs[guildID] = c
	}
	return nil
}

func (s *GuildConfigStore) RepointCommunity(_ context.Context, fromID, toID, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.configs {
		if c.CommunityID != fromID {
			continue
		}
		c.CommunityID = toID
		if apiKey != "" {
			c.APIKey = apiKey
		}
		s.configs[id] = c
	}
	return nil
}

func (s *GuildConfigStore) AddTrustedWhereTrusts(_ context.Context, trustsID, addID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.configs {
		if setops.Contains(c.TrustedCommunities, trustsID) {
			c.TrustedCommunities = setops.AddToSet(c.TrustedCommunities, addID)
			s.configs[id] = c
		}
	}
	return nil
}

func (s *GuildConfigStore) PullTrusted(_ context.Context, communityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.configs {
		c.TrustedCommunities = setops.Pull(c.TrustedCommunities, communityID)
		s.configs[id] = c
	}
	return nil
}

func (s *GuildConfigStore) PullRuleFilter(_ context.Context, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.configs {
		c.RuleFilters = setops.Pull(c.RuleFilters, ruleID)
		s.configs[id] = c
	}
	return nil
}

func (s *GuildConfigStore) DeleteByCommunityID(_ context.Context, communityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.configs {
		if c.CommunityID == communityID {
			s.remove(id)
		}
	}
	return nil
}

func (s *GuildConfigStore) DeleteByGuildID(_ context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(guildID)
	return nil
}

// remove assumes the write lock is held.
func (s *GuildConfigStore) remove(guildID string) {
	delete(s.configs, guildID)
	for i, existing := range s.order {
		if existing == guildID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *GuildConfigStore) filter(keep func(models.GuildConfig) bool) ([]models.GuildConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.GuildConfig
	for _, id := range s.order {
		if c, ok := s.configs[id]; ok && keep(c) {
			result = append(result, c)
		}
	}
	return result, nil
}
