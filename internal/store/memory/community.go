package memory

import (
	"context"
	"strings"
	"sync"

	"fedreg/internal/models"
	"fedreg/pkg/platform/sentinel"
	"fedreg/pkg/platform/setops"
)

// CommunityStore is a mutex-guarded map keyed by lowercase community id.
type CommunityStore struct {
	mu          sync.RWMutex
	communities map[string]models.Community
	order       []string
}

func NewCommunityStore() *CommunityStore {
	return &CommunityStore{communities: make(map[string]models.Community)}
}

func (s *CommunityStore) Find(_ context.Context) ([]models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Community, 0, len(s.order))
	for _, id := range s.order {
		if c, ok := s.communities[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *CommunityStore) FindByID(_ context.Context, id string) (*models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.communities[strings.ToLower(id)]; ok {
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *CommunityStore) FindByIDs(_ context.Context, ids []string) ([]models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Community, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.communities[strings.ToLower(id)]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *CommunityStore) FindByGuildID(_ context.Context, guildID string) (*models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		c, ok := s.communities[id]
		if ok && setops.Contains(c.GuildIDs, guildID) {
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *CommunityStore) Create(_ context.Context, community *models.Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(community.ID)
	if _, ok := s.communities[key]; ok {
		return sentinel.ErrConflict
	}
	s.communities[key] = *community
	s.order = append(s.order, key)
	return nil
}

func (s *CommunityStore) Replace(_ context.Context, community *models.Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(community.ID)
	if _, ok := s.communities[key]; !ok {
		return sentinel.ErrNotFound
	}
	s.communities[key] = *community
	return nil
}

func (s *CommunityStore) AddGuildIDs(_ context.Context, id string, guildIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(id)
	c, ok := s.communities[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.GuildIDs = setops.AddToSet(c.GuildIDs, guildIDs...)
	s.communities[key] = c
	return nil
}

func (s *CommunityStore) PullGuildID(_ context.Context, id, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(id)
	c, ok := s.communities[key]
	if !ok {
		return nil // pull on an absent community is a no-op
	}
	c.GuildIDs = setops.Pull(c.GuildIDs, guildID)
	s.communities[key] = c
	return nil
}

func (s *CommunityStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(id)
	if _, ok := s.communities[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.communities, key)
	for i, existing := range s.order {
		if existing == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
