package memory

import (
	"context"
	"sync"

	"fedreg/internal/models"
	"fedreg/pkg/platform/sentinel"
)

// AuthStore keys tokens by API key; a community may hold several tokens
// (its member token plus any master tokens seeded at boot).
type AuthStore struct {
	mu     sync.RWMutex
	tokens map[string]models.AuthToken
}

func NewAuthStore() *AuthStore {
	return &AuthStore{tokens: make(map[string]models.AuthToken)}
}

func (s *AuthStore) FindByAPIKey(_ context.Context, apiKey string) (*models.AuthToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tokens[apiKey]; ok {
		return &t, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *AuthStore) FindByCommunityID(_ context.Context, communityID string) (*models.AuthToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tokens {
		if t.CommunityID == communityID {
			return &t, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *AuthStore) Create(_ context.Context, token *models.AuthToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[token.APIKey]; ok {
		return sentinel.ErrConflict
	}
	s.tokens[token.APIKey] = *token
	return nil
}

func (s *AuthStore) DeleteByCommunityID(_ context.Context, communityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.tokens {
		if t.CommunityID == communityID {
			delete(s.tokens, key)
		}
	}
	return nil
}
