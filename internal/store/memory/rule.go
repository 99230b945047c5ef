package memory

import (
	"context"
	"strings"
	"sync"

	"fedreg/internal/models"
	"fedreg/pkg/platform/sentinel"
)

// RuleStore is a mutex-guarded map keyed by lowercase rule id.
type RuleStore struct {
	mu    sync.RWMutex
	rules map[string]models.Rule
	order []string
}

func NewRuleStore() *RuleStore {
	return &RuleStore{rules: make(map[string]models.Rule)}
}

func (s *RuleStore) Find(_ context.Context) ([]models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Rule, 0, len(s.order))
	for _, id := range s.order {
		if r, ok := s.rules[id]; ok {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *RuleStore) FindByID(_ context.Context, id string) (*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rules[strings.ToLower(id)]; ok {
		return &r, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *RuleStore) FindByIDs(_ context.Context, ids []string) ([]models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Rule, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.rules[strings.ToLower(id)]; ok {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *RuleStore) Create(_ context.Context, rule *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(rule.ID)
	if _, ok := s.rules[key]; ok {
		return sentinel.ErrConflict
	}
	s.rules[key] = *rule
	s.order = append(s.order, key)
	return nil
}

func (s *RuleStore) Replace(_ context.Context, rule *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(rule.ID)
	if _, ok := s.rules[key]; !ok {
		return sentinel.ErrNotFound
	}
	s.rules[key] = *rule
	return nil
}

func (s *RuleStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(id)
	if _, ok := s.rules[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.rules, key)
	for i, existing := range s.order {
		if existing == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
