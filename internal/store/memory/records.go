package memory

import (
	"context"
	"sync"

	"fedreg/internal/models"
	"fedreg/pkg/platform/setops"
)

// ReportStore holds moderation reports keyed by record id.
type ReportStore struct {
	mu      sync.RWMutex
	reports []models.Report
}

func NewReportStore() *ReportStore { return &ReportStore{} }

func (s *ReportStore) FindByCommunityID(_ context.Context, communityID string) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Report
	for _, r := range s.reports {
		if r.CommunityID == communityID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *ReportStore) Create(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, *report)
	return nil
}

func (s *ReportStore) RepointCommunity(_ context.Context, fromID, toID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reports {
		if s.reports[i].CommunityID == fromID {
			s.reports[i].CommunityID = toID
		}
	}
	return nil
}

func (s *ReportStore) DeleteByCommunityID(_ context.Context, communityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.reports[:0]
	for _, r := range s.reports {
		if r.CommunityID != communityID {
			kept = append(kept, r)
		}
	}
	s.reports = kept
	return nil
}

// RevocationStore mirrors ReportStore for withdrawn reports.
type RevocationStore struct {
	mu          sync.RWMutex
	revocations []models.Revocation
}

func NewRevocationStore() *RevocationStore { return &RevocationStore{} }

func (s *RevocationStore) FindByCommunityID(_ context.Context, communityID string) ([]models.Revocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Revocation
	for _, r := range s.revocations {
		if r.CommunityID == communityID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *RevocationStore) Create(_ context.Context, revocation *models.Revocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revocations = append(s.revocations, *revocation)
	return nil
}

func (s *RevocationStore) RepointCommunity(_ context.Context, fromID, toID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.revocations {
		if s.revocations[i].CommunityID == fromID {
			s.revocations[i].CommunityID = toID
		}
	}
	return nil
}

func (s *RevocationStore) DeleteByCommunityID(_ context.Context, communityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.revocations[:0]
	for _, r := range s.revocations {
		if r.CommunityID != communityID {
			kept = append(kept, r)
		}
	}
	s.revocations = kept
	return nil
}

// WebhookStore holds delivery targets keyed by guild.
type WebhookStore struct {
	mu       sync.RWMutex
	webhooks []models.Webhook
}

func NewWebhookStore() *WebhookStore { return &WebhookStore{} }

func (s *WebhookStore) FindByGuildID(_ context.Context, guildID string) ([]models.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Webhook
	for _, w := range s.webhooks {
		if w.GuildID == guildID {
			result = append(result, w)
		}
	}
	return result, nil
}

func (s *WebhookStore) Create(_ context.Context, webhook *models.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks = append(s.webhooks, *webhook)
	return nil
}

func (s *WebhookStore) DeleteByGuildIDs(_ context.Context, guildIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.webhooks[:0]
	for _, w := range s.webhooks {
		if !setops.Contains(guildIDs, w.GuildID) {
			kept = append(kept, w)
		}
	}
	s.webhooks = kept
	return nil
}
