// Package rules maintains the shared rule catalog. Rules are referenced by
// guild config filters and by reports, so removing one cascades into every
// config that filtered on it.
package rules

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"fedreg/internal/models"
	"fedreg/internal/notify"
	"fedreg/internal/store"
	"fedreg/pkg/apierrors"
	"fedreg/pkg/platform/sentinel"
)

// Service owns the rule catalog.
type Service struct {
	rules    store.RuleStore
	configs  store.GuildConfigStore
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewService constructs the rule catalog service.
func NewService(rules store.RuleStore, configs store.GuildConfigStore, notifier *notify.Notifier, logger *slog.Logger) *Service {
	return &Service{rules: rules, configs: configs, notifier: notifier, logger: logger}
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]models.Rule, error) {
	rules, err := s.rules.Find(ctx)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "listing rules failed")
	}
	return rules, nil
}

// Get returns one rule by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Rule, error) {
	rule, err := s.rules.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, apierrors.New(apierrors.CodeNotFound, "rule not found")
	}
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "rule lookup failed")
	}
	return rule, nil
}

// Create adds a rule to the catalog.
func (s *Service) Create(ctx context.Context, shortDesc, longDesc string) (*models.Rule, error) {
	shortDesc = strings.TrimSpace(shortDesc)
	if shortDesc == "" {
		return nil, apierrors.New(apierrors.CodeBadRequest, "shortdesc must not be empty")
	}
	rule := models.Rule{
		ID:        uuid.NewString(),
		ShortDesc: shortDesc,
		LongDesc:  strings.TrimSpace(longDesc),
	}
	if err := s.rules.Create(ctx, &rule); err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "rule creation failed")
	}
	s.notifier.Emit(ctx, notify.Event{
		Kind:    notify.KindRuleCreated,
		Payload: notify.RulePayload{Rule: rule},
	})
	s.logger.InfoContext(ctx, "rule created", "rule_id", rule.ID)
	return &rule, nil
}

// Update replaces a rule's descriptions.
func (s *Service) Update(ctx context.Context, id, shortDesc, longDesc string) (*models.Rule, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *existing
	if trimmed := strings.TrimSpace(shortDesc); trimmed != "" {
		updated.ShortDesc = trimmed
	}
	if trimmed := strings.TrimSpace(longDesc); trimmed != "" {
		updated.LongDesc = trimmed
	}
	if err := s.rules.Replace(ctx, &updated); err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "rule write failed")
	}
	s.notifier.Emit(ctx, notify.Event{
		Kind:    notify.KindRuleUpdated,
		Payload: notify.RulePayload{Rule: updated, Old: existing},
	})
	s.logger.InfoContext(ctx, "rule updated", "rule_id", id)
	return &updated, nil
}

// Delete removes a rule and pulls its id from every guild config filter.
func (s *Service) Delete(ctx context.Context, id string) (*models.Rule, error) {
	rule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.rules.Delete(ctx, id); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "rule deletion failed")
	}
	if err := s.configs.PullRuleFilter(ctx, id); err != nil {
		return nil, apierrors.Wrap(err, apierrors.CodeInternal, "rule filter cleanup failed")
	}
	s.notifier.Emit(ctx, notify.Event{
		Kind:    notify.KindRuleRemoved,
		Payload: notify.RulePayload{Rule: *rule},
	})
	s.logger.InfoContext(ctx, "rule removed", "rule_id", id)
	return rule, nil
}
