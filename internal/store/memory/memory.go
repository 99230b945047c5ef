// Package memory provides in-memory implementations of the record store
// contracts. They keep the service testable without external
// infrastructure and intentionally favor clarity over performance.
package memory

import "fedreg/internal/store"

// NewStores builds a full set of empty in-memory collections.
func NewStores() store.Stores {
	return store.Stores{
		Communities:  NewCommunityStore(),
		GuildConfigs: NewGuildConfigStore(),
		Auth:         NewAuthStore(),
		Reports:      NewReportStore(),
		Revocations:  NewRevocationStore(),
		Webhooks:     NewWebhookStore(),
		Rules:        NewRuleStore(),
	}
}
