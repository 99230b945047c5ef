// Package notify fans structural-change events out to downstream consumers.
// Emission is always best-effort: a failed emit is logged and never fails
// the mutation that triggered it.
package notify

import (
	"context"

	"fedreg/internal/discord"
	"fedreg/internal/models"
)

// Kind names a notification event.
type Kind string

const (
	KindCommunityCreated   Kind = "community_created"
	KindCommunityRemoved   Kind = "community_removed"
	KindCommunityUpdated   Kind = "community_updated"
	KindCommunitiesMerged  Kind = "communities_merged"
	KindGuildConfigChanged Kind = "guildconfig_changed"
	KindRuleCreated        Kind = "rule_created"
	KindRuleUpdated        Kind = "rule_updated"
	KindRuleRemoved        Kind = "rule_removed"
)

// Event is one notification on the wire.
type Event struct {
	Kind    Kind `json:"kind"`
	Payload any  `json:"payload"`
}

// CommunityPayload accompanies community lifecycle events. Contact carries
// the resolved identity when the lookup succeeded; it is absent on
// best-effort emissions where the verifier failed.
type CommunityPayload struct {
	Community models.Community `json:"community"`
	Contact   *discord.User    `json:"contact,omitempty"`
}

// MergePayload accompanies communities_merged.
type MergePayload struct {
	Receiving  models.Community `json:"receiving"`
	Dissolving models.Community `json:"dissolving"`
	Contact    *discord.User    `json:"contact,omitempty"`
}

// GuildConfigPayload accompanies guildconfig_changed. Construct it from
// GuildConfig.Redacted — the apikey must never reach consumers.
type GuildConfigPayload struct {
	Config models.GuildConfig `json:"config"`
}

// RulePayload accompanies rule events. Old is set only for rule_updated.
type RulePayload struct {
	Rule models.Rule  `json:"rule"`
	Old  *models.Rule `json:"old,omitempty"`
}

// Sink delivers events to subscribers. Implementations must be safe for
// concurrent use; the broadcaster emits from a detached goroutine.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}
