// Package models holds the document types persisted by the record store.
// Field names on the wire match the upstream federation protocol, which is
// why some json tags are camelCase and others snake_case.
package models

import "time"

// Community is a registered organization participating in the shared
// moderation network. The id is a stable lowercase slug, unique across the
// collection.
type Community struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Contact  string   `json:"contact"`
	GuildIDs []string `json:"guildIds"`
}

// RoleBindings names the guild roles allowed to perform each privileged
// action inside a guild.
type RoleBindings struct {
	Reports        string `json:"reports"`
	Webhooks       string `json:"webhooks"`
	SetConfig      string `json:"setConfig"`
	SetRules       string `json:"setRules"`
	SetCommunities string `json:"setCommunities"`
}

// GuildConfig binds a guild to a community and its filtering and trust
// preferences. A config may exist before its guild joins a community, in
// which case CommunityID is empty until a community create binds it.
type GuildConfig struct {
	GuildID            string       `json:"guildId"`
	CommunityID        string       `json:"communityId,omitempty"`
	RuleFilters        []string     `json:"ruleFilters"`
	TrustedCommunities []string     `json:"trustedCommunities"`
	Roles              RoleBindings `json:"roles"`
	// APIKey is guild-scoped and sensitive; it is redacted from every
	// response and notification payload.
	APIKey string `json:"apikey,omitempty"`
}

// Redacted returns a copy safe for responses and notification consumers.
func (c GuildConfig) Redacted() GuildConfig {
	c.APIKey = ""
	return c
}

// APIKeyType distinguishes community-scoped tokens from master tokens.
type APIKeyType string

const (
	APIKeyTypeMember APIKeyType = "member"
	APIKeyTypeMaster APIKeyType = "master"
)

// AuthToken is the credential record for one community. One member token is
// minted at community creation and destroyed when the community is deleted
// or dissolved by a merge.
type AuthToken struct {
	CommunityID string     `json:"communityId"`
	APIKey      string     `json:"api_key"`
	APIKeyType  APIKeyType `json:"api_key_type"`
}

// IsMaster reports whether the token passes the master gate.
func (t AuthToken) IsMaster() bool { return t.APIKeyType == APIKeyTypeMaster }

// Report is a moderation record filed by a community. Its CRUD lives outside
// this service's core; it matters here only as a cascade target keyed by
// CommunityID.
type Report struct {
	ID           string    `json:"id"`
	Playername   string    `json:"playername"`
	CommunityID  string    `json:"communityId"`
	BrokenRule   string    `json:"brokenRule"`
	Proof        string    `json:"proof"`
	Description  string    `json:"description"`
	Automated    bool      `json:"automated"`
	ReportedTime time.Time `json:"reportedTime"`
	AdminID      string    `json:"adminId"`
}

// Revocation records a withdrawn report. Cascade target like Report.
type Revocation struct {
	ID           string    `json:"id"`
	ReportID     string    `json:"reportId"`
	Playername   string    `json:"playername"`
	CommunityID  string    `json:"communityId"`
	BrokenRule   string    `json:"brokenRule"`
	Proof        string    `json:"proof"`
	Description  string    `json:"description"`
	Automated    bool      `json:"automated"`
	ReportedTime time.Time `json:"reportedTime"`
	RevokedTime  time.Time `json:"revokedTime"`
	RevokedBy    string    `json:"revokedBy"`
}

// Webhook is a delivery target registered by a guild.
type Webhook struct {
	ID      string `json:"id"`
	Token   string `json:"token"`
	GuildID string `json:"guildId"`
}

// Rule is a catalog entry referenced by GuildConfig.RuleFilters and
// Report.BrokenRule.
type Rule struct {
	ID        string `json:"id"`
	ShortDesc string `json:"shortdesc"`
	LongDesc  string `json:"longdesc"`
}
