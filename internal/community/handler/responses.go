package handler

import (
	"fedreg/internal/community/service"
	"fedreg/internal/models"
)

type communityResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Contact  string   `json:"contact"`
	GuildIDs []string `json:"guildIds"`
}

func newCommunityResponse(c models.Community) communityResponse {
	if c.GuildIDs == nil {
		c.GuildIDs = []string{}
	}
	return communityResponse{
		ID:       c.ID,
		Name:     c.Name,
		Contact:  c.Contact,
		GuildIDs: c.GuildIDs,
	}
}

func newCommunityListResponse(communities []models.Community) []communityResponse {
	result := make([]communityResponse, len(communities))
	for i, c := range communities {
		result[i] = newCommunityResponse(c)
	}
	return result
}

// createResponse is the only surface the member api key ever appears on.
type createResponse struct {
	Community communityResponse `json:"community"`
	APIKey    string            `json:"apiKey"`
}

func newCreateResponse(result service.CreateResult) createResponse {
	return createResponse{
		Community: newCommunityResponse(result.Community),
		APIKey:    result.APIKey,
	}
}

type guildConfigResponse struct {
	GuildID            string              `json:"guildId"`
	CommunityID        string              `json:"communityId,omitempty"`
	RuleFilters        []string            `json:"ruleFilters"`
	TrustedCommunities []string            `json:"trustedCommunities"`
	Roles              models.RoleBindings `json:"roles"`
}

func newGuildConfigResponse(c models.GuildConfig) guildConfigResponse {
	if c.RuleFilters == nil {
		c.RuleFilters = []string{}
	}
	if c.TrustedCommunities == nil {
		c.TrustedCommunities = []string{}
	}
	return guildConfigResponse{
		GuildID:            c.GuildID,
		CommunityID:        c.CommunityID,
		RuleFilters:        c.RuleFilters,
		TrustedCommunities: c.TrustedCommunities,
		Roles:              c.Roles,
	}
}

type deletedResponse struct {
	Deleted bool `json:"deleted"`
}
