package handler

import (
	"fedreg/internal/community/service"
	"fedreg/internal/models"
)

type createCommunityRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	GuildID string `json:"guildId,omitempty"`
}

type setGuildConfigRequest struct {
	RuleFilters        *[]string        `json:"ruleFilters,omitempty"`
	TrustedCommunities *[]string        `json:"trustedCommunities,omitempty"`
	Roles              *roleBindingsDTO `json:"roles,omitempty"`
}

type roleBindingsDTO struct {
	Reports        string `json:"reports"`
	Webhooks       string `json:"webhooks"`
	SetConfig      string `json:"setConfig"`
	SetRules       string `json:"setRules"`
	SetCommunities string `json:"setCommunities"`
}

func (r setGuildConfigRequest) toPatch() service.GuildConfigPatch {
	patch := service.GuildConfigPatch{
		RuleFilters:        r.RuleFilters,
		TrustedCommunities: r.TrustedCommunities,
	}
	if r.Roles != nil {
		patch.Roles = &models.RoleBindings{
			Reports:        r.Roles.Reports,
			Webhooks:       r.Roles.Webhooks,
			SetConfig:      r.Roles.SetConfig,
			SetRules:       r.Roles.SetRules,
			SetCommunities: r.Roles.SetCommunities,
		}
	}
	return patch
}

type setCommunityConfigRequest struct {
	Name    *string `json:"name,omitempty"`
	Contact *string `json:"contact,omitempty"`
}

func (r setCommunityConfigRequest) toPatch() service.CommunityConfigPatch {
	return service.CommunityConfigPatch{Name: r.Name, Contact: r.Contact}
}
