package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"fedreg/internal/models"
	"fedreg/pkg/platform/sentinel"
)

type GuildConfigStore struct {
	db *sql.DB
}

func NewGuildConfigStore(db *sql.DB) *GuildConfigStore { return &GuildConfigStore{db: db} }

const guildConfigColumns = `guild_id, community_id, rule_filters, trusted_communities,
	role_reports, role_webhooks, role_set_config, role_set_rules, role_set_communities, api_key`

func scanGuildConfig(row interface{ Scan(...any) error }) (*models.GuildConfig, error) {
	var c models.GuildConfig
	err := row.Scan(
		&c.GuildID, &c.CommunityID,
		pq.Array(&c.RuleFilters), pq.Array(&c.TrustedCommunities),
		&c.Roles.Reports, &c.Roles.Webhooks, &c.Roles.SetConfig,
		&c.Roles.SetRules, &c.Roles.SetCommunities,
		&c.APIKey,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GuildConfigStore) queryMany(ctx context.Context, query string, args ...any) ([]models.GuildConfig, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find guild configs: %w", err)
	}
	defer rows.Close()
	var result []models.GuildConfig
	for rows.Next() {
		c, err := scanGuildConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guild config: %w", err)
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (s *GuildConfigStore) FindByGuildID(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+guildConfigColumns+" FROM guild_configs WHERE guild_id = $1", guildID)
	c, err := scanGuildConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find guild config: %w", err)
	}
	return c, nil
}

func (s *GuildConfigStore) FindByCommunityID(ctx context.Context, communityID string) ([]models.GuildConfig, error) {
	return s.queryMany(ctx,
		"SELECT "+guildConfigColumns+" FROM guild_configs WHERE community_id = $1 ORDER BY guild_id",
		communityID)
}

func (s *GuildConfigStore) FindByCommunityIDs(ctx context.Context, communityIDs []string) ([]models.GuildConfig, error) {
	return s.queryMany(ctx,
		"SELECT "+guildConfigColumns+" FROM guild_configs WHERE community_id = ANY($1) ORDER BY guild_id",
		pq.Array(communityIDs))
}

func (s *GuildConfigStore) FindOwned(ctx context.Context, communityID, guildID string) (*models.GuildConfig, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+guildConfigColumns+" FROM guild_configs WHERE community_id = $1 AND guild_id = $2",
		communityID, guildID)
	c, err := scanGuildConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find owned guild config: %w", err)
	}
	return c, nil
}

func (s *GuildConfigStore) FindTrusting(ctx context.Context, communityID string) ([]models.GuildConfig, error) {
	return s.queryMany(ctx,
		"SELECT "+guildConfigColumns+" FROM guild_configs WHERE $1 = ANY(trusted_communities) ORDER BY guild_id",
		communityID)
}

func (s *GuildConfigStore) Create(ctx context.Context, config *models.GuildConfig) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guild_configs (`+guildConfigColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		config.GuildID, config.CommunityID,
		pq.Array(config.RuleFilters), pq.Array(config.TrustedCommunities),
		config.Roles.Reports, config.Roles.Webhooks, config.Roles.SetConfig,
		config.Roles.SetRules, config.Roles.SetCommunities,
		config.APIKey)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create guild config: %w", err)
	}
	return nil
}

func (s *GuildConfigStore) Replace(ctx context.Context, config *models.GuildConfig) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE guild_configs SET
			community_id = $2, rule_filters = $3, trusted_communities = $4,
			role_reports = $5, role_webhooks = $6, role_set_config = $7,
			role_set_rules = $8, role_set_communities = $9, api_key = $10
		WHERE guild_id = $1`,
		config.GuildID, config.CommunityID,
		pq.Array(config.RuleFilters), pq.Array(config.TrustedCommunities),
		config.Roles.Reports, config.Roles.Webhooks, config.Roles.SetConfig,
		config.Roles.SetRules, config.Roles.SetCommunities,
		config.APIKey)
	if err != nil {
		return fmt.Errorf("replace guild config: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *GuildConfigStore) BindGuild(ctx context.Context, guildID, communityID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE guild_configs SET community_id = $2 WHERE guild_id = $1", guildID, communityID)
	if err != nil {
		return fmt.Errorf("bind guild: %w", err)
	}
	return nil
}

func (s *GuildConfigStore) RepointCommunity(ctx context.Context, fromID, toID, apiKey string) error {
	var err error
	if apiKey != "" {
		_, err = s.db.ExecContext(ctx,
			"UPDATE guild_configs SET community_id = $2, api_key = $3 WHERE community_id = $1",
			fromID, toID, apiKey)
	} else {
		_, err = s.db.ExecContext(ctx,
			"UPDATE guild_configs SET community_id = $2 WHERE community_id = $1",
			fromID, toID)
	}
	if err != nil {
		return fmt.Errorf("repoint guild configs: %w", err)
	}
	return nil
}

func (s *GuildConfigStore) AddTrustedWhereTrusts(ctx context.Context, trustsID, addID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE guild_configs
		SET trusted_communities = trusted_communities || $2::text
		WHERE $1 = ANY(trusted_communities) AND NOT ($2 = ANY(trusted_communities))`,
		trustsID, addID)
	if err != nil {
		return fmt.Errorf("add trusted community: %w", err)
	}
	return nil
}

func (s *GuildConfigStore) PullTrusted(ctx context.Context, communityID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE guild_configs SET trusted_communities = array_remove(trusted_communities, $1) WHERE $1 = ANY(trusted_communities)",
		communityID)
	if err != nil {
		return fmt.Errorf("pull trusted community: %w", err)
	}
	return nil
}

func (s *GuildConfigStore) PullRuleFilter(ctx context.Context, ruleID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE guild_configs SET rule_filters = array_remove(rule_filters, $1) WHERE $1 = ANY(rule_filters)",
		ruleID)
	if err != nil {
		return fmt.Errorf("pull rule filter: %w", err)
	}
	return nil
}

func (s *GuildConfigStore) DeleteByCommunityID(ctx context.Context, communityID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM guild_configs WHERE community_id = $1", communityID)
	if err != nil {
		return fmt.Errorf("delete guild configs by community: %w", err)
	}
	return nil
}

func (s *GuildConfigStore) DeleteByGuildID(ctx context.Context, guildID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM guild_configs WHERE guild_id = $1", guildID)
	if err != nil {
		return fmt.Errorf("delete guild config: %w", err)
	}
	return nil
}
