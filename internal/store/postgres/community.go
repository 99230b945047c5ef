package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"fedreg/internal/models"
	"fedreg/pkg/platform/sentinel"
)

type CommunityStore struct {
	db *sql.DB
}

func NewCommunityStore(db *sql.DB) *CommunityStore { return &CommunityStore{db: db} }

const communityColumns = "id, name, contact, guild_ids"

func scanCommunity(row interface{ Scan(...any) error }) (*models.Community, error) {
	var c models.Community
	if err := row.Scan(&c.ID, &c.Name, &c.Contact, pq.Array(&c.GuildIDs)); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CommunityStore) Find(ctx context.Context) ([]models.Community, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+communityColumns+" FROM communities ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("find communities: %w", err)
	}
	defer rows.Close()
	var result []models.Community
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan community: %w", err)
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (s *CommunityStore) FindByID(ctx context.Context, id string) (*models.Community, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+communityColumns+" FROM communities WHERE id = $1", strings.ToLower(id))
	c, err := scanCommunity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find community by id: %w", err)
	}
	return c, nil
}

func (s *CommunityStore) FindByIDs(ctx context.Context, ids []string) ([]models.Community, error) {
	lowered := make([]string, len(ids))
	for i, id := range ids {
		lowered[i] = strings.ToLower(id)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+communityColumns+" FROM communities WHERE id = ANY($1)", pq.Array(lowered))
	if err != nil {
		return nil, fmt.Errorf("find communities by ids: %w", err)
	}
	defer rows.Close()
	var result []models.Community
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan community: %w", err)
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (s *CommunityStore) FindByGuildID(ctx context.Context, guildID string) (*models.Community, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+communityColumns+" FROM communities WHERE $1 = ANY(guild_ids)", guildID)
	c, err := scanCommunity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find community by guild: %w", err)
	}
	return c, nil
}

func (s *CommunityStore) Create(ctx context.Context, community *models.Community) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO communities (id, name, contact, guild_ids) VALUES ($1, $2, $3, $4)",
		strings.ToLower(community.ID), community.Name, community.Contact, pq.Array(community.GuildIDs))
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create community: %w", err)
	}
	return nil
}

func (s *CommunityStore) Replace(ctx context.Context, community *models.Community) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE communities SET name = $2, contact = $3, guild_ids = $4 WHERE id = $1",
		strings.ToLower(community.ID), community.Name, community.Contact, pq.Array(community.GuildIDs))
	if err != nil {
		return fmt.Errorf("replace community: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *CommunityStore) AddGuildIDs(ctx context.Context, id string, guildIDs []string) error {
	// Array concat then dedupe via unnest keeps the column a set.
	_, err := s.db.ExecContext(ctx, `
		UPDATE communities
		SET guild_ids = (
			SELECT COALESCE(array_agg(DISTINCT g), '{}')
			FROM unnest(guild_ids || $2::text[]) AS g
		)
		WHERE id = $1`,
		strings.ToLower(id), pq.Array(guildIDs))
	if err != nil {
		return fmt.Errorf("add guild ids: %w", err)
	}
	return nil
}

func (s *CommunityStore) PullGuildID(ctx context.Context, id, guildID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE communities SET guild_ids = array_remove(guild_ids, $2) WHERE id = $1",
		strings.ToLower(id), guildID)
	if err != nil {
		return fmt.Errorf("pull guild id: %w", err)
	}
	return nil
}

func (s *CommunityStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM communities WHERE id = $1", strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("delete community: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
