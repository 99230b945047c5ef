package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fedreg/internal/models"
	"fedreg/pkg/platform/sentinel"
)

type AuthStore struct {
	db *sql.DB
}

func NewAuthStore(db *sql.DB) *AuthStore { return &AuthStore{db: db} }

func (s *AuthStore) FindByAPIKey(ctx context.Context, apiKey string) (*models.AuthToken, error) {
	var t models.AuthToken
	err := s.db.QueryRowContext(ctx,
		"SELECT api_key, community_id, api_key_type FROM auth_tokens WHERE api_key = $1", apiKey).
		Scan(&t.APIKey, &t.CommunityID, &t.APIKeyType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token by api key: %w", err)
	}
	return &t, nil
}

func (s *AuthStore) FindByCommunityID(ctx context.Context, communityID string) (*models.AuthToken, error) {
	var t models.AuthToken
	err := s.db.QueryRowContext(ctx,
		"SELECT api_key, community_id, api_key_type FROM auth_tokens WHERE community_id = $1 LIMIT 1",
		communityID).
		Scan(&t.APIKey, &t.CommunityID, &t.APIKeyType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token by community: %w", err)
	}
	return &t, nil
}

func (s *AuthStore) Create(ctx context.Context, token *models.AuthToken) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO auth_tokens (api_key, community_id, api_key_type) VALUES ($1, $2, $3)",
		token.APIKey, token.CommunityID, token.APIKeyType)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

func (s *AuthStore) DeleteByCommunityID(ctx context.Context, communityID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM auth_tokens WHERE community_id = $1", communityID)
	if err != nil {
		return fmt.Errorf("delete tokens by community: %w", err)
	}
	return nil
}
