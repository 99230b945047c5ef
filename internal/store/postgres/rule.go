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

type RuleStore struct {
	db *sql.DB
}

func NewRuleStore(db *sql.DB) *RuleStore { return &RuleStore{db: db} }

func (s *RuleStore) Find(ctx context.Context) ([]models.Rule, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, shortdesc, longdesc FROM rules ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("find rules: %w", err)
	}
	defer rows.Close()
	var result []models.Rule
	for rows.Next() {
		var r models.Rule
		if err := rows.Scan(&r.ID, &r.ShortDesc, &r.LongDesc); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *RuleStore) FindByID(ctx context.Context, id string) (*models.Rule, error) {
	var r models.Rule
	err := s.db.QueryRowContext(ctx,
		"SELECT id, shortdesc, longdesc FROM rules WHERE id = $1", strings.ToLower(id)).
		Scan(&r.ID, &r.ShortDesc, &r.LongDesc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find rule: %w", err)
	}
	return &r, nil
}

func (s *RuleStore) FindByIDs(ctx context.Context, ids []string) ([]models.Rule, error) {
	lowered := make([]string, len(ids))
	for i, id := range ids {
		lowered[i] = strings.ToLower(id)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, shortdesc, longdesc FROM rules WHERE id = ANY($1)", pq.Array(lowered))
	if err != nil {
		return nil, fmt.Errorf("find rules by ids: %w", err)
	}
	defer rows.Close()
	var result []models.Rule
	for rows.Next() {
		var r models.Rule
		if err := rows.Scan(&r.ID, &r.ShortDesc, &r.LongDesc); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *RuleStore) Create(ctx context.Context, rule *models.Rule) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO rules (id, shortdesc, longdesc) VALUES ($1, $2, $3)",
		strings.ToLower(rule.ID), rule.ShortDesc, rule.LongDesc)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

func (s *RuleStore) Replace(ctx context.Context, rule *models.Rule) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE rules SET shortdesc = $2, longdesc = $3 WHERE id = $1",
		strings.ToLower(rule.ID), rule.ShortDesc, rule.LongDesc)
	if err != nil {
		return fmt.Errorf("replace rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *RuleStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM rules WHERE id = $1", strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
