package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"fedreg/internal/models"
)

type ReportStore struct {
	db *sql.DB
}

func NewReportStore(db *sql.DB) *ReportStore { return &ReportStore{db: db} }

const reportColumns = "id, playername, community_id, broken_rule, proof, description, automated, reported_time, admin_id"

func (s *ReportStore) FindByCommunityID(ctx context.Context, communityID string) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE community_id = $1 ORDER BY id", communityID)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer rows.Close()
	var result []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.ID, &r.Playername, &r.CommunityID, &r.BrokenRule, &r.Proof,
			&r.Description, &r.Automated, &r.ReportedTime, &r.AdminID); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *ReportStore) Create(ctx context.Context, report *models.Report) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO reports ("+reportColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		report.ID, report.Playername, report.CommunityID, report.BrokenRule, report.Proof,
		report.Description, report.Automated, report.ReportedTime, report.AdminID)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *ReportStore) RepointCommunity(ctx context.Context, fromID, toID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE reports SET community_id = $2 WHERE community_id = $1", fromID, toID)
	if err != nil {
		return fmt.Errorf("repoint reports: %w", err)
	}
	return nil
}

func (s *ReportStore) DeleteByCommunityID(ctx context.Context, communityID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE community_id = $1", communityID)
	if err != nil {
		return fmt.Errorf("delete reports: %w", err)
	}
	return nil
}

type RevocationStore struct {
	db *sql.DB
}

func NewRevocationStore(db *sql.DB) *RevocationStore { return &RevocationStore{db: db} }

const revocationColumns = "id, report_id, playername, community_id, broken_rule, proof, description, automated, reported_time, revoked_time, revoked_by"

func (s *RevocationStore) FindByCommunityID(ctx context.Context, communityID string) ([]models.Revocation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+revocationColumns+" FROM revocations WHERE community_id = $1 ORDER BY id", communityID)
	if err != nil {
		return nil, fmt.Errorf("find revocations: %w", err)
	}
	defer rows.Close()
	var result []models.Revocation
	for rows.Next() {
		var r models.Revocation
		if err := rows.Scan(&r.ID, &r.ReportID, &r.Playername, &r.CommunityID, &r.BrokenRule,
			&r.Proof, &r.Description, &r.Automated, &r.ReportedTime, &r.RevokedTime, &r.RevokedBy); err != nil {
			return nil, fmt.Errorf("scan revocation: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *RevocationStore) Create(ctx context.Context, revocation *models.Revocation) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO revocations ("+revocationColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)",
		revocation.ID, revocation.ReportID, revocation.Playername, revocation.CommunityID,
		revocation.BrokenRule, revocation.Proof, revocation.Description, revocation.Automated,
		revocation.ReportedTime, revocation.RevokedTime, revocation.RevokedBy)
	if err != nil {
		return fmt.Errorf("create revocation: %w", err)
	}
	return nil
}

func (s *RevocationStore) RepointCommunity(ctx context.Context, fromID, toID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE revocations SET community_id = $2 WHERE community_id = $1", fromID, toID)
	if err != nil {
		return fmt.Errorf("repoint revocations: %w", err)
	}
	return nil
}

func (s *RevocationStore) DeleteByCommunityID(ctx context.Context, communityID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM revocations WHERE community_id = $1", communityID)
	if err != nil {
		return fmt.Errorf("delete revocations: %w", err)
	}
	return nil
}

type WebhookStore struct {
	db *sql.DB
}

func NewWebhookStore(db *sql.DB) *WebhookStore { return &WebhookStore{db: db} }

func (s *WebhookStore) FindByGuildID(ctx context.Context, guildID string) ([]models.Webhook, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, token, guild_id FROM webhooks WHERE guild_id = $1 ORDER BY id", guildID)
	if err != nil {
		return nil, fmt.Errorf("find webhooks: %w", err)
	}
	defer rows.Close()
	var result []models.Webhook
	for rows.Next() {
		var w models.Webhook
		if err := rows.Scan(&w.ID, &w.Token, &w.GuildID); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func (s *WebhookStore) Create(ctx context.Context, webhook *models.Webhook) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO webhooks (id, token, guild_id) VALUES ($1, $2, $3)",
		webhook.ID, webhook.Token, webhook.GuildID)
	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}
	return nil
}

func (s *WebhookStore) DeleteByGuildIDs(ctx context.Context, guildIDs []string) error {
	if len(guildIDs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM webhooks WHERE guild_id = ANY($1)", pq.Array(guildIDs))
	if err != nil {
		return fmt.Errorf("delete webhooks: %w", err)
	}
	return nil
}
