// Package postgres implements the record store contracts on PostgreSQL via
// lib/pq. Set-valued fields map to text[] columns so the $addToSet/$pull
// style updates stay single statements.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"fedreg/internal/store"
)

// Open connects, pings, and returns the database handle.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewStores builds the full collection set over one database handle.
func NewStores(db *sql.DB) store.Stores {
	return store.Stores{
		Communities:  NewCommunityStore(db),
		GuildConfigs: NewGuildConfigStore(db),
		Auth:         NewAuthStore(db),
		Reports:      NewReportStore(db),
		Revocations:  NewRevocationStore(db),
		Webhooks:     NewWebhookStore(db),
		Rules:        NewRuleStore(db),
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS communities (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	contact   TEXT NOT NULL,
	guild_ids TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS guild_configs (
	guild_id             TEXT PRIMARY KEY,
	community_id         TEXT NOT NULL DEFAULT '',
	rule_filters         TEXT[] NOT NULL DEFAULT '{}',
	trusted_communities  TEXT[] NOT NULL DEFAULT '{}',
	role_reports         TEXT NOT NULL DEFAULT '',
	role_webhooks        TEXT NOT NULL DEFAULT '',
	role_set_config      TEXT NOT NULL DEFAULT '',
	role_set_rules       TEXT NOT NULL DEFAULT '',
	role_set_communities TEXT NOT NULL DEFAULT '',
	api_key              TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS guild_configs_community_idx ON guild_configs (community_id);

CREATE TABLE IF NOT EXISTS auth_tokens (
	api_key      TEXT PRIMARY KEY,
	community_id TEXT NOT NULL,
	api_key_type TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS auth_tokens_community_idx ON auth_tokens (community_id);

CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	playername    TEXT NOT NULL,
	community_id  TEXT NOT NULL,
	broken_rule   TEXT NOT NULL,
	proof         TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	automated     BOOLEAN NOT NULL DEFAULT FALSE,
	reported_time TIMESTAMPTZ NOT NULL,
	admin_id      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_community_idx ON reports (community_id);

CREATE TABLE IF NOT EXISTS revocations (
	id            TEXT PRIMARY KEY,
	report_id     TEXT NOT NULL,
	playername    TEXT NOT NULL,
	community_id  TEXT NOT NULL,
	broken_rule   TEXT NOT NULL,
	proof         TEXT NOT NULL DEFAULT '',
	description   TEXT NOT NULL DEFAULT '',
	automated     BOOLEAN NOT NULL DEFAULT FALSE,
	reported_time TIMESTAMPTZ NOT NULL,
	revoked_time  TIMESTAMPTZ NOT NULL,
	revoked_by    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS revocations_community_idx ON revocations (community_id);

CREATE TABLE IF NOT EXISTS webhooks (
	id       TEXT PRIMARY KEY,
	token    TEXT NOT NULL,
	guild_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS webhooks_guild_idx ON webhooks (guild_id);

CREATE TABLE IF NOT EXISTS rules (
	id        TEXT PRIMARY KEY,
	shortdesc TEXT NOT NULL,
	longdesc  TEXT NOT NULL
);
`

// Migrate applies the schema. Statements are idempotent so repeated boots
// are safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// isUniqueViolation detects a duplicate-key insert.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
