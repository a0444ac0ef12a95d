package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the tables used by the repositories. Statements are idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		call_settings JSONB NOT NULL,
		agent_settings JSONB NOT NULL,
		filters JSONB NOT NULL,
		total_calls BIGINT NOT NULL DEFAULT 0,
		successful_calls BIGINT NOT NULL DEFAULT 0,
		interested_leads BIGINT NOT NULL DEFAULT 0,
		scheduled_demos BIGINT NOT NULL DEFAULT 0,
		conversions BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS campaign_targets (
		campaign_id UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		position INT NOT NULL,
		phone_number TEXT NOT NULL,
		business JSONB NOT NULL,
		PRIMARY KEY (campaign_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		phone_number TEXT NOT NULL UNIQUE,
		company TEXT NOT NULL DEFAULT '',
		industry TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS calls (
		id UUID PRIMARY KEY,
		provider_call_id TEXT NOT NULL DEFAULT '',
		campaign_id UUID,
		contact_id UUID REFERENCES contacts(id),
		business JSONB NOT NULL,
		phone_number TEXT NOT NULL,
		status TEXT NOT NULL,
		outcome TEXT NOT NULL DEFAULT '',
		interest_level TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL DEFAULT 0,
		transcript JSONB NOT NULL DEFAULT '[]',
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS calls_started_at_idx ON calls (started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id UUID PRIMARY KEY,
		contact_id UUID NOT NULL REFERENCES contacts(id),
		call_id UUID NOT NULL UNIQUE REFERENCES calls(id),
		score INT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema applies Schema inside one transaction.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, stmt := range Schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("postgres schema: %w", err)
			}
		}
		return nil
	})
}
