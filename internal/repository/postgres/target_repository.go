package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/repository"
)

// TargetRepository persists campaign target lists in their original order.
type TargetRepository struct {
	db *sqlx.DB
}

var _ repository.TargetRepository = (*TargetRepository)(nil)

// NewTargetRepository constructs the repository.
func NewTargetRepository(db *sqlx.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

// Replace swaps the campaign's targets for the given list.
func (r *TargetRepository) Replace(ctx context.Context, campaignID uuid.UUID, targets []domain.LocalBusiness) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return replaceTargets(ctx, tx, campaignID, targets)
	})
}

// ListByCampaign returns the campaign's targets in insertion order.
func (r *TargetRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.LocalBusiness, error) {
	return listTargets(ctx, r.db, campaignID)
}

func replaceTargets(ctx context.Context, tx *sqlx.Tx, campaignID uuid.UUID, targets []domain.LocalBusiness) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_targets WHERE campaign_id = $1`, campaignID); err != nil {
		return fmt.Errorf("campaign targets: delete existing: %w", err)
	}
	if len(targets) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(targets))
	for i, t := range targets {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("campaign targets: marshal business: %w", err)
		}
		rows = append(rows, map[string]any{
			"campaign_id":  campaignID,
			"position":     i,
			"phone_number": t.Phone,
			"business":     payload,
		})
	}

	query := `INSERT INTO campaign_targets (campaign_id, position, phone_number, business)
		VALUES (:campaign_id, :position, :phone_number, :business)`
	if _, err := tx.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("campaign targets: bulk insert: %w", err)
	}
	return nil
}

func listTargets(ctx context.Context, q sqlx.QueryerContext, campaignID uuid.UUID) ([]domain.LocalBusiness, error) {
	rows, err := q.QueryxContext(ctx, `SELECT business FROM campaign_targets WHERE campaign_id = $1 ORDER BY position ASC`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("campaign targets: list: %w", err)
	}
	defer rows.Close()

	var results []domain.LocalBusiness
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("campaign targets: scan: %w", err)
		}
		var b domain.LocalBusiness
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, fmt.Errorf("campaign targets: decode business: %w", err)
		}
		results = append(results, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("campaign targets: rows err: %w", err)
	}
	return results, nil
}
