package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/repository"
)

// CampaignRepository implements repository.CampaignRepository using PostgreSQL.
type CampaignRepository struct {
	db *sqlx.DB
}

var _ repository.CampaignRepository = (*CampaignRepository)(nil)

// NewCampaignRepository constructs a new repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Save upserts the campaign snapshot. Targets are written with the first save only, since they never change
// after creation.
func (r *CampaignRepository) Save(ctx context.Context, c *domain.Campaign) error {
	settings, err := json.Marshal(c.CallSettings)
	if err != nil {
		return fmt.Errorf("campaign repo: marshal call settings: %w", err)
	}
	agent, err := json.Marshal(c.AgentSettings)
	if err != nil {
		return fmt.Errorf("campaign repo: marshal agent settings: %w", err)
	}
	filters, err := json.Marshal(c.Filters)
	if err != nil {
		return fmt.Errorf("campaign repo: marshal filters: %w", err)
	}

	q := `INSERT INTO campaigns (
		id, name, status, call_settings, agent_settings, filters,
		total_calls, successful_calls, interested_leads, scheduled_demos, conversions,
		created_at, updated_at, started_at, completed_at
	) VALUES (
		:id, :name, :status, :call_settings, :agent_settings, :filters,
		:total_calls, :successful_calls, :interested_leads, :scheduled_demos, :conversions,
		:created_at, :updated_at, :started_at, :completed_at
	)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		status = EXCLUDED.status,
		total_calls = EXCLUDED.total_calls,
		successful_calls = EXCLUDED.successful_calls,
		interested_leads = EXCLUDED.interested_leads,
		scheduled_demos = EXCLUDED.scheduled_demos,
		conversions = EXCLUDED.conversions,
		updated_at = EXCLUDED.updated_at,
		started_at = EXCLUDED.started_at,
		completed_at = EXCLUDED.completed_at
	RETURNING (xmax = 0) AS inserted`

	params := map[string]any{
		"id":               c.ID,
		"name":             c.Name,
		"status":           string(c.Status),
		"call_settings":    settings,
		"agent_settings":   agent,
		"filters":          filters,
		"total_calls":      c.Stats.TotalCalls,
		"successful_calls": c.Stats.SuccessfulCalls,
		"interested_leads": c.Stats.InterestedLeads,
		"scheduled_demos":  c.Stats.ScheduledDemos,
		"conversions":      c.Stats.Conversions,
		"created_at":       c.CreatedAt,
		"updated_at":       c.UpdatedAt,
		"started_at":       c.StartedAt,
		"completed_at":     c.CompletedAt,
	}

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query, args, err := tx.BindNamed(q, params)
		if err != nil {
			return fmt.Errorf("campaign repo: bind: %w", err)
		}
		var inserted bool
		if err := tx.QueryRowxContext(ctx, query, args...).Scan(&inserted); err != nil {
			return fmt.Errorf("campaign repo: upsert: %w", err)
		}
		if !inserted {
			return nil
		}
		return replaceTargets(ctx, tx, c.ID, c.TargetBusinesses)
	})
}

// List returns every stored campaign with its targets, oldest first.
func (r *CampaignRepository) List(ctx context.Context) ([]*domain.Campaign, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, name, status, call_settings, agent_settings, filters,
		total_calls, successful_calls, interested_leads, scheduled_demos, conversions,
		created_at, updated_at, started_at, completed_at
	FROM campaigns ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("campaign repo: list: %w", err)
	}
	defer rows.Close()

	var results []*domain.Campaign
	for rows.Next() {
		var record campaignRecord
		if err := rows.StructScan(&record); err != nil {
			return nil, fmt.Errorf("campaign repo: scan: %w", err)
		}
		campaign, err := record.toDomain()
		if err != nil {
			return nil, err
		}
		results = append(results, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("campaign repo: rows err: %w", err)
	}

	for _, c := range results {
		targets, err := listTargets(ctx, r.db, c.ID)
		if err != nil {
			return nil, err
		}
		c.TargetBusinesses = targets
	}
	return results, nil
}

type campaignRecord struct {
	ID              uuid.UUID    `db:"id"`
	Name            string       `db:"name"`
	Status          string       `db:"status"`
	CallSettings    []byte       `db:"call_settings"`
	AgentSettings   []byte       `db:"agent_settings"`
	Filters         []byte       `db:"filters"`
	TotalCalls      int64        `db:"total_calls"`
	SuccessfulCalls int64        `db:"successful_calls"`
	InterestedLeads int64        `db:"interested_leads"`
	ScheduledDemos  int64        `db:"scheduled_demos"`
	Conversions     int64        `db:"conversions"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
	StartedAt       sql.NullTime `db:"started_at"`
	CompletedAt     sql.NullTime `db:"completed_at"`
}

func (r campaignRecord) toDomain() (*domain.Campaign, error) {
	c := &domain.Campaign{
		ID:     r.ID,
		Name:   r.Name,
		Status: domain.CampaignStatus(r.Status),
		Stats: domain.CampaignStats{
			TotalCalls:      r.TotalCalls,
			SuccessfulCalls: r.SuccessfulCalls,
			InterestedLeads: r.InterestedLeads,
			ScheduledDemos:  r.ScheduledDemos,
			Conversions:     r.Conversions,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal(r.CallSettings, &c.CallSettings); err != nil {
		return nil, fmt.Errorf("campaign repo: decode call settings: %w", err)
	}
	if err := json.Unmarshal(r.AgentSettings, &c.AgentSettings); err != nil {
		return nil, fmt.Errorf("campaign repo: decode agent settings: %w", err)
	}
	if err := json.Unmarshal(r.Filters, &c.Filters); err != nil {
		return nil, fmt.Errorf("campaign repo: decode filters: %w", err)
	}
	if r.StartedAt.Valid {
		t := r.StartedAt.Time
		c.StartedAt = &t
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		c.CompletedAt = &t
	}
	return c, nil
}
