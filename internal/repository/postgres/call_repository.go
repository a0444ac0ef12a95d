package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/repository"
)

// CallRepository implements repository.CallRepository using PostgreSQL.
type CallRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ repository.CallRepository = (*CallRepository)(nil)

// NewCallRepository constructs a new repository.
func NewCallRepository(db *sqlx.DB) *CallRepository {
	return &CallRepository{db: db, now: time.Now}
}

const callColumns = `id, provider_call_id, campaign_id, contact_id, business, phone_number, status, outcome,
	interest_level, duration_ms, transcript, started_at, ended_at`

// SaveCall inserts or replaces a call record.
func (r *CallRepository) SaveCall(ctx context.Context, rec domain.CallRecord) error {
	business, err := json.Marshal(rec.Business)
	if err != nil {
		return fmt.Errorf("call repo: marshal business: %w", err)
	}
	transcript, err := marshalTurns(rec.Transcript)
	if err != nil {
		return err
	}

	q := `INSERT INTO calls (
		id, provider_call_id, campaign_id, business, phone_number, status, outcome,
		interest_level, duration_ms, transcript, started_at, ended_at, updated_at
	) VALUES (
		:id, :provider_call_id, :campaign_id, :business, :phone_number, :status, :outcome,
		:interest_level, :duration_ms, :transcript, :started_at, :ended_at, :updated_at
	)
	ON CONFLICT (id) DO UPDATE SET
		provider_call_id = EXCLUDED.provider_call_id,
		status = EXCLUDED.status,
		outcome = EXCLUDED.outcome,
		interest_level = EXCLUDED.interest_level,
		duration_ms = EXCLUDED.duration_ms,
		transcript = EXCLUDED.transcript,
		ended_at = EXCLUDED.ended_at,
		updated_at = EXCLUDED.updated_at`

	params := map[string]any{
		"id":               rec.ID,
		"provider_call_id": rec.ProviderCallID,
		"campaign_id":      rec.CampaignID,
		"business":         business,
		"phone_number":     rec.Business.Phone,
		"status":           string(rec.Status),
		"outcome":          string(rec.Outcome),
		"interest_level":   string(rec.InterestLevel),
		"duration_ms":      rec.Duration.Milliseconds(),
		"transcript":       transcript,
		"started_at":       rec.StartedAt,
		"ended_at":         rec.EndedAt,
		"updated_at":       r.now().UTC(),
	}

	if _, err := r.db.NamedExecContext(ctx, q, params); err != nil {
		return fmt.Errorf("call repo: upsert: %w", err)
	}
	return nil
}

// UpdateConversationHistory replaces the stored transcript of an existing call.
func (r *CallRepository) UpdateConversationHistory(ctx context.Context, callID uuid.UUID, turns []domain.Turn) error {
	transcript, err := marshalTurns(turns)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE calls SET transcript = $1, updated_at = $2 WHERE id = $3`,
		transcript, r.now().UTC(), callID)
	if err != nil {
		return fmt.Errorf("call repo: update transcript: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("call repo: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: call %s", repository.ErrNotFound, callID)
	}
	return nil
}

// GetAllCalls lists calls, newest first.
func (r *CallRepository) GetAllCalls(ctx context.Context, limit int) ([]domain.CallRecord, error) {
	if limit <= 0 {
		limit = repository.DefaultCallLimit
	}
	rows, err := r.db.QueryxContext(ctx, `SELECT `+callColumns+` FROM calls ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("call repo: list: %w", err)
	}
	defer rows.Close()

	var results []domain.CallRecord
	for rows.Next() {
		var record callRecord
		if err := rows.StructScan(&record); err != nil {
			return nil, fmt.Errorf("call repo: scan: %w", err)
		}
		call, err := record.toDomain()
		if err != nil {
			return nil, err
		}
		results = append(results, call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("call repo: rows err: %w", err)
	}
	return results, nil
}

// GetCallByID fetches one call.
func (r *CallRepository) GetCallByID(ctx context.Context, callID uuid.UUID) (*domain.CallRecord, error) {
	var record callRecord
	if err := r.db.QueryRowxContext(ctx, `SELECT `+callColumns+` FROM calls WHERE id = $1`, callID).StructScan(&record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: call %s", repository.ErrNotFound, callID)
		}
		return nil, fmt.Errorf("call repo: get: %w", err)
	}
	call, err := record.toDomain()
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// CreateLeadFromCall upserts the contact behind a call and records a lead for positive outcomes.
// Calling it twice for the same call returns the existing lead.
func (r *CallRepository) CreateLeadFromCall(ctx context.Context, callID uuid.UUID, outcome domain.Outcome) (*domain.Lead, error) {
	now := r.now().UTC()
	var lead *domain.Lead

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var call struct {
			Business []byte `db:"business"`
			Phone    string `db:"phone_number"`
		}
		if err := tx.GetContext(ctx, &call, `SELECT business, phone_number FROM calls WHERE id = $1 FOR UPDATE`, callID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: call %s", repository.ErrNotFound, callID)
			}
			return fmt.Errorf("call repo: load call: %w", err)
		}
		var business domain.LocalBusiness
		if err := json.Unmarshal(call.Business, &business); err != nil {
			return fmt.Errorf("call repo: decode business: %w", err)
		}

		status := domain.ContactStatusLead
		if outcome == domain.OutcomeNotInterested {
			status = domain.ContactStatusNotInterested
		}
		var contactID uuid.UUID
		err := tx.QueryRowxContext(ctx, `INSERT INTO contacts (id, name, phone_number, company, industry, location, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			ON CONFLICT (phone_number) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
			RETURNING id`,
			uuid.New(), business.Name, call.Phone, business.Name, business.Industry, business.Location(), string(status), now,
		).Scan(&contactID)
		if err != nil {
			return fmt.Errorf("call repo: upsert contact: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE calls SET contact_id = $1 WHERE id = $2`, contactID, callID); err != nil {
			return fmt.Errorf("call repo: link contact: %w", err)
		}

		score, leadStatus, ok := domain.LeadFor(outcome)
		if !ok {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO leads (id, contact_id, call_id, score, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (call_id) DO NOTHING`,
			uuid.New(), contactID, callID, score, string(leadStatus), now,
		); err != nil {
			return fmt.Errorf("call repo: insert lead: %w", err)
		}

		var record leadRecord
		if err := tx.GetContext(ctx, &record, `SELECT id, contact_id, call_id, score, status, created_at FROM leads WHERE call_id = $1`, callID); err != nil {
			return fmt.Errorf("call repo: load lead: %w", err)
		}
		l := record.toDomain()
		lead = &l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

type callRecord struct {
	ID             uuid.UUID     `db:"id"`
	ProviderCallID string        `db:"provider_call_id"`
	CampaignID     uuid.NullUUID `db:"campaign_id"`
	ContactID      uuid.NullUUID `db:"contact_id"`
	Business       []byte        `db:"business"`
	PhoneNumber    string        `db:"phone_number"`
	Status         string        `db:"status"`
	Outcome        string        `db:"outcome"`
	InterestLevel  string        `db:"interest_level"`
	DurationMs     int64         `db:"duration_ms"`
	Transcript     []byte        `db:"transcript"`
	StartedAt      time.Time     `db:"started_at"`
	EndedAt        sql.NullTime  `db:"ended_at"`
}

func (r callRecord) toDomain() (domain.CallRecord, error) {
	rec := domain.CallRecord{
		ID:             r.ID,
		ProviderCallID: r.ProviderCallID,
		Status:         domain.CallStatus(r.Status),
		Outcome:        domain.Outcome(r.Outcome),
		InterestLevel:  domain.InterestLevel(r.InterestLevel),
		Duration:       time.Duration(r.DurationMs) * time.Millisecond,
		StartedAt:      r.StartedAt,
	}
	if err := json.Unmarshal(r.Business, &rec.Business); err != nil {
		return rec, fmt.Errorf("call repo: decode business: %w", err)
	}
	turns, err := unmarshalTurns(r.Transcript)
	if err != nil {
		return rec, err
	}
	rec.Transcript = turns
	if r.CampaignID.Valid {
		id := r.CampaignID.UUID
		rec.CampaignID = &id
	}
	if r.EndedAt.Valid {
		t := r.EndedAt.Time
		rec.EndedAt = &t
	}
	return rec, nil
}

type leadRecord struct {
	ID        uuid.UUID `db:"id"`
	ContactID uuid.UUID `db:"contact_id"`
	CallID    uuid.UUID `db:"call_id"`
	Score     int       `db:"score"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

func (r leadRecord) toDomain() domain.Lead {
	return domain.Lead{
		ID:        r.ID,
		ContactID: r.ContactID,
		CallID:    r.CallID,
		Score:     r.Score,
		Status:    domain.LeadStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

// turnJSON is the stored shape of one transcript line.
type turnJSON struct {
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func marshalTurns(turns []domain.Turn) ([]byte, error) {
	out := make([]turnJSON, len(turns))
	for i, t := range turns {
		out[i] = turnJSON{Role: string(t.Role), Message: t.Message, Timestamp: t.Timestamp}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("call repo: marshal transcript: %w", err)
	}
	return b, nil
}

func unmarshalTurns(b []byte) ([]domain.Turn, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var stored []turnJSON
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, fmt.Errorf("call repo: decode transcript: %w", err)
	}
	turns := make([]domain.Turn, len(stored))
	for i, t := range stored {
		turns[i] = domain.Turn{Role: domain.Role(t.Role), Message: t.Message, Timestamp: t.Timestamp}
	}
	return turns, nil
}
