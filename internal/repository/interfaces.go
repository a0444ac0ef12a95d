package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/acme/coldcall-agent/internal/domain"
	apperrors "github.com/acme/coldcall-agent/pkg/errors"
)

var (
	// ErrNotFound indicates the entity was not located.
	ErrNotFound = apperrors.ErrNotFound
	// ErrConflict indicates a unique constraint violation.
	ErrConflict = apperrors.ErrConflict
)

// DefaultCallLimit bounds GetAllCalls when the caller passes no limit.
const DefaultCallLimit = 100

// CallRepository persists call records, contacts and leads.
type CallRepository interface {
	SaveCall(ctx context.Context, rec domain.CallRecord) error
	UpdateConversationHistory(ctx context.Context, callID uuid.UUID, turns []domain.Turn) error
	// GetAllCalls returns the newest calls first.
	GetAllCalls(ctx context.Context, limit int) ([]domain.CallRecord, error)
	GetCallByID(ctx context.Context, callID uuid.UUID) (*domain.CallRecord, error)
	// CreateLeadFromCall finds or creates the contact for the call's phone and creates a lead for positive
	// outcomes. It returns a nil lead for not-interested outcomes.
	CreateLeadFromCall(ctx context.Context, callID uuid.UUID, outcome domain.Outcome) (*domain.Lead, error)
}

// CampaignRepository stores campaign snapshots together with their targets.
type CampaignRepository interface {
	Save(ctx context.Context, c *domain.Campaign) error
	List(ctx context.Context) ([]*domain.Campaign, error)
}

// TargetRepository stores the ordered target list of a campaign.
type TargetRepository interface {
	Replace(ctx context.Context, campaignID uuid.UUID, targets []domain.LocalBusiness) error
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.LocalBusiness, error)
}

// TranscriptStore is an append-only log of call turns.
type TranscriptStore interface {
	// AppendTurns writes turns starting at sequence number from. Rewriting a sequence number overwrites it.
	AppendTurns(ctx context.Context, callID uuid.UUID, from int, turns []domain.Turn) error
	ListTurns(ctx context.Context, callID uuid.UUID, pageSize int, pagingState []byte) ([]domain.Turn, []byte, error)
}
