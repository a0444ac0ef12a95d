// Package outcome turns call outcomes into contacts and leads.
package outcome

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/pkg/logger"
)

// LeadCreator is the slice of the call repository the recorder needs.
type LeadCreator interface {
	CreateLeadFromCall(ctx context.Context, callID uuid.UUID, outcome domain.Outcome) (*domain.Lead, error)
}

// Direct records outcomes synchronously against the repository.
type Direct struct {
	leads LeadCreator
	log   *logger.Logger
}

// NewDirect builds a recorder.
func NewDirect(leads LeadCreator, log *logger.Logger) *Direct {
	if log == nil {
		log = logger.NewNop()
	}
	return &Direct{leads: leads, log: log.Named("outcome")}
}

// RecordOutcome upserts the contact and creates a lead when the outcome warrants one.
func (d *Direct) RecordOutcome(ctx context.Context, o domain.CallOutcome) error {
	lead, err := d.leads.CreateLeadFromCall(ctx, o.CallID, o.Outcome)
	if err != nil {
		return fmt.Errorf("record outcome for call %s: %w", o.CallID, err)
	}

	fields := []zap.Field{
		zap.String("call_id", o.CallID.String()),
		zap.String("campaign_id", o.CampaignID.String()),
		zap.String("outcome", string(o.Outcome)),
	}
	if lead != nil {
		fields = append(fields, zap.String("lead_id", lead.ID.String()), zap.Int("score", lead.Score))
	}
	d.log.WithContext(ctx).Info("outcome recorded", fields...)
	return nil
}
