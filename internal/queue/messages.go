package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/acme/coldcall-agent/internal/domain"
)

// OutcomeMessage is the wire form of a finished, connected call.
type OutcomeMessage struct {
	CallID      uuid.UUID `json:"call_id"`
	CampaignID  uuid.UUID `json:"campaign_id"`
	Business    Business  `json:"business"`
	Outcome     string    `json:"outcome"`
	NextAction  string    `json:"next_action,omitempty"`
	PainPoints  []string  `json:"pain_points,omitempty"`
	Objections  []string  `json:"objections,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	PublishedAt time.Time `json:"published_at"`
}

// Business is the subset of the called business carried on outcome events.
type Business struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// NewOutcomeMessage converts a domain outcome.
func NewOutcomeMessage(o domain.CallOutcome, publishedAt time.Time) OutcomeMessage {
	msg := OutcomeMessage{
		CallID:     o.CallID,
		CampaignID: o.CampaignID,
		Business: Business{
			Name:     o.Business.Name,
			Phone:    o.Business.Phone,
			City:     o.Business.City,
			State:    o.Business.State,
			Industry: o.Business.Industry,
		},
		Outcome:     string(o.Outcome),
		NextAction:  string(o.NextAction),
		OccurredAt:  o.OccurredAt,
		PublishedAt: publishedAt,
	}
	for _, p := range o.PainPoints {
		msg.PainPoints = append(msg.PainPoints, string(p))
	}
	for _, obj := range o.Objections {
		msg.Objections = append(msg.Objections, string(obj))
	}
	return msg
}

// Domain converts the message back into a domain outcome.
func (m OutcomeMessage) Domain() domain.CallOutcome {
	o := domain.CallOutcome{
		CallID:     m.CallID,
		CampaignID: m.CampaignID,
		Business: domain.LocalBusiness{
			Name:     m.Business.Name,
			Phone:    m.Business.Phone,
			City:     m.Business.City,
			State:    m.Business.State,
			Industry: m.Business.Industry,
		},
		Outcome:    domain.Outcome(m.Outcome),
		NextAction: domain.NextAction(m.NextAction),
		OccurredAt: m.OccurredAt,
	}
	for _, p := range m.PainPoints {
		o.PainPoints = append(o.PainPoints, domain.PainPoint(p))
	}
	for _, obj := range m.Objections {
		o.Objections = append(o.Objections, domain.Objection(obj))
	}
	return o
}
