package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the classified result of a connected call.
type Outcome string

const (
	OutcomeInterested    Outcome = "interested"
	OutcomeNotInterested Outcome = "not-interested"
	OutcomeScheduled     Outcome = "scheduled"
	OutcomeFollowUp      Outcome = "follow-up"
)

// ClassifyOutcome maps the final conversation state to exactly one outcome.
func ClassifyOutcome(state ConversationState) Outcome {
	switch state.NextAction {
	case NextActionScheduleDemo:
		return OutcomeScheduled
	case NextActionFollowUp, NextActionSendInfo:
		return OutcomeFollowUp
	case NextActionNotInterested:
		return OutcomeNotInterested
	}
	switch state.InterestLevel {
	case InterestHigh:
		return OutcomeInterested
	case InterestLow:
		return OutcomeNotInterested
	default:
		return OutcomeFollowUp
	}
}

// CallResult is what a finished attempt produced.
type CallResult struct {
	CallID         uuid.UUID
	ProviderCallID string
	Status         CallStatus
	Duration       time.Duration
	Transcript     []Turn
	Outcome        Outcome
	Notes          string
}

// CallRecord is the persisted shape of a call.
type CallRecord struct {
	ID             uuid.UUID
	ProviderCallID string
	CampaignID     *uuid.UUID
	Business       LocalBusiness
	Status         CallStatus
	Outcome        Outcome
	Duration       time.Duration
	Transcript     []Turn
	InterestLevel  InterestLevel
	StartedAt      time.Time
	EndedAt        *time.Time
}

// CallOutcome is emitted once per finished, connected call.
type CallOutcome struct {
	CallID     uuid.UUID
	CampaignID uuid.UUID
	Business   LocalBusiness
	Outcome    Outcome
	NextAction NextAction
	PainPoints []PainPoint
	Objections []Objection
	OccurredAt time.Time
}

// LeadStatus is the pipeline state of a lead.
type LeadStatus string

const (
	LeadStatusQualified     LeadStatus = "qualified"
	LeadStatusDemoScheduled LeadStatus = "demo-scheduled"
	LeadStatusFollowUp      LeadStatus = "follow-up"
)

// Lead is created from a positive call outcome.
type Lead struct {
	ID        uuid.UUID
	ContactID uuid.UUID
	CallID    uuid.UUID
	Score     int
	Status    LeadStatus
	CreatedAt time.Time
}

// LeadFor returns the score and status a lead gets for outcome, or ok=false if no lead is due.
func LeadFor(outcome Outcome) (score int, status LeadStatus, ok bool) {
	switch outcome {
	case OutcomeScheduled:
		return 90, LeadStatusDemoScheduled, true
	case OutcomeInterested:
		return 75, LeadStatusQualified, true
	case OutcomeFollowUp:
		return 60, LeadStatusFollowUp, true
	default:
		return 0, "", false
	}
}
