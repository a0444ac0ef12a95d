package domain

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus enumerates lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// CanTransition reports whether a campaign may move from s to next.
func (s CampaignStatus) CanTransition(next CampaignStatus) bool {
	if s == CampaignStatusCompleted {
		return false
	}
	switch next {
	case CampaignStatusActive:
		return s == CampaignStatusDraft || s == CampaignStatusPaused
	case CampaignStatusPaused:
		return s == CampaignStatusActive
	case CampaignStatusCompleted:
		return true
	default:
		return false
	}
}

// CallStatus enumerates lifecycle stages for a queued call.
type CallStatus string

const (
	CallStatusPending   CallStatus = "pending"
	CallStatusCalling   CallStatus = "calling"
	CallStatusCompleted CallStatus = "completed"
	CallStatusFailed    CallStatus = "failed"
	CallStatusNoAnswer  CallStatus = "no-answer"
	CallStatusBusy      CallStatus = "busy"
	CallStatusSkipped   CallStatus = "skipped"
)

// CallHours is a daily local-time window in "HH:MM" form.
type CallHours struct {
	Start string
	End   string
}

// CallSettings controls pacing for a campaign.
type CallSettings struct {
	MaxCallsPerDay int
	CallHours      CallHours
	Timezone       string
}

// AgentSettings describes the voice agent persona used on calls.
type AgentSettings struct {
	Name       string
	Voice      string
	PitchStyle string
}

// CampaignFilters narrows the target list when the queue is built.
type CampaignFilters struct {
	Industries    []string
	Locations     []string
	ExcludeCalled bool
}

// CampaignStats aggregates campaign counters. All counters only grow.
type CampaignStats struct {
	TotalCalls      int64
	SuccessfulCalls int64
	InterestedLeads int64
	ScheduledDemos  int64
	Conversions     int64
}

// Campaign models an outbound calling effort against a fixed target list.
type Campaign struct {
	ID               uuid.UUID
	Name             string
	Status           CampaignStatus
	TargetBusinesses []LocalBusiness
	CallSettings     CallSettings
	AgentSettings    AgentSettings
	Filters          CampaignFilters
	Stats            CampaignStats
	CreatedAt        time.Time
	UpdatedAt        time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// Clone returns a deep copy safe to hand outside the owning manager.
func (c *Campaign) Clone() *Campaign {
	out := *c
	out.TargetBusinesses = append([]LocalBusiness(nil), c.TargetBusinesses...)
	out.Filters.Industries = append([]string(nil), c.Filters.Industries...)
	out.Filters.Locations = append([]string(nil), c.Filters.Locations...)
	if c.StartedAt != nil {
		t := *c.StartedAt
		out.StartedAt = &t
	}
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}

// CampaignCall is one queued or attempted contact.
type CampaignCall struct {
	ID            uuid.UUID
	CampaignID    uuid.UUID
	Business      LocalBusiness
	Status        CallStatus
	Result        *CallResult
	ScheduledTime time.Time
	CallTime      *time.Time
	RetryCount    int
	LastError     string
}
