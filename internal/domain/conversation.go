package domain

import (
	"slices"
	"time"
)

// Stage is the current phase of the sales dialogue.
type Stage string

const (
	StageIntroduction      Stage = "introduction"
	StageQualification     Stage = "qualification"
	StagePitch             Stage = "pitch"
	StageObjectionHandling Stage = "objection-handling"
	StageClose             Stage = "close"
	StageFollowUp          Stage = "follow-up"
)

// InterestLevel is the coarse sentiment of the prospect.
type InterestLevel string

const (
	InterestLow    InterestLevel = "low"
	InterestMedium InterestLevel = "medium"
	InterestHigh   InterestLevel = "high"
)

// PainPoint tags a business problem the prospect surfaced.
type PainPoint string

const (
	PainMissedCalls   PainPoint = "missed-calls"
	PainCost          PainPoint = "cost"
	PainAfterHours    PainPoint = "after-hours"
	PainSmallTeam     PainPoint = "small-team"
	PainMultiLanguage PainPoint = "multi-language"
)

// Objection tags a pushback reason.
type Objection string

const (
	ObjectionPrice            Objection = "price"
	ObjectionExistingSolution Objection = "existing-solution"
	ObjectionNotInterested    Objection = "not-interested"
	ObjectionTiming           Objection = "timing"
)

// NextAction is the decision reached on a call. Empty means none yet.
type NextAction string

const (
	NextActionNone          NextAction = ""
	NextActionScheduleDemo  NextAction = "schedule-demo"
	NextActionSendInfo      NextAction = "send-info"
	NextActionFollowUp      NextAction = "follow-up"
	NextActionNotInterested NextAction = "not-interested"
)

// Role identifies the speaker of a turn.
type Role string

const (
	RoleAgent    Role = "agent"
	RoleProspect Role = "prospect"
)

// Turn is one line of the call transcript.
type Turn struct {
	Role      Role
	Message   string
	Timestamp time.Time
}

// BusinessContext is the immutable snapshot of what we know about the callee.
type BusinessContext struct {
	CompanyName  string
	Industry     string
	Location     string
	BusinessType string
	Size         string
	KnownInfo    string
}

// ConversationState tracks one live call.
type ConversationState struct {
	Stage         Stage
	InterestLevel InterestLevel
	PainPoints    []PainPoint
	Objections    []Objection
	NextAction    NextAction
	History       []Turn
	ProspectName  string
	CompanyName   string
	BusinessType  string
	Location      string
}

// NewConversationState returns the initial state for a call.
func NewConversationState() ConversationState {
	return ConversationState{
		Stage:         StageIntroduction,
		InterestLevel: InterestMedium,
	}
}

// AddPainPoint appends p unless already present.
func (s *ConversationState) AddPainPoint(p PainPoint) {
	if !slices.Contains(s.PainPoints, p) {
		s.PainPoints = append(s.PainPoints, p)
	}
}

// HasPainPoint reports whether p was identified.
func (s *ConversationState) HasPainPoint(p PainPoint) bool {
	return slices.Contains(s.PainPoints, p)
}

// AddObjection appends o unless already present.
func (s *ConversationState) AddObjection(o Objection) {
	if !slices.Contains(s.Objections, o) {
		s.Objections = append(s.Objections, o)
	}
}

// Terminal reports whether the call should be ended by its driver.
func (s *ConversationState) Terminal() bool {
	if s.InterestLevel == InterestLow && s.Stage == StageObjectionHandling {
		return true
	}
	return (s.Stage == StageClose || s.Stage == StageFollowUp) && s.NextAction != NextActionNone
}

// Clone returns a copy that shares no slices with s.
func (s ConversationState) Clone() ConversationState {
	s.PainPoints = slices.Clone(s.PainPoints)
	s.Objections = slices.Clone(s.Objections)
	s.History = slices.Clone(s.History)
	return s
}
