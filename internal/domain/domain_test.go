package domain

import (
	"testing"
	"time"
)

func TestCampaignStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to CampaignStatus
		ok       bool
	}{
		{CampaignStatusDraft, CampaignStatusActive, true},
		{CampaignStatusDraft, CampaignStatusPaused, false},
		{CampaignStatusActive, CampaignStatusPaused, true},
		{CampaignStatusPaused, CampaignStatusActive, true},
		{CampaignStatusActive, CampaignStatusCompleted, true},
		{CampaignStatusDraft, CampaignStatusCompleted, true},
		{CampaignStatusCompleted, CampaignStatusActive, false},
		{CampaignStatusCompleted, CampaignStatusCompleted, false},
		{CampaignStatusActive, CampaignStatusDraft, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.ok, got)
		}
	}
}

func TestClassifyOutcome(t *testing.T) {
	cases := []struct {
		name  string
		state ConversationState
		want  Outcome
	}{
		{"demo", ConversationState{NextAction: NextActionScheduleDemo, InterestLevel: InterestLow}, OutcomeScheduled},
		{"send info", ConversationState{NextAction: NextActionSendInfo, InterestLevel: InterestHigh}, OutcomeFollowUp},
		{"follow up", ConversationState{NextAction: NextActionFollowUp}, OutcomeFollowUp},
		{"declined", ConversationState{NextAction: NextActionNotInterested, InterestLevel: InterestHigh}, OutcomeNotInterested},
		{"high interest", ConversationState{InterestLevel: InterestHigh}, OutcomeInterested},
		{"low interest", ConversationState{InterestLevel: InterestLow}, OutcomeNotInterested},
		{"undecided", ConversationState{InterestLevel: InterestMedium}, OutcomeFollowUp},
	}
	for _, tc := range cases {
		if got := ClassifyOutcome(tc.state); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestTerminal(t *testing.T) {
	s := NewConversationState()
	if s.Terminal() {
		t.Fatalf("fresh conversation must not be terminal")
	}
	s.Stage = StageClose
	if s.Terminal() {
		t.Fatalf("close without a next action is still open")
	}
	s.NextAction = NextActionScheduleDemo
	if !s.Terminal() {
		t.Fatalf("close with a next action is terminal")
	}

	s = NewConversationState()
	s.Stage = StageObjectionHandling
	s.InterestLevel = InterestLow
	if !s.Terminal() {
		t.Fatalf("low interest during objection handling is terminal")
	}
}

func TestTagsAreDeduplicated(t *testing.T) {
	s := NewConversationState()
	s.AddPainPoint(PainMissedCalls)
	s.AddPainPoint(PainMissedCalls)
	s.AddObjection(ObjectionPrice)
	s.AddObjection(ObjectionPrice)
	if len(s.PainPoints) != 1 || len(s.Objections) != 1 {
		t.Fatalf("expected deduplicated tags, got %v %v", s.PainPoints, s.Objections)
	}
	if !s.HasPainPoint(PainMissedCalls) {
		t.Fatalf("HasPainPoint should see the added tag")
	}
}

func TestLeadFor(t *testing.T) {
	if score, status, ok := LeadFor(OutcomeScheduled); !ok || score != 90 || status != LeadStatusDemoScheduled {
		t.Fatalf("unexpected scheduled lead: %d %s %v", score, status, ok)
	}
	if score, status, ok := LeadFor(OutcomeInterested); !ok || score != 75 || status != LeadStatusQualified {
		t.Fatalf("unexpected interested lead: %d %s %v", score, status, ok)
	}
	if _, _, ok := LeadFor(OutcomeNotInterested); ok {
		t.Fatalf("declines must not produce a lead")
	}
}

func TestCampaignCloneIsIndependent(t *testing.T) {
	started := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	c := &Campaign{
		Name:             "spring",
		TargetBusinesses: []LocalBusiness{{Name: "Joe's Diner"}},
		Filters:          CampaignFilters{Industries: []string{"restaurant"}},
		StartedAt:        &started,
	}
	cp := c.Clone()
	cp.TargetBusinesses[0].Name = "changed"
	cp.Filters.Industries[0] = "changed"
	*cp.StartedAt = started.Add(time.Hour)

	if c.TargetBusinesses[0].Name != "Joe's Diner" || c.Filters.Industries[0] != "restaurant" || !c.StartedAt.Equal(started) {
		t.Fatalf("clone shares memory with the original: %+v", c)
	}
}

func TestBusinessContext(t *testing.T) {
	b := LocalBusiness{Name: "Joe's Diner", City: "Springfield", State: "IL", BusinessType: "restaurant"}
	bc := b.Context()
	if bc.Location != "Springfield, IL" || bc.CompanyName != "Joe's Diner" {
		t.Fatalf("unexpected context %+v", bc)
	}
	if (LocalBusiness{State: "IL"}).Location() != "IL" {
		t.Fatalf("state-only location should render the state")
	}
}
