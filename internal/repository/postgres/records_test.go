package postgres

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/acme/coldcall-agent/internal/domain"
)

func TestTurnsSurviveStorage(t *testing.T) {
	at := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	turns := []domain.Turn{
		{Role: domain.RoleProspect, Message: "hello", Timestamp: at},
		{Role: domain.RoleAgent, Message: "hi there", Timestamp: at.Add(time.Second)},
	}
	b, err := marshalTurns(turns)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := unmarshalTurns(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[1].Role != domain.RoleAgent || !got[1].Timestamp.Equal(at.Add(time.Second)) {
		t.Fatalf("unexpected turns %+v", got)
	}
	if empty, err := unmarshalTurns(nil); err != nil || empty != nil {
		t.Fatalf("empty column should decode to nil, got %v %v", empty, err)
	}
}

func TestCallRecordToDomain(t *testing.T) {
	campaignID := uuid.New()
	business, _ := json.Marshal(domain.LocalBusiness{Name: "Joe's Diner", Phone: "+1 (555) 111-2222"})
	transcript, _ := marshalTurns([]domain.Turn{{Role: domain.RoleProspect, Message: "yes"}})
	ended := time.Date(2025, 3, 3, 10, 5, 0, 0, time.UTC)

	rec, err := callRecord{
		ID:         uuid.New(),
		CampaignID: uuid.NullUUID{UUID: campaignID, Valid: true},
		Business:   business,
		Status:     "completed",
		Outcome:    "interested",
		DurationMs: 90_000,
		Transcript: transcript,
		EndedAt:    sql.NullTime{Time: ended, Valid: true},
	}.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if rec.Business.Name != "Joe's Diner" || rec.Outcome != domain.OutcomeInterested || rec.Duration != 90*time.Second {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.CampaignID == nil || *rec.CampaignID != campaignID || rec.EndedAt == nil || len(rec.Transcript) != 1 {
		t.Fatalf("optional fields not mapped: %+v", rec)
	}
}

func TestCampaignRecordToDomain(t *testing.T) {
	settings, _ := json.Marshal(domain.CallSettings{MaxCallsPerDay: 20, CallHours: domain.CallHours{Start: "08:00", End: "18:00"}, Timezone: "UTC"})
	agent, _ := json.Marshal(domain.AgentSettings{Name: "Sarah"})
	filters, _ := json.Marshal(domain.CampaignFilters{Industries: []string{"dental"}, ExcludeCalled: true})

	c, err := campaignRecord{
		ID:            uuid.New(),
		Name:          "spring",
		Status:        "paused",
		CallSettings:  settings,
		AgentSettings: agent,
		Filters:       filters,
		TotalCalls:    4,
		Conversions:   1,
	}.toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if c.Status != domain.CampaignStatusPaused || c.CallSettings.MaxCallsPerDay != 20 || c.AgentSettings.Name != "Sarah" {
		t.Fatalf("unexpected campaign %+v", c)
	}
	if !c.Filters.ExcludeCalled || c.Stats.TotalCalls != 4 || c.Stats.Conversions != 1 || c.StartedAt != nil {
		t.Fatalf("unexpected campaign details %+v", c)
	}
}
