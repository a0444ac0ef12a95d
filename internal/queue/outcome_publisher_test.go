package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/acme/coldcall-agent/internal/domain"
)

type captureWriter struct {
	msgs []kafka.Message
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *captureWriter) Close() error { return nil }

func TestOutcomePublisherKeysByCall(t *testing.T) {
	w := &captureWriter{}
	p := newOutcomePublisher(w)
	p.now = func() time.Time { return time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC) }

	o := domain.CallOutcome{
		CallID:     uuid.New(),
		CampaignID: uuid.New(),
		Business:   domain.LocalBusiness{Name: "Joe's Diner", Phone: "+1 (555) 111-2222", City: "Springfield"},
		Outcome:    domain.OutcomeScheduled,
		NextAction: domain.NextActionScheduleDemo,
		PainPoints: []domain.PainPoint{domain.PainMissedCalls},
	}
	if err := p.RecordOutcome(context.Background(), o); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(w.msgs) != 1 || !bytes.Equal(w.msgs[0].Key, o.CallID[:]) {
		t.Fatalf("expected one message keyed by call id, got %+v", w.msgs)
	}

	var msg OutcomeMessage
	if err := json.Unmarshal(w.msgs[0].Value, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	back := msg.Domain()
	if back.CallID != o.CallID || back.Outcome != o.Outcome || back.Business.Name != "Joe's Diner" || len(back.PainPoints) != 1 {
		t.Fatalf("message lost data: %+v", back)
	}
	if !msg.PublishedAt.Equal(p.now()) {
		t.Fatalf("unexpected publish time %v", msg.PublishedAt)
	}
}
