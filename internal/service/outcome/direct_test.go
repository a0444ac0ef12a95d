package outcome

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/acme/coldcall-agent/internal/domain"
)

type fakeLeads struct {
	calls []domain.Outcome
	err   error
}

func (f *fakeLeads) CreateLeadFromCall(_ context.Context, callID uuid.UUID, outcome domain.Outcome) (*domain.Lead, error) {
	f.calls = append(f.calls, outcome)
	if f.err != nil {
		return nil, f.err
	}
	score, status, ok := domain.LeadFor(outcome)
	if !ok {
		return nil, nil
	}
	return &domain.Lead{ID: uuid.New(), CallID: callID, Score: score, Status: status}, nil
}

func TestDirectRecordsEveryOutcome(t *testing.T) {
	leads := &fakeLeads{}
	d := NewDirect(leads, nil)
	for _, o := range []domain.Outcome{domain.OutcomeScheduled, domain.OutcomeNotInterested} {
		if err := d.RecordOutcome(context.Background(), domain.CallOutcome{CallID: uuid.New(), Outcome: o}); err != nil {
			t.Fatalf("record %s: %v", o, err)
		}
	}
	if len(leads.calls) != 2 {
		t.Fatalf("expected both outcomes forwarded, got %v", leads.calls)
	}
}

func TestDirectWrapsRepositoryErrors(t *testing.T) {
	boom := errors.New("db down")
	d := NewDirect(&fakeLeads{err: boom}, nil)
	if err := d.RecordOutcome(context.Background(), domain.CallOutcome{CallID: uuid.New(), Outcome: domain.OutcomeInterested}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
