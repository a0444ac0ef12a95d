package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/acme/coldcall-agent/internal/domain"
)

type memoryLog struct {
	turns map[uuid.UUID][]domain.Turn
}

func (m *memoryLog) AppendTurns(_ context.Context, callID uuid.UUID, from int, turns []domain.Turn) error {
	if m.turns == nil {
		m.turns = make(map[uuid.UUID][]domain.Turn)
	}
	existing := m.turns[callID]
	for i, t := range turns {
		seq := from + i
		if seq < len(existing) {
			existing[seq] = t
		} else {
			existing = append(existing, t)
		}
	}
	m.turns[callID] = existing
	return nil
}

func (m *memoryLog) ListTurns(_ context.Context, callID uuid.UUID, _ int, _ []byte) ([]domain.Turn, []byte, error) {
	return m.turns[callID], nil, nil
}

type missingCalls struct {
	CallRepository
	updates int
}

func (m *missingCalls) UpdateConversationHistory(context.Context, uuid.UUID, []domain.Turn) error {
	m.updates++
	return ErrNotFound
}

func TestTranscriptsRewriteIsIdempotent(t *testing.T) {
	log := &memoryLog{}
	calls := &missingCalls{}
	w := &Transcripts{Calls: calls, Log: log}
	id := uuid.New()

	first := []domain.Turn{{Role: domain.RoleProspect, Message: "hello"}, {Role: domain.RoleAgent, Message: "hi"}}
	second := append(first, domain.Turn{Role: domain.RoleProspect, Message: "who is this"}, domain.Turn{Role: domain.RoleAgent, Message: "Sarah"})

	if err := w.WriteTranscript(context.Background(), id.String(), first); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.WriteTranscript(context.Background(), id.String(), second); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := len(log.turns[id]); got != 4 {
		t.Fatalf("expected 4 logged turns, got %d", got)
	}
	if calls.updates != 2 {
		t.Fatalf("expected call row updates to be attempted, got %d", calls.updates)
	}
}

func TestTranscriptsRejectsBadSessionID(t *testing.T) {
	w := &Transcripts{Log: &memoryLog{}}
	if err := w.WriteTranscript(context.Background(), "not-a-uuid", nil); err == nil {
		t.Fatalf("expected error for non-uuid session id")
	}
}

func TestTranscriptsSurfacesStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	w := &Transcripts{Log: failingLog{err: boom}}
	if err := w.WriteTranscript(context.Background(), uuid.NewString(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

type failingLog struct{ err error }

func (f failingLog) AppendTurns(context.Context, uuid.UUID, int, []domain.Turn) error { return f.err }

func (f failingLog) ListTurns(context.Context, uuid.UUID, int, []byte) ([]domain.Turn, []byte, error) {
	return nil, nil, f.err
}

func TestFormatConversationHistory(t *testing.T) {
	got := FormatConversationHistory([]domain.Turn{
		{Role: domain.RoleProspect, Message: "Hello?"},
		{Role: domain.RoleAgent, Message: "Hi, this is Sarah."},
	})
	want := "Prospect: Hello?\n\nAgent: Hi, this is Sarah."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if FormatConversationHistory(nil) != "" {
		t.Fatalf("empty history should render empty")
	}
}
