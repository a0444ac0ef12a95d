package lead

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/queue"
)

type scriptedReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

type recorder struct {
	got []domain.CallOutcome
	err error
}

func (r *recorder) RecordOutcome(_ context.Context, o domain.CallOutcome) error {
	r.got = append(r.got, o)
	return r.err
}

func encode(t *testing.T, o domain.CallOutcome) kafka.Message {
	t.Helper()
	b, err := json.Marshal(queue.OutcomeMessage{CallID: o.CallID, CampaignID: o.CampaignID, Outcome: string(o.Outcome)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return kafka.Message{Key: o.CallID[:], Value: b}
}

func TestWorkerRecordsAndCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := domain.CallOutcome{CallID: uuid.New(), Outcome: domain.OutcomeInterested}
	reader := &scriptedReader{
		msgs:   []kafka.Message{encode(t, first), {Value: []byte("not json")}},
		cancel: cancel,
	}
	rec := &recorder{}

	err := New(reader, rec, nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(rec.got) != 1 || rec.got[0].CallID != first.CallID || rec.got[0].Outcome != domain.OutcomeInterested {
		t.Fatalf("unexpected recorded outcomes %+v", rec.got)
	}
	if len(reader.committed) != 2 {
		t.Fatalf("poison messages must be committed too, got %d commits", len(reader.committed))
	}
}

func TestWorkerCommitsAfterRecorderFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &scriptedReader{
		msgs:   []kafka.Message{encode(t, domain.CallOutcome{CallID: uuid.New(), Outcome: domain.OutcomeScheduled})},
		cancel: cancel,
	}
	rec := &recorder{err: errors.New("db down")}

	if err := New(reader, rec, nil).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(rec.got) != 1 || len(reader.committed) != 1 {
		t.Fatalf("expected one attempt and one commit, got %d and %d", len(rec.got), len(reader.committed))
	}
}
