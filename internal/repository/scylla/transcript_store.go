package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/repository"
)

// Schema creates the transcript table. Keyspace creation is left to deployment.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS call_turns (
		call_id text,
		seq int,
		role text,
		message text,
		spoken_at timestamp,
		PRIMARY KEY (call_id, seq)
	) WITH CLUSTERING ORDER BY (seq ASC)`,
}

// TranscriptStore keeps call turns in Scylla, one partition per call.
type TranscriptStore struct {
	session *gocql.Session
}

var _ repository.TranscriptStore = (*TranscriptStore)(nil)

// NewTranscriptStore creates a new transcript store.
func NewTranscriptStore(session *gocql.Session) *TranscriptStore {
	return &TranscriptStore{session: session}
}

// EnsureSchema applies Schema.
func (s *TranscriptStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if err := s.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("transcript store: schema: %w", err)
		}
	}
	return nil
}

// AppendTurns writes turns in an unlogged batch. Writes are upserts keyed by sequence number.
func (s *TranscriptStore) AppendTurns(ctx context.Context, callID uuid.UUID, from int, turns []domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	batch := s.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	for i, t := range turns {
		batch.Query(`INSERT INTO call_turns (call_id, seq, role, message, spoken_at) VALUES (?, ?, ?, ?, ?)`,
			callID.String(), from+i, string(t.Role), t.Message, t.Timestamp.UTC(),
		)
	}
	if err := s.session.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("transcript store: append turns: %w", err)
	}
	return nil
}

// ListTurns pages through a call's turns in order.
func (s *TranscriptStore) ListTurns(ctx context.Context, callID uuid.UUID, pageSize int, pagingState []byte) ([]domain.Turn, []byte, error) {
	if pageSize <= 0 {
		pageSize = 50
	}

	query := s.session.Query(`SELECT role, message, spoken_at FROM call_turns WHERE call_id = ?`, callID.String()).
		WithContext(ctx).
		PageSize(pageSize)
	if len(pagingState) > 0 {
		query = query.PageState(pagingState)
	}

	iter := query.Iter()
	turns := make([]domain.Turn, 0, pageSize)

	var (
		role     string
		message  string
		spokenAt time.Time
	)
	for iter.Scan(&role, &message, &spokenAt) {
		turns = append(turns, domain.Turn{Role: domain.Role(role), Message: message, Timestamp: spokenAt})
	}

	next := iter.PageState()
	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("transcript store: iter close: %w", err)
	}
	return turns, next, nil
}
