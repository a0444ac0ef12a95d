package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/acme/coldcall-agent/internal/domain"
)

// Transcripts writes live session transcripts to the turn log and to the call row once it exists.
type Transcripts struct {
	Calls CallRepository
	Log   TranscriptStore
}

// WriteTranscript persists the full transcript of a session. Sessions are keyed by call id.
func (t *Transcripts) WriteTranscript(ctx context.Context, sessionID string, turns []domain.Turn) error {
	callID, err := uuid.Parse(sessionID)
	if err != nil {
		return fmt.Errorf("transcripts: session id %q: %w", sessionID, err)
	}

	var errs []error
	if t.Log != nil {
		if err := t.Log.AppendTurns(ctx, callID, 0, turns); err != nil {
			errs = append(errs, err)
		}
	}
	if t.Calls != nil {
		// The call row is written when the attempt finishes; until then there is nothing to update.
		if err := t.Calls.UpdateConversationHistory(ctx, callID, turns); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FormatConversationHistory renders a transcript as "Agent:" and "Prospect:" blocks separated by blank lines.
func FormatConversationHistory(turns []domain.Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		speaker := "Prospect"
		if t.Role == domain.RoleAgent {
			speaker = "Agent"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(t.Message)
	}
	return b.String()
}
