// Package telephony connects placed calls to the conversation engine.
package telephony

import (
	"context"

	"github.com/acme/coldcall-agent/internal/domain"
)

// CallConfig describes one outbound call to place.
type CallConfig struct {
	SessionID       string
	From            string
	To              string
	AgentName       string
	AgentVoice      string
	PitchStyle      string
	BusinessContext domain.BusinessContext
}

// Provider abstracts the telephony integration. Implementations dial the number and then deliver
// answer, speech and status events for SessionID to a Hub.
type Provider interface {
	InitiateCall(ctx context.Context, cfg CallConfig) (providerCallID string, err error)
}

// TranscriptWriter persists the running transcript of a session after each turn.
type TranscriptWriter interface {
	WriteTranscript(ctx context.Context, sessionID string, turns []domain.Turn) error
}

// Reply is what the agent says back for one event.
type Reply struct {
	Text   string
	Hangup bool
}
