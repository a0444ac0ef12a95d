// Package conversation runs the sales dialogue for a single outbound call.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/acme/coldcall-agent/internal/domain"
)

// Engine is one call's dialogue strategy. Turns must be fed one at a time.
type Engine interface {
	// ProcessResponse records the prospect's utterance and returns the next line to speak. Never empty.
	ProcessResponse(ctx context.Context, utterance string) string
	State() domain.ConversationState
	ConversationHistory() []domain.Turn
	SetBusinessContext(bc domain.BusinessContext)
	Reset()
	CallDuration() time.Duration
}

// Params configures one engine instance.
type Params struct {
	Business domain.BusinessContext
	Agent    domain.AgentSettings
	Now      func() time.Time
}

const defaultAgentName = "Sarah"

func (p Params) agentName() string {
	if p.Agent.Name == "" {
		return defaultAgentName
	}
	return p.Agent.Name
}

// base holds the state shared by both engine variants.
type base struct {
	mu        sync.Mutex
	state     domain.ConversationState
	business  domain.BusinessContext
	agent     string
	now       func() time.Time
	startedAt time.Time
}

func newBase(p Params) base {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	b := base{
		state:     domain.NewConversationState(),
		agent:     p.agentName(),
		now:       now,
		startedAt: now(),
	}
	b.applyBusinessContext(p.Business)
	return b
}

func (b *base) State() domain.ConversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}

func (b *base) ConversationHistory() []domain.Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Turn(nil), b.state.History...)
}

func (b *base) SetBusinessContext(bc domain.BusinessContext) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.applyBusinessContext(bc)
}

func (b *base) CallDuration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now().Sub(b.startedAt)
}

func (b *base) resetLocked() {
	b.state = domain.NewConversationState()
	b.startedAt = b.now()
	b.applyBusinessContext(b.business)
}

// applyBusinessContext copies known fields into the state without overwriting captured values.
func (b *base) applyBusinessContext(bc domain.BusinessContext) {
	b.business = bc
	if b.state.CompanyName == "" {
		b.state.CompanyName = bc.CompanyName
	}
	if b.state.BusinessType == "" {
		b.state.BusinessType = bc.BusinessType
	}
	if b.state.Location == "" {
		b.state.Location = bc.Location
	}
}

func (b *base) record(role domain.Role, message string) {
	b.state.History = append(b.state.History, domain.Turn{Role: role, Message: message, Timestamp: b.now()})
}

func (b *base) captureName(sig Signals) {
	if b.state.ProspectName == "" && sig.ProspectName != "" {
		b.state.ProspectName = sig.ProspectName
	}
}

// advance moves to next unless that would regress a closed conversation.
func (b *base) advance(next domain.Stage) {
	if b.state.Stage == domain.StageClose || b.state.Stage == domain.StageFollowUp {
		if next == domain.StageIntroduction || next == domain.StageQualification || next == domain.StagePitch {
			return
		}
	}
	b.state.Stage = next
}

// introductionDecline applies a decline heard before the conversation got going. The first one
// drops interest to low and keeps the stage; a second one records a hard decline. It reports
// whether the prospect is done.
func (b *base) introductionDecline() bool {
	if b.state.InterestLevel == domain.InterestLow {
		b.state.AddObjection(domain.ObjectionNotInterested)
		b.state.NextAction = domain.NextActionNotInterested
		b.advance(domain.StageObjectionHandling)
		return true
	}
	b.state.InterestLevel = domain.InterestLow
	return false
}

// finish guarantees a non-empty reply and records it.
func (b *base) finish(reply string) string {
	if strings.TrimSpace(reply) == "" {
		reply = defaultPrompt
	}
	b.record(domain.RoleAgent, reply)
	return reply
}
