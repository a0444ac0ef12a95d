// Package mock simulates a telephony provider whose prospects follow scripted answers.
package mock

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/config"
	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/telephony"
	"github.com/acme/coldcall-agent/pkg/logger"
)

// Scripts are the simulated prospects, picked at random per call.
var Scripts = [][]string{
	{"Yes, this is Maria speaking", "Honestly we miss a lot of calls when we're busy", "How much is it?", "Sure, let's schedule a demo"},
	{"Hello?", "We already have an answering service", "I'm happy with what we have, not interested"},
	{"Yeah, what is this about?", "We're closed on weekends and people leave voicemails", "That sounds expensive", "Let me think about it"},
	{"I'm busy right now", "I said not interested"},
	{"Speaking", "It's just me and a small team", "Can you send me some information by email?"},
}

// Events is the session side the simulator drives. *telephony.Hub satisfies it.
type Events interface {
	Answer(ctx context.Context, id string) (telephony.Reply, error)
	Utterance(ctx context.Context, id, text string) (telephony.Reply, error)
	Status(ctx context.Context, id, providerCallID string, status domain.CallStatus) error
}

// Provider simulates outbound call behaviour against a session hub.
type Provider struct {
	events      Events
	connectRate float64
	answerDelay time.Duration
	scripts     [][]string
	log         *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
	wg  sync.WaitGroup
}

var _ telephony.Provider = (*Provider)(nil)

// NewProvider constructs a simulator feeding events.
func NewProvider(events Events, cfg config.TelephonyConfig, log *logger.Logger) *Provider {
	if log == nil {
		log = logger.NewNop()
	}
	seed := uint64(time.Now().UnixNano())
	return &Provider{
		events:      events,
		connectRate: cfg.MockConnectRate,
		answerDelay: cfg.MockAnswerDelay,
		scripts:     Scripts,
		log:         log.Named("mock_telephony"),
		rng:         rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

// WithScripts replaces the prospect scripts and fixes the random source.
func (p *Provider) WithScripts(seed uint64, scripts ...[]string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts = scripts
	p.rng = rand.New(rand.NewPCG(seed, seed>>1))
	return p
}

// InitiateCall implements telephony.Provider. The call plays out asynchronously.
func (p *Provider) InitiateCall(ctx context.Context, cfg telephony.CallConfig) (string, error) {
	if cfg.SessionID == "" {
		return "", errors.New("mock telephony: session id is required")
	}
	callID := "mock-" + uuid.NewString()

	p.mu.Lock()
	roll := p.rng.Float64()
	var script []string
	if len(p.scripts) > 0 {
		script = p.scripts[p.rng.IntN(len(p.scripts))]
	}
	busy := p.rng.IntN(2) == 0
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.play(context.WithoutCancel(ctx), cfg.SessionID, callID, roll < p.connectRate, busy, script)
	}()
	return callID, nil
}

func (p *Provider) play(ctx context.Context, sessionID, callID string, connect, busy bool, script []string) {
	log := p.log.With(zap.String("session_id", sessionID), zap.String("call_id", callID))
	if p.answerDelay > 0 {
		time.Sleep(p.answerDelay)
	}

	if !connect {
		status := domain.CallStatusNoAnswer
		if busy {
			status = domain.CallStatusBusy
		}
		if err := p.events.Status(ctx, sessionID, callID, status); err != nil {
			log.Debug("status rejected", zap.Error(err))
		}
		return
	}

	if _, err := p.events.Answer(ctx, sessionID); err != nil {
		log.Warn("answer rejected", zap.Error(err))
		return
	}
	for _, line := range script {
		reply, err := p.events.Utterance(ctx, sessionID, line)
		if err != nil {
			log.Debug("utterance rejected", zap.Error(err))
			return
		}
		log.Debug("turn", zap.String("prospect", line), zap.String("agent", reply.Text))
		if reply.Hangup {
			return
		}
	}
	if err := p.events.Status(ctx, sessionID, callID, domain.CallStatusCompleted); err != nil {
		log.Debug("status rejected", zap.Error(err))
	}
}

// Wait blocks until every simulated call has finished playing.
func (p *Provider) Wait() {
	p.wg.Wait()
}
