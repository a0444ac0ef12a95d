package telephony

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/acme/coldcall-agent/internal/conversation"
	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/metrics"
	apperrors "github.com/acme/coldcall-agent/pkg/errors"
	"github.com/acme/coldcall-agent/pkg/logger"
)

// HubOptions configures a Hub.
type HubOptions struct {
	Writer   TranscriptWriter
	MaxTurns int
	Now      func() time.Time
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

// Hub routes provider events to live sessions by id.
type Hub struct {
	opts HubOptions

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub constructs an empty hub.
func NewHub(opts HubOptions) *Hub {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Hub{opts: opts, sessions: make(map[string]*Session)}
}

// Open registers a session for id driving engine. opener is spoken when the call is answered.
func (h *Hub) Open(id string, engine conversation.Engine, opener string) *Session {
	s := &Session{
		id:       id,
		engine:   engine,
		opener:   opener,
		writer:   h.opts.Writer,
		maxTurns: h.opts.MaxTurns,
		now:      h.opts.Now,
		log:      h.opts.Logger.Named("session"),
		metrics:  h.opts.Metrics,
		events:   make(chan event),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()
	go s.run()
	return s
}

// Release forgets an ended session.
func (h *Hub) Release(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Get returns the session registered under id.
func (h *Hub) Get(id string) (*Session, error) {
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, id)
	}
	return s, nil
}

// Answer forwards an answer event.
func (h *Hub) Answer(ctx context.Context, id string) (Reply, error) {
	s, err := h.Get(id)
	if err != nil {
		return Reply{}, err
	}
	return s.Answer(ctx)
}

// Utterance forwards a recognized utterance.
func (h *Hub) Utterance(ctx context.Context, id, text string) (Reply, error) {
	s, err := h.Get(id)
	if err != nil {
		return Reply{}, err
	}
	return s.Utterance(ctx, text)
}

// Status forwards a terminal status, recording the provider call id when known.
func (h *Hub) Status(ctx context.Context, id, providerCallID string, status domain.CallStatus) error {
	s, err := h.Get(id)
	if err != nil {
		return err
	}
	s.SetProviderCallID(providerCallID)
	return s.Status(ctx, status)
}

// Active returns the number of registered sessions.
func (h *Hub) Active() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Shutdown expires every open session.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.RLock()
	open := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		open = append(open, s)
	}
	h.mu.RUnlock()
	for _, s := range open {
		_ = s.Expire(ctx)
	}
}
