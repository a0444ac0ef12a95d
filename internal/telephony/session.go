package telephony

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/conversation"
	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/metrics"
	"github.com/acme/coldcall-agent/pkg/logger"
)

var (
	// ErrTurnInFlight is returned when an utterance arrives before the previous reply was produced.
	ErrTurnInFlight = errors.New("telephony: turn already in flight")
	// ErrSessionClosed is returned for events sent after the session ended.
	ErrSessionClosed = errors.New("telephony: session closed")
)

const signOff = "Thanks so much for your time. Goodbye!"

// Result is the final record of a session.
type Result struct {
	SessionID      string
	ProviderCallID string
	Status         domain.CallStatus
	Duration       time.Duration
	Turns          int
	Answered       bool
}

type eventKind int

const (
	eventAnswer eventKind = iota
	eventUtterance
	eventStatus
	eventExpire
)

type event struct {
	ctx    context.Context
	kind   eventKind
	text   string
	status domain.CallStatus
	reply  chan response
}

type response struct {
	reply Reply
	err   error
}

// Session exchanges turns between one live call and its engine. A single goroutine owns the engine,
// so turns are processed strictly one at a time.
type Session struct {
	id       string
	engine   conversation.Engine
	opener   string
	writer   TranscriptWriter
	maxTurns int
	now      func() time.Time
	log      *logger.Logger
	metrics  *metrics.Metrics

	events  chan event
	pending atomic.Bool
	done    chan struct{}

	mu             sync.Mutex
	providerCallID string
	answeredAt     time.Time
	turns          int
	result         Result
}

func (s *Session) run() {
	defer close(s.done)
	for ev := range s.events {
		reply, end, err := s.handle(ev)
		if ev.reply != nil {
			ev.reply <- response{reply: reply, err: err}
		}
		if end != "" {
			s.finish(end)
			return
		}
	}
}

func (s *Session) handle(ev event) (Reply, domain.CallStatus, error) {
	switch ev.kind {
	case eventAnswer:
		s.mu.Lock()
		if s.answeredAt.IsZero() {
			s.answeredAt = s.now()
		}
		s.mu.Unlock()
		return Reply{Text: s.opener}, "", nil
	case eventUtterance:
		return s.turn(ev.ctx, ev.text)
	case eventStatus:
		return Reply{}, ev.status, nil
	case eventExpire:
		if s.Answered() {
			return Reply{}, domain.CallStatusCompleted, nil
		}
		return Reply{}, domain.CallStatusNoAnswer, nil
	}
	return Reply{}, "", nil
}

func (s *Session) turn(ctx context.Context, text string) (Reply, domain.CallStatus, error) {
	ctx, span := otel.Tracer("telephony").Start(ctx, "session.turn")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", s.id))

	s.mu.Lock()
	if s.answeredAt.IsZero() {
		s.answeredAt = s.now()
	}
	s.turns++
	turns := s.turns
	s.mu.Unlock()

	text = sanitize(text)
	reply := s.engine.ProcessResponse(ctx, text)
	s.metrics.Turn()

	if s.writer != nil {
		if err := s.writer.WriteTranscript(ctx, s.id, s.engine.ConversationHistory()); err != nil {
			s.log.WithContext(ctx).Warn("persist transcript failed", zap.String("session_id", s.id), zap.Error(err))
			s.metrics.PersistenceError("transcript")
		}
	}

	state := s.engine.State()
	span.SetAttributes(attribute.String("stage", string(state.Stage)), attribute.Int("turn", turns))
	if state.Terminal() || (s.maxTurns > 0 && turns >= s.maxTurns) {
		return Reply{Text: reply + " " + signOff, Hangup: true}, domain.CallStatusCompleted, nil
	}
	return Reply{Text: reply}, "", nil
}

func (s *Session) finish(status domain.CallStatus) {
	s.mu.Lock()
	var d time.Duration
	if !s.answeredAt.IsZero() {
		d = s.now().Sub(s.answeredAt)
	}
	s.result = Result{
		SessionID:      s.id,
		ProviderCallID: s.providerCallID,
		Status:         status,
		Duration:       d,
		Turns:          s.turns,
		Answered:       !s.answeredAt.IsZero(),
	}
	s.mu.Unlock()
	s.log.Debug("session ended", zap.String("session_id", s.id), zap.String("status", string(status)), zap.Int("turns", s.result.Turns))
}

// send delivers ev to the session goroutine and waits for its response.
func (s *Session) send(ctx context.Context, ev event) (Reply, error) {
	ev.ctx = context.WithoutCancel(ctx)
	ev.reply = make(chan response, 1)
	select {
	case <-s.done:
		return Reply{}, ErrSessionClosed
	default:
	}
	select {
	case s.events <- ev:
	case <-s.done:
		return Reply{}, ErrSessionClosed
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
	select {
	case r := <-ev.reply:
		return r.reply, r.err
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// ID returns the session id used in webhook URLs.
func (s *Session) ID() string { return s.id }

// Answer marks the call connected and returns the opening line.
func (s *Session) Answer(ctx context.Context) (Reply, error) {
	return s.send(ctx, event{kind: eventAnswer})
}

// Utterance feeds one recognized prospect utterance and returns exactly one reply.
func (s *Session) Utterance(ctx context.Context, text string) (Reply, error) {
	if !s.pending.CompareAndSwap(false, true) {
		return Reply{}, ErrTurnInFlight
	}
	defer s.pending.Store(false)
	return s.send(ctx, event{kind: eventUtterance, text: text})
}

// Status ends the session with a terminal provider status.
func (s *Session) Status(ctx context.Context, status domain.CallStatus) error {
	_, err := s.send(ctx, event{kind: eventStatus, status: status})
	return err
}

// Expire ends a session that ran past its time budget: completed if it was answered, no-answer otherwise.
func (s *Session) Expire(ctx context.Context) error {
	_, err := s.send(ctx, event{kind: eventExpire})
	return err
}

// SetProviderCallID records the provider's id for the placed call.
func (s *Session) SetProviderCallID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		s.providerCallID = id
	}
}

// Answered reports whether the call connected.
func (s *Session) Answered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.answeredAt.IsZero()
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session ends or ctx is done.
func (s *Session) Wait(ctx context.Context) (Result, error) {
	select {
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

const maxUtterance = 2000

// sanitize caps text at maxUtterance bytes without splitting a rune.
func sanitize(text string) string {
	if len(text) <= maxUtterance {
		return text
	}
	cut := maxUtterance
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
