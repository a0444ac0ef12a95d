package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/pkg/logger"
)

// ErrCircuitOpen is returned while the breaker is skipping the model.
var ErrCircuitOpen = errors.New("llm: circuit open")

// Breaker stops calling a failing model for a cool-down period.
type Breaker struct {
	next      Client
	threshold int
	cooldown  time.Duration
	now       func() time.Time
	log       *logger.Logger

	mu        sync.Mutex
	failures  int
	openUntil time.Time
}

// NewBreaker wraps next. A threshold of zero disables the breaker.
func NewBreaker(next Client, threshold int, cooldown time.Duration, log *logger.Logger) *Breaker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Breaker{next: next, threshold: threshold, cooldown: cooldown, now: time.Now, log: log}
}

// Complete implements Client.
func (b *Breaker) Complete(ctx context.Context, req Request) (string, error) {
	if !b.allow() {
		return "", ErrCircuitOpen
	}
	text, err := b.next.Complete(ctx, req)
	b.observe(err)
	return text, err
}

// Open reports whether calls are currently being skipped.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now().Before(b.openUntil)
}

func (b *Breaker) allow() bool {
	if b.threshold <= 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.now().Before(b.openUntil)
}

func (b *Breaker) observe(err error) {
	if b.threshold <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.openUntil = b.now().Add(b.cooldown)
		b.failures = 0
		b.log.Warn("llm circuit opened", zap.Duration("cooldown", b.cooldown), zap.Error(err))
	}
}
