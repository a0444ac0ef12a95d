package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) Complete(context.Context, Request) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return "ok", nil
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	boom := errors.New("boom")
	next := &scriptedClient{errs: []error{boom, boom}}
	b := NewBreaker(next, 2, time.Minute, nil)
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if _, err := b.Complete(context.Background(), Request{}); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected boom, got %v", i, err)
		}
	}
	if _, err := b.Complete(context.Background(), Request{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("open breaker must not reach the model, calls=%d", next.calls)
	}

	now = now.Add(time.Minute)
	text, err := b.Complete(context.Background(), Request{})
	if err != nil || text != "ok" {
		t.Fatalf("expected recovery after cooldown, got %q %v", text, err)
	}
}

func TestBreakerDisabled(t *testing.T) {
	boom := errors.New("boom")
	next := &scriptedClient{errs: []error{boom, boom, boom}}
	b := NewBreaker(next, 0, time.Minute, nil)
	for i := 0; i < 3; i++ {
		_, _ = b.Complete(context.Background(), Request{})
	}
	if next.calls != 3 || b.Open() {
		t.Fatalf("disabled breaker must pass every call through")
	}
}
