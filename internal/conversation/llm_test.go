package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/llm"
	"github.com/acme/coldcall-agent/internal/metrics"
)

type fakeLLM struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "Could you tell me more about your business?", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func TestLLMEngineKeepsMessagesInSync(t *testing.T) {
	client := &fakeLLM{replies: []string{"Great to meet you, Joe!", "Missing calls hurts. We can help."}}
	e := NewLLMEngine(Params{Business: diner}, client, LLMOptions{Temperature: 0.7, MaxTokens: 150}, nil, nil)

	first := e.ProcessResponse(context.Background(), "Yes, this is Joe")
	if first != "Great to meet you, Joe!" {
		t.Fatalf("expected model reply, got %q", first)
	}
	e.ProcessResponse(context.Background(), "We miss a lot of calls when we're busy")

	if len(client.requests) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(client.requests))
	}
	second := client.requests[1]
	if len(second.Messages) != 3 {
		t.Fatalf("expected user/assistant/user history, got %d messages", len(second.Messages))
	}
	if second.Messages[1].Role != llm.RoleAssistant || second.Messages[1].Content != first {
		t.Fatalf("assistant turn not carried forward: %+v", second.Messages[1])
	}
	if second.MaxTokens != 150 || second.Temperature != 0.7 {
		t.Fatalf("model options not applied: %+v", second)
	}
	if !strings.Contains(second.System, "Springfield, IL") || !strings.Contains(second.System, "Growth") {
		t.Fatalf("system prompt should carry business context and pricing:\n%s", second.System)
	}
	if !strings.Contains(second.System, "Current stage: qualification") {
		t.Fatalf("system prompt should carry the current stage:\n%s", second.System)
	}

	s := e.State()
	if s.Stage != domain.StagePitch || s.InterestLevel != domain.InterestHigh || s.ProspectName != "Joe" {
		t.Fatalf("heuristics not applied: %+v", s)
	}
	if len(s.History) != 4 {
		t.Fatalf("expected 4 transcript entries, got %d", len(s.History))
	}
}

func TestLLMEngineFallsBackOnError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	client := &fakeLLM{err: errors.New("401 unauthorized")}
	e := NewLLMEngine(Params{}, client, LLMOptions{}, nil, m)

	cases := []struct {
		utterance string
		contains  string
	}{
		{"hello?", "Do you have a moment"},
		{"not a good time, I'm busy", "called back"},
		{"not interested", "won't take up any more"},
		{"what do you do", "plans start at $129 per month"},
	}
	for _, tc := range cases {
		reply := e.ProcessResponse(context.Background(), tc.utterance)
		if !strings.Contains(reply, tc.contains) {
			t.Fatalf("%q: expected fallback containing %q, got %q", tc.utterance, tc.contains, reply)
		}
	}
	if got := len(e.ConversationHistory()); got != 2*len(cases) {
		t.Fatalf("fallback turns must still be recorded, got %d entries", got)
	}
	if got := testutil.ToFloat64(m.LLMRequests.WithLabelValues("fallback")); got != float64(len(cases)) {
		t.Fatalf("expected %d fallbacks recorded, got %v", len(cases), got)
	}
}

func TestLLMEngineEmptyCompletionFallsBack(t *testing.T) {
	client := &fakeLLM{replies: []string{"   "}}
	e := NewLLMEngine(Params{}, client, LLMOptions{}, nil, nil)

	if reply := e.ProcessResponse(context.Background(), "hi"); strings.TrimSpace(reply) == "" {
		t.Fatalf("empty completion must fall back to a canned line")
	}
}

func TestLLMEngineReachesTerminalStates(t *testing.T) {
	client := &fakeLLM{}
	e := NewLLMEngine(Params{}, client, LLMOptions{}, nil, nil)
	e.ProcessResponse(context.Background(), "sure")
	e.ProcessResponse(context.Background(), "yes, let's schedule a demo")

	s := e.State()
	if s.Stage != domain.StageClose || s.NextAction != domain.NextActionScheduleDemo || !s.Terminal() {
		t.Fatalf("expected terminal close, got %+v", s)
	}

	e.Reset()
	e.ProcessResponse(context.Background(), "hello")
	e.ProcessResponse(context.Background(), "we don't need this, not interested")
	s = e.State()
	if !s.Terminal() || s.Stage != domain.StageObjectionHandling || s.InterestLevel != domain.InterestLow {
		t.Fatalf("expected hard decline, got %+v", s)
	}
}

func TestFactorySelectsVariant(t *testing.T) {
	rules := NewFactory(nil, LLMOptions{}, nil, nil)(Params{})
	if _, ok := rules.(*RuleEngine); !ok {
		t.Fatalf("expected rule engine without a client, got %T", rules)
	}
	model := NewFactory(&fakeLLM{}, LLMOptions{}, nil, nil)(Params{})
	if _, ok := model.(*LLMEngine); !ok {
		t.Fatalf("expected llm engine with a client, got %T", model)
	}
}

func TestEnginesAgreeOnDeclines(t *testing.T) {
	cases := []struct {
		name     string
		lines    []string
		stage    domain.Stage
		interest domain.InterestLevel
		outcome  domain.Outcome
	}{
		{"busy at hello", []string{"I'm busy right now"}, domain.StageIntroduction, domain.InterestLow, domain.OutcomeNotInterested},
		{"declines twice", []string{"I'm busy, not interested", "I said not interested"}, domain.StageObjectionHandling, domain.InterestLow, domain.OutcomeNotInterested},
		{"declines after hello", []string{"hello", "I'm busy, not interested"}, domain.StageObjectionHandling, domain.InterestLow, domain.OutcomeNotInterested},
		{"busy as a pain", []string{"Yes, this is Joe", "We miss a lot of calls when we're busy"}, domain.StagePitch, domain.InterestHigh, domain.OutcomeInterested},
	}
	for _, tc := range cases {
		engines := map[string]Engine{
			"rules": NewRuleEngine(Params{Business: diner}),
			"llm":   NewLLMEngine(Params{Business: diner}, &fakeLLM{err: errors.New("timeout")}, LLMOptions{}, nil, nil),
		}
		for kind, e := range engines {
			for _, line := range tc.lines {
				e.ProcessResponse(context.Background(), line)
			}
			s := e.State()
			if s.Stage != tc.stage || s.InterestLevel != tc.interest {
				t.Fatalf("%s/%s: expected %s with %s interest, got %s with %s", tc.name, kind, tc.stage, tc.interest, s.Stage, s.InterestLevel)
			}
			if got := domain.ClassifyOutcome(s); got != tc.outcome {
				t.Fatalf("%s/%s: expected outcome %s, got %s", tc.name, kind, tc.outcome, got)
			}
		}
	}
}
