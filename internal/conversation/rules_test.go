package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/acme/coldcall-agent/internal/domain"
)

var diner = domain.BusinessContext{
	CompanyName:  "Joe's Diner",
	Industry:     "restaurant",
	Location:     "Springfield, IL",
	BusinessType: "restaurant",
}

func feed(t *testing.T, e Engine, utterances ...string) []string {
	t.Helper()
	replies := make([]string, 0, len(utterances))
	for _, u := range utterances {
		reply := e.ProcessResponse(context.Background(), u)
		if strings.TrimSpace(reply) == "" {
			t.Fatalf("empty reply for %q", u)
		}
		replies = append(replies, reply)
	}
	return replies
}

func TestTranscriptAlwaysEvenAndOrdered(t *testing.T) {
	e := NewRuleEngine(Params{Business: diner})
	inputs := []string{"", "???", "yes", "hmm", "we miss calls", "what", "tell me more", "no idea", "maybe", "1234"}

	for i, u := range inputs {
		e.ProcessResponse(context.Background(), u)
		history := e.ConversationHistory()
		if len(history) != 2*(i+1) {
			t.Fatalf("after %d turns expected %d entries, got %d", i+1, 2*(i+1), len(history))
		}
		if history[2*i].Role != domain.RoleProspect || history[2*i].Message != u {
			t.Fatalf("turn %d: expected prospect %q first, got %+v", i, u, history[2*i])
		}
		if history[2*i+1].Role != domain.RoleAgent || history[2*i+1].Message == "" {
			t.Fatalf("turn %d: expected non-empty agent reply second, got %+v", i, history[2*i+1])
		}
	}
}

func TestHappyPathToScheduledDemo(t *testing.T) {
	e := NewRuleEngine(Params{Business: diner})

	replies := feed(t, e, "Yes, this is Joe")
	if !strings.HasPrefix(replies[0], "Hi Joe") {
		t.Fatalf("opener should greet by name, got %q", replies[0])
	}
	if !strings.Contains(replies[0], "restaurant businesses around Springfield, IL") {
		t.Fatalf("opener should reference business context, got %q", replies[0])
	}
	if s := e.State(); s.Stage != domain.StageQualification || s.ProspectName != "Joe" {
		t.Fatalf("unexpected state after intro: %+v", s)
	}

	replies = feed(t, e, "We miss a lot of calls when we're busy with customers")
	s := e.State()
	if s.Stage != domain.StagePitch || s.InterestLevel != domain.InterestHigh || !s.HasPainPoint(domain.PainMissedCalls) {
		t.Fatalf("unexpected state after qualification: %+v", s)
	}
	if !strings.Contains(replies[0], "$129 per month") || !strings.Contains(replies[0], "Joe's Diner") {
		t.Fatalf("pitch should quote the starter plan for the business, got %q", replies[0])
	}

	replies = feed(t, e, "How much is it?")
	if e.State().Stage != domain.StageClose {
		t.Fatalf("expected close after pricing question, got %s", e.State().Stage)
	}
	for _, name := range []string{"Starter", "Growth", "Scale"} {
		if !strings.Contains(replies[0], name) {
			t.Fatalf("tier recital missing %s: %q", name, replies[0])
		}
	}

	feed(t, e, "Yes let's do it")
	s = e.State()
	if s.NextAction != domain.NextActionScheduleDemo || !s.Terminal() {
		t.Fatalf("expected terminal schedule-demo state, got %+v", s)
	}
	if domain.ClassifyOutcome(s) != domain.OutcomeScheduled {
		t.Fatalf("expected scheduled outcome, got %s", domain.ClassifyOutcome(s))
	}
}

func TestIntroductionDeclinePivotsThenEnds(t *testing.T) {
	e := NewRuleEngine(Params{})

	replies := feed(t, e, "I'm busy, not interested")
	s := e.State()
	if s.Stage != domain.StageIntroduction || s.InterestLevel != domain.InterestLow {
		t.Fatalf("first decline should stay in introduction with low interest, got %+v", s)
	}
	if replies[0] != gatekeeperPivot {
		t.Fatalf("expected gatekeeper pivot, got %q", replies[0])
	}
	if s.Terminal() {
		t.Fatalf("first decline must not end the call")
	}

	feed(t, e, "I said not interested")
	s = e.State()
	if !s.Terminal() || s.Stage != domain.StageObjectionHandling {
		t.Fatalf("second decline should be a hard decline, got %+v", s)
	}
	if domain.ClassifyOutcome(s) != domain.OutcomeNotInterested {
		t.Fatalf("expected not-interested outcome")
	}
}

func TestExistingSolutionGoesToObjectionHandling(t *testing.T) {
	e := NewRuleEngine(Params{})
	feed(t, e, "sure", "We already use an answering service")

	s := e.State()
	if s.Stage != domain.StageObjectionHandling {
		t.Fatalf("expected objection-handling, got %s", s.Stage)
	}
	if len(s.Objections) != 1 || s.Objections[0] != domain.ObjectionExistingSolution {
		t.Fatalf("expected existing-solution objection, got %v", s.Objections)
	}
}

func TestObjectionsAreDeduplicated(t *testing.T) {
	e := NewRuleEngine(Params{})
	replies := feed(t, e, "ok", "we have a small team", "that's too expensive", "still too expensive", "way too expensive")

	s := e.State()
	if len(s.Objections) != 1 || s.Objections[0] != domain.ObjectionPrice {
		t.Fatalf("expected a single price objection, got %v", s.Objections)
	}
	if len(s.PainPoints) != 1 || s.PainPoints[0] != domain.PainSmallTeam {
		t.Fatalf("expected a single small-team pain point, got %v", s.PainPoints)
	}
	if !strings.Contains(replies[2], "96% less") {
		t.Fatalf("price rebuttal should quote savings, got %q", replies[2])
	}
}

func TestDeferralEndsInFollowUp(t *testing.T) {
	e := NewRuleEngine(Params{})
	feed(t, e, "yes", "we're closed on weekends", "too expensive", "let me think about it")

	s := e.State()
	if s.Stage != domain.StageFollowUp || s.NextAction != domain.NextActionFollowUp || !s.Terminal() {
		t.Fatalf("expected terminal follow-up, got %+v", s)
	}
	if domain.ClassifyOutcome(s) != domain.OutcomeFollowUp {
		t.Fatalf("expected follow-up outcome")
	}
}

func TestCloseNeverRegresses(t *testing.T) {
	e := NewRuleEngine(Params{})
	feed(t, e, "yes", "we miss calls", "how much")
	if e.State().Stage != domain.StageClose {
		t.Fatalf("expected close, got %s", e.State().Stage)
	}

	for _, u := range []string{"hello", "what is this about", "we miss calls", "hmm", "tell me more"} {
		e.ProcessResponse(context.Background(), u)
		switch e.State().Stage {
		case domain.StageClose, domain.StageFollowUp:
		default:
			t.Fatalf("stage regressed to %s after %q", e.State().Stage, u)
		}
	}
}

func TestResetKeepsBusinessContext(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	e := NewRuleEngine(Params{Business: diner, Now: func() time.Time { return now }})
	feed(t, e, "yes", "we miss calls")

	now = now.Add(90 * time.Second)
	if e.CallDuration() != 90*time.Second {
		t.Fatalf("expected 90s, got %s", e.CallDuration())
	}

	e.Reset()
	s := e.State()
	if len(s.History) != 0 || s.Stage != domain.StageIntroduction || s.InterestLevel != domain.InterestMedium {
		t.Fatalf("reset should restore the initial state, got %+v", s)
	}
	if s.CompanyName != "Joe's Diner" || s.Location != "Springfield, IL" {
		t.Fatalf("reset should keep business context, got %+v", s)
	}
	if e.CallDuration() != 0 {
		t.Fatalf("reset should restart the call clock")
	}
}

func TestSetBusinessContextDoesNotOverwrite(t *testing.T) {
	e := NewRuleEngine(Params{Business: diner})
	e.SetBusinessContext(domain.BusinessContext{CompanyName: "Other", Location: "Boston, MA"})

	s := e.State()
	if s.CompanyName != "Joe's Diner" || s.Location != "Springfield, IL" {
		t.Fatalf("captured fields must not be overwritten, got %+v", s)
	}
}

func TestStateIsACopy(t *testing.T) {
	e := NewRuleEngine(Params{})
	feed(t, e, "yes")
	s := e.State()
	s.History[0].Message = "mutated"
	if e.ConversationHistory()[0].Message == "mutated" {
		t.Fatalf("State must return a copy")
	}
}
