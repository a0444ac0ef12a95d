package conversation

import (
	"context"
	"slices"

	"github.com/acme/coldcall-agent/internal/domain"
)

// RuleEngine is the deterministic keyword-driven dialogue state machine.
type RuleEngine struct {
	base
}

var _ Engine = (*RuleEngine)(nil)

// NewRuleEngine creates a rule-based engine for one call.
func NewRuleEngine(p Params) *RuleEngine {
	return &RuleEngine{base: newBase(p)}
}

// ProcessResponse implements Engine.
func (e *RuleEngine) ProcessResponse(_ context.Context, utterance string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.record(domain.RoleProspect, utterance)
	sig := Classify(utterance)
	e.captureName(sig)

	var reply string
	switch e.state.Stage {
	case domain.StageIntroduction:
		reply = e.introduction(sig)
	case domain.StageQualification:
		reply = e.qualification(sig)
	case domain.StagePitch:
		reply = e.pitch(sig)
	case domain.StageObjectionHandling:
		reply = e.objection(sig)
	case domain.StageClose:
		reply = e.close(sig)
	default:
		reply = wrapUpReply
	}
	return e.finish(reply)
}

// Reset implements Engine.
func (e *RuleEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *RuleEngine) introduction(sig Signals) string {
	if sig.declined() {
		if e.introductionDecline() {
			return politeGoodbye
		}
		return gatekeeperPivot
	}
	e.advance(domain.StageQualification)
	return opener(e.state.ProspectName, e.agent, e.business)
}

func (e *RuleEngine) qualification(sig Signals) string {
	for _, p := range sig.PainPoints {
		e.state.AddPainPoint(p)
	}
	if slices.Contains(sig.PainPoints, domain.PainMissedCalls) {
		e.state.InterestLevel = domain.InterestHigh
	}
	switch {
	case sig.Intents.ExistingSolution:
		e.state.AddObjection(domain.ObjectionExistingSolution)
		e.advance(domain.StageObjectionHandling)
		return existingSolutionRebuttal
	case sig.Intents.Rejection || sig.Intents.NotInterested:
		e.advance(domain.StageObjectionHandling)
		return e.objection(sig)
	}
	e.advance(domain.StagePitch)
	return buildPitch(e.state)
}

func (e *RuleEngine) pitch(sig Signals) string {
	switch {
	case sig.Intents.Rejection:
		e.advance(domain.StageObjectionHandling)
		return e.objection(sig)
	case sig.Intents.PricingInterest:
		e.state.InterestLevel = domain.InterestHigh
		e.advance(domain.StageClose)
		return tierRecital()
	case sig.Intents.WantsDemo || sig.Intents.Affirmative:
		e.state.InterestLevel = domain.InterestHigh
		e.advance(domain.StageClose)
		return demoOffer
	}
	return proofPoint
}

func (e *RuleEngine) objection(sig Signals) string {
	switch {
	case sig.Intents.PriceConcern:
		e.state.AddObjection(domain.ObjectionPrice)
		return priceRebuttal()
	case sig.Intents.NotInterested:
		e.state.AddObjection(domain.ObjectionNotInterested)
		e.state.InterestLevel = domain.InterestLow
		return notInterestedDiagnostic
	case sig.Intents.Deferral:
		e.state.AddObjection(domain.ObjectionTiming)
		e.state.NextAction = domain.NextActionFollowUp
		e.advance(domain.StageFollowUp)
		return followUpAck
	}
	e.advance(domain.StagePitch)
	return reengage
}

func (e *RuleEngine) close(sig Signals) string {
	switch {
	case sig.Intents.Rejection || sig.Intents.NotInterested || sig.declined():
		e.state.InterestLevel = domain.InterestLow
		e.state.NextAction = domain.NextActionNotInterested
		return closeDeclineReply
	case sig.Intents.Deferral:
		e.state.NextAction = domain.NextActionFollowUp
		return closeDeferralReply
	case sig.Intents.WantsInfo && !sig.Intents.WantsDemo:
		e.state.NextAction = domain.NextActionSendInfo
		return sendInfoReply
	case sig.Intents.Affirmative || sig.Intents.WantsDemo:
		e.state.NextAction = domain.NextActionScheduleDemo
		return scheduleDemoReply
	}
	return closeOffer
}
