package conversation

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/llm"
	"github.com/acme/coldcall-agent/internal/metrics"
	"github.com/acme/coldcall-agent/pkg/logger"
)

// LLMOptions tunes model calls.
type LLMOptions struct {
	Temperature float64
	MaxTokens   int64
	Timeout     time.Duration
}

// LLMEngine delegates reply generation to a language model and tracks state with the shared heuristics.
type LLMEngine struct {
	base
	client   llm.Client
	opts     LLMOptions
	log      *logger.Logger
	metrics  *metrics.Metrics
	messages []llm.Message
}

var _ Engine = (*LLMEngine)(nil)

// NewLLMEngine creates a model-backed engine for one call.
func NewLLMEngine(p Params, client llm.Client, opts LLMOptions, log *logger.Logger, m *metrics.Metrics) *LLMEngine {
	if log == nil {
		log = logger.NewNop()
	}
	return &LLMEngine{base: newBase(p), client: client, opts: opts, log: log, metrics: m}
}

// ProcessResponse implements Engine. Model failures fall back to a canned line.
func (e *LLMEngine) ProcessResponse(ctx context.Context, utterance string) string {
	e.mu.Lock()
	e.record(domain.RoleProspect, utterance)
	e.messages = append(e.messages, llm.Message{Role: llm.RoleUser, Content: utterance})
	req := llm.Request{
		System:      systemPrompt(e.agent, e.business, e.state),
		Messages:    append([]llm.Message(nil), e.messages...),
		Temperature: e.opts.Temperature,
		MaxTokens:   e.opts.MaxTokens,
	}
	stage := e.state.Stage
	e.mu.Unlock()

	reply, err := e.complete(ctx, req, stage)
	sig := Classify(utterance)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.log.WithContext(ctx).Warn("llm turn failed, using fallback", zap.String("stage", string(stage)), zap.Error(err))
		e.metrics.LLMResult("fallback")
		reply = fallbackReply(sig, e.agent)
	} else {
		e.metrics.LLMResult("success")
	}
	e.messages = append(e.messages, llm.Message{Role: llm.RoleAssistant, Content: reply})
	e.update(sig)
	return e.finish(reply)
}

// Reset implements Engine.
func (e *LLMEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
	e.messages = nil
}

func (e *LLMEngine) complete(ctx context.Context, req llm.Request, stage domain.Stage) (string, error) {
	ctx, span := otel.Tracer("conversation").Start(ctx, "conversation.llm_turn")
	defer span.End()
	span.SetAttributes(attribute.String("stage", string(stage)), attribute.Int("messages", len(req.Messages)))

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	text, err := e.client.Complete(ctx, req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrEmptyCompletion
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// update applies the classifier output the same way for every turn, whatever the model said.
func (e *LLMEngine) update(sig Signals) {
	e.captureName(sig)
	if e.state.Stage == domain.StageIntroduction && sig.declined() {
		e.introductionDecline()
		return
	}
	for _, p := range sig.PainPoints {
		e.state.AddPainPoint(p)
	}
	for _, o := range sig.Objections {
		e.state.AddObjection(o)
	}
	switch sig.Interest {
	case InterestRaise:
		e.state.InterestLevel = domain.InterestHigh
	case InterestLower:
		e.state.InterestLevel = domain.InterestLow
	}
	if e.state.Stage == domain.StageQualification && !sig.Intents.NotInterested && slices.Contains(sig.PainPoints, domain.PainMissedCalls) {
		e.state.InterestLevel = domain.InterestHigh
	}
	if sig.NextAction != domain.NextActionNone {
		e.state.NextAction = sig.NextAction
	}

	switch {
	case sig.NextAction == domain.NextActionFollowUp:
		e.advance(domain.StageFollowUp)
	case sig.NextAction == domain.NextActionScheduleDemo || sig.NextAction == domain.NextActionSendInfo:
		e.advance(domain.StageClose)
	case len(sig.Objections) > 0:
		if e.state.Stage != domain.StageClose && e.state.Stage != domain.StageFollowUp {
			e.advance(domain.StageObjectionHandling)
		} else if sig.Intents.NotInterested || sig.Intents.Rejection {
			e.state.NextAction = domain.NextActionNotInterested
		}
	case e.state.Stage == domain.StageIntroduction:
		e.advance(domain.StageQualification)
	case e.state.Stage == domain.StageQualification && (len(e.state.PainPoints) > 0 || sig.Intents.PricingInterest):
		e.advance(domain.StagePitch)
	case e.state.Stage == domain.StageObjectionHandling && (sig.Intents.Affirmative || sig.Interest == InterestRaise):
		e.advance(domain.StagePitch)
	case e.state.Stage == domain.StagePitch && sig.Intents.PricingInterest:
		e.advance(domain.StageClose)
	}
}
