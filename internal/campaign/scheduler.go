package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/conversation"
	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/telephony"
	"github.com/acme/coldcall-agent/pkg/logger"
)

const slotRetryInterval = time.Second

var tracer = otel.Tracer("coldcall.campaign")

func (m *Manager) startDrainLocked() {
	if m.draining || m.closed || len(m.queue) == 0 {
		return
	}
	m.draining = true
	m.wg.Add(1)
	go m.drain()
}

// drain pops queue items until the queue is empty or the manager closes.
func (m *Manager) drain() {
	defer m.wg.Done()
	for {
		m.mu.Lock()
		if len(m.queue) == 0 || m.ctx.Err() != nil {
			m.draining = false
			m.mu.Unlock()
			return
		}
		item := m.queue[0]
		m.queue = m.queue[1:]
		m.reportQueueLocked()
		m.mu.Unlock()

		if !m.awaitTurn(item) {
			continue
		}
		m.makeCall(m.ctx, item)
		m.sleep(m.opts.InterCallDelay, nil)
	}
}

// awaitTurn blocks until item may be dialed. It returns false when the item must not be dialed, either
// because its campaign is no longer active or because the manager is closing.
func (m *Manager) awaitTurn(item *domain.CampaignCall) bool {
	for {
		m.mu.Lock()
		e, ok := m.campaigns[item.CampaignID]
		if !ok || e.campaign.Status != domain.CampaignStatusActive {
			item.Status = domain.CallStatusSkipped
			m.mu.Unlock()
			m.log.Debug("skip call for inactive campaign", zap.String("call_id", item.ID.String()))
			return false
		}
		signal := e.signal
		hours := e.hours
		limit := e.campaign.CallSettings.MaxCallsPerDay
		local := m.deps.Clock.Now().In(e.loc)
		made := m.daily[dailyKey(item.CampaignID, local)]
		m.mu.Unlock()

		var until time.Time
		var reason string
		switch {
		case limit > 0 && made >= limit:
			until, reason = hours.nextDayOpen(local), "daily_cap"
		case !hours.contains(local):
			until, reason = hours.nextOpen(local), "call_hours"
		default:
			return true
		}

		wait := until.Sub(local)
		m.deps.Metrics.SchedulerWait(reason)
		m.log.Info("drain suspended",
			zap.String("campaign_id", item.CampaignID.String()),
			zap.String("reason", reason),
			zap.Time("until", until),
		)
		m.sleep(wait, signal)
		if m.ctx.Err() != nil {
			m.mu.Lock()
			m.queue = append([]*domain.CampaignCall{item}, m.queue...)
			m.mu.Unlock()
			return false
		}
	}
}

// sleep waits for d, a status signal, or shutdown, whichever comes first.
func (m *Manager) sleep(d time.Duration, signal <-chan struct{}) {
	if d <= 0 {
		return
	}
	select {
	case <-m.deps.Clock.After(d):
	case <-signal:
	case <-m.ctx.Done():
	}
}

func dailyKey(id uuid.UUID, local time.Time) string {
	return id.String() + "/" + dayKey(local)
}

// makeCall places one attempt for item and applies its result.
func (m *Manager) makeCall(ctx context.Context, item *domain.CampaignCall) {
	callID := uuid.New()
	ctx, span := tracer.Start(ctx, "campaign.call", trace.WithAttributes(
		attribute.String("campaign.id", item.CampaignID.String()),
		attribute.String("call.id", callID.String()),
		attribute.Int("call.retry_count", item.RetryCount),
	))
	defer span.End()

	m.mu.Lock()
	e := m.campaigns[item.CampaignID]
	c := e.campaign
	now := m.deps.Clock.Now()
	callTime := now.UTC()
	item.Status = domain.CallStatusCalling
	item.CallTime = &callTime
	m.inFlight[item.ID] = item
	c.Stats.TotalCalls++
	c.UpdatedAt = callTime
	m.daily[dailyKey(c.ID, now.In(e.loc))]++
	agent := c.AgentSettings
	business := item.Business
	m.reportQueueLocked()
	snapshot := c.Clone()
	m.mu.Unlock()
	m.persist(ctx, snapshot)

	defer func() {
		m.mu.Lock()
		delete(m.inFlight, item.ID)
		m.reportQueueLocked()
		m.mu.Unlock()
	}()

	log := m.log.With(
		zap.String("campaign_id", item.CampaignID.String()),
		zap.String("call_id", callID.String()),
		zap.String("business", business.Name),
	)

	bc := business.Context()
	engine := m.deps.Engines(conversation.Params{Business: bc, Agent: agent, Now: m.deps.Clock.Now})
	sessionID := callID.String()
	session := m.deps.Hub.Open(sessionID, engine, conversation.Greeting(agent.Name, business.Name))
	defer m.deps.Hub.Release(sessionID)

	release, err := m.acquireSlot(ctx)
	if err != nil {
		_ = session.Expire(context.WithoutCancel(ctx))
		m.failAttempt(ctx, item, callID, "", err, log)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	defer release()

	providerCallID, err := m.deps.Provider.InitiateCall(ctx, telephony.CallConfig{
		SessionID:       sessionID,
		From:            m.opts.CallerID,
		To:              business.Phone,
		AgentName:       agent.Name,
		AgentVoice:      agent.Voice,
		PitchStyle:      agent.PitchStyle,
		BusinessContext: bc,
	})
	if err != nil {
		_ = session.Expire(context.WithoutCancel(ctx))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.failAttempt(ctx, item, callID, "", err, log)
		return
	}
	session.SetProviderCallID(providerCallID)
	log.Info("call placed", zap.String("provider_call_id", providerCallID))

	waitCtx, cancel := context.WithTimeout(ctx, m.opts.MaxCallDuration)
	res, err := session.Wait(waitCtx)
	cancel()
	if err != nil {
		log.Warn("call did not finish in time, expiring", zap.Error(err))
		_ = session.Expire(context.WithoutCancel(ctx))
		res, _ = session.Wait(context.WithoutCancel(ctx))
	}
	if res.ProviderCallID == "" {
		res.ProviderCallID = providerCallID
	}
	span.SetAttributes(attribute.String("call.status", string(res.Status)), attribute.Int("call.turns", res.Turns))

	if res.Status == domain.CallStatusFailed {
		m.failAttempt(ctx, item, callID, res.ProviderCallID, errCallFailed, log)
		return
	}
	m.finishAttempt(ctx, item, callID, engine, res, log)
}

type callError string

func (e callError) Error() string { return string(e) }

const errCallFailed = callError("provider reported the call as failed")

func (m *Manager) acquireSlot(ctx context.Context) (func(), error) {
	if m.deps.Slot == nil {
		return func() {}, nil
	}
	for {
		ok, err := m.deps.Slot.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				if err := m.deps.Slot.Release(context.WithoutCancel(ctx)); err != nil {
					m.log.Warn("release dial slot failed", zap.Error(err))
				}
			}, nil
		}
		m.deps.Metrics.SchedulerWait("dial_slot")
		select {
		case <-m.deps.Clock.After(slotRetryInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// failAttempt records a failed placement and requeues the item while attempts remain.
func (m *Manager) failAttempt(ctx context.Context, item *domain.CampaignCall, callID uuid.UUID, providerCallID string, cause error, log *logger.Logger) {
	m.deps.Metrics.CallPlaced("failed")

	m.mu.Lock()
	item.RetryCount++
	item.LastError = cause.Error()
	item.Result = &domain.CallResult{CallID: callID, ProviderCallID: providerCallID, Status: domain.CallStatusFailed, Notes: cause.Error()}
	requeue := item.RetryCount < m.opts.MaxAttempts && m.ctx.Err() == nil
	if requeue {
		item.Status = domain.CallStatusPending
		m.queue = append(m.queue, item)
	} else {
		item.Status = domain.CallStatusFailed
		m.dialed[phoneKey(item.Business.Phone)] = true
	}
	m.reportQueueLocked()
	m.mu.Unlock()

	log.Warn("call attempt failed",
		zap.Int("retry_count", item.RetryCount),
		zap.Bool("requeued", requeue),
		zap.Error(cause),
	)
	m.saveCall(ctx, item, callID, domain.CallRecord{
		ProviderCallID: providerCallID,
		Status:         domain.CallStatusFailed,
	})
}

// finishAttempt applies a final call status: outcome, stats, persistence and outcome recording.
func (m *Manager) finishAttempt(ctx context.Context, item *domain.CampaignCall, callID uuid.UUID, engine conversation.Engine, res telephony.Result, log *logger.Logger) {
	state := engine.State()
	outcome := domain.OutcomeFollowUp
	if res.Status == domain.CallStatusCompleted {
		outcome = domain.ClassifyOutcome(state)
	}

	m.mu.Lock()
	c := m.campaigns[item.CampaignID].campaign
	item.Status = res.Status
	item.Result = &domain.CallResult{
		CallID:         callID,
		ProviderCallID: res.ProviderCallID,
		Status:         res.Status,
		Duration:       res.Duration,
		Transcript:     state.History,
		Outcome:        outcome,
		Notes:          notesFor(state),
	}
	if res.Status == domain.CallStatusCompleted {
		applyOutcome(&c.Stats, outcome)
	}
	c.UpdatedAt = m.deps.Clock.Now().UTC()
	m.dialed[phoneKey(item.Business.Phone)] = true
	snapshot := c.Clone()
	m.mu.Unlock()

	m.deps.Metrics.CallPlaced(string(res.Status))
	log.Info("call finished",
		zap.String("status", string(res.Status)),
		zap.String("outcome", string(outcome)),
		zap.Duration("duration", res.Duration),
		zap.Int("turns", res.Turns),
	)
	m.persist(ctx, snapshot)
	m.saveCall(ctx, item, callID, domain.CallRecord{
		ProviderCallID: res.ProviderCallID,
		Status:         res.Status,
		Outcome:        outcome,
		Duration:       res.Duration,
		Transcript:     state.History,
		InterestLevel:  state.InterestLevel,
	})

	if res.Status != domain.CallStatusCompleted {
		return
	}
	m.deps.Metrics.CallFinished(string(outcome), res.Duration)
	if m.deps.Outcomes == nil {
		return
	}
	err := m.deps.Outcomes.RecordOutcome(ctx, domain.CallOutcome{
		CallID:     callID,
		CampaignID: item.CampaignID,
		Business:   item.Business,
		Outcome:    outcome,
		NextAction: state.NextAction,
		PainPoints: state.PainPoints,
		Objections: state.Objections,
		OccurredAt: m.deps.Clock.Now().UTC(),
	})
	if err != nil {
		log.Warn("record outcome failed", zap.Error(err))
		m.deps.Metrics.PersistenceError("outcome")
	}
}

// applyOutcome updates campaign counters for a completed call.
func applyOutcome(s *domain.CampaignStats, outcome domain.Outcome) {
	s.SuccessfulCalls++
	switch outcome {
	case domain.OutcomeScheduled:
		s.ScheduledDemos++
		s.InterestedLeads++
	case domain.OutcomeInterested:
		s.InterestedLeads++
		s.Conversions++
	}
}

func notesFor(state domain.ConversationState) string {
	if state.NextAction == domain.NextActionNone {
		return "stage " + string(state.Stage)
	}
	return "stage " + string(state.Stage) + ", next action " + string(state.NextAction)
}

func (m *Manager) saveCall(ctx context.Context, item *domain.CampaignCall, callID uuid.UUID, rec domain.CallRecord) {
	if m.deps.Calls == nil {
		return
	}
	campaignID := item.CampaignID
	rec.ID = callID
	rec.CampaignID = &campaignID
	rec.Business = item.Business
	if item.CallTime != nil {
		rec.StartedAt = *item.CallTime
	}
	ended := m.deps.Clock.Now().UTC()
	rec.EndedAt = &ended
	if err := m.deps.Calls.SaveCall(ctx, rec); err != nil {
		m.log.WithContext(ctx).Warn("persist call failed", zap.String("call_id", callID.String()), zap.Error(err))
		m.deps.Metrics.PersistenceError("call")
	}
}
