// Package campaign owns campaign lifecycle and the shared outbound call queue.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/clock"
	"github.com/acme/coldcall-agent/internal/conversation"
	"github.com/acme/coldcall-agent/internal/discovery"
	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/metrics"
	"github.com/acme/coldcall-agent/internal/telephony"
	apperrors "github.com/acme/coldcall-agent/pkg/errors"
	"github.com/acme/coldcall-agent/pkg/logger"
)

// CampaignStore persists campaign snapshots.
type CampaignStore interface {
	Save(ctx context.Context, c *domain.Campaign) error
	List(ctx context.Context) ([]*domain.Campaign, error)
}

// CallStore persists finished call attempts.
type CallStore interface {
	SaveCall(ctx context.Context, rec domain.CallRecord) error
}

// OutcomeRecorder receives the outcome of every connected call.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, outcome domain.CallOutcome) error
}

// DialSlot is a cluster-wide single-call slot.
type DialSlot interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Defaults fill campaign settings the caller leaves empty.
type Defaults struct {
	MaxCallsPerDay int
	CallHours      domain.CallHours
	Timezone       string
	Agent          domain.AgentSettings
}

// Options tunes the drain loop.
type Options struct {
	CallerID        string
	InterCallDelay  time.Duration
	MaxCallDuration time.Duration
	MaxAttempts     int
	Defaults        Defaults
}

// Deps are the collaborators of a Manager. Provider, Hub and Engines are required.
type Deps struct {
	Provider  telephony.Provider
	Hub       *telephony.Hub
	Engines   conversation.Factory
	Campaigns CampaignStore
	Calls     CallStore
	Outcomes  OutcomeRecorder
	Slot      DialSlot
	Metrics   *metrics.Metrics
	Clock     clock.Clock
	Logger    *logger.Logger
	Rand      *rand.Rand
}

// CreateInput describes a new campaign. Zero values take the configured defaults.
type CreateInput struct {
	Name           string
	Businesses     []domain.LocalBusiness
	MaxCallsPerDay int
	CallHours      domain.CallHours
	Timezone       string
	Agent          domain.AgentSettings
	Industries     []string
	Locations      []string
	ExcludeCalled  *bool
}

// QueueStatus is a point-in-time view of the shared queue.
type QueueStatus struct {
	Queued int `json:"queued"`
	Active int `json:"active"`
}

type entry struct {
	campaign *domain.Campaign
	loc      *time.Location
	hours    window
	calls    []*domain.CampaignCall
	// signal is closed and replaced on every status change to wake suspended waits.
	signal chan struct{}
}

func (e *entry) notify() {
	close(e.signal)
	e.signal = make(chan struct{})
}

// Manager owns campaigns and drains one process-wide call queue, one call at a time.
type Manager struct {
	deps Deps
	opts Options
	log  *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	campaigns map[uuid.UUID]*entry
	queue     []*domain.CampaignCall
	inFlight  map[uuid.UUID]*domain.CampaignCall
	dialed    map[string]bool
	daily     map[string]int
	draining  bool
	closed    bool
}

// NewManager constructs a manager. Call Close to stop the drain loop.
func NewManager(deps Deps, opts Options) *Manager {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.MaxCallDuration <= 0 {
		opts.MaxCallDuration = 10 * time.Minute
	}
	opts.Defaults = withFallbacks(opts.Defaults)

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		deps:      deps,
		opts:      opts,
		log:       deps.Logger.Named("campaign"),
		ctx:       ctx,
		cancel:    cancel,
		campaigns: make(map[uuid.UUID]*entry),
		inFlight:  make(map[uuid.UUID]*domain.CampaignCall),
		dialed:    make(map[string]bool),
		daily:     make(map[string]int),
	}
}

func withFallbacks(d Defaults) Defaults {
	if d.MaxCallsPerDay <= 0 {
		d.MaxCallsPerDay = 50
	}
	if d.CallHours.Start == "" {
		d.CallHours.Start = "09:00"
	}
	if d.CallHours.End == "" {
		d.CallHours.End = "17:00"
	}
	if d.Timezone == "" {
		d.Timezone = "America/New_York"
	}
	if d.Agent.Name == "" {
		d.Agent.Name = "Sarah"
	}
	if d.Agent.Voice == "" {
		d.Agent.Voice = "professional-female"
	}
	if d.Agent.PitchStyle == "" {
		d.Agent.PitchStyle = "conversational"
	}
	return d
}

// CreateCampaign validates input and registers a draft campaign with zeroed stats.
func (m *Manager) CreateCampaign(ctx context.Context, in CreateInput) (*domain.Campaign, error) {
	c, e, err := m.build(in)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.campaigns[c.ID] = e
	snapshot := c.Clone()
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	m.log.WithContext(ctx).Info("campaign created",
		zap.String("campaign_id", c.ID.String()),
		zap.String("name", c.Name),
		zap.Int("targets", len(c.TargetBusinesses)),
	)
	return snapshot, nil
}

func (m *Manager) build(in CreateInput) (*domain.Campaign, *entry, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: campaign name is required", apperrors.ErrValidation)
	}
	if len(in.Businesses) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one business is required", apperrors.ErrValidation)
	}
	if in.MaxCallsPerDay < 0 {
		return nil, nil, fmt.Errorf("%w: max calls per day must not be negative", apperrors.ErrValidation)
	}

	businesses := make([]domain.LocalBusiness, len(in.Businesses))
	for i, b := range in.Businesses {
		if strings.TrimSpace(b.Name) == "" {
			return nil, nil, fmt.Errorf("%w: business %d has no name", apperrors.ErrValidation, i+1)
		}
		if !discovery.ValidatePhoneNumber(b.Phone) {
			return nil, nil, fmt.Errorf("%w: business %q has invalid phone %q", apperrors.ErrValidation, b.Name, b.Phone)
		}
		b.Phone = discovery.FormatPhoneNumber(b.Phone)
		businesses[i] = b
	}

	d := m.opts.Defaults
	settings := domain.CallSettings{
		MaxCallsPerDay: in.MaxCallsPerDay,
		CallHours:      in.CallHours,
		Timezone:       in.Timezone,
	}
	if settings.MaxCallsPerDay == 0 {
		settings.MaxCallsPerDay = d.MaxCallsPerDay
	}
	if settings.CallHours.Start == "" {
		settings.CallHours.Start = d.CallHours.Start
	}
	if settings.CallHours.End == "" {
		settings.CallHours.End = d.CallHours.End
	}
	if settings.Timezone == "" {
		settings.Timezone = d.Timezone
	}
	hours, err := parseWindow(settings.CallHours)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid time zone %s: %v", apperrors.ErrValidation, settings.Timezone, err)
	}

	agent := in.Agent
	if agent.Name == "" {
		agent.Name = d.Agent.Name
	}
	if agent.Voice == "" {
		agent.Voice = d.Agent.Voice
	}
	if agent.PitchStyle == "" {
		agent.PitchStyle = d.Agent.PitchStyle
	}
	exclude := true
	if in.ExcludeCalled != nil {
		exclude = *in.ExcludeCalled
	}

	now := m.deps.Clock.Now().UTC()
	c := &domain.Campaign{
		ID:               uuid.New(),
		Name:             name,
		Status:           domain.CampaignStatusDraft,
		TargetBusinesses: businesses,
		CallSettings:     settings,
		AgentSettings:    agent,
		Filters: domain.CampaignFilters{
			Industries:    slices.Clone(in.Industries),
			Locations:     slices.Clone(in.Locations),
			ExcludeCalled: exclude,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return c, &entry{campaign: c, loc: loc, hours: hours, signal: make(chan struct{})}, nil
}

// StartCampaign activates a draft or paused campaign, queues its eligible targets and starts draining.
func (m *Manager) StartCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: campaign manager is shut down", apperrors.ErrUnavailable)
	}
	e, ok := m.campaigns[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: campaign %s", apperrors.ErrNotFound, id)
	}
	c := e.campaign
	if !c.Status.CanTransition(domain.CampaignStatusActive) {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot start campaign in status %s", apperrors.ErrInvalidState, c.Status)
	}

	now := m.deps.Clock.Now().UTC()
	c.Status = domain.CampaignStatusActive
	c.UpdatedAt = now
	if c.StartedAt == nil {
		c.StartedAt = &now
	}
	e.notify()
	added := m.enqueueLocked(e, now)
	m.startDrainLocked()
	m.reportQueueLocked()
	snapshot := c.Clone()
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	m.log.WithContext(ctx).Info("campaign started", zap.String("campaign_id", id.String()), zap.Int("queued", added))
	return snapshot, nil
}

// PauseCampaign suspends an active campaign. The in-flight call, if any, finishes normally.
func (m *Manager) PauseCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return m.transition(ctx, id, domain.CampaignStatusPaused)
}

// StopCampaign completes a campaign. Completed campaigns cannot be restarted.
func (m *Manager) StopCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	return m.transition(ctx, id, domain.CampaignStatusCompleted)
}

func (m *Manager) transition(ctx context.Context, id uuid.UUID, next domain.CampaignStatus) (*domain.Campaign, error) {
	m.mu.Lock()
	e, ok := m.campaigns[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: campaign %s", apperrors.ErrNotFound, id)
	}
	c := e.campaign
	if !c.Status.CanTransition(next) {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot move campaign from %s to %s", apperrors.ErrInvalidState, c.Status, next)
	}
	now := m.deps.Clock.Now().UTC()
	c.Status = next
	c.UpdatedAt = now
	if next == domain.CampaignStatusCompleted {
		c.CompletedAt = &now
	}
	e.notify()
	snapshot := c.Clone()
	m.mu.Unlock()

	m.persist(ctx, snapshot)
	m.log.WithContext(ctx).Info("campaign status changed", zap.String("campaign_id", id.String()), zap.String("status", string(next)))
	return snapshot, nil
}

// GetCampaign returns a copy of the campaign.
func (m *Manager) GetCampaign(id uuid.UUID) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("%w: campaign %s", apperrors.ErrNotFound, id)
	}
	return e.campaign.Clone(), nil
}

// ListCampaigns returns copies of all campaigns, oldest first.
func (m *Manager) ListCampaigns() []*domain.Campaign {
	m.mu.Lock()
	out := make([]*domain.Campaign, 0, len(m.campaigns))
	for _, e := range m.campaigns {
		out = append(out, e.campaign.Clone())
	}
	m.mu.Unlock()
	slices.SortFunc(out, func(a, b *domain.Campaign) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// CampaignCalls returns every queue item ever created for the campaign.
func (m *Manager) CampaignCalls(id uuid.UUID) ([]domain.CampaignCall, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("%w: campaign %s", apperrors.ErrNotFound, id)
	}
	out := make([]domain.CampaignCall, len(e.calls))
	for i, c := range e.calls {
		out[i] = *c
	}
	return out, nil
}

// ActiveCalls returns the calls currently being placed.
func (m *Manager) ActiveCalls() []domain.CampaignCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CampaignCall, 0, len(m.inFlight))
	for _, c := range m.inFlight {
		out = append(out, *c)
	}
	return out
}

// QueueStatus reports queued and in-flight counts.
func (m *Manager) QueueStatus() QueueStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return QueueStatus{Queued: len(m.queue), Active: len(m.inFlight)}
}

// Restore loads persisted campaigns. Campaigns that were active come back paused and must be restarted.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	if m.deps.Campaigns == nil {
		return 0, nil
	}
	stored, err := m.deps.Campaigns.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore campaigns: %w", err)
	}

	var restored []*domain.Campaign
	m.mu.Lock()
	for _, c := range stored {
		if _, exists := m.campaigns[c.ID]; exists {
			continue
		}
		hours, herr := parseWindow(c.CallSettings.CallHours)
		loc, lerr := time.LoadLocation(c.CallSettings.Timezone)
		if err := errors.Join(herr, lerr); err != nil {
			m.log.Warn("skip unrestorable campaign", zap.String("campaign_id", c.ID.String()), zap.Error(err))
			continue
		}
		if c.Status == domain.CampaignStatusActive {
			c.Status = domain.CampaignStatusPaused
			c.UpdatedAt = m.deps.Clock.Now().UTC()
		}
		m.campaigns[c.ID] = &entry{campaign: c, loc: loc, hours: hours, signal: make(chan struct{})}
		restored = append(restored, c.Clone())
	}
	m.mu.Unlock()

	for _, c := range restored {
		m.persist(ctx, c)
	}
	m.log.WithContext(ctx).Info("campaigns restored", zap.Int("count", len(restored)))
	return len(restored), nil
}

// Close stops the drain loop and waits for it. Calls in flight are expired.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
}

// enqueueLocked appends the campaign's eligible targets to the queue in random order.
func (m *Manager) enqueueLocked(e *entry, now time.Time) int {
	c := e.campaign
	pending := make(map[string]bool)
	for _, item := range m.queue {
		if item.CampaignID == c.ID {
			pending[phoneKey(item.Business.Phone)] = true
		}
	}
	for _, item := range m.inFlight {
		if item.CampaignID == c.ID {
			pending[phoneKey(item.Business.Phone)] = true
		}
	}

	var batch []*domain.CampaignCall
	for _, b := range c.TargetBusinesses {
		key := phoneKey(b.Phone)
		if pending[key] || !matchesFilters(b, c.Filters) {
			continue
		}
		if c.Filters.ExcludeCalled && m.dialed[key] {
			continue
		}
		pending[key] = true
		batch = append(batch, &domain.CampaignCall{
			ID:            uuid.New(),
			CampaignID:    c.ID,
			Business:      b,
			Status:        domain.CallStatusPending,
			ScheduledTime: now,
		})
	}
	m.deps.Rand.Shuffle(len(batch), func(i, j int) { batch[i], batch[j] = batch[j], batch[i] })
	m.queue = append(m.queue, batch...)
	e.calls = append(e.calls, batch...)
	return len(batch)
}

func matchesFilters(b domain.LocalBusiness, f domain.CampaignFilters) bool {
	if len(f.Industries) > 0 {
		ok := slices.ContainsFunc(f.Industries, func(ind string) bool {
			return strings.EqualFold(strings.TrimSpace(ind), strings.TrimSpace(b.Industry))
		})
		if !ok || b.Industry == "" {
			return false
		}
	}
	if len(f.Locations) > 0 {
		where := strings.ToLower(b.City + ", " + b.State)
		ok := slices.ContainsFunc(f.Locations, func(loc string) bool {
			return strings.Contains(where, strings.ToLower(strings.TrimSpace(loc)))
		})
		if !ok {
			return false
		}
	}
	return true
}

func phoneKey(phone string) string {
	if e, ok := discovery.E164(phone); ok {
		return e
	}
	return phone
}

func (m *Manager) persist(ctx context.Context, c *domain.Campaign) {
	if m.deps.Campaigns == nil {
		return
	}
	if err := m.deps.Campaigns.Save(ctx, c); err != nil {
		m.log.WithContext(ctx).Warn("persist campaign failed", zap.String("campaign_id", c.ID.String()), zap.Error(err))
		m.deps.Metrics.PersistenceError("campaign")
	}
}

func (m *Manager) reportQueueLocked() {
	m.deps.Metrics.SetQueue(len(m.queue), len(m.inFlight))
}
