package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acme/coldcall-agent/internal/campaign"
	"github.com/acme/coldcall-agent/internal/domain"
)

type createCampaignRequest struct {
	Name          string               `json:"name"`
	Businesses    []businessPayload    `json:"businesses"`
	CallSettings  callSettingsRequest  `json:"call_settings"`
	AgentSettings agentSettingsPayload `json:"agent_settings"`
	Filters       filtersRequest       `json:"filters"`
}

type callSettingsRequest struct {
	MaxCallsPerDay int              `json:"max_calls_per_day"`
	CallHours      callHoursPayload `json:"call_hours"`
	Timezone       string           `json:"timezone"`
}

type callHoursPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type agentSettingsPayload struct {
	Name       string `json:"name"`
	Voice      string `json:"voice"`
	PitchStyle string `json:"pitch_style"`
}

type filtersRequest struct {
	Industries    []string `json:"industries"`
	Locations     []string `json:"locations"`
	ExcludeCalled *bool    `json:"exclude_called"`
}

type campaignResponse struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	Status        domain.CampaignStatus `json:"status"`
	TargetCount   int                   `json:"target_count"`
	CallSettings  callSettingsResponse  `json:"call_settings"`
	AgentSettings agentSettingsPayload  `json:"agent_settings"`
	Filters       filtersResponse       `json:"filters"`
	Stats         statsResponse         `json:"stats"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	StartedAt     *time.Time            `json:"started_at,omitempty"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
}

type callSettingsResponse struct {
	MaxCallsPerDay int              `json:"max_calls_per_day"`
	CallHours      callHoursPayload `json:"call_hours"`
	Timezone       string           `json:"timezone"`
}

type filtersResponse struct {
	Industries    []string `json:"industries"`
	Locations     []string `json:"locations"`
	ExcludeCalled bool     `json:"exclude_called"`
}

type statsResponse struct {
	TotalCalls      int64 `json:"total_calls"`
	SuccessfulCalls int64 `json:"successful_calls"`
	InterestedLeads int64 `json:"interested_leads"`
	ScheduledDemos  int64 `json:"scheduled_demos"`
	Conversions     int64 `json:"conversions"`
}

type campaignCallResponse struct {
	ID            uuid.UUID         `json:"id"`
	CampaignID    uuid.UUID         `json:"campaign_id"`
	Business      businessPayload   `json:"business"`
	Status        domain.CallStatus `json:"status"`
	ScheduledTime time.Time         `json:"scheduled_time"`
	CallTime      *time.Time        `json:"call_time,omitempty"`
	RetryCount    int               `json:"retry_count"`
	LastError     string            `json:"last_error,omitempty"`
	Result        *callResultBody   `json:"result,omitempty"`
}

type callResultBody struct {
	CallID          uuid.UUID         `json:"call_id"`
	ProviderCallID  string            `json:"provider_call_id,omitempty"`
	Status          domain.CallStatus `json:"status"`
	DurationSeconds float64           `json:"duration_seconds"`
	Outcome         domain.Outcome    `json:"outcome,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Turns           int               `json:"turns"`
}

func (h *HandlerSet) createCampaign(c *fiber.Ctx) error {
	var req createCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	businesses := make([]domain.LocalBusiness, len(req.Businesses))
	for i, b := range req.Businesses {
		businesses[i] = b.toDomain()
	}

	created, err := h.deps.Campaigns.CreateCampaign(c.UserContext(), campaign.CreateInput{
		Name:           req.Name,
		Businesses:     businesses,
		MaxCallsPerDay: req.CallSettings.MaxCallsPerDay,
		CallHours:      domain.CallHours{Start: req.CallSettings.CallHours.Start, End: req.CallSettings.CallHours.End},
		Timezone:       req.CallSettings.Timezone,
		Agent: domain.AgentSettings{
			Name:       req.AgentSettings.Name,
			Voice:      req.AgentSettings.Voice,
			PitchStyle: req.AgentSettings.PitchStyle,
		},
		Industries:    req.Filters.Industries,
		Locations:     req.Filters.Locations,
		ExcludeCalled: req.Filters.ExcludeCalled,
	})
	if err != nil {
		return translateError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCampaignResponse(created))
}

func (h *HandlerSet) listCampaigns(c *fiber.Ctx) error {
	list := h.deps.Campaigns.ListCampaigns()
	resp := make([]campaignResponse, len(list))
	for i, cmp := range list {
		resp[i] = toCampaignResponse(cmp)
	}
	return c.JSON(fiber.Map{"data": resp})
}

func (h *HandlerSet) getCampaign(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	cmp, err := h.deps.Campaigns.GetCampaign(id)
	if err != nil {
		return translateError(err)
	}
	return c.JSON(toCampaignResponse(cmp))
}

func (h *HandlerSet) listCampaignCalls(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	calls, err := h.deps.Campaigns.CampaignCalls(id)
	if err != nil {
		return translateError(err)
	}
	if status := c.Query("status"); status != "" {
		filtered := calls[:0]
		for _, call := range calls {
			if string(call.Status) == status {
				filtered = append(filtered, call)
			}
		}
		calls = filtered
	}
	return c.JSON(fiber.Map{"data": toCampaignCallResponses(calls)})
}

func (h *HandlerSet) startCampaign(c *fiber.Ctx) error {
	return h.transition(c, h.deps.Campaigns.StartCampaign)
}

func (h *HandlerSet) pauseCampaign(c *fiber.Ctx) error {
	return h.transition(c, h.deps.Campaigns.PauseCampaign)
}

func (h *HandlerSet) stopCampaign(c *fiber.Ctx) error {
	return h.transition(c, h.deps.Campaigns.StopCampaign)
}

func (h *HandlerSet) transition(c *fiber.Ctx, apply func(context.Context, uuid.UUID) (*domain.Campaign, error)) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	cmp, err := apply(c.UserContext(), id)
	if err != nil {
		return translateError(err)
	}
	return c.JSON(toCampaignResponse(cmp))
}

func (h *HandlerSet) queueStatus(c *fiber.Ctx) error {
	status := h.deps.Campaigns.QueueStatus()
	return c.JSON(fiber.Map{
		"queued":       status.Queued,
		"active":       status.Active,
		"active_calls": toCampaignCallResponses(h.deps.Campaigns.ActiveCalls()),
	})
}

func toCampaignResponse(c *domain.Campaign) campaignResponse {
	return campaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Status:      c.Status,
		TargetCount: len(c.TargetBusinesses),
		CallSettings: callSettingsResponse{
			MaxCallsPerDay: c.CallSettings.MaxCallsPerDay,
			CallHours:      callHoursPayload{Start: c.CallSettings.CallHours.Start, End: c.CallSettings.CallHours.End},
			Timezone:       c.CallSettings.Timezone,
		},
		AgentSettings: agentSettingsPayload{
			Name:       c.AgentSettings.Name,
			Voice:      c.AgentSettings.Voice,
			PitchStyle: c.AgentSettings.PitchStyle,
		},
		Filters: filtersResponse{
			Industries:    nonNilSlice(c.Filters.Industries),
			Locations:     nonNilSlice(c.Filters.Locations),
			ExcludeCalled: c.Filters.ExcludeCalled,
		},
		Stats: statsResponse{
			TotalCalls:      c.Stats.TotalCalls,
			SuccessfulCalls: c.Stats.SuccessfulCalls,
			InterestedLeads: c.Stats.InterestedLeads,
			ScheduledDemos:  c.Stats.ScheduledDemos,
			Conversions:     c.Stats.Conversions,
		},
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		StartedAt:   c.StartedAt,
		CompletedAt: c.CompletedAt,
	}
}

func toCampaignCallResponses(calls []domain.CampaignCall) []campaignCallResponse {
	out := make([]campaignCallResponse, len(calls))
	for i, call := range calls {
		resp := campaignCallResponse{
			ID:            call.ID,
			CampaignID:    call.CampaignID,
			Business:      toBusinessPayload(call.Business),
			Status:        call.Status,
			ScheduledTime: call.ScheduledTime,
			CallTime:      call.CallTime,
			RetryCount:    call.RetryCount,
			LastError:     call.LastError,
		}
		if r := call.Result; r != nil {
			resp.Result = &callResultBody{
				CallID:          r.CallID,
				ProviderCallID:  r.ProviderCallID,
				Status:          r.Status,
				DurationSeconds: r.Duration.Seconds(),
				Outcome:         r.Outcome,
				Notes:           r.Notes,
				Turns:           len(r.Transcript),
			}
		}
		out[i] = resp
	}
	return out
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, badRequest("invalid " + name)
	}
	return id, nil
}
