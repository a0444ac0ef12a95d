package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/acme/coldcall-agent/internal/conversation"
	"github.com/acme/coldcall-agent/internal/domain"
)

const maxSimulatedUtterances = 50

type simulateRequest struct {
	Business      businessPayload       `json:"business"`
	AgentSettings *agentSettingsPayload `json:"agent_settings"`
	Utterances    []string              `json:"utterances"`
}

type simulateResponse struct {
	Greeting      string               `json:"greeting"`
	Turns         []turnPayload        `json:"turns"`
	Stage         domain.Stage         `json:"stage"`
	InterestLevel domain.InterestLevel `json:"interest_level"`
	PainPoints    []domain.PainPoint   `json:"pain_points"`
	Objections    []domain.Objection   `json:"objections"`
	NextAction    domain.NextAction    `json:"next_action,omitempty"`
	ProspectName  string               `json:"prospect_name,omitempty"`
	Outcome       domain.Outcome       `json:"outcome"`
	Ended         bool                 `json:"ended"`
}

// simulateConversation runs scripted prospect lines through a fresh engine, stopping early once the
// conversation reaches a decision.
func (h *HandlerSet) simulateConversation(c *fiber.Ctx) error {
	if h.deps.Engines == nil {
		return fiber.NewError(http.StatusServiceUnavailable, "conversation engine is not configured")
	}
	var req simulateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}
	if len(req.Utterances) == 0 {
		return badRequest("at least one utterance is required")
	}
	if len(req.Utterances) > maxSimulatedUtterances {
		return badRequest("too many utterances")
	}

	agent := h.deps.Agent
	if req.AgentSettings != nil {
		if req.AgentSettings.Name != "" {
			agent.Name = req.AgentSettings.Name
		}
		if req.AgentSettings.Voice != "" {
			agent.Voice = req.AgentSettings.Voice
		}
		if req.AgentSettings.PitchStyle != "" {
			agent.PitchStyle = req.AgentSettings.PitchStyle
		}
	}

	business := req.Business.toDomain()
	engine := h.deps.Engines(conversation.Params{Business: business.Context(), Agent: agent})
	ctx := c.UserContext()

	ended := false
	for _, u := range req.Utterances {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		engine.ProcessResponse(ctx, u)
		if state := engine.State(); state.Terminal() {
			ended = true
			break
		}
	}

	state := engine.State()
	return c.JSON(simulateResponse{
		Greeting:      conversation.Greeting(agent.Name, business.Name),
		Turns:         toTurnPayloads(state.History),
		Stage:         state.Stage,
		InterestLevel: state.InterestLevel,
		PainPoints:    nonNilSlice(state.PainPoints),
		Objections:    nonNilSlice(state.Objections),
		NextAction:    state.NextAction,
		ProspectName:  state.ProspectName,
		Outcome:       domain.ClassifyOutcome(state),
		Ended:         ended,
	})
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
