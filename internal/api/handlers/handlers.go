package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/app"
	"github.com/acme/coldcall-agent/internal/campaign"
	"github.com/acme/coldcall-agent/internal/conversation"
	"github.com/acme/coldcall-agent/internal/discovery"
	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/metrics"
	"github.com/acme/coldcall-agent/internal/repository"
	"github.com/acme/coldcall-agent/internal/telephony"
	"github.com/acme/coldcall-agent/pkg/logger"
)

// TwiML renders voice webhook responses.
type TwiML interface {
	RenderReply(sessionID string, reply telephony.Reply) (string, error)
	RenderSilence(sessionID string) (string, error)
	Forget(sessionID string)
}

// Deps are the collaborators the handlers call into. Calls, Transcripts and TwiML may be nil.
type Deps struct {
	Campaigns   *campaign.Manager
	Discovery   *discovery.Service
	Calls       repository.CallRepository
	Transcripts repository.TranscriptStore
	Hub         *telephony.Hub
	TwiML       TwiML
	Engines     conversation.Factory
	Agent       domain.AgentSettings
	Metrics     *metrics.Metrics
	Health      map[string]func(context.Context) error
	Logger      *logger.Logger
}

// DepsFromContainer collects handler dependencies from the application container.
func DepsFromContainer(c *app.Container) Deps {
	repos := c.Repositories()
	services := c.Services()
	deps := Deps{
		Campaigns:   services.Campaigns,
		Discovery:   services.Discovery,
		Calls:       repos.Calls,
		Transcripts: repos.Transcripts,
		Hub:         services.Hub,
		Engines:     services.Engines,
		Agent:       services.Agent,
		Metrics:     c.Metrics,
		Health:      c.HealthChecks(),
		Logger:      c.Logger,
	}
	if services.Twilio != nil {
		deps.TwiML = services.Twilio
	}
	return deps
}

// HandlerSet bundles all HTTP handlers.
type HandlerSet struct {
	deps Deps
	log  *logger.Logger
}

// NewHandlerSet creates a new handler bundle.
func NewHandlerSet(deps Deps) *HandlerSet {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &HandlerSet{deps: deps, log: log}
}

// Register wires all routes onto the fiber app.
func (h *HandlerSet) Register(app *fiber.App) {
	app.Get("/healthz", h.health)

	v1 := app.Group("/api").Group("/v1")

	campaigns := v1.Group("/campaigns")
	campaigns.Post("/", h.createCampaign)
	campaigns.Get("/", h.listCampaigns)
	campaigns.Get("/:id", h.getCampaign)
	campaigns.Get("/:id/calls", h.listCampaignCalls)
	campaigns.Post("/:id/start", h.startCampaign)
	campaigns.Post("/:id/pause", h.pauseCampaign)
	campaigns.Post("/:id/stop", h.stopCampaign)
	v1.Get("/queue", h.queueStatus)

	businesses := v1.Group("/businesses")
	businesses.Post("/search", h.searchBusinesses)
	businesses.Post("/import", h.importBusinesses)

	calls := v1.Group("/calls")
	calls.Get("/", h.listCalls)
	calls.Get("/:id", h.getCall)
	calls.Get("/:id/transcript", h.getTranscript)

	v1.Post("/conversations/simulate", h.simulateConversation)

	v1.Get("/pricing", h.listPricing)
	v1.Get("/pricing/recommend", h.recommendPlan)

	webhooks := app.Group("/webhooks/voice")
	webhooks.Post("/:session", h.voiceWebhook)
	webhooks.Post("/:session/status", h.statusWebhook)
}

// ErrorHandler provides centralized error responses.
func (h *HandlerSet) ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code == fiber.StatusInternalServerError {
		h.log.WithContext(ctx.UserContext()).Error("request failed",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Error(err),
		)
		message = "internal server error"
	}

	return ctx.Status(code).JSON(fiber.Map{"error": message})
}

func (h *HandlerSet) health(ctx *fiber.Ctx) error {
	healthCtx, cancel := context.WithTimeout(ctx.UserContext(), 2*time.Second)
	defer cancel()

	errs := make(map[string]string)
	for name, check := range h.deps.Health {
		if err := check(healthCtx); err != nil {
			errs[name] = err.Error()
		}
	}

	status := fiber.StatusOK
	state := "ok"
	if len(errs) > 0 {
		status = fiber.StatusServiceUnavailable
		state = "degraded"
	}

	body := fiber.Map{"status": state, "errors": errs}
	if h.deps.Hub != nil {
		body["active_sessions"] = h.deps.Hub.Active()
	}
	return ctx.Status(status).JSON(body)
}
