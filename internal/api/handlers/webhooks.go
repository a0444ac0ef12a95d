package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/telephony"
	apperrors "github.com/acme/coldcall-agent/pkg/errors"
)

const goneReply = "Thanks for your time. Goodbye."

// providerStatuses maps terminal Twilio call statuses to ours. Progress statuses are absent.
var providerStatuses = map[string]domain.CallStatus{
	"completed": domain.CallStatusCompleted,
	"busy":      domain.CallStatusBusy,
	"no-answer": domain.CallStatusNoAnswer,
	"canceled":  domain.CallStatusNoAnswer,
	"failed":    domain.CallStatusFailed,
}

// voiceWebhook handles the answer request (no turn query) and every Gather result after it.
func (h *HandlerSet) voiceWebhook(c *fiber.Ctx) error {
	if h.deps.TwiML == nil || h.deps.Hub == nil {
		return fiber.NewError(http.StatusServiceUnavailable, "voice webhooks are not configured")
	}
	h.deps.Metrics.Webhook("voice")

	id := c.Params("session")
	ctx := c.UserContext()
	log := h.log.WithContext(ctx).With(zap.String("session_id", id))

	speech := strings.TrimSpace(c.FormValue("SpeechResult"))
	if speech == "" {
		speech = strings.TrimSpace(c.FormValue("Digits"))
	}
	if sid := c.FormValue("CallSid"); sid != "" {
		if s, err := h.deps.Hub.Get(id); err == nil {
			s.SetProviderCallID(sid)
		}
	}

	var (
		reply telephony.Reply
		err   error
	)
	switch {
	case c.Query("turn") == "":
		reply, err = h.deps.Hub.Answer(ctx, id)
	case speech == "":
		return sendTwiML(c)(h.deps.TwiML.RenderSilence(id))
	default:
		reply, err = h.deps.Hub.Utterance(ctx, id, speech)
	}

	switch {
	case err == nil:
	case errors.Is(err, telephony.ErrSessionClosed) || errors.Is(err, apperrors.ErrNotFound):
		log.Info("voice webhook for ended session")
		reply = telephony.Reply{Text: goneReply, Hangup: true}
	case errors.Is(err, telephony.ErrTurnInFlight):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		log.Error("voice turn failed", zap.Error(err))
		reply = telephony.Reply{Text: goneReply, Hangup: true}
	}

	if reply.Hangup {
		defer h.deps.TwiML.Forget(id)
	}
	return sendTwiML(c)(h.deps.TwiML.RenderReply(id, reply))
}

func sendTwiML(c *fiber.Ctx) func(string, error) error {
	return func(body string, err error) error {
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "text/xml")
		return c.SendString(body)
	}
}

// statusWebhook ends the session on a terminal provider status. Late callbacks are acknowledged.
func (h *HandlerSet) statusWebhook(c *fiber.Ctx) error {
	if h.deps.Hub == nil {
		return fiber.NewError(http.StatusServiceUnavailable, "voice webhooks are not configured")
	}
	h.deps.Metrics.Webhook("status")

	id := c.Params("session")
	ctx := c.UserContext()
	raw := strings.ToLower(c.FormValue("CallStatus"))
	status, terminal := providerStatuses[raw]
	if !terminal {
		return c.SendStatus(fiber.StatusNoContent)
	}

	err := h.deps.Hub.Status(ctx, id, c.FormValue("CallSid"), status)
	if h.deps.TwiML != nil {
		h.deps.TwiML.Forget(id)
	}
	switch {
	case err == nil:
	case errors.Is(err, telephony.ErrSessionClosed) || errors.Is(err, apperrors.ErrNotFound):
		h.log.WithContext(ctx).Debug("status for ended session",
			zap.String("session_id", id),
			zap.String("status", raw),
		)
	default:
		return translateError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
