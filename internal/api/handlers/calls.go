package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/acme/coldcall-agent/internal/repository"
	"github.com/acme/coldcall-agent/internal/service/common"
)

const (
	defaultTranscriptPageSize = 50
	maxTranscriptPageSize     = 500
)

func (h *HandlerSet) listCalls(c *fiber.Ctx) error {
	if h.deps.Calls == nil {
		return fiber.NewError(http.StatusServiceUnavailable, "call history is not configured")
	}
	limit := c.QueryInt("limit", repository.DefaultCallLimit)
	if limit <= 0 {
		return badRequest("limit must be positive")
	}

	calls, err := h.deps.Calls.GetAllCalls(c.UserContext(), limit)
	if err != nil {
		return translateError(err)
	}
	resp := make([]callRecordResponse, len(calls))
	for i, rec := range calls {
		resp[i] = toCallRecordResponse(rec, false)
	}
	return c.JSON(fiber.Map{"data": resp})
}

func (h *HandlerSet) getCall(c *fiber.Ctx) error {
	if h.deps.Calls == nil {
		return fiber.NewError(http.StatusServiceUnavailable, "call history is not configured")
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	rec, err := h.deps.Calls.GetCallByID(c.UserContext(), id)
	if err != nil {
		return translateError(err)
	}
	return c.JSON(toCallRecordResponse(*rec, true))
}

// getTranscript pages through the transcript log. With format=text the stored call transcript is
// rendered as plain text instead.
func (h *HandlerSet) getTranscript(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	if c.Query("format") == "text" {
		if h.deps.Calls == nil {
			return fiber.NewError(http.StatusServiceUnavailable, "call history is not configured")
		}
		rec, err := h.deps.Calls.GetCallByID(ctx, id)
		if err != nil {
			return translateError(err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(repository.FormatConversationHistory(rec.Transcript))
	}

	if h.deps.Transcripts == nil {
		if h.deps.Calls == nil {
			return fiber.NewError(http.StatusServiceUnavailable, "transcripts are not configured")
		}
		rec, err := h.deps.Calls.GetCallByID(ctx, id)
		if err != nil {
			return translateError(err)
		}
		return c.JSON(fiber.Map{"data": toTurnPayloads(rec.Transcript)})
	}

	pageSize := c.QueryInt("page_size", defaultTranscriptPageSize)
	if pageSize <= 0 || pageSize > maxTranscriptPageSize {
		return badRequest("page_size must be between 1 and 500")
	}
	state, err := common.DecodePageToken(c.Query("page_token"))
	if err != nil {
		return translateError(err)
	}

	turns, next, err := h.deps.Transcripts.ListTurns(ctx, id, pageSize, state)
	if err != nil {
		return translateError(err)
	}
	resp := fiber.Map{"data": toTurnPayloads(turns)}
	if token := common.EncodePageToken(next); token != "" {
		resp["next_page_token"] = token
	}
	return c.JSON(resp)
}
