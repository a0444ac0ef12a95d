package handlers

import (
	"bytes"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/discovery"
)

type searchBusinessesRequest struct {
	Location string `json:"location"`
	Industry string `json:"industry"`
	Radius   int    `json:"radius"`
	Limit    int    `json:"limit"`
}

func (h *HandlerSet) searchBusinesses(c *fiber.Ctx) error {
	var req searchBusinessesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	found, err := h.deps.Discovery.Search(c.UserContext(), discovery.SearchParams{
		Location: req.Location,
		Industry: req.Industry,
		Radius:   req.Radius,
		Limit:    req.Limit,
	})
	if err != nil {
		return translateError(err)
	}
	return c.JSON(fiber.Map{"data": toBusinessPayloads(found), "count": len(found)})
}

// importBusinesses accepts a multipart "file" field or a raw text/csv body.
func (h *HandlerSet) importBusinesses(c *fiber.Ctx) error {
	var src io.Reader
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		header, err := c.FormFile("file")
		if err != nil {
			return badRequest("multipart upload requires a file field")
		}
		f, err := header.Open()
		if err != nil {
			return badRequest("unreadable upload")
		}
		defer f.Close()
		src = f
	} else {
		body := c.Body()
		if len(body) == 0 {
			return badRequest("empty csv body")
		}
		src = bytes.NewReader(body)
	}

	ctx := c.UserContext()
	businesses, report, err := discovery.ImportCSV(ctx, src)
	if err != nil {
		return translateError(err)
	}
	businesses = h.deps.Discovery.Enrich(ctx, businesses)

	h.log.WithContext(ctx).Info("businesses imported",
		zap.Int("rows", report.Rows),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
	)
	return c.JSON(fiber.Map{"data": toBusinessPayloads(businesses), "report": report})
}
