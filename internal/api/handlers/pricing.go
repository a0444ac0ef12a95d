package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acme/coldcall-agent/internal/pricebook"
)

type planResponse struct {
	ID            pricebook.PlanID  `json:"id"`
	Name          string            `json:"name"`
	Price         int               `json:"price"`
	PriceLine     string            `json:"price_line"`
	Billing       pricebook.Billing `json:"billing"`
	IncludedCalls int               `json:"included_calls"`
	Numbers       int               `json:"numbers"`
	Description   string            `json:"description"`
	BestFor       string            `json:"best_for"`
	Features      []string          `json:"features"`
	Recommended   bool              `json:"recommended"`
}

func toPlanResponse(p pricebook.Plan) planResponse {
	return planResponse{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		PriceLine:     p.PriceLine(),
		Billing:       p.Billing,
		IncludedCalls: p.IncludedCalls,
		Numbers:       p.Numbers,
		Description:   p.Description,
		BestFor:       p.BestFor,
		Features:      p.Features,
		Recommended:   p.Recommended,
	}
}

func (h *HandlerSet) listPricing(c *fiber.Ctx) error {
	plans := pricebook.Plans()
	resp := make([]planResponse, len(plans))
	for i, p := range plans {
		resp[i] = toPlanResponse(p)
	}
	return c.JSON(fiber.Map{
		"data":                  resp,
		"per_call":              pricebook.FormatPerCall(),
		"receptionist_baseline": pricebook.ReceptionistMonthlyCost,
		"savings_percent":       pricebook.ReceptionistSavingsPercent(),
	})
}

// recommendPlan takes call volume and location count query params; missing values mean unknown.
func (h *HandlerSet) recommendPlan(c *fiber.Ctx) error {
	calls := c.QueryInt("calls", 0)
	locations := c.QueryInt("locations", 0)
	if calls < 0 || locations < 0 {
		return badRequest("calls and locations must not be negative")
	}
	return c.JSON(toPlanResponse(pricebook.RecommendPlan(calls, locations)))
}
