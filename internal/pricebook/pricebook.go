// Package pricebook holds the static subscription catalog quoted on calls.
package pricebook

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PlanID identifies a subscription tier.
type PlanID string

const (
	PlanStarter    PlanID = "starter"
	PlanGrowth     PlanID = "growth"
	PlanScale      PlanID = "scale"
	PlanPayAsYouGo PlanID = "payg"
)

// Billing is how a plan is charged.
type Billing string

const (
	BillingMonthly Billing = "monthly"
	BillingUsage   Billing = "usage"
)

// PerCallCents is the pay-as-you-go price of one AI-handled call.
const PerCallCents = 35

// ReceptionistMonthlyCost is the human-receptionist baseline used in ROI talk.
const ReceptionistMonthlyCost = 3000

// Plan is one subscription tier.
type Plan struct {
	ID            PlanID
	Name          string
	Price         int
	Billing       Billing
	IncludedCalls int
	Numbers       int
	Description   string
	BestFor       string
	Features      []string
	Recommended   bool
}

var plans = []Plan{
	{
		ID:            PlanStarter,
		Name:          "Starter",
		Price:         129,
		Billing:       BillingMonthly,
		IncludedCalls: 300,
		Numbers:       1,
		Description:   "For solo owners and small offices that miss calls while they are busy with customers.",
		BestFor:       "Single-location businesses getting started with an AI receptionist",
		Features: []string{
			"AI receptionist for 1 business number",
			"Up to 300 AI-handled calls per month",
			"Basic call routing and information capture",
			"Simple appointment booking via SMS or email summary",
			"Missed call callback automation",
		},
	},
	{
		ID:            PlanGrowth,
		Name:          "Growth",
		Price:         299,
		Billing:       BillingMonthly,
		IncludedCalls: 1000,
		Numbers:       3,
		Description:   "For growing teams that want booking, lead qualification and follow-up handled automatically.",
		BestFor:       "Busy practices and service businesses with steady inbound volume",
		Recommended:   true,
		Features: []string{
			"AI receptionist for up to 3 phone numbers or locations",
			"Up to 1,000 AI-handled calls per month",
			"Calendar integration for booking and rescheduling",
			"Lead qualification tags and call outcomes",
			"Call summaries and transcripts in the dashboard",
			"Automatic follow-up SMS after important calls",
		},
	},
	{
		ID:            PlanScale,
		Name:          "Scale",
		Price:         699,
		Billing:       BillingMonthly,
		IncludedCalls: 3000,
		Numbers:       10,
		Description:   "For multi-location businesses running inbound and outbound calling at volume.",
		BestFor:       "Multi-location operators and sales-driven teams",
		Features: []string{
			"AI receptionist + outbound campaigns for up to 10 numbers",
			"Up to 3,000 AI-handled calls per month",
			"Custom scripts per campaign or department",
			"Advanced lead scoring and deal tracking",
			"Full call recordings, transcripts, and exports",
			"Analytics dashboard with call metrics and conversions",
		},
	},
	{
		ID:          PlanPayAsYouGo,
		Name:        "Pay As You Go",
		Price:       0,
		Billing:     BillingUsage,
		Description: "No commitment. Pay per AI-handled call.",
		BestFor:     "Seasonal businesses or teams trying the service out",
		Features: []string{
			"No monthly subscription fee",
			"Pay only $0.35 per AI-handled call",
			"Same high-quality AI receptionist",
			"Great for testing or seasonal businesses",
		},
	},
}

var printer = message.NewPrinter(language.English)

// Plans returns every tier in catalog order.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	for i, p := range plans {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// MonthlyPlans returns the subscription tiers, excluding usage billing.
func MonthlyPlans() []Plan {
	var out []Plan
	for _, p := range Plans() {
		if p.Billing == BillingMonthly {
			out = append(out, p)
		}
	}
	return out
}

// Get looks up a plan by id.
func Get(id PlanID) (Plan, bool) {
	for _, p := range Plans() {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// MustGet is Get for ids known to exist in the catalog.
func MustGet(id PlanID) Plan {
	p, ok := Get(id)
	if !ok {
		panic(fmt.Sprintf("pricebook: unknown plan %q", id))
	}
	return p
}

// RecommendedPlan returns the default recommended tier.
func RecommendedPlan() Plan {
	for _, p := range Plans() {
		if p.Recommended {
			return p
		}
	}
	return MustGet(PlanGrowth)
}

// FormatPrice renders whole dollars with thousands separators, e.g. "$1,299".
func FormatPrice(dollars int) string {
	return printer.Sprintf("$%d", dollars)
}

// FormatPerCall renders the usage price, e.g. "$0.35".
func FormatPerCall() string {
	return fmt.Sprintf("$%d.%02d", PerCallCents/100, PerCallCents%100)
}

// DailyCost is the monthly price spread over 30 days, rounded to the nearest dollar.
func (p Plan) DailyCost() int {
	return (p.Price + 15) / 30
}

// TopFeatures returns up to n features.
func (p Plan) TopFeatures(n int) []string {
	if n > len(p.Features) {
		n = len(p.Features)
	}
	return p.Features[:n]
}

// PriceLine is how the plan price is spoken, e.g. "$299 per month".
func (p Plan) PriceLine() string {
	if p.Billing == BillingUsage {
		return FormatPerCall() + " per call"
	}
	return FormatPrice(p.Price) + " per month"
}

// PricingSummary renders the whole catalog as plain text for prompts and quotes.
func PricingSummary() string {
	var b strings.Builder
	for _, p := range Plans() {
		fmt.Fprintf(&b, "- %s (%s)", p.Name, p.PriceLine())
		if p.IncludedCalls > 0 {
			fmt.Fprintf(&b, ": %s calls, %d number(s)", printer.Sprintf("%d", p.IncludedCalls), p.Numbers)
		}
		if p.Recommended {
			b.WriteString(" [recommended]")
		}
		fmt.Fprintf(&b, ". Best for: %s.\n", p.BestFor)
		for _, f := range p.TopFeatures(3) {
			fmt.Fprintf(&b, "    * %s\n", f)
		}
	}
	return b.String()
}

// RecommendPlan maps a monthly call volume and location count to a tier.
// Zero means unknown; with neither known the recommended plan is returned.
func RecommendPlan(callVolume, locations int) Plan {
	switch {
	case callVolume <= 0 && locations <= 0:
		return RecommendedPlan()
	case callVolume > 3000:
		return MustGet(PlanScale)
	case callVolume > 1000 || locations > 3:
		return MustGet(PlanScale)
	case callVolume > 300 || locations > 1:
		return MustGet(PlanGrowth)
	default:
		return MustGet(PlanStarter)
	}
}

// ReceptionistSavingsPercent is how much cheaper the starter plan is than the baseline, rounded.
func ReceptionistSavingsPercent() int {
	starter := MustGet(PlanStarter).Price
	return ((ReceptionistMonthlyCost-starter)*100 + ReceptionistMonthlyCost/2) / ReceptionistMonthlyCost
}
