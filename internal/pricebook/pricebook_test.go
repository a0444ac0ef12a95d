package pricebook

import (
	"strings"
	"testing"
)

func TestRecommendPlan(t *testing.T) {
	cases := []struct {
		volume    int
		locations int
		want      PlanID
	}{
		{200, 1, PlanStarter},
		{500, 1, PlanGrowth},
		{1500, 1, PlanScale},
		{0, 0, PlanGrowth},
		{100, 2, PlanGrowth},
		{100, 4, PlanScale},
		{5000, 0, PlanScale},
		{300, 1, PlanStarter},
	}

	for _, tc := range cases {
		got := RecommendPlan(tc.volume, tc.locations)
		if got.ID != tc.want {
			t.Fatalf("RecommendPlan(%d, %d) = %s, want %s", tc.volume, tc.locations, got.ID, tc.want)
		}
	}
}

func TestRecommendedPlanIsGrowth(t *testing.T) {
	if RecommendedPlan().ID != PlanGrowth {
		t.Fatalf("expected growth to be recommended")
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[int]string{
		0:     "$0",
		129:   "$129",
		1000:  "$1,000",
		12999: "$12,999",
	}
	for in, want := range cases {
		if got := FormatPrice(in); got != want {
			t.Fatalf("FormatPrice(%d) = %q, want %q", in, got, want)
		}
	}
	if FormatPerCall() != "$0.35" {
		t.Fatalf("unexpected per-call price %q", FormatPerCall())
	}
}

func TestPlansAreCopies(t *testing.T) {
	ps := Plans()
	ps[0].Features[0] = "mutated"
	if Plans()[0].Features[0] == "mutated" {
		t.Fatalf("Plans must not expose the catalog backing arrays")
	}
}

func TestPricingSummaryListsEveryTier(t *testing.T) {
	summary := PricingSummary()
	for _, p := range Plans() {
		if !strings.Contains(summary, p.Name) {
			t.Fatalf("summary missing %s:\n%s", p.Name, summary)
		}
	}
	if !strings.Contains(summary, "$299 per month") || !strings.Contains(summary, "$0.35 per call") {
		t.Fatalf("summary missing prices:\n%s", summary)
	}
}

func TestReceptionistSavingsPercent(t *testing.T) {
	// (3000-129)/3000 = 95.7%
	if got := ReceptionistSavingsPercent(); got != 96 {
		t.Fatalf("expected 96, got %d", got)
	}
	if MustGet(PlanStarter).DailyCost() != 4 {
		t.Fatalf("expected starter daily cost 4, got %d", MustGet(PlanStarter).DailyCost())
	}
}
