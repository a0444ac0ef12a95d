package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/acme/coldcall-agent/internal/config"
	"github.com/acme/coldcall-agent/internal/domain"
	apperrors "github.com/acme/coldcall-agent/pkg/errors"
)

func TestPhoneNumbers(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
		out   string
	}{
		{"555-111-2222", true, "+1 (555) 111-2222"},
		{"(555) 111 2222", true, "+1 (555) 111-2222"},
		{"1-555-111-2222", true, "+1 (555) 111-2222"},
		{"+1 555.111.2222", true, "+1 (555) 111-2222"},
		{"2-555-111-2222", false, "2-555-111-2222"},
		{"111-2222", false, "111-2222"},
		{"", false, ""},
	}
	for _, tc := range cases {
		if got := ValidatePhoneNumber(tc.in); got != tc.valid {
			t.Fatalf("%q: expected valid=%v", tc.in, tc.valid)
		}
		if got := FormatPhoneNumber(tc.in); got != tc.out {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.out, got)
		}
	}
	if e, ok := E164("+1 (555) 111-2222"); !ok || e != "+15551112222" {
		t.Fatalf("unexpected e164 %q %v", e, ok)
	}
}

func TestImportCSV(t *testing.T) {
	input := strings.Join([]string{
		"Business Name, Telephone, City, State, Category, URL",
		"Joe's Diner,555-111-2222,Springfield,IL,restaurant,https://joes.example",
		",555-333-4444,Springfield,IL,dentist,",
		"No Phone Plumbing,12345,Springfield,IL,plumber,",
		"\"Smith, Jones & Co\",(555) 999-0000,Shelbyville,IL,lawyer",
		"",
	}, "\n")

	got, report, err := ImportCSV(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(got) != 2 || report.Imported != 2 || report.Skipped != 2 || report.Rows != 4 {
		t.Fatalf("unexpected result %d businesses, report %+v", len(got), report)
	}
	joe := got[0]
	if joe.Name != "Joe's Diner" || joe.Phone != "+1 (555) 111-2222" || joe.Industry != "restaurant" || joe.Website != "https://joes.example" {
		t.Fatalf("unexpected business %+v", joe)
	}
	if got[1].Name != "Smith, Jones & Co" || got[1].Website != "" {
		t.Fatalf("quoted fields or short rows mishandled: %+v", got[1])
	}
	if report.Errors[0].Reason != "missing name" || report.Errors[1].Reason != "invalid phone" {
		t.Fatalf("unexpected row errors %+v", report.Errors)
	}
	if report.Errors[0].Line != 3 {
		t.Fatalf("expected line 3 for the nameless row, got %d", report.Errors[0].Line)
	}
}

func TestImportCSVRejectsMissingColumns(t *testing.T) {
	_, _, err := ImportCSV(context.Background(), strings.NewReader("name,city\nJoe,Springfield\n"))
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, _, err = ImportCSV(context.Background(), strings.NewReader(""))
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error for empty input, got %v", err)
	}
}

func TestSearchDefaultsAndDeterminism(t *testing.T) {
	svc := NewService(nil, config.DiscoveryConfig{}, nil)

	if _, err := svc.Search(context.Background(), SearchParams{}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected location to be required, got %v", err)
	}

	first, err := svc.Search(context.Background(), SearchParams{Location: "Austin, TX", Industry: "Dentist"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(first) != 20 {
		t.Fatalf("expected default limit of 20, got %d", len(first))
	}
	for _, b := range first {
		if b.Industry != "dentist" || b.City != "Austin" || b.State != "TX" {
			t.Fatalf("unexpected business %+v", b)
		}
		if !ValidatePhoneNumber(b.Phone) || !b.Verified || b.Rating < 3 || b.Rating > 5 || b.ReviewCount < 10 {
			t.Fatalf("business not enriched or invalid: %+v", b)
		}
	}

	second, _ := svc.Search(context.Background(), SearchParams{Location: "Austin, TX", Industry: "dentist", Limit: 20})
	if first[7].Phone != second[7].Phone || first[7].Name != second[7].Name {
		t.Fatalf("same query should produce the same businesses")
	}
}

type staticSource []domain.LocalBusiness

func (s staticSource) Search(context.Context, SearchParams) ([]domain.LocalBusiness, error) {
	return s, nil
}

func TestEnrichKeepsKnownValues(t *testing.T) {
	svc := NewService(staticSource{{Name: "Known", Phone: "555-111-2222", Rating: 4.5, ReviewCount: 3}}, config.DiscoveryConfig{}, nil)
	got, err := svc.Search(context.Background(), SearchParams{Location: "Springfield"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got[0].Rating != 4.5 || got[0].ReviewCount != 3 || !got[0].Verified {
		t.Fatalf("enrichment overwrote known values: %+v", got[0])
	}
}
