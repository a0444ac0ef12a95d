// Package discovery finds and imports local businesses to call.
package discovery

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/config"
	"github.com/acme/coldcall-agent/internal/domain"
	apperrors "github.com/acme/coldcall-agent/pkg/errors"
	"github.com/acme/coldcall-agent/pkg/logger"
)

// SearchParams narrows a business search.
type SearchParams struct {
	Location string `json:"location"`
	Industry string `json:"industry"`
	Radius   int    `json:"radius"`
	Limit    int    `json:"limit"`
}

// Source produces candidate businesses for a normalized search.
type Source interface {
	Search(ctx context.Context, params SearchParams) ([]domain.LocalBusiness, error)
}

// Service fronts a Source with defaults, validation and enrichment.
type Service struct {
	source        Source
	defaultRadius int
	defaultLimit  int
	log           *logger.Logger
}

// NewService builds a discovery service. A nil source uses the built-in directory generator.
func NewService(source Source, cfg config.DiscoveryConfig, log *logger.Logger) *Service {
	if source == nil {
		source = Generator{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	s := &Service{source: source, defaultRadius: cfg.DefaultRadius, defaultLimit: cfg.DefaultLimit, log: log}
	if s.defaultRadius <= 0 {
		s.defaultRadius = 10
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = 20
	}
	return s
}

// Search returns enriched businesses matching params.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]domain.LocalBusiness, error) {
	params.Location = strings.TrimSpace(params.Location)
	params.Industry = strings.ToLower(strings.TrimSpace(params.Industry))
	if params.Location == "" {
		return nil, fmt.Errorf("%w: location is required", apperrors.ErrValidation)
	}
	if params.Radius <= 0 {
		params.Radius = s.defaultRadius
	}
	if params.Limit <= 0 {
		params.Limit = s.defaultLimit
	}

	found, err := s.source.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search businesses: %w", err)
	}
	s.log.WithContext(ctx).Info("business search",
		zap.String("location", params.Location),
		zap.String("industry", params.Industry),
		zap.Int("results", len(found)),
	)
	return s.Enrich(ctx, found), nil
}

// Enrich marks businesses verified and fills in rating and review counts. Values are derived from the
// phone number so repeated lookups agree.
func (s *Service) Enrich(_ context.Context, businesses []domain.LocalBusiness) []domain.LocalBusiness {
	out := make([]domain.LocalBusiness, len(businesses))
	for i, b := range businesses {
		rng := seeded(b.Phone, b.Name)
		b.Verified = true
		if b.Rating == 0 {
			b.Rating = 3 + rng.Float64()*2
		}
		if b.ReviewCount == 0 {
			b.ReviewCount = 10 + rng.IntN(100)
		}
		out[i] = b
	}
	return out
}

var industries = []string{"restaurant", "dentist", "plumber", "lawyer", "accountant", "real estate", "auto repair", "salon", "gym", "vet"}

var businessTypes = map[string][]string{
	"restaurant":  {"Italian Restaurant", "Pizza Place", "Cafe", "Mexican Restaurant", "Steakhouse"},
	"dentist":     {"Dental Office", "Orthodontist", "Oral Surgeon"},
	"plumber":     {"Plumbing Service", "Emergency Plumber", "Plumbing Contractor"},
	"lawyer":      {"Law Firm", "Attorney", "Legal Services"},
	"accountant":  {"Accounting Firm", "Tax Preparer", "Bookkeeping Service"},
	"real estate": {"Real Estate Agency", "Property Management", "Real Estate Broker"},
	"auto repair": {"Auto Shop", "Mechanic", "Car Repair"},
	"salon":       {"Hair Salon", "Nail Salon", "Beauty Salon"},
	"gym":         {"Fitness Center", "Gym", "Personal Training"},
	"vet":         {"Veterinary Clinic", "Animal Hospital", "Pet Care"},
}

// Generator is a directory stand-in that synthesizes plausible businesses. The same query always yields
// the same list.
type Generator struct{}

// Search implements Source.
func (Generator) Search(ctx context.Context, params SearchParams) ([]domain.LocalBusiness, error) {
	pool := industries
	if params.Industry != "" {
		pool = []string{params.Industry}
	}
	city, state := splitLocation(params.Location)
	rng := seeded(strings.ToLower(params.Location), params.Industry)

	out := make([]domain.LocalBusiness, 0, params.Limit)
	for i := 1; i <= params.Limit; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		industry := pool[rng.IntN(len(pool))]
		types, ok := businessTypes[industry]
		if !ok {
			types = []string{titleCase(industry)}
		}
		bt := types[rng.IntN(len(types))]
		slug := strings.ToLower(strings.ReplaceAll(bt, " ", ""))

		out = append(out, domain.LocalBusiness{
			ID:           fmt.Sprintf("gen-%s-%d", slug, i),
			Name:         fmt.Sprintf("%s %d", bt, i),
			Phone:        fmt.Sprintf("+1 (%d) %d-%04d", 200+rng.IntN(800), 200+rng.IntN(800), rng.IntN(10000)),
			Address:      fmt.Sprintf("%d Main St", 1+rng.IntN(9999)),
			City:         city,
			State:        state,
			ZipCode:      fmt.Sprintf("%05d", 10000+rng.IntN(90000)),
			Industry:     industry,
			BusinessType: bt,
			Website:      fmt.Sprintf("https://www.%s%d.com", slug, i),
			Email:        fmt.Sprintf("info@%s%d.com", slug, i),
			Rating:       3 + rng.Float64()*2,
			ReviewCount:  10 + rng.IntN(100),
			Verified:     rng.Float64() > 0.3,
		})
	}
	return out, nil
}

func splitLocation(location string) (city, state string) {
	parts := strings.Split(location, ",")
	city = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		state = strings.TrimSpace(parts[1])
	}
	if city == "" {
		city = "Your City"
	}
	if state == "" {
		state = "ST"
	}
	return city, state
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func seeded(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum>>1|1))
}
