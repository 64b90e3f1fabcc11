package matching

import (
	"math"
	"sort"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
)

// Engine scores leads against listings. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	weights Weights
}

func NewEngine() *Engine {
	return &Engine{weights: DefaultWeights()}
}

func (e *Engine) Weights() Weights {
	return e.weights
}

// Score computes the weighted match of one listing for one lead.
func (e *Engine) Score(lead domain.Lead, listing domain.Listing) domain.MatchResult {
	b := domain.MatchBreakdown{
		Budget:       scoreBudget(listing.Price, lead.BudgetMin, lead.BudgetMax),
		Region:       scoreRegion(lead.PreferredRegions, listing.District, listing.City),
		PropertyType: scorePropertyType(lead.PreferredPropertyTypes, listing.PropertyType),
		RoomCount:    scoreRoomCount(lead.PreferredRoomCounts, listing.RoomCount),
		Features:     scoreFeatures(listing),
	}

	return domain.MatchResult{
		Listing:    listing,
		MatchScore: e.total(b),
		Breakdown:  b,
	}
}

// RankListingsForLead scores every active listing and orders them best first.
// Listings with equal scores keep their input order.
func (e *Engine) RankListingsForLead(lead domain.Lead, listings []domain.Listing) []domain.MatchResult {
	out := make([]domain.MatchResult, 0, len(listings))
	for _, l := range listings {
		if l.Status != domain.ListingActive {
			continue
		}
		out = append(out, e.Score(lead, l))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out
}

// RankLeadsForListing scores every open lead and orders them best first.
// Converted and inactive leads are skipped before scoring.
func (e *Engine) RankLeadsForListing(listing domain.Listing, leads []domain.Lead) []domain.LeadMatch {
	out := make([]domain.LeadMatch, 0, len(leads))
	for _, ld := range leads {
		if ld.Status.Closed() {
			continue
		}
		r := e.Score(ld, listing)
		out = append(out, domain.LeadMatch{
			Lead:      ld,
			Score:     r.MatchScore,
			Breakdown: r.Breakdown,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (e *Engine) total(b domain.MatchBreakdown) int {
	w := e.weights
	sum := b.Budget.Score*w.Budget +
		b.Region.Score*w.Region +
		b.PropertyType.Score*w.PropertyType +
		b.RoomCount.Score*w.RoomCount +
		b.Features.Score*w.Features

	return int(clamp(math.Round(sum), 0, 100))
}

// Top truncates ranked results to limit entries; limit <= 0 keeps everything.
func Top[T any](ranked []T, limit int) []T {
	if limit <= 0 || len(ranked) <= limit {
		return ranked
	}
	return ranked[:limit]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
