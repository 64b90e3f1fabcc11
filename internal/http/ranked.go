package httpapi

import (
	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/matching"
)

// RankedListing is a MatchResult decorated with its tier label and color.
type RankedListing struct {
	domain.MatchResult
	Label string `json:"label"`
	Color string `json:"color"`
}

type RankedLead struct {
	domain.LeadMatch
	Label string `json:"label"`
	Color string `json:"color"`
}

type RankedListingsResponse struct {
	LeadID  string          `json:"lead_id,omitempty"`
	Total   int             `json:"total"`
	Results []RankedListing `json:"results"`
}

type RankedLeadsResponse struct {
	ListingID string       `json:"listing_id"`
	Total     int          `json:"total"`
	Results   []RankedLead `json:"results"`
}

// DecorateListing attaches the tier label and color for the result's score.
func DecorateListing(r domain.MatchResult) RankedListing {
	tier := matching.TierFor(r.MatchScore)
	return RankedListing{MatchResult: r, Label: tier.Label, Color: tier.Color}
}

func DecorateListings(results []domain.MatchResult) []RankedListing {
	out := make([]RankedListing, 0, len(results))
	for _, r := range results {
		out = append(out, DecorateListing(r))
	}
	return out
}

func DecorateLeads(results []domain.LeadMatch) []RankedLead {
	out := make([]RankedLead, 0, len(results))
	for _, m := range results {
		tier := matching.TierFor(m.Score)
		out = append(out, RankedLead{LeadMatch: m, Label: tier.Label, Color: tier.Color})
	}
	return out
}
