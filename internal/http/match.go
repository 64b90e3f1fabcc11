package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/matching"
)

type ScoreResponse struct {
	LeadID string `json:"lead_id"`
	RankedListing
}

// handleScore scores one stored lead against one stored listing.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	leadID := r.URL.Query().Get("lead_id")
	listingID := r.URL.Query().Get("listing_id")
	if leadID == "" || listingID == "" {
		writeError(w, http.StatusBadRequest, "lead_id_and_listing_id_required")
		return
	}

	lead, err := s.store.GetLead(r.Context(), leadID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	listing, err := s.store.GetListing(r.Context(), listingID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ScoreResponse{
		LeadID:        lead.ID,
		RankedListing: DecorateListing(s.engine.Score(lead, listing)),
	})
}

// MatchRequest ranks the given listings for an ad-hoc lead without touching storage.
type MatchRequest struct {
	Lead     domain.Lead      `json:"lead"`
	Listings []domain.Listing `json:"listings"`
	Limit    int              `json:"limit"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	limit := req.Limit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}

	ranked := s.engine.RankListingsForLead(req.Lead, req.Listings)
	writeJSON(w, http.StatusOK, RankedListingsResponse{
		LeadID:  req.Lead.ID,
		Total:   len(ranked),
		Results: DecorateListings(matching.Top(ranked, limit)),
	})
}
