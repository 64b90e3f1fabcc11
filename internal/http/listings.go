package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/logging"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/matching"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/storage"
)

func (s *Server) handleListingsList(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, defaultPageLimit, 0)

	items, total, err := s.store.ListListings(r.Context(), listingFilterFromQuery(r, limit, offset))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse[domain.Listing]{
		Limit:  limit,
		Offset: offset,
		Total:  total,
		Items:  items,
	})
}

func (s *Server) handleListingsCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.Listing
	if !decodeValidated(w, r, listingSchema, &req) {
		return
	}

	listing, err := s.store.CreateListing(r.Context(), req)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	if listing.Status == domain.ListingActive {
		s.notifyListingCreated(r, listing)
	}
	writeJSON(w, http.StatusCreated, listing)
}

// notifyListingCreated ranks stored leads for the new listing and hands the
// result to the notifier. Failures are only logged.
func (s *Server) notifyListingCreated(r *http.Request, listing domain.Listing) {
	leads, _, err := s.store.ListLeads(r.Context(), storage.LeadFilter{})
	if err != nil {
		logging.FromContext(r.Context()).Warn("skip listing notification: list leads", "listing_id", listing.ID, "err", err)
		return
	}
	s.notifier.ListingCreated(r.Context(), listing, s.engine.RankLeadsForListing(listing, leads))
}

func (s *Server) handleListingGet(w http.ResponseWriter, r *http.Request) {
	listing, err := s.store.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleListingDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteListing(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleListingLeads ranks every stored lead against one listing.
func (s *Server) handleListingLeads(w http.ResponseWriter, r *http.Request) {
	listing, err := s.store.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	leads, _, err := s.store.ListLeads(r.Context(), storage.LeadFilter{})
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	limit, _ := parseLimitOffset(r, s.opts.DefaultLimit, 0)
	ranked := s.engine.RankLeadsForListing(listing, leads)

	writeJSON(w, http.StatusOK, RankedLeadsResponse{
		ListingID: listing.ID,
		Total:     len(ranked),
		Results:   DecorateLeads(matching.Top(ranked, limit)),
	})
}
