package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/logging"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/matching"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/storage"
)

func (s *Server) handleLeadsList(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, defaultPageLimit, 0)

	items, total, err := s.store.ListLeads(r.Context(), leadFilterFromQuery(r, limit, offset))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse[domain.Lead]{
		Limit:  limit,
		Offset: offset,
		Total:  total,
		Items:  items,
	})
}

func (s *Server) handleLeadsCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.Lead
	if !decodeValidated(w, r, leadSchema, &req) {
		return
	}
	if req.BudgetMax > 0 && req.BudgetMin > req.BudgetMax {
		writeError(w, http.StatusBadRequest, "budget_min_exceeds_budget_max")
		return
	}

	lead, err := s.store.CreateLead(r.Context(), req)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	if !lead.Status.Closed() {
		s.notifyLeadCreated(r, lead)
	}
	writeJSON(w, http.StatusCreated, lead)
}

func (s *Server) notifyLeadCreated(r *http.Request, lead domain.Lead) {
	listings, _, err := s.store.ListListings(r.Context(), storage.ListingFilter{Status: domain.ListingActive})
	if err != nil {
		logging.FromContext(r.Context()).Warn("skip lead notification: list listings", "lead_id", lead.ID, "err", err)
		return
	}
	s.notifier.LeadCreated(r.Context(), lead, s.engine.RankListingsForLead(lead, listings))
}

func (s *Server) handleLeadGet(w http.ResponseWriter, r *http.Request) {
	lead, err := s.store.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) handleLeadDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleLeadListings ranks active stored listings for one lead.
func (s *Server) handleLeadListings(w http.ResponseWriter, r *http.Request) {
	lead, err := s.store.GetLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	listings, _, err := s.store.ListListings(r.Context(), storage.ListingFilter{Status: domain.ListingActive})
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	limit, _ := parseLimitOffset(r, s.opts.DefaultLimit, 0)
	ranked := s.engine.RankListingsForLead(lead, listings)

	writeJSON(w, http.StatusOK, RankedListingsResponse{
		LeadID:  lead.ID,
		Total:   len(ranked),
		Results: DecorateListings(matching.Top(ranked, limit)),
	})
}
