package storage

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
)

// MemoryStore keeps records in process memory. Used by tests and STORAGE_DRIVER=memory.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]domain.Listing
	leads    map[string]domain.Lead
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: map[string]domain.Listing{},
		leads:    map[string]domain.Lead{},
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) ListListings(_ context.Context, f ListingFilter) ([]domain.Listing, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if listingMatches(f, l) {
			out = append(out, l)
		}
	}

	switch f.Sort {
	case SortPriceAsc:
		sort.Slice(out, func(i, j int) bool {
			if out[i].Price != out[j].Price {
				return out[i].Price < out[j].Price
			}
			return out[i].ID < out[j].ID
		})
	case SortPriceDesc:
		sort.Slice(out, func(i, j int) bool {
			if out[i].Price != out[j].Price {
				return out[i].Price > out[j].Price
			}
			return out[i].ID < out[j].ID
		})
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}

	total := len(out)
	return page(out, f.Limit, f.Offset), total, nil
}

func (s *MemoryStore) GetListing(_ context.Context, id string) (domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return domain.Listing{}, ErrNotFound
	}
	return l, nil
}

func (s *MemoryStore) CreateListing(_ context.Context, l domain.Listing) (domain.Listing, error) {
	l = prepareListing(l)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[l.ID]; ok {
		return domain.Listing{}, ErrAlreadyExists
	}
	s.listings[l.ID] = l
	return l, nil
}

func (s *MemoryStore) DeleteListing(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[id]; !ok {
		return ErrNotFound
	}
	delete(s.listings, id)
	return nil
}

func (s *MemoryStore) ListLeads(_ context.Context, f LeadFilter) ([]domain.Lead, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		if leadMatches(f, l) {
			out = append(out, cloneLead(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	total := len(out)
	return page(out, f.Limit, f.Offset), total, nil
}

func (s *MemoryStore) GetLead(_ context.Context, id string) (domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.leads[id]
	if !ok {
		return domain.Lead{}, ErrNotFound
	}
	return cloneLead(l), nil
}

func (s *MemoryStore) CreateLead(_ context.Context, l domain.Lead) (domain.Lead, error) {
	l = prepareLead(cloneLead(l))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leads[l.ID]; ok {
		return domain.Lead{}, ErrAlreadyExists
	}
	s.leads[l.ID] = l
	return cloneLead(l), nil
}

func (s *MemoryStore) DeleteLead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leads[id]; !ok {
		return ErrNotFound
	}
	delete(s.leads, id)
	return nil
}

func (s *MemoryStore) UpsertMany(ctx context.Context, seed Seed) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, l := range seed.Listings {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		l = prepareListing(l)
		if _, ok := s.listings[l.ID]; ok {
			continue
		}
		s.listings[l.ID] = l
		inserted++
	}
	for _, l := range seed.Leads {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		l = prepareLead(cloneLead(l))
		if _, ok := s.leads[l.ID]; ok {
			continue
		}
		s.leads[l.ID] = l
		inserted++
	}
	return inserted, nil
}

func listingMatches(f ListingFilter, l domain.Listing) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.PropertyType != "" && l.PropertyType != f.PropertyType {
		return false
	}
	if strings.TrimSpace(f.City) != "" && !containsFold(l.City, f.City) {
		return false
	}
	if strings.TrimSpace(f.District) != "" && !containsFold(l.District, f.District) {
		return false
	}
	if f.MinPrice > 0 && l.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && l.Price > f.MaxPrice {
		return false
	}
	return true
}

func leadMatches(f LeadFilter, l domain.Lead) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Kind != "" && l.Kind != f.Kind {
		return false
	}
	if strings.TrimSpace(f.Region) != "" {
		return slices.ContainsFunc(l.PreferredRegions, func(r string) bool {
			return containsFold(r, f.Region)
		})
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		return items
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func cloneLead(l domain.Lead) domain.Lead {
	l.PreferredRegions = slices.Clone(l.PreferredRegions)
	l.PreferredPropertyTypes = slices.Clone(l.PreferredPropertyTypes)
	l.PreferredRoomCounts = slices.Clone(l.PreferredRoomCounts)
	return l
}
