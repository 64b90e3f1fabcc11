package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/config"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
)

func sampleSeed() Seed {
	return Seed{
		Listings: []domain.Listing{
			{ID: "p-1", Title: "Sea view flat", Price: 5_000_000, Status: domain.ListingActive, City: "Istanbul", District: "Kadikoy", PropertyType: "apartment", RoomCount: "3+1", Elevator: true, Balcony: true},
			{ID: "p-2", Title: "Garden villa", Price: 12_000_000, Status: domain.ListingActive, City: "Izmir", District: "Urla", PropertyType: "villa", RoomCount: "5+2", Parking: true},
			{ID: "p-3", Title: "Studio", Price: 2_000_000, Status: domain.ListingSold, City: "Istanbul", District: "Besiktas", PropertyType: "apartment", RoomCount: "1+0"},
		},
		Leads: []domain.Lead{
			{ID: "c-1", Name: "Ayse", Status: domain.LeadNew, Kind: domain.LeadBuyer, BudgetMin: 4_000_000, BudgetMax: 6_000_000, PreferredRegions: []string{"Kadikoy", "Moda"}, PreferredPropertyTypes: []string{"apartment"}, PreferredRoomCounts: []string{"3+1"}},
			{ID: "c-2", Name: "Mehmet", Status: domain.LeadConverted, Kind: domain.LeadInvestor, BudgetMin: 10_000_000, BudgetMax: 15_000_000, PreferredRegions: []string{"Urla"}},
		},
	}
}

// runStoreSuite checks behavior every Store implementation must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("seed is idempotent", func(t *testing.T) {
		st := newStore(t)
		n, err := st.UpsertMany(ctx, sampleSeed())
		if err != nil {
			t.Fatalf("UpsertMany: %v", err)
		}
		if n != 5 {
			t.Fatalf("inserted=%d want=5", n)
		}
		n, err = st.UpsertMany(ctx, sampleSeed())
		if err != nil {
			t.Fatalf("second UpsertMany: %v", err)
		}
		if n != 0 {
			t.Fatalf("second inserted=%d want=0", n)
		}
	})

	t.Run("listing create defaults and duplicates", func(t *testing.T) {
		st := newStore(t)
		created, err := st.CreateListing(ctx, domain.Listing{Title: "New", Price: 1000, City: "Ankara"})
		if err != nil {
			t.Fatalf("CreateListing: %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected generated id")
		}
		if created.Status != domain.ListingActive {
			t.Fatalf("status=%q want=active", created.Status)
		}

		got, err := st.GetListing(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetListing: %v", err)
		}
		if got != created {
			t.Fatalf("got=%+v want=%+v", got, created)
		}

		if _, err := st.CreateListing(ctx, created); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("duplicate create err=%v want=ErrAlreadyExists", err)
		}
	})

	t.Run("listing not found", func(t *testing.T) {
		st := newStore(t)
		if _, err := st.GetListing(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("get err=%v want=ErrNotFound", err)
		}
		if err := st.DeleteListing(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("delete err=%v want=ErrNotFound", err)
		}
	})

	t.Run("listing filters sort and page", func(t *testing.T) {
		st := newStore(t)
		if _, err := st.UpsertMany(ctx, sampleSeed()); err != nil {
			t.Fatalf("seed: %v", err)
		}

		items, total, err := st.ListListings(ctx, ListingFilter{City: "istan", Sort: SortPriceAsc})
		if err != nil {
			t.Fatalf("ListListings: %v", err)
		}
		if total != 2 || len(items) != 2 || items[0].ID != "p-3" || items[1].ID != "p-1" {
			t.Fatalf("city filter: total=%d items=%v", total, ids(items))
		}

		items, total, err = st.ListListings(ctx, ListingFilter{Status: domain.ListingActive, Sort: SortPriceDesc, Limit: 1, Offset: 1})
		if err != nil {
			t.Fatalf("ListListings: %v", err)
		}
		if total != 2 || len(items) != 1 || items[0].ID != "p-1" {
			t.Fatalf("page: total=%d items=%v", total, ids(items))
		}

		items, _, err = st.ListListings(ctx, ListingFilter{MinPrice: 3_000_000, MaxPrice: 6_000_000, PropertyType: "apartment"})
		if err != nil {
			t.Fatalf("ListListings: %v", err)
		}
		if len(items) != 1 || items[0].ID != "p-1" || !items[0].Elevator || !items[0].Balcony || items[0].Parking {
			t.Fatalf("price filter: %+v", items)
		}
	})

	t.Run("lead roundtrip and filters", func(t *testing.T) {
		st := newStore(t)
		if _, err := st.UpsertMany(ctx, sampleSeed()); err != nil {
			t.Fatalf("seed: %v", err)
		}

		l, err := st.GetLead(ctx, "c-1")
		if err != nil {
			t.Fatalf("GetLead: %v", err)
		}
		if len(l.PreferredRegions) != 2 || l.PreferredRegions[1] != "Moda" || l.PreferredRoomCounts[0] != "3+1" {
			t.Fatalf("preferences lost: %+v", l)
		}

		items, total, err := st.ListLeads(ctx, LeadFilter{Region: "urla"})
		if err != nil {
			t.Fatalf("ListLeads: %v", err)
		}
		if total != 1 || items[0].ID != "c-2" {
			t.Fatalf("region filter: total=%d items=%+v", total, items)
		}

		items, _, err = st.ListLeads(ctx, LeadFilter{Status: domain.LeadNew, Kind: domain.LeadBuyer})
		if err != nil {
			t.Fatalf("ListLeads: %v", err)
		}
		if len(items) != 1 || items[0].ID != "c-1" {
			t.Fatalf("status filter: %+v", items)
		}

		created, err := st.CreateLead(ctx, domain.Lead{Name: "Zeynep"})
		if err != nil {
			t.Fatalf("CreateLead: %v", err)
		}
		if created.ID == "" || created.Status != domain.LeadNew {
			t.Fatalf("lead defaults not applied: %+v", created)
		}
		if _, err := st.CreateLead(ctx, created); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("duplicate lead err=%v", err)
		}

		if err := st.DeleteLead(ctx, "c-1"); err != nil {
			t.Fatalf("DeleteLead: %v", err)
		}
		if _, err := st.GetLead(ctx, "c-1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("after delete err=%v want=ErrNotFound", err)
		}
	})

	t.Run("text filters fold unicode and match wildcards literally", func(t *testing.T) {
		st := newStore(t)
		if _, err := st.UpsertMany(ctx, sampleSeed()); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if _, err := st.CreateListing(ctx, domain.Listing{ID: "p-usk", Title: "Bosphorus flat", Price: 7_000_000, City: "İstanbul", District: "Üsküdar"}); err != nil {
			t.Fatalf("CreateListing: %v", err)
		}
		if _, err := st.CreateLead(ctx, domain.Lead{ID: "c-usk", Name: "Elif", PreferredRegions: []string{"ÜSKÜDAR"}}); err != nil {
			t.Fatalf("CreateLead: %v", err)
		}

		items, total, err := st.ListListings(ctx, ListingFilter{District: "üsküdar"})
		if err != nil {
			t.Fatalf("ListListings: %v", err)
		}
		if total != 1 || len(items) != 1 || items[0].ID != "p-usk" {
			t.Fatalf("district filter: total=%d items=%v", total, ids(items))
		}

		leads, total, err := st.ListLeads(ctx, LeadFilter{Region: "Üsküdar"})
		if err != nil {
			t.Fatalf("ListLeads: %v", err)
		}
		if total != 1 || len(leads) != 1 || leads[0].ID != "c-usk" {
			t.Fatalf("region filter: total=%d leads=%+v", total, leads)
		}

		for _, f := range []ListingFilter{{City: "%"}, {District: "_"}, {City: "ist%bul"}} {
			items, total, err := st.ListListings(ctx, f)
			if err != nil {
				t.Fatalf("ListListings(%+v): %v", f, err)
			}
			if total != 0 || len(items) != 0 {
				t.Fatalf("filter %+v matched %v", f, ids(items))
			}
		}
	})
}

func ids(items []domain.Listing) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		st, err := Open(context.Background(), config.StorageConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "nested", "crm.db"),
		})
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), config.StorageConfig{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestMemoryStore_LeadsAreCopied(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewMemoryStore()
	regions := []string{"Moda"}
	if _, err := st.CreateLead(ctx, domain.Lead{ID: "c-1", PreferredRegions: regions}); err != nil {
		t.Fatalf("CreateLead: %v", err)
	}
	regions[0] = "changed"

	got, err := st.GetLead(ctx, "c-1")
	if err != nil {
		t.Fatalf("GetLead: %v", err)
	}
	got.PreferredRegions[0] = "also changed"

	again, _ := st.GetLead(ctx, "c-1")
	if again.PreferredRegions[0] != "Moda" {
		t.Fatalf("stored lead was mutated: %v", again.PreferredRegions)
	}
}
