package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadSeedFile_YAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "seed.yaml", `
listings:
  - id: p-1
    title: Sea view flat
    price: 5000000
    status: active
    city: Istanbul
    district: Kadikoy
    property_type: apartment
    room_count: "3+1"
    elevator: true
    in_complex: true
leads:
  - id: c-1
    name: Ayse
    status: new
    budget_min: 4000000
    budget_max: 6000000
    preferred_regions: [Kadikoy]
    preferred_room_counts: ["3+1", "2+1"]
`)

	seed, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if len(seed.Listings) != 1 || len(seed.Leads) != 1 {
		t.Fatalf("seed=%+v", seed)
	}
	l := seed.Listings[0]
	if l.RoomCount != "3+1" || !l.Elevator || !l.InComplex || l.PropertyType != "apartment" || l.Status != domain.ListingActive {
		t.Fatalf("listing=%+v", l)
	}
	if seed.Leads[0].BudgetMax != 6_000_000 || len(seed.Leads[0].PreferredRoomCounts) != 2 {
		t.Fatalf("lead=%+v", seed.Leads[0])
	}
}

func TestLoadSeedFile_JSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "seed.JSON", `{"listings":[{"id":"p-1","price":100,"credit_eligible":true}],"leads":[]}`)
	seed, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if len(seed.Listings) != 1 || !seed.Listings[0].CreditEligible {
		t.Fatalf("seed=%+v", seed)
	}
}

func TestLoadSeedFile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.json") }},
		{"bad json", func(t *testing.T) string { return writeFile(t, "bad.json", `{"listings": [`) }},
		{"bad yaml", func(t *testing.T) string { return writeFile(t, "bad.yml", "listings: [\n  - id: x\n  bad") }},
		{"unknown extension", func(t *testing.T) string { return writeFile(t, "seed.csv", "id,title") }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadSeedFile(tt.path(t)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
