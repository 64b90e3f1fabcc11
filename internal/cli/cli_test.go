package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	httpapi "github.com/denisok6893-rgb/crm-lead-matching/internal/http"
)

const seedYAML = `
listings:
  - id: p-best
    title: Kadikoy flat
    price: 5000000
    status: active
    city: Istanbul
    district: Kadikoy
    property_type: apartment
    room_count: "3+1"
    elevator: true
    parking: true
    balcony: true
    in_complex: true
  - id: p-far
    title: Izmir villa
    price: 12000000
    status: active
    city: Izmir
    district: Urla
    property_type: villa
    room_count: "5+2"
  - id: p-sold
    title: Sold flat
    price: 5000000
    status: sold
    city: Istanbul
    district: Kadikoy
leads:
  - id: c-1
    name: Ayse
    status: new
    budget_min: 4000000
    budget_max: 6000000
    preferred_regions: [Kadikoy]
    preferred_property_types: [apartment]
    preferred_room_counts: ["3+1"]
  - id: c-closed
    name: Mehmet
    status: converted
    budget_min: 4000000
    budget_max: 6000000
    preferred_regions: [Kadikoy]
`

// setupEnv points the CLI at a seeded in-memory store.
func setupEnv(t *testing.T) (seedPath string) {
	t.Helper()

	dir := t.TempDir()
	seedPath = filepath.Join(dir, "seed.yaml")
	if err := os.WriteFile(seedPath, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SEED_PATH", seedPath)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("FLUENTBIT_ENABLED", "false")
	t.Setenv("MATCH_DEFAULT_LIMIT", "20")
	return seedPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRankListings(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "rank", "listings", "--lead", "c-1", "--limit", "1")
	if err != nil {
		t.Fatalf("rank listings: %v", err)
	}

	var got httpapi.RankedListingsResponse
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, out)
	}
	if got.LeadID != "c-1" || got.Total != 2 || len(got.Results) != 1 {
		t.Fatalf("lead_id=%q total=%d results=%d", got.LeadID, got.Total, len(got.Results))
	}
	if got.Results[0].Listing.ID != "p-best" || got.Results[0].Label != "excellent" {
		t.Fatalf("top=%+v", got.Results[0])
	}
}

func TestRankLeads(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "rank", "leads", "--listing", "p-best", "--limit", "0")
	if err != nil {
		t.Fatalf("rank leads: %v", err)
	}

	var got httpapi.RankedLeadsResponse
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, out)
	}
	if got.Total != 1 || got.Results[0].Lead.ID != "c-1" {
		t.Fatalf("converted lead must be skipped: %+v", got)
	}
}

func TestScore(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "score", "--lead", "c-1", "--listing", "p-far")
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	var got httpapi.ScoreResponse
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, out)
	}
	if got.LeadID != "c-1" || got.Listing.ID != "p-far" {
		t.Fatalf("ids=%q/%q", got.LeadID, got.Listing.ID)
	}
	if got.MatchScore >= 20 || got.Label != "weak" || got.Color != "red" {
		t.Fatalf("score=%d label=%q color=%q", got.MatchScore, got.Label, got.Color)
	}
}

func TestScore_UnknownLead(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "score", "--lead", "nope", "--listing", "p-far")
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("err=%v want it to name the missing lead", err)
	}
}

func TestImport_SQLiteIsIdempotent(t *testing.T) {
	seedPath := setupEnv(t)
	t.Setenv("SEED_PATH", "")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "crm.db"))

	out, err := runCLI(t, "import", "--file", seedPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.HasPrefix(out, "imported 5 records") {
		t.Fatalf("first import output=%q", out)
	}

	out, err = runCLI(t, "import", "--file", seedPath)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if !strings.HasPrefix(out, "imported 0 records") {
		t.Fatalf("second import output=%q", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("STORAGE_DRIVER", "mysql")

	if _, err := runCLI(t, "rank", "listings", "--lead", "c-1"); err == nil {
		t.Fatal("expected configuration error")
	}
}
