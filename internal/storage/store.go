package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/config"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// ListingFilter narrows ListListings. Zero values mean "no condition".
// City and District match case-insensitively by substring.
// Limit <= 0 returns every matching row; Offset is only applied with a Limit.
type ListingFilter struct {
	Status       domain.ListingStatus
	City         string
	District     string
	PropertyType string
	MinPrice     float64
	MaxPrice     float64
	Sort         string
	Limit        int
	Offset       int
}

// LeadFilter narrows ListLeads. Region matches any preferred region by substring.
type LeadFilter struct {
	Status domain.LeadStatus
	Kind   domain.LeadKind
	Region string
	Limit  int
	Offset int
}

// Seed is the shape of an import file.
type Seed struct {
	Listings []domain.Listing `json:"listings" yaml:"listings"`
	Leads    []domain.Lead    `json:"leads" yaml:"leads"`
}

// Store supplies leads and listings to the matching engine.
type Store interface {
	ListListings(ctx context.Context, f ListingFilter) ([]domain.Listing, int, error)
	GetListing(ctx context.Context, id string) (domain.Listing, error)
	CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error)
	DeleteListing(ctx context.Context, id string) error

	ListLeads(ctx context.Context, f LeadFilter) ([]domain.Lead, int, error)
	GetLead(ctx context.Context, id string) (domain.Lead, error)
	CreateLead(ctx context.Context, l domain.Lead) (domain.Lead, error)
	DeleteLead(ctx context.Context, id string) error

	// UpsertMany inserts seed records, skipping ids that already exist.
	// It returns the number of rows actually inserted.
	UpsertMany(ctx context.Context, seed Seed) (int, error)
	Close() error
}

// Open picks the Store implementation named by cfg.Driver and prepares its schema.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil

	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		st, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := st.EnsureSchema(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("sqlite schema: %w", err)
		}
		return st, nil

	case config.DriverPostgres:
		st, err := OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := st.EnsureSchema(ctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// prepareListing fills in the id and default status of a new listing.
func prepareListing(l domain.Listing) domain.Listing {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = domain.ListingActive
	}
	return l
}

func prepareLead(l domain.Lead) domain.Lead {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = domain.LeadNew
	}
	return l
}
