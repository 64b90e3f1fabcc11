package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
)

// sqliteDriver is go-sqlite3 with lower() replaced by strings.ToLower, so
// filters fold non-ASCII names like "Üsküdar" the same way MemoryStore does.
const sqliteDriver = "sqlite3_unicode"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
}

type SQLiteStore struct {
	db *sql.DB
	q  queries
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open(sqliteDriver, path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, q: newQueries(sq.Question)}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

var sqliteSchema = []string{ //nolint:gochecknoglobals
	`CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price REAL NOT NULL,
  status TEXT NOT NULL,
  city TEXT NOT NULL DEFAULT '',
  district TEXT NOT NULL DEFAULT '',
  property_type TEXT NOT NULL DEFAULT '',
  room_count TEXT NOT NULL DEFAULT '',
  elevator BOOLEAN NOT NULL DEFAULT 0,
  parking BOOLEAN NOT NULL DEFAULT 0,
  balcony BOOLEAN NOT NULL DEFAULT 0,
  in_complex BOOLEAN NOT NULL DEFAULT 0,
  furnished BOOLEAN NOT NULL DEFAULT 0,
  credit_eligible BOOLEAN NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
	`CREATE TABLE IF NOT EXISTS leads (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  kind TEXT NOT NULL DEFAULT '',
  budget_min REAL NOT NULL DEFAULT 0,
  budget_max REAL NOT NULL DEFAULT 0,
  preferred_regions_json TEXT NOT NULL DEFAULT '[]',
  preferred_property_types_json TEXT NOT NULL DEFAULT '[]',
  preferred_room_counts_json TEXT NOT NULL DEFAULT '[]',
  notes TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status)`,
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) ListListings(ctx context.Context, f ListingFilter) ([]domain.Listing, int, error) {
	var total int
	if err := s.q.countListings(f).RunWith(s.db).QueryRowContext(ctx).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	query, args, err := s.q.selectListings(f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	out := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (s *SQLiteStore) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	query, args, err := s.q.getListing(id).ToSql()
	if err != nil {
		return domain.Listing{}, err
	}
	l, err := scanListing(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Listing{}, ErrNotFound
	}
	if err != nil {
		return domain.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (s *SQLiteStore) CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	l = prepareListing(l)
	if _, err := s.q.insertListing(l).RunWith(s.db).ExecContext(ctx); err != nil {
		return domain.Listing{}, mapSQLiteError(err)
	}
	return l, nil
}

func (s *SQLiteStore) DeleteListing(ctx context.Context, id string) error {
	res, err := s.q.deleteListing(id).RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, f LeadFilter) ([]domain.Lead, int, error) {
	var total int
	if err := s.q.countLeads(f).RunWith(s.db).QueryRowContext(ctx).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query, args, err := s.q.selectLeads(f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	out := []domain.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	query, args, err := s.q.getLead(id).ToSql()
	if err != nil {
		return domain.Lead{}, err
	}
	l, err := scanLead(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

func (s *SQLiteStore) CreateLead(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	l = prepareLead(l)
	b, err := s.q.insertLead(l)
	if err != nil {
		return domain.Lead{}, err
	}
	if _, err := b.RunWith(s.db).ExecContext(ctx); err != nil {
		return domain.Lead{}, mapSQLiteError(err)
	}
	return l, nil
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, id string) error {
	res, err := s.q.deleteLead(id).RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertMany inserts the seed in one transaction without duplicating by id.
func (s *SQLiteStore) UpsertMany(ctx context.Context, seed Seed) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	exec := func(b sq.InsertBuilder) error {
		res, err := b.RunWith(tx).ExecContext(ctx)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
		return nil
	}

	for _, l := range seed.Listings {
		if err := exec(s.q.insertListingIfAbsent(prepareListing(l))); err != nil {
			return 0, fmt.Errorf("seed listing %q: %w", l.ID, err)
		}
	}
	for _, l := range seed.Leads {
		b, err := s.q.insertLeadIfAbsent(prepareLead(l))
		if err != nil {
			return 0, err
		}
		if err := exec(b); err != nil {
			return 0, fmt.Errorf("seed lead %q: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func mapSQLiteError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
		return ErrAlreadyExists
	}
	return err
}
