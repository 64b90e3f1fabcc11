package storage

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/domain"
)

const pgUniqueViolation = "23505"

type PostgresStore struct {
	pool *pgxpool.Pool
	q    queries
}

// OpenPostgres creates a connection pool and pings the server.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(pool), nil
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, q: newQueries(sq.Dollar)}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var postgresSchema = []string{ //nolint:gochecknoglobals
	`CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price DOUBLE PRECISION NOT NULL,
  status TEXT NOT NULL,
  city TEXT NOT NULL DEFAULT '',
  district TEXT NOT NULL DEFAULT '',
  property_type TEXT NOT NULL DEFAULT '',
  room_count TEXT NOT NULL DEFAULT '',
  elevator BOOLEAN NOT NULL DEFAULT FALSE,
  parking BOOLEAN NOT NULL DEFAULT FALSE,
  balcony BOOLEAN NOT NULL DEFAULT FALSE,
  in_complex BOOLEAN NOT NULL DEFAULT FALSE,
  furnished BOOLEAN NOT NULL DEFAULT FALSE,
  credit_eligible BOOLEAN NOT NULL DEFAULT FALSE
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
  budget_min DOUBLE PRECISION NOT NULL DEFAULT 0,
  budget_max DOUBLE PRECISION NOT NULL DEFAULT 0,
  preferred_regions_json TEXT NOT NULL DEFAULT '[]',
  preferred_property_types_json TEXT NOT NULL DEFAULT '[]',
  preferred_room_counts_json TEXT NOT NULL DEFAULT '[]',
  notes TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status)`,
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) ListListings(ctx context.Context, f ListingFilter) ([]domain.Listing, int, error) {
	total, err := s.count(ctx, s.q.countListings(f))
	if err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	query, args, err := s.q.selectListings(f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate listings: %w", err)
	}
	return out, total, nil
}

func (s *PostgresStore) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	query, args, err := s.q.getListing(id).ToSql()
	if err != nil {
		return domain.Listing{}, err
	}
	l, err := scanListing(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Listing{}, ErrNotFound
	}
	if err != nil {
		return domain.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) CreateListing(ctx context.Context, l domain.Listing) (domain.Listing, error) {
	l = prepareListing(l)
	if _, err := s.exec(ctx, s.pool, s.q.insertListing(l)); err != nil {
		return domain.Listing{}, mapPgError(err)
	}
	return l, nil
}

func (s *PostgresStore) DeleteListing(ctx context.Context, id string) error {
	n, err := s.exec(ctx, s.pool, s.q.deleteListing(id))
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, f LeadFilter) ([]domain.Lead, int, error) {
	total, err := s.count(ctx, s.q.countLeads(f))
	if err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	query, args, err := s.q.selectLeads(f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
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
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate leads: %w", err)
	}
	return out, total, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	query, args, err := s.q.getLead(id).ToSql()
	if err != nil {
		return domain.Lead{}, err
	}
	l, err := scanLead(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	l = prepareLead(l)
	b, err := s.q.insertLead(l)
	if err != nil {
		return domain.Lead{}, err
	}
	if _, err := s.exec(ctx, s.pool, b); err != nil {
		return domain.Lead{}, mapPgError(err)
	}
	return l, nil
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id string) error {
	n, err := s.exec(ctx, s.pool, s.q.deleteLead(id))
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpsertMany(ctx context.Context, seed Seed) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted := 0
	for _, l := range seed.Listings {
		n, err := s.exec(ctx, tx, s.q.insertListingIfAbsent(prepareListing(l)))
		if err != nil {
			return 0, fmt.Errorf("seed listing %q: %w", l.ID, err)
		}
		inserted += int(n)
	}
	for _, l := range seed.Leads {
		b, err := s.q.insertLeadIfAbsent(prepareLead(l))
		if err != nil {
			return 0, err
		}
		n, err := s.exec(ctx, tx, b)
		if err != nil {
			return 0, fmt.Errorf("seed lead %q: %w", l.ID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

type pgExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (s *PostgresStore) exec(ctx context.Context, db pgExecer, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) count(ctx context.Context, b sq.SelectBuilder) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrAlreadyExists
	}
	return err
}
