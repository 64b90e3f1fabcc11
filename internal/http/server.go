package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/denisok6893-rgb/crm-lead-matching/internal/logging"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/matching"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/notify"
	"github.com/denisok6893-rgb/crm-lead-matching/internal/storage"
)

const (
	defaultPageLimit = 20
	maxLimit         = 200
)

type Options struct {
	// DefaultLimit is used by ranking endpoints when the caller sends no positive limit.
	DefaultLimit int
	CORSOrigins  []string
}

type Server struct {
	engine   *matching.Engine
	store    storage.Store
	notifier *notify.Notifier
	logger   *slog.Logger
	opts     Options
}

func NewServer(engine *matching.Engine, store storage.Store, notifier *notify.Notifier, logger *slog.Logger, opts Options) *Server {
	if engine == nil {
		engine = matching.NewEngine()
	}
	if notifier == nil {
		notifier = notify.NewNotifier(notify.NoopPublisher{}, notify.Thresholds{MinScore: 100})
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = defaultPageLimit
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{engine: engine, store: store, notifier: notifier, logger: logger, opts: opts}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID, middleware.RealIP, LoggerMiddleware(s.logger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", traceHeader},
		ExposedHeaders: []string{traceHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/listings", func(r chi.Router) {
			r.Get("/", s.handleListingsList)
			r.Post("/", s.handleListingsCreate)
			r.Get("/{id}", s.handleListingGet)
			r.Delete("/{id}", s.handleListingDelete)
			r.Get("/{id}/leads", s.handleListingLeads)
		})
		r.Route("/leads", func(r chi.Router) {
			r.Get("/", s.handleLeadsList)
			r.Post("/", s.handleLeadsCreate)
			r.Get("/{id}", s.handleLeadGet)
			r.Delete("/{id}", s.handleLeadDelete)
			r.Get("/{id}/listings", s.handleLeadListings)
		})
		r.Get("/score", s.handleScore)
		r.Post("/match", s.handleMatch)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListResponse is the envelope of paginated list endpoints.
type ListResponse[T any] struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
	Items  []T `json:"items"`
}

func parseLimitOffset(r *http.Request, defLimit, defOffset int) (int, int) {
	q := r.URL.Query()

	limit := defLimit
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := defOffset
	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = defOffset
	}

	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeStoreError maps storage sentinels to HTTP statuses and hides everything else behind a 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, storage.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists")
	default:
		logging.FromContext(r.Context()).Error("storage call failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
