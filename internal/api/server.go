// Package api serves lookups and lookup history over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/owner-resolver/internal/lookup"
	"github.com/sells-group/owner-resolver/internal/model"
	"github.com/sells-group/owner-resolver/internal/store"
)

// Lookuper runs a property lookup.
type Lookuper interface {
	Lookup(ctx context.Context, bbl model.BBL, opts lookup.Options) (*model.Report, error)
}

// Server wires the HTTP routes to a Lookuper and an optional history store.
type Server struct {
	lookup   Lookuper
	store    store.Store
	save     bool
	gatherer prometheus.Gatherer
	origins  []string
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables the history endpoints. When save is set, every
// successful lookup is also recorded.
func WithStore(s store.Store, save bool) Option {
	return func(srv *Server) {
		srv.store = s
		srv.save = save
	}
}

// WithGatherer serves g at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(srv *Server) { srv.gatherer = g }
}

// WithAllowedOrigins sets the CORS allow list.
func WithAllowedOrigins(origins []string) Option {
	return func(srv *Server) { srv.origins = origins }
}

// New creates a Server.
func New(l Lookuper, opts ...Option) *Server {
	s := &Server{lookup: l, origins: []string{"*"}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/lookups/{bbl}", s.handleLookup)
		r.Get("/lookups/{bbl}/history", s.handleHistory)
		r.Get("/reports/{id}", s.handleReport)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLookup handles GET /v1/lookups/{bbl}. Pass ?enrich=false to skip
// third-party backfill.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	bbl, err := model.ParseBBL(chi.URLParam(r, "bbl"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := lookup.Options{SkipEnrichment: r.URL.Query().Get("enrich") == "false"}
	report, err := s.lookup.Lookup(r.Context(), bbl, opts)
	if errors.Is(err, lookup.ErrNoData) {
		writeError(w, http.StatusServiceUnavailable, "no upstream feed responded; retry later")
		return
	}
	if err != nil {
		zap.L().Error("api: lookup failed", zap.String("bbl", bbl.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	if s.store != nil && s.save {
		if err := s.store.SaveLookup(r.Context(), report); err != nil {
			zap.L().Warn("api: save lookup failed", zap.String("id", report.ID), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, report)
}

// handleHistory handles GET /v1/lookups/{bbl}/history?limit=N.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "lookup history is not configured")
		return
	}
	bbl, err := model.ParseBBL(chi.URLParam(r, "bbl"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.LookupFilter{BBL: bbl.String()}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	records, err := s.store.ListLookups(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list lookups failed", zap.String("bbl", bbl.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if records == nil {
		records = []store.LookupRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleReport handles GET /v1/reports/{id}.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "lookup history is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	report, err := s.store.GetLookup(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		zap.L().Error("api: get lookup failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
