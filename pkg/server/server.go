// Package server exposes the marketplace over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/elonfeng/roomivo/internal/logging"
	"github.com/elonfeng/roomivo/internal/scheduler"
	"github.com/elonfeng/roomivo/internal/store"
	"github.com/elonfeng/roomivo/pkg/rank"
	"github.com/elonfeng/roomivo/pkg/rental"
	"github.com/elonfeng/roomivo/pkg/score"
)

// Importer runs one listing import pass.
type Importer interface {
	Import(ctx context.Context) (*scheduler.ImportReport, error)
}

// Config holds the server's tunables.
type Config struct {
	Port          int
	RateLimit     float64
	Burst         int
	DefaultLimit  int
	MinMatchScore int
}

// Server provides the HTTP API.
type Server struct {
	store    store.Store
	ranker   *rank.Ranker
	importer Importer
	scorer   score.Scorer
	cfg      Config
	logger   *zap.Logger
	limiter  *clientLimiter
	now      func() time.Time
}

// New creates a new HTTP server. importer may be nil, which disables /api/v1/collect.
func New(s store.Store, ranker *rank.Ranker, importer Importer, cfg Config, logger *zap.Logger) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = 20
	}
	logger = logging.OrNop(logger)
	if ranker == nil {
		ranker = rank.New(s, rank.WithLogger(logger))
	}
	return &Server{
		store:    s,
		ranker:   ranker,
		importer: importer,
		scorer:   score.Default,
		cfg:      cfg,
		logger:   logger.Named("server"),
		limiter:  newClientLimiter(cfg.RateLimit, cfg.Burst),
		now:      time.Now,
	}
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/v1/properties", s.handleListProperties)
	mux.HandleFunc("POST /api/v1/properties", s.handleCreateProperty)
	mux.HandleFunc("GET /api/v1/properties/{id}", s.handleGetProperty)
	mux.HandleFunc("DELETE /api/v1/properties/{id}", s.handleDeleteProperty)

	mux.HandleFunc("GET /api/v1/profiles/{id}", s.handleGetProfile)
	mux.HandleFunc("PUT /api/v1/profiles/{id}", s.handlePutProfile)

	mux.HandleFunc("GET /api/v1/tenants/{id}/matches", s.handleTenantMatches)
	mux.HandleFunc("GET /api/v1/matches", s.handleAnonymousMatches)

	mux.HandleFunc("POST /api/v1/applications", s.handleCreateApplication)
	mux.HandleFunc("GET /api/v1/applications/{id}", s.handleGetApplication)
	mux.HandleFunc("PATCH /api/v1/applications/{id}", s.handleUpdateApplication)
	mux.HandleFunc("GET /api/v1/landlords/{id}/applicants", s.handleApplicants)

	mux.HandleFunc("POST /api/v1/score/match", s.handleScoreMatch)
	mux.HandleFunc("POST /api/v1/score/risk", s.handleScoreRisk)

	mux.HandleFunc("POST /api/v1/collect", s.handleCollect)

	return s.logRequests(s.rateLimit(mux))
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no listing sources configured"))
		return
	}
	rep, err := s.importer.Import(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// storeError maps store sentinels to status codes.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, store.ErrConflict), errors.Is(err, rental.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err)
	default:
		s.internalError(w, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// queryFloat parses a non-negative float query parameter; missing means 0.
func queryFloat(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", key)
	}
	return v, nil
}

// queryInt parses a non-negative int query parameter; missing means def.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
