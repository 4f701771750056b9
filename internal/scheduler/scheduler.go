// Package scheduler runs periodic listing imports and applicant reviews.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/roomivo/internal/logging"
	"github.com/elonfeng/roomivo/internal/store"
	"github.com/elonfeng/roomivo/pkg/alert"
	"github.com/elonfeng/roomivo/pkg/listing"
	"github.com/elonfeng/roomivo/pkg/rank"
	"github.com/elonfeng/roomivo/pkg/rental"
)

// sourceTimeout bounds a single source's Collect call.
const sourceTimeout = 5 * time.Minute

// ImportReport summarises one import pass.
type ImportReport struct {
	PerSource map[rental.SourceType]int `json:"per_source"`
	Total     int                       `json:"total"`
	Failed    []string                  `json:"failed,omitempty"`
}

// Scheduler runs periodic listing import and applicant review.
type Scheduler struct {
	store     store.Store
	sources   []listing.Source
	filter    *listing.Filter
	ranker    *rank.Ranker
	alertMgr  *alert.Manager
	importInt time.Duration
	reviewInt time.Duration
	minRisk   int
	baseURL   string
	logger    *zap.Logger

	importMu sync.Mutex
}

// Config holds the scheduler's tunables.
type Config struct {
	ImportInterval time.Duration
	ReviewInterval time.Duration
	MinRiskScore   int
	// BaseURL, when set, is used to link alerts to the application.
	BaseURL string
}

// New creates a new scheduler.
func New(
	s store.Store,
	sources []listing.Source,
	filter *listing.Filter,
	ranker *rank.Ranker,
	alertMgr *alert.Manager,
	cfg Config,
	logger *zap.Logger,
) *Scheduler {
	if cfg.ImportInterval == 0 {
		cfg.ImportInterval = time.Hour
	}
	if cfg.ReviewInterval == 0 {
		cfg.ReviewInterval = 10 * time.Minute
	}
	if cfg.MinRiskScore == 0 {
		cfg.MinRiskScore = 80
	}
	logger = logging.OrNop(logger)
	if ranker == nil {
		ranker = rank.New(s, rank.WithLogger(logger))
	}
	return &Scheduler{
		store:     s,
		sources:   sources,
		filter:    filter,
		ranker:    ranker,
		alertMgr:  alertMgr,
		importInt: cfg.ImportInterval,
		reviewInt: cfg.ReviewInterval,
		minRisk:   cfg.MinRiskScore,
		baseURL:   cfg.BaseURL,
		logger:    logger.Named("scheduler"),
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	importTicker := time.NewTicker(s.importInt)
	reviewTicker := time.NewTicker(s.reviewInt)
	defer importTicker.Stop()
	defer reviewTicker.Stop()

	s.runImport(ctx)
	s.runReview(ctx)

	s.logger.Info("running",
		zap.Duration("import_every", s.importInt),
		zap.Duration("review_every", s.reviewInt))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopped")
			return ctx.Err()
		case <-importTicker.C:
			s.runImport(ctx)
		case <-reviewTicker.C:
			s.runReview(ctx)
		}
	}
}

func (s *Scheduler) runImport(ctx context.Context) {
	rep, err := s.Import(ctx)
	if err != nil {
		s.logger.Error("import failed", zap.Error(err))
		return
	}
	s.logger.Info("import done", zap.Int("total", rep.Total), zap.Strings("failed", rep.Failed))
}

func (s *Scheduler) runReview(ctx context.Context) {
	n, err := s.Review(ctx)
	if err != nil {
		s.logger.Error("review failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("review done", zap.Int("alerted", n))
	}
}

// Import collects from every source concurrently and upserts the results.
// A failing source is reported and skipped; the others still land.
func (s *Scheduler) Import(ctx context.Context) (*ImportReport, error) {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	collected := make([][]rental.Property, len(s.sources))
	failed := make([]error, len(s.sources))

	var g errgroup.Group
	for i, src := range s.sources {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, sourceTimeout)
			defer cancel()

			props, err := src.Collect(sctx)
			if err != nil {
				failed[i] = err
				return nil
			}
			collected[i] = listing.Prepare(props, s.filter)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &ImportReport{PerSource: make(map[rental.SourceType]int)}
	for i, src := range s.sources {
		if failed[i] != nil {
			s.logger.Warn("source failed", zap.String("source", string(src.Name())), zap.Error(failed[i]))
			rep.Failed = append(rep.Failed, string(src.Name()))
			continue
		}
		if err := s.store.UpsertProperties(ctx, collected[i]); err != nil {
			return rep, fmt.Errorf("store %s listings: %w", src.Name(), err)
		}
		rep.PerSource[src.Name()] += len(collected[i])
		rep.Total += len(collected[i])
		s.logger.Debug("source imported", zap.String("source", string(src.Name())), zap.Int("count", len(collected[i])))
	}

	if rep.Total > 0 && s.ranker != nil {
		s.ranker.InvalidateCatalogue(ctx)
	}
	return rep, nil
}

// Review alerts on pending applications whose risk score reaches the
// threshold, marking each one so it is only sent once. It returns how
// many were alerted.
func (s *Scheduler) Review(ctx context.Context) (int, error) {
	if !s.alertMgr.HasNotifiers() {
		return 0, nil
	}

	rows, err := s.store.ListApplicants(ctx, store.ApplicantListOpts{
		Status:    rental.StatusPending,
		Unalerted: true,
	})
	if err != nil {
		return 0, fmt.Errorf("list pending applicants: %w", err)
	}

	alerted := 0
	for _, a := range s.ranker.ScoreApplicants(rows) {
		if a.Score < s.minRisk {
			continue
		}

		n := &alert.Notification{
			Title:         "Strong applicant for " + a.PropertyName,
			Body:          describe(a),
			Score:         a.Score,
			ApplicationID: a.Application.ID,
			PropertyName:  a.PropertyName,
			TenantName:    a.TenantName,
		}
		if s.baseURL != "" {
			n.URL = s.baseURL + "/api/v1/applications/" + a.Application.ID
		}

		if err := s.alertMgr.Broadcast(ctx, n); err != nil {
			s.logger.Warn("alert failed", zap.String("application", a.Application.ID), zap.Error(err))
			continue
		}
		if err := s.store.MarkAlerted(ctx, a.Application.ID); err != nil {
			return alerted, err
		}
		alerted++
		s.logger.Info("alerted",
			zap.String("application", a.Application.ID),
			zap.String("tenant", a.TenantName),
			zap.Int("score", a.Score))
	}
	return alerted, nil
}

func describe(a rank.Applicant) string {
	if a.Income > 0 && a.Rent > 0 {
		return fmt.Sprintf("Rent %.0f is %.0f%% of declared income %.0f.", a.Rent, 100*a.Rent/a.Income, a.Income)
	}
	return "Income not declared."
}
