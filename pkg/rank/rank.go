// Package rank turns stored properties and applications into scored,
// sorted views for tenants and landlords.
package rank

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/roomivo/internal/cache"
	"github.com/elonfeng/roomivo/internal/store"
	"github.com/elonfeng/roomivo/pkg/rental"
	"github.com/elonfeng/roomivo/pkg/score"
)

// CatalogueKey is the cache key of the property catalogue snapshot.
const CatalogueKey = "roomivo:catalogue"

// catalogueLimit bounds the snapshot the ranker scores against.
const catalogueLimit = 5000

// Store is the subset of store.Store the ranker reads.
type Store interface {
	ListProperties(ctx context.Context, opts store.PropertyListOpts) ([]rental.Property, error)
	GetProfile(ctx context.Context, id string) (*rental.TenantProfile, error)
	ListApplicants(ctx context.Context, opts store.ApplicantListOpts) ([]store.ApplicantRow, error)
}

// Options narrows and trims a match list.
type Options struct {
	Location string
	MinPrice float64
	MaxPrice float64
	MinScore int
	Limit    int
}

// PropertyMatch is a property with the viewer's match score.
type PropertyMatch struct {
	Property  rental.Property       `json:"property"`
	Score     int                   `json:"score"`
	Breakdown *score.MatchBreakdown `json:"breakdown,omitempty"`
}

// Applicant is an application as the landlord sees it.
type Applicant struct {
	Application  rental.Application   `json:"application"`
	TenantName   string               `json:"tenant_name"`
	Profession   string               `json:"profession,omitempty"`
	Income       float64              `json:"income,omitempty"`
	PropertyName string               `json:"property_name"`
	Rent         float64              `json:"rent"`
	Score        int                  `json:"score"`
	Breakdown    *score.RiskBreakdown `json:"breakdown,omitempty"`
}

// Ranker scores and sorts. Scores are computed on every call and never stored.
type Ranker struct {
	store   Store
	cache   cache.Cache
	scorer  score.Scorer
	workers int
	ttl     time.Duration
	logger  *zap.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithCache caches the property catalogue for ttl.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(r *Ranker) {
		r.cache = c
		r.ttl = ttl
	}
}

// WithScorer replaces score.Default.
func WithScorer(s score.Scorer) Option {
	return func(r *Ranker) { r.scorer = s }
}

// WithWorkers bounds concurrent scoring.
func WithWorkers(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Ranker over s.
func New(s Store, opts ...Option) *Ranker {
	r := &Ranker{
		store:   s,
		scorer:  score.Default,
		workers: 8,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	r.logger = r.logger.Named("rank")
	return r
}

// MatchesForTenant ranks the catalogue for tenantID. An unknown tenant is
// ranked as an anonymous visitor.
func (r *Ranker) MatchesForTenant(ctx context.Context, tenantID string, opts Options) ([]PropertyMatch, error) {
	tenant, err := r.store.GetProfile(ctx, tenantID)
	if errors.Is(err, store.ErrNotFound) {
		r.logger.Debug("unknown tenant, ranking anonymously", zap.String("tenant", tenantID))
		tenant = nil
	} else if err != nil {
		return nil, fmt.Errorf("load tenant %s: %w", tenantID, err)
	}
	return r.Matches(ctx, tenant, opts)
}

// AnonymousMatches ranks the catalogue with no profile; every score is the floor.
func (r *Ranker) AnonymousMatches(ctx context.Context, opts Options) ([]PropertyMatch, error) {
	return r.Matches(ctx, nil, opts)
}

// Matches ranks the catalogue for an already loaded profile (nil = anonymous).
func (r *Ranker) Matches(ctx context.Context, tenant *rental.TenantProfile, opts Options) ([]PropertyMatch, error) {
	props, err := r.catalogue(ctx)
	if err != nil {
		return nil, err
	}
	props = slices.DeleteFunc(props, func(p rental.Property) bool { return !opts.admits(p) })

	explainer, _ := r.scorer.(score.Explainer)
	results := make([]PropertyMatch, len(props))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range props {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m := PropertyMatch{Property: props[i], Score: r.scorer.Match(tenant, props[i])}
			if explainer != nil {
				b := explainer.ExplainMatch(tenant, props[i])
				m.Breakdown = &b
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.MinScore > 0 {
		results = slices.DeleteFunc(results, func(m PropertyMatch) bool { return m.Score < opts.MinScore })
	}
	slices.SortStableFunc(results, func(a, b PropertyMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Property.ID, b.Property.ID)
	})
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// ApplicantsForLandlord scores every application on landlordID's properties,
// highest score first. An empty status means all statuses.
func (r *Ranker) ApplicantsForLandlord(ctx context.Context, landlordID string, status rental.Status) ([]Applicant, error) {
	rows, err := r.store.ListApplicants(ctx, store.ApplicantListOpts{LandlordID: landlordID, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list applicants for %s: %w", landlordID, err)
	}
	out := r.ScoreApplicants(rows)
	slices.SortStableFunc(out, func(a, b Applicant) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Application.ID, b.Application.ID)
	})
	return out, nil
}

// ScoreApplicants scores rows in order, without sorting.
func (r *Ranker) ScoreApplicants(rows []store.ApplicantRow) []Applicant {
	explainer, _ := r.scorer.(score.Explainer)
	out := make([]Applicant, len(rows))
	for i, row := range rows {
		a := Applicant{
			Application:  row.Application,
			TenantName:   strings.TrimSpace(row.FirstName + " " + row.LastName),
			Profession:   row.Profession,
			Income:       row.Income,
			PropertyName: row.PropertyName,
			Rent:         row.Rent,
			Score:        r.scorer.Risk(row.Income, row.Profession, row.Rent),
		}
		if explainer != nil {
			b := explainer.ExplainRisk(row.Income, row.Profession, row.Rent)
			a.Breakdown = &b
		}
		out[i] = a
	}
	return out
}

// InvalidateCatalogue drops the cached snapshot. Call it after any property write.
func (r *Ranker) InvalidateCatalogue(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, CatalogueKey); err != nil {
		r.logger.Warn("invalidate catalogue", zap.Error(err))
	}
}

func (r *Ranker) catalogue(ctx context.Context) ([]rental.Property, error) {
	if r.cache != nil {
		if raw, ok := r.cache.Get(ctx, CatalogueKey); ok {
			var props []rental.Property
			if err := json.Unmarshal([]byte(raw), &props); err == nil {
				return props, nil
			}
			r.logger.Warn("discarding unreadable catalogue snapshot")
		}
	}

	props, err := r.store.ListProperties(ctx, store.PropertyListOpts{Limit: catalogueLimit})
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}

	if r.cache != nil && r.ttl > 0 {
		if raw, err := json.Marshal(props); err == nil {
			if err := r.cache.Set(ctx, CatalogueKey, string(raw), r.ttl); err != nil {
				r.logger.Warn("cache catalogue", zap.Error(err))
			}
		}
	}
	return props, nil
}

// admits mirrors the store's list filters so cached snapshots filter the same way.
func (o Options) admits(p rental.Property) bool {
	if loc := strings.ToLower(strings.TrimSpace(o.Location)); loc != "" &&
		!strings.Contains(strings.ToLower(p.Location), loc) {
		return false
	}
	if o.MinPrice > 0 && p.Price < o.MinPrice {
		return false
	}
	if o.MaxPrice > 0 && p.Price > o.MaxPrice {
		return false
	}
	return true
}
