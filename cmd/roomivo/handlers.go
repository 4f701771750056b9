package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/roomivo/internal/cache"
	"github.com/elonfeng/roomivo/internal/config"
	"github.com/elonfeng/roomivo/internal/logging"
	"github.com/elonfeng/roomivo/internal/scheduler"
	"github.com/elonfeng/roomivo/internal/secrets"
	"github.com/elonfeng/roomivo/internal/store"
	"github.com/elonfeng/roomivo/pkg/alert"
	"github.com/elonfeng/roomivo/pkg/listing"
	"github.com/elonfeng/roomivo/pkg/rank"
	"github.com/elonfeng/roomivo/pkg/rental"
	"github.com/elonfeng/roomivo/pkg/score"
	"github.com/elonfeng/roomivo/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// env bundles what every command opens.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *store.SQLiteStore
	ranker *rank.Ranker
}

func openEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	ranker := rank.New(db,
		rank.WithCache(cache.New(cfg.Cache), cfg.Cache.ParseTTL()),
		rank.WithWorkers(cfg.Scoring.Workers),
		rank.WithLogger(logger),
	)

	return &env{cfg: cfg, logger: logger, db: db, ranker: ranker}, nil
}

func (e *env) Close() {
	e.db.Close()
	_ = e.logger.Sync()
}

func buildSources(cfg *config.Config, logger *zap.Logger) []listing.Source {
	var sources []listing.Source
	limiter := listing.NewHostLimiter(cfg.Sources.RatePerHost, cfg.Sources.Burst)

	if cfg.Sources.Seed.Enabled {
		sources = append(sources, listing.NewSeed(cfg.Sources.Seed.File, cfg.Sources.Seed.LandlordID))
	}
	if cfg.Sources.RSS.Enabled {
		feeds := make([]listing.RSSFeed, len(cfg.Sources.RSS.Feeds))
		for i, f := range cfg.Sources.RSS.Feeds {
			feeds[i] = listing.RSSFeed{Name: f.Name, URL: f.URL, Location: f.Location, LandlordID: f.LandlordID}
		}
		sources = append(sources, listing.NewRSS(feeds, limiter, logger))
	}
	if cfg.Sources.HTML.Enabled {
		sites := make([]listing.Site, len(cfg.Sources.HTML.Sites))
		for i, s := range cfg.Sources.HTML.Sites {
			sites[i] = listing.Site{
				Name: s.Name, URL: s.URL, Location: s.Location, LandlordID: s.LandlordID,
				Card: s.Card, Title: s.Title, Price: s.Price, Place: s.Place,
				Description: s.Description, Amenity: s.Amenity, Link: s.Link,
			}
		}
		sources = append(sources, listing.NewHTML(sites, limiter, logger))
	}

	return sources
}

func buildAlertManager(cfg *config.Config) (*alert.Manager, error) {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		secret, err := secrets.Resolve(cfg.Alerts.Webhook.Secret, cfg.Alerts.Webhook.KeyringAccount)
		if err != nil {
			return nil, fmt.Errorf("webhook secret: %w", err)
		}
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, secret))
	}

	return alert.NewManager(notifiers), nil
}

func newScheduler(e *env, sources []listing.Source, alertMgr *alert.Manager) *scheduler.Scheduler {
	return scheduler.New(e.db, sources,
		listing.NewFilter(e.cfg.Filter.IncludeKeywords, e.cfg.Filter.ExcludeKeywords),
		e.ranker, alertMgr,
		scheduler.Config{
			ImportInterval: e.cfg.Schedule.ParseImportInterval(),
			ReviewInterval: e.cfg.Schedule.ParseReviewInterval(),
			MinRiskScore:   e.cfg.Scoring.AlertMinRiskScore,
			BaseURL:        strings.TrimRight(e.cfg.Server.PublicURL, "/"),
		},
		e.logger,
	)
}

func newServer(e *env, importer server.Importer, port int) *server.Server {
	if port == 0 {
		port = e.cfg.Server.Port
	}
	return server.New(e.db, e.ranker, importer, server.Config{
		Port:          port,
		RateLimit:     e.cfg.Server.RateLimit,
		Burst:         e.cfg.Server.Burst,
		DefaultLimit:  e.cfg.Scoring.DefaultLimit,
		MinMatchScore: e.cfg.Scoring.MinMatchScore,
	}, e.logger)
}

func printReport(rep *scheduler.ImportReport) {
	for src, n := range rep.PerSource {
		fmt.Fprintf(os.Stderr, "  %s: %d listings\n", src, n)
	}
	for _, f := range rep.Failed {
		fmt.Fprintf(os.Stderr, "  %s: failed (see log)\n", f)
	}
	fmt.Fprintf(os.Stderr, "\ntotal: %d listings\n", rep.Total)
}

func runSeed(ctx context.Context, file, landlord string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if landlord == "" {
		landlord = e.cfg.Sources.Seed.LandlordID
	}
	if file == "" {
		file = e.cfg.Sources.Seed.File
	}

	sched := newScheduler(e, []listing.Source{listing.NewSeed(file, landlord)}, nil)
	rep, err := sched.Import(ctx)
	if err != nil {
		return err
	}
	if len(rep.Failed) > 0 {
		return errors.New("seed failed")
	}
	printReport(rep)
	return nil
}

func runImport(ctx context.Context, only []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	all := buildSources(e.cfg, e.logger)
	sources := all
	if len(only) > 0 {
		known := make(map[string]bool)
		for _, st := range listing.AllSourceTypes() {
			known[string(st)] = true
		}
		wanted := make(map[string]bool)
		for _, s := range only {
			name := strings.ToLower(strings.TrimSpace(s))
			if !known[name] {
				return fmt.Errorf("unknown source %q", s)
			}
			wanted[name] = true
		}
		sources = nil
		for _, s := range all {
			if wanted[string(s.Name())] {
				sources = append(sources, s)
			}
		}
		if len(sources) == 0 {
			return fmt.Errorf("no enabled sources match: %s", strings.Join(only, ", "))
		}
	}
	if len(sources) == 0 {
		return errors.New("no listing sources enabled in config")
	}

	rep, err := newScheduler(e, sources, nil).Import(ctx)
	if err != nil {
		return err
	}
	printReport(rep)
	return nil
}

func runBackfill(ctx context.Context, dryRun bool) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	changed, total := 0, 0
	for offset := 0; ; offset += 500 {
		props, err := e.db.ListProperties(ctx, store.PropertyListOpts{Limit: 500, Offset: offset})
		if err != nil {
			return err
		}
		for _, p := range props {
			total++
			rt := listing.ClassifyRentalType(p.Description, p.Amenities)
			if rt == p.RentalType {
				continue
			}
			fmt.Fprintf(os.Stderr, "  %s: %s -> %s\n", p.Name, p.RentalType, rt)
			changed++
			if dryRun {
				continue
			}
			if err := e.db.SetRentalType(ctx, p.ID, rt); err != nil {
				return err
			}
		}
		if len(props) < 500 {
			break
		}
	}

	if changed > 0 && !dryRun {
		e.ranker.InvalidateCatalogue(ctx)
	}
	fmt.Fprintf(os.Stderr, "\n%d of %d listings re-classified\n", changed, total)
	return nil
}

func runMatches(ctx context.Context, tenant, location string, minScore, limit int, jsonOutput bool) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if minScore < 0 {
		minScore = e.cfg.Scoring.MinMatchScore
	}
	if limit == 0 {
		limit = e.cfg.Scoring.DefaultLimit
	}
	opts := rank.Options{Location: location, MinScore: minScore, Limit: limit}

	var matches []rank.PropertyMatch
	if tenant == "" {
		matches, err = e.ranker.AnonymousMatches(ctx, opts)
	} else {
		matches, err = e.ranker.MatchesForTenant(ctx, tenant, opts)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeIndented(os.Stdout, matches)
	}
	if len(matches) == 0 {
		fmt.Println("no listings found (try seeding first: roomivo seed)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tPRICE\tLOCATION\tTYPE\tNAME")
	for _, m := range matches {
		fmt.Fprintf(w, "%d%%\t%.0f %s\t%s\t%s\t%s\n",
			m.Score, m.Property.Price, m.Property.Currency,
			m.Property.Location, m.Property.RentalType, m.Property.Name)
	}
	return w.Flush()
}

func runApplicants(ctx context.Context, landlord, status string, jsonOutput bool) error {
	var st rental.Status
	if status != "" {
		var err error
		if st, err = rental.ParseStatus(status); err != nil {
			return err
		}
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	applicants, err := e.ranker.ApplicantsForLandlord(ctx, landlord, st)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeIndented(os.Stdout, applicants)
	}
	if len(applicants) == 0 {
		fmt.Println("no applications found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tSTATUS\tTENANT\tPROFESSION\tINCOME\tRENT\tLISTING")
	for _, a := range applicants {
		fmt.Fprintf(w, "%d%%\t%s\t%s\t%s\t%.0f\t%.0f\t%s\n",
			a.Score, a.Application.Status, a.TenantName, a.Profession,
			a.Income, a.Rent, a.PropertyName)
	}
	return w.Flush()
}

type matchInput struct {
	anonymous        bool
	budgetMax        float64
	income           float64
	location         string
	age              int
	bio              string
	price            float64
	propertyLocation string
	description      string
	amenities        []string
}

func (in matchInput) validate() error {
	switch {
	case in.price <= 0:
		return errors.New("--price must be > 0")
	case in.budgetMax < 0, in.income < 0, in.age < 0:
		return errors.New("--budget-max, --income and --age must be >= 0")
	}
	return nil
}

func runScoreMatch(out io.Writer, in matchInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	var tenant *rental.TenantProfile
	if !in.anonymous {
		tenant = &rental.TenantProfile{
			BudgetMax:         in.budgetMax,
			Income:            in.income,
			PreferredLocation: in.location,
			Age:               in.age,
			Bio:               in.bio,
		}
	}
	p := rental.Property{
		Price:       in.price,
		Location:    in.propertyLocation,
		Description: in.description,
		Amenities:   in.amenities,
	}
	return writeIndented(out, score.ExplainTenantMatch(tenant, p))
}

func runScoreRisk(out io.Writer, income float64, profession string, rent float64) error {
	if income < 0 {
		return errors.New("--income must be >= 0")
	}
	if rent <= 0 {
		return errors.New("--rent must be > 0")
	}
	return writeIndented(out, score.ExplainLandlordRisk(income, profession, rent))
}

func runServe(port int) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	importer := newScheduler(e, buildSources(e.cfg, e.logger), nil)
	return newServer(e, importer, port).ListenAndServe(ctx)
}

func runDaemon(port int) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	lock, err := scheduler.Lock(e.cfg.Database.LockPath())
	if err != nil {
		return err
	}
	defer lock.Unlock()

	alertMgr, err := buildAlertManager(e.cfg)
	if err != nil {
		return err
	}
	if !alertMgr.HasNotifiers() {
		e.logger.Warn("no alert destinations configured; applicant review is idle")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := newScheduler(e, buildSources(e.cfg, e.logger), alertMgr)
	srv := newServer(e, sched, port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sched.Run(gctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	err = g.Wait()
	e.logger.Info("shutting down")
	return err
}

func runSecretSet(in io.Reader, out io.Writer, account string) error {
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read secret: %w", err)
		}
		return errors.New("no secret on stdin")
	}
	if err := secrets.Set(account, strings.TrimSpace(scanner.Text())); err != nil {
		return err
	}
	fmt.Fprintf(out, "stored secret for %s in the %s keyring\n", account, secrets.KeyringService)
	return nil
}

func runSecretDelete(out io.Writer, account string) error {
	if err := secrets.Delete(account); err != nil {
		return err
	}
	fmt.Fprintf(out, "removed secret for %s\n", account)
	return nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
