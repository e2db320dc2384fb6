package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aluiziolira/go-catalog-crawler/config"
	"github.com/aluiziolira/go-catalog-crawler/fetch"
	"github.com/aluiziolira/go-catalog-crawler/models"
	"github.com/aluiziolira/go-catalog-crawler/scraper"
)

// runTimestampLayout names each run's output root uniquely.
const runTimestampLayout = "2006-01-02_15-04-05"

// CategoryDiscoverer lists the site's category refs.
type CategoryDiscoverer interface {
	Discover(ctx context.Context) ([]models.CategoryRef, error)
}

// Orchestrator fans out one category pipeline per discovered category with
// bounded parallelism. No category's failure cancels a sibling.
type Orchestrator struct {
	cfg        *config.Config
	discoverer CategoryDiscoverer
	walker     CategoryWalker
	fetcher    Fetcher
	reporter   Reporter
	metrics    *scraper.Metrics
	stats      *Stats

	now func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithReporter replaces the default slog-backed reporter.
func WithReporter(r Reporter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.reporter = r
	}
}

// WithMetrics wires the prometheus bundle into the run.
func WithMetrics(m *scraper.Metrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock overrides the run-timestamp clock, used in tests.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator assembles an orchestrator around the given collaborators.
func NewOrchestrator(cfg *config.Config, discoverer CategoryDiscoverer, walker CategoryWalker, fetcher Fetcher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		discoverer: discoverer,
		walker:     walker,
		fetcher:    fetcher,
		stats:      NewStats(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.reporter == nil {
		o.reporter = NewSlogReporter(nil)
	}
	return o
}

// NewDefaultOrchestrator builds the production wiring: colly-backed
// discoverer and walker plus the HTTP fetcher, all sharing cfg.
func NewDefaultOrchestrator(cfg *config.Config, opts ...OrchestratorOption) *Orchestrator {
	probe := &Orchestrator{}
	for _, opt := range opts {
		opt(probe)
	}

	var scraperOpts []scraper.Option
	var fetchOpts []fetch.Option
	if probe.metrics != nil {
		m := probe.metrics
		scraperOpts = append(scraperOpts, scraper.WithMetrics(m))
		fetchOpts = append(fetchOpts, fetch.WithObserver(func(outcome string, d time.Duration) {
			m.IncRequest(outcome)
			m.ObserveDuration(d)
		}))
	}

	return NewOrchestrator(cfg,
		scraper.NewDiscoverer(cfg, scraperOpts...),
		scraper.NewWalker(cfg, scraperOpts...),
		fetch.New(cfg, fetchOpts...),
		opts...,
	)
}

// RunAll discovers categories and runs one pipeline per category under the
// configured concurrency ceiling. It returns the aggregated result; the
// error is non-nil only when the run produced no output at all.
func (o *Orchestrator) RunAll(ctx context.Context) (*models.CrawlResult, error) {
	result := &models.CrawlResult{
		StartTime:    o.now(),
		ErrorsByType: map[string]int{},
	}

	categories, err := o.discoverer.Discover(ctx)
	if err != nil || len(categories) == 0 {
		o.reporter.Report(Event{
			Level:   LevelError,
			URL:     o.cfg.BaseURL,
			Message: "no categories found",
		})
		result.EndTime = o.now()
		if err != nil {
			return result, fmt.Errorf("discover categories: %w", err)
		}
		return result, fmt.Errorf("no categories found at %s", o.cfg.BaseURL)
	}
	result.CategoriesTotal = len(categories)

	runRoot := filepath.Join(o.cfg.DataDir, o.now().Format(runTimestampLayout))
	if err := os.MkdirAll(runRoot, 0o755); err != nil {
		result.EndTime = o.now()
		return result, fmt.Errorf("create run root %q: %w", runRoot, err)
	}
	result.RunRoot = runRoot

	o.reporter.Report(Event{
		Level:   LevelInfo,
		Message: fmt.Sprintf("crawl started: %d categories, concurrency %d", len(categories), o.cfg.Concurrency),
	})

	outcomes := make([]CategoryOutcome, len(categories))
	var completed atomic.Int64

	// Pipelines never return errors into the group: a failed category must
	// not cancel its siblings, so failures live in the outcomes instead.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for i, ref := range categories {
		g.Go(func() error {
			p := NewCategoryPipeline(o.cfg, o.walker, o.fetcher, o.reporter, o.metrics, o.stats, runRoot)
			outcomes[i] = p.Run(gctx, ref)

			done := completed.Add(1)
			o.reporter.Report(Event{
				Level:    LevelInfo,
				Category: outcomes[i].Category,
				Message:  fmt.Sprintf("progress: %d/%d categories", done, len(categories)),
			})
			return nil
		})
	}
	g.Wait()

	for _, outcome := range outcomes {
		if outcome.Failed {
			result.CategoriesFailed++
			continue
		}
		result.CategoriesCompleted++
		result.Products += outcome.Records
		result.Images += outcome.Images
	}
	result.EndTime = o.now()
	result.ErrorsByType = o.stats.ErrorsByType()
	result.FailedURLs = o.stats.FailedURLs()
	result.ErrorCount = o.stats.ErrorCount()

	o.reporter.Report(Event{
		Level: LevelInfo,
		Message: fmt.Sprintf("crawl complete: %d/%d categories, %d records, %d images",
			result.CategoriesCompleted, result.CategoriesTotal, result.Products, result.Images),
	})
	return result, nil
}
