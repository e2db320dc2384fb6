// Package pipeline turns walked product refs into per-category output:
// one CSV of records plus an image directory, with per-item failures
// reported and skipped rather than aborting the category.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-catalog-crawler/config"
	"github.com/aluiziolira/go-catalog-crawler/fetch"
	"github.com/aluiziolira/go-catalog-crawler/models"
	"github.com/aluiziolira/go-catalog-crawler/parser"
	"github.com/aluiziolira/go-catalog-crawler/scraper"
)

// Error type labels reported to stats and metrics.
const (
	errTypeStructural = "structural"
	errTypeMissing    = "missing_field"
	errTypeFilesystem = "filesystem"
	errTypeListing    = "listing_fetch"
)

// seenCacheSize bounds the per-category duplicate-ref cache. A category on
// the source site tops out at a few hundred products, so eviction never
// happens in practice.
const seenCacheSize = 4096

// Fetcher retrieves the raw body behind a URL in a single attempt.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CategoryWalker walks one category's paginated listing.
type CategoryWalker interface {
	Walk(ctx context.Context, ref models.CategoryRef) scraper.WalkResult
}

// CategoryOutcome summarizes one category pipeline run.
type CategoryOutcome struct {
	Category   string
	Ref        models.CategoryRef
	Refs       int
	Records    int
	Images     int
	StopReason scraper.StopReason
	Failed     bool
	Err        error
}

// CategoryPipeline processes one category end to end: walk the listing,
// then fetch, extract, persist, and image every product ref in order.
type CategoryPipeline struct {
	cfg      *config.Config
	walker   CategoryWalker
	fetcher  Fetcher
	reporter Reporter
	metrics  *scraper.Metrics
	stats    *Stats
	runRoot  string
}

// NewCategoryPipeline wires a pipeline for one run root. reporter must not
// be nil; metrics and stats may be.
func NewCategoryPipeline(cfg *config.Config, walker CategoryWalker, fetcher Fetcher, reporter Reporter, metrics *scraper.Metrics, stats *Stats, runRoot string) *CategoryPipeline {
	return &CategoryPipeline{
		cfg:      cfg,
		walker:   walker,
		fetcher:  fetcher,
		reporter: reporter,
		metrics:  metrics,
		stats:    stats,
		runRoot:  runRoot,
	}
}

// Run executes the pipeline for one category. Output directories are only
// created once the walk produced at least one ref, so dead categories leave
// no trace on disk.
func (p *CategoryPipeline) Run(ctx context.Context, ref models.CategoryRef) CategoryOutcome {
	name := ref.Name()
	outcome := CategoryOutcome{Category: name, Ref: ref}

	walk := p.walker.Walk(ctx, ref)
	outcome.Refs = len(walk.Refs)
	outcome.StopReason = walk.Reason

	if walk.Reason == scraper.StopFetchFailed {
		p.reporter.Report(Event{
			Level:    LevelWarn,
			Category: name,
			URL:      string(ref),
			Message:  "category listing fetch failed, keeping refs walked so far",
		})
		p.recordError(errTypeListing, string(ref))
	}

	if len(walk.Refs) == 0 {
		p.reporter.Report(Event{
			Level:    LevelError,
			Category: name,
			URL:      string(ref),
			Message:  "no products found for category",
		})
		outcome.Failed = true
		outcome.Err = walk.Err
		return outcome
	}

	sink, err := NewCategoryOutput(p.runRoot, name)
	if err != nil {
		p.reporter.Report(Event{
			Level:    LevelError,
			Category: name,
			Message:  fmt.Sprintf("create category output: %v", err),
		})
		p.recordError(errTypeFilesystem, "")
		outcome.Failed = true
		outcome.Err = err
		return outcome
	}
	defer func() {
		if err := sink.Close(); err != nil {
			p.reporter.Report(Event{
				Level:    LevelError,
				Category: name,
				Message:  fmt.Sprintf("close category output: %v", err),
			})
		}
	}()

	// Cycle-guarded walks can re-emit refs from a revisited page; the seen
	// cache keeps each product at most once per category.
	seen, err := lru.New[string, struct{}](seenCacheSize)
	if err != nil {
		outcome.Failed = true
		outcome.Err = err
		return outcome
	}

	for _, productRef := range walk.Refs {
		if ctx.Err() != nil {
			outcome.Err = ctx.Err()
			break
		}
		if found, _ := seen.ContainsOrAdd(string(productRef), struct{}{}); found {
			continue
		}

		if err := p.processProduct(ctx, sink, name, productRef, &outcome); err != nil {
			// Filesystem failures abort the category; everything else was
			// already reported and skipped inside processProduct.
			outcome.Failed = true
			outcome.Err = err
			break
		}
	}

	p.metrics.IncCategories()
	p.reporter.Report(Event{
		Level:    LevelInfo,
		Category: name,
		Message:  fmt.Sprintf("category complete: %d records, %d images", outcome.Records, outcome.Images),
	})
	return outcome
}

func (p *CategoryPipeline) processProduct(ctx context.Context, sink *CategoryOutput, name string, ref models.ProductRef, outcome *CategoryOutcome) error {
	body, err := p.fetcher.Fetch(ctx, string(ref))
	if err != nil {
		p.reporter.Report(Event{
			Level:    LevelWarn,
			Category: name,
			URL:      string(ref),
			Message:  fmt.Sprintf("product page fetch failed, skipping: %v", err),
		})
		p.recordError(fetch.Outcome(err), string(ref))
		return nil
	}

	rec, warnings, err := parser.ExtractProduct(body, string(ref), name)
	if err != nil {
		level := LevelWarn
		var structural *parser.StructuralError
		if errors.As(err, &structural) {
			level = LevelError
			p.recordError(errTypeStructural, string(ref))
		}
		p.reporter.Report(Event{
			Level:    level,
			Category: name,
			URL:      string(ref),
			Message:  fmt.Sprintf("product extraction failed, skipping: %v", err),
		})
		return nil
	}
	for _, field := range warnings {
		p.reporter.Report(Event{
			Level:    LevelWarn,
			Category: name,
			URL:      string(ref),
			Field:    field,
			Message:  "missing field value, sentinel written",
		})
		p.recordError(errTypeMissing, "")
	}

	if err := sink.AppendRecord(rec); err != nil {
		p.reporter.Report(Event{
			Level:    LevelError,
			Category: name,
			URL:      string(ref),
			Message:  fmt.Sprintf("write record: %v", err),
		})
		p.recordError(errTypeFilesystem, string(ref))
		return err
	}
	outcome.Records++
	p.metrics.IncProducts()

	p.storeImage(ctx, sink, name, rec, outcome)
	return nil
}

// storeImage fetches and persists the product image. Image failures never
// undo the already-written record row; partial success is acceptable.
func (p *CategoryPipeline) storeImage(ctx context.Context, sink *CategoryOutput, name string, rec *models.ProductRecord, outcome *CategoryOutcome) {
	if rec.ImageURL == "" || rec.ImageURL == models.Sentinel {
		return
	}

	data, err := p.fetcher.Fetch(ctx, rec.ImageURL)
	if err != nil {
		p.reporter.Report(Event{
			Level:    LevelWarn,
			Category: name,
			URL:      rec.ImageURL,
			Message:  fmt.Sprintf("image fetch failed: %v", err),
		})
		p.recordError(fetch.Outcome(err), rec.ImageURL)
		return
	}

	filename := parser.ImageFileName(rec, p.cfg.ImageNaming)
	if _, err := sink.StoreImage(filename, data); err != nil {
		p.reporter.Report(Event{
			Level:    LevelError,
			Category: name,
			URL:      rec.ImageURL,
			Message:  fmt.Sprintf("store image: %v", err),
		})
		p.recordError(errTypeFilesystem, rec.ImageURL)
		return
	}
	outcome.Images++
	p.metrics.IncImages()
}

func (p *CategoryPipeline) recordError(errorType, url string) {
	if p.stats != nil {
		p.stats.RecordError(errorType, url)
	}
	p.metrics.IncError(errorType)
}
