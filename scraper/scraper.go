// Package scraper drives site navigation: category discovery from the root
// page and the paginated walk of one category's listing.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-catalog-crawler/config"
	"github.com/aluiziolira/go-catalog-crawler/models"
)

// StopReason names why a pagination walk terminated.
type StopReason string

const (
	// StopNoNext is a clean termination: the last page had no next control.
	StopNoNext StopReason = "no_next"
	// StopFetchFailed means a listing page could not be fetched; the refs
	// accumulated before the failure are still returned.
	StopFetchFailed StopReason = "fetch_failed"
	// StopCycle means a next control pointed at an already-visited page.
	StopCycle StopReason = "cycle"
	// StopCancelled means the walk's context was cancelled.
	StopCancelled StopReason = "cancelled"
)

// WalkResult is the outcome of one pagination walk.
type WalkResult struct {
	Refs   []models.ProductRef
	Pages  int
	Reason StopReason
	Err    error
}

type settings struct {
	transport http.RoundTripper
	metrics   *Metrics
}

// Option configures a Discoverer or Walker.
type Option func(*settings)

// WithTransport replaces the collector transport, used in tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *settings) {
		s.transport = rt
	}
}

// WithMetrics wires the prometheus bundle into the collector callbacks.
func WithMetrics(m *Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

func defaultTransport(cfg *config.Config) http.RoundTripper {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

func newCollector(cfg *config.Config, s *settings) (*colly.Collector, error) {
	host, err := cfg.Host()
	if err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.UserAgent(cfg.UserAgent),
	)
	c.SetRequestTimeout(cfg.Timeout)
	c.IgnoreRobotsTxt = true

	transport := s.transport
	if transport == nil {
		transport = defaultTransport(cfg)
	}
	c.WithTransport(transport)

	if s.metrics != nil {
		m := s.metrics
		c.OnRequest(func(r *colly.Request) {
			r.Ctx.Put("start", time.Now())
		})
		c.OnResponse(func(r *colly.Response) {
			m.IncRequest("success")
			if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
				m.ObserveDuration(time.Since(start))
			}
		})
		c.OnError(func(_ *colly.Response, _ error) {
			m.IncRequest("error")
		})
	}

	return c, nil
}

// Discoverer finds the category listing URLs on the site root page.
type Discoverer struct {
	cfg      *config.Config
	settings settings
}

// NewDiscoverer builds a discoverer configured from cfg.
func NewDiscoverer(cfg *config.Config, opts ...Option) *Discoverer {
	d := &Discoverer{cfg: cfg}
	for _, opt := range opts {
		opt(&d.settings)
	}
	return d
}

// Discover fetches the root page and returns category refs in document
// order. The first navigation link is dropped: the site lists an
// all-products pseudo-category ahead of the real ones.
func (d *Discoverer) Discover(ctx context.Context) ([]models.CategoryRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := newCollector(d.cfg, &d.settings)
	if err != nil {
		return nil, fmt.Errorf("build collector: %w", err)
	}

	var (
		refs     []models.CategoryRef
		fetchErr error
	)
	c.OnHTML("ul.nav.nav-list a", func(e *colly.HTMLElement) {
		href := e.Attr("href")
		if href == "" {
			return
		}
		refs = append(refs, models.CategoryRef(e.Request.AbsoluteURL(href)))
	})
	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(d.cfg.BaseURL); err != nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("fetch root page %s: %w", d.cfg.BaseURL, fetchErr)
	}

	if len(refs) == 0 {
		return nil, nil
	}
	return refs[1:], nil
}

// Walker walks one category's paginated listing and accumulates product
// page refs. Each walk uses a fresh collector so visited-URL state never
// leaks between categories.
type Walker struct {
	cfg      *config.Config
	settings settings
}

// NewWalker builds a walker configured from cfg.
func NewWalker(cfg *config.Config, opts ...Option) *Walker {
	w := &Walker{cfg: cfg}
	for _, opt := range opts {
		opt(&w.settings)
	}
	return w
}

// Walk runs the WALKING/DONE state machine over a category's listing pages.
// Refs come back in strict page order then in-page document order. The walk
// keeps its own visited set: a next control pointing at a page already seen
// terminates the walk instead of looping.
func (w *Walker) Walk(ctx context.Context, ref models.CategoryRef) WalkResult {
	result := WalkResult{}

	c, err := newCollector(w.cfg, &w.settings)
	if err != nil {
		result.Reason = StopFetchFailed
		result.Err = fmt.Errorf("build collector: %w", err)
		return result
	}

	var (
		next     string
		fetchErr error
	)
	c.OnHTML("article.product_pod h3 a", func(e *colly.HTMLElement) {
		href := e.Attr("href")
		if href == "" {
			return
		}
		result.Refs = append(result.Refs, models.ProductRef(e.Request.AbsoluteURL(href)))
	})
	c.OnHTML("li.next a", func(e *colly.HTMLElement) {
		next = e.Request.AbsoluteURL(e.Attr("href"))
	})
	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	visited := make(map[string]struct{})
	current := string(ref)

	for {
		if err := ctx.Err(); err != nil {
			result.Reason = StopCancelled
			result.Err = err
			return result
		}
		if _, seen := visited[current]; seen {
			result.Reason = StopCycle
			return result
		}
		visited[current] = struct{}{}

		next, fetchErr = "", nil
		if err := c.Visit(current); err != nil {
			fetchErr = err
		}
		// The collector normalizes URLs before its own dedupe, so it can
		// flag a revisit that the raw-string visited set missed.
		if errors.Is(fetchErr, colly.ErrAlreadyVisited) {
			result.Reason = StopCycle
			return result
		}
		if fetchErr != nil {
			result.Reason = StopFetchFailed
			result.Err = fmt.Errorf("fetch listing page %s: %w", current, fetchErr)
			return result
		}
		result.Pages++

		if next == "" {
			result.Reason = StopNoNext
			return result
		}
		current = next
	}
}
