package scraper

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-catalog-crawler/config"
	"github.com/aluiziolira/go-catalog-crawler/models"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://books.test/"
	return cfg
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func buildRootPage(categories []string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="side_categories"><ul class="nav nav-list">`)
	b.WriteString(`<li><a href="catalogue/category/books_1/index.html">Books</a><ul>`)
	for _, c := range categories {
		fmt.Fprintf(&b, `<li><a href="catalogue/category/books/%s/index.html">%s</a></li>`, c, c)
	}
	b.WriteString(`</ul></li></ul></div></body></html>`)
	return b.String()
}

func buildListingPage(products []string, next string) string {
	var b strings.Builder
	b.WriteString(`<html><body><section>`)
	for _, p := range products {
		fmt.Fprintf(&b, `<article class="product_pod"><h3><a href="../../../%s/index.html" title=%q>%s</a></h3></article>`, p, p, p)
	}
	if next != "" {
		fmt.Fprintf(&b, `<ul class="pager"><li class="next"><a href=%q>next</a></li></ul>`, next)
	}
	b.WriteString(`</section></body></html>`)
	return b.String()
}

func TestDiscovererDropsPseudoCategory(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.BaseURL,
		htmlResponder(buildRootPage([]string{"travel_2", "mystery_3"})))

	d := NewDiscoverer(cfg, WithTransport(transport))
	refs, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	want := []models.CategoryRef{
		"http://books.test/catalogue/category/books/travel_2/index.html",
		"http://books.test/catalogue/category/books/mystery_3/index.html",
	}
	if len(refs) != len(want) {
		t.Fatalf("refs = %v, want %v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Fatalf("refs[%d] = %q, want %q", i, refs[i], want[i])
		}
	}
}

func TestDiscovererRootFetchFailure(t *testing.T) {
	cfg := testConfig()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", cfg.BaseURL,
		httpmock.NewStringResponder(503, "unavailable"))

	d := NewDiscoverer(cfg, WithTransport(transport))
	refs, err := d.Discover(context.Background())
	if err == nil {
		t.Fatalf("expected error for failed root fetch")
	}
	if len(refs) != 0 {
		t.Fatalf("refs = %v, want none", refs)
	}
}

func TestWalkerMultiPageOrder(t *testing.T) {
	cfg := testConfig()
	base := "http://books.test/catalogue/category/books/travel_2/"

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", base+"index.html",
		htmlResponder(buildListingPage([]string{"book-a_1", "book-b_2", "book-c_3"}, "page-2.html")))
	transport.RegisterResponder("GET", base+"page-2.html",
		htmlResponder(buildListingPage([]string{"book-d_4"}, "")))

	w := NewWalker(cfg, WithTransport(transport))
	result := w.Walk(context.Background(), models.CategoryRef(base+"index.html"))

	if result.Reason != StopNoNext {
		t.Fatalf("reason = %q, want %q (err=%v)", result.Reason, StopNoNext, result.Err)
	}
	if result.Pages != 2 {
		t.Fatalf("pages = %d, want 2", result.Pages)
	}

	want := []models.ProductRef{
		"http://books.test/catalogue/book-a_1/index.html",
		"http://books.test/catalogue/book-b_2/index.html",
		"http://books.test/catalogue/book-c_3/index.html",
		"http://books.test/catalogue/book-d_4/index.html",
	}
	if len(result.Refs) != len(want) {
		t.Fatalf("refs = %v, want %v", result.Refs, want)
	}
	for i := range want {
		if result.Refs[i] != want[i] {
			t.Fatalf("refs[%d] = %q, want %q", i, result.Refs[i], want[i])
		}
	}
}

func TestWalkerStopsOnCycle(t *testing.T) {
	cfg := testConfig()
	base := "http://books.test/catalogue/category/books/travel_2/"

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", base+"index.html",
		htmlResponder(buildListingPage([]string{"book-a_1"}, "page-2.html")))
	// page 2 points back at page 1
	transport.RegisterResponder("GET", base+"page-2.html",
		htmlResponder(buildListingPage([]string{"book-b_2"}, "index.html")))

	w := NewWalker(cfg, WithTransport(transport))
	result := w.Walk(context.Background(), models.CategoryRef(base+"index.html"))

	if result.Reason != StopCycle {
		t.Fatalf("reason = %q, want %q", result.Reason, StopCycle)
	}
	if len(result.Refs) != 2 {
		t.Fatalf("refs = %v, want both pages' refs", result.Refs)
	}
}

func TestWalkerFetchFailureKeepsPartialRefs(t *testing.T) {
	cfg := testConfig()
	base := "http://books.test/catalogue/category/books/travel_2/"

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", base+"index.html",
		htmlResponder(buildListingPage([]string{"book-a_1", "book-b_2"}, "page-2.html")))
	transport.RegisterResponder("GET", base+"page-2.html",
		httpmock.NewStringResponder(404, "not found"))

	w := NewWalker(cfg, WithTransport(transport))
	result := w.Walk(context.Background(), models.CategoryRef(base+"index.html"))

	if result.Reason != StopFetchFailed {
		t.Fatalf("reason = %q, want %q", result.Reason, StopFetchFailed)
	}
	if result.Err == nil {
		t.Fatalf("expected a named fetch error")
	}
	if len(result.Refs) != 2 {
		t.Fatalf("refs = %v, want the first page's refs", result.Refs)
	}
}

func TestWalkerMissingCategory(t *testing.T) {
	cfg := testConfig()
	url := "http://books.test/catalogue/category/books/ghost_9/index.html"

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", url,
		httpmock.NewStringResponder(404, "not found"))

	w := NewWalker(cfg, WithTransport(transport))
	result := w.Walk(context.Background(), models.CategoryRef(url))

	if result.Reason != StopFetchFailed {
		t.Fatalf("reason = %q, want %q", result.Reason, StopFetchFailed)
	}
	if len(result.Refs) != 0 {
		t.Fatalf("refs = %v, want none", result.Refs)
	}
}

func TestWalkerCancelledContext(t *testing.T) {
	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWalker(cfg, WithTransport(httpmock.NewMockTransport()))
	result := w.Walk(ctx, "http://books.test/catalogue/category/books/travel_2/index.html")

	if result.Reason != StopCancelled {
		t.Fatalf("reason = %q, want %q", result.Reason, StopCancelled)
	}
}
