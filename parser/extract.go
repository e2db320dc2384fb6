// Package parser extracts structured product data from catalog pages.
package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-catalog-crawler/models"
)

// Positions of scalar facts inside the product information table. The table
// shape is a structural assumption about the source site: if it changes,
// extraction fails loudly with a StructuralError instead of producing
// silently wrong data.
const (
	factUPC          = 0
	factPriceExcl    = 2
	factPriceIncl    = 3
	factAvailability = 5
	factCount        = 6
)

// StructuralError indicates the fixed-position fact table assumption was
// violated for one product page.
type StructuralError struct {
	URL  string
	Want int
	Got  int
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("product fact table at %s has %d cells, want at least %d", e.URL, e.Got, e.Want)
}

// ExtractProduct parses one product detail page into a ProductRecord.
// Fields that are present but blank are replaced with the sentinel and
// returned in warnings (by column name); only a violated table shape is an
// error, and it skips the whole record.
func ExtractProduct(body []byte, pageURL, category string) (*models.ProductRecord, []string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse product page %s: %w", pageURL, err)
	}

	cells := doc.Find("table.table-striped td").Map(func(_ int, s *goquery.Selection) string {
		return NormalizeText(s.Text())
	})
	if len(cells) < factCount {
		return nil, nil, &StructuralError{URL: pageURL, Want: factCount, Got: len(cells)}
	}

	rec := &models.ProductRecord{
		PageURL:      pageURL,
		UPC:          cells[factUPC],
		Title:        NormalizeText(doc.Find("h1").First().Text()),
		PriceInclTax: NormalizePrice(cells[factPriceIncl]),
		PriceExclTax: NormalizePrice(cells[factPriceExcl]),
		Description:  extractDescription(doc),
		Category:     category,
		ReviewRating: extractRating(doc),
		ImageURL:     extractImageURL(doc, pageURL),
	}

	var warnings []string
	require := func(column string, value string) string {
		if value != "" {
			return value
		}
		warnings = append(warnings, column)
		return models.Sentinel
	}

	rec.UPC = require("universal_product_code", rec.UPC)
	rec.Title = require("title", rec.Title)
	rec.PriceInclTax = require("price_including_tax", rec.PriceInclTax)
	rec.PriceExclTax = require("price_excluding_tax", rec.PriceExclTax)
	rec.ReviewRating = require("review_rating", rec.ReviewRating)
	rec.ImageURL = require("image_url", rec.ImageURL)

	number, ok := FirstDigits(cells[factAvailability])
	if !ok {
		warnings = append(warnings, "number_available")
		number = models.Sentinel
	}
	rec.NumberAvailable = number

	// A missing description is tolerated, but every output column carries a
	// value, so blank degrades to the sentinel without a warning.
	if rec.Description == "" {
		rec.Description = models.Sentinel
	}

	return rec, warnings, nil
}

func extractDescription(doc *goquery.Document) string {
	heading := doc.Find("#product_description")
	if heading.Length() == 0 {
		return ""
	}
	return NormalizeText(heading.NextFiltered("p").Text())
}

func extractRating(doc *goquery.Document) string {
	class, ok := doc.Find("p.star-rating").First().Attr("class")
	if !ok {
		return ""
	}
	parts := strings.Fields(class)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func extractImageURL(doc *goquery.Document, pageURL string) string {
	src, ok := doc.Find("#product_gallery .item.active img").First().Attr("src")
	if !ok || src == "" {
		return ""
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}
