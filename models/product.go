// Package models defines data structures for the catalog crawler.
package models

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Sentinel is written in place of a genuinely missing field value.
const Sentinel = "None"

// CategoryRef is the absolute URL of a category's first listing page.
type CategoryRef string

// ProductRef is the absolute URL of one product's detail page.
type ProductRef string

// Name derives the category name from the ref: the last meaningful path
// segment with its trailing numeric id suffix stripped
// (".../books/travel_2/index.html" -> "travel").
func (r CategoryRef) Name() string {
	parsed, err := url.Parse(string(r))
	if err != nil {
		return ""
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	last := segments[len(segments)-1]
	if strings.Contains(last, ".") && len(segments) > 1 {
		last = segments[len(segments)-2]
	}
	if i := strings.LastIndex(last, "_"); i >= 0 {
		if _, err := strconv.Atoi(last[i+1:]); err == nil {
			last = last[:i]
		}
	}
	return last
}

// ProductRecord holds the extracted attributes for one product. All fields
// are normalized strings with the sentinel already substituted for missing
// values, so a record is always ready to serialize.
type ProductRecord struct {
	PageURL         string
	UPC             string
	Title           string
	PriceInclTax    string
	PriceExclTax    string
	NumberAvailable string
	Description     string
	Category        string
	ReviewRating    string
	ImageURL        string
}

// Columns returns the fixed output header, in column order.
func Columns() []string {
	return []string{
		"product_page_url",
		"universal_product_code",
		"title",
		"price_including_tax",
		"price_excluding_tax",
		"number_available",
		"product_description",
		"category",
		"review_rating",
		"image_url",
	}
}

// Row returns the record's values in the same order as Columns.
func (r *ProductRecord) Row() []string {
	return []string{
		r.PageURL,
		r.UPC,
		r.Title,
		r.PriceInclTax,
		r.PriceExclTax,
		r.NumberAvailable,
		r.Description,
		r.Category,
		r.ReviewRating,
		r.ImageURL,
	}
}

// CrawlResult holds the overall result of one crawler run.
type CrawlResult struct {
	StartTime           time.Time
	EndTime             time.Time
	RunRoot             string
	CategoriesTotal     int
	CategoriesCompleted int
	CategoriesFailed    int
	Products            int
	Images              int
	ErrorCount          int
	FailedURLs          []string
	ErrorsByType        map[string]int
}
