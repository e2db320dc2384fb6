package parser

import (
	"strings"

	"github.com/kennygrant/sanitize"

	"github.com/aluiziolira/go-catalog-crawler/config"
	"github.com/aluiziolira/go-catalog-crawler/models"
)

// NormalizePrice removes the currency symbol and surrounding whitespace.
func NormalizePrice(price string) string {
	price = strings.TrimSpace(price)
	price = strings.ReplaceAll(price, "Â£", "")
	price = strings.ReplaceAll(price, "£", "")
	return strings.TrimSpace(price)
}

// NormalizeText collapses surrounding whitespace.
func NormalizeText(text string) string {
	return strings.TrimSpace(text)
}

// FirstDigits extracts the first run of decimal digits from free text,
// e.g. "In stock (19 available)" -> "19". ok is false when no digits exist.
func FirstDigits(text string) (string, bool) {
	start := -1
	for i, r := range text {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return text[start:i], true
		}
	}
	if start >= 0 {
		return text[start:], true
	}
	return "", false
}

// ImageFileName derives the image filename for a record under the given
// naming policy, falling back to the other source when the preferred one is
// missing. Filesystem-unsafe characters are stripped.
func ImageFileName(rec *models.ProductRecord, policy string) string {
	primary, fallback := rec.UPC, rec.Title
	if policy == config.ImageNameByTitle {
		primary, fallback = rec.Title, rec.UPC
	}

	base := primary
	if base == "" || base == models.Sentinel {
		base = fallback
	}
	base = sanitize.BaseName(base)
	if base == "" {
		base = models.Sentinel
	}
	return base + ".jpg"
}
