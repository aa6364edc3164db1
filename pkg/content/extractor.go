package content

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// Extractor finds the main image of an HTML page
type Extractor interface {
	LeadImage(htmlContent string, pageURL string) (string, error)
}

// DefaultExtractor implements Extractor with readability and a meta tag fallback
type DefaultExtractor struct{}

// NewDefaultExtractor creates a new default extractor
func NewDefaultExtractor() *DefaultExtractor {
	return &DefaultExtractor{}
}

// LeadImage returns the lead image of the page using the default logic
func (e *DefaultExtractor) LeadImage(htmlContent string, pageURL string) (string, error) {
	return LeadImage(htmlContent, pageURL)
}

// LeadImage extracts the page's lead image URL, resolved against pageURL.
// Readability is tried first, then og:image / twitter:image meta tags.
func LeadImage(htmlContent string, pageURL string) (string, error) {
	base, _ := url.Parse(pageURL)

	// Try readability first
	article, err := readability.FromReader(strings.NewReader(htmlContent), base)
	if err == nil {
		if img := strings.TrimSpace(article.Image); img != "" {
			return resolve(base, img), nil
		}
	}

	// Fallback: Try parsing meta tags directly with goquery
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	for _, sel := range []string{
		"meta[property='og:image']",
		"meta[property='og:image:url']",
		"meta[name='twitter:image']",
		"meta[property='twitter:image']",
	} {
		if img, exists := doc.Find(sel).First().Attr("content"); exists && strings.TrimSpace(img) != "" {
			return resolve(base, strings.TrimSpace(img)), nil
		}
	}

	return "", fmt.Errorf("lead image not found in HTML")
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
