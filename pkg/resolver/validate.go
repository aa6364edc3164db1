package resolver

import (
	"errors"
	"strings"
)

var (
	ErrNotHTTP          = errors.New("resolver: not an http(s) url")
	ErrSVGDataURI       = errors.New("resolver: svg data uri")
	ErrNoImageExtension = errors.New("resolver: url has no image extension")
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

const svgDataPrefix = "data:image/svg+xml"

// ValidateURL reports whether rawURL looks like a fetchable image.
// The extension may appear anywhere in the URL (proxy and CDN URLs often
// carry it in the query).
func ValidateURL(rawURL string) error {
	u := strings.TrimSpace(rawURL)
	lower := strings.ToLower(u)

	if strings.HasPrefix(lower, svgDataPrefix) {
		return ErrSVGDataURI
	}
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return ErrNotHTTP
	}
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return nil
		}
	}
	return ErrNoImageExtension
}
