// Package slug turns catalog titles into file and object path segments.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen is the maximum slug length in runes.
const MaxLen = 50

// Title returns the slug for a title: accents folded, everything except
// letters, digits and spaces dropped, spaces turned into underscores,
// lower cased and cut to MaxLen runes.
//
// "Spider-Man: No Way Home (2021)" -> "spiderman_no_way_home_2021"
func Title(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}

	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_"))
	if r := []rune(s); len(r) > MaxLen {
		s = string(r[:MaxLen])
	}
	return s
}
