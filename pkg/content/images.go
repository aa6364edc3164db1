package content

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractImageURLs returns the src attribute of every <img> tag in fragment,
// in document order. Empty sources are skipped.
func ExtractImageURLs(fragment string) []string {
	if strings.TrimSpace(fragment) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var urls []string
	doc.Find("img[src]").Each(func(i int, s *goquery.Selection) {
		if src := strings.TrimSpace(s.AttrOr("src", "")); src != "" {
			urls = append(urls, src)
		}
	})
	return urls
}

// RenderImgTags builds the screenshot markup back from urls:
// one <img src="..."> per url separated by a single space.
func RenderImgTags(urls []string) string {
	tags := make([]string, 0, len(urls))
	for _, u := range urls {
		tags = append(tags, `<img src="`+html.EscapeString(u)+`">`)
	}
	return strings.Join(tags, " ")
}
