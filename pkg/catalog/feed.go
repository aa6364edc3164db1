package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"catalog-ops/pkg/domain"
)

// FeedParser turns an RSS, Atom or JSON feed into catalog entries.
type FeedParser struct {
	feedParser *gofeed.Parser
}

// NewFeedParser creates a new feed parser
func NewFeedParser() *FeedParser {
	return &FeedParser{
		feedParser: gofeed.NewParser(),
	}
}

// FromFeed parses the feed at src (an http(s) URL or a file path) with a
// default parser.
func FromFeed(ctx context.Context, src string) ([]domain.Entry, error) {
	return NewFeedParser().Parse(ctx, src)
}

// Parse fetches and parses the feed at src.
func (p *FeedParser) Parse(ctx context.Context, src string) ([]domain.Entry, error) {
	var (
		feed *gofeed.Feed
		err  error
	)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		feed, err = p.feedParser.ParseURLWithContext(src, ctx)
	} else {
		var f *os.File
		f, err = os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("failed to open feed: %w", err)
		}
		defer f.Close()
		feed, err = p.feedParser.Parse(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	if feed == nil || len(feed.Items) == 0 {
		return nil, fmt.Errorf("feed contains no items")
	}

	entries := make([]domain.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if e := entryFromItem(item); e != nil {
			entries = append(entries, e)
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no titled items found in feed")
	}

	return entries, nil
}

func entryFromItem(item *gofeed.Item) domain.Entry {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	e := domain.Entry{domain.FieldTitle: title}
	if item.Link != "" {
		e["link"] = item.Link
	}
	if d := strings.TrimSpace(item.Description); d != "" {
		e["description"] = d
	}
	if item.PublishedParsed != nil {
		e["published"] = item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if img := itemImage(item); img != "" {
		e[domain.FieldFeaturedImage] = img
		e[domain.FieldImage] = img
	}
	if len(item.Categories) > 0 {
		cats := make([]string, 0, len(item.Categories))
		for _, c := range item.Categories {
			if c = strings.TrimSpace(c); c != "" {
				cats = append(cats, c)
			}
		}
		e[domain.FieldCategory] = cats
	}
	return e
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

// Merge appends the incoming entries whose title is not already present.
// It returns the merged list and how many entries were added.
func Merge(existing, incoming []domain.Entry) ([]domain.Entry, int) {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.Title()] = true
	}

	merged := append([]domain.Entry(nil), existing...)
	added := 0
	for _, e := range incoming {
		t := e.Title()
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		merged = append(merged, e)
		added++
	}
	return merged, added
}
