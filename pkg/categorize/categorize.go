// Package categorize tags catalog entries with the marketing categories
// shown on the home page.
//
// Featured, Trending Now and Top Rated go to disjoint random subsets sized
// as a percentage of the catalog. New Release goes to every entry whose
// title carries the current or previous year in parentheses. Tags are only
// appended when absent, but the random subsets are drawn again on every
// run, so a second run adds a fresh set on top of the first.
package categorize

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"time"

	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/logger"
)

// Default subset sizes, in percent of the catalog.
const (
	DefaultFeaturedPct = 10
	DefaultTrendingPct = 15
	DefaultTopRatedPct = 12
)

// Tags names the category labels written to entries.
type Tags struct {
	Featured   string `koanf:"featured"`
	Trending   string `koanf:"trending"`
	TopRated   string `koanf:"top_rated"`
	NewRelease string `koanf:"new_release"`
}

// DefaultTags returns the standard labels.
func DefaultTags() Tags {
	return Tags{
		Featured:   "Featured",
		Trending:   "Trending Now",
		TopRated:   "Top Rated",
		NewRelease: "New Release",
	}
}

// Config controls a Categorizer. Zero years, empty tags and a zero seed fall
// back to the defaults; percentages are used as given.
type Config struct {
	FeaturedPct  int
	TrendingPct  int
	TopRatedPct  int
	CurrentYear  int
	PreviousYear int
	Tags         Tags
	// Seed makes the random subsets reproducible; 0 seeds from the clock.
	Seed int64
}

var ErrPercentages = errors.New("categorize: percentages exceed 100")

// Summary counts the entries selected for each tag. An entry that already
// carried a tag is counted but not modified.
type Summary struct {
	Total      int
	Featured   int
	Trending   int
	TopRated   int
	NewRelease int
	Changed    int
}

// Categorizer applies the category tags.
type Categorizer struct {
	cfg Config
	rng *rand.Rand
}

// DefaultConfig returns the standard percentages and tags.
func DefaultConfig() Config {
	return Config{
		FeaturedPct: DefaultFeaturedPct,
		TrendingPct: DefaultTrendingPct,
		TopRatedPct: DefaultTopRatedPct,
		Tags:        DefaultTags(),
	}
}

// New validates cfg and fills in the years, empty tags and the seed.
// Percentages are taken as given; zero disables a random set.
func New(cfg Config) (*Categorizer, error) {
	if cfg.FeaturedPct < 0 || cfg.TrendingPct < 0 || cfg.TopRatedPct < 0 {
		return nil, fmt.Errorf("categorize: negative percentage")
	}
	if cfg.FeaturedPct+cfg.TrendingPct+cfg.TopRatedPct > 100 {
		return nil, ErrPercentages
	}
	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = time.Now().Year()
	}
	if cfg.PreviousYear == 0 {
		cfg.PreviousYear = cfg.CurrentYear - 1
	}
	def := DefaultTags()
	if cfg.Tags.Featured == "" {
		cfg.Tags.Featured = def.Featured
	}
	if cfg.Tags.Trending == "" {
		cfg.Tags.Trending = def.Trending
	}
	if cfg.Tags.TopRated == "" {
		cfg.Tags.TopRated = def.TopRated
	}
	if cfg.Tags.NewRelease == "" {
		cfg.Tags.NewRelease = def.NewRelease
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Categorizer{cfg: cfg, rng: rand.New(rand.NewSource(seed))}, nil
}

// SubsetSize is floor(total * pct / 100).
func SubsetSize(total, pct int) int {
	if total <= 0 || pct <= 0 {
		return 0
	}
	return total * pct / 100
}

var yearPattern = regexp.MustCompile(`\((\d{4})\)`)

// TitleYears returns every parenthesized four digit year in title.
func TitleYears(title string) []int {
	var years []int
	for _, m := range yearPattern.FindAllStringSubmatch(title, -1) {
		if y, err := strconv.Atoi(m[1]); err == nil {
			years = append(years, y)
		}
	}
	return years
}

// IsNewRelease reports whether title names the current or previous year.
func (c *Categorizer) IsNewRelease(title string) bool {
	for _, y := range TitleYears(title) {
		if y == c.cfg.CurrentYear || y == c.cfg.PreviousYear {
			return true
		}
	}
	return false
}

// Apply tags entries in place.
func (c *Categorizer) Apply(entries []domain.Entry) Summary {
	s := Summary{Total: len(entries)}
	changed := make(map[int]bool)

	// One permutation, cut into consecutive runs, keeps the sets disjoint.
	perm := c.rng.Perm(len(entries))
	nf := SubsetSize(len(entries), c.cfg.FeaturedPct)
	nt := SubsetSize(len(entries), c.cfg.TrendingPct)
	nr := SubsetSize(len(entries), c.cfg.TopRatedPct)

	tag := func(idx []int, label string) int {
		for _, i := range idx {
			if entries[i].AddCategory(label) {
				changed[i] = true
			}
		}
		return len(idx)
	}
	s.Featured = tag(perm[:nf], c.cfg.Tags.Featured)
	s.Trending = tag(perm[nf:nf+nt], c.cfg.Tags.Trending)
	s.TopRated = tag(perm[nf+nt:nf+nt+nr], c.cfg.Tags.TopRated)

	for i, e := range entries {
		if !c.IsNewRelease(e.Title()) {
			continue
		}
		s.NewRelease++
		if e.AddCategory(c.cfg.Tags.NewRelease) {
			changed[i] = true
		}
	}

	s.Changed = len(changed)
	logger.Log.Infof("Categorized %d entries: %d featured, %d trending, %d top rated, %d new releases",
		s.Total, s.Featured, s.Trending, s.TopRated, s.NewRelease)
	return s
}

// CategoryStore persists the category list of an entry by title.
// *db.Client implements it.
type CategoryStore interface {
	SetCategories(ctx context.Context, kind domain.Kind, title string, categories []string) (bool, error)
}

// Sync writes the categories of entries back to store. It returns how many
// documents matched and the first error; other entries are still attempted.
func Sync(ctx context.Context, store CategoryStore, kind domain.Kind, entries []domain.Entry) (int, error) {
	var firstErr error
	matched := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return matched, err
		}
		title := e.Title()
		if title == "" {
			continue
		}
		ok, err := store.SetCategories(ctx, kind, title, e.Categories())
		if err != nil {
			logger.Log.WithField("title", title).WithError(err).Error("Failed to sync categories")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			matched++
		} else {
			logger.Log.WithField("title", title).Debug("No document to sync categories to")
		}
	}
	return matched, firstErr
}
