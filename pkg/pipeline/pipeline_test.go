package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"catalog-ops/pkg/catalog"
	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/resolver"
)

func makeEntries(n int) []domain.Entry {
	entries := make([]domain.Entry, n)
	for i := range entries {
		entries[i] = domain.Entry{
			"title": fmt.Sprintf("Movie %d", i),
			"image": fmt.Sprintf("https://src.test/%d.jpg", i),
		}
	}
	return entries
}

// Test Case 1: TestPipeline_Run_NoProcessor
// Input: Pipeline without a processor
// Expected Output: Error "entry processor is not set"
func TestPipeline_Run_NoProcessor(t *testing.T) {
	p := NewPipeline(nil, Config{Output: filepath.Join(t.TempDir(), "out.json")})

	_, _, err := p.Run(context.Background(), makeEntries(1))
	if err == nil || err.Error() != "entry processor is not set" {
		t.Fatalf("expected 'entry processor is not set', got %v", err)
	}
}

// Test Case 2: TestPipeline_Run_RehostsAndCheckpoints
// Input: 7 entries, checkpoint every 3, mock resolver and publisher
// Expected Output: all image fields hosted, output file holds all 7 entries
func TestPipeline_Run_RehostsAndCheckpoints(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	p := RehostPipelineBuilder(&mockResolver{}, &mockPublisher{}, Config{Output: out, CheckpointEvery: 3})

	processed, stats, err := p.Run(context.Background(), makeEntries(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(processed) != 7 || stats.Entries != 7 || stats.Updated != 7 || stats.Published != 7 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.Resolved[resolver.StatusDownloaded] != 7 {
		t.Errorf("resolved = %v", stats.Resolved)
	}

	written, err := catalog.Load(out, domain.KindMovies)
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	if len(written) != 7 || written[6].Image() != "https://cdn.test/Movie 6/main" {
		t.Errorf("unexpected output: %v", written)
	}
}

// Test Case 3: TestPipeline_Run_EntryErrorKeepsOriginal
// Input: processor fails on the second entry and panics on the third
// Expected Output: originals kept in order, EntryErrors = 2, no run error
func TestPipeline_Run_EntryErrorKeepsOriginal(t *testing.T) {
	calls := 0
	proc := funcProcessor(func(ctx context.Context, entry domain.Entry) (domain.Entry, EntryReport, error) {
		calls++
		switch calls {
		case 2:
			return nil, EntryReport{}, errors.New("boom")
		case 3:
			panic("unexpected")
		}
		e := entry.Clone()
		e["image"] = "hosted"
		return e, EntryReport{Fields: []string{"image"}}, nil
	})

	entries := makeEntries(4)
	p := NewPipeline(proc, Config{Output: filepath.Join(t.TempDir(), "out.json"), CheckpointEvery: 10})
	processed, stats, err := p.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.EntryErrors != 2 || stats.Updated != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if processed[1].Image() != entries[1].Image() || processed[2].Image() != entries[2].Image() {
		t.Error("failed entries should keep their original values")
	}
	if processed[0].Image() != "hosted" || processed[3].Image() != "hosted" {
		t.Error("successful entries should be updated")
	}
}

// Test Case 4: TestPipeline_Run_CancelWritesCheckpoint
// Input: 10 entries, checkpoint every 4, context cancelled while entry 6 is processed
// Expected Output: context.Canceled, checkpoint holds the 5 finished entries and parses
func TestPipeline_Run_CancelWritesCheckpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	proc := funcProcessor(func(ctx2 context.Context, entry domain.Entry) (domain.Entry, EntryReport, error) {
		calls++
		if calls == 6 {
			cancel()
			return nil, EntryReport{}, ctx2.Err()
		}
		return entry.Clone(), EntryReport{}, nil
	})

	out := filepath.Join(t.TempDir(), "out.json")
	p := NewPipeline(proc, Config{Output: out, CheckpointEvery: 4})

	processed, _, err := p.Run(ctx, makeEntries(10))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(processed) != 5 {
		t.Errorf("expected 5 processed entries, got %d", len(processed))
	}

	written, err := catalog.Load(out, domain.KindMovies)
	if err != nil {
		t.Fatalf("checkpoint does not parse: %v", err)
	}
	if len(written) != 5 {
		t.Errorf("checkpoint holds %d entries, want 5", len(written))
	}
}

// Test Case 5: TestPipeline_Run_Empty
// Input: no entries
// Expected Output: an empty JSON array is written
func TestPipeline_Run_Empty(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	p := NewPipeline(funcProcessor(nil), Config{Output: out})

	if _, _, err := p.Run(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	written, err := catalog.Load(out, domain.KindMovies)
	if err != nil || len(written) != 0 {
		t.Errorf("expected empty catalog, got %v, %v", written, err)
	}
}

// Test Case 6: TestPipeline_Run_UntitledEntriesGetDistinctNames
// Input: two entries without a usable title and different featured images
// Expected Output: each entry is published under its own positional name and object path
func TestPipeline_Run_UntitledEntriesGetDistinctNames(t *testing.T) {
	pub := &pathPublisher{}
	p := RehostPipelineBuilder(&mockResolver{}, pub, Config{Output: filepath.Join(t.TempDir(), "out.json")})

	entries := []domain.Entry{
		{"featured_image": "https://src.test/a.jpg"},
		{"title": "?!", "featured_image": "https://src.test/b.jpg"},
	}
	processed, _, err := p.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"movie_images/entry_1/featured.jpg", "movie_images/entry_2/featured.jpg"}
	if len(pub.paths) != 2 || pub.paths[0] != want[0] || pub.paths[1] != want[1] {
		t.Errorf("object paths = %v, want %v", pub.paths, want)
	}
	if processed[0].FeaturedImage() == processed[1].FeaturedImage() {
		t.Errorf("untitled entries share hosted URL %q", processed[0].FeaturedImage())
	}
	if _, ok := processed[0]["title"]; ok {
		t.Error("the positional name must not be written into the entry")
	}
}

func TestEntryName(t *testing.T) {
	cases := []struct {
		entry domain.Entry
		i     int
		want  string
	}{
		{domain.Entry{"title": "Dune"}, 0, "Dune"},
		{domain.Entry{}, 4, "Entry 5"},
		{domain.Entry{"title": "  "}, 0, "Entry 1"},
		{domain.Entry{"title": "***"}, 1, "Entry 2"},
	}
	for _, c := range cases {
		if got := EntryName(c.entry, c.i); got != c.want {
			t.Errorf("EntryName(%v, %d) = %q, want %q", c.entry, c.i, got, c.want)
		}
	}
}
