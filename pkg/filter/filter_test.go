package filter

import (
	"context"
	"errors"
	"testing"

	"catalog-ops/pkg/domain"
)

type errFilter struct{}

func (errFilter) ShouldKeep(ctx context.Context, entry domain.Entry) (bool, error) {
	return false, errors.New("boom")
}

func titles(entries []domain.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title()
	}
	return out
}

func TestFilterEntries(t *testing.T) {
	entries := []domain.Entry{
		{"title": "A"},
		{"title": "  "},
		{"image": "x.jpg"},
		{"title": "B"},
		{"title": "C"},
		{"title": "A"},
	}
	stored := map[string]bool{"B": true}

	got, err := FilterEntries(context.Background(), entries,
		NewTitledFilter(), NewAlreadyStoredFilter(stored), NewDuplicateTitleFilter())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"A", "C"}
	if g := titles(got); len(g) != len(want) || g[0] != want[0] || g[1] != want[1] {
		t.Errorf("FilterEntries = %v, want %v", g, want)
	}
}

func TestFilterEntries_NoFilters(t *testing.T) {
	entries := []domain.Entry{{"title": "A"}, {}}
	got, err := FilterEntries(context.Background(), entries)
	if err != nil || len(got) != 2 {
		t.Errorf("expected all entries kept, got %v, %v", got, err)
	}
}

func TestFilterEntries_Error(t *testing.T) {
	if _, err := FilterEntries(context.Background(), []domain.Entry{{"title": "A"}}, errFilter{}); err == nil {
		t.Fatal("expected filter error")
	}
}
