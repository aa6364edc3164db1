package filter

import (
	"context"
	"fmt"

	"catalog-ops/pkg/domain"
)

// Filter defines the interface for catalog entry filtering
type Filter interface {
	ShouldKeep(ctx context.Context, entry domain.Entry) (bool, error)
}

// FilterEntries applies all filters to a list of entries
func FilterEntries(ctx context.Context, entries []domain.Entry, filters ...Filter) ([]domain.Entry, error) {
	filtered := make([]domain.Entry, 0, len(entries))

	for _, entry := range entries {
		keep := true
		for _, f := range filters {
			shouldKeep, err := f.ShouldKeep(ctx, entry)
			if err != nil {
				return nil, fmt.Errorf("filter error for entry %q: %w", entry.Title(), err)
			}
			if !shouldKeep {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, entry)
		}
	}

	return filtered, nil
}

// TitledFilter filters out entries without a title
type TitledFilter struct{}

// NewTitledFilter creates a new titled filter
func NewTitledFilter() *TitledFilter {
	return &TitledFilter{}
}

// ShouldKeep returns false if the entry has no title
func (f *TitledFilter) ShouldKeep(ctx context.Context, entry domain.Entry) (bool, error) {
	return entry.Title() != "", nil
}

// AlreadyStoredFilter filters out entries whose title is already in the provided set
type AlreadyStoredFilter struct {
	storedTitles map[string]bool
}

// NewAlreadyStoredFilter creates a new already-stored filter
func NewAlreadyStoredFilter(storedTitles map[string]bool) *AlreadyStoredFilter {
	return &AlreadyStoredFilter{
		storedTitles: storedTitles,
	}
}

// ShouldKeep returns false if the title is already in the stored set
func (f *AlreadyStoredFilter) ShouldKeep(ctx context.Context, entry domain.Entry) (bool, error) {
	return !f.storedTitles[entry.Title()], nil
}

// DuplicateTitleFilter keeps only the first entry of each title.
// It is stateful; use a fresh one per run.
type DuplicateTitleFilter struct {
	seen map[string]bool
}

// NewDuplicateTitleFilter creates a new duplicate title filter
func NewDuplicateTitleFilter() *DuplicateTitleFilter {
	return &DuplicateTitleFilter{seen: make(map[string]bool)}
}

// ShouldKeep returns false for a title that was already kept
func (f *DuplicateTitleFilter) ShouldKeep(ctx context.Context, entry domain.Entry) (bool, error) {
	t := entry.Title()
	if f.seen[t] {
		return false, nil
	}
	f.seen[t] = true
	return true, nil
}
