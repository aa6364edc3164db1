package uploader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/worker"
)

type mockStore struct {
	mu       sync.Mutex
	existing map[string]bool
	listErr  error
	inserted []string
	upserted []string
}

func (m *mockStore) InsertEntry(ctx context.Context, kind domain.Kind, entry domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, entry.Title())
	return nil
}

func (m *mockStore) UpsertEntry(ctx context.Context, kind domain.Kind, entry domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, entry.Title())
	return nil
}

func (m *mockStore) GetAllTitles(ctx context.Context, kind domain.Kind) (map[string]bool, error) {
	return m.existing, m.listErr
}

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestService_Upload(t *testing.T) {
	// Test Case 1: Every titled entry is inserted
	// Input: three entries, one without a title
	// Expected Output: two inserts
	store := &mockStore{}
	svc := NewService(Config{Store: store, WorkerCount: 2, Mode: worker.ModeInsert})

	path := writeCatalog(t, `[{"title":"A"},{"title":"B"},{"image":"x.jpg"}]`)
	summary, err := svc.Upload(context.Background(), path, domain.KindMovies)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sort.Strings(store.inserted)
	if summary.Succeeded != 2 || len(store.inserted) != 2 || store.inserted[0] != "A" {
		t.Errorf("unexpected upload: %+v %v", summary, store.inserted)
	}
}

func TestService_Upload_SkipExisting(t *testing.T) {
	// Test Case 2: Stored titles and duplicates are skipped
	// Input: A already stored, C listed twice
	// Expected Output: B and C upserted once each
	store := &mockStore{existing: map[string]bool{"A": true}}
	svc := NewService(Config{Store: store, WorkerCount: 1, Mode: worker.ModeUpsert, SkipExisting: true})

	path := writeCatalog(t, `[{"title":"A"},{"title":"B"},{"title":"C"},{"title":"C"}]`)
	summary, err := svc.Upload(context.Background(), path, domain.KindMovies)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Succeeded != 2 || len(store.upserted) != 2 || len(store.inserted) != 0 {
		t.Errorf("unexpected upload: %+v %v", summary, store.upserted)
	}
}

func TestService_Upload_MaxEntries(t *testing.T) {
	// Test Case 3: Uploads are capped at MaxEntries
	store := &mockStore{}
	svc := NewService(Config{Store: store, WorkerCount: 1, MaxEntries: 1})

	path := writeCatalog(t, `[{"title":"A"},{"title":"B"}]`)
	if _, err := svc.Upload(context.Background(), path, domain.KindMovies); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.inserted) != 1 || store.inserted[0] != "A" {
		t.Errorf("expected only A, got %v", store.inserted)
	}
}

func TestService_Upload_Errors(t *testing.T) {
	// Test Case 4: Missing file and title lookup failures are reported
	svc := NewService(Config{Store: &mockStore{}, WorkerCount: 1})
	if _, err := svc.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.json"), domain.KindMovies); err == nil {
		t.Error("expected error for missing file")
	}

	store := &mockStore{listErr: errors.New("db down")}
	svc = NewService(Config{Store: store, WorkerCount: 1, SkipExisting: true})
	if _, err := svc.UploadEntries(context.Background(), domain.KindMovies, []domain.Entry{{"title": "A"}}); err == nil {
		t.Error("expected error when stored titles cannot be read")
	}
}

func TestService_Upload_Empty(t *testing.T) {
	// Test Case 5: An empty catalog uploads nothing and is not an error
	store := &mockStore{}
	svc := NewService(Config{Store: store, WorkerCount: 1})
	summary, err := svc.Upload(context.Background(), writeCatalog(t, `[]`), domain.KindSeries)
	if err != nil || summary.Succeeded != 0 {
		t.Errorf("unexpected result: %+v %v", summary, err)
	}
}
