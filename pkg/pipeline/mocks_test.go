package pipeline

import (
	"context"
	"sync"

	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/objectstore"
	"catalog-ops/pkg/resolver"
)

// mockResolver is a mock implementation of ImageResolver for testing
type mockResolver struct {
	mu      sync.Mutex
	results map[string]resolver.Result // URL -> Result
	calls   []string                   // labels in call order
}

func (m *mockResolver) Resolve(ctx context.Context, url, title, label string, index int) resolver.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, label)
	if res, ok := m.results[url]; ok {
		return res
	}
	// Default: pretend the image was downloaded to a file named after the label
	return resolver.Result{Status: resolver.StatusDownloaded, Path: "/cache/" + label + ".jpg", Source: url}
}

// mockPublisher is a mock implementation of Publisher for testing
type mockPublisher struct {
	mu        sync.Mutex
	fail      map[string]bool // label -> fail
	published []string
}

func (m *mockPublisher) Publish(ctx context.Context, localPath, title, label string) objectstore.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[label] {
		return objectstore.Result{Status: objectstore.StatusFailed, Err: context.DeadlineExceeded}
	}
	m.published = append(m.published, label)
	return objectstore.Result{
		Status: objectstore.StatusPublished,
		Asset: domain.HostedAsset{
			LocalPath:  localPath,
			ObjectPath: "movie_images/x/" + label,
			PublicURL:  "https://cdn.test/" + title + "/" + label,
		},
	}
}

// funcProcessor adapts a function to EntryProcessor
type funcProcessor func(ctx context.Context, entry domain.Entry) (domain.Entry, EntryReport, error)

func (f funcProcessor) ProcessEntry(ctx context.Context, entry domain.Entry, name string) (domain.Entry, EntryReport, error) {
	return f(ctx, entry)
}

// pathPublisher builds real object paths and records them
type pathPublisher struct {
	paths []string
}

func (m *pathPublisher) Publish(ctx context.Context, localPath, title, label string) objectstore.Result {
	path, err := objectstore.ObjectPath(objectstore.DefaultPrefix, localPath, title, label)
	if err != nil {
		return objectstore.Result{Status: objectstore.StatusSkipped, Err: err}
	}
	m.paths = append(m.paths, path)
	return objectstore.Result{
		Status: objectstore.StatusPublished,
		Asset:  domain.HostedAsset{LocalPath: localPath, ObjectPath: path, PublicURL: "https://cdn.test/" + path},
	}
}
