// Package objectstore publishes local image files to a public storage bucket.
package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	storage_go "github.com/supabase-community/storage-go"

	"catalog-ops/pkg/db"
	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/logger"
	"catalog-ops/pkg/slug"
)

var (
	ErrNoBucket     = errors.New("objectstore: no usable bucket")
	ErrNotConnected = errors.New("objectstore: not connected")
	ErrMissingFile  = errors.New("objectstore: local file missing")
	ErrEmptySlug    = errors.New("objectstore: title has no path characters")
)

// DefaultPrefix is the top level folder for uploaded images.
const DefaultPrefix = "movie_images"

// DefaultBucketPatterns lists the bucket names tried, in order.
// {project_id} is replaced with the credential's project id.
func DefaultBucketPatterns() []string {
	return []string{"{project_id}.appspot.com", "{project_id}.firebasestorage.app"}
}

// Config controls Connect.
type Config struct {
	Credentials    Credentials
	BucketPatterns []string
	MakePublic     bool
	Probe          bool
	Prefix         string
	CacheControl   string
}

// Status is the outcome of one Publish call.
type Status string

const (
	StatusPublished Status = "published"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result describes what Publish did.
type Result struct {
	Status Status
	Asset  domain.HostedAsset
	Err    error
}

// Store is a connected bucket handle.
type Store struct {
	sb           *db.SupabaseClient
	client       *storage_go.Client
	bucket       string
	prefix       string
	cacheControl string

	mu     sync.Mutex
	closed bool
}

// Connect opens the storage API and picks the first bucket that exists.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, err
	}

	sb := db.NewSupabaseClient(db.SupabaseConfig{
		SupabaseURL: cfg.Credentials.URL,
		SupabaseKey: cfg.Credentials.ServiceKey,
	})
	if err := sb.Connect(ctx); err != nil {
		return nil, errors.Wrap(err, "connect storage api")
	}
	if sb.Storage() == nil {
		return nil, errors.Wrap(ErrNotConnected, "storage client unavailable")
	}

	s := &Store{
		sb:           sb,
		client:       sb.Storage(),
		prefix:       strings.Trim(cfg.Prefix, "/"),
		cacheControl: cfg.CacheControl,
	}
	if s.prefix == "" {
		s.prefix = DefaultPrefix
	}
	if s.cacheControl == "" {
		s.cacheControl = "3600"
	}

	for _, name := range bucketCandidates(cfg) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log := logger.Log.WithField("bucket", name)
		if err := s.useBucket(name, cfg); err != nil {
			log.WithError(err).Warn("Bucket not usable")
			continue
		}
		log.Info("Connected to storage bucket")
		return s, nil
	}
	_ = sb.Close()
	return nil, ErrNoBucket
}

func bucketCandidates(cfg Config) []string {
	if cfg.Credentials.Bucket != "" {
		return []string{cfg.Credentials.Bucket}
	}
	patterns := cfg.BucketPatterns
	if len(patterns) == 0 {
		patterns = DefaultBucketPatterns()
	}
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, strings.ReplaceAll(p, "{project_id}", cfg.Credentials.ProjectID))
	}
	return out
}

func (s *Store) useBucket(name string, cfg Config) error {
	bucket, err := s.client.GetBucket(name)
	if err != nil {
		return errors.Wrap(err, "get bucket")
	}
	if cfg.MakePublic && !bucket.Public {
		if _, err := s.client.UpdateBucket(name, storage_go.BucketOptions{Public: true}); err != nil {
			return errors.Wrap(err, "make bucket public")
		}
		logger.Log.WithField("bucket", name).Info("Bucket made public")
	}
	if cfg.Probe {
		if err := s.probe(name); err != nil {
			return errors.Wrap(err, "probe upload")
		}
	}
	s.bucket = name
	return nil
}

// probe uploads a small text object and removes it again.
func (s *Store) probe(bucket string) error {
	path := fmt.Sprintf("test/connection_probe_%d_%s.txt", time.Now().Unix(), uuid.NewString())
	contentType := "text/plain"
	upsert := true
	_, err := s.client.UploadFile(bucket, path, strings.NewReader("connection probe"), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(bucket, []string{path}); err != nil {
		logger.Log.WithField("object", path).WithError(err).Warn("Failed to remove probe object")
	}
	return nil
}

// Bucket returns the bucket in use.
func (s *Store) Bucket() string {
	if s == nil {
		return ""
	}
	return s.bucket
}

// ObjectPath returns <prefix>/<slug(title)>/<label><ext of localPath>.
func (s *Store) ObjectPath(localPath, title, label string) (string, error) {
	prefix := DefaultPrefix
	if s != nil && s.prefix != "" {
		prefix = s.prefix
	}
	return ObjectPath(prefix, localPath, title, label)
}

// ObjectPath builds an object path under prefix. Titles whose slug is empty
// are refused so unrelated entries never share an object.
func ObjectPath(prefix, localPath, title, label string) (string, error) {
	dir := slug.Title(title)
	if dir == "" {
		return "", errors.Wrapf(ErrEmptySlug, "%q", title)
	}
	if label == "" {
		return "", errors.New("objectstore: empty label")
	}
	return prefix + "/" + dir + "/" + label + strings.ToLower(filepath.Ext(localPath)), nil
}

// Publish uploads localPath (overwriting any previous object) and returns
// its public URL.
func (s *Store) Publish(ctx context.Context, localPath, title, label string) Result {
	if !s.connected() {
		return Result{Status: StatusSkipped, Err: ErrNotConnected}
	}
	if fi, err := os.Stat(localPath); err != nil || fi.IsDir() {
		return Result{Status: StatusSkipped, Err: errors.Wrap(ErrMissingFile, localPath)}
	}
	if err := ctx.Err(); err != nil {
		return Result{Status: StatusFailed, Err: err}
	}

	objectPath, err := s.ObjectPath(localPath, title, label)
	if err != nil {
		return Result{Status: StatusSkipped, Err: err}
	}
	log := logger.Log.WithFields(logrus.Fields{"title": title, "label": label, "object": objectPath})

	if err := s.upload(localPath, objectPath); err != nil {
		log.WithError(err).Error("Upload failed")
		return Result{Status: StatusFailed, Err: err}
	}

	public := s.client.GetPublicUrl(s.bucket, objectPath).SignedURL
	log.WithField("url", public).Info("Uploaded image")
	return Result{
		Status: StatusPublished,
		Asset: domain.HostedAsset{
			LocalPath:  localPath,
			ObjectPath: objectPath,
			PublicURL:  public,
		},
	}
}

func (s *Store) upload(localPath, objectPath string) error {
	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		return errors.Wrap(err, "detect content type")
	}
	f, err := os.Open(localPath)
	if err != nil {
		return errors.Wrap(err, "open local file")
	}
	defer f.Close()

	contentType := mtype.String()
	upsert := true
	_, err = s.client.UploadFile(s.bucket, objectPath, f, storage_go.FileOptions{
		CacheControl: &s.cacheControl,
		ContentType:  &contentType,
		Upsert:       &upsert,
	})
	if err != nil {
		return errors.Wrapf(err, "upload %s", objectPath)
	}
	return nil
}

func (s *Store) connected() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.client != nil && s.bucket != ""
}

// Close ends the handle. Later Publish calls are skipped.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sb.Close()
}
