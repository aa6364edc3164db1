// Package imagecache maps source image URLs onto files in a local cache
// directory so reruns of the rehost job do not download them again.
package imagecache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"catalog-ops/pkg/fsx"
	"catalog-ops/pkg/imaging"
	"catalog-ops/pkg/logger"
	"catalog-ops/pkg/slug"
)

// DefaultMinBytes is the smallest file accepted as a real image.
const DefaultMinBytes = 1000

const defaultExt = ".jpg"

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Store reads and writes cached images under Dir.
type Store struct {
	Dir      string
	MinBytes int64
}

func New(dir string, minBytes int64) Store {
	if minBytes <= 0 {
		minBytes = DefaultMinBytes
	}
	return Store{
		Dir:      filepath.Clean(strings.TrimSpace(dir)),
		MinBytes: minBytes,
	}
}

// Key identifies one image slot of one entry.
type Key struct {
	URL   string
	Title string
	Label string
	Index int
}

// Path returns the cache file for k:
// <slug>_<label>_<index>_<md5(url)[:10]><ext>
func (s Store) Path(k Key) string {
	sum := md5.Sum([]byte(k.URL))
	name := fmt.Sprintf("%s_%s_%d_%s%s",
		slug.Title(k.Title), k.Label, k.Index, hex.EncodeToString(sum[:])[:10], Ext(k.URL))
	return filepath.Join(s.Dir, name)
}

// Ext returns the image extension of the URL path, or .jpg.
func Ext(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if imageExts[ext] {
		return ext
	}
	return defaultExt
}

// Lookup returns a usable cached file for k. The placeholder sibling of the
// primary path counts as a hit too. Files that exist but fail verification
// are removed.
func (s Store) Lookup(k Key) (string, bool) {
	primary := s.Path(k)
	candidates := []string{primary}
	if alt := imaging.PlaceholderPath(primary); alt != primary {
		candidates = append(candidates, alt)
	}

	for _, p := range candidates {
		size, ok := fsx.Exists(p)
		if !ok {
			continue
		}
		if size > s.MinBytes {
			if _, err := imaging.VerifyFile(p); err == nil {
				return p, true
			}
		}
		logger.Log.WithField("path", p).Debug("Removing invalid cached image")
		_ = os.Remove(p)
	}
	return "", false
}

// Put stores data at the cache path of k and returns that path.
func (s Store) Put(k Key, data []byte) (string, error) {
	p := s.Path(k)
	if err := fsx.WriteFileAtomic(p, data); err != nil {
		return "", fmt.Errorf("failed to cache image: %w", err)
	}
	return p, nil
}
