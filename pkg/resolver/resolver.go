// Package resolver turns a catalog image URL into a local image file.
//
// The original URL is tried first, then the configured rewrite rules.
// Every accepted body is verified and cached. When nothing works a
// placeholder poster is rendered instead so the entry still gets an image.
package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"catalog-ops/pkg/content"
	"catalog-ops/pkg/domain"
	"catalog-ops/pkg/httpclient"
	"catalog-ops/pkg/imagecache"
	"catalog-ops/pkg/imaging"
	"catalog-ops/pkg/logger"
)

// Status is the outcome of one Resolve call.
type Status string

const (
	StatusCached      Status = "cached"
	StatusDownloaded  Status = "downloaded"
	StatusPlaceholder Status = "placeholder"
	StatusRejected    Status = "rejected"
	StatusFailed      Status = "failed"
)

var (
	ErrHTTPStatus   = errors.New("resolver: unexpected http status")
	ErrHTMLResponse = errors.New("resolver: got an html page")
	ErrTooSmall     = errors.New("resolver: response too small")
	ErrNotImage     = errors.New("resolver: response is not an image")
)

// maxBody caps how much of a response is read.
const maxBody = 32 << 20

// Result describes what Resolve did. Path is set for cached, downloaded and
// placeholder results.
type Result struct {
	Status   Status
	Path     string
	Source   string
	Attempts []domain.ImageAttempt
	Err      error
}

// OK reports whether Path holds a usable image.
func (r Result) OK() bool {
	switch r.Status {
	case StatusCached, StatusDownloaded, StatusPlaceholder:
		return true
	}
	return false
}

// Fetcher performs the HTTP GETs. *httpclient.HTTPClient implements it.
type Fetcher interface {
	GetContext(ctx context.Context, url string) (*http.Response, error)
}

// Config controls a Resolver. Client is the header profile for image
// requests and defaults to the image profile. Seed drives the placeholder
// noise; 0 seeds from the clock.
type Config struct {
	CacheDir     string
	MinBytes     int64
	AttemptDelay time.Duration
	Timeout      time.Duration
	FollowHTML   bool
	Client       httpclient.ClientType
	Rewrites     []Rule
	Seed         int64
}

// Resolver fetches images with fallbacks. It is safe for sequential use by
// one goroutine; the placeholder generator is guarded for concurrent callers.
type Resolver struct {
	cache      imagecache.Store
	client     Fetcher
	pages      Fetcher
	extractor  content.Extractor
	rules      []compiledRule
	limiter    *rate.Limiter
	minBytes   int64
	followHTML bool

	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a Resolver that fetches images with the cfg.Client header profile.
// HTML pages met while following lead images are requested again with the
// browser profile.
func New(cfg Config) (*Resolver, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	clientType, err := httpclient.ParseClientType(string(cfg.Client))
	if err != nil {
		return nil, err
	}
	r, err := NewWithFetcher(cfg, httpclient.NewClient(clientType, timeout))
	if err != nil {
		return nil, err
	}
	if clientType != httpclient.BrowserClient {
		r.pages = httpclient.NewClient(httpclient.BrowserClient, timeout)
	}
	return r, nil
}

// NewWithFetcher builds a Resolver around an existing Fetcher. HTML pages
// are not requested again.
func NewWithFetcher(cfg Config, client Fetcher) (*Resolver, error) {
	rules, err := compileRules(cfg.Rewrites)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if cfg.AttemptDelay > 0 {
		limit = rate.Every(cfg.AttemptDelay)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	cache := imagecache.New(cfg.CacheDir, cfg.MinBytes)
	return &Resolver{
		cache:      cache,
		client:     client,
		extractor:  content.NewDefaultExtractor(),
		rules:      rules,
		limiter:    rate.NewLimiter(limit, 1),
		minBytes:   cache.MinBytes,
		followHTML: cfg.FollowHTML,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// SetExtractor replaces the lead image extractor used for HTML candidates
func (r *Resolver) SetExtractor(extractor content.Extractor) {
	r.extractor = extractor
}

// Resolve returns a local file for rawURL. label and index identify the
// image slot of the entry (e.g. "featured", 0 or "screenshot_2", 2).
// It never returns an error value; failures are described by Result.
func (r *Resolver) Resolve(ctx context.Context, rawURL, title, label string, index int) Result {
	rawURL = strings.TrimSpace(rawURL)
	log := logger.Log.WithFields(logrus.Fields{"title": title, "label": label, "url": rawURL})

	if err := ValidateURL(rawURL); err != nil {
		log.WithError(err).Info("Skipping invalid image URL")
		return Result{Status: StatusRejected, Source: rawURL, Err: err}
	}

	key := imagecache.Key{URL: rawURL, Title: title, Label: label, Index: index}
	if path, ok := r.cache.Lookup(key); ok {
		log.WithField("path", path).Debug("Using cached image")
		return Result{Status: StatusCached, Path: path, Source: rawURL}
	}

	queue := candidates(rawURL, r.rules)
	followed := false
	var attempts []domain.ImageAttempt

	for i := 0; i < len(queue); i++ {
		candidate := queue[i]
		if err := r.limiter.Wait(ctx); err != nil {
			return Result{Status: StatusFailed, Source: rawURL, Attempts: attempts, Err: err}
		}

		log.WithField("candidate", candidate).Debug("Trying image URL")
		body, page, err := r.fetch(ctx, candidate)
		attempts = append(attempts, domain.ImageAttempt{URL: candidate, Bytes: int64(len(body)), Err: err})

		if errors.Is(err, ErrHTMLResponse) && r.followHTML && !followed {
			followed = true
			page = r.pageFor(ctx, candidate, page)
			if lead := r.leadImage(page, candidate); lead != "" && !contains(queue, lead) {
				log.WithField("lead", lead).Debug("Following lead image of HTML page")
				queue = append(queue, lead)
			}
		}
		if err != nil {
			log.WithField("candidate", candidate).WithError(err).Info("Image attempt failed")
			if ctx.Err() != nil {
				return Result{Status: StatusFailed, Source: rawURL, Attempts: attempts, Err: ctx.Err()}
			}
			continue
		}

		path, err := r.cache.Put(key, body)
		if err != nil {
			return Result{Status: StatusFailed, Source: candidate, Attempts: attempts, Err: err}
		}
		log.WithField("candidate", candidate).Info("Downloaded image")
		return Result{Status: StatusDownloaded, Path: path, Source: candidate, Attempts: attempts}
	}

	log.Warn("All download attempts failed, generating placeholder")
	path, err := r.placeholder(r.cache.Path(key), title)
	if err != nil {
		return Result{Status: StatusFailed, Source: rawURL, Attempts: attempts, Err: err}
	}
	return Result{Status: StatusPlaceholder, Path: path, Source: rawURL, Attempts: attempts}
}

// fetch downloads one candidate and checks it is an acceptable image.
// For HTML responses the page body is returned as page.
func (r *Resolver) fetch(ctx context.Context, url string) (body []byte, page []byte, err error) {
	resp, err := r.client.GetContext(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if isHTML(resp.Header.Get("Content-Type"), data) {
		return nil, data, ErrHTMLResponse
	}
	if int64(len(data)) < r.minBytes {
		return data, nil, fmt.Errorf("%w: %d bytes", ErrTooSmall, len(data))
	}
	if _, err := imaging.Verify(data); err != nil {
		return data, nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return data, nil, nil
}

// pageFor re-requests pageURL with the browser profile, since some hosts
// only serve full markup to clients asking for HTML. The page already
// fetched is kept when that request fails.
func (r *Resolver) pageFor(ctx context.Context, pageURL string, page []byte) []byte {
	if r.pages == nil || r.limiter.Wait(ctx) != nil {
		return page
	}
	resp, err := r.pages.GetContext(ctx, pageURL)
	if err != nil {
		return page
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return page
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil || len(data) == 0 {
		return page
	}
	return data
}

func (r *Resolver) leadImage(page []byte, pageURL string) string {
	if len(page) == 0 || r.extractor == nil {
		return ""
	}
	lead, err := r.extractor.LeadImage(string(page), pageURL)
	if err != nil || ValidateURL(lead) != nil {
		return ""
	}
	return lead
}

func (r *Resolver) placeholder(path, title string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return imaging.WritePlaceholder(path, title, r.rng)
}

func isHTML(contentType string, data []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "image/") {
		return false
	}
	if strings.Contains(ct, "text/html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(data[:min(len(data), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
