package remote

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"
)

// Origin reports where a Source result came from.
type Origin string

const (
	OriginNetwork Origin = "network"
	OriginCache   Origin = "cache"
)

// Result is the payload returned by Source.Get.
type Result struct {
	Data      []byte
	Origin    Origin
	FetchedAt time.Time
}

// Source serves a remote resource, preferring a cached copy that is younger
// than MaxAge. A MaxAge of zero always goes to the network.
type Source struct {
	fetcher *Fetcher
	cache   *Cache
	maxAge  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// SourceConfig configures a Source.
type SourceConfig struct {
	URL      string
	CacheDir string // empty disables the disk cache
	Kind     string // file name stem, e.g. "tle"
	Ext      string
	MaxAge   time.Duration
	MaxFiles int
}

// NewSource builds a Source. Cache files are keyed by a hash of the URL so
// switching sources never serves another source's copy.
func NewSource(cfg SourceConfig, logger *slog.Logger) *Source {
	s := &Source{
		fetcher: NewFetcher(cfg.URL, logger),
		maxAge:  cfg.MaxAge,
		logger:  logger,
		now:     time.Now,
	}
	if cfg.CacheDir != "" {
		s.cache = NewCache(cfg.CacheDir, cachePrefix(cfg.Kind, cfg.URL), cfg.Ext, cfg.MaxFiles)
	}
	return s
}

func cachePrefix(kind, url string) string {
	h := fnv.New32a()
	h.Write([]byte(url))
	return fmt.Sprintf("%s_%08x_", kind, h.Sum32())
}

// URL returns the source URL.
func (s *Source) URL() string {
	return s.fetcher.SourceURL()
}

// Get returns a fresh cached copy when one exists, otherwise fetches the
// resource and stores it. A fetch failure is returned as-is; a stale cache
// is never used as a fallback.
func (s *Source) Get(ctx context.Context) (Result, error) {
	now := s.now()

	if s.cache != nil && s.maxAge > 0 {
		data, ts, err := s.cache.LoadLatest()
		switch {
		case err != nil:
			s.logger.Debug("no usable cache copy", "url", s.URL(), "error", err)
		case !ts.After(now) && now.Sub(ts) < s.maxAge:
			s.logger.Info("using cached copy",
				"url", s.URL(),
				"cached_at", ts.UTC().Format(time.RFC3339),
				"age_seconds", int(now.Sub(ts).Seconds()),
			)
			return Result{Data: data, Origin: OriginCache, FetchedAt: ts}, nil
		default:
			s.logger.Debug("cache copy expired or from the future", "url", s.URL(), "cached_at", ts.UTC().Format(time.RFC3339))
		}
	}

	data, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return Result{}, err
	}

	if s.cache != nil {
		if err := s.cache.Write(data, now); err != nil {
			s.logger.Warn("failed to write cache copy", "dir", s.cache.Dir(), "error", err)
		}
	}

	return Result{Data: data, Origin: OriginNetwork, FetchedAt: now}, nil
}

// Cached returns the newest cached copy regardless of age, without
// touching the network.
func (s *Source) Cached() (Result, error) {
	if s.cache == nil {
		return Result{}, fmt.Errorf("no cache directory configured for %s", s.URL())
	}
	data, ts, err := s.cache.LoadLatest()
	if err != nil {
		return Result{}, err
	}
	return Result{Data: data, Origin: OriginCache, FetchedAt: ts}, nil
}
