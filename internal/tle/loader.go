package tle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/star/satplot/internal/metrics"
	"github.com/star/satplot/internal/observability"
	"github.com/star/satplot/internal/remote"
)

// ErrEmptyCatalog is returned when a download parses to zero entries.
var ErrEmptyCatalog = errors.New("catalog contains no valid TLE entries")

// LoaderConfig configures where a Loader gets its catalog from.
type LoaderConfig struct {
	URL      string
	CacheDir string // empty disables the disk cache
	MaxAge   time.Duration
	MaxFiles int
}

// Loader fetches (or reads a fresh cached copy of) a TLE catalog and
// builds a Catalog from it.
type Loader struct {
	source  *remote.Source
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// NewLoader builds a Loader. rec may be nil.
func NewLoader(cfg LoaderConfig, logger *slog.Logger, rec *metrics.Recorder) *Loader {
	return &Loader{
		source: remote.NewSource(remote.SourceConfig{
			URL:      cfg.URL,
			CacheDir: cfg.CacheDir,
			Kind:     "tle",
			Ext:      ".txt",
			MaxAge:   cfg.MaxAge,
			MaxFiles: cfg.MaxFiles,
		}, logger),
		logger:  logger,
		metrics: rec,
	}
}

// Load returns the parsed catalog. Fetch failures are fatal; there is no
// fallback to an expired cache copy.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	ctx, span := observability.Tracer().Start(ctx, "tle.Load")
	defer span.End()

	res, err := l.source.Get(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("loading catalog from %s: %w", l.source.URL(), err)
	}

	cat, err := l.build(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("tle.origin", string(res.Origin)),
		attribute.Int("tle.entries", cat.Len()),
	)
	return cat, nil
}

// LoadCached builds the catalog from the newest cached copy, whatever its
// age, and never touches the network.
func (l *Loader) LoadCached() (*Catalog, error) {
	res, err := l.source.Cached()
	if err != nil {
		return nil, fmt.Errorf("reading cached catalog for %s: %w", l.source.URL(), err)
	}
	return l.build(res)
}

func (l *Loader) build(res remote.Result) (*Catalog, error) {
	entries, err := Parse(bytes.NewReader(res.Data), l.logger)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", l.source.URL(), ErrEmptyCatalog)
	}

	cat := NewCatalog(l.source.URL(), res.FetchedAt, entries)
	l.metrics.CatalogLoaded(string(res.Origin), cat.Len())

	epochs := cat.EpochRange()
	l.logger.Info("catalog loaded",
		"source", cat.Source(),
		"origin", res.Origin,
		"entries", cat.Len(),
		"named", len(cat.byName),
		"epoch_min", epochs.Min.Format(time.RFC3339),
		"epoch_max", epochs.Max.Format(time.RFC3339),
	)

	return cat, nil
}
