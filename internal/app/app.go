// Package app wires the satplot pipeline: load the catalog, select one
// satellite, sample its ground track and render it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/star/satplot/internal/basemap"
	"github.com/star/satplot/internal/config"
	"github.com/star/satplot/internal/groundtrack"
	"github.com/star/satplot/internal/metrics"
	"github.com/star/satplot/internal/observability"
	"github.com/star/satplot/internal/propagation"
	"github.com/star/satplot/internal/render"
	"github.com/star/satplot/internal/tle"
)

// Land polygons change far less often than element sets.
const basemapMaxAge = 30 * 24 * time.Hour

// Deps are the collaborators Run does not build from Config.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder // may be nil

	// Renderer overrides the one selected by cfg.Render.Mode; when set, no
	// basemap is loaded.
	Renderer render.Renderer

	Now func() time.Time // defaults to time.Now
}

// Run executes the pipeline once. Every failure is fatal and returned
// wrapped; nothing is rendered unless every sample succeeded.
func Run(ctx context.Context, cfg config.Config, deps Deps) (err error) {
	logger := deps.Logger
	ctx, span := observability.Tracer().Start(ctx, "app.Run")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "run failed")
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("satellite", cfg.Satellite),
		attribute.Int("resolution", cfg.Resolution),
	)

	loader := tle.NewLoader(tle.LoaderConfig{
		URL:      cfg.Catalog.URL,
		CacheDir: cfg.Catalog.CacheDir,
		MaxAge:   cfg.Catalog.MaxAge,
		MaxFiles: cfg.Catalog.MaxFiles,
	}, logger, deps.Metrics)

	catalog, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	entry, err := catalog.Lookup(cfg.Satellite)
	if err != nil {
		return err
	}
	logger.Info("satellite selected",
		"satellite", entry.Name,
		"norad_id", entry.NORADID,
		"epoch", entry.Epoch.Format(time.RFC3339),
	)

	prop, err := propagation.NewSGP4Propagator(entry.Line1, entry.Line2, entry.NORADID, cfg.Propagation.Gravity)
	if err != nil {
		return fmt.Errorf("initialising propagator for %s: %w", entry.Name, err)
	}

	start := cfg.Start
	if start.IsZero() {
		now := time.Now
		if deps.Now != nil {
			now = deps.Now
		}
		start = now().UTC()
	}
	grid, err := groundtrack.NewGrid(start, cfg.Horizon, cfg.Resolution)
	if err != nil {
		return err
	}

	track, err := groundtrack.Sample(ctx, groundtrack.NewSampler(prop), grid, entry.Name, groundtrack.Options{Metrics: deps.Metrics})
	if err != nil {
		return err
	}
	bounds := track.Bounds()
	logger.Info("ground track sampled",
		"satellite", track.Satellite,
		"samples", track.Len(),
		"start", grid.Start().Format(time.RFC3339),
		"end", grid.End().Format(time.RFC3339),
		"step", grid.Step().String(),
		"lat_min", bounds.MinLat,
		"lat_max", bounds.MaxLat,
	)

	renderer := deps.Renderer
	if renderer == nil {
		renderer = newRenderer(ctx, cfg, logger)
	}
	return renderTrack(ctx, renderer, string(cfg.Render.Mode), track, deps.Metrics)
}

func newRenderer(ctx context.Context, cfg config.Config, logger *slog.Logger) render.Renderer {
	var land *basemap.Land
	if cfg.Basemap.Enabled {
		land = basemap.Load(ctx, basemap.Config{
			URL:      cfg.Basemap.URL,
			CacheDir: cfg.Catalog.CacheDir,
			MaxAge:   basemapMaxAge,
			MaxFiles: 1,
		}, logger)
	}

	if cfg.Render.Mode == render.ModeTerminal {
		return render.NewTerminalRenderer(land)
	}
	return render.NewImageRenderer(cfg.Render.Output, cfg.Render.Open, land, logger)
}

func renderTrack(ctx context.Context, r render.Renderer, mode string, track *groundtrack.Track, rec *metrics.Recorder) error {
	ctx, span := observability.Tracer().Start(ctx, "render")
	defer span.End()
	span.SetAttributes(attribute.String("mode", mode))

	start := time.Now()
	if err := r.Render(ctx, track); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return fmt.Errorf("rendering %s: %w", track.Satellite, err)
	}
	rec.RenderDone(mode, time.Since(start))
	return nil
}
