package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/star/satplot/internal/config"
	"github.com/star/satplot/internal/groundtrack"
	"github.com/star/satplot/internal/metrics"
	"github.com/star/satplot/internal/propagation"
	"github.com/star/satplot/internal/render"
	"github.com/star/satplot/internal/tle"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

const catalogBody = "ISS (ZARYA)\n" +
	"1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005\n" +
	"2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09\n" +
	"BROKEN SAT\n" +
	"1 99999U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005\n" +
	"2 99999  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000\n"

type captureRenderer struct {
	calls int
	track *groundtrack.Track
}

func (c *captureRenderer) Render(ctx context.Context, track *groundtrack.Track) error {
	c.calls++
	c.track = track
	return nil
}

func testConfig(t *testing.T, url string) config.Config {
	t.Helper()
	return config.Config{
		Satellite:  "ISS (ZARYA)",
		Resolution: 240,
		Horizon:    24 * time.Hour,
		Start:      time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC),
		Catalog: config.CatalogConfig{
			URL:      url,
			CacheDir: t.TempDir(),
			MaxAge:   time.Hour,
			MaxFiles: 2,
		},
		Propagation: config.PropagationConfig{Gravity: propagation.GravityWGS72},
		Render: config.RenderConfig{
			Mode:   render.ModeImage,
			Output: filepath.Join(t.TempDir(), "track.png"),
		},
	}
}

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catalogBody))
	}))
	t.Cleanup(server.Close)
	return server
}

func newRecorder(t *testing.T) *metrics.Recorder {
	t.Helper()
	rec, err := metrics.NewRecorder(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestRun(t *testing.T) {
	server := newCatalogServer(t)
	cfg := testConfig(t, server.URL)
	rec := newRecorder(t)
	r := &captureRenderer{}

	if err := Run(context.Background(), cfg, Deps{Logger: testLogger, Metrics: rec, Renderer: r}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if r.calls != 1 {
		t.Fatalf("renderer called %d times, want 1", r.calls)
	}
	if r.track.Satellite != "ISS (ZARYA)" || r.track.Len() != 240 {
		t.Errorf("rendered track %q with %d points", r.track.Satellite, r.track.Len())
	}
	if last := r.track.Points[r.track.Len()-1].Time; !last.Equal(cfg.Start.Add(cfg.Horizon)) {
		t.Errorf("last sample at %v, want %v", last, cfg.Start.Add(cfg.Horizon))
	}
	if got := testutil.ToFloat64(rec.Samples); got != 240 {
		t.Errorf("samples = %v, want 240", got)
	}
	if got := testutil.ToFloat64(rec.CatalogLoads.WithLabelValues("network")); got != 1 {
		t.Errorf("catalog loads{network} = %v, want 1", got)
	}
}

// TestRunMissingSatelliteFailsBeforeSampling checks the lookup error
// surfaces and that no sample is computed or rendered.
func TestRunMissingSatelliteFailsBeforeSampling(t *testing.T) {
	server := newCatalogServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Satellite = "KEPLER-1 (CASE)"
	rec := newRecorder(t)
	r := &captureRenderer{}

	err := Run(context.Background(), cfg, Deps{Logger: testLogger, Metrics: rec, Renderer: r})
	if !errors.Is(err, tle.ErrSatelliteNotFound) {
		t.Fatalf("Run error = %v, want ErrSatelliteNotFound", err)
	}
	if r.calls != 0 {
		t.Error("renderer called after lookup failure")
	}
	if got := testutil.ToFloat64(rec.Samples); got != 0 {
		t.Errorf("samples = %v, want 0", got)
	}
	if got := testutil.ToFloat64(rec.PropagationFailures); got != 0 {
		t.Errorf("propagation failures = %v, want 0", got)
	}
}

func TestRunCaseSensitiveLookup(t *testing.T) {
	server := newCatalogServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Satellite = "iss (zarya)"

	err := Run(context.Background(), cfg, Deps{Logger: testLogger, Renderer: &captureRenderer{}})
	if !errors.Is(err, tle.ErrSatelliteNotFound) {
		t.Fatalf("Run error = %v, want ErrSatelliteNotFound", err)
	}
}

func TestRunInvalidElements(t *testing.T) {
	server := newCatalogServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Satellite = "BROKEN SAT"

	err := Run(context.Background(), cfg, Deps{Logger: testLogger, Renderer: &captureRenderer{}})
	if !errors.Is(err, propagation.ErrInvalidTLE) {
		t.Fatalf("Run error = %v, want ErrInvalidTLE", err)
	}
}

func TestRunCatalogUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	r := &captureRenderer{}
	err := Run(context.Background(), testConfig(t, server.URL), Deps{Logger: testLogger, Renderer: r})
	if err == nil {
		t.Fatal("expected error when the catalog is unavailable")
	}
	if r.calls != 0 {
		t.Error("renderer called without a catalog")
	}
}

func TestRunInvalidGrid(t *testing.T) {
	server := newCatalogServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Resolution = 0

	err := Run(context.Background(), cfg, Deps{Logger: testLogger, Renderer: &captureRenderer{}})
	if !errors.Is(err, groundtrack.ErrInvalidResolution) {
		t.Fatalf("Run error = %v, want ErrInvalidResolution", err)
	}
}

func TestRunUsesNowWhenStartUnset(t *testing.T) {
	server := newCatalogServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Start = time.Time{}
	cfg.Resolution = 10
	now := time.Date(2024, 4, 11, 6, 0, 0, 0, time.UTC)
	r := &captureRenderer{}

	if err := Run(context.Background(), cfg, Deps{Logger: testLogger, Renderer: r, Now: func() time.Time { return now }}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first := r.track.Points[0].Time; !first.Equal(now.Add(cfg.Horizon / 10)) {
		t.Errorf("first sample at %v, want %v", first, now.Add(cfg.Horizon/10))
	}
}

// TestRunWritesImage exercises the configured image renderer end to end
// with the basemap disabled.
func TestRunWritesImage(t *testing.T) {
	server := newCatalogServer(t)
	cfg := testConfig(t, server.URL)

	if err := Run(context.Background(), cfg, Deps{Logger: testLogger, Metrics: newRecorder(t)}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	info, err := os.Stat(cfg.Render.Output)
	if err != nil {
		t.Fatalf("image not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("image is empty")
	}
}
