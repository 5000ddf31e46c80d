// Package metrics records pipeline counters and timings with Prometheus.
//
// A batch run has nothing to scrape it, so the registry is written once at
// exit in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the pipeline's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	gatherer prometheus.Gatherer

	CatalogLoads        *prometheus.CounterVec
	CatalogSatellites   prometheus.Gauge
	Samples             prometheus.Counter
	PropagationFailures prometheus.Counter
	SampleDuration      prometheus.Histogram
	RenderDuration      *prometheus.HistogramVec
}

// NewRecorder registers the collectors against reg, defaulting to the
// global registry when nil.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	r := &Recorder{
		gatherer: gatherer,
		CatalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "satplot_catalog_loads_total",
			Help: "Catalog loads, labeled by where the data came from.",
		}, []string{"source"}),
		CatalogSatellites: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "satplot_catalog_satellites",
			Help: "Number of element sets in the loaded catalog.",
		}),
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "satplot_samples_total",
			Help: "Ground-track subpoints computed.",
		}),
		PropagationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "satplot_propagation_failures_total",
			Help: "Samples aborted by a propagation error.",
		}),
		SampleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "satplot_sample_duration_seconds",
			Help:    "Wall time of one full ground-track sampling loop.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "satplot_render_duration_seconds",
			Help:    "Wall time spent rendering, labeled by render mode.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
	}

	for _, c := range []prometheus.Collector{
		r.CatalogLoads, r.CatalogSatellites, r.Samples,
		r.PropagationFailures, r.SampleDuration, r.RenderDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	return r, nil
}

// CatalogLoaded counts one catalog load and records its size.
func (r *Recorder) CatalogLoaded(source string, satellites int) {
	if r == nil {
		return
	}
	r.CatalogLoads.WithLabelValues(source).Inc()
	r.CatalogSatellites.Set(float64(satellites))
}

// SamplingDone records a completed sampling loop.
func (r *Recorder) SamplingDone(samples int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.Samples.Add(float64(samples))
	r.SampleDuration.Observe(elapsed.Seconds())
}

// PropagationFailed counts an aborted sampling loop.
func (r *Recorder) PropagationFailed() {
	if r == nil {
		return
	}
	r.PropagationFailures.Inc()
}

// RenderDone records how long a renderer ran.
func (r *Recorder) RenderDone(mode string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RenderDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// WriteTextfile writes every metric in the recorder's registry to path,
// atomically, for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.gatherer); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}
