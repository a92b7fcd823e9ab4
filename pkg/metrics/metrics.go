// Package metrics holds the Prometheus collectors for scan and graph activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// Recorder groups the collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	scans           *prometheus.CounterVec
	scansSuperseded prometheus.Counter
	graphFetches    *prometheus.CounterVec
	graphBytes      prometheus.Gauge
	liveHandles     prometheus.Gauge
}

// New registers the collectors on a private registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netmapper",
			Name:      "scans_total",
			Help:      "Committed scans by outcome.",
		}, []string{"outcome"}),
		scansSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netmapper",
			Name:      "scans_superseded_total",
			Help:      "Scan responses dropped because a newer scan was issued.",
		}),
		graphFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netmapper",
			Name:      "graph_fetches_total",
			Help:      "Graph fetches by outcome.",
		}, []string{"outcome"}),
		graphBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netmapper",
			Name:      "graph_bytes",
			Help:      "Size of the graph payload currently held.",
		}),
		liveHandles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netmapper",
			Name:      "graph_live_handles",
			Help:      "Graph handles not yet released.",
		}),
	}
	r.registry.MustRegister(r.scans, r.scansSuperseded, r.graphFetches, r.graphBytes, r.liveHandles)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests, embedding).
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ScanCommitted(outcome string) {
	if r == nil {
		return
	}
	r.scans.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ScanSuperseded() {
	if r == nil {
		return
	}
	r.scansSuperseded.Inc()
}

func (r *Recorder) GraphFetched(outcome string) {
	if r == nil {
		return
	}
	r.graphFetches.WithLabelValues(outcome).Inc()
}

// GraphHeld tracks the live handle count and the bytes it pins.
func (r *Recorder) GraphHeld(live int, bytes int) {
	if r == nil {
		return
	}
	r.liveHandles.Set(float64(live))
	r.graphBytes.Set(float64(bytes))
}
