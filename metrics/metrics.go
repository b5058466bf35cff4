// Package metrics exposes extraction and animation counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for one process. It implements animation.Observer.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// Extraction metrics
	Extractions    *prometheus.CounterVec
	ExtractedNodes prometheus.Histogram

	// Animation metrics
	Steps       *prometheus.CounterVec
	Frames      *prometheus.CounterVec
	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	extractions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Total number of extraction passes by status",
		},
		[]string{"status"},
	)

	extractedNodes := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extracted_nodes",
			Help:      "Nodes found per extraction pass",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	steps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "animation_steps_total",
			Help:      "Total number of animation steps by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	frames := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorded_frames_total",
			Help:      "Total number of frame captures by result",
		},
		[]string{"result"},
	)

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "animation_runs_total",
			Help:      "Total number of animation runs by status",
		},
		[]string{"status"},
	)

	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "animation_run_duration_seconds",
			Help:      "Wall-clock duration of animation runs",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)

	registry.MustRegister(
		extractions,
		extractedNodes,
		steps,
		frames,
		runs,
		runDuration,
	)

	return &Collector{
		registry:       registry,
		Extractions:    extractions,
		ExtractedNodes: extractedNodes,
		Steps:          steps,
		Frames:         frames,
		Runs:           runs,
		RunDuration:    runDuration,
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveExtraction records one extraction pass.
func (c *Collector) ObserveExtraction(status string, nodes int) {
	c.Extractions.WithLabelValues(status).Inc()
	c.ExtractedNodes.Observe(float64(nodes))
}

// ObserveStep records one animation step.
func (c *Collector) ObserveStep(action, outcome string) {
	c.Steps.WithLabelValues(action, outcome).Inc()
}

// ObserveFrame records one frame capture attempt.
func (c *Collector) ObserveFrame(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	c.Frames.WithLabelValues(result).Inc()
}

// ObserveRun records a finished or aborted run.
func (c *Collector) ObserveRun(status string, elapsed time.Duration) {
	c.Runs.WithLabelValues(status).Inc()
	c.RunDuration.Observe(elapsed.Seconds())
}
