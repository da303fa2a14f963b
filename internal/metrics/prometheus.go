// Package metrics provides Prometheus metrics for forecast pipeline runs
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	forecaster "github.com/aouyang1/go-traffic-forecaster"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ErrWriteTextfile = errors.New("unable to write metrics textfile")

// Manager owns the pipeline collectors and the registry they are exposed from
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         *prometheus.Registry

	runs         *prometheus.CounterVec
	fitDuration  prometheus.Histogram
	droppedRows  *prometheus.CounterVec
	anomalies    prometheus.Counter
	seriesPoints prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var _ forecaster.Recorder = (*Manager)(nil)

// NewManager creates a new metrics manager on its own registry unless one is provided
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "trafficcast",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "runs_total",
		Help:        "Total number of pipeline runs by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.fitDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fit_duration_seconds",
		Help:        "Histogram of model fit and projection time in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.droppedRows = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "dropped_rows_total",
		Help:        "Total number of input rows dropped during validation by reason",
		ConstLabels: m.constLabels,
	}, []string{"reason"})

	m.anomalies = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "anomalies_total",
		Help:        "Total number of anomalous months flagged",
		ConstLabels: m.constLabels,
	})

	m.seriesPoints = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "series_points",
		Help:        "Number of validated points in the most recent series",
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "requests_total",
		Help:        "Total number of HTTP requests by route, method and status code",
		ConstLabels: m.constLabels,
	}, []string{"route", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        "request_duration_seconds",
		Help:        "HTTP request duration in seconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"route", "method"})
}

// RecordRun counts a finished run and observes its fit duration when a fit happened
func (m *Manager) RecordRun(outcome forecaster.Outcome, fitDuration time.Duration) {
	if !m.enabled {
		return
	}
	m.runs.WithLabelValues(string(outcome)).Inc()
	if fitDuration > 0 {
		m.fitDuration.Observe(fitDuration.Seconds())
	}
}

// RecordDropped counts rows removed during validation
func (m *Manager) RecordDropped(reason string, count int) {
	if !m.enabled || count <= 0 {
		return
	}
	m.droppedRows.WithLabelValues(reason).Add(float64(count))
}

// RecordSeries tracks the size of the validated series and the anomalies found in it
func (m *Manager) RecordSeries(points, anomalies int) {
	if !m.enabled {
		return
	}
	m.seriesPoints.Set(float64(points))
	if anomalies > 0 {
		m.anomalies.Add(float64(anomalies))
	}
}

// RecordHTTPRequest counts a served request and observes its duration
func (m *Manager) RecordHTTPRequest(route, method string, statusCode int, d time.Duration) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Registry returns the registry the metrics are gathered from
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WriteToTextfile writes the current metrics for the node exporter textfile collector
func (m *Manager) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w, %w", ErrWriteTextfile, err)
	}
	return nil
}
