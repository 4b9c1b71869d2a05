package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ValidationsTotal    *prometheus.CounterVec
	ValidationDuration  prometheus.Histogram
	ValidationsInFlight prometheus.Gauge
	HarvestPagesTotal   *prometheus.CounterVec
	HarvestCandidates   prometheus.Gauge
	RunsTotal           *prometheus.CounterVec
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		ValidationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invite_validations_total",
				Help: "Validated invite links by terminal status.",
			},
			[]string{"status", "category"},
		),
		ValidationDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "invite_validation_duration_seconds",
				Help:    "Duration of a single invite link validation.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 20, 30},
			},
		),
		ValidationsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "invite_validations_in_flight",
				Help: "Validations currently running in the worker pool.",
			},
		),
		HarvestPagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_pages_total",
				Help: "Search result pages fetched while harvesting.",
			},
			[]string{"outcome"}, // fetched, failed
		),
		HarvestCandidates: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "harvest_candidates",
				Help: "Candidate links found by the most recent harvest.",
			},
		),
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvest_runs_total",
				Help: "Pipeline runs by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) ObserveValidation(status, category string, d time.Duration) {
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(status, category).Inc()
	m.ValidationDuration.Observe(d.Seconds())
}

func (m *Metrics) ValidationStarted() {
	if m != nil {
		m.ValidationsInFlight.Inc()
	}
}

func (m *Metrics) ValidationFinished() {
	if m != nil {
		m.ValidationsInFlight.Dec()
	}
}

func (m *Metrics) IncHarvestPage(outcome string) {
	if m != nil {
		m.HarvestPagesTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) SetHarvestCandidates(n int) {
	if m != nil {
		m.HarvestCandidates.Set(float64(n))
	}
}

func (m *Metrics) IncRun(outcome string) {
	if m != nil {
		m.RunsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}
