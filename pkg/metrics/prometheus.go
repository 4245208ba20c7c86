package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	eventsIngested *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastRate       *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
	forecastsTotal *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		eventsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecast_events_ingested_total",
				Help: "Total number of rate events routed to a backend",
			},
			[]string{"backend", "series"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastRate: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ratecast_last_rate_pct",
				Help: "Last recorded rate level for a series",
			},
			[]string{"series"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratecast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		forecastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratecast_forecasts_total",
				Help: "Total number of forecasts served by engine",
			},
			[]string{"engine"},
		),
	}
}

// RecordEventIngested records a rate event routed to a backend.
func (r *Recorder) RecordEventIngested(backend, series string) {
	r.eventsIngested.WithLabelValues(backend, series).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastRate records the last rate level for a series.
func (r *Recorder) RecordLastRate(series string, pct float64) {
	r.lastRate.WithLabelValues(series).Set(pct)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordForecast counts a served forecast by engine.
func (r *Recorder) RecordForecast(engine string) {
	r.forecastsTotal.WithLabelValues(engine).Inc()
}
