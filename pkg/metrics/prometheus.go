package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions   *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPredicted *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	sourceFetches *prometheus.CounterVec
}

// New registers the recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the recorder on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_predictions_total",
				Help: "Total number of completed predictions",
			},
			[]string{"model", "ticker"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_errors_total",
				Help: "Total number of pipeline errors by kind",
			},
			[]string{"kind"},
		),
		lastPredicted: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcast_last_predicted_price",
				Help: "Final price of the most recent forecast for a ticker",
			},
			[]string{"ticker"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		sourceFetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_source_fetches_total",
				Help: "Series source fetches by source and result",
			},
			[]string{"source", "result"},
		),
	}
}

func (r *Recorder) RecordPrediction(model, ticker string) {
	r.predictions.WithLabelValues(model, ticker).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastPrediction(ticker string, price float64) {
	r.lastPredicted.WithLabelValues(ticker).Set(price)
}

// RecordLatency records stage latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordSourceFetch counts one fetch; result is ok, empty, cached or error.
func (r *Recorder) RecordSourceFetch(source, result string) {
	r.sourceFetches.WithLabelValues(source, result).Inc()
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordPrediction(string, string)     {}
func (Nop) RecordError(string)                  {}
func (Nop) RecordLastPrediction(string, float64) {}
func (Nop) RecordLatency(string, float64)       {}
func (Nop) RecordSourceFetch(string, string)    {}
