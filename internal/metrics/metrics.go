// Package metrics exposes request counters for the REST client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spotwire"

// Recorder records per-operation request outcomes. A nil *Recorder is valid and records nothing.
type Recorder struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	usedWeight prometheus.Gauge
	unknown    prometheus.Counter
}

// New registers the client collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Requests by operation and outcome class",
			},
			[]string{"operation", "outcome"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Round trip time of requests that reached the transport",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		usedWeight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "used_weight",
			Help:      "Last request weight reported by the exchange for the current window",
		}),
		unknown: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_outcome_unknown_total",
			Help:      "Order placements whose outcome could not be determined",
		}),
	}
}

// Observe records one finished call. outcome is "ok" or an error class name.
func (r *Recorder) Observe(operation, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(operation, outcome).Inc()
	if elapsed > 0 {
		r.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
	}
}

// UsedWeight sets the last server-reported weight.
func (r *Recorder) UsedWeight(w int64) {
	if r == nil {
		return
	}
	r.usedWeight.Set(float64(w))
}

// OutcomeUnknown counts an ambiguous order placement.
func (r *Recorder) OutcomeUnknown() {
	if r == nil {
		return
	}
	r.unknown.Inc()
}

// Handler serves the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
