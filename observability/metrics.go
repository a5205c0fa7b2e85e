package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Abort reasons reported to a Recorder.
const (
	ReasonExhausted    = "exhausted"
	ReasonFiltered     = "filtered"
	ReasonCanceled     = "canceled"
	ReasonInvalidState = "invalid_state"
)

// Recorder receives retry session telemetry. Name identifies the retried operation.
type Recorder interface {
	RecordRetry(name string, attempt int, delay time.Duration)
	RecordAbort(name string, reason string, attempts int)
	RecordSuccess(name string, attempts int)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordRetry(string, int, time.Duration) {}
func (NopRecorder) RecordAbort(string, string, int)        {}
func (NopRecorder) RecordSuccess(string, int)              {}

var _ Recorder = (*MetricsCollector)(nil)

// MetricsCollector provides Prometheus metrics for retry sessions.
type MetricsCollector struct {
	retries   *prometheus.CounterVec
	aborts    *prometheus.CounterVec
	successes *prometheus.CounterVec
	delay     *prometheus.HistogramVec
	attempts  *prometheus.HistogramVec
}

// NewMetricsCollector creates a new Prometheus metrics collector.
// If registry is nil, uses the default Prometheus registry.
func NewMetricsCollector(registry prometheus.Registerer) *MetricsCollector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &MetricsCollector{
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoff_retries_total",
				Help: "Total number of retries granted",
			},
			[]string{"name"},
		),

		aborts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoff_aborts_total",
				Help: "Total number of retry sessions that gave up",
			},
			[]string{"name", "reason"},
		),

		successes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoff_successes_total",
				Help: "Total number of retry sessions that ended with a successful attempt",
			},
			[]string{"name"},
		),

		delay: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "backoff_delay_seconds",
				Help: "Interval waited before each retry",
				Buckets: []float64{
					0.01,  // 10ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					2.5,   // 2.5s
					5.0,   // 5s
					15.0,  // 15s
					30.0,  // 30s
					60.0,  // 1m
					300.0, // 5m
				},
			},
			[]string{"name"},
		),

		attempts: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backoff_session_attempts",
				Help:    "Number of attempts made by finished retry sessions",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
			},
			[]string{"name", "outcome"},
		),
	}
}

// RecordRetry counts a granted retry and observes its delay.
func (m *MetricsCollector) RecordRetry(name string, _ int, delay time.Duration) {
	m.retries.WithLabelValues(name).Inc()
	m.delay.WithLabelValues(name).Observe(delay.Seconds())
}

// RecordAbort counts a session that gave up.
// reason: "exhausted", "filtered", "canceled", "invalid_state"
func (m *MetricsCollector) RecordAbort(name string, reason string, attempts int) {
	m.aborts.WithLabelValues(name, reason).Inc()
	m.attempts.WithLabelValues(name, "abort").Observe(float64(attempts))
}

// RecordSuccess counts a session whose operation eventually succeeded.
func (m *MetricsCollector) RecordSuccess(name string, attempts int) {
	m.successes.WithLabelValues(name).Inc()
	m.attempts.WithLabelValues(name, "success").Observe(float64(attempts))
}
