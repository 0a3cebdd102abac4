package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "amm"
	subsystem = "swap"
)

// Metric names, shared with dashboards.
const (
	MetricAttemptsTotal      = "attempts_total"
	MetricAttemptDuration    = "attempt_duration_seconds"
	MetricSubmitRetriesTotal = "submit_retries_total"
	MetricPoolLookupsTotal   = "pool_lookups_total"
	MetricQuotesTotal        = "quotes_total"
)

// Metrics records swap outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	attempts      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	submitRetries prometheus.Counter
	poolLookups   *prometheus.CounterVec
	quotes        *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Metrics{
		attempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      MetricAttemptsTotal,
			Help:      "Swap attempts by direction and terminal state.",
		}, []string{"direction", "state"}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      MetricAttemptDuration,
			Help:      "Wall time from quoting to terminal state.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"state"}),
		submitRetries: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      MetricSubmitRetriesTotal,
			Help:      "Transaction submissions retried after a transport error.",
		}),
		poolLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      MetricPoolLookupsTotal,
			Help:      "Pool resolutions by outcome (found, not_found, error).",
		}, []string{"outcome"}),
		quotes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      MetricQuotesTotal,
			Help:      "Quotes computed by direction and outcome.",
		}, []string{"direction", "outcome"}),
	}
}

func (m *Metrics) ObserveAttempt(direction, state string, took time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(direction, state).Inc()
	m.duration.WithLabelValues(state).Observe(took.Seconds())
}

func (m *Metrics) IncSubmitRetry() {
	if m == nil {
		return
	}
	m.submitRetries.Inc()
}

func (m *Metrics) ObservePoolLookup(outcome string) {
	if m == nil {
		return
	}
	m.poolLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveQuote(direction, outcome string) {
	if m == nil {
		return
	}
	m.quotes.WithLabelValues(direction, outcome).Inc()
}

// Handler serves the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
