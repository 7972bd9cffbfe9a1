package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics holds the service's Prometheus instruments. All methods are nil-safe
// so unit tests and trimmed-down builds can pass a nil *Metrics.
type Metrics struct {
	syncTotal          *prometheus.CounterVec
	syncWireAttempts   prometheus.Counter
	backendRequests    *prometheus.CounterVec
	backendDuration    *prometheus.HistogramVec
	consistencyChecks  prometheus.Counter
	consistencyMissing prometheus.Gauge
}

// New registers the canopy instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		syncTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_sync_total",
			Help: "Project sync operations by outcome.",
		}, []string{"outcome"}),
		syncWireAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "canopy_sync_wire_attempts_total",
			Help: "Individual create attempts against the analysis backend, retries included.",
		}),
		backendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canopy_backend_requests_total",
			Help: "Requests to the analysis backend by method and status class.",
		}, []string{"method", "code"}),
		backendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "canopy_backend_request_duration_seconds",
			Help:    "Analysis backend request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		consistencyChecks: factory.NewCounter(prometheus.CounterOpts{
			Name: "canopy_consistency_checks_total",
			Help: "Cross-store consistency verifications run.",
		}),
		consistencyMissing: factory.NewGauge(prometheus.GaugeOpts{
			Name: "canopy_consistency_missing_projects",
			Help: "Projects present in the registry but absent from the backend at the last check.",
		}),
	}
}

// SyncOutcome records the outcome of one sync operation.
func (m *Metrics) SyncOutcome(outcome string) {
	if m == nil {
		return
	}
	m.syncTotal.WithLabelValues(outcome).Inc()
}

// SyncAttempt records one wire attempt of a sync create.
func (m *Metrics) SyncAttempt() {
	if m == nil {
		return
	}
	m.syncWireAttempts.Inc()
}

// ObserveBackendRequest records a backend call. A zero status means the
// request never produced a response.
func (m *Metrics) ObserveBackendRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status/100) + "xx"
	}
	m.backendRequests.WithLabelValues(method, code).Inc()
	m.backendDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ConsistencyCheck records the result of a consistency verification.
func (m *Metrics) ConsistencyCheck(missing int) {
	if m == nil {
		return
	}
	m.consistencyChecks.Inc()
	m.consistencyMissing.Set(float64(missing))
}
