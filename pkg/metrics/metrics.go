package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bizsuite"

// Metrics holds the collectors shared by the tenancy packages.
// A nil *Metrics is valid and records nothing, so tests and tools can skip wiring.
type Metrics struct {
	cacheLookups   *prometheus.CounterVec
	cacheEntries   prometheus.Gauge
	resolutions    *prometheus.CounterVec
	connOpens      *prometheus.CounterVec
	connOpenTime   *prometheus.HistogramVec
	connRetries    *prometheus.CounterVec
	fanoutRuns     *prometheus.CounterVec
	invalidations  *prometheus.CounterVec
	idempotencyHit *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Passing nil registers nothing, which keeps parallel tests from colliding on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tenant_cache",
			Name:      "lookups_total",
			Help:      "Connection string cache lookups by result.",
		}, []string{"result"}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tenant_cache",
			Name:      "entries",
			Help:      "Tenants currently held in the connection string cache.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tenant",
			Name:      "resolutions_total",
			Help:      "Tenant resolutions by signal kind and outcome.",
		}, []string{"signal", "outcome"}),
		connOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dbconn",
			Name:      "opens_total",
			Help:      "Tenant-bound connection handle opens by module and outcome.",
		}, []string{"module", "outcome"}),
		connOpenTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dbconn",
			Name:      "open_duration_seconds",
			Help:      "Time spent opening a tenant-bound handle, retries included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"module"}),
		connRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dbconn",
			Name:      "retries_total",
			Help:      "Transient open failures that were retried.",
		}, []string{"module"}),
		fanoutRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "tenant_runs_total",
			Help:      "Per-tenant job executions by job and outcome.",
		}, []string{"job", "outcome"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tenant_cache",
			Name:      "invalidations_total",
			Help:      "Cache invalidations by source.",
		}, []string{"source"}),
		idempotencyHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "idempotency",
			Name:      "claims_total",
			Help:      "Idempotency claims by result.",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.cacheLookups,
			m.cacheEntries,
			m.resolutions,
			m.connOpens,
			m.connOpenTime,
			m.connRetries,
			m.fanoutRuns,
			m.invalidations,
			m.idempotencyHit,
		)
	}

	return m
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) CacheSize(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}

func (m *Metrics) CacheInvalidated(source string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(source).Inc()
}

// Resolution records the outcome of a tenant resolution ("ok", "not_found", "inactive", "invalid", "error").
func (m *Metrics) Resolution(signal, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(signal, outcome).Inc()
}

// ConnOpened records a handle open attempt for module and how long it took.
func (m *Metrics) ConnOpened(module, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.connOpens.WithLabelValues(module, outcome).Inc()
	m.connOpenTime.WithLabelValues(module).Observe(seconds)
}

func (m *Metrics) ConnRetried(module string) {
	if m == nil {
		return
	}
	m.connRetries.WithLabelValues(module).Inc()
}

func (m *Metrics) TenantRun(job, outcome string) {
	if m == nil {
		return
	}
	m.fanoutRuns.WithLabelValues(job, outcome).Inc()
}

func (m *Metrics) IdempotencyClaim(result string) {
	if m == nil {
		return
	}
	m.idempotencyHit.WithLabelValues(result).Inc()
}
