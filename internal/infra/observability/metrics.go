package observability

import (
	"time"

	"github.com/boddenberg/banksim-client-go/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the client.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	callDuration  *prometheus.HistogramVec
	gatewayErrors *prometheus.CounterVec
	sessionResets prometheus.Counter
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	transfers     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// client metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "banksim_gateway_call_duration_seconds",
				Help:    "Duration of calls to the Banking Simulator API by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		gatewayErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksim_gateway_errors_total",
				Help: "Failed gateway calls by error kind.",
			},
			[]string{"kind"},
		),
		sessionResets: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "banksim_session_resets_total",
				Help: "Sessions cleared after the API rejected the token.",
			},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksim_collection_cache_hits_total",
				Help: "Collection loads served from the cache.",
			},
			[]string{"collection"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksim_collection_cache_misses_total",
				Help: "Collection loads that had to call the API.",
			},
			[]string{"collection"},
		),
		transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banksim_transfers_total",
				Help: "Transfer submissions by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordCallDuration records the duration of a gateway call.
func (m *Metrics) RecordCallDuration(operation string, d time.Duration) {
	m.callDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrGatewayError increments the gateway error counter.
func (m *Metrics) IncrGatewayError(kind domain.ErrorKind) {
	m.gatewayErrors.WithLabelValues(string(kind)).Inc()
}

// IncrSessionReset counts a session cleared by a 401.
func (m *Metrics) IncrSessionReset() {
	m.sessionResets.Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(collection string) {
	m.cacheHits.WithLabelValues(collection).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(collection string) {
	m.cacheMisses.WithLabelValues(collection).Inc()
}

// IncrTransfer counts a transfer outcome (settled, rejected, invalid, in_flight).
func (m *Metrics) IncrTransfer(outcome string) {
	m.transfers.WithLabelValues(outcome).Inc()
}

// Snapshot is a JSON view of the client metrics served at /v1/metrics/client.
type Snapshot struct {
	GatewayErrors map[string]float64 `json:"gateway_errors"`
	SessionResets float64            `json:"session_resets"`
	CacheHitRate  float64            `json:"cache_hit_rate"`
	Transfers     map[string]float64 `json:"transfers"`
}

// Snapshot gathers the current counter values.
func (m *Metrics) Snapshot() *Snapshot {
	s := &Snapshot{
		GatewayErrors: make(map[string]float64),
		Transfers:     make(map[string]float64),
	}

	for _, kind := range []domain.ErrorKind{
		domain.KindNetworkUnreachable,
		domain.KindClientRejected,
		domain.KindServerFault,
		domain.KindUnclassified,
	} {
		s.GatewayErrors[string(kind)] = getCounterValue(m.gatewayErrors, string(kind))
	}
	for _, outcome := range []string{"settled", "rejected", "invalid", "in_flight"} {
		s.Transfers[outcome] = getCounterValue(m.transfers, outcome)
	}
	s.SessionResets = readCounter(m.sessionResets)

	var hits, misses float64
	for _, t := range domain.EntityTypes {
		hits += getCounterValue(m.cacheHits, string(t))
		misses += getCounterValue(m.cacheMisses, string(t))
	}
	if hits+misses > 0 {
		s.CacheHitRate = hits / (hits + misses)
	}
	return s
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
