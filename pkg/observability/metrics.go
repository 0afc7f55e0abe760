package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Token verification outcome labels
const (
	VerifyResultOK           = "ok"
	VerifyResultNoToken      = "no_token"
	VerifyResultInvalid      = "invalid"
	VerifyResultExpired      = "expired"
	VerifyResultUnknownUser  = "unknown_user"
	VerifyResultStoreFailure = "store_failure"
)

// Metrics holds all Prometheus metrics for the fleet server
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Token verification metrics, labelled by mode (standard, fast) and
	// outcome
	TokenVerificationsTotal *prometheus.CounterVec
	TokensIssuedTotal       prometheus.Counter

	// Identity cache metrics
	CacheHitsTotal        prometheus.Counter
	CacheMissesTotal      prometheus.Counter
	CacheInvalidatedTotal prometheus.Counter
	CacheSweepEvictions   prometheus.Counter
	CacheSize             prometheus.Gauge

	// Login metrics
	LoginsTotal      *prometheus.CounterVec
	LoginRateLimited prometheus.Counter

	// Database pool metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleet_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fleet_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		TokenVerificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleet_token_verifications_total",
				Help: "Total number of token verifications by mode and outcome",
			},
			[]string{"mode", "result"},
		),
		TokensIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fleet_tokens_issued_total",
				Help: "Total number of JWTs issued",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fleet_identity_cache_hits_total",
				Help: "Total number of identity cache hits",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fleet_identity_cache_misses_total",
				Help: "Total number of identity cache misses",
			},
		),
		CacheInvalidatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fleet_identity_cache_invalidations_total",
				Help: "Total number of explicit identity cache invalidations",
			},
		),
		CacheSweepEvictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fleet_identity_cache_sweep_evictions_total",
				Help: "Total number of entries removed by periodic cache sweeps",
			},
		),
		CacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fleet_identity_cache_size",
				Help: "Current number of entries in the identity cache",
			},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleet_logins_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"result"},
		),
		LoginRateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fleet_login_rate_limited_total",
				Help: "Total number of login attempts rejected by the rate limiter",
			},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fleet_db_connections_active",
				Help: "Number of database connections currently in use",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fleet_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TokenVerificationsTotal,
		m.TokensIssuedTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheInvalidatedTotal,
		m.CacheSweepEvictions,
		m.CacheSize,
		m.LoginsTotal,
		m.LoginRateLimited,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns the Prometheus scrape handler for the registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveDBStats copies the connection pool stats into the pool gauges
func (m *Metrics) ObserveDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// HTTPMiddleware records request counts and durations per route. It must be
// installed with mux.Router.Use so the matched route is available; the path
// label is the route template, keeping cardinality bounded for routes with
// path variables.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
