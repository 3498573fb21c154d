// Package metrics exposes Prometheus collectors for the site.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes recorded by LoginAttempts.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
	LoginInvalid = "invalid"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Account metrics
	LoginAttemptsTotal *prometheus.CounterVec
	RegistrationsTotal prometheus.Counter

	// Business metrics
	InventoryVehicles  prometheus.Gauge
	InventoryClasses   prometheus.Gauge
	StatsRefreshErrors prometheus.Counter
}

// NewMetrics creates and registers all collectors on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cse_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cse_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cse_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		RegistrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cse_registrations_total",
			Help: "Successful account registrations",
		}),
		InventoryVehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cse_inventory_vehicles",
			Help: "Vehicles currently in inventory",
		}),
		InventoryClasses: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cse_inventory_classifications",
			Help: "Vehicle classifications",
		}),
		StatsRefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cse_stats_refresh_errors_total",
			Help: "Failed inventory stats refreshes",
		}),
	}
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginAttemptsTotal,
		m.RegistrationsTotal,
		m.InventoryVehicles,
		m.InventoryClasses,
		m.StatsRefreshErrors,
	)
	return m
}

// LoginAttempt counts one login by outcome. A nil receiver is a no-op so
// handlers can run without metrics in tests.
func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registered() {
	if m == nil {
		return
	}
	m.RegistrationsTotal.Inc()
}

// SetInventory records the current counts.
func (m *Metrics) SetInventory(vehicles, classifications int64) {
	m.InventoryVehicles.Set(float64(vehicles))
	m.InventoryClasses.Set(float64(classifications))
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RouteLabel keeps the first two path segments so ids do not explode the
// label space: /inv/detail/12 becomes /inv/detail.
func RouteLabel(path string) string {
	parts := strings.SplitN(strings.Trim(path, "/"), "/", 3)
	switch {
	case parts[0] == "":
		return "/"
	case parts[0] == "static" || parts[0] == "images":
		return "/" + parts[0]
	case len(parts) == 1:
		return "/" + parts[0]
	default:
		if _, err := strconv.Atoi(parts[1]); err == nil {
			return "/" + parts[0]
		}
		return "/" + parts[0] + "/" + parts[1]
	}
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := RouteLabel(r.URL.Path)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
