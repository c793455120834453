// Package metrics exposes Prometheus collectors for gating decisions,
// player commands, remote refreshes and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/videogate/videogate/internal/gate"
	"github.com/videogate/videogate/internal/player"
)

type Metrics struct {
	registry *prometheus.Registry

	GateTransitions  *prometheus.CounterVec
	PlayerCommands   *prometheus.CounterVec
	RemoteRefreshes  *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		GateTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "videogate_gate_transitions_total",
				Help: "Gate state transitions, by resulting state.",
			},
			[]string{"state"},
		),
		PlayerCommands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "videogate_player_commands_total",
				Help: "Player commands sent, by command and outcome.",
			},
			[]string{"command", "outcome"},
		),
		RemoteRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "videogate_remote_refreshes_total",
				Help: "Remote blocklist fetch attempts, by outcome.",
			},
			[]string{"outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "videogate_api_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by route and method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "videogate_requests_in_flight",
				Help: "Number of HTTP requests currently being served.",
			},
		),
	}

	m.registry.MustRegister(
		m.GateTransitions,
		m.PlayerCommands,
		m.RemoteRefreshes,
		m.RequestDuration,
		m.RequestsInFlight,
	)
	return m
}

func (m *Metrics) StateChanged(s gate.State) {
	m.GateTransitions.WithLabelValues(s.String()).Inc()
}

func (m *Metrics) CommandSent(cmd player.Command, ok bool) {
	m.PlayerCommands.WithLabelValues(string(cmd), outcome(ok)).Inc()
}

func (m *Metrics) RefreshCompleted(err error) {
	m.RemoteRefreshes.WithLabelValues(outcome(err == nil)).Inc()
}

// unmatchedRoute labels requests no route answered, such as 404 scans.
const unmatchedRoute = "unmatched"

// Middleware records request duration by chi route pattern, which keeps
// label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
