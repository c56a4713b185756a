package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupchat_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "groupchat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupchat_transitions_total",
			Help: "State transitions applied by the membership, connection and message engines.",
		},
		[]string{"engine", "transition"},
	)
	notificationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "groupchat_notifications_total",
			Help: "Notification records persisted.",
		},
	)
	pushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupchat_realtime_pushes_total",
			Help: "Realtime pushes by result (delivered, dropped, offline).",
		},
		[]string{"result"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "groupchat_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	messagesPurgedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupchat_messages_purged_total",
			Help: "Messages hard-deleted, by kind and reason.",
		},
		[]string{"kind", "reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		transitionsTotal,
		notificationsTotal,
		pushesTotal,
		wsActiveConnections,
		messagesPurgedTotal,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncTransition(engine, transition string) {
	transitionsTotal.WithLabelValues(engine, transition).Inc()
}

func IncNotification() {
	notificationsTotal.Inc()
}

func IncPush(result string) {
	pushesTotal.WithLabelValues(result).Inc()
}

func SetWSConnections(n int) {
	wsActiveConnections.Set(float64(n))
}

func AddPurged(kind, reason string, n int) {
	if n > 0 {
		messagesPurgedTotal.WithLabelValues(kind, reason).Add(float64(n))
	}
}
