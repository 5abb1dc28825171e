// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DirectionDownload = "download"
	DirectionUpload   = "upload"

	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "davgate_http_requests_total",
			Help: "Total number of WebDAV requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "davgate_http_request_duration_seconds",
			Help:    "WebDAV request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	stagedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "davgate_staged_bytes_total",
			Help: "Total bytes staged through temp files",
		},
		[]string{"direction"},
	)

	tokenExchangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "davgate_token_exchanges_total",
			Help: "Total token exchanges against the identity service",
		},
		[]string{"grant", "result"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "davgate_active_sessions",
			Help: "Number of cached user sessions",
		},
	)

	refreshTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "davgate_refresh_tick_duration_seconds",
			Help:    "Time spent in one background refresh pass",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func RecordStaged(direction string, bytes int64) {
	stagedBytes.WithLabelValues(direction).Add(float64(bytes))
}

func RecordTokenExchange(grant string, result string) {
	tokenExchangesTotal.WithLabelValues(grant, result).Inc()
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

func RecordRefreshTick(duration time.Duration) {
	refreshTickDuration.Observe(duration.Seconds())
}
