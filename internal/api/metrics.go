package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registered once at package scope so repeated NewServer calls share the
// same collectors.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analytics",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of analysis requests by endpoint",
	}, []string{"endpoint"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "analytics",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Analysis request latency by endpoint",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	leaderboardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "analytics",
		Subsystem: "leaderboard",
		Name:      "build_duration_seconds",
		Help:      "Wall time of leaderboard aggregation jobs",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	})
)

type serverMetrics struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	leaderboardDuration prometheus.Histogram
}

func newServerMetrics() *serverMetrics {
	return &serverMetrics{
		requestsTotal:       requestsTotal,
		requestDuration:     requestDuration,
		leaderboardDuration: leaderboardDuration,
	}
}

// instrument wraps a handler with per-endpoint counters and latency
// observation.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next(w, r)
		s.metrics.requestsTotal.WithLabelValues(endpoint).Inc()
		s.metrics.requestDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
	}
}
