// Package metrics holds the Prometheus collectors of the blog service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blog"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Admin login attempts by result (success, invalid, limited, error)",
		},
		[]string{"result"},
	)

	TokenRotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_rotations_total",
			Help:      "Session tokens replaced during admin requests",
		},
	)

	ArticleWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "articles",
			Name:      "writes_total",
			Help:      "Successful article writes by operation",
		},
		[]string{"op"},
	)
)

// ObserveLogin counts one login attempt.
func ObserveLogin(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}

// ObserveArticleWrite counts one successful create, update, delete or import.
func ObserveArticleWrite(op string) {
	ArticleWrites.WithLabelValues(op).Inc()
}

// Timer is a helper for measuring operation duration.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time since the timer was created.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}
