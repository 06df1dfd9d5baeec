package connection

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type requestMetrics struct {
	requests         *prometheus.CounterVec
	durations        *prometheus.HistogramVec
	sessionsCreated  prometheus.Counter
	authRetries      prometheus.Counter
	sessionsRejected prometheus.Counter
}

var (
	requestMetricsOnce sync.Once
	requestMetricsInst *requestMetrics
)

func globalRequestMetrics() *requestMetrics {
	requestMetricsOnce.Do(func() {
		requestMetricsInst = newRequestMetrics()
	})
	return requestMetricsInst
}

func newRequestMetrics() *requestMetrics {
	return &requestMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "otrsclient",
			Subsystem: "connection",
			Name:      "requests_total",
			Help:      "GenericInterface requests, labeled by method and outcome",
		}, []string{"method", "outcome"}),
		durations: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "otrsclient",
			Subsystem: "connection",
			Name:      "request_duration_seconds",
			Help:      "Duration of GenericInterface requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		sessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "otrsclient",
			Subsystem: "session",
			Name:      "created_total",
			Help:      "Sessions obtained from the session endpoint",
		}),
		sessionsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "otrsclient",
			Subsystem: "session",
			Name:      "rejected_total",
			Help:      "Session creations refused by the service",
		}),
		authRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "otrsclient",
			Subsystem: "connection",
			Name:      "auth_retries_total",
			Help:      "Requests retried after the service rejected the session",
		}),
	}
}

func (m *requestMetrics) recordRequest(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.durations.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *requestMetrics) recordSessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

func (m *requestMetrics) recordSessionRejected() {
	if m == nil {
		return
	}
	m.sessionsRejected.Inc()
}

func (m *requestMetrics) recordAuthRetry() {
	if m == nil {
		return
	}
	m.authRetries.Inc()
}
