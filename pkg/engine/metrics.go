package engine

import (
	"net/url"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics is an optional Prometheus facade over a Client's request
// lifecycle. It registers its collectors on a private registry — never the
// global default — so multiple Clients in the same process never collide.
// A Client with a nil metrics field skips every call below at zero cost.
type ClientMetrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	responsesTotal   *prometheus.CounterVec
	timeoutsTotal    *prometheus.CounterVec
	responseTime     *prometheus.HistogramVec
	queueSize        *prometheus.GaugeVec
	custom404Records prometheus.Gauge

	mu sync.Mutex
}

// NewClientMetrics builds a ClientMetrics registered on a fresh registry.
// Callers that want to expose it for scraping fetch Registry() and serve it
// with promhttp themselves; engine does not start an HTTP server of its own.
func NewClientMetrics() *ClientMetrics {
	registry := prometheus.NewRegistry()

	m := &ClientMetrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_requests_total",
				Help: "Total number of requests queued for dispatch.",
			},
			[]string{"host", "method"},
		),
		responsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_responses_total",
				Help: "Total number of completed responses.",
			},
			[]string{"host", "method"},
		),
		timeoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_timeouts_total",
				Help: "Total number of requests that timed out.",
			},
			[]string{"host", "method"},
		),
		responseTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "engine_response_time_seconds",
				Help:    "Round-trip time of completed requests, in seconds.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"host", "method"},
		),
		queueSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "engine_queue_size",
				Help: "Number of requests currently queued or in flight.",
			},
			[]string{"client"},
		),
		custom404Records: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "engine_custom404_records",
				Help: "Number of directories currently fingerprinted by the custom-404 detector.",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.requestsTotal, m.responsesTotal, m.timeoutsTotal,
		m.responseTime, m.queueSize, m.custom404Records,
	} {
		registry.MustRegister(c)
	}

	return m
}

// Registry exposes the private registry for scraping, e.g. via
// promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}).
func (m *ClientMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *ClientMetrics) observeQueued(req *Request) {
	if m == nil {
		return
	}
	host := hostOf(req.URL)
	m.requestsTotal.WithLabelValues(host, string(req.Method)).Inc()
}

func (m *ClientMetrics) observeCompletion(req *Request, resp *Response) {
	if m == nil {
		return
	}
	host := hostOf(req.URL)
	method := string(req.Method)
	m.responsesTotal.WithLabelValues(host, method).Inc()
	if resp != nil {
		m.responseTime.WithLabelValues(host, method).Observe(resp.RoundTrip.Seconds())
		if resp.TimedOut {
			m.timeoutsTotal.WithLabelValues(host, method).Inc()
		}
	}
}

func (m *ClientMetrics) observeQueueSize(clientLabel string, size int64) {
	if m == nil {
		return
	}
	m.queueSize.WithLabelValues(clientLabel).Set(float64(size))
}

func (m *ClientMetrics) observeCustom404Records(n int) {
	if m == nil {
		return
	}
	m.custom404Records.Set(float64(n))
}

// hostOf extracts the host:port portion of rawURL for metric labeling,
// falling back to "unknown" for an unparsable URL.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
