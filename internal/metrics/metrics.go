package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// singleton instance
	instance *Metrics
	once     sync.Once
)

// Metrics holds Prometheus metrics for rosterbridge
type Metrics struct {
	// Bridge metrics
	EventsForwarded  *prometheus.CounterVec
	ForwardErrors    *prometheus.CounterVec
	ForwardDuration  *prometheus.HistogramVec
	EndpointState    prometheus.Gauge
	ListenersActive  prometheus.Gauge

	// Channel metrics
	MessagesPublished *prometheus.CounterVec
	PublishErrors     *prometheus.CounterVec
	MemoryQueueDepth  prometheus.Gauge
}

// GetMetrics returns the metrics singleton
func GetMetrics() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

// newMetrics initializes and registers all metrics
func newMetrics() *Metrics {
	m := &Metrics{}

	// Bridge metrics
	m.EventsForwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rosterbridge_events_forwarded_total",
			Help: "Total number of roster events forwarded to the outbound channel",
		},
		[]string{"kind"}, // entries_added, entries_updated, entries_deleted, presence_changed
	)

	m.ForwardErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rosterbridge_forward_errors_total",
			Help: "Total number of failed forwards",
		},
		[]string{"kind", "error_type"}, // error_type: messaging, forwarding
	)

	m.ForwardDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rosterbridge_forward_duration_seconds",
			Help:    "Duration of a single forward, including the channel send",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // from 0.1ms to ~0.4s
		},
		[]string{"kind"},
	)

	m.EndpointState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rosterbridge_endpoint_state",
			Help: "Current endpoint lifecycle state (0=uninitialized, 1=initialized, 2=started, 3=stopped)",
		},
	)

	m.ListenersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rosterbridge_listeners_active",
			Help: "Number of listeners registered with the roster source",
		},
	)

	// Channel metrics
	m.MessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rosterbridge_channel_messages_published_total",
			Help: "Total number of messages accepted by the outbound channel",
		},
		[]string{"backend"}, // memory, redis
	)

	m.PublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rosterbridge_channel_publish_errors_total",
			Help: "Total number of channel send failures",
		},
		[]string{"backend", "reason"}, // reason: full, closed, io
	)

	m.MemoryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rosterbridge_channel_memory_queue_depth",
			Help: "Number of messages buffered in the in-memory channel",
		},
	)

	return m
}
