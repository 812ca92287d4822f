// Package metrics provides Prometheus metrics for the capture device.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "videocore"
	subsystem = "capture"
)

var (
	transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "transfers_total",
		Help:      "Completed transfers by result",
	}, []string{"stream", "result"})

	bytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "bytes_total",
		Help:      "Bytes written into client buffers",
	}, []string{"stream"})

	engineFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "engine_failures_total",
		Help:      "Transfer engine start or handover failures",
	}, []string{"stream"})

	streamState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "stream_state",
		Help:      "Stream state (0 idle, 1 armed, 2 transferring)",
	}, []string{"stream"})

	stateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "state_transitions_total",
		Help:      "Stream state transitions by target state",
	}, []string{"stream", "to"})

	frameInterval = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "frame_interval_seconds",
		Help:      "Time between consecutive completions of a stream",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"stream"})

	queueBuffers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "queue_buffers",
		Help:      "Buffers per queue location (free, pending, bound, done)",
	}, []string{"stream", "location"})

	ringOverwrites = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "ring_overwrites",
		Help:      "Completed buffers recycled unclaimed since the last buffer request",
	}, []string{"stream"})

	openHandles = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "open_handles",
		Help:      "Open device handles",
	})
)

// QueueStats is the queue occupancy reported for one stream.
type QueueStats struct {
	Free       int
	Pending    int
	Bound      bool
	Done       int
	Overwrites uint64
}

// SetQueueStats publishes the queue occupancy of a stream.
func SetQueueStats(stream string, s QueueStats) {
	bound := 0.0
	if s.Bound {
		bound = 1
	}
	queueBuffers.WithLabelValues(stream, "free").Set(float64(s.Free))
	queueBuffers.WithLabelValues(stream, "pending").Set(float64(s.Pending))
	queueBuffers.WithLabelValues(stream, "bound").Set(bound)
	queueBuffers.WithLabelValues(stream, "done").Set(float64(s.Done))
	ringOverwrites.WithLabelValues(stream).Set(float64(s.Overwrites))
}

// SetOpenHandles publishes the number of open device handles.
func SetOpenHandles(n int) {
	openHandles.Set(float64(n))
}

// Handler returns the Prometheus HTTP handler for all registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
