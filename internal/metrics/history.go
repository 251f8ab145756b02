package metrics

import (
	"sync"
	"time"
)

// DataPoint summarises one closed window.
type DataPoint struct {
	Timestamp         time.Time `json:"timestamp"`
	Messages          uint64    `json:"messages"`
	MeanLatency       float64   `json:"mean_latency"`
	P50Latency        float64   `json:"p50_latency"`
	P95Latency        float64   `json:"p95_latency"`
	P99Latency        float64   `json:"p99_latency"`
	MeanThroughput    float64   `json:"mean_throughput"`
	MessagesPerSecond float64   `json:"messages_per_second"`
}

// History keeps the most recent window summaries. Its Record method can be
// used directly as a Callback.
type History struct {
	mu     sync.Mutex
	limit  int
	points []DataPoint
}

// NewHistory keeps at most limit points; limit <= 0 keeps everything.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Record appends the summary of a closed window.
func (h *History) Record(latency, throughput Snapshot) {
	lat := latency.Summary()
	point := DataPoint{
		Timestamp:         latency.End,
		Messages:          lat.N,
		MeanLatency:       lat.Mean,
		P50Latency:        lat.P50,
		P95Latency:        lat.P95,
		P99Latency:        lat.P99,
		MeanThroughput:    throughput.Mean(),
		MessagesPerSecond: lat.MessagesPerSecond,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.points = append(h.points, point)
	if h.limit > 0 && len(h.points) > h.limit {
		h.points = append(h.points[:0:0], h.points[len(h.points)-h.limit:]...)
	}
}

// Points returns a copy of the recorded points, oldest first.
func (h *History) Points() []DataPoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]DataPoint(nil), h.points...)
}

// Len returns the number of recorded points.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.points)
}

// Chain returns a Callback that invokes each non-nil callback in order.
func Chain(callbacks ...Callback) Callback {
	var active []Callback
	for _, cb := range callbacks {
		if cb != nil {
			active = append(active, cb)
		}
	}
	return func(latency, throughput Snapshot) {
		for _, cb := range active {
			cb(latency, throughput)
		}
	}
}
