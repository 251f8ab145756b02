package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/msgsampler/internal/metrics"
)

// SnapshotSource is the read side of a sampler.
type SnapshotSource interface {
	Snapshot(kind metrics.Kind) (latency, throughput metrics.Snapshot)
}

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	source   SnapshotSource
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(source SnapshotSource, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		source:   source,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		return
	}
	p.ticker.Stop()
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, progressLine(p.source))
		case <-p.done:
			return
		}
	}
}

func progressLine(source SnapshotSource) string {
	total, _ := source.Snapshot(metrics.KindCumulative)
	window, _ := source.Snapshot(metrics.KindWindow)
	line := fmt.Sprintf("\rMessages: %d | Msg/s: %.1f | Mean: %.2f | P99: %.2f",
		total.Count(), total.MessagesPerSecond(), total.Mean(), total.Percentile(99))
	if window.Count() > 0 {
		line += fmt.Sprintf(" | Window: %d (P99 %.2f)", window.Count(), window.Percentile(99))
	}
	return line
}
