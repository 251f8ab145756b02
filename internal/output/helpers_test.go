package output

import (
	"sync"
	"testing"
	"time"

	"github.com/torosent/msgsampler/internal/metrics"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// newTestSampler returns a sampler whose clock advances one second per read
// and which never rolls over on its own.
func newTestSampler(t *testing.T) *metrics.Sampler {
	t.Helper()
	clock := &stepClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	opts := metrics.DefaultOptions()
	opts.Interval = time.Hour
	opts.Clock = clock.Now
	opts.Callback = func(metrics.Snapshot, metrics.Snapshot) {}
	s, err := metrics.New(opts)
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func recordLatencies(s *metrics.Sampler, latencies ...int64) {
	for i, l := range latencies {
		sent := int64(i * 10)
		s.AddMessage(sent, sent+l)
	}
}
