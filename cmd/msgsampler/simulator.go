package main

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/torosent/msgsampler/internal/metrics"
)

// recorder is the write side of a sampler.
type recorder interface {
	AddMessage(sent, received int64)
}

// simulator stands in for a messaging round trip: it stamps a send time,
// waits the configured latency plus jitter, and records the delivery.
type simulator struct {
	rec     recorder
	stamps  *metrics.Stamper
	latency time.Duration
	jitter  *jitterSource
	max     time.Duration
}

type jitterSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newSimulator(rec recorder, unit metrics.Unit, latency, jitter time.Duration, seed int64) *simulator {
	return &simulator{
		rec:     rec,
		stamps:  metrics.NewStamper(unit),
		latency: latency,
		jitter:  &jitterSource{rnd: rand.New(rand.NewSource(seed))},
		max:     jitter,
	}
}

func (j *jitterSource) next(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return time.Duration(j.rnd.Int63n(int64(max) + 1))
}

func (s *simulator) Produce(ctx context.Context) error {
	sent := s.stamps.Now()
	delay := s.latency + s.jitter.next(s.max)
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.rec.AddMessage(sent, s.stamps.Now())
	return nil
}
