package metrics

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Unit is the timestamp unit a Sampler expects from AddMessage.
type Unit string

const (
	UnitMilliseconds Unit = "milliseconds"
	UnitNanoseconds  Unit = "nanoseconds"
)

// ParseUnit accepts the long names as well as "ms" and "ns".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ms", "millis", string(UnitMilliseconds):
		return UnitMilliseconds, nil
	case "ns", "nanos", string(UnitNanoseconds):
		return UnitNanoseconds, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
}

func (u Unit) valid() bool {
	return u == UnitMilliseconds || u == UnitNanoseconds
}

// perSecond is the number of units in one second.
func (u Unit) perSecond() float64 {
	if u == UnitNanoseconds {
		return float64(time.Second)
	}
	return float64(time.Second / time.Millisecond)
}

// Stamp converts t to an AddMessage timestamp in this unit. It reads the
// wall clock; use a Stamper for timestamps that must not jump when the
// system clock is stepped.
func (u Unit) Stamp(t time.Time) int64 {
	if u == UnitNanoseconds {
		return t.UnixNano()
	}
	return t.UnixMilli()
}

// Duration converts d to a count of this unit, truncating.
func (u Unit) Duration(d time.Duration) int64 {
	if u == UnitNanoseconds {
		return int64(d)
	}
	return d.Milliseconds()
}

// Stamper issues AddMessage timestamps anchored at the wall clock when it was
// created and advanced by the monotonic clock, so latencies computed from
// two stamps are immune to NTP steps during a run. It is safe for concurrent
// use.
type Stamper struct {
	unit   Unit
	origin time.Time
	base   int64
}

// NewStamper returns a Stamper for u starting now.
func NewStamper(u Unit) *Stamper {
	return newStamperAt(u, time.Now())
}

func newStamperAt(u Unit, origin time.Time) *Stamper {
	return &Stamper{unit: u, origin: origin, base: u.Stamp(origin)}
}

// Now returns the current timestamp.
func (s *Stamper) Now() int64 {
	return s.at(time.Since(s.origin))
}

func (s *Stamper) at(elapsed time.Duration) int64 {
	return s.base + s.unit.Duration(elapsed)
}

// noSend marks a window that has not seen a message yet.
const noSend = math.MaxInt64

// window holds the statistics for one reporting period (or the whole run).
type window struct {
	latency    *Accumulator
	throughput *Accumulator
	minSent    int64
	start      time.Time
	undefined  uint64
}

func newWindow(start time.Time) *window {
	return &window{
		latency:    NewAccumulator(),
		throughput: NewAccumulator(),
		minSent:    noSend,
		start:      start,
	}
}

// add records one message. Throughput is the rate as of this message: the
// number of messages seen in the window divided by the time since the
// earliest send in the window.
func (w *window) add(sent, received int64, unit Unit) {
	w.latency.Add(float64(received - sent))

	if sent < w.minSent {
		w.minSent = sent
	}
	elapsed := float64(received-w.minSent) / unit.perSecond()
	if elapsed <= 0 {
		w.undefined++
		return
	}
	w.throughput.Add(float64(w.latency.Count()) / elapsed)
}

func (w *window) reset(start time.Time) {
	w.latency = NewAccumulator()
	w.throughput = NewAccumulator()
	w.minSent = noSend
	w.start = start
	w.undefined = 0
}
