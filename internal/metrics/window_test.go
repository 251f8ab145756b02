package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestWindowThroughputUsesEarliestSend(t *testing.T) {
	w := newWindow(time.Time{})

	w.add(0, 10, UnitMilliseconds)  // 1 msg / 10ms
	w.add(10, 20, UnitMilliseconds) // 2 msgs / 20ms
	w.add(30, 40, UnitMilliseconds) // 3 msgs / 40ms

	if got := w.latency.Count(); got != 3 {
		t.Fatalf("latency count = %d, want 3", got)
	}
	if got := w.latency.Mean(); got != 10 {
		t.Errorf("latency mean = %v, want 10", got)
	}
	want := []float64{100, 100, 75}
	got := w.throughput.Values()
	if len(got) != len(want) {
		t.Fatalf("throughput samples = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("throughput[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWindowOutOfOrderSendLowersAnchor(t *testing.T) {
	w := newWindow(time.Time{})

	w.add(100, 110, UnitMilliseconds)
	w.add(50, 150, UnitMilliseconds)

	if w.minSent != 50 {
		t.Fatalf("minSent = %d, want 50", w.minSent)
	}
	// 2 messages over 100ms.
	if got := w.throughput.Values()[1]; got != 20 {
		t.Errorf("throughput = %v, want 20", got)
	}
}

func TestWindowZeroElapsedIsUndefined(t *testing.T) {
	w := newWindow(time.Time{})

	w.add(5, 5, UnitMilliseconds)

	if w.undefined != 1 {
		t.Errorf("undefined = %d, want 1", w.undefined)
	}
	if w.throughput.Count() != 0 {
		t.Errorf("throughput count = %d, want 0", w.throughput.Count())
	}
	if w.latency.Count() != 1 {
		t.Errorf("latency count = %d, want 1", w.latency.Count())
	}
}

func TestWindowNegativeLatencyIsRecorded(t *testing.T) {
	w := newWindow(time.Time{})

	w.add(20, 10, UnitMilliseconds)

	if got := w.latency.Min(); got != -10 {
		t.Errorf("latency = %v, want -10", got)
	}
	if w.undefined != 1 {
		t.Errorf("undefined = %d, want 1", w.undefined)
	}
}

func TestWindowNanosecondThroughput(t *testing.T) {
	w := newWindow(time.Time{})

	w.add(0, int64(5*time.Millisecond), UnitNanoseconds)
	w.add(int64(time.Millisecond), int64(10*time.Millisecond), UnitNanoseconds)

	got := w.throughput.Values()
	if got[0] != 200 || got[1] != 200 {
		t.Errorf("throughput = %v, want [200 200]", got)
	}
	if w.latency.Max() != float64(9*time.Millisecond) {
		t.Errorf("latency max = %v, want %v", w.latency.Max(), float64(9*time.Millisecond))
	}
}

func TestWindowReset(t *testing.T) {
	w := newWindow(time.Time{})
	w.add(0, 0, UnitMilliseconds)
	w.add(0, 10, UnitMilliseconds)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w.reset(start)

	if w.latency.Count() != 0 || w.throughput.Count() != 0 {
		t.Errorf("accumulators not reset")
	}
	if w.minSent != noSend {
		t.Errorf("minSent = %d, want sentinel", w.minSent)
	}
	if w.undefined != 0 {
		t.Errorf("undefined = %d, want 0", w.undefined)
	}
	if !w.start.Equal(start) {
		t.Errorf("start = %v, want %v", w.start, start)
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in   string
		want Unit
	}{
		{"ms", UnitMilliseconds},
		{"milliseconds", UnitMilliseconds},
		{" NS ", UnitNanoseconds},
		{"nanoseconds", UnitNanoseconds},
	}
	for _, tt := range tests {
		got, err := ParseUnit(tt.in)
		if err != nil {
			t.Errorf("ParseUnit(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseUnit(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseUnit("seconds"); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("ParseUnit(seconds) error = %v, want ErrInvalidUnit", err)
	}
}

func TestUnitStamp(t *testing.T) {
	ts := time.Unix(12, 345678901)
	if got := UnitMilliseconds.Stamp(ts); got != 12345 {
		t.Errorf("ms stamp = %d, want 12345", got)
	}
	if got := UnitNanoseconds.Stamp(ts); got != 12345678901 {
		t.Errorf("ns stamp = %d, want 12345678901", got)
	}
}

func TestStamperAdvancesFromOrigin(t *testing.T) {
	origin := time.Unix(100, 0)
	ms := newStamperAt(UnitMilliseconds, origin)
	ns := newStamperAt(UnitNanoseconds, origin)

	if got := ms.at(0); got != 100000 {
		t.Errorf("ms at 0 = %d, want 100000", got)
	}
	if got := ms.at(1500*time.Microsecond); got != 100001 {
		t.Errorf("ms at 1.5ms = %d, want 100001", got)
	}
	if got := ns.at(1500 * time.Microsecond); got != 100*int64(time.Second)+1500000 {
		t.Errorf("ns at 1.5ms = %d", got)
	}
}

func TestStamperNowIsMonotonic(t *testing.T) {
	s := NewStamper(UnitNanoseconds)
	prev := s.Now()
	for i := 0; i < 1000; i++ {
		now := s.Now()
		if now < prev {
			t.Fatalf("stamp went backwards: %d after %d", now, prev)
		}
		prev = now
	}
}
