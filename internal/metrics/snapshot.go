package metrics

import (
	"encoding/json"
	"time"
)

// Kind distinguishes the all-time summary from the rolling window.
type Kind string

const (
	KindCumulative Kind = "cumulative"
	KindWindow     Kind = "time-window"
)

const (
	NameLatency    = "latency"
	NameThroughput = "throughput"

	UnitMessagesPerSecond = "messages/second"
)

// Snapshot is an immutable copy of one accumulator at a point in time. It is
// safe to read from any goroutine and never changes after it is built.
type Snapshot struct {
	RunID     string
	Name      string
	Kind      Kind
	Unit      string
	Begin     time.Time
	End       time.Time
	Undefined uint64 // throughput samples skipped because no time had elapsed

	stats *Accumulator
}

func newSnapshot(runID, name string, kind Kind, unit string, begin, end time.Time, acc *Accumulator, undefined uint64) Snapshot {
	return Snapshot{
		RunID:     runID,
		Name:      name,
		Kind:      kind,
		Unit:      unit,
		Begin:     begin,
		End:       end,
		Undefined: undefined,
		stats:     acc.Copy(),
	}
}

func (s Snapshot) acc() *Accumulator {
	if s.stats == nil {
		return NewAccumulator()
	}
	return s.stats
}

func (s Snapshot) Count() uint64   { return s.acc().Count() }
func (s Snapshot) Mean() float64   { return s.acc().Mean() }
func (s Snapshot) StdDev() float64 { return s.acc().StdDev() }
func (s Snapshot) Min() float64    { return s.acc().Min() }
func (s Snapshot) Max() float64    { return s.acc().Max() }
func (s Snapshot) Sum() float64    { return s.acc().Sum() }

// Percentile computes on a private copy, so concurrent readers of the same
// Snapshot never share the sort cache.
func (s Snapshot) Percentile(p float64) float64 {
	return s.acc().Copy().Percentile(p)
}

// Statistics returns a copy of the underlying accumulator.
func (s Snapshot) Statistics() *Accumulator {
	return s.acc().Copy()
}

// Distribution returns the HDR histogram buckets of the samples.
func (s Snapshot) Distribution() []Bar {
	return s.acc().Distribution()
}

// Elapsed is the length of the sampled period.
func (s Snapshot) Elapsed() time.Duration {
	if s.Begin.IsZero() || s.End.IsZero() {
		return 0
	}
	return s.End.Sub(s.Begin)
}

// MessagesPerSecond is the number of samples per second of the sampled
// period, measured with millisecond resolution. It is 0 for periods shorter
// than a millisecond.
func (s Snapshot) MessagesPerSecond() float64 {
	ms := s.Elapsed().Milliseconds()
	if ms <= 0 {
		return 0
	}
	return 1000 * float64(s.Count()) / float64(ms)
}

// Summary is the fixed set of figures formatters print.
type Summary struct {
	N                 uint64  `json:"n" yaml:"n"`
	Mean              float64 `json:"mean" yaml:"mean"`
	StdDev            float64 `json:"stddev" yaml:"stddev"`
	Min               float64 `json:"min" yaml:"min"`
	Max               float64 `json:"max" yaml:"max"`
	Sum               float64 `json:"sum" yaml:"sum"`
	P50               float64 `json:"p50" yaml:"p50"`
	P90               float64 `json:"p90" yaml:"p90"`
	P95               float64 `json:"p95" yaml:"p95"`
	P99               float64 `json:"p99" yaml:"p99"`
	P999              float64 `json:"p99_9" yaml:"p99_9"`
	MessagesPerSecond float64 `json:"messages_per_second" yaml:"messages_per_second"`
	ElapsedMs         int64   `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// Summary computes every figure in one pass over a single private copy.
func (s Snapshot) Summary() Summary {
	acc := s.acc().Copy()
	return Summary{
		N:                 acc.Count(),
		Mean:              acc.Mean(),
		StdDev:            acc.StdDev(),
		Min:               acc.Min(),
		Max:               acc.Max(),
		Sum:               acc.Sum(),
		P50:               acc.Percentile(50),
		P90:               acc.Percentile(90),
		P95:               acc.Percentile(95),
		P99:               acc.Percentile(99),
		P999:              acc.Percentile(99.9),
		MessagesPerSecond: s.MessagesPerSecond(),
		ElapsedMs:         s.Elapsed().Milliseconds(),
	}
}

type snapshotJSON struct {
	RunID       string          `json:"run_id,omitempty"`
	Name        string          `json:"name"`
	Type        Kind            `json:"type"`
	Unit        string          `json:"unit"`
	SampleBegin string          `json:"sample_begin"`
	SampleEnd   string          `json:"sample_end"`
	Throughput  throughputJSON  `json:"throughput"`
	Statistics  json.RawMessage `json:"statistics"`
	Undefined   uint64          `json:"undefined,omitempty"`
}

type throughputJSON struct {
	MessagesPerSecond float64 `json:"messages_per_second"`
	Messages          uint64  `json:"messages"`
	Milliseconds      int64   `json:"milliseconds"`
}

// MarshalJSON renders the snapshot document. Statistics other than n are
// omitted for an empty snapshot.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	sum := s.Summary()

	var stats interface{} = sum
	if sum.N == 0 {
		stats = struct {
			N uint64 `json:"n"`
		}{}
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}

	return json.Marshal(snapshotJSON{
		RunID:       s.RunID,
		Name:        s.Name,
		Type:        s.Kind,
		Unit:        s.Unit,
		SampleBegin: formatTime(s.Begin),
		SampleEnd:   formatTime(s.End),
		Throughput: throughputJSON{
			MessagesPerSecond: sum.MessagesPerSecond,
			Messages:          sum.N,
			Milliseconds:      sum.ElapsedMs,
		},
		Statistics: raw,
		Undefined:  s.Undefined,
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}
