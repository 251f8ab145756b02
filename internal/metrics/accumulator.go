package metrics

import (
	"math"
	"sort"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Accumulator is an append-only summary of float64 samples.
//
// Mean and variance are maintained incrementally (Welford), so they stay
// accurate for long streams of similar values. Percentiles are computed from
// the retained samples. An empty Accumulator reports 0 for every statistic;
// callers check Count before trusting the rest.
//
// Accumulator is not safe for concurrent use. The Sampler guards each one with
// its window lock and only hands out copies.
type Accumulator struct {
	values []float64
	sorted []float64 // cached ascending view; nil when stale
	mean   float64
	m2     float64
	sum    float64
	min    float64
	max    float64
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add records a sample.
func (a *Accumulator) Add(v float64) {
	a.values = append(a.values, v)
	a.sorted = nil

	n := float64(len(a.values))
	delta := v - a.mean
	a.mean += delta / n
	a.m2 += delta * (v - a.mean)
	a.sum += v

	if len(a.values) == 1 || v < a.min {
		a.min = v
	}
	if len(a.values) == 1 || v > a.max {
		a.max = v
	}
}

// Count returns the number of samples recorded.
func (a *Accumulator) Count() uint64 {
	return uint64(len(a.values))
}

// Mean returns the arithmetic mean, or 0 when empty.
func (a *Accumulator) Mean() float64 {
	if len(a.values) == 0 {
		return 0
	}
	return a.mean
}

// StdDev returns the sample standard deviation (n-1 denominator).
// It is 0 for fewer than two samples.
func (a *Accumulator) StdDev() float64 {
	if len(a.values) < 2 {
		return 0
	}
	return math.Sqrt(a.m2 / float64(len(a.values)-1))
}

// Min returns the smallest sample, or 0 when empty.
func (a *Accumulator) Min() float64 {
	return a.min
}

// Max returns the largest sample, or 0 when empty.
func (a *Accumulator) Max() float64 {
	return a.max
}

// Sum returns the sum of all samples.
func (a *Accumulator) Sum() float64 {
	return a.sum
}

// Percentile returns the p-th percentile (p in [0,100]) using linear
// interpolation between closest ranks on the sorted samples, with rank
// p/100*(n-1). Out of range p is clamped. Returns 0 when empty.
func (a *Accumulator) Percentile(p float64) float64 {
	n := len(a.values)
	if n == 0 {
		return 0
	}
	if math.IsNaN(p) || p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	sorted := a.sortedValues()
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func (a *Accumulator) sortedValues() []float64 {
	if a.sorted == nil {
		a.sorted = make([]float64, len(a.values))
		copy(a.sorted, a.values)
		sort.Float64s(a.sorted)
	}
	return a.sorted
}

// Values returns a copy of the samples in insertion order.
func (a *Accumulator) Values() []float64 {
	out := make([]float64, len(a.values))
	copy(out, a.values)
	return out
}

// Copy returns a deep copy that does not share storage with a.
func (a *Accumulator) Copy() *Accumulator {
	c := *a
	c.values = make([]float64, len(a.values))
	copy(c.values, a.values)
	c.sorted = nil
	return &c
}

// Bar is one non-empty bucket of a Distribution, in sample units.
type Bar struct {
	From  float64 `json:"from" yaml:"from"`
	To    float64 `json:"to" yaml:"to"`
	Count int64   `json:"count" yaml:"count"`
}

const (
	// distributionScale keeps three decimal places of each sample when they
	// are mapped onto the histogram's integer domain.
	distributionScale   = 1000
	distributionSigFigs = 2
	// maxDistributionSpan caps the histogram's integer domain. Wider sample
	// ranges (nanosecond stamps with a skewed clock) are mapped with a
	// coarser scale instead of overflowing int64.
	maxDistributionSpan = 1 << 40
)

// distributionMapping maps samples onto [1, highest] for the histogram.
type distributionMapping struct {
	min     float64
	scale   float64
	highest int64
}

func newDistributionMapping(min, max float64) (distributionMapping, bool) {
	width := max - min
	if math.IsNaN(width) || math.IsInf(width, 0) {
		return distributionMapping{}, false
	}
	scale := float64(distributionScale)
	if width*scale > maxDistributionSpan {
		scale = maxDistributionSpan / width
	}
	highest := int64(math.Ceil(width*scale)) + 2
	return distributionMapping{min: min, scale: scale, highest: highest}, true
}

func (m distributionMapping) toHistogram(v float64) int64 {
	x := int64(math.Round((v-m.min)*m.scale)) + 1
	if x > m.highest {
		x = m.highest
	}
	return x
}

func (m distributionMapping) fromHistogram(v int64) float64 {
	return float64(v-1)/m.scale + m.min
}

// Distribution buckets the samples into an HDR histogram and returns the
// non-empty buckets in ascending order. Samples are shifted by Min so that
// negative values are representable. Every sample lands in a bucket; when
// the samples cannot be represented (non-finite values) Distribution
// returns nil rather than a partial histogram.
func (a *Accumulator) Distribution() []Bar {
	if len(a.values) == 0 {
		return nil
	}

	m, ok := newDistributionMapping(a.min, a.max)
	if !ok {
		return nil
	}
	h := hdrhistogram.New(1, m.highest, distributionSigFigs)
	for _, v := range a.values {
		if err := h.RecordValue(m.toHistogram(v)); err != nil {
			return nil
		}
	}

	var bars []Bar
	for _, b := range h.Distribution() {
		if b.Count == 0 {
			continue
		}
		bars = append(bars, Bar{
			From:  m.fromHistogram(b.From),
			To:    m.fromHistogram(b.To),
			Count: b.Count,
		})
	}
	return bars
}
