package metrics_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torosent/msgsampler/internal/metrics"
)

func TestAccumulatorEmpty(t *testing.T) {
	acc := metrics.NewAccumulator()

	assert.Equal(t, uint64(0), acc.Count())
	assert.Zero(t, acc.Mean())
	assert.Zero(t, acc.StdDev())
	assert.Zero(t, acc.Min())
	assert.Zero(t, acc.Max())
	assert.Zero(t, acc.Sum())
	assert.Zero(t, acc.Percentile(50))
	assert.Nil(t, acc.Distribution())
}

func TestAccumulatorBasicStatistics(t *testing.T) {
	acc := metrics.NewAccumulator()
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		acc.Add(v)
	}

	assert.Equal(t, uint64(8), acc.Count())
	assert.InDelta(t, 5.0, acc.Mean(), 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), acc.StdDev(), 1e-12)
	assert.Equal(t, 2.0, acc.Min())
	assert.Equal(t, 9.0, acc.Max())
	assert.Equal(t, 40.0, acc.Sum())
}

func TestAccumulatorSingleValue(t *testing.T) {
	acc := metrics.NewAccumulator()
	acc.Add(-3)

	assert.Equal(t, -3.0, acc.Mean())
	assert.Zero(t, acc.StdDev())
	assert.Equal(t, -3.0, acc.Min())
	assert.Equal(t, -3.0, acc.Max())
	assert.Equal(t, -3.0, acc.Percentile(0))
	assert.Equal(t, -3.0, acc.Percentile(100))
}

func TestAccumulatorPercentileLinearInterpolation(t *testing.T) {
	acc := metrics.NewAccumulator()
	for _, v := range []float64{50, 10, 40, 20, 30} {
		acc.Add(v)
	}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{25, 20},
		{50, 30},
		{90, 46},
		{99, 49.6},
		{100, 50},
		{-5, 10},
		{150, 50},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, acc.Percentile(tt.p), 1e-9, "Percentile(%v)", tt.p)
	}
}

func TestAccumulatorPercentileWithinBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	acc := metrics.NewAccumulator()
	for i := 0; i < 1000; i++ {
		acc.Add(rnd.NormFloat64()*20 + 100)
	}

	for p := 0.0; p <= 100; p += 0.5 {
		v := acc.Percentile(p)
		require.GreaterOrEqual(t, v, acc.Min(), "Percentile(%v)", p)
		require.LessOrEqual(t, v, acc.Max(), "Percentile(%v)", p)
	}
}

func TestAccumulatorPercentileSeesLaterAdds(t *testing.T) {
	acc := metrics.NewAccumulator()
	acc.Add(1)
	acc.Add(3)
	require.Equal(t, 2.0, acc.Percentile(50))

	acc.Add(100)
	assert.Equal(t, 3.0, acc.Percentile(50))
}

func TestAccumulatorMeanIsStableForLargeOffsets(t *testing.T) {
	acc := metrics.NewAccumulator()
	for _, v := range []float64{1e9 + 4, 1e9 + 7, 1e9 + 13, 1e9 + 16} {
		acc.Add(v)
	}

	assert.InDelta(t, 1e9+10, acc.Mean(), 1e-6)
	assert.InDelta(t, math.Sqrt(30), acc.StdDev(), 1e-6)
}

func TestAccumulatorCopyIsIndependent(t *testing.T) {
	acc := metrics.NewAccumulator()
	acc.Add(1)
	acc.Add(2)

	snap := acc.Copy()
	acc.Add(100)

	assert.Equal(t, uint64(2), snap.Count())
	assert.Equal(t, 2.0, snap.Max())
	assert.Equal(t, []float64{1, 2}, snap.Values())
	assert.Equal(t, uint64(3), acc.Count())

	snap.Add(-1)
	assert.Equal(t, 1.0, acc.Min())
}

func TestAccumulatorDistribution(t *testing.T) {
	acc := metrics.NewAccumulator()
	values := []float64{-5, -5, 0, 1.5, 10, 10, 10, 250}
	for _, v := range values {
		acc.Add(v)
	}

	bars := acc.Distribution()
	require.NotEmpty(t, bars)

	var total int64
	prevTo := math.Inf(-1)
	for _, b := range bars {
		assert.LessOrEqual(t, b.From, b.To)
		assert.GreaterOrEqual(t, b.From, prevTo)
		assert.Positive(t, b.Count)
		total += b.Count
		prevTo = b.To
	}
	assert.Equal(t, int64(len(values)), total)
	assert.InDelta(t, -5.0, bars[0].From, 0.01)
}

func TestAccumulatorDistributionCountsEverySampleOverWideRanges(t *testing.T) {
	tests := []struct {
		name string
		hi   float64
	}{
		{name: "within scale", hi: 1e15},
		{name: "past int64 at default scale", hi: 1e16},
		{name: "nanosecond epoch skew", hi: 1.7e18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := metrics.NewAccumulator()
			acc.Add(1e6)
			acc.Add(tt.hi)
			acc.Add(tt.hi)

			bars := acc.Distribution()
			require.NotEmpty(t, bars)

			var total int64
			for _, b := range bars {
				total += b.Count
			}
			assert.Equal(t, int64(3), total)
			assert.InDelta(t, 1e6, bars[0].From, tt.hi*0.01)
			assert.InEpsilon(t, tt.hi, bars[len(bars)-1].To, 0.02)
		})
	}
}

func TestAccumulatorDistributionSingleValue(t *testing.T) {
	acc := metrics.NewAccumulator()
	acc.Add(42)
	acc.Add(42)

	bars := acc.Distribution()
	require.Len(t, bars, 1)
	assert.Equal(t, int64(2), bars[0].Count)
	assert.InDelta(t, 42.0, bars[0].From, 0.001)
}
