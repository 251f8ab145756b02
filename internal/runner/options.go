package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Producer abstracts producing and delivering one message.
// Implementations should return an error for failed deliveries.
type Producer interface {
	Produce(ctx context.Context) error
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context) error

func (f ProducerFunc) Produce(ctx context.Context) error { return f(ctx) }

// ArrivalModel selects how message start times are spaced.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// Options configure the Runner.
type Options struct {
	Concurrency    int                         // number of producer goroutines
	TotalMessages  int                         // messages to produce (0 means unlimited until duration/end)
	Duration       time.Duration               // overall time limit (0 means no duration cap)
	RatePerSecond  int                         // messages per second pacing (0 means unlimited)
	Producer       Producer                    // message producer (required)
	ArrivalModel   ArrivalModel                // uniform (default) or poisson
	RandomSeed     int64                       // seed for poisson inter-arrival sampling
	PoissonSampler func() float64              // optional injection for tests; returns Exp(1) samples
	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.TotalMessages < 0 {
		o.TotalMessages = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.ArrivalModel == "" {
		o.ArrivalModel = ArrivalModelUniform
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
