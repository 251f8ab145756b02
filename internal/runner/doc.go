// Package runner generates synthetic message traffic for msgsampler.
//
// The runner orchestrates concurrent producers with support for:
//   - Configurable concurrency levels
//   - Rate limiting (messages per second)
//   - Duration-based and count-based termination
//   - Uniform and Poisson arrival models
//
// # Basic Usage
//
//	opts := runner.Options{
//		Concurrency:   10,
//		TotalMessages: 1000,
//		Duration:      time.Minute,
//		RatePerSecond: 100,
//		Producer:      myProducer,
//	}
//	r := runner.New(opts)
//	result := r.Run(ctx)
//
// # Producer Interface
//
// The [Producer] interface defines what a runner executes:
//
//	type Producer interface {
//		Produce(ctx context.Context) error
//	}
//
// [ProducerFunc] adapts a plain function.
//
// # Arrival Models
//
//   - [ArrivalModelUniform]: messages at fixed intervals via a token bucket
//   - [ArrivalModelPoisson]: exponential inter-arrival times at the configured mean rate
//
// # Middleware
//
// [WithLogging] reports failed deliveries to a [FailureLogger].
package runner
