// Package metrics aggregates message latency and throughput for a single
// process.
//
// Callers report each message as a pair of timestamps (when it was sent, when
// it was received). The [Sampler] keeps two summaries of those reports: a
// cumulative one covering everything since the first message, and a rolling
// window that is closed and reset on a fixed interval.
//
// # Sampler
//
//	opts := metrics.DefaultOptions()
//	opts.Interval = 100 * time.Millisecond
//	opts.Callback = func(latency, throughput metrics.Snapshot) {
//		fmt.Println(latency.Count(), latency.Mean(), throughput.Mean())
//	}
//	sampler, err := metrics.New(opts)
//	if err != nil {
//		return err
//	}
//	defer sampler.Stop()
//
//	stamps := metrics.NewStamper(opts.Unit)
//	sent := stamps.Now()
//	// ... deliver the message ...
//	sampler.AddMessage(sent, stamps.Now())
//
// The window ticker starts with the first AddMessage. On each tick the current
// window is copied into a pair of [Snapshot] values, reset, and the snapshots
// are handed to the Callback after the window lock is released. Without a
// Callback they are printed as JSON to [Options.Output].
//
// # Throughput
//
// Throughput is recorded per message, not per window: each message adds the
// rate observed so far in its window, i.e. messages seen divided by the time
// since the earliest send in that window. The throughput summary is therefore
// a distribution of rates with its own percentiles. A message that arrives at
// the same instant as the earliest send yields no rate; it is counted in
// [Snapshot.Undefined] instead.
//
// # Statistics
//
// [Accumulator] keeps every sample. Mean and standard deviation are updated
// incrementally; percentiles use linear interpolation on the sorted samples.
// Every statistic of an empty accumulator is 0, so check Count first.
//
// # Thread Safety
//
// AddMessage, Snapshot and Rollover may be called from any goroutine. The
// cumulative summary and the window have separate locks, and no callback or
// I/O ever runs while one is held. Snapshots own their data and can be read
// concurrently.
package metrics
