package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/torosent/msgsampler/internal/config"
	"github.com/torosent/msgsampler/internal/logging"
	"github.com/torosent/msgsampler/internal/logging/glogger"
	"github.com/torosent/msgsampler/internal/metrics"
	"github.com/torosent/msgsampler/internal/output"
	"github.com/torosent/msgsampler/internal/runner"
	"github.com/torosent/msgsampler/internal/threshold"
	"github.com/torosent/msgsampler/internal/tracing"
	"github.com/torosent/msgsampler/internal/websocket"
)

const (
	progressInterval = time.Second
	historyLimit     = 600
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	configureGlog(cfg.Verbosity)
	defer glog.Flush()
	logger := glogger.New()

	unit, err := metrics.ParseUnit(cfg.Unit)
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("tracing shutdown: %v", err)
		}
	}()
	tracer := provider.Tracer()
	runCtx, runSpan := tracer.Start(ctx, "msgsampler.run")

	printer := output.NewPrinter(stdout, format, logger)
	history := metrics.NewHistory(historyLimit)
	callbacks := []metrics.Callback{history.Record, tracing.WindowCallback(runCtx, tracer)}
	if !cfg.Progress && format != output.FormatHTML {
		callbacks = append(callbacks, printer.Callback())
	}

	if cfg.JSONLOutput != "" {
		sink, err := output.NewJSONLSink(cfg.JSONLOutput)
		if err != nil {
			return err
		}
		defer func() {
			if err := sink.Close(); err != nil {
				logger.Warnf("close %s: %v", sink.Path(), err)
			}
		}()
		callbacks = append(callbacks, func(latency, throughput metrics.Snapshot) {
			if err := sink.Write(latency, throughput); err != nil {
				logger.Warnf("jsonl sink: %v", err)
			}
		})
	}

	if cfg.Sink.URL != "" {
		sink, err := connectSink(runCtx, cfg.Sink, provider)
		if err != nil {
			return err
		}
		defer func() {
			if err := sink.Close(); err != nil {
				logger.Warnf("close window sink: %v", err)
			}
			m := sink.Metrics()
			logger.Infof("window sink: %d windows, %d bytes, %d errors", m.MessagesSent, m.BytesSent, m.Errors)
		}()
		callbacks = append(callbacks, func(latency, throughput metrics.Snapshot) {
			if err := sink.Publish(latency, throughput); err != nil {
				logger.Warnf("window sink: %v", err)
			}
		})
	}

	emit := metrics.Chain(callbacks...)
	sampler, err := metrics.New(metrics.Options{
		Interval: cfg.Interval,
		Unit:     unit,
		Callback: emit,
		Output:   stdout,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	logger.Infof("run %s: %s windows, unit %s", sampler.RunID(), cfg.Interval, unit)

	producer := newSimulator(sampler, unit, cfg.Latency, cfg.Jitter, time.Now().UnixNano())
	r := runner.New(runner.Options{
		Concurrency:   cfg.Concurrency,
		TotalMessages: cfg.Total,
		Duration:      cfg.Duration,
		RatePerSecond: cfg.Rate,
		Producer:      runner.WithLogging(producer, failureLogger{logger}),
		ArrivalModel:  runner.ArrivalModel(cfg.Arrival.Model),
	})

	var progress *output.ProgressReporter
	if cfg.Progress {
		progress = output.NewProgressReporter(sampler, progressInterval, stdout)
		progress.Start()
	}

	result := r.Run(runCtx)

	if progress != nil {
		progress.Stop()
		fmt.Fprintln(stdout)
	}

	if err := sampler.Stop(); err != nil && !errors.Is(err, metrics.ErrNotStarted) {
		return err
	}
	// The final partial window is closed here since the ticker is gone.
	if latency, throughput := sampler.Rollover(); latency.Count() > 0 {
		emit(latency, throughput)
	}

	latency, throughput := sampler.Snapshot(metrics.KindCumulative)
	tracing.RecordWindow(runCtx, tracer, latency, throughput)
	logger.Infof("run %s: %d messages, %d errors in %s", sampler.RunID(), result.Total, result.Errors, result.Duration)

	var results []threshold.Result
	if len(thresholds) > 0 {
		results = threshold.NewEvaluator(thresholds).Evaluate(latency, throughput)
	}

	if format == output.FormatHTML {
		err := output.PrintHTMLReport(stdout, output.HTMLReport{
			Latency:    latency,
			Throughput: throughput,
			History:    history.Points(),
			Thresholds: results,
			Interval:   cfg.Interval,
		})
		if err != nil {
			return err
		}
	} else {
		if err := printer.Print(latency, throughput); err != nil {
			return err
		}
		if format == output.FormatText {
			output.PrintHistory(stdout, history.Points())
		}
		if len(results) > 0 {
			fmt.Fprintln(stdout, "\nThresholds:")
			for _, res := range results {
				fmt.Fprintf(stdout, "  %s\n", res.Message)
			}
		}
	}

	var runErr error
	if failed := countFailed(results); failed > 0 {
		runErr = fmt.Errorf("%d of %d thresholds failed", failed, len(results))
	}
	tracing.EndSpan(runSpan, runErr)
	return runErr
}

func countFailed(results []threshold.Result) int {
	failed := 0
	for _, res := range results {
		if !res.Pass {
			failed++
		}
	}
	return failed
}

func configureGlog(verbosity int) {
	if f := flag.Lookup("logtostderr"); f != nil {
		_ = f.Value.Set("true")
	}
	if f := flag.Lookup("v"); f != nil {
		_ = f.Value.Set(strconv.Itoa(verbosity))
	}
}

func connectSink(ctx context.Context, cfg config.SinkConfig, provider *tracing.Provider) (*websocket.Sink, error) {
	headers := http.Header{}
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}
	if provider.ShouldPropagate() {
		tracing.InjectHTTPHeaders(ctx, headers)
	}

	sink := websocket.NewSink(websocket.Config{
		URL:              cfg.URL,
		Headers:          headers,
		HandshakeTimeout: cfg.HandshakeTimeout,
		WriteTimeout:     cfg.WriteTimeout,
	})
	if err := sink.Connect(ctx); err != nil {
		return nil, fmt.Errorf("window sink %s: %w", cfg.URL, err)
	}
	return sink, nil
}

type failureLogger struct {
	logger logging.Logger
}

func (f failureLogger) LogFailure(err error) {
	f.logger.Warnf("message failed: %v", err)
}
