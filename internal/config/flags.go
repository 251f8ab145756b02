package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	defaultTotal   = 1000
	defaultLatency = 10 * time.Millisecond
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "msgsampler",
		Short:         "Drive a windowed latency/throughput sampler with simulated messages",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Sampler flags
	flags.Duration("interval", time.Second, "Length of each reporting window")
	flags.String("unit", "ms", "Timestamp unit for recorded messages (ms or ns)")

	// Load control flags
	flags.IntP("messages", "n", defaultTotal, "Total number of messages to simulate (0 means unlimited)")
	flags.IntP("concurrency", "c", 1, "Number of concurrent producers")
	flags.IntP("rate", "r", 0, "Messages per second limit (0 means unlimited)")
	flags.DurationP("duration", "d", 0, "How long to run (e.g. 30s, 1m)")
	flags.Duration("latency", defaultLatency, "Simulated base delivery latency")
	flags.Duration("jitter", 0, "Maximum random latency added to each message")
	flags.String("arrival-model", string(ArrivalModelUniform), "Arrival model to use when pacing messages (uniform or poisson)")

	// Output flags
	flags.String("format", "text", "Report format: text, json, yaml or html (html renders the final report only)")
	flags.Bool("progress", false, "Show a live progress line (text format only)")
	flags.String("jsonl-output", "", "Append every closed window as a JSON line to this file")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")
	flags.IntP("verbosity", "v", 0, "Log verbosity (2 enables debug logging)")

	// Sink flags
	flags.String("sink-url", "", "Forward every closed window to this WebSocket URL")
	flags.StringSlice("sink-header", nil, "Additional sink handshake header in key=value form")
	flags.Duration("sink-handshake-timeout", 30*time.Second, "WebSocket sink handshake timeout")
	flags.Duration("sink-write-timeout", 5*time.Second, "WebSocket sink write timeout")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Pass/fail thresholds on the cumulative summary (repeatable, e.g., 'latency:p95 < 50')")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint for rollover spans")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of rollover spans to sample (0.0 to 1.0)")
	flags.String("service-name", "", "Service name reported on spans (default msgsampler)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n", cmd.UseLine(), cmd.Short)
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("interval") {
		val, err := fs.GetDuration("interval")
		if err != nil {
			return err
		}
		cfg.Interval = val
	}
	if fs.Changed("unit") {
		val, err := fs.GetString("unit")
		if err != nil {
			return err
		}
		cfg.Unit = val
	}
	if fs.Changed("messages") {
		val, err := fs.GetInt("messages")
		if err != nil {
			return err
		}
		cfg.Total = val
	}
	if fs.Changed("concurrency") {
		val, err := fs.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("duration") {
		val, err := fs.GetDuration("duration")
		if err != nil {
			return err
		}
		cfg.Duration = val
		// A duration on its own means "run until time is up".
		if !fs.Changed("messages") {
			cfg.Total = 0
		}
	}
	if fs.Changed("latency") {
		val, err := fs.GetDuration("latency")
		if err != nil {
			return err
		}
		cfg.Latency = val
	}
	if fs.Changed("jitter") {
		val, err := fs.GetDuration("jitter")
		if err != nil {
			return err
		}
		cfg.Jitter = val
	}
	if fs.Changed("arrival-model") {
		val, err := fs.GetString("arrival-model")
		if err != nil {
			return err
		}
		cfg.Arrival.Model = ArrivalModel(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("format") {
		val, err := fs.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = val
	}
	if fs.Changed("progress") {
		val, err := fs.GetBool("progress")
		if err != nil {
			return err
		}
		cfg.Progress = val
	}
	if fs.Changed("jsonl-output") {
		val, err := fs.GetString("jsonl-output")
		if err != nil {
			return err
		}
		cfg.JSONLOutput = strings.TrimSpace(val)
	}
	if fs.Changed("verbosity") {
		val, err := fs.GetInt("verbosity")
		if err != nil {
			return err
		}
		cfg.Verbosity = val
	}

	if fs.Changed("sink-url") {
		val, err := fs.GetString("sink-url")
		if err != nil {
			return err
		}
		cfg.Sink.URL = strings.TrimSpace(val)
	}
	vals, err := fs.GetStringSlice("sink-header")
	if err != nil {
		return err
	}
	if len(vals) > 0 {
		if cfg.Sink.Headers == nil {
			cfg.Sink.Headers = map[string]string{}
		}
		for _, entry := range vals {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("sink header must be in key=value format: %s", entry)
			}
			key := http.CanonicalHeaderKey(strings.TrimSpace(parts[0]))
			if key == "" {
				return fmt.Errorf("sink header key cannot be empty")
			}
			cfg.Sink.Headers[key] = strings.TrimSpace(parts[1])
		}
	}
	if fs.Changed("sink-handshake-timeout") {
		val, err := fs.GetDuration("sink-handshake-timeout")
		if err != nil {
			return err
		}
		cfg.Sink.HandshakeTimeout = val
	}
	if fs.Changed("sink-write-timeout") {
		val, err := fs.GetDuration("sink-write-timeout")
		if err != nil {
			return err
		}
		cfg.Sink.WriteTimeout = val
	}

	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("service-name") {
		val, err := fs.GetString("service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = strings.TrimSpace(val)
	}

	return nil
}
