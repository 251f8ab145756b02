package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/torosent/msgsampler/internal/metrics"
)

// Config drives one msgsampler run.
type Config struct {
	Interval    time.Duration `mapstructure:"interval"`
	Unit        string        `mapstructure:"unit"`
	Total       int           `mapstructure:"total"`
	Concurrency int           `mapstructure:"concurrency"`
	Rate        int           `mapstructure:"rate"`
	Duration    time.Duration `mapstructure:"duration"`
	Latency     time.Duration `mapstructure:"latency"`
	Jitter      time.Duration `mapstructure:"jitter"`
	Arrival     ArrivalConfig `mapstructure:"arrival"`
	Format      string        `mapstructure:"format"`
	Progress    bool          `mapstructure:"progress"`
	JSONLOutput string        `mapstructure:"jsonl_output"`
	Sink        SinkConfig    `mapstructure:"sink"`
	Thresholds  []string      `mapstructure:"thresholds"`
	Tracing     TracingConfig `mapstructure:"tracing"`
	Verbosity   int           `mapstructure:"verbosity"`
	ConfigFile  string        `mapstructure:"-"`
}

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

type ArrivalConfig struct {
	Model ArrivalModel `mapstructure:"model"`
}

// SinkConfig configures the WebSocket window forwarder. An empty URL disables it.
type SinkConfig struct {
	URL              string            `mapstructure:"url"`
	Headers          map[string]string `mapstructure:"headers"`
	HandshakeTimeout time.Duration     `mapstructure:"handshake_timeout"`
	WriteTimeout     time.Duration     `mapstructure:"write_timeout"`
}

// TracingConfig configures OTLP export of rollover spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
	Propagate   *bool   `mapstructure:"propagate"`
}

// Enabled reports whether an exporter endpoint is configured, either here or
// through OTEL_EXPORTER_OTLP_ENDPOINT.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether W3C trace context is injected into the
// sink handshake. It follows Enabled unless set explicitly.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if c.Interval <= 0 {
		issues = append(issues, "interval must be > 0")
	}
	if _, err := metrics.ParseUnit(c.Unit); err != nil {
		issues = append(issues, fmt.Sprintf("unit %q is not supported (use ms or ns)", c.Unit))
	}

	if c.Concurrency > 500 {
		fmt.Fprintf(os.Stderr, "WARNING: High concurrency configured (%d workers). Simulated messages share one sampler.\n", c.Concurrency)
	}

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Total < 0 {
		issues = append(issues, "total must be >= 0")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.Total == 0 && c.Duration == 0 {
		issues = append(issues, "one of total or duration is required")
	}
	if c.Latency < 0 {
		issues = append(issues, "latency must be >= 0")
	}
	if c.Jitter < 0 {
		issues = append(issues, "jitter must be >= 0")
	}
	if c.Verbosity < 0 {
		issues = append(issues, "verbosity must be >= 0")
	}

	issues = append(issues, validateArrivalConfig(c.Arrival, c.Rate)...)
	issues = append(issues, validateFormat(c.Format)...)
	issues = append(issues, validateSinkConfig(c.Sink)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if c.Format != "" && c.Format != "text" && c.Progress {
		issues = append(issues, "progress output is only available with the text format")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

func validateArrivalConfig(arr ArrivalConfig, rate int) []string {
	model := arr.Model
	if model == "" {
		model = ArrivalModelUniform
	}
	switch model {
	case ArrivalModelUniform:
		return nil
	case ArrivalModelPoisson:
		if rate <= 0 {
			return []string{"poisson arrival model requires rate > 0"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("arrival model %q is not supported", model)}
	}
}

func validateFormat(format string) []string {
	switch strings.ToLower(format) {
	case "", "text", "json", "yaml", "yml", "html":
		return nil
	default:
		return []string{fmt.Sprintf("format %q is not supported (use text, json, yaml or html)", format)}
	}
}

func validateSinkConfig(sink SinkConfig) []string {
	if strings.TrimSpace(sink.URL) == "" {
		return nil
	}
	var issues []string
	u, err := url.Parse(sink.URL)
	if err != nil {
		issues = append(issues, fmt.Sprintf("sink url is invalid: %v", err))
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		issues = append(issues, fmt.Sprintf("sink url must use ws or wss, got %q", u.Scheme))
	}
	if sink.HandshakeTimeout < 0 {
		issues = append(issues, "sink handshake timeout must be >= 0")
	}
	if sink.WriteTimeout < 0 {
		issues = append(issues, "sink write timeout must be >= 0")
	}
	return issues
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing sample rate must be between 0 and 1, got %g", t.SampleRate))
	}
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported (use grpc or http)", t.Protocol))
	}
	return issues
}
