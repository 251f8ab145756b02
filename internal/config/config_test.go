package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/msgsampler/internal/config"
)

func TestParseFlagsDefaults(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Interval != time.Second {
		t.Errorf("Interval = %s, want 1s", cfg.Interval)
	}
	if cfg.Unit != "ms" {
		t.Errorf("Unit = %q, want ms", cfg.Unit)
	}
	if cfg.Total != 1000 {
		t.Errorf("Total = %d, want 1000", cfg.Total)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
	if cfg.Rate != 0 {
		t.Errorf("Rate = %d, want 0", cfg.Rate)
	}
	if cfg.Latency != 10*time.Millisecond {
		t.Errorf("Latency = %s, want 10ms", cfg.Latency)
	}
	if cfg.Format != "text" {
		t.Errorf("Format = %q, want text", cfg.Format)
	}
	if cfg.Arrival.Model != config.ArrivalModelUniform {
		t.Errorf("Arrival.Model = %q, want uniform", cfg.Arrival.Model)
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("Tracing.SampleRate = %v, want 1", cfg.Tracing.SampleRate)
	}
	if cfg.Sink.URL != "" {
		t.Errorf("Sink.URL = %q, want empty", cfg.Sink.URL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"interval": "500ms",
		"unit": "ns",
		"total": 200,
		"concurrency": 4,
		"rate": 100,
		"latency": "3ms",
		"jitter": "1ms",
		"arrival": {"model": "poisson"},
		"format": "yaml",
		"jsonl_output": "windows.jsonl",
		"thresholds": ["latency:p99 < 10"],
		"sink": {"url": "ws://localhost:9000/ingest"}
	}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--config", path, "--concurrency", "8"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Interval != 500*time.Millisecond {
		t.Errorf("Interval = %s, want 500ms", cfg.Interval)
	}
	if cfg.Unit != "ns" {
		t.Errorf("Unit = %q, want ns", cfg.Unit)
	}
	if cfg.Total != 200 {
		t.Errorf("Total = %d, want 200", cfg.Total)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8 (flag overrides file)", cfg.Concurrency)
	}
	if cfg.Rate != 100 {
		t.Errorf("Rate = %d, want 100", cfg.Rate)
	}
	if cfg.Latency != 3*time.Millisecond || cfg.Jitter != time.Millisecond {
		t.Errorf("Latency/Jitter = %s/%s, want 3ms/1ms", cfg.Latency, cfg.Jitter)
	}
	if cfg.Arrival.Model != config.ArrivalModelPoisson {
		t.Errorf("Arrival.Model = %q, want poisson", cfg.Arrival.Model)
	}
	if cfg.Format != "yaml" {
		t.Errorf("Format = %q, want yaml", cfg.Format)
	}
	if cfg.JSONLOutput != "windows.jsonl" {
		t.Errorf("JSONLOutput = %q", cfg.JSONLOutput)
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0] != "latency:p99 < 10" {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if cfg.Sink.URL != "ws://localhost:9000/ingest" {
		t.Errorf("Sink.URL = %q", cfg.Sink.URL)
	}
	if cfg.Sink.HandshakeTimeout != 30*time.Second {
		t.Errorf("Sink.HandshakeTimeout = %s, want default 30s", cfg.Sink.HandshakeTimeout)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"interval: 2s",
		"duration: 30s",
		"arrival_model: uniform",
		"progress: true",
		"tracing:",
		"  endpoint: localhost:4318",
		"  protocol: http",
		"  insecure: true",
		"  service_name: sampler-ci",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Interval != 2*time.Second {
		t.Errorf("Interval = %s, want 2s", cfg.Interval)
	}
	if cfg.Duration != 30*time.Second {
		t.Errorf("Duration = %s, want 30s", cfg.Duration)
	}
	if cfg.Total != 0 {
		t.Errorf("Total = %d, want 0 for a duration-only run", cfg.Total)
	}
	if !cfg.Progress {
		t.Errorf("Progress = false, want true")
	}
	if cfg.Tracing.Endpoint != "localhost:4318" || cfg.Tracing.Protocol != "http" || !cfg.Tracing.Insecure {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Tracing.ServiceName != "sampler-ci" {
		t.Errorf("Tracing.ServiceName = %q", cfg.Tracing.ServiceName)
	}
	if !cfg.Tracing.Enabled() || !cfg.Tracing.ShouldPropagate() {
		t.Errorf("tracing should be enabled and propagating")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := config.NewLoader().Load([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func validConfig() config.Config {
	return config.Config{
		Interval:    time.Second,
		Unit:        "ms",
		Total:       10,
		Concurrency: 1,
		Format:      "text",
		Tracing:     config.TracingConfig{SampleRate: 1},
	}
}

func TestConfigValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   []string
	}{
		{
			name:   "non-positive interval",
			mutate: func(c *config.Config) { c.Interval = 0 },
			want:   []string{"interval"},
		},
		{
			name:   "unknown unit",
			mutate: func(c *config.Config) { c.Unit = "us" },
			want:   []string{"unit"},
		},
		{
			name: "negative values",
			mutate: func(c *config.Config) {
				c.Concurrency = -1
				c.Rate = -5
				c.Total = -10
				c.Latency = -1
				c.Jitter = -1
			},
			want: []string{"concurrency", "rate", "total", "latency", "jitter"},
		},
		{
			name:   "unbounded run",
			mutate: func(c *config.Config) { c.Total = 0 },
			want:   []string{"total or duration"},
		},
		{
			name: "poisson without rate",
			mutate: func(c *config.Config) {
				c.Arrival.Model = config.ArrivalModelPoisson
			},
			want: []string{"poisson"},
		},
		{
			name:   "unsupported format",
			mutate: func(c *config.Config) { c.Format = "pdf" },
			want:   []string{"format"},
		},
		{
			name: "progress with json",
			mutate: func(c *config.Config) {
				c.Format = "json"
				c.Progress = true
			},
			want: []string{"progress"},
		},
		{
			name:   "http sink url",
			mutate: func(c *config.Config) { c.Sink.URL = "http://example.com" },
			want:   []string{"ws or wss"},
		},
		{
			name: "tracing settings",
			mutate: func(c *config.Config) {
				c.Tracing.SampleRate = 2
				c.Tracing.Protocol = "thrift"
			},
			want: []string{"sample rate", "thrift"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() error = nil, want error")
			}
			var verr config.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error type = %T, want ValidationError", err)
			}
			if len(verr.Issues()) < len(tc.want) {
				t.Errorf("Issues() = %v, want at least %d", verr.Issues(), len(tc.want))
			}
			for _, want := range tc.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error %q missing %q", err.Error(), want)
				}
			}
		})
	}
}

func TestConfigValidationPasses(t *testing.T) {
	cfg := validConfig()
	cfg.Rate = 50
	cfg.Arrival.Model = config.ArrivalModelPoisson
	cfg.Sink.URL = "wss://collector.example.com/windows"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestTracingPropagateOverride(t *testing.T) {
	off := false
	tc := config.TracingConfig{Endpoint: "localhost:4317", Propagate: &off}
	if !tc.Enabled() {
		t.Error("Enabled() = false, want true")
	}
	if tc.ShouldPropagate() {
		t.Error("ShouldPropagate() = true, want false when explicitly disabled")
	}
}
