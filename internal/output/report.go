package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/msgsampler/internal/logging"
	"github.com/torosent/msgsampler/internal/metrics"
)

// Format selects how snapshots are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	// FormatHTML renders one standalone document for the whole run; it has
	// no per-window form.
	FormatHTML Format = "html"
)

// ParseFormat accepts text, json, yaml or html (case-insensitive, empty means text).
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want text, json, yaml or html)", s)
	}
}

const maxHistogramRows = 10

// PrintReport outputs a human-readable summary of a latency/throughput pair.
func PrintReport(w io.Writer, latency, throughput metrics.Snapshot) {
	lat := latency.Summary()
	thr := throughput.Summary()

	fmt.Fprintf(w, "\n--- %s (%s) ---\n", kindTitle(latency.Kind), latency.Unit)
	if latency.RunID != "" {
		fmt.Fprintf(w, "Run:               %s\n", latency.RunID)
	}
	fmt.Fprintf(w, "Messages:          %d\n", lat.N)
	fmt.Fprintf(w, "Elapsed:           %s\n", latency.Elapsed())
	fmt.Fprintf(w, "Messages/sec:      %.2f\n", lat.MessagesPerSecond)
	if lat.N == 0 {
		fmt.Fprintln(w, "\nNo messages recorded.")
		return
	}

	fmt.Fprintln(w, "\nLatency:")
	fmt.Fprintf(w, "  Min:             %.3f\n", lat.Min)
	fmt.Fprintf(w, "  Max:             %.3f\n", lat.Max)
	fmt.Fprintf(w, "  Mean:            %.3f\n", lat.Mean)
	fmt.Fprintf(w, "  StdDev:          %.3f\n", lat.StdDev)
	fmt.Fprintf(w, "  P50:             %.3f\n", lat.P50)
	fmt.Fprintf(w, "  P90:             %.3f\n", lat.P90)
	fmt.Fprintf(w, "  P95:             %.3f\n", lat.P95)
	fmt.Fprintf(w, "  P99:             %.3f\n", lat.P99)
	fmt.Fprintf(w, "  P99.9:           %.3f\n", lat.P999)

	fmt.Fprintf(w, "\nThroughput (%s):\n", throughput.Unit)
	if thr.N == 0 {
		fmt.Fprintln(w, "  None")
	} else {
		fmt.Fprintf(w, "  Samples:         %d\n", thr.N)
		fmt.Fprintf(w, "  Mean:            %.2f\n", thr.Mean)
		fmt.Fprintf(w, "  Min:             %.2f\n", thr.Min)
		fmt.Fprintf(w, "  Max:             %.2f\n", thr.Max)
	}
	if throughput.Undefined > 0 {
		fmt.Fprintf(w, "  Undefined:       %d\n", throughput.Undefined)
	}

	bars := compressBars(latency.Distribution(), maxHistogramRows)
	if len(bars) > 0 {
		fmt.Fprintln(w, "\nLatency Distribution:")
		writeHistogram(w, bars, lat.N, "  ")
	}
}

func kindTitle(k metrics.Kind) string {
	if k == metrics.KindWindow {
		return "Window"
	}
	return "Cumulative"
}

// compressBars merges adjacent buckets so at most rows remain.
func compressBars(bars []metrics.Bar, rows int) []metrics.Bar {
	if len(bars) <= rows || rows <= 0 {
		return bars
	}
	per := (len(bars) + rows - 1) / rows
	out := make([]metrics.Bar, 0, rows)
	for i := 0; i < len(bars); i += per {
		end := i + per
		if end > len(bars) {
			end = len(bars)
		}
		merged := metrics.Bar{From: bars[i].From, To: bars[end-1].To}
		for _, b := range bars[i:end] {
			merged.Count += b.Count
		}
		out = append(out, merged)
	}
	return out
}

func writeHistogram(w io.Writer, bars []metrics.Bar, total uint64, indent string) {
	const width = 40
	var peak int64
	for _, b := range bars {
		if b.Count > peak {
			peak = b.Count
		}
	}
	for _, b := range bars {
		share := 0.0
		if total > 0 {
			share = float64(b.Count) / float64(total) * 100
		}
		n := 0
		if peak > 0 {
			n = int(float64(b.Count) / float64(peak) * width)
		}
		fmt.Fprintf(w, "%s%10.3f - %-10.3f %6d (%5.1f%%) %s\n",
			indent, b.From, b.To, b.Count, share, strings.Repeat("#", n))
	}
}

type reportDocument struct {
	Latency    metrics.Snapshot `json:"latency"`
	Throughput metrics.Snapshot `json:"throughput"`
}

// PrintJSONReport outputs the snapshot pair as an indented JSON document.
func PrintJSONReport(w io.Writer, latency, throughput metrics.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reportDocument{Latency: latency, Throughput: throughput})
}

type yamlSnapshot struct {
	RunID       string          `yaml:"run_id,omitempty"`
	Name        string          `yaml:"name"`
	Type        string          `yaml:"type"`
	Unit        string          `yaml:"unit"`
	SampleBegin string          `yaml:"sample_begin"`
	SampleEnd   string          `yaml:"sample_end"`
	Statistics  metrics.Summary `yaml:"statistics"`
	Undefined   uint64          `yaml:"undefined,omitempty"`
	Histogram   []metrics.Bar   `yaml:"histogram,omitempty"`
}

func toYAML(s metrics.Snapshot) yamlSnapshot {
	return yamlSnapshot{
		RunID:       s.RunID,
		Name:        s.Name,
		Type:        string(s.Kind),
		Unit:        s.Unit,
		SampleBegin: formatTime(s.Begin),
		SampleEnd:   formatTime(s.End),
		Statistics:  s.Summary(),
		Undefined:   s.Undefined,
		Histogram:   compressBars(s.Distribution(), maxHistogramRows),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

// PrintYAMLReport outputs the snapshot pair as a YAML document.
func PrintYAMLReport(w io.Writer, latency, throughput metrics.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	doc := map[string]yamlSnapshot{
		metrics.NameLatency:    toYAML(latency),
		metrics.NameThroughput: toYAML(throughput),
	}
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// Printer renders snapshot pairs in one format to a shared writer. It is
// safe for concurrent use.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	logger logging.Logger
}

// NewPrinter creates a printer. A nil logger discards write errors.
func NewPrinter(w io.Writer, format Format, logger logging.Logger) *Printer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Printer{w: w, format: format, logger: logger}
}

// Print writes one report.
func (p *Printer) Print(latency, throughput metrics.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.format {
	case FormatJSON:
		return PrintJSONReport(p.w, latency, throughput)
	case FormatYAML:
		return PrintYAMLReport(p.w, latency, throughput)
	case FormatHTML:
		return PrintHTMLReport(p.w, HTMLReport{Latency: latency, Throughput: throughput})
	default:
		PrintReport(p.w, latency, throughput)
		return nil
	}
}

// Callback adapts the printer to a sampler callback; failures are logged.
func (p *Printer) Callback() metrics.Callback {
	return func(latency, throughput metrics.Snapshot) {
		if err := p.Print(latency, throughput); err != nil {
			p.logger.Errorf("print window: %v", err)
		}
	}
}

// PrintHistory outputs one row per closed window, oldest first.
func PrintHistory(w io.Writer, points []metrics.DataPoint) {
	if len(points) == 0 {
		return
	}
	fmt.Fprintln(w, "\nWindows:")
	fmt.Fprintf(w, "  %-12s %8s %10s %10s %10s %10s %12s\n",
		"End", "Messages", "Mean", "P50", "P95", "P99", "Msg/sec")
	for _, p := range points {
		fmt.Fprintf(w, "  %-12s %8d %10.3f %10.3f %10.3f %10.3f %12.2f\n",
			p.Timestamp.Format("15:04:05.000"),
			p.Messages,
			p.MeanLatency,
			p.P50Latency,
			p.P95Latency,
			p.P99Latency,
			p.MessagesPerSecond,
		)
	}
}
