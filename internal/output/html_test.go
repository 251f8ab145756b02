package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/torosent/msgsampler/internal/metrics"
	"github.com/torosent/msgsampler/internal/threshold"
)

func TestPrintHTMLReport(t *testing.T) {
	s := newTestSampler(t)
	history := metrics.NewHistory(0)

	recordLatencies(s, 10, 20, 30)
	history.Record(s.Rollover())
	recordLatencies(s, 40, 50)
	history.Record(s.Rollover())

	latency, throughput := s.Snapshot(metrics.KindCumulative)
	thresholds, err := threshold.ParseMultiple([]string{"messages:count == 5", "latency:max < 10"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(latency, throughput)

	var buf bytes.Buffer
	err = PrintHTMLReport(&buf, HTMLReport{
		Latency:    latency,
		Throughput: throughput,
		History:    history.Points(),
		Thresholds: results,
		Interval:   time.Second,
	})
	if err != nil {
		t.Fatalf("PrintHTMLReport() error = %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"Run: " + latency.RunID,
		"Window: 1s",
		"Latency (milliseconds)",
		"P99.9",
		"Latency Distribution",
		"Thresholds (1/2 Passed)",
		"messages:count == 5",
		"latency:max &lt; 10",
		"badge-error",
		"Windows Over Time",
		"uPlot",
		"p99_latency",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in report", want)
		}
	}
	if strings.Contains(html, "No messages recorded.") {
		t.Error("report with messages should not print the empty notice")
	}
	if !strings.Contains(html, `<div class="label">Max</div><div class="value">50.000</div>`) {
		t.Error("expected the cumulative max latency 50.000")
	}
}

func TestPrintHTMLReportEmpty(t *testing.T) {
	s := newTestSampler(t)
	latency, throughput := s.Snapshot(metrics.KindCumulative)

	var buf bytes.Buffer
	if err := PrintHTMLReport(&buf, HTMLReport{Latency: latency, Throughput: throughput}); err != nil {
		t.Fatalf("PrintHTMLReport() error = %v", err)
	}

	html := buf.String()
	if !strings.Contains(html, "No messages recorded.") {
		t.Error("expected the empty notice")
	}
	for _, unwanted := range []string{"uPlot", "Thresholds (", "Latency Distribution"} {
		if strings.Contains(html, unwanted) {
			t.Errorf("empty report should not contain %q", unwanted)
		}
	}
}

func TestPrinterHTMLFormat(t *testing.T) {
	s := newTestSampler(t)
	recordLatencies(s, 5)

	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatHTML, nil)
	if err := p.Print(s.Snapshot(metrics.KindCumulative)); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "<!DOCTYPE html>") {
		t.Errorf("expected an HTML document, got %.40q", buf.String())
	}
}
