package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/torosent/msgsampler/internal/metrics"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"HTML", FormatHTML, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrintReportBasic(t *testing.T) {
	s := newTestSampler(t)
	recordLatencies(s, 10, 20, 30, 40, 50)
	latency, throughput := s.Snapshot(metrics.KindCumulative)

	var buf bytes.Buffer
	PrintReport(&buf, latency, throughput)

	output := buf.String()
	for _, want := range []string{
		"--- Cumulative (milliseconds) ---",
		"Messages:          5",
		"P50:             30.000",
		"Throughput (messages/second):",
		"Latency Distribution:",
		s.RunID(),
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestPrintReportEmpty(t *testing.T) {
	s := newTestSampler(t)
	latency, throughput := s.Snapshot(metrics.KindWindow)

	var buf bytes.Buffer
	PrintReport(&buf, latency, throughput)

	output := buf.String()
	if !strings.Contains(output, "--- Window") {
		t.Errorf("expected window title, got:\n%s", output)
	}
	if !strings.Contains(output, "No messages recorded.") {
		t.Errorf("expected empty notice, got:\n%s", output)
	}
	if strings.Contains(output, "Latency:") {
		t.Errorf("empty report should not print latency section")
	}
}

func TestCompressBars(t *testing.T) {
	bars := make([]metrics.Bar, 25)
	for i := range bars {
		bars[i] = metrics.Bar{From: float64(i), To: float64(i + 1), Count: 1}
	}

	got := compressBars(bars, 10)
	if len(got) > 10 {
		t.Fatalf("len = %d, want <= 10", len(got))
	}
	var total int64
	for _, b := range got {
		total += b.Count
	}
	if total != 25 {
		t.Errorf("total count = %d, want 25", total)
	}
	if got[0].From != 0 || got[len(got)-1].To != 25 {
		t.Errorf("range = [%v, %v], want [0, 25]", got[0].From, got[len(got)-1].To)
	}

	short := bars[:3]
	if len(compressBars(short, 10)) != 3 {
		t.Error("short input should be returned unchanged")
	}
}

func TestPrintJSONReport(t *testing.T) {
	s := newTestSampler(t)
	recordLatencies(s, 10, 20, 30, 40, 50)
	latency, throughput := s.Snapshot(metrics.KindCumulative)

	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, latency, throughput); err != nil {
		t.Fatalf("PrintJSONReport: %v", err)
	}

	doc := buf.String()
	if !gjson.Valid(doc) {
		t.Fatalf("invalid JSON: %s", doc)
	}
	checks := map[string]string{
		"latency.name":       "latency",
		"latency.type":       "cumulative",
		"latency.unit":       "milliseconds",
		"throughput.name":    "throughput",
		"throughput.unit":    "messages/second",
		"latency.statistics": "",
	}
	for path, want := range checks {
		res := gjson.Get(doc, path)
		if !res.Exists() {
			t.Errorf("missing %s", path)
			continue
		}
		if want != "" && res.String() != want {
			t.Errorf("%s = %q, want %q", path, res.String(), want)
		}
	}
	if got := gjson.Get(doc, "latency.statistics.p50").Float(); got != 30 {
		t.Errorf("p50 = %v, want 30", got)
	}
	if got := gjson.Get(doc, "latency.statistics.n").Int(); got != 5 {
		t.Errorf("n = %d, want 5", got)
	}
}

func TestPrintYAMLReport(t *testing.T) {
	s := newTestSampler(t)
	recordLatencies(s, 5, 15)
	latency, throughput := s.Snapshot(metrics.KindCumulative)

	var buf bytes.Buffer
	if err := PrintYAMLReport(&buf, latency, throughput); err != nil {
		t.Fatalf("PrintYAMLReport: %v", err)
	}

	var doc map[string]struct {
		Name       string `yaml:"name"`
		Type       string `yaml:"type"`
		Statistics struct {
			N    uint64  `yaml:"n"`
			Mean float64 `yaml:"mean"`
		} `yaml:"statistics"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("yaml.Unmarshal: %v\n%s", err, buf.String())
	}
	lat, ok := doc["latency"]
	if !ok {
		t.Fatalf("missing latency document:\n%s", buf.String())
	}
	if lat.Type != "cumulative" || lat.Statistics.N != 2 || lat.Statistics.Mean != 10 {
		t.Errorf("latency = %+v", lat)
	}
	if doc["throughput"].Name != "throughput" {
		t.Errorf("throughput name = %q", doc["throughput"].Name)
	}
}

func TestPrinterCallback(t *testing.T) {
	s := newTestSampler(t)
	recordLatencies(s, 1, 2, 3)

	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatJSON, nil)
	cb := p.Callback()
	cb(s.Rollover())
	cb(s.Rollover())

	dec := strings.Count(buf.String(), `"type": "time-window"`)
	if dec != 4 {
		t.Errorf("expected 4 window documents, found %d:\n%s", dec, buf.String())
	}
}

func TestPrintHistory(t *testing.T) {
	s := newTestSampler(t)
	history := metrics.NewHistory(0)

	recordLatencies(s, 10, 20)
	history.Record(s.Rollover())
	recordLatencies(s, 30)
	history.Record(s.Rollover())

	var buf bytes.Buffer
	PrintHistory(&buf, history.Points())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[2], " 2 ") || !strings.Contains(lines[2], "15.000") {
		t.Errorf("first window row = %q", lines[2])
	}

	buf.Reset()
	PrintHistory(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("empty history should print nothing, got %q", buf.String())
	}
}
