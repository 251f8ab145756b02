package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/msgsampler/internal/metrics"
	"github.com/torosent/msgsampler/internal/threshold"
)

// HTMLReport is everything the standalone HTML report renders.
type HTMLReport struct {
	Latency    metrics.Snapshot
	Throughput metrics.Snapshot
	History    []metrics.DataPoint
	Thresholds []threshold.Result
	Interval   time.Duration
}

type htmlReportData struct {
	GeneratedAt  string
	Latency      metrics.Snapshot
	Summary      metrics.Summary
	Throughput   metrics.Summary
	Undefined    uint64
	Elapsed      time.Duration
	Interval     time.Duration
	Histogram    []metrics.Bar
	History      []metrics.DataPoint
	HistoryJSON  string
	Thresholds   []threshold.Result
	ThresholdsOK int
}

// PrintHTMLReport writes a standalone HTML page with per-window charts, the
// cumulative statistics, the latency distribution and threshold results.
func PrintHTMLReport(w io.Writer, report HTMLReport) error {
	history := report.History
	if history == nil {
		history = []metrics.DataPoint{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	data := htmlReportData{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Latency:     report.Latency,
		Summary:     report.Latency.Summary(),
		Throughput:  report.Throughput.Summary(),
		Undefined:   report.Throughput.Undefined,
		Elapsed:     report.Latency.Elapsed(),
		Interval:    report.Interval,
		Histogram:   compressBars(report.Latency.Distribution(), maxHistogramRows),
		History:     report.History,
		HistoryJSON: string(historyJSON),
		Thresholds:  report.Thresholds,
	}
	for _, r := range report.Thresholds {
		if r.Pass {
			data.ThresholdsOK++
		}
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"f3": func(f float64) string {
			return fmt.Sprintf("%.3f", f)
		},
		"f2": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"share": func(part int64, total uint64) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", float64(part)/float64(total)*100)
		},
		"clock": func(t time.Time) string {
			return t.Format("15:04:05.000")
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>msgsampler report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f4f6f8;
            color: #1f2933;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header { background: #0f4c5c; color: white; padding: 28px 40px; }
        header h1 { font-size: 1.8rem; margin-bottom: 6px; }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 40px; }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card { background: #f8f9fa; border-radius: 8px; padding: 20px; border-left: 4px solid #0f4c5c; }
        .card.warning { border-left-color: #f59e0b; }
        .card h3 { font-size: 0.85rem; color: #6c757d; text-transform: uppercase; margin-bottom: 8px; }
        .card .value { font-size: 1.8rem; font-weight: bold; }
        .section { margin-bottom: 40px; }
        .section h2 { font-size: 1.4rem; margin-bottom: 16px; padding-bottom: 8px; border-bottom: 2px solid #e5e7eb; }
        .chart-container { border: 1px solid #e5e7eb; border-radius: 8px; padding: 20px; margin-bottom: 24px; }
        .chart { width: 100%; height: 300px; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 10px; border-bottom: 1px solid #e5e7eb; }
        th { background: #f8f9fa; font-size: 0.85rem; text-transform: uppercase; color: #4b5563; }
        td.num, th.num { text-align: right; font-variant-numeric: tabular-nums; }
        .bar { display: inline-block; height: 10px; background: #0f4c5c; border-radius: 2px; }
        .badge { display: inline-block; padding: 3px 10px; border-radius: 12px; font-size: 0.8rem; font-weight: 600; }
        .badge-success { background: #d1fae5; color: #065f46; }
        .badge-error { background: #fee2e2; color: #991b1b; }
        .latency-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(120px, 1fr)); gap: 12px; }
        .latency-item { background: #f8f9fa; padding: 12px; border-radius: 6px; text-align: center; }
        .latency-item .label { font-size: 0.8rem; color: #6c757d; }
        .latency-item .value { font-size: 1.2rem; font-weight: bold; }
        .no-data { text-align: center; padding: 40px; color: #6c757d; font-style: italic; }
    </style>
    {{if .History}}
    <script src="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.iife.min.js"></script>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/uplot@1.6.24/dist/uPlot.min.css">
    {{end}}
</head>
<body>
    <div class="container">
        <header>
            <h1>msgsampler report</h1>
            {{if .Latency.RunID}}<div class="meta">Run: {{.Latency.RunID}}</div>{{end}}
            <div class="meta">Generated: {{.GeneratedAt}} | Elapsed: {{.Elapsed}}{{if .Interval}} | Window: {{.Interval}}{{end}} | Unit: {{.Latency.Unit}}</div>
        </header>

        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Messages</h3>
                    <div class="value">{{.Summary.N}}</div>
                </div>
                <div class="card">
                    <h3>Messages/sec</h3>
                    <div class="value">{{f2 .Summary.MessagesPerSecond}}</div>
                </div>
                <div class="card">
                    <h3>Windows</h3>
                    <div class="value">{{len .History}}</div>
                </div>
                {{if .Undefined}}
                <div class="card warning">
                    <h3>Undefined throughput</h3>
                    <div class="value">{{.Undefined}}</div>
                </div>
                {{end}}
            </div>

            {{if .Summary.N}}
            {{if .History}}
            <div class="section">
                <h2>Windows Over Time</h2>
                <div class="chart-container">
                    <div id="rate-chart" class="chart"></div>
                </div>
                <div class="chart-container">
                    <div id="latency-chart" class="chart"></div>
                </div>
            </div>
            {{end}}

            <div class="section">
                <h2>Latency ({{.Latency.Unit}})</h2>
                <div class="latency-grid">
                    <div class="latency-item"><div class="label">Min</div><div class="value">{{f3 .Summary.Min}}</div></div>
                    <div class="latency-item"><div class="label">Max</div><div class="value">{{f3 .Summary.Max}}</div></div>
                    <div class="latency-item"><div class="label">Mean</div><div class="value">{{f3 .Summary.Mean}}</div></div>
                    <div class="latency-item"><div class="label">StdDev</div><div class="value">{{f3 .Summary.StdDev}}</div></div>
                    <div class="latency-item"><div class="label">P50</div><div class="value">{{f3 .Summary.P50}}</div></div>
                    <div class="latency-item"><div class="label">P90</div><div class="value">{{f3 .Summary.P90}}</div></div>
                    <div class="latency-item"><div class="label">P95</div><div class="value">{{f3 .Summary.P95}}</div></div>
                    <div class="latency-item"><div class="label">P99</div><div class="value">{{f3 .Summary.P99}}</div></div>
                    <div class="latency-item"><div class="label">P99.9</div><div class="value">{{f3 .Summary.P999}}</div></div>
                </div>
            </div>

            <div class="section">
                <h2>Throughput (messages/second)</h2>
                <div class="latency-grid">
                    <div class="latency-item"><div class="label">Samples</div><div class="value">{{.Throughput.N}}</div></div>
                    <div class="latency-item"><div class="label">Mean</div><div class="value">{{f2 .Throughput.Mean}}</div></div>
                    <div class="latency-item"><div class="label">Min</div><div class="value">{{f2 .Throughput.Min}}</div></div>
                    <div class="latency-item"><div class="label">Max</div><div class="value">{{f2 .Throughput.Max}}</div></div>
                </div>
            </div>

            {{if .Histogram}}
            <div class="section">
                <h2>Latency Distribution</h2>
                <table>
                    <thead>
                        <tr><th class="num">From</th><th class="num">To</th><th class="num">Count</th><th class="num">Share</th><th></th></tr>
                    </thead>
                    <tbody>
                        {{range .Histogram}}
                        <tr>
                            <td class="num">{{f3 .From}}</td>
                            <td class="num">{{f3 .To}}</td>
                            <td class="num">{{.Count}}</td>
                            <td class="num">{{share .Count $.Summary.N}}%</td>
                            <td><span class="bar" style="width: {{share .Count $.Summary.N}}%"></span></td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
            {{else}}
            <div class="no-data">No messages recorded.</div>
            {{end}}

            {{if .Thresholds}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdsOK}}/{{len .Thresholds}} Passed)</h2>
                <table>
                    <thead>
                        <tr><th>Threshold</th><th>Metric</th><th class="num">Expected</th><th class="num">Actual</th><th>Status</th></tr>
                    </thead>
                    <tbody>
                        {{range .Thresholds}}
                        <tr>
                            <td>{{.Threshold.Raw}}</td>
                            <td>{{.Threshold.Metric}} ({{.Threshold.Aggregate}})</td>
                            <td class="num">{{.Threshold.Operator}} {{f2 .Threshold.Value}}</td>
                            <td class="num">{{f2 .Actual}}</td>
                            <td>{{if .Pass}}<span class="badge badge-success">PASS</span>{{else}}<span class="badge badge-error">FAIL</span>{{end}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            {{if .History}}
            <div class="section">
                <h2>Windows</h2>
                <table>
                    <thead>
                        <tr><th>End</th><th class="num">Messages</th><th class="num">Mean</th><th class="num">P50</th><th class="num">P95</th><th class="num">P99</th><th class="num">Msg/sec</th></tr>
                    </thead>
                    <tbody>
                        {{range .History}}
                        <tr>
                            <td>{{clock .Timestamp}}</td>
                            <td class="num">{{.Messages}}</td>
                            <td class="num">{{f3 .MeanLatency}}</td>
                            <td class="num">{{f3 .P50Latency}}</td>
                            <td class="num">{{f3 .P95Latency}}</td>
                            <td class="num">{{f3 .P99Latency}}</td>
                            <td class="num">{{f2 .MessagesPerSecond}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>

    {{if and .Summary.N .History}}
    <script>
        const history = JSON.parse({{.HistoryJSON}});
        if (history.length > 0) {
            const start = new Date(history[0].timestamp).getTime();
            const xs = history.map(d => (new Date(d.timestamp).getTime() - start) / 1000);

            new uPlot({
                title: "Messages per second",
                width: document.getElementById('rate-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "Time (s)" },
                    { label: "Msg/sec", stroke: "#0f4c5c", fill: "rgba(15, 76, 92, 0.1)", width: 2 }
                ],
                axes: [{ label: "Time (seconds)" }, { label: "Messages/sec" }]
            }, [xs, history.map(d => d.messages_per_second)], document.getElementById('rate-chart'));

            new uPlot({
                title: "Latency percentiles ({{.Latency.Unit}})",
                width: document.getElementById('latency-chart').offsetWidth,
                height: 300,
                scales: { x: { time: false } },
                series: [
                    { label: "Time (s)" },
                    { label: "P50", stroke: "#10b981", width: 2 },
                    { label: "P95", stroke: "#f59e0b", width: 2 },
                    { label: "P99", stroke: "#ef4444", width: 2 }
                ],
                axes: [{ label: "Time (seconds)" }, { label: "Latency" }]
            }, [xs, history.map(d => d.p50_latency), history.map(d => d.p95_latency), history.map(d => d.p99_latency)], document.getElementById('latency-chart'));
        }
    </script>
    {{end}}
</body>
</html>
`
