package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/msgsampler/internal/metrics"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // "latency", "throughput" or "messages"
	Aggregate string  // e.g. "p95", "p99", "avg", "max", "rate"
	Operator  string  // e.g. "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against a latency/throughput snapshot pair.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the provided snapshots.
func (e *Evaluator) Evaluate(latency, throughput metrics.Snapshot) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	lat := latency.Summary()
	thr := throughput.Summary()

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, lat, thr, throughput.Undefined))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, lat, thr metrics.Summary, undefined uint64) Result {
	actual, err := extractMetricValue(t, lat, thr, undefined)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "latency:p95 < 500"          (latency percentile in the sampler unit)
// - "latency:avg < 200"          (mean latency)
// - "latency:stddev < 50"        (sample standard deviation)
// - "throughput:min > 100"       (smallest per-message throughput sample)
// - "messages:count >= 1000"     (messages recorded)
// - "messages:rate > 100"        (messages per second over the run)
// - "messages:undefined == 0"    (throughput samples with no elapsed time)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'latency:p95 < 500')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	aggregates, ok := validAggregates[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: latency, throughput, messages)", metric)
	}

	if !contains(aggregates, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(aggregates, ", "))
	}

	if !contains(validOperators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

var statisticAggregates = []string{"p50", "p90", "p95", "p99", "p999", "avg", "mean", "min", "max", "stddev"}

var validAggregates = map[string][]string{
	"latency":    statisticAggregates,
	"throughput": statisticAggregates,
	"messages":   {"count", "rate", "undefined"},
}

var validOperators = []string{"<", "<=", ">", ">=", "=="}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, lat, thr metrics.Summary, undefined uint64) (float64, error) {
	switch t.Metric {
	case "latency":
		return extractStatistic(t.Aggregate, lat)
	case "throughput":
		return extractStatistic(t.Aggregate, thr)
	case "messages":
		return extractMessageMetric(t.Aggregate, lat, undefined)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractStatistic(aggregate string, s metrics.Summary) (float64, error) {
	switch aggregate {
	case "p50":
		return s.P50, nil
	case "p90":
		return s.P90, nil
	case "p95":
		return s.P95, nil
	case "p99":
		return s.P99, nil
	case "p999":
		return s.P999, nil
	case "avg", "mean":
		return s.Mean, nil
	case "min":
		return s.Min, nil
	case "max":
		return s.Max, nil
	case "stddev":
		return s.StdDev, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q", aggregate)
	}
}

func extractMessageMetric(aggregate string, lat metrics.Summary, undefined uint64) (float64, error) {
	switch aggregate {
	case "count":
		return float64(lat.N), nil
	case "rate":
		return lat.MessagesPerSecond, nil
	case "undefined":
		return float64(undefined), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for messages (use 'count', 'rate' or 'undefined')", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
