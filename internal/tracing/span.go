package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/msgsampler/internal/metrics"
)

// Attribute keys set on window spans.
const (
	AttrRunID       = attribute.Key("msgsampler.run_id")
	AttrKind        = attribute.Key("msgsampler.kind")
	AttrUnit        = attribute.Key("msgsampler.unit")
	AttrMessages    = attribute.Key("msgsampler.messages")
	AttrMeanLatency = attribute.Key("msgsampler.latency.mean")
	AttrP99Latency  = attribute.Key("msgsampler.latency.p99")
	AttrMaxLatency  = attribute.Key("msgsampler.latency.max")
	AttrMsgsPerSec  = attribute.Key("msgsampler.messages_per_second")
	AttrUndefined   = attribute.Key("msgsampler.throughput.undefined")
)

// WindowAttributes describes a snapshot pair as span attributes.
func WindowAttributes(latency, throughput metrics.Snapshot) []attribute.KeyValue {
	sum := latency.Summary()
	return []attribute.KeyValue{
		AttrRunID.String(latency.RunID),
		AttrKind.String(string(latency.Kind)),
		AttrUnit.String(latency.Unit),
		AttrMessages.Int64(int64(sum.N)),
		AttrMeanLatency.Float64(sum.Mean),
		AttrP99Latency.Float64(sum.P99),
		AttrMaxLatency.Float64(sum.Max),
		AttrMsgsPerSec.Float64(sum.MessagesPerSecond),
		AttrUndefined.Int64(int64(throughput.Undefined)),
	}
}

// RecordWindow emits one span covering the snapshot's sampled period.
func RecordWindow(ctx context.Context, tracer trace.Tracer, latency, throughput metrics.Snapshot) {
	name := "window"
	if latency.Kind == metrics.KindCumulative {
		name = "run"
	}
	opts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(WindowAttributes(latency, throughput)...),
	}
	if !latency.Begin.IsZero() {
		opts = append(opts, trace.WithTimestamp(latency.Begin))
	}
	_, span := tracer.Start(ctx, name, opts...)

	var end []trace.SpanEndOption
	if !latency.End.IsZero() {
		end = append(end, trace.WithTimestamp(latency.End))
	}
	span.SetStatus(codes.Ok, "")
	span.End(end...)
}

// WindowCallback returns a sampler callback that records every closed window
// as a span under ctx.
func WindowCallback(ctx context.Context, tracer trace.Tracer) metrics.Callback {
	return func(latency, throughput metrics.Snapshot) {
		RecordWindow(ctx, tracer, latency, throughput)
	}
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
