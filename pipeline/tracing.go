package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/clock"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/typeutil"
)

// Metadata keys used to propagate trace context between hops.
const (
	MetaTraceID = "TraceId"
	MetaSpanID  = "SpanId"
)

// TraceSpan is one recorded span: a single message's pass through the
// pipeline within a trace.
type TraceSpan struct {
	TraceID       string
	SpanID        string
	ParentSpanID  string
	ServiceName   string
	OperationName string
	StartTime     time.Time
	Duration      time.Duration
	Success       bool
	Tags          map[string]string
}

// TracingMiddleware records distributed-trace spans for message processing.
//
// The trace id is reused from message metadata when present so forwarded
// messages stay in the originating trace; otherwise a new one is minted. An
// existing span id on the message becomes the new span's parent. Spans are
// kept in memory for export and mirrored to the OpenTelemetry tracer so an
// OTLP pipeline picks them up as well.
type TracingMiddleware struct {
	serviceName string
	clk         clock.Clock
	tracer      oteltrace.Tracer

	mu    sync.Mutex
	spans []TraceSpan
}

// NewTracingMiddleware creates a tracing middleware for the given service
// name. A nil clock falls back to the system clock.
func NewTracingMiddleware(serviceName string, clk clock.Clock) *TracingMiddleware {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &TracingMiddleware{
		serviceName: serviceName,
		clk:         clk,
		tracer:      otel.Tracer(serviceName),
	}
}

// Process implements the Middleware interface.
func (m *TracingMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	traceID := typeutil.AsStringDefault(metaValue(msg, MetaTraceID), "")
	if traceID == "" {
		traceID = newTraceID()
		msg.SetMeta(MetaTraceID, traceID)
	}
	parentSpanID := typeutil.AsStringDefault(metaValue(msg, MetaSpanID), "")
	spanID := newTraceID()[:16]
	msg.SetMeta(MetaSpanID, spanID)

	operation := "ProcessMessage: " + msg.Subject

	ctx, otelSpan := m.tracer.Start(ctx, operation, oteltrace.WithAttributes(
		attribute.String("message.id", msg.ID),
		attribute.String("message.sender", msg.SenderID),
		attribute.String("message.category", msg.Category),
		attribute.String("message.priority", msg.Priority.String()),
	))

	start := m.clk.Now()
	result, err := next(ctx, msg)
	duration := m.clk.Now().Sub(start)

	span := TraceSpan{
		TraceID:       traceID,
		SpanID:        spanID,
		ParentSpanID:  parentSpanID,
		ServiceName:   m.serviceName,
		OperationName: operation,
		StartTime:     start,
		Duration:      duration,
		Tags: map[string]string{
			"message.id":       msg.ID,
			"message.sender":   msg.SenderID,
			"message.category": msg.Category,
			"message.priority": msg.Priority.String(),
		},
	}

	switch {
	case err != nil:
		span.Success = false
		span.Tags["error.message"] = err.Error()
		span.Tags["error.type"] = fmt.Sprintf("%T", err)
		otelSpan.RecordError(err)
		otelSpan.SetStatus(codes.Error, err.Error())
	case result != nil:
		span.Success = result.Success
		span.Tags["result.success"] = fmt.Sprintf("%t", result.Success)
		if !result.Success {
			span.Tags["error.message"] = result.Error
		}
	}
	otelSpan.SetAttributes(attribute.Bool("result.success", span.Success))
	otelSpan.End()

	m.mu.Lock()
	m.spans = append(m.spans, span)
	m.mu.Unlock()

	return result, err
}

// GetTraces returns a snapshot of all recorded spans in recording order.
func (m *TracingMiddleware) GetTraces() []TraceSpan {
	m.mu.Lock()
	defer m.mu.Unlock()
	spans := make([]TraceSpan, len(m.spans))
	copy(spans, m.spans)
	return spans
}

// Clear drops all recorded spans.
func (m *TracingMiddleware) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spans = nil
}

// ExportJaegerFormat renders recorded spans grouped by trace as plain text.
// Traces appear in first-seen order; spans within a trace in recording
// order.
func (m *TracingMiddleware) ExportJaegerFormat() string {
	spans := m.GetTraces()

	var traceOrder []string
	byTrace := make(map[string][]TraceSpan)
	for _, span := range spans {
		if _, seen := byTrace[span.TraceID]; !seen {
			traceOrder = append(traceOrder, span.TraceID)
		}
		byTrace[span.TraceID] = append(byTrace[span.TraceID], span)
	}

	var b strings.Builder
	b.WriteString("Jaeger Trace Export:\n")
	for _, traceID := range traceOrder {
		fmt.Fprintf(&b, "Trace ID: %s\n", traceID)
		for _, span := range byTrace[traceID] {
			fmt.Fprintf(&b, "  → Span: %s\n", span.OperationName)
			fmt.Fprintf(&b, "    Duration: %dms\n", span.Duration.Milliseconds())
			fmt.Fprintf(&b, "    Success: %s\n", titleBool(span.Success))
		}
	}
	return b.String()
}

func titleBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// newTraceID returns a 32-character lowercase hex id (a UUID without
// dashes).
func newTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func metaValue(msg *message.Message, key string) any {
	v, _ := msg.Meta(key)
	return v
}

var _ Middleware = (*TracingMiddleware)(nil)
