// Package tracing sets up the OpenTelemetry tracer the exploration loop
// reports to.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with engine-shaped span helpers.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// Config holds tracing configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	JaegerEndpoint string
}

// NewTracer creates a tracer exporting to Jaeger and installs it as the
// global provider.
func NewTracer(config Config) (*Tracer, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(config.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{tracer: otel.Tracer(config.ServiceName), provider: tp}, nil
}

// Noop returns a tracer that records nothing; the CLI uses it when no
// Jaeger endpoint is configured.
func Noop() *Tracer {
	return &Tracer{tracer: trace.NewNoopTracerProvider().Tracer("cdk-reflect")}
}

// StartRoundSpan starts a span for one exploration round.
func (t *Tracer) StartRoundSpan(ctx context.Context, fqn string, round int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "explore.round", trace.WithAttributes(
		attribute.String("explore.fqn", fqn),
		attribute.Int("explore.round", round),
	))
}

// StartEvalSpan starts a span for one host evaluation.
func (t *Tracer) StartEvalSpan(ctx context.Context, hash string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "explore.eval", trace.WithAttributes(
		attribute.String("explore.candidate", hash),
	))
}

// RecordError marks the span failed.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Shutdown flushes pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
