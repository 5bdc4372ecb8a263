// Package otel wires OpenTelemetry tracing to the pipeline's lifecycle
// events. With no endpoint configured nothing is exported and publishing
// stays a no-op.
package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/fieldplan/internal/eventbus"
	events "github.com/hanpama/fieldplan/internal/events"
	reqid "github.com/hanpama/fieldplan/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures the OTLP trace exporter and attaches event subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("fieldplan")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer       trace.Tracer
	requestSpans sync.Map // rid -> trace.Span
	planSpans    sync.Map
	extractSpans sync.Map
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.PipelineStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "pipeline.request")
		span.SetAttributes(attribute.String("fieldplan.resource", e.Resource))
		s.requestSpans.Store(rid, span)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.PipelineFinish) {
		rid, _ := reqid.FromContext(ctx)
		if v, ok := s.requestSpans.LoadAndDelete(rid); ok {
			span := v.(trace.Span)
			span.SetAttributes(attribute.Int("fieldplan.records", e.Records))
			if e.Err != nil {
				span.RecordError(e.Err)
			}
			span.End()
		}
	})
	eventbus.Subscribe(func(ctx context.Context, e events.PlanStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "pipeline.plan")
		span.SetAttributes(attribute.String("fieldplan.resource", e.Resource))
		s.planSpans.Store(rid, span)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.PlanFinish) {
		rid, _ := reqid.FromContext(ctx)
		if v, ok := s.planSpans.LoadAndDelete(rid); ok {
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.Int("fieldplan.direct_fields", e.DirectCount),
				attribute.Int("fieldplan.lazy_fields", e.LazyCount),
			)
			if e.Err != nil {
				span.RecordError(e.Err)
			}
			span.End()
		}
	})
	eventbus.Subscribe(func(ctx context.Context, e events.ExtractStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "pipeline.extract")
		span.SetAttributes(
			attribute.String("fieldplan.resource", e.Resource),
			attribute.Int("fieldplan.records", e.Records),
		)
		s.extractSpans.Store(rid, span)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.ExtractFinish) {
		rid, _ := reqid.FromContext(ctx)
		if v, ok := s.extractSpans.LoadAndDelete(rid); ok {
			v.(trace.Span).End()
		}
	})
}
