// Package telemetry sets up OpenTelemetry tracing for the progression
// process. Spans are sampled by trace id ratio, honouring the parent's
// decision, and every process reports its own service.instance.id so
// replicas sharing one store can be told apart.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Settings configures Setup.
type Settings struct {
	ServiceName string
	// Endpoint is an OTLP HTTP URL. Empty disables export.
	Endpoint string
	// SampleRatio is the share of root traces kept, in [0, 1].
	SampleRatio float64
}

// Setup registers a global tracer provider exporting to the configured
// endpoint over OTLP HTTP. An empty endpoint leaves the no-op provider in
// place.
//
// The returned shutdown function flushes pending spans and should be deferred
// by the caller.
func Setup(ctx context.Context, s Settings) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if strings.TrimSpace(s.Endpoint) == "" {
		return noop, nil
	}
	if s.SampleRatio < 0 || s.SampleRatio > 1 {
		return noop, fmt.Errorf("sample ratio must be in [0, 1], got %v", s.SampleRatio)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(s.Endpoint),
	)
	if err != nil {
		return noop, err
	}

	tp, err := newProvider(ctx, s, exporter)
	if err != nil {
		return noop, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

func newProvider(ctx context.Context, s Settings, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(s.ServiceName),
			semconv.ServiceInstanceID(uuid.NewString()),
		),
	)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.SampleRatio))),
	), nil
}
