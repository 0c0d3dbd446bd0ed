package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for all counterberry spans
const TracerName = "github.com/blockberries/counterberry"

// ErrInvalidSampleRatio is returned for a sample ratio outside [0, 1]
var ErrInvalidSampleRatio = errors.New("trace sample ratio must be within [0, 1]")

// Tracer returns the counterberry tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// TracingConfig selects where controller spans go
type TracingConfig struct {
	ServiceName string
	// Endpoint is an OTLP/HTTP URL. Empty disables tracing.
	Endpoint string
	// SampleRatio samples that fraction of root operations; 0 means all.
	SampleRatio float64
	// Attributes are added to the resource, e.g. the chain the process serves.
	Attributes []attribute.KeyValue
}

func (cfg TracingConfig) sampler() sdktrace.Sampler {
	if cfg.SampleRatio == 0 || cfg.SampleRatio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
}

// NewTracerProvider builds a provider that batches spans to exporter.
// It does not touch the global provider.
func NewTracerProvider(ctx context.Context, cfg TracingConfig, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRatio, cfg.SampleRatio)
	}
	attrs := append([]attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}, cfg.Attributes...)
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
	), nil
}

// SetupTracing exports controller spans over OTLP/HTTP and installs the
// provider globally. With no endpoint it installs nothing and returns a
// no-op shutdown. Callers defer the returned shutdown to flush spans.
func SetupTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if cfg.Endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return noop, fmt.Errorf("otlp exporter: %w", err)
	}
	tp, err := NewTracerProvider(ctx, cfg, exporter)
	if err != nil {
		return noop, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}
