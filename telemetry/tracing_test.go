package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{ServiceName: "counterd-test"})
	if err != nil {
		t.Fatalf("SetupTracing failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown returned error: %v", err)
	}
}

func TestTracerProviderExportsSpans(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()
	tp, err := NewTracerProvider(ctx, TracingConfig{
		ServiceName: "counterd-test",
		Attributes:  []attribute.KeyValue{attribute.Int64("counter.chain_id", 31337)},
	}, exporter)
	if err != nil {
		t.Fatalf("NewTracerProvider failed: %v", err)
	}

	_, span := tp.Tracer(TracerName).Start(ctx, "controller.refresh")
	span.End()
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	found := false
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "counter.chain_id" && kv.Value.AsInt64() == 31337 {
			found = true
		}
	}
	if !found {
		t.Error("resource is missing the chain id attribute")
	}
}

func TestTracerProviderRejectsBadRatio(t *testing.T) {
	_, err := NewTracerProvider(context.Background(), TracingConfig{SampleRatio: 1.5}, tracetest.NewInMemoryExporter())
	if !errors.Is(err, ErrInvalidSampleRatio) {
		t.Fatalf("expected ErrInvalidSampleRatio, got %v", err)
	}
}
