package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	m.ObserveOperation("mutate", "ok", 10*time.Millisecond)
	m.ObserveOperation("mutate", "ok", 20*time.Millisecond)
	m.ObserveRejection("mutate", "not_ready")
	m.ObserveCacheLookup("hit")
	m.ObservePrompt()

	if got := testutil.ToFloat64(m.operations.WithLabelValues("mutate", "ok")); got != 2 {
		t.Errorf("expected 2 ok mutations, got %v", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("mutate", "not_ready")); got != 1 {
		t.Errorf("expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("expected 1 cache hit, got %v", got)
	}
	if got := testutil.ToFloat64(m.prompts); got != 1 {
		t.Errorf("expected 1 prompt, got %v", got)
	}
}

func TestMetricsDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics(reg); err != nil {
		t.Fatalf("first NewMetrics failed: %v", err)
	}
	if _, err := NewMetrics(reg); err == nil {
		t.Error("expected error registering collectors twice")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("decrypt", "ok", time.Second)
	m.ObserveRejection("decrypt", "not_ready")
	m.ObserveCacheLookup("miss")
	m.ObservePrompt()
}
