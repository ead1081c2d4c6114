package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistryRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegistry(registry)

	if m.EntriesCreated == nil || m.HTTPRequests == nil || m.BalanceCacheLookups == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.EntriesCreated.WithLabelValues("INV").Inc()
	m.EntriesPosted.Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.EntriesCreated.WithLabelValues("INV")); got != 1 {
		t.Fatalf("expected 1 INV entry, got %v", got)
	}
}

func TestNewWithRegistryIsolatesRegistries(t *testing.T) {
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.EntriesPosted.Inc()

	if got := testutil.ToFloat64(b.EntriesPosted); got != 0 {
		t.Fatalf("expected separate registries, got %v", got)
	}
}
