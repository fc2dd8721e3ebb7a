package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/aura"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot aura.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() aura.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := aura.MetricsSnapshot{
		Counters:             make(map[aura.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms:           make(map[aura.MetricID][]uint64, len(f.snapshot.Histograms)),
		SessionAuthenticated: f.snapshot.SessionAuthenticated,
		SessionLoading:       f.snapshot.SessionLoading,
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, provider
}

func findInt64(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			case metricdata.Gauge[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			}
		}
	}
	return 0, false
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newTestMeter()
	meter := provider.Meter("aura-test")

	src := &fakeSource{
		snapshot: aura.MetricsSnapshot{
			Counters: map[aura.MetricID]uint64{
				aura.MetricLoginSuccess: 3,
			},
			Histograms: map[aura.MetricID][]uint64{
				aura.MetricLoginLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
			SessionLoading: true,
		},
		dropped: 1,
	}

	exp, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	checks := map[string]int64{
		"aura_login_success_total":                 3,
		"aura_login_latency_seconds_bucket_le_inf": 8,
		"aura_login_latency_seconds_count":         8,
		"aura_session_loading":                     1,
		"aura_session_authenticated":               0,
		"aura_audit_dropped_total":                 1,
	}
	for name, want := range checks {
		got, ok := findInt64(rm, name)
		if !ok {
			t.Fatalf("metric %s not collected", name)
		}
		if got != want {
			t.Fatalf("metric %s = %d, want %d", name, got, want)
		}
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newTestMeter()
	meter := provider.Meter("aura-test")

	if _, err := NewExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporter(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil engine, got %v", err)
	}
	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newTestMeter()
	meter := provider.Meter("aura-test")

	src := &fakeSource{
		snapshot: aura.MetricsSnapshot{
			Counters: map[aura.MetricID]uint64{
				aura.MetricLoginSuccess: 1,
			},
			Histograms: map[aura.MetricID][]uint64{
				aura.MetricRestoreLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[aura.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
