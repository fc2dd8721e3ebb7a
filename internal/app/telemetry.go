package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/aura"
	otelexport "github.com/MrEthical07/aura/metrics/export/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const meterName = "github.com/MrEthical07/aura"

// startTelemetry publishes Engine metrics through an OTel MeterProvider whose
// periodic reader writes every collection to log. The returned func flushes a
// final collection and unregisters the instruments.
func startTelemetry(engine *aura.Engine, interval time.Duration, log *slog.Logger) (func(context.Context) error, error) {
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(logExporter{log: log}, sdkmetric.WithInterval(interval)),
	))
	exp, err := otelexport.NewExporter(provider.Meter(meterName), engine)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}
	return func(ctx context.Context) error {
		// Provider first so the final collection still sees the instruments.
		return errors.Join(provider.Shutdown(ctx), exp.Close())
	}, nil
}

// logExporter is a push exporter that emits one log line per collection.
type logExporter struct {
	log *slog.Logger
}

func (logExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (logExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (e logExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	if rm == nil {
		return nil
	}
	attrs := make([]slog.Attr, 0, 32)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					attrs = append(attrs, slog.Int64(m.Name, dp.Value))
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					attrs = append(attrs, slog.Int64(m.Name, dp.Value))
				}
			}
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	e.log.LogAttrs(ctx, slog.LevelInfo, "otel.metrics", attrs...)
	return nil
}

func (logExporter) ForceFlush(context.Context) error { return nil }

func (logExporter) Shutdown(context.Context) error { return nil }
