package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/aura"
	"github.com/MrEthical07/aura/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() aura.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         aura.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      aura.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter publishes Engine metrics through observable OTel instruments.
type Exporter struct {
	source        metricsSource
	registration  metric.Registration
	counters      []observedCounter
	histograms    []observedHistogram
	authenticated metric.Int64ObservableGauge
	loading       metric.Int64ObservableGauge
	auditDropped  metric.Int64ObservableCounter
}

func NewExporter(meter metric.Meter, engine *aura.Engine) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, engine)
}

func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*9+3)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i := 0; i < len(internaldefs.HistogramBoundSuffix); i++ {
			name := def.Name + "_bucket_le_" + internaldefs.HistogramBoundSuffix[i]
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		countName := def.Name + "_count"
		countIns, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = countIns
		observables = append(observables, countIns)
		exporter.histograms = append(exporter.histograms, h)
	}

	var err error
	exporter.authenticated, err = meter.Int64ObservableGauge(
		internaldefs.GaugeSessionAuthenticated,
		metric.WithDescription("Whether an operator is signed in."),
	)
	if err != nil {
		return nil, fmt.Errorf("create session authenticated gauge: %w", err)
	}
	exporter.loading, err = meter.Int64ObservableGauge(
		internaldefs.GaugeSessionLoading,
		metric.WithDescription("Whether the session is still restoring."),
	)
	if err != nil {
		return nil, fmt.Errorf("create session loading gauge: %w", err)
	}
	exporter.auditDropped, err = meter.Int64ObservableCounter(
		internaldefs.CounterAuditDropped,
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, exporter.authenticated, exporter.loading, exporter.auditDropped)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *Exporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[h.id])
		cumulative := internaldefs.CumulativeBuckets(nonCumulative)
		for i := 0; i < len(cumulative); i++ {
			observer.ObserveInt64(h.buckets[i], int64(cumulative[i]))
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.authenticated, int64(internaldefs.BoolGauge(snapshot.SessionAuthenticated)))
	observer.ObserveInt64(e.loading, int64(internaldefs.BoolGauge(snapshot.SessionLoading)))
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
