// Package otel publishes aura Engine metrics through OpenTelemetry observable
// instruments.
//
// [NewExporter] registers one Int64ObservableCounter per Engine counter, one
// Int64ObservableGauge per histogram bucket, and gauges for the session flags. A
// single callback reads [aura.Engine.MetricsSnapshot] on each collection. Callers own
// the MeterProvider.
package otel
