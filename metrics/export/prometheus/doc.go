// Package prometheus renders aura Engine metrics in the Prometheus text exposition
// format.
//
// [NewExporter] reads [aura.Engine.MetricsSnapshot] on every scrape and serves the
// result from [Exporter.Handler]. Counters are named aura_*_total, latency histograms
// aura_*_latency_seconds, and the session flags are exposed as 0/1 gauges. Nothing is
// registered globally; callers mount the handler.
package prometheus
