package prometheus

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/MrEthical07/aura"
	"github.com/MrEthical07/aura/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() aura.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders aura metrics in Prometheus text exposition format.
type Exporter struct {
	source metricsSource
}

// NewExporter creates an exporter that reads from engine on every scrape.
func NewExporter(engine *aura.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource creates an exporter from any snapshot source.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler that serves the current metrics.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the exposition text, or "" when metrics are disabled and nothing
// was dropped.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		writeSample(&b, "counter", def.Name, def.Help, snapshot.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		nonCumulative := internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])
		cumulative := internaldefs.CumulativeBuckets(nonCumulative)
		writeHistogram(&b, def.Name, def.Help, cumulative)
	}

	writeSample(&b, "gauge", internaldefs.GaugeSessionAuthenticated, "Whether an operator is signed in.", internaldefs.BoolGauge(snapshot.SessionAuthenticated))
	writeSample(&b, "gauge", internaldefs.GaugeSessionLoading, "Whether the session is still restoring.", internaldefs.BoolGauge(snapshot.SessionLoading))
	writeAuditDropped(&b, snapshot.AuditDropped, dropped)

	return b.String()
}

func writeHeader(b *strings.Builder, kind, name, help string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeSample(b *strings.Builder, kind, name, help string, value uint64) {
	writeHeader(b, kind, name, help)
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

// writeAuditDropped emits one labelled sample per event type, or the bare total
// when the source has no breakdown.
func writeAuditDropped(b *strings.Builder, byEvent map[string]uint64, total uint64) {
	const help = "Dropped audit events due to dispatcher backpressure."
	if len(byEvent) == 0 {
		writeSample(b, "counter", internaldefs.CounterAuditDropped, help, total)
		return
	}
	writeHeader(b, "counter", internaldefs.CounterAuditDropped, help)
	events := make([]string, 0, len(byEvent))
	for event := range byEvent {
		events = append(events, event)
	}
	sort.Strings(events)
	for _, event := range events {
		b.WriteString(internaldefs.CounterAuditDropped)
		b.WriteString("{event=\"")
		b.WriteString(event)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(byEvent[event], 10))
		b.WriteByte('\n')
	}
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, "histogram", name, help)

	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString("_bucket{le=\"")
		b.WriteString(le)
		b.WriteString("\"} ")
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}

	count := cumulative[len(cumulative)-1]
	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(count, 10))
	b.WriteByte('\n')

	// Snapshots carry bucket counts only.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
