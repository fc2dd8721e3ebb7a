package aura

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one Engine counter or histogram.
type MetricID uint16

const (
	// MetricRestoreRestored counts boots that restored a stored identity.
	MetricRestoreRestored MetricID = iota
	// MetricRestoreEmpty counts boots that found no stored record.
	MetricRestoreEmpty
	// MetricRestoreDiscarded counts boots that dropped a malformed record.
	MetricRestoreDiscarded
	// MetricRestoreUnavailable counts boots where storage could not be read.
	MetricRestoreUnavailable
	// MetricLoginSuccess counts logins that persisted and assigned an identity.
	MetricLoginSuccess
	// MetricLoginFailure counts every failed login.
	MetricLoginFailure
	// MetricLoginInvalidCredentials counts logins rejected for empty input.
	MetricLoginInvalidCredentials
	// MetricLoginPersistFailure counts logins that failed to write the record.
	MetricLoginPersistFailure
	// MetricLogout counts logout calls.
	MetricLogout
	// MetricLogoutEraseFailure counts logouts that could not erase the record.
	MetricLogoutEraseFailure
	// MetricGuardPlaceholder counts guarded requests answered with the placeholder.
	MetricGuardPlaceholder
	// MetricGuardRedirect counts guarded requests redirected to login.
	MetricGuardRedirect
	// MetricGuardAdmit counts guarded requests admitted to protected content.
	MetricGuardAdmit
	// MetricLoginLatency observes Login duration, including the simulated delay.
	MetricLoginLatency
	// MetricRestoreLatency observes the boot-time restore duration.
	MetricRestoreLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free Engine counters and latency histograms.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of Metrics plus the current session gauges.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64

	SessionAuthenticated bool
	SessionLoading       bool

	// AuditDropped counts audit events lost to backpressure, by event type.
	// Nil when audit is disabled.
	AuditDropped map[string]uint64
}

// NewMetrics returns Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id. Histogram ids are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount || isHistogram(id) {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Counter ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if !isHistogram(id) {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when latency is enabled, every histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 2),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if isHistogram(id) {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		for _, id := range [...]MetricID{MetricLoginLatency, MetricRestoreLatency} {
			buckets := make([]uint64, histBucketCount)
			for i := 0; i < histBucketCount; i++ {
				buckets[i] = atomic.LoadUint64(&m.histograms[id].buckets[i])
			}
			s.Histograms[id] = buckets
		}
	}

	return s
}

func isHistogram(id MetricID) bool {
	return id == MetricLoginLatency || id == MetricRestoreLatency
}

// bucketIndex maps d onto the upper bounds 10ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, +Inf.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 10:
		return 0
	case ms <= 50:
		return 1
	case ms <= 100:
		return 2
	case ms <= 250:
		return 3
	case ms <= 500:
		return 4
	case ms <= 1000:
		return 5
	case ms <= 2500:
		return 6
	default:
		return 7
	}
}
