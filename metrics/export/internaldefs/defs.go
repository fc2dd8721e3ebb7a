package internaldefs

import (
	"github.com/MrEthical07/aura"
)

// CounterDef names one Engine counter for exporters.
type CounterDef struct {
	ID   aura.MetricID
	Name string
	Help string
}

// HistogramDef names one Engine latency histogram for exporters.
type HistogramDef struct {
	ID   aura.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: aura.MetricRestoreRestored, Name: "aura_restore_restored_total", Help: "Boots that restored a stored session."},
	{ID: aura.MetricRestoreEmpty, Name: "aura_restore_empty_total", Help: "Boots that found no stored session."},
	{ID: aura.MetricRestoreDiscarded, Name: "aura_restore_discarded_total", Help: "Boots that discarded a malformed session record."},
	{ID: aura.MetricRestoreUnavailable, Name: "aura_restore_unavailable_total", Help: "Boots where session storage could not be read."},
	{ID: aura.MetricLoginSuccess, Name: "aura_login_success_total", Help: "Successful login attempts."},
	{ID: aura.MetricLoginFailure, Name: "aura_login_failure_total", Help: "Failed login attempts."},
	{ID: aura.MetricLoginInvalidCredentials, Name: "aura_login_invalid_credentials_total", Help: "Login attempts rejected for empty credentials."},
	{ID: aura.MetricLoginPersistFailure, Name: "aura_login_persist_failure_total", Help: "Login attempts that could not persist the session record."},
	{ID: aura.MetricLogout, Name: "aura_logout_total", Help: "Logout operations."},
	{ID: aura.MetricLogoutEraseFailure, Name: "aura_logout_erase_failure_total", Help: "Logouts that could not erase the session record."},
	{ID: aura.MetricGuardPlaceholder, Name: "aura_guard_placeholder_total", Help: "Guarded requests answered with the loading placeholder."},
	{ID: aura.MetricGuardRedirect, Name: "aura_guard_redirect_total", Help: "Guarded requests redirected to login."},
	{ID: aura.MetricGuardAdmit, Name: "aura_guard_admit_total", Help: "Guarded requests admitted to protected content."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: aura.MetricLoginLatency, Name: "aura_login_latency_seconds", Help: "Login latency histogram."},
	{ID: aura.MetricRestoreLatency, Name: "aura_restore_latency_seconds", Help: "Session restore latency histogram."},
}

// Gauge names for the current session state.
const (
	GaugeSessionAuthenticated = "aura_session_authenticated"
	GaugeSessionLoading       = "aura_session_loading"
	CounterAuditDropped       = "aura_audit_dropped_total"
)

// HistogramBounds are the upper bounds, in seconds, of the Engine histogram buckets.
var HistogramBounds = []string{
	"0.01",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundSuffix names each bucket for exporters that cannot carry labels.
var HistogramBoundSuffix = []string{
	"0_01",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form both
// exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

// BoolGauge renders a session flag as 0 or 1.
func BoolGauge(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}
