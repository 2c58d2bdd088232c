package internaldefs

import (
	"time"

	monitor "github.com/MrEthical07/goAuthMonitor"
)

// CounterDef names one monitor counter.
type CounterDef struct {
	ID   monitor.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: monitor.MetricCheck, Name: "goauth_monitor_checks_total", Help: "Expiry checks, scheduled or manual."},
	{ID: monitor.MetricStatusRefreshSuccess, Name: "goauth_monitor_status_refresh_success_total", Help: "Expiries derived from token claims or the check endpoint."},
	{ID: monitor.MetricStatusRefreshFailure, Name: "goauth_monitor_status_refresh_failure_total", Help: "Failed attempts to derive a token expiry."},
	{ID: monitor.MetricRenewAttempt, Name: "goauth_monitor_renew_attempt_total", Help: "Renewal requests sent."},
	{ID: monitor.MetricRenewSuccess, Name: "goauth_monitor_renew_success_total", Help: "Renewals whose replacement token was stored."},
	{ID: monitor.MetricRenewFailure, Name: "goauth_monitor_renew_failure_total", Help: "Renewals that left the previous token in place."},
	{ID: monitor.MetricMissingToken, Name: "goauth_monitor_missing_token_total", Help: "Renewals skipped because no token was cached."},
	{ID: monitor.MetricMalformedToken, Name: "goauth_monitor_malformed_token_total", Help: "Cached tokens whose claims could not be decoded."},
	{ID: monitor.MetricTokenExpired, Name: "goauth_monitor_token_expired_total", Help: "Tokens discarded after expiry."},
}

const (
	// RenewLatencyName is the renewal round-trip histogram.
	RenewLatencyName = "goauth_monitor_renew_latency_seconds"
	RenewLatencyHelp = "Renewal round-trip latency in seconds."

	// DroppedEventsName is the counter reporting events lost to a full dispatcher buffer.
	DroppedEventsName = "goauth_monitor_events_dropped_total"
	DroppedEventsHelp = "Monitor events dropped because the event queue was full."

	// StateName is a gauge set to 1 for the monitor's current lifecycle state and 0
	// for the others.
	StateName = "goauth_monitor_state"
	StateHelp = "Lifecycle state of the token monitor."
	// StateLabel carries the state name.
	StateLabel = "state"
)

// States lists every lifecycle state reported under [StateName].
var States = []monitor.State{
	monitor.StateUninitialized,
	monitor.StateMonitoring,
	monitor.StateStopped,
}

// LatencyBounds are the upper bounds, in seconds, of the renew latency buckets.
var LatencyBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// RenewLatency reads the renew latency histogram from s as cumulative bucket counts
// aligned with [LatencyBounds], plus the observation total. ok is false when latency
// histograms are disabled.
func RenewLatency(s monitor.MetricsSnapshot) (cumulative []uint64, sum time.Duration, ok bool) {
	raw, ok := s.Histograms[monitor.MetricRenewLatency]
	if !ok {
		return nil, 0, false
	}
	cumulative = make([]uint64, len(LatencyBounds))
	var running uint64
	for i := range cumulative {
		if i < len(raw) {
			running += raw[i]
		}
		cumulative[i] = running
	}
	return cumulative, s.HistogramSums[monitor.MetricRenewLatency], true
}
