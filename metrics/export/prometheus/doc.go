// Package prometheus serves token monitor metrics in Prometheus text exposition format.
//
// [NewPrometheusExporter] wraps a [monitor.Monitor] and exposes an [http.Handler]. Counter
// names are prefixed goauth_monitor_*_total, goauth_monitor_state reports the lifecycle
// state, and goauth_monitor_renew_latency_seconds is present when latency histograms
// are enabled.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate monitor state.
package prometheus
