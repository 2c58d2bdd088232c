// Package otel publishes token monitor metrics through OpenTelemetry.
//
// [NewOTelExporter] registers one observable counter per monitor counter, a
// goauth_monitor_state gauge labelled by state, and the renew latency histogram as
// _bucket (labelled by le), _count and _sum instruments. A single callback reads the
// monitor on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate monitor state.
package otel
