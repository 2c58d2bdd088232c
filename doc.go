// Package goAuthMonitor keeps a client-side access token alive. A [Monitor] reads the
// token and its expiry from a [storage.Store], renews the token shortly before it
// expires and discards it once it has expired.
//
// Monitor methods are safe to call from multiple goroutines after construction
// through [Builder.Build].
//
// # Lifecycle
//
// A monitor starts Uninitialized. [Monitor.Initialize] moves it to Monitoring and
// starts one recurring check; calling it again replaces the running check instead of
// adding a second one. The monitor becomes Stopped when the token expires, when the
// context passed to Initialize is cancelled or when [Monitor.Stop] is called.
//
// # Failure handling
//
// Endpoint, network, missing-token and malformed-token failures never escape the
// check loop. They are logged, counted and reported in the [Result] of the call that
// hit them. [Classify] maps an error onto its [FailureKind].
//
// # What this package must NOT do
//
//   - Verify token signatures. Expiry is read from the claims only.
//   - Hold a lock across a request to the token endpoints.
//   - Run more than one recurring check per monitor.
package goAuthMonitor
