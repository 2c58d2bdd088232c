package goAuthMonitor

import (
	"fmt"
	"math"
	"time"
)

// Action is what a monitor operation ended up doing.
type Action uint8

const (
	// ActionNone means the token is comfortably valid; nothing was sent.
	ActionNone Action = iota
	// ActionStatusRefreshed means a missing expiry was derived and cached.
	ActionStatusRefreshed
	// ActionStatusFailed means a missing expiry could not be derived this cycle.
	ActionStatusFailed
	// ActionRenewed means a replacement token was stored.
	ActionRenewed
	// ActionRenewFailed means renewal failed and the previous token was kept.
	ActionRenewFailed
	// ActionExpired means the token was discarded and monitoring stopped.
	ActionExpired
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionStatusRefreshed:
		return "status_refreshed"
	case ActionStatusFailed:
		return "status_failed"
	case ActionRenewed:
		return "renewed"
	case ActionRenewFailed:
		return "renew_failed"
	case ActionExpired:
		return "expired"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}

// Result is the outcome of a monitor operation. Failures are carried in Err rather
// than returned separately; the monitor has already logged them.
type Result struct {
	Action Action
	// Expiry is the cached expiry in epoch seconds after the operation, or zero.
	Expiry int64
	// Remaining is the lifetime left when the check ran.
	Remaining time.Duration
	Err       error
}

// OK reports whether the operation finished without error.
func (r Result) OK() bool {
	return r.Err == nil
}

// Kind classifies Err.
func (r Result) Kind() FailureKind {
	return Classify(r.Err)
}

// State is the lifecycle state of a [Monitor].
type State uint8

const (
	StateUninitialized State = iota
	StateMonitoring
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateMonitoring:
		return "monitoring"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Status is a snapshot of the monitor and its cached expiry.
type Status struct {
	State        State
	HasExpiry    bool
	Expiry       int64
	TimeToExpire time.Duration
}

// HumanTimeToExpire renders the absolute time to expiry as "1h 2m 3s".
func (s Status) HumanTimeToExpire() string {
	d := s.TimeToExpire
	switch {
	case d == math.MinInt64:
		d = math.MaxInt64
	case d < 0:
		d = -d
	}
	h := int64(d / time.Hour)
	m := int64(d%time.Hour) / int64(time.Minute)
	sec := int64(d%time.Minute) / int64(time.Second)
	return fmt.Sprintf("%dh %dm %ds", h, m, sec)
}
