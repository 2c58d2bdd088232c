package goAuthMonitor

import (
	"net"
	"net/url"
	"time"
)

// LintWarning is a configuration that is valid but probably unintended.
type LintWarning struct {
	Code    string
	Message string
}

// LintResult is the list of warnings produced by [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// Lint flags settings that pass [Config.Validate] but weaken renewal guarantees.
func (c *Config) Lint() LintResult {
	var ws LintResult

	if c.RenewThreshold < c.CheckInterval {
		ws = append(ws, LintWarning{
			Code:    "threshold_below_interval",
			Message: "renew threshold is shorter than the check interval; a token may expire between ticks",
		})
	}
	if c.CheckInterval > 0 && c.CheckInterval < 5*time.Second {
		ws = append(ws, LintWarning{
			Code:    "interval_short",
			Message: "check interval below 5s polls the token endpoints aggressively",
		})
	}
	if c.Endpoints.RequestTimeout == 0 {
		ws = append(ws, LintWarning{
			Code:    "timeout_disabled",
			Message: "requests have no timeout; a hung endpoint stalls the check loop",
		})
	} else if c.Endpoints.RequestTimeout > c.CheckInterval {
		ws = append(ws, LintWarning{
			Code:    "timeout_exceeds_interval",
			Message: "request timeout exceeds the check interval; ticks may overlap",
		})
	}
	for _, raw := range []string{c.Endpoints.CheckURL, c.Endpoints.RenewURL} {
		if insecureRemote(raw) {
			ws = append(ws, LintWarning{
				Code:    "insecure_endpoint",
				Message: "bearer tokens are sent over plain http to " + raw,
			})
		}
	}
	return ws
}

func insecureRemote(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return false
	}
	return true
}
