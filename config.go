package goAuthMonitor

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds every tunable of a [Monitor].
//
// Config values are copied by [Builder.WithConfig]; later changes to the caller's copy
// have no effect on a built monitor.
type Config struct {
	Endpoints      EndpointConfig
	Keys           KeyConfig
	CheckInterval  time.Duration
	RenewThreshold time.Duration
	Events         EventConfig
	Metrics        MetricsConfig
}

/*
====================================
ENDPOINT CONFIG
====================================
*/

// EndpointConfig locates the remote token endpoints.
type EndpointConfig struct {
	CheckURL       string
	RenewURL       string
	Headers        map[string]string
	RequestTimeout time.Duration
}

/*
====================================
STORAGE KEYS
====================================
*/

// KeyConfig names the storage keys the monitor reads and writes.
type KeyConfig struct {
	AccessToken string
	Expiry      string
	LastPage    string
}

/*
====================================
EVENTS + METRICS
====================================
*/

// EventConfig controls asynchronous delivery of [MonitorEvent] values.
type EventConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the defaults: a 60s check interval, a 180s renewal threshold
// and the storage keys used by the web frontend.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Endpoints: EndpointConfig{
			Headers:        map[string]string{"HX-Request": "true"},
			RequestTimeout: 10 * time.Second,
		},
		Keys: KeyConfig{
			AccessToken: "access_token",
			Expiry:      "jwt_expiry_time",
			LastPage:    "last_page_url",
		},
		CheckInterval:  60 * time.Second,
		RenewThreshold: 180 * time.Second,
		Events: EventConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Endpoints.Headers != nil {
		out.Endpoints.Headers = make(map[string]string, len(cfg.Endpoints.Headers))
		for k, v := range cfg.Endpoints.Headers {
			out.Endpoints.Headers[k] = v
		}
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting in c. Endpoint URLs may be empty when a
// custom token service is supplied to the builder.
func (c *Config) Validate() error {
	if c.CheckInterval <= 0 {
		return errors.New("check interval must be > 0")
	}
	if c.RenewThreshold <= 0 {
		return errors.New("renew threshold must be > 0")
	}
	if c.Endpoints.RequestTimeout < 0 {
		return errors.New("request timeout must be >= 0")
	}
	if err := validateURL("check", c.Endpoints.CheckURL); err != nil {
		return err
	}
	if err := validateURL("renew", c.Endpoints.RenewURL); err != nil {
		return err
	}

	if c.Keys.AccessToken == "" || c.Keys.Expiry == "" || c.Keys.LastPage == "" {
		return errors.New("storage keys must be non-empty")
	}
	if c.Keys.AccessToken == c.Keys.Expiry || c.Keys.AccessToken == c.Keys.LastPage || c.Keys.Expiry == c.Keys.LastPage {
		return errors.New("storage keys must be distinct")
	}

	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("event buffer size must be > 0 when events are enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("latency histograms require metrics to be enabled")
	}
	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s url: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s url: scheme must be http or https", name)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s url: missing host", name)
	}
	return nil
}
