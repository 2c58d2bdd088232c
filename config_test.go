package goAuthMonitor

import (
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.CheckInterval != 60*time.Second {
		t.Fatalf("expected 60s interval, got %v", cfg.CheckInterval)
	}
	if cfg.RenewThreshold != 180*time.Second {
		t.Fatalf("expected 180s threshold, got %v", cfg.RenewThreshold)
	}
	if cfg.Keys.AccessToken != "access_token" || cfg.Keys.Expiry != "jwt_expiry_time" {
		t.Fatalf("unexpected default keys %+v", cfg.Keys)
	}
	if cfg.Endpoints.Headers["HX-Request"] != "true" {
		t.Fatal("expected HX-Request header by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name: "https endpoints valid",
			mutate: func(c *Config) {
				c.Endpoints.CheckURL = "https://example.com/auth/token-check"
				c.Endpoints.RenewURL = "https://example.com/auth/token-renew"
			},
			wantValid: true,
		},
		{
			name: "relative endpoint invalid",
			mutate: func(c *Config) {
				c.Endpoints.CheckURL = "/auth/token-check"
			},
			wantValid: false,
		},
		{
			name: "ftp endpoint invalid",
			mutate: func(c *Config) {
				c.Endpoints.RenewURL = "ftp://example.com/renew"
			},
			wantValid: false,
		},
		{
			name: "zero interval invalid",
			mutate: func(c *Config) {
				c.CheckInterval = 0
			},
			wantValid: false,
		},
		{
			name: "negative threshold invalid",
			mutate: func(c *Config) {
				c.RenewThreshold = -time.Second
			},
			wantValid: false,
		},
		{
			name: "negative timeout invalid",
			mutate: func(c *Config) {
				c.Endpoints.RequestTimeout = -time.Second
			},
			wantValid: false,
		},
		{
			name: "zero timeout valid",
			mutate: func(c *Config) {
				c.Endpoints.RequestTimeout = 0
			},
			wantValid: true,
		},
		{
			name: "empty key invalid",
			mutate: func(c *Config) {
				c.Keys.Expiry = ""
			},
			wantValid: false,
		},
		{
			name: "shared key invalid",
			mutate: func(c *Config) {
				c.Keys.Expiry = c.Keys.AccessToken
			},
			wantValid: false,
		},
		{
			name: "events without buffer invalid",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "histograms without metrics invalid",
			mutate: func(c *Config) {
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
		{
			name: "histograms with metrics valid",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestWithConfigCopiesHeaders(t *testing.T) {
	cfg := DefaultConfig()
	b := New().WithConfig(cfg)
	cfg.Endpoints.Headers["HX-Request"] = "false"

	if got := b.config.Endpoints.Headers["HX-Request"]; got != "true" {
		t.Fatalf("builder config shares caller's header map, got %q", got)
	}
}
