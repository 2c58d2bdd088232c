package goAuthMonitor

import (
	"errors"
	"net/http"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/MrEthical07/goAuthMonitor/endpoint"
	"github.com/MrEthical07/goAuthMonitor/storage"
)

// Builder assembles a [Monitor].
//
// Builder instances are intended to be configured during initialization and then
// discarded; Build may be called once.
type Builder struct {
	config Config

	store      storage.Store
	service    TokenService
	httpClient *http.Client
	clock      clock.WithTicker
	logger     *logr.Logger
	eventSink  EventSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the backend holding the token and its expiry. Defaults to an
// in-memory store.
func (b *Builder) WithStore(store storage.Store) *Builder {
	b.store = store
	return b
}

// WithTokenService replaces the HTTP token endpoints. Endpoint URLs in the
// configuration are ignored when a service is set.
func (b *Builder) WithTokenService(svc TokenService) *Builder {
	b.service = svc
	return b
}

// WithHTTPClient sets the client used to reach the token endpoints.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithClock sets the time source. Tests pass a fake clock to drive ticks.
func (b *Builder) WithClock(c clock.WithTicker) *Builder {
	b.clock = c
	return b
}

// WithLogger sets the logger. The monitor logs nothing by default.
func (b *Builder) WithLogger(logger logr.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithEventSink enables events and delivers them to sink.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	b.config.Events.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the renewal latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns an uninitialized [Monitor]. Call
// [Monitor.Initialize] to start monitoring.
//
// Build returns [ErrNoTokenService] when neither a token service nor both endpoint
// URLs are configured.
func (b *Builder) Build() (*Monitor, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	service := b.service
	if service == nil {
		if cfg.Endpoints.CheckURL == "" || cfg.Endpoints.RenewURL == "" {
			return nil, ErrNoTokenService
		}
		service = endpoint.New(endpoint.Config{
			CheckURL: cfg.Endpoints.CheckURL,
			RenewURL: cfg.Endpoints.RenewURL,
			Headers:  cfg.Endpoints.Headers,
			Timeout:  cfg.Endpoints.RequestTimeout,
		}, b.httpClient)
	}

	store := b.store
	if store == nil {
		store = storage.NewMemory()
	}

	clk := b.clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	log := logr.Discard()
	if b.logger != nil {
		log = *b.logger
	}

	if cfg.Events.Enabled && b.eventSink == nil {
		return nil, errors.New("events enabled without an event sink")
	}

	b.built = true

	return &Monitor{
		cfg:     cfg,
		store:   store,
		service: service,
		clock:   clk,
		log:     log.WithName("token-monitor"),
		events:  newEventDispatcher(cfg.Events, b.eventSink, clk),
		metrics: NewMetrics(cfg.Metrics),
		state:   StateUninitialized,
	}, nil
}
