package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	monitor "github.com/MrEthical07/goAuthMonitor"
	"github.com/MrEthical07/goAuthMonitor/storage"
)

const (
	storeMemory    = "memory"
	storeRedis     = "redis"
	storeMiniredis = "miniredis"
	storeFile      = "file"
)

type options struct {
	checkURL  string
	renewURL  string
	interval  time.Duration
	threshold time.Duration
	timeout   time.Duration
	headers   map[string]string

	store       string
	redisAddr   string
	redisPrefix string
	filePath    string

	token       string
	metricsAddr string
	events      bool
}

func newOptions() *options {
	def := monitor.DefaultConfig()
	return &options{
		interval:    def.CheckInterval,
		threshold:   def.RenewThreshold,
		timeout:     def.Endpoints.RequestTimeout,
		headers:     map[string]string{},
		store:       storeMemory,
		redisPrefix: "tm",
	}
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.checkURL, "check-url", o.checkURL, "token-check endpoint URL (required)")
	fs.StringVar(&o.renewURL, "renew-url", o.renewURL, "token-renewal endpoint URL (required)")
	fs.DurationVar(&o.interval, "interval", o.interval, "time between expiry checks")
	fs.DurationVar(&o.threshold, "threshold", o.threshold, "renew once less than this lifetime remains")
	fs.DurationVar(&o.timeout, "timeout", o.timeout, "per-request timeout, 0 disables it")
	fs.StringToStringVar(&o.headers, "header", o.headers, "extra request headers as name=value, added to HX-Request=true")

	fs.StringVar(&o.store, "store", o.store, "token store: memory, redis, miniredis or file")
	fs.StringVar(&o.redisAddr, "redis-addr", o.redisAddr, "redis address; REDIS_ADDR is used when empty")
	fs.StringVar(&o.redisPrefix, "redis-prefix", o.redisPrefix, "redis key prefix")
	fs.StringVar(&o.filePath, "file", o.filePath, "token file used by --store=file")

	fs.StringVar(&o.token, "token", o.token, "seed the store with this access token")
	fs.StringVar(&o.metricsAddr, "metrics-addr", o.metricsAddr, "serve /metrics and /status on this address")
	fs.BoolVar(&o.events, "events", o.events, "write monitor events to stdout as JSON lines")
}

func (o *options) config() (monitor.Config, error) {
	if o.checkURL == "" || o.renewURL == "" {
		return monitor.Config{}, fmt.Errorf("--check-url and --renew-url are required")
	}

	cfg := monitor.DefaultConfig()
	cfg.Endpoints.CheckURL = o.checkURL
	cfg.Endpoints.RenewURL = o.renewURL
	cfg.Endpoints.Headers = mergeHeaders(cfg.Endpoints.Headers, o.headers)
	cfg.Endpoints.RequestTimeout = o.timeout
	cfg.CheckInterval = o.interval
	cfg.RenewThreshold = o.threshold
	if o.events {
		cfg.Events.Enabled = true
		cfg.Events.DropIfFull = false
	}
	if err := cfg.Validate(); err != nil {
		return monitor.Config{}, err
	}
	return cfg, nil
}

// openStore returns the configured store and a function releasing it.
func (o *options) openStore() (storage.Store, func(), error) {
	switch o.store {
	case storeMemory:
		return storage.NewMemory(), func() {}, nil

	case storeFile:
		if o.filePath == "" {
			return nil, nil, fmt.Errorf("--file is required with --store=file")
		}
		return storage.NewFile(o.filePath), func() {}, nil

	case storeRedis:
		addr := o.redisAddr
		if addr == "" {
			addr = os.Getenv("REDIS_ADDR")
		}
		if addr == "" {
			return nil, nil, fmt.Errorf("--redis-addr or REDIS_ADDR is required with --store=redis")
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		klog.InfoS("using redis", "addr", addr)
		return storage.NewRedis(client, o.redisPrefix), func() { _ = client.Close() }, nil

	case storeMiniredis:
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		klog.InfoS("using miniredis", "addr", mr.Addr())
		return storage.NewRedis(client, o.redisPrefix), func() {
			_ = client.Close()
			mr.Close()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", o.store)
	}
}

// mergeHeaders returns base overlaid with extra. Header names match case-insensitively.
func mergeHeaders(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		for existing := range out {
			if strings.EqualFold(existing, k) {
				delete(out, existing)
			}
		}
		out[k] = v
	}
	return out
}
