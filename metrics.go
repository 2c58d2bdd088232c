package goAuthMonitor

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a monitor counter or histogram.
type MetricID uint16

const (
	// MetricCheck counts expiry checks, scheduled or manual.
	MetricCheck MetricID = iota
	// MetricStatusRefreshSuccess counts expiries derived from claims or the check endpoint.
	MetricStatusRefreshSuccess
	// MetricStatusRefreshFailure counts failed attempts to derive an expiry.
	MetricStatusRefreshFailure
	// MetricRenewAttempt counts renewal requests sent.
	MetricRenewAttempt
	// MetricRenewSuccess counts renewals whose token was stored.
	MetricRenewSuccess
	// MetricRenewFailure counts renewals that left the old token in place.
	MetricRenewFailure
	// MetricMissingToken counts renewals skipped for lack of a cached token.
	MetricMissingToken
	// MetricMalformedToken counts cached tokens whose claims failed to decode.
	MetricMalformedToken
	// MetricTokenExpired counts tokens discarded after their expiry passed.
	MetricTokenExpired
	// MetricRenewLatency is the renewal round-trip latency histogram.
	MetricRenewLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
	sum     int64 // nanoseconds
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds allocation-free counters updated by the monitor.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
	// HistogramSums is the total of all observations per histogram.
	HistogramSums map[MetricID]time.Duration
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only [MetricRenewLatency] has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricRenewLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
	atomic.AddInt64(&m.histograms[id].sum, int64(d))
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies the current values. Disabled metrics yield empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}

	s := MetricsSnapshot{
		Counters:      make(map[MetricID]uint64, int(metricIDCount)),
		Histograms:    make(map[MetricID][]uint64, 1),
		HistogramSums: make(map[MetricID]time.Duration, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricRenewLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRenewLatency].buckets[i])
		}
		s.Histograms[MetricRenewLatency] = buckets
		s.HistogramSums[MetricRenewLatency] = time.Duration(atomic.LoadInt64(&m.histograms[MetricRenewLatency].sum))
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
