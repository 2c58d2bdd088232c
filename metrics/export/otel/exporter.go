package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	monitor "github.com/MrEthical07/goAuthMonitor"
	"github.com/MrEthical07/goAuthMonitor/metrics/export/internaldefs"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is what the exporter observes on every collection. [monitor.Monitor]
// implements it.
type Source interface {
	MetricsSnapshot() monitor.MetricsSnapshot
	EventsDropped() uint64
	State() monitor.State
}

// OTelExporter publishes monitor metrics as observable instruments.
type OTelExporter struct {
	source       Source
	registration metric.Registration

	counters []metric.Int64ObservableCounter // parallel to internaldefs.CounterDefs
	dropped  metric.Int64ObservableCounter
	state    metric.Int64ObservableGauge

	latencyBuckets metric.Int64ObservableGauge
	latencyCount   metric.Int64ObservableCounter
	latencySum     metric.Float64ObservableCounter

	stateAttrs  []metric.ObserveOption
	bucketAttrs []metric.ObserveOption
}

// NewOTelExporter registers instruments on meter that observe m.
func NewOTelExporter(meter metric.Meter, m *monitor.Monitor) (*OTelExporter, error) {
	if m == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, m)
}

func NewOTelExporterFromSource(meter metric.Meter, source Source) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	if err := e.createInstruments(meter); err != nil {
		return nil, err
	}

	observables := make([]metric.Observable, 0, len(e.counters)+5)
	for _, c := range e.counters {
		observables = append(observables, c)
	}
	observables = append(observables, e.dropped, e.state, e.latencyBuckets, e.latencyCount, e.latencySum)

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration
	return e, nil
}

func (e *OTelExporter) createInstruments(meter metric.Meter) error {
	var err error
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, ins)
	}

	if e.dropped, err = meter.Int64ObservableCounter(internaldefs.DroppedEventsName,
		metric.WithDescription(internaldefs.DroppedEventsHelp)); err != nil {
		return fmt.Errorf("create dropped events counter: %w", err)
	}

	if e.state, err = meter.Int64ObservableGauge(internaldefs.StateName,
		metric.WithDescription(internaldefs.StateHelp)); err != nil {
		return fmt.Errorf("create state gauge: %w", err)
	}
	for _, st := range internaldefs.States {
		e.stateAttrs = append(e.stateAttrs,
			metric.WithAttributes(attribute.String(internaldefs.StateLabel, st.String())))
	}

	name := internaldefs.RenewLatencyName
	if e.latencyBuckets, err = meter.Int64ObservableGauge(name+"_bucket",
		metric.WithDescription("Cumulative renew latency bucket counts by upper bound.")); err != nil {
		return fmt.Errorf("create latency buckets: %w", err)
	}
	for _, le := range internaldefs.LatencyBounds {
		e.bucketAttrs = append(e.bucketAttrs, metric.WithAttributes(attribute.String("le", le)))
	}
	if e.latencyCount, err = meter.Int64ObservableCounter(name+"_count",
		metric.WithDescription("Renewals timed.")); err != nil {
		return fmt.Errorf("create latency count: %w", err)
	}
	if e.latencySum, err = meter.Float64ObservableCounter(name+"_sum",
		metric.WithDescription(internaldefs.RenewLatencyHelp), metric.WithUnit("s")); err != nil {
		return fmt.Errorf("create latency sum: %w", err)
	}
	return nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for i, def := range internaldefs.CounterDefs {
		o.ObserveInt64(e.counters[i], int64(snapshot.Counters[def.ID]))
	}
	o.ObserveInt64(e.dropped, int64(e.source.EventsDropped()))

	current := e.source.State()
	for i, st := range internaldefs.States {
		var v int64
		if st == current {
			v = 1
		}
		o.ObserveInt64(e.state, v, e.stateAttrs[i])
	}

	if cumulative, sum, ok := internaldefs.RenewLatency(snapshot); ok {
		for i := range cumulative {
			o.ObserveInt64(e.latencyBuckets, int64(cumulative[i]), e.bucketAttrs[i])
		}
		o.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))
		o.ObserveFloat64(e.latencySum, sum.Seconds())
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
