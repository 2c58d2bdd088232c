package goAuthMonitor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

// eventDispatcher hands monitor events to a sink on its own goroutine so that a slow
// sink never holds up a check. It stamps every event and fills in the failure fields
// from the error that caused it.
type eventDispatcher struct {
	sink       EventSink
	clock      clock.PassiveClock
	dropIfFull bool

	// mu guards closed; sends on queue happen under the read lock so Close never
	// closes the channel under a sender.
	mu     sync.RWMutex
	closed bool
	queue  chan MonitorEvent
	done   chan struct{}

	dropped atomic.Uint64
}

func newEventDispatcher(cfg EventConfig, sink EventSink, clk clock.PassiveClock) *eventDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}

	d := &eventDispatcher{
		sink:       sink,
		clock:      clk,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan MonitorEvent, size),
		done:       make(chan struct{}),
	}
	go d.deliver()
	return d
}

func (d *eventDispatcher) deliver() {
	defer close(d.done)
	for ev := range d.queue {
		d.sink.Emit(context.Background(), ev)
	}
}

// Emit queues ev. A non-nil cause marks the event failed and records its kind.
// Without DropIfFull a full queue blocks until there is room or ctx is done; either
// way an event that cannot be queued is counted as dropped.
func (d *eventDispatcher) Emit(ctx context.Context, ev MonitorEvent, cause error) {
	if d == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.Timestamp = d.clock.Now()
	ev.Success = cause == nil
	if cause != nil {
		ev.Kind = Classify(cause)
		ev.Error = cause.Error()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- ev:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- ev:
	case <-ctx.Done():
		d.dropped.Add(1)
	}
}

// Close delivers whatever is queued and waits for the sink to finish. Later Emits
// are ignored.
func (d *eventDispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *eventDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
