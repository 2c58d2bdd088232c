package goAuthMonitor

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType names a monitor lifecycle transition.
type EventType string

const (
	EventInitialized     EventType = "initialized"
	EventStatusRefreshed EventType = "status_refreshed"
	EventCheckFailed     EventType = "check_failed"
	EventRenewed         EventType = "renewed"
	EventRenewFailed     EventType = "renew_failed"
	EventExpired         EventType = "expired"
	EventStopped         EventType = "stopped"
)

// MonitorEvent is delivered to an [EventSink] for every state-changing action.
type MonitorEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	Success   bool              `json:"success"`
	Kind      FailureKind       `json:"kind,omitempty"`
	Error     string            `json:"error,omitempty"`
	Expiry    int64             `json:"expiry,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EventSink receives monitor events. Emit is called from a single dispatcher
// goroutine.
type EventSink interface {
	Emit(ctx context.Context, event MonitorEvent)
}

// NoOpSink discards events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, MonitorEvent) {}

// ChannelSink forwards events to a buffered channel.
type ChannelSink struct {
	events chan MonitorEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan MonitorEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event MonitorEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan MonitorEvent {
	return s.events
}

// JSONWriterSink writes one JSON document per event.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event MonitorEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
