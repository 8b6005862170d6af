package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/telemetry"
)

// Telemetry records usage events to the log and, when a store is set, to
// telemetry.jsonl. Recording failures are logged and never returned to the
// user-facing operation.
type Telemetry struct {
	store telemetry.Store
	sinks []EventSink
	log   zerolog.Logger
	now   func() time.Time
}

// EventSink receives every tracked event after it is stored.
type EventSink interface {
	Notify(e *telemetry.Event)
}

func NewTelemetry(store telemetry.Store, logger zerolog.Logger) *Telemetry {
	return &Telemetry{store: store, log: logger, now: time.Now}
}

// AddSink forwards future events to sink.
func (t *Telemetry) AddSink(sink EventSink) {
	t.sinks = append(t.sinks, sink)
}

// Track records one event and returns it.
func (t *Telemetry) Track(name string, payload map[string]any) *telemetry.Event {
	if t == nil {
		return nil
	}
	event := &telemetry.Event{
		ID:        uuid.New().String(),
		Name:      name,
		Payload:   payload,
		Timestamp: t.now().UTC(),
	}

	t.log.Info().
		Str("event_id", event.ID).
		Str("event", name).
		Interface("payload", payload).
		Msg("telemetry")

	if t.store != nil {
		if err := t.store.Append(event); err != nil {
			t.log.Warn().Err(err).Str("event", name).Msg("telemetry: append failed")
		}
	}
	for _, sink := range t.sinks {
		sink.Notify(event)
	}
	return event
}
