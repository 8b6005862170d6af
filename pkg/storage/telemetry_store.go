package storage

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flowcraft/pkg/domain/telemetry"
)

// FileTelemetryStore keeps usage events in telemetry.jsonl.
type FileTelemetryStore struct {
	file *JSONLines[telemetry.Event]
}

func NewFileTelemetryStore(dir string) *FileTelemetryStore {
	return &FileTelemetryStore{file: NewJSONLines[telemetry.Event](filepath.Join(dir, TelemetryFile))}
}

// Append stores event, assigning an ID and timestamp when they are unset.
func (s *FileTelemetryStore) Append(event *telemetry.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return s.file.Append(*event)
}

func (s *FileTelemetryStore) LoadAll() ([]*telemetry.Event, error) {
	events, err := s.file.ReadAll()
	if err != nil {
		return nil, err
	}
	out := make([]*telemetry.Event, len(events))
	for i := range events {
		out[i] = &events[i]
	}
	return out, nil
}

// LoadByName returns the events called name, oldest first.
func (s *FileTelemetryStore) LoadByName(name string) ([]*telemetry.Event, error) {
	all, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	var out []*telemetry.Event
	for _, e := range all {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out, nil
}
