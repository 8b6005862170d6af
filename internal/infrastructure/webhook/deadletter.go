package webhook

import (
	"time"

	"github.com/felixgeelhaar/flowcraft/pkg/storage"
)

// DeadLetterFile holds deliveries that exhausted their retries.
const DeadLetterFile = "webhook_deadletters.jsonl"

// DeadLetter records one failed delivery.
type DeadLetter struct {
	Timestamp   time.Time `json:"timestamp"`
	WebhookName string    `json:"webhook_name"`
	URL         string    `json:"url"`
	EventType   string    `json:"event_type"`
	Payload     string    `json:"payload"`
	Error       string    `json:"error"`
	Attempts    int       `json:"attempts"`
}

type DeadLetterStore struct {
	file *storage.JSONLines[DeadLetter]
}

func NewDeadLetterStore(path string) *DeadLetterStore {
	return &DeadLetterStore{file: storage.NewJSONLines[DeadLetter](path)}
}

func (s *DeadLetterStore) Append(dl DeadLetter) error {
	return s.file.Append(dl)
}

// ReadAll returns failed deliveries oldest first; nil when none were recorded.
func (s *DeadLetterStore) ReadAll() ([]DeadLetter, error) {
	return s.file.ReadAll()
}
