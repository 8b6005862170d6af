// Package webhook delivers telemetry events to outgoing HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/flowcraft/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowcraft/pkg/domain/telemetry"
)

const (
	SignatureHeader = "X-Flowcraft-Signature"
	userAgent       = "FlowCraft-Webhook/1.0"

	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

var ErrUnknownEndpoint = errors.New("unknown webhook")

// Notifier posts events to every matching endpoint. Deliveries run in the
// background; Flush waits for them.
type Notifier struct {
	endpoints  []config.WebhookEndpoint
	client     *http.Client
	deadLetter *DeadLetterStore
	log        zerolog.Logger

	mu      sync.Mutex
	pending int
	idle    chan struct{} // closed whenever pending is zero
}

func NewNotifier(endpoints []config.WebhookEndpoint, deadLetter *DeadLetterStore, logger zerolog.Logger) *Notifier {
	return &Notifier{
		endpoints: endpoints,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		deadLetter: deadLetter,
		log:        logger,
		idle:       closedChan(),
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (n *Notifier) begin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pending == 0 {
		n.idle = make(chan struct{})
	}
	n.pending++
}

func (n *Notifier) end() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending--
	if n.pending == 0 {
		close(n.idle)
	}
}

// Payload is the JSON body sent to endpoints.
type Payload struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Notify sends event to all enabled endpoints whose filter matches.
func (n *Notifier) Notify(event *telemetry.Event) {
	if event == nil {
		return
	}
	for _, ep := range n.endpoints {
		if ep.Disabled || !matchesFilter(ep, event.Name) {
			continue
		}
		body, err := encode(ep, event)
		if err != nil {
			n.log.Warn().Err(err).Str("webhook", ep.Name).Str("event", event.Name).Msg("webhook: encode payload")
			continue
		}
		n.begin()
		go func(ep config.WebhookEndpoint) {
			defer n.end()
			n.deliver(context.Background(), ep, event.Name, body)
		}(ep)
	}
}

func encode(ep config.WebhookEndpoint, event *telemetry.Event) ([]byte, error) {
	if ep.Format == config.WebhookFormatSlack {
		return slackBody(event)
	}
	return json.Marshal(Payload{
		EventID:   event.ID,
		EventType: event.Name,
		Timestamp: event.Timestamp,
		Data:      event.Payload,
	})
}

// Flush blocks until pending deliveries finish or ctx is done. It is safe to
// call while other goroutines are still notifying; the notifier stays usable.
func (n *Notifier) Flush(ctx context.Context) error {
	n.mu.Lock()
	idle := n.idle
	n.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PingEvent is sent by Ping.
const PingEvent = "webhook_ping"

// Ping sends a single PingEvent to the named endpoint, without retries or
// filters, and reports the outcome.
func (n *Notifier) Ping(ctx context.Context, name string) error {
	for _, ep := range n.endpoints {
		if ep.Name != name {
			continue
		}
		body, err := encode(ep, &telemetry.Event{Name: PingEvent, Timestamp: time.Now().UTC()})
		if err != nil {
			return err
		}
		_, err = n.send(ctx, ep, body)
		return err
	}
	return fmt.Errorf("%w: webhook %q", ErrUnknownEndpoint, name)
}

func matchesFilter(ep config.WebhookEndpoint, eventType string) bool {
	return len(ep.Events) == 0 || slices.Contains(ep.Events, eventType)
}

func (n *Notifier) deliver(ctx context.Context, ep config.WebhookEndpoint, eventType string, body []byte) {
	maxRetries := ep.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := ep.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	r := retry.New[int](retry.Config{
		MaxAttempts:   maxRetries,
		InitialDelay:  retryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	status, err := r.Do(ctx, func(ctx context.Context) (int, error) {
		return n.send(ctx, ep, body)
	})
	if err == nil {
		n.log.Debug().Str("webhook", ep.Name).Str("event", eventType).Int("status", status).Msg("webhook delivered")
		return
	}

	n.log.Warn().Err(err).Str("webhook", ep.Name).Str("event", eventType).Msg("webhook delivery failed")
	if n.deadLetter == nil {
		return
	}
	dl := DeadLetter{
		Timestamp:   time.Now().UTC(),
		WebhookName: ep.Name,
		URL:         ep.URL,
		EventType:   eventType,
		Payload:     string(body),
		Error:       err.Error(),
		Attempts:    maxRetries,
	}
	if err := n.deadLetter.Append(dl); err != nil {
		n.log.Error().Err(err).Str("webhook", ep.Name).Msg("webhook: dead letter append failed")
	}
}

func (n *Notifier) send(ctx context.Context, ep config.WebhookEndpoint, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if ep.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, ep.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// Sign computes the HMAC-SHA256 signature header value of payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
