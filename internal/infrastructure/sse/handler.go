// Package sse streams dashboard snapshots as Server-Sent Events for clients
// that cannot hold a websocket.
package sse

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// Subscriber hands out snapshot channels. Satisfied by *dashboard.Hub.
type Subscriber interface {
	Subscribe() (<-chan []byte, func())
}

// Handler writes every published snapshot as a "dashboard" event.
type Handler struct {
	hub Subscriber
	seq atomic.Uint64
}

func NewHandler(hub Subscriber) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	frames, cancel := h.hub.Subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "id: %d\n", h.seq.Add(1))
			_, _ = fmt.Fprint(w, "event: dashboard\n")
			_, _ = fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
	}
}
