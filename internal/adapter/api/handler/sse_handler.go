package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/V4T54L/restnav/internal/domain"
)

// Message types sent on the event stream.
const (
	MessageStatus = "status"
	MessageRate   = "rate"
)

// SSEMessage defines the structure of the message sent to the frontend.
type SSEMessage struct {
	Type  string                `json:"type"`
	Rate  float64               `json:"rate,omitempty"`
	Entry *domain.EntrySnapshot `json:"entry,omitempty"`
}

// SSEBroker manages SSE client connections and broadcasts entry status
// changes plus a per-second update rate.
type SSEBroker struct {
	logger  *slog.Logger
	clients map[chan []byte]struct{}
	mu      sync.RWMutex
	updates chan domain.EntrySnapshot
}

// NewSSEBroker creates a new SSEBroker and starts its processing loop.
func NewSSEBroker(ctx context.Context, logger *slog.Logger) *SSEBroker {
	broker := &SSEBroker{
		logger:  logger.With("component", "sse_broker"),
		clients: make(map[chan []byte]struct{}),
		updates: make(chan domain.EntrySnapshot, 1000), // Buffered channel
	}
	go broker.run(ctx)
	return broker
}

// ServeHTTP handles new client connections for the SSE stream.
func (b *SSEBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	messageChan := make(chan []byte, 64)
	b.addClient(messageChan)
	defer b.removeClient(messageChan)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messageChan:
			if !ok {
				return // Channel was closed
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// UpdateStatus is called for every entry change. It never blocks the
// dispatcher.
func (b *SSEBroker) UpdateStatus(entry *domain.LogEntry) {
	select {
	case b.updates <- entry.Snapshot():
	default:
		// Channel is full, drop the update to avoid blocking the dispatcher.
		b.logger.Warn("SSE update channel is full, dropping update.")
	}
}

// ClientCount returns the number of connected clients.
func (b *SSEBroker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *SSEBroker) addClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = struct{}{}
	b.logger.Info("SSE client connected")
}

func (b *SSEBroker) removeClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client)
		b.logger.Info("SSE client disconnected")
	}
}

func (b *SSEBroker) broadcast(msg SSEMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("Failed to marshal SSE message", "error", err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client <- data:
		default:
			// Slow client, skip rather than block the others.
		}
	}
}

// run is the main processing loop for the broker.
func (b *SSEBroker) run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	var currentCount int
	lastTimestamp := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot := <-b.updates:
			currentCount++
			b.broadcast(SSEMessage{Type: MessageStatus, Entry: &snapshot})
		case <-ticker.C:
			now := time.Now()
			duration := now.Sub(lastTimestamp).Seconds()
			rate := 0.0
			if duration > 0 {
				rate = float64(currentCount) / duration
			}

			b.broadcast(SSEMessage{Type: MessageRate, Rate: rate})

			// Reset for the next interval
			lastTimestamp = now
			currentCount = 0
		}
	}
}

var _ domain.StatusObserver = (*SSEBroker)(nil)
