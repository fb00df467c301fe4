// Package server provides the HTTP server and routing for the price map.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

// liveEvent is the wire format pushed to browser clients.
type liveEvent struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// liveClient is one connected websocket with its outbound queue.
type liveClient struct {
	send chan []byte
}

// LiveHub fans state-change events out to connected websocket clients.
// Slow clients get dropped rather than blocking the publisher.
type LiveHub struct {
	log     zerolog.Logger
	mu      sync.Mutex
	clients map[*liveClient]struct{}
}

// NewLiveHub creates a new live event hub
func NewLiveHub(log zerolog.Logger) *LiveHub {
	return &LiveHub{
		log:     log.With().Str("component", "live_hub").Logger(),
		clients: make(map[*liveClient]struct{}),
	}
}

// Publish broadcasts an event to all connected clients.
func (h *LiveHub) Publish(event string, payload interface{}) {
	data, err := json.Marshal(liveEvent{
		Type:      event,
		Payload:   payload,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("Failed to encode live event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Queue full: the client stopped reading, drop it.
			close(c.send)
			delete(h.clients, c)
			h.log.Warn().Msg("Dropped slow websocket client")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *LiveHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWebSocket handles GET /ws/live
func (h *LiveHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origin checks off, matching the wide-open CORS policy on the API.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}

	client := &liveClient{send: make(chan []byte, 32)}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.log.Debug().Int("clients", count).Msg("Websocket client connected")

	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[client]; ok {
			close(client.send)
			delete(h.clients, client)
		}
		h.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
		h.log.Debug().Msg("Websocket client disconnected")
	}()

	ctx := r.Context()

	// Drain inbound frames so pings and close frames are processed.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readDone:
			return
		case data, ok := <-client.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
