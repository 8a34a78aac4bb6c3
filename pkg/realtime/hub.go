package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"pest-alert-system/pkg/middleware"
)

// EventNewAlert is the single event type pushed over the alert stream.
const EventNewAlert = "new_alert"

// Message is one framed event delivered to a subscriber.
type Message struct {
	Event string
	Data  []byte
}

// Client is one connected alert subscriber. Send is buffered; a subscriber
// that cannot keep up is skipped, never waited on.
type Client struct {
	UserID string
	Name   string
	Send   chan Message
}

func NewClient(userID, name string) *Client {
	return &Client{
		UserID: userID,
		Name:   name,
		Send:   make(chan Message, 10),
	}
}

// Hub tracks the connected-subscriber set and fans published events out to
// every subscriber registered at the moment of publish. The set is
// process-local and rebuilt empty on restart.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

// Register adds a subscriber to the connected set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	middleware.ConnectedSubscribers.Set(float64(total))
	middleware.LogInfo("", fmt.Sprintf("Subscriber connected - UserID: %s (Total: %d)", c.UserID, total))
}

// Unregister removes a subscriber and closes its send channel. Safe to call
// for a client that was never registered or already removed.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	total := len(h.clients)
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		total = len(h.clients)
	}
	h.mu.Unlock()

	middleware.ConnectedSubscribers.Set(float64(total))
	middleware.LogInfo("", fmt.Sprintf("Subscriber disconnected - UserID: %s (Total: %d)", c.UserID, total))
}

// Broadcast marshals the payload and delivers it at most once to every
// currently registered subscriber. Subscribers with a full buffer are
// skipped; there is no queueing for clients that are not connected.
func (h *Hub) Broadcast(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := Message{Event: event, Data: data}

	h.mu.RLock()
	for client := range h.clients {
		select {
		case client.Send <- msg:
		default:
			// Subscriber buffer full, skip.
		}
	}
	delivered := len(h.clients)
	h.mu.RUnlock()

	middleware.AlertsBroadcast.Inc()
	middleware.LogInfo("", fmt.Sprintf("Broadcast %q delivered to %d subscribers", event, delivered))
	return nil
}

// ClientCount returns the size of the connected set.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
